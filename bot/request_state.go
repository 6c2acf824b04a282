package bot

// RequestState is the lifecycle position of a single download request
type RequestState int

const (
	StateIdle RequestState = iota
	StateMetadataFetched
	StateFormatChosen
	StateDownloading
	StateUploading
	StateDone
	StateFailed
	StateCancelled
)

// String returns the string representation of the state
func (s RequestState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMetadataFetched:
		return "metadata_fetched"
	case StateFormatChosen:
		return "format_chosen"
	case StateDownloading:
		return "downloading"
	case StateUploading:
		return "uploading"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible
func (s RequestState) IsTerminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

var allowedTransitions = map[RequestState][]RequestState{
	StateIdle:            {StateMetadataFetched, StateFailed},
	StateMetadataFetched: {StateFormatChosen, StateCancelled, StateFailed},
	StateFormatChosen:    {StateDownloading, StateCancelled, StateFailed},
	StateDownloading:     {StateUploading, StateCancelled, StateFailed},
	StateUploading:       {StateDone, StateFailed},
}

// CanTransition reports whether moving from s to next is allowed.
// Every non-terminal state may fail; only a running or queued download can
// be cancelled, and an upload in progress cannot.
func (s RequestState) CanTransition(next RequestState) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
