package bot

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gotd/td/tg"

	"go-media-bot/downloader"
)

// menuTTL bounds how long an unanswered format menu stays resolvable
const menuTTL = 24 * time.Hour

type messageKey struct {
	chatID    int64
	messageID int
}

// Menu is a format menu sent in reply to a link
type Menu struct {
	URL     string
	Service downloader.Service
	// OriginMessageID is the user's message carrying the link
	OriginMessageID int
	// Token is set when the link did not fit into the button payload
	Token     string
	CreatedAt time.Time
}

// Request is one user-selected download. The status message is the menu
// message, edited in place.
type Request struct {
	ID              string
	URL             string
	Service         downloader.Service
	Kind            downloader.MediaKind
	ChatID          int64
	UserID          int64
	Peer            tg.InputPeerClass
	StatusMessageID int
	OriginMessageID int
	Status          *downloader.DownloadStatus
	CreatedAt       time.Time

	mu    sync.Mutex
	state RequestState
}

// NewRequest creates a request for a pressed format button
func NewRequest(chatID int64, statusMessageID int, menu Menu, kind downloader.MediaKind) *Request {
	return &Request{
		ID:              GenerateUniqueID(chatID, statusMessageID),
		URL:             menu.URL,
		Service:         menu.Service,
		Kind:            kind,
		ChatID:          chatID,
		StatusMessageID: statusMessageID,
		OriginMessageID: menu.OriginMessageID,
		Status: downloader.NewDownloadStatus(downloader.StatusMessage{
			ChatID:    chatID,
			MessageID: statusMessageID,
		}),
		CreatedAt: time.Now(),
		state:     StateMetadataFetched,
	}
}

// State returns the current state
func (r *Request) State() RequestState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Transition moves the request to next if the state machine allows it
func (r *Request) Transition(next RequestState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.CanTransition(next) {
		return fmt.Errorf("invalid request transition %s -> %s", r.state, next)
	}
	r.state = next
	return nil
}

// Start moves a queued request to downloading. It returns false if the
// request was cancelled while waiting for a slot.
func (r *Request) Start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateFormatChosen || r.Status.Cancelled() {
		return false
	}
	r.state = StateDownloading
	return true
}

// BeginUpload moves a finished transfer to uploading. It returns false if
// the user cancelled after the transfer completed.
func (r *Request) BeginUpload() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateDownloading || r.Status.Cancelled() {
		return false
	}
	r.state = StateUploading
	return true
}

// Cancel cancels a queued or running download. started reports whether the
// transfer was already running, in which case the download goroutine renders
// the outcome; ok is false if there was nothing to cancel.
func (r *Request) Cancel() (started bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateFormatChosen:
		r.state = StateCancelled
		r.Status.Cancel()
		return false, true
	case StateDownloading:
		return true, r.Status.Cancel()
	default:
		return false, false
	}
}

// DownloadRequest converts the request into the downloader's input
func (r *Request) DownloadRequest() downloader.DownloadRequest {
	return downloader.DownloadRequest{
		URL:              r.URL,
		Service:          r.Service,
		Kind:             r.Kind,
		ChatID:           r.ChatID,
		MessageID:        r.StatusMessageID,
		ReplyToMessageID: r.OriginMessageID,
	}
}

// GenerateUniqueID creates a unique ID for a request
func GenerateUniqueID(chatID int64, messageID int) string {
	return fmt.Sprintf("%d:%d", chatID, messageID)
}

// RequestRegistry tracks format menus, long links and running requests.
// Each request is keyed by its chat and status message.
type RequestRegistry struct {
	mu     sync.Mutex
	menus  map[messageKey]Menu
	links  map[string]string
	active map[messageKey]*Request
	peers  map[int64]tg.InputPeerClass
	now    func() time.Time
}

// NewRequestRegistry creates an empty registry
func NewRequestRegistry() *RequestRegistry {
	return &RequestRegistry{
		menus:  make(map[messageKey]Menu),
		links:  make(map[string]string),
		active: make(map[messageKey]*Request),
		peers:  make(map[int64]tg.InputPeerClass),
		now:    time.Now,
	}
}

// StoreLink stores a link that is too long for a button payload and returns
// its token
func (rr *RequestRegistry) StoreLink(url string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")

	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.links[token] = url
	return token
}

// ResolveLink returns the link stored under token
func (rr *RequestRegistry) ResolveLink(token string) (string, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	url, ok := rr.links[token]
	return url, ok
}

// ForgetLink drops a stored link. Empty tokens are ignored.
func (rr *RequestRegistry) ForgetLink(token string) {
	if token == "" {
		return
	}
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.links, token)
}

// RegisterMenu records a sent format menu
func (rr *RequestRegistry) RegisterMenu(chatID int64, menuID int, menu Menu) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	now := rr.now()
	if menu.CreatedAt.IsZero() {
		menu.CreatedAt = now
	}
	rr.pruneLocked(now)
	rr.menus[messageKey{chatID, menuID}] = menu
}

// Menu returns the menu recorded for a message
func (rr *RequestRegistry) Menu(chatID int64, menuID int) (Menu, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	menu, ok := rr.menus[messageKey{chatID, menuID}]
	return menu, ok
}

// RemoveMenu forgets a menu and its stored link
func (rr *RequestRegistry) RemoveMenu(chatID int64, menuID int) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.removeMenuLocked(messageKey{chatID, menuID})
}

func (rr *RequestRegistry) removeMenuLocked(key messageKey) {
	if menu, ok := rr.menus[key]; ok && menu.Token != "" {
		delete(rr.links, menu.Token)
	}
	delete(rr.menus, key)
}

// pruneLocked drops menus nobody answered within menuTTL
func (rr *RequestRegistry) pruneLocked(now time.Time) {
	for key, menu := range rr.menus {
		if now.Sub(menu.CreatedAt) <= menuTTL {
			continue
		}
		if _, running := rr.active[key]; running {
			continue
		}
		rr.removeMenuLocked(key)
	}
}

// Begin registers a request as active. It fails if a request is already
// running for the same status message.
func (rr *RequestRegistry) Begin(req *Request) error {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	key := messageKey{req.ChatID, req.StatusMessageID}
	if _, exists := rr.active[key]; exists {
		return fmt.Errorf("request %s is already active", req.ID)
	}
	rr.active[key] = req
	return nil
}

// Active returns the request whose status message is messageID
func (rr *RequestRegistry) Active(chatID int64, messageID int) (*Request, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	req, ok := rr.active[messageKey{chatID, messageID}]
	return req, ok
}

// Finish removes a request and its menu
func (rr *RequestRegistry) Finish(req *Request) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	key := messageKey{req.ChatID, req.StatusMessageID}
	if current, ok := rr.active[key]; ok && current == req {
		delete(rr.active, key)
	}
	rr.removeMenuLocked(key)
}

// ActiveCount returns the number of active requests
func (rr *RequestRegistry) ActiveCount() int {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return len(rr.active)
}

// RememberPeer caches the addressable peer of a chat
func (rr *RequestRegistry) RememberPeer(chatID int64, peer tg.InputPeerClass) {
	if !hasAccessHash(peer) {
		return
	}
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.peers[chatID] = peer
}

// ResolvePeer prefers a cached peer carrying an access hash over peer
func (rr *RequestRegistry) ResolvePeer(chatID int64, peer tg.InputPeerClass) tg.InputPeerClass {
	if hasAccessHash(peer) {
		return peer
	}
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if cached, ok := rr.peers[chatID]; ok {
		return cached
	}
	return peer
}

func hasAccessHash(peer tg.InputPeerClass) bool {
	switch p := peer.(type) {
	case *tg.InputPeerUser:
		return p.AccessHash != 0
	case *tg.InputPeerChannel:
		return p.AccessHash != 0
	case *tg.InputPeerChat:
		// Basic groups are addressed by ID alone.
		return true
	}
	return false
}
