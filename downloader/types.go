package downloader

import (
	"time"
)

// Service identifies the platform a URL belongs to
type Service string

const (
	ServiceUnknown Service = ""
	ServiceYouTube Service = "youtube"
	ServiceVK      Service = "vk"
	ServiceTikTok  Service = "tiktok"
)

// ParseService converts a callback or config token into a Service
func ParseService(s string) (Service, bool) {
	switch Service(s) {
	case ServiceYouTube, ServiceVK, ServiceTikTok:
		return Service(s), true
	default:
		return ServiceUnknown, false
	}
}

// DisplayName returns the human readable platform name
func (s Service) DisplayName() string {
	switch s {
	case ServiceYouTube:
		return "YouTube"
	case ServiceVK:
		return "VK"
	case ServiceTikTok:
		return "TikTok"
	default:
		return "Unknown"
	}
}

// MediaKind is the download target offered to the user
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// ParseMediaKind converts a callback token into a MediaKind
func ParseMediaKind(s string) (MediaKind, bool) {
	switch MediaKind(s) {
	case MediaAudio, MediaVideo:
		return MediaKind(s), true
	default:
		return "", false
	}
}

// Title returns the capitalised kind, e.g. "Audio"
func (k MediaKind) Title() string {
	if k == MediaAudio {
		return "Audio"
	}
	return "Video"
}

// MediaInfo is metadata fetched before any download decision is made
type MediaInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"` // seconds
}

// DownloadRequest describes a single user-selected download.
// It is created when a format button is pressed and never modified afterwards.
type DownloadRequest struct {
	URL       string    `json:"url"`
	Service   Service   `json:"service"`
	Kind      MediaKind `json:"kind"`
	ChatID    int64     `json:"chat_id"`
	MessageID int       `json:"message_id"`
	// ReplyToMessageID is the user's original message carrying the link
	ReplyToMessageID int `json:"reply_to_message_id"`
}

// DownloadResult contains the result of a successful download
type DownloadResult struct {
	FilePath string        `json:"file_path"`
	FileSize int64         `json:"file_size"`
	Info     MediaInfo     `json:"info"`
	Kind     MediaKind     `json:"kind"`
	Format   string        `json:"format"`
	Duration time.Duration `json:"duration"`
}
