package bot

import (
	"fmt"

	"github.com/gotd/td/telegram/message/entity"

	"go-media-bot/downloader"
)

const (
	textCancelAlert      = "Download cancelled"
	textCancelled        = "🚫 Download cancelled by user."
	textProcessingError  = "❌ An error occurred during processing."
	textMetadataError    = "❌ Could not get video information."
	textLinkError        = "❌ An error occurred while processing the video."
	textQueueFull        = "⏳ Too many downloads in progress, please try again later."
	textRequestExpired   = "This request has expired, please send the link again."
	textAlreadyCancelled = "Download is not running"
	textAlreadyRunning   = "Download is already running"
)

func plainText(s string) Text {
	return Text{Message: s}
}

func boldText(s string) Text {
	var b entity.Builder
	b.Bold(s)
	msg, entities := b.Complete()
	return Text{Message: msg, Entities: entities}
}

// WelcomeText is the /start reply
func WelcomeText() Text {
	var b entity.Builder
	writeWelcome(&b)
	msg, entities := b.Complete()
	return Text{Message: msg, Entities: entities}
}

func writeWelcome(b *entity.Builder) {
	b.Bold("🎵 Media Downloader Bot")
	b.Plain("\n\nSend me a link from:\n- YouTube\n- TikTok\n- VK\n\n")
	b.Plain("I can download:\n- Audio (MP3)\n- Video (without watermark for TikTok)\n\n")
	b.Bold("📌 Features:")
	b.Plain("\n- Fast conversion\n- High quality audio/video\n- Progress tracking\n- File size optimization\n\n")
	b.Italic("Just paste any supported URL...")
}

// MediaFoundText is the format menu caption
func MediaFoundText(service downloader.Service, info *downloader.MediaInfo) Text {
	var b entity.Builder
	b.Bold(fmt.Sprintf("🎬 %s Video Found:", service.DisplayName()))
	b.Plain("\n\n")
	b.Bold("📌 Title:")
	b.Plain(" " + info.Title + "\n")
	b.Bold("⏱ Duration:")
	b.Plain(" " + FormatDuration(info.Duration) + "\n\n")
	b.Italic("Choose download format:")
	msg, entities := b.Complete()
	return Text{Message: msg, Entities: entities}
}

// DownloadingText is the status message while a transfer runs
func DownloadingText(kind downloader.MediaKind, service downloader.Service, percent float64) Text {
	msg, entities := downloader.ProgressMessage(kind, service, percent)
	return Text{Message: msg, Entities: entities}
}

// UploadingText is shown while the file is sent to the chat
func UploadingText(kind downloader.MediaKind) Text {
	return boldText(fmt.Sprintf("📤 Uploading %s...", kind))
}

// SentText is the final status after a successful upload
func SentText(kind downloader.MediaKind) Text {
	return plainText(fmt.Sprintf("✅ %s sent successfully!", kind.Title()))
}

// DownloadFailedText is shown when the engine could not fetch the media
func DownloadFailedText(kind downloader.MediaKind) Text {
	return plainText(fmt.Sprintf("❌ Failed to download %s.", kind))
}

// TooLargeText is shown when the file exceeds the upload cap
func TooLargeText(kind downloader.MediaKind, limit int64) Text {
	return plainText(fmt.Sprintf("⚠️ The %s file is too large to send via Telegram (max %.1fMB).",
		kind, float64(limit)/1024/1024))
}

// InvalidURLText is the reply to a link that mentions a service but does not
// belong to it
func InvalidURLText(service downloader.Service) Text {
	return plainText(fmt.Sprintf("⚠️ Please send a valid %s URL.", service.DisplayName()))
}

// FormatDuration renders seconds as m:ss
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
