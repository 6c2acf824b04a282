package bot

import (
	"github.com/gotd/td/tg"

	"go-media-bot/downloader"
)

func callbackButton(text, data string) *tg.KeyboardButtonCallback {
	return &tg.KeyboardButtonCallback{Text: text, Data: []byte(data)}
}

// FormatMenuMarkup builds the audio/video choice plus the cancel row.
// audioData and videoData are the encoded button payloads.
func FormatMenuMarkup(service downloader.Service, audioData, videoData string) tg.ReplyMarkupClass {
	videoLabel := "🎬 Download Video"
	if service == downloader.ServiceTikTok {
		videoLabel = "🎬 Download Video (no watermark)"
	}

	return &tg.ReplyInlineMarkup{
		Rows: []tg.KeyboardButtonRow{
			{Buttons: []tg.KeyboardButtonClass{
				callbackButton("🎵 Download MP3", audioData),
				callbackButton(videoLabel, videoData),
			}},
			{Buttons: []tg.KeyboardButtonClass{
				callbackButton("❌ Cancel", CallbackCancelMenu),
			}},
		},
	}
}

// CancelDownloadMarkup is the single cancel button shown under progress
func CancelDownloadMarkup() tg.ReplyMarkupClass {
	return &tg.ReplyInlineMarkup{
		Rows: []tg.KeyboardButtonRow{
			{Buttons: []tg.KeyboardButtonClass{
				callbackButton("🚫 Cancel", CallbackCancelDownload),
			}},
		},
	}
}
