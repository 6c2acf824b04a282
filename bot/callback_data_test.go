package bot

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-media-bot/downloader"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected CallbackPayload
	}{
		{
			name: "tiktok video with url",
			data: "tiktok_video:https://vm.tiktok.com/x",
			expected: CallbackPayload{
				Action:  ActionDownload,
				Service: downloader.ServiceTikTok,
				Kind:    downloader.MediaVideo,
				URL:     "https://vm.tiktok.com/x",
			},
		},
		{
			name: "url containing colons is kept whole",
			data: "youtube_audio:https://youtube.com/watch?v=abc&t=1:30",
			expected: CallbackPayload{
				Action:  ActionDownload,
				Service: downloader.ServiceYouTube,
				Kind:    downloader.MediaAudio,
				URL:     "https://youtube.com/watch?v=abc&t=1:30",
			},
		},
		{
			name: "registry token",
			data: "vk_video:@0f3c2a",
			expected: CallbackPayload{
				Action:  ActionDownload,
				Service: downloader.ServiceVK,
				Kind:    downloader.MediaVideo,
				Token:   "0f3c2a",
			},
		},
		{
			name:     "cancel download",
			data:     "cancel_download",
			expected: CallbackPayload{Action: ActionCancelDownload},
		},
		{
			name:     "cancel menu",
			data:     "cancel",
			expected: CallbackPayload{Action: ActionCancelMenu},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCallbackData(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseCallbackData_Invalid(t *testing.T) {
	for _, data := range []string{
		"",
		"youtube_audio",
		"youtube_audio:",
		"youtube:https://youtube.com",
		"dailymotion_video:https://dai.ly/x",
		"youtube_gif:https://youtube.com/watch?v=1",
	} {
		_, err := ParseCallbackData(data)
		assert.Truef(t, errors.Is(err, ErrInvalidCallback), "expected ErrInvalidCallback for %q, got %v", data, err)
	}
}

func TestEncodeDownloadPayload_RoundTrip(t *testing.T) {
	data := EncodeDownloadPayload(downloader.ServiceYouTube, downloader.MediaAudio, "https://youtu.be/abc")
	assert.Equal(t, "youtube_audio:https://youtu.be/abc", data)
	assert.True(t, FitsCallbackData(data))

	long := EncodeDownloadPayload(downloader.ServiceTikTok, downloader.MediaVideo,
		"https://www.tiktok.com/@someone/video/7300000000000000000?is_from_webapp=1&sender_device=pc")
	assert.False(t, FitsCallbackData(long))

	tokenData := EncodeTokenPayload(downloader.ServiceTikTok, downloader.MediaVideo, strings.Repeat("a", 32))
	assert.True(t, FitsCallbackData(tokenData))

	payload, err := ParseCallbackData(tokenData)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 32), payload.Token)
	assert.Empty(t, payload.URL)
}
