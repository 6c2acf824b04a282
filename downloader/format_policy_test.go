package downloader

import (
	"reflect"
	"testing"
)

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		name     string
		service  Service
		kind     MediaKind
		expected FormatPolicy
	}{
		{
			name:    "youtube audio",
			service: ServiceYouTube,
			kind:    MediaAudio,
			expected: FormatPolicy{
				Format:       "bestaudio/best",
				ExtractAudio: true,
				AudioCodec:   "mp3",
				AudioBitrate: "192K",
			},
		},
		{
			name:    "tiktok audio",
			service: ServiceTikTok,
			kind:    MediaAudio,
			expected: FormatPolicy{
				Format:        "bestaudio/best",
				ExtractAudio:  true,
				AudioCodec:    "mp3",
				AudioBitrate:  "192K",
				ExtractorArgs: []string{"tiktok:watermark=0"},
			},
		},
		{
			name:    "vk video",
			service: ServiceVK,
			kind:    MediaVideo,
			expected: FormatPolicy{
				Format: "bestvideo[height<=720]+bestaudio/best[height<=720]",
			},
		},
		{
			name:    "tiktok video",
			service: ServiceTikTok,
			kind:    MediaVideo,
			expected: FormatPolicy{
				Format:        "download_addr[height<=720]/download_addr[height<=480]/download_addr",
				ExtractorArgs: []string{"tiktok:watermark=0"},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := PolicyFor(test.service, test.kind)
			if !reflect.DeepEqual(got, test.expected) {
				t.Errorf("PolicyFor() = %+v, want %+v", got, test.expected)
			}
		})
	}
}

func TestFormatPolicy_OutputPath(t *testing.T) {
	audio := PolicyFor(ServiceYouTube, MediaAudio)
	video := PolicyFor(ServiceYouTube, MediaVideo)

	tests := []struct {
		policy   FormatPolicy
		input    string
		expected string
	}{
		{audio, "downloads/abc.webm", "downloads/abc.mp3"},
		{audio, "downloads/abc.m4a", "downloads/abc.mp3"},
		{audio, "", ""},
		{video, "downloads/abc.mp4", "downloads/abc.mp4"},
	}

	for _, test := range tests {
		if got := test.policy.OutputPath(test.input); got != test.expected {
			t.Errorf("OutputPath(%q) = %q, want %q", test.input, got, test.expected)
		}
	}
}

func TestMetadataOptions(t *testing.T) {
	if opts := MetadataOptions(ServiceYouTube); len(opts.ExtractorArgs) != 0 {
		t.Errorf("Expected no extractor args for YouTube, got %v", opts.ExtractorArgs)
	}
	if opts := MetadataOptions(ServiceTikTok); len(opts.ExtractorArgs) != 1 {
		t.Errorf("Expected TikTok extractor args, got %v", opts.ExtractorArgs)
	}
}
