package downloader

import (
	"path/filepath"
)

const (
	AudioCodec     = "mp3"
	AudioBitrate   = "192K"
	MaxVideoHeight = 720

	tiktokNoWatermarkArgs = "tiktok:watermark=0"
	outputNameTemplate    = "%(id)s.%(ext)s"
)

// FormatPolicy is the format/codec selection for a (service, media kind) pair
type FormatPolicy struct {
	Format        string
	ExtractAudio  bool
	AudioCodec    string
	AudioBitrate  string
	ExtractorArgs []string
}

// PolicyFor returns the download policy for a service and media kind
func PolicyFor(service Service, kind MediaKind) FormatPolicy {
	if kind == MediaAudio {
		policy := FormatPolicy{
			Format:       "bestaudio/best",
			ExtractAudio: true,
			AudioCodec:   AudioCodec,
			AudioBitrate: AudioBitrate,
		}
		if service == ServiceTikTok {
			policy.ExtractorArgs = []string{tiktokNoWatermarkArgs}
		}
		return policy
	}

	if service == ServiceTikTok {
		// download_addr is the watermark-free TikTok stream
		return FormatPolicy{
			Format:        "download_addr[height<=720]/download_addr[height<=480]/download_addr",
			ExtractorArgs: []string{tiktokNoWatermarkArgs},
		}
	}

	return FormatPolicy{
		Format: "bestvideo[height<=720]+bestaudio/best[height<=720]",
	}
}

// MetadataOptions returns the engine options for a metadata-only lookup
func MetadataOptions(service Service) EngineOptions {
	opts := EngineOptions{}
	if service == ServiceTikTok {
		opts.ExtractorArgs = []string{tiktokNoWatermarkArgs}
	}
	return opts
}

// EngineOptions converts the policy into engine options writing into dir
func (p FormatPolicy) EngineOptions(dir string) EngineOptions {
	return EngineOptions{
		Format:         p.Format,
		ExtractAudio:   p.ExtractAudio,
		AudioFormat:    p.AudioCodec,
		AudioQuality:   p.AudioBitrate,
		ExtractorArgs:  p.ExtractorArgs,
		OutputTemplate: filepath.Join(dir, outputNameTemplate),
	}
}

// OutputPath returns the final file path for a downloaded file.
// Audio is transcoded after the transfer, so its extension is rewritten.
func (p FormatPolicy) OutputPath(downloaded string) string {
	if !p.ExtractAudio || downloaded == "" {
		return downloaded
	}
	ext := filepath.Ext(downloaded)
	return downloaded[:len(downloaded)-len(ext)] + "." + p.AudioCodec
}
