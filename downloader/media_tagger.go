package downloader

import (
	"path/filepath"
	"strings"

	"github.com/Sorrow446/go-mp4tag"
)

// Tagger writes metadata into a downloaded file
type Tagger interface {
	TagTitle(path, title string) error
}

// MP4Tagger writes the title atom into MP4 video files
type MP4Tagger struct{}

// Supports reports whether the file can be tagged
func (MP4Tagger) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mp4")
}

// TagTitle implements Tagger
func (t MP4Tagger) TagTitle(path, title string) error {
	if title == "" || !t.Supports(path) {
		return nil
	}

	mp4t, err := mp4tag.Open(path)
	if err != nil {
		return err
	}
	defer mp4t.Close()

	tags := &mp4tag.MP4Tags{
		Title: title,
	}

	return mp4t.Write(tags, []string{})
}
