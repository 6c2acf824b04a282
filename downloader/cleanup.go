package downloader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// RemoveFile deletes a single downloaded file. A missing file is not an error.
func RemoveFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return NewDownloadErrorWithCause(ErrorFileSystemError, "failed to remove file", err).
			WithContext("path", path)
	}
	return nil
}

// RemoveMediaFiles deletes every file in dir produced for the media id,
// including partial and intermediate files.
func RemoveMediaFiles(dir, id string) error {
	if id == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, globEscape(id)+".*"))
	if err != nil {
		return NewDownloadErrorWithCause(ErrorFileSystemError, "invalid media id pattern", err).
			WithContext("id", id)
	}

	var result *multierror.Error
	for _, match := range matches {
		if err := RemoveFile(match); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// CleanDownloadDir removes leftover regular files from the downloads
// directory. It returns the number of files removed.
func CleanDownloadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, NewDownloadErrorWithCause(ErrorFileSystemError, "failed to read downloads directory", err).
			WithContext("dir", dir)
	}

	removed := 0
	var result *multierror.Error
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := RemoveFile(filepath.Join(dir, entry.Name())); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		removed++
	}
	return removed, result.ErrorOrNil()
}

// mediaID derives the media id from an output file name (<id>.<ext>[.part])
func mediaID(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	if idx := strings.IndexByte(base, '.'); idx > 0 {
		return base[:idx]
	}
	return base
}

func globEscape(s string) string {
	replacer := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `\`, `\\`)
	return replacer.Replace(s)
}
