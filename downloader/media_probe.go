package downloader

import (
	"os"

	"github.com/abema/go-mp4"
)

// VideoInfo contains the attributes attached to an uploaded video
type VideoInfo struct {
	Width    int
	Height   int
	Duration int // seconds
}

// ProbeVideo reads dimensions and duration from an MP4 container.
// Non-MP4 files yield an error; callers upload them without attributes.
func ProbeVideo(path string) (*VideoInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NewDownloadErrorWithCause(ErrorFileSystemError, "failed to open video", err).
			WithContext("path", path)
	}
	defer f.Close()

	mvhd, err := mp4.ExtractBoxWithPayload(f, nil, []mp4.BoxType{
		mp4.BoxTypeMoov(),
		mp4.BoxTypeMvhd(),
	})
	if err != nil || len(mvhd) != 1 {
		return nil, NewDownloadErrorWithCause(ErrorUnknown, "missing movie header", err).
			WithContext("path", path)
	}

	info := &VideoInfo{}
	header := mvhd[0].Payload.(*mp4.Mvhd)
	if header.Timescale > 0 {
		duration := uint64(header.DurationV0)
		if header.Version == 1 {
			duration = header.DurationV1
		}
		info.Duration = int(duration / uint64(header.Timescale))
	}

	tkhds, err := mp4.ExtractBoxWithPayload(f, nil, []mp4.BoxType{
		mp4.BoxTypeMoov(),
		mp4.BoxTypeTrak(),
		mp4.BoxTypeTkhd(),
	})
	if err != nil {
		return nil, NewDownloadErrorWithCause(ErrorUnknown, "failed to read track headers", err).
			WithContext("path", path)
	}
	for _, box := range tkhds {
		tkhd := box.Payload.(*mp4.Tkhd)
		// Width and height are 16.16 fixed point; audio tracks carry zero.
		if tkhd.Width == 0 || tkhd.Height == 0 {
			continue
		}
		info.Width = int(tkhd.Width >> 16)
		info.Height = int(tkhd.Height >> 16)
		break
	}

	return info, nil
}
