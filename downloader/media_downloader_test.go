package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeEngine writes the configured files into the output directory and
// replays progress updates
type fakeEngine struct {
	mu sync.Mutex

	info     *EngineInfo
	err      error
	files    map[string]int64
	progress []EngineProgress
	// block waits for cancellation after writing files
	block   bool
	started chan struct{}

	downloads []EngineOptions
	extracts  []EngineOptions
}

func (e *fakeEngine) ExtractInfo(ctx context.Context, url string, opts EngineOptions) (*EngineInfo, error) {
	e.mu.Lock()
	e.extracts = append(e.extracts, opts)
	e.mu.Unlock()
	return e.info, e.err
}

func (e *fakeEngine) Download(ctx context.Context, url string, opts EngineOptions, onProgress func(EngineProgress)) (*EngineInfo, error) {
	e.mu.Lock()
	e.downloads = append(e.downloads, opts)
	e.mu.Unlock()

	dir := filepath.Dir(opts.OutputTemplate)
	for name, size := range e.files {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		// Truncate leaves a sparse file, so large sizes cost no disk.
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, err
		}
		f.Close()
	}

	for _, p := range e.progress {
		if p.Filename != "" && !filepath.IsAbs(p.Filename) {
			p.Filename = filepath.Join(dir, p.Filename)
		}
		onProgress(p)
	}

	if e.block {
		close(e.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}

	info := *e.info
	if info.Filename != "" {
		info.Filename = filepath.Join(dir, info.Filename)
	}
	return &info, nil
}

func (e *fakeEngine) Downloads() []EngineOptions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]EngineOptions(nil), e.downloads...)
}

type fakeTagger struct {
	mu     sync.Mutex
	tagged map[string]string
}

func (t *fakeTagger) TagTitle(path, title string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tagged == nil {
		t.tagged = make(map[string]string)
	}
	t.tagged[path] = title
	return nil
}

func testRequest(service Service, kind MediaKind) DownloadRequest {
	return DownloadRequest{
		URL:       "https://example.test/watch",
		Service:   service,
		Kind:      kind,
		ChatID:    1,
		MessageID: 100,
	}
}

func newTestDownloader(t *testing.T, engine Engine, tagger Tagger) (*MediaDownloader, string) {
	t.Helper()
	dir := t.TempDir()
	return NewMediaDownloader(engine, MediaDownloaderOptions{
		DownloadDir: dir,
		MaxFileSize: DefaultMaxFileSize,
		Tagger:      tagger,
	}, nil), dir
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected %s to be removed, stat error: %v", filepath.Base(path), err)
	}
}

func TestMediaDownloader_DownloadVideo(t *testing.T) {
	engine := &fakeEngine{
		info:  &EngineInfo{ID: "abc", Title: "Demo", Duration: 125.4, Filename: "abc.mp4"},
		files: map[string]int64{"abc.mp4": 2048},
		progress: []EngineProgress{
			{Status: EngineStatusDownloading, DownloadedBytes: 0, TotalBytes: 2048},
			{Status: EngineStatusDownloading, DownloadedBytes: 1024, TotalBytes: 2048},
			{Status: EngineStatusFinished, DownloadedBytes: 2048, TotalBytes: 2048},
		},
	}
	tagger := &fakeTagger{}
	d, dir := newTestDownloader(t, engine, tagger)
	status := NewDownloadStatus(StatusMessage{ChatID: 1, MessageID: 100})

	result, err := d.Download(context.Background(), testRequest(ServiceYouTube, MediaVideo), status, NewMockProgressReporter())
	if err != nil {
		t.Fatalf("Download() returned error: %v", err)
	}

	if result.FilePath != filepath.Join(dir, "abc.mp4") {
		t.Errorf("Unexpected file path %s", result.FilePath)
	}
	if result.FileSize != 2048 {
		t.Errorf("Expected size 2048, got %d", result.FileSize)
	}
	if result.Format != "mp4" || result.Kind != MediaVideo {
		t.Errorf("Unexpected format %q or kind %q", result.Format, result.Kind)
	}
	if result.Info.Title != "Demo" || result.Info.Duration != 125 {
		t.Errorf("Unexpected info %+v", result.Info)
	}
	if status.Progress() != 100 {
		t.Errorf("Expected progress 100, got %.1f", status.Progress())
	}
	if tagger.tagged[result.FilePath] != "Demo" {
		t.Errorf("Expected the video to be tagged, got %v", tagger.tagged)
	}

	opts := engine.Downloads()[0]
	if opts.Format != PolicyFor(ServiceYouTube, MediaVideo).Format {
		t.Errorf("Unexpected format selector %q", opts.Format)
	}
	if opts.OutputTemplate != filepath.Join(dir, "%(id)s.%(ext)s") {
		t.Errorf("Unexpected output template %q", opts.OutputTemplate)
	}
}

func TestMediaDownloader_DownloadAudioRewritesExtension(t *testing.T) {
	engine := &fakeEngine{
		// The engine reports the pre-conversion name; the converted file is mp3.
		info:  &EngineInfo{ID: "abc", Title: "Demo", Duration: 60, Filename: "abc.webm"},
		files: map[string]int64{"abc.mp3": 512},
		progress: []EngineProgress{
			{Status: EngineStatusDownloading, DownloadedBytes: 512, TotalBytes: 512, Filename: "abc.webm"},
			{Status: EngineStatusPostProcessing},
		},
	}
	tagger := &fakeTagger{}
	d, dir := newTestDownloader(t, engine, tagger)

	result, err := d.Download(context.Background(), testRequest(ServiceTikTok, MediaAudio), nil, NewMockProgressReporter())
	if err != nil {
		t.Fatalf("Download() returned error: %v", err)
	}
	if result.FilePath != filepath.Join(dir, "abc.mp3") || result.Format != "mp3" {
		t.Errorf("Expected abc.mp3, got %s (%s)", result.FilePath, result.Format)
	}
	if len(tagger.tagged) != 0 {
		t.Error("Audio files are not tagged")
	}

	opts := engine.Downloads()[0]
	if !opts.ExtractAudio || opts.AudioFormat != "mp3" || opts.AudioQuality != "192K" {
		t.Errorf("Unexpected audio options %+v", opts)
	}
	if len(opts.ExtractorArgs) != 1 || opts.ExtractorArgs[0] != "tiktok:watermark=0" {
		t.Errorf("Expected TikTok extractor args, got %v", opts.ExtractorArgs)
	}
}

func TestMediaDownloader_ResolvesOutputByID(t *testing.T) {
	engine := &fakeEngine{
		info:  &EngineInfo{ID: "abc", Title: "Demo"},
		files: map[string]int64{"abc.f137.mp4": 10, "abc.mp4": 20, "abd.mp4": 30},
	}
	d, dir := newTestDownloader(t, engine, nil)

	result, err := d.Download(context.Background(), testRequest(ServiceVK, MediaVideo), nil, NewMockProgressReporter())
	if err != nil {
		t.Fatalf("Download() returned error: %v", err)
	}
	if result.FilePath != filepath.Join(dir, "abc.mp4") {
		t.Errorf("Expected merged output abc.mp4, got %s", result.FilePath)
	}
}

func TestMediaDownloader_Cancel(t *testing.T) {
	engine := &fakeEngine{
		files: map[string]int64{"abc.mp4.part": 100},
		progress: []EngineProgress{
			{Status: EngineStatusDownloading, DownloadedBytes: 100, TotalBytes: 1000, Filename: "abc.mp4.part"},
		},
		block:   true,
		started: make(chan struct{}),
	}
	d, dir := newTestDownloader(t, engine, nil)
	status := NewDownloadStatus(StatusMessage{ChatID: 1, MessageID: 100})

	go func() {
		<-engine.started
		status.Cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := d.Download(context.Background(), testRequest(ServiceYouTube, MediaVideo), status, NewMockProgressReporter())
		done <- err
	}()

	select {
	case err := <-done:
		if !IsCancelled(err) {
			t.Fatalf("Expected cancellation error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Download did not stop after cancellation")
	}
	assertMissing(t, filepath.Join(dir, "abc.mp4.part"))
}

func TestMediaDownloader_ContextEndIsNotUserCancel(t *testing.T) {
	engine := &fakeEngine{
		files: map[string]int64{"abc.mp4.part": 100},
		progress: []EngineProgress{
			{Status: EngineStatusDownloading, DownloadedBytes: 100, TotalBytes: 1000, Filename: "abc.mp4.part"},
		},
		block:   true,
		started: make(chan struct{}),
	}
	d, dir := newTestDownloader(t, engine, nil)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		<-engine.started
		cancel()
	}()

	_, err := d.Download(ctx, testRequest(ServiceYouTube, MediaVideo), nil, NewMockProgressReporter())
	if !IsDownloadError(err, ErrorAborted) {
		t.Fatalf("Expected aborted error, got %v", err)
	}
	if IsCancelled(err) {
		t.Error("A cancelled context must not look like a user cancellation")
	}
	assertMissing(t, filepath.Join(dir, "abc.mp4.part"))
}

func TestMediaDownloader_AlreadyCancelled(t *testing.T) {
	engine := &fakeEngine{}
	d, _ := newTestDownloader(t, engine, nil)
	status := NewDownloadStatus(StatusMessage{})
	status.Cancel()

	_, err := d.Download(context.Background(), testRequest(ServiceYouTube, MediaAudio), status, NewMockProgressReporter())
	if !IsCancelled(err) {
		t.Fatalf("Expected cancellation error, got %v", err)
	}
	if len(engine.Downloads()) != 0 {
		t.Error("The engine must not run for a cancelled request")
	}
}

func TestMediaDownloader_FileTooLarge(t *testing.T) {
	engine := &fakeEngine{
		info:  &EngineInfo{ID: "big", Title: "Big", Filename: "big.mp4"},
		files: map[string]int64{"big.mp4": 60 * 1024 * 1024},
	}
	d, dir := newTestDownloader(t, engine, nil)

	_, err := d.Download(context.Background(), testRequest(ServiceYouTube, MediaVideo), nil, NewMockProgressReporter())
	if !IsDownloadError(err, ErrorFileTooLarge) {
		t.Fatalf("Expected file too large error, got %v", err)
	}
	assertMissing(t, filepath.Join(dir, "big.mp4"))
}

func TestMediaDownloader_EngineFailure(t *testing.T) {
	engine := &fakeEngine{
		err:   errors.New("HTTP Error 403: Forbidden"),
		files: map[string]int64{"abc.f137.mp4": 10},
		progress: []EngineProgress{
			{Status: EngineStatusDownloading, DownloadedBytes: 10, TotalBytes: 100, Filename: "abc.f137.mp4"},
		},
	}
	d, dir := newTestDownloader(t, engine, nil)

	_, err := d.Download(context.Background(), testRequest(ServiceYouTube, MediaVideo), nil, NewMockProgressReporter())
	if !IsDownloadError(err, ErrorDownloadFailed) {
		t.Fatalf("Expected download failure, got %v", err)
	}
	assertMissing(t, filepath.Join(dir, "abc.f137.mp4"))
}

func TestMediaDownloader_MissingOutput(t *testing.T) {
	engine := &fakeEngine{info: &EngineInfo{}}
	d, _ := newTestDownloader(t, engine, nil)

	_, err := d.Download(context.Background(), testRequest(ServiceYouTube, MediaVideo), nil, NewMockProgressReporter())
	if !IsDownloadError(err, ErrorFileSystemError) {
		t.Fatalf("Expected file system error, got %v", err)
	}
}

func TestEngineProgress_Percent(t *testing.T) {
	tests := []struct {
		progress EngineProgress
		expected float64
	}{
		{EngineProgress{Status: EngineStatusDownloading, DownloadedBytes: 50, TotalBytes: 200}, 25},
		{EngineProgress{Status: EngineStatusDownloading, DownloadedBytes: 50}, 0},
		{EngineProgress{Status: EngineStatusDownloading, DownloadedBytes: 300, TotalBytes: 200}, 100},
		{EngineProgress{Status: EngineStatusFinished}, 100},
	}

	for _, test := range tests {
		if got := test.progress.Percent(); got != test.expected {
			t.Errorf("Percent(%+v) = %.1f, want %.1f", test.progress, got, test.expected)
		}
	}
}
