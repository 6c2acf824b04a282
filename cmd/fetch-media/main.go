// Command fetch-media downloads links with the bot's download pipeline and
// prints progress to the terminal. It is useful for checking yt-dlp and the
// format policy without a Telegram session.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"go-media-bot/bot"
	"go-media-bot/config"
	"go-media-bot/downloader"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.RedirectStdLog(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Name:      "fetch-media",
		Usage:     "download YouTube, VK or TikTok links",
		ArgsUsage: "URL...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "target",
				Value: config.DefaultDownloadDir,
				Usage: "save downloaded files to `DIR`",
			},
			&cli.BoolFlag{
				Name:  "audio",
				Usage: "extract MP3 audio instead of video",
			},
			&cli.StringFlag{
				Name:    "yt-dlp",
				Usage:   "path to the yt-dlp `EXECUTABLE`",
				EnvVars: []string{"YTDLP_PATH"},
			},
			&cli.BoolFlag{
				Name:  "install",
				Usage: "download yt-dlp before starting",
			},
			&cli.Int64Flag{
				Name:  "max-size",
				Value: downloader.DefaultMaxFileSize / 1024 / 1024,
				Usage: "reject files larger than `MIB` (0 disables the check)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("at least one URL is required", 2)
			}
			if c.Bool("install") {
				if err := downloader.InstallYtDlp(ctx); err != nil {
					return err
				}
			}

			engine := downloader.NewYtDlpEngine(c.String("yt-dlp"), logger)
			d := downloader.NewMediaDownloader(engine, downloader.MediaDownloaderOptions{
				DownloadDir: c.String("target"),
				MaxFileSize: c.Int64("max-size") * 1024 * 1024,
				Tagger:      downloader.MP4Tagger{},
			}, logger)

			kind := downloader.MediaVideo
			if c.Bool("audio") {
				kind = downloader.MediaAudio
			}
			for _, url := range c.Args().Slice() {
				if err := fetch(ctx, logger, d, url, kind); err != nil {
					return err
				}
			}
			return nil
		},
		HideHelpCommand: true,
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Fatal(err.Error())
	}
}

func fetch(ctx context.Context, logger *zap.Logger, d *downloader.MediaDownloader, url string, kind downloader.MediaKind) error {
	service := bot.ClassifyURL(url)
	if service == downloader.ServiceUnknown {
		return fmt.Errorf("unsupported link: %s", url)
	}

	sugar := logger.Sugar()
	sugar.Infof("Downloading %s from %s into %s", kind, service.DisplayName(), d.DownloadDir())

	reporter := downloader.NewConsoleProgressReporter(os.Stderr, kind, service)
	result, err := d.Download(ctx, downloader.DownloadRequest{URL: url, Service: service, Kind: kind}, nil, reporter)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	sugar.Infow("Download complete!",
		"path", result.FilePath,
		"title", result.Info.Title,
		"size", result.FileSize,
		"elapsed", result.Duration)
	return nil
}
