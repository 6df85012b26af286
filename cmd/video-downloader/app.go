package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stroud/video-downloader"
	"github.com/stroud/video-downloader/internal/batch"
	"github.com/stroud/video-downloader/internal/history"
	"github.com/stroud/video-downloader/internal/prompt"
	"github.com/stroud/video-downloader/providers"
	"github.com/stroud/video-downloader/providers/youtube"
)

const (
	appName    = "video-downloader"
	appVersion = "1.0"
	envPrefix  = "VIDEO_DOWNLOADER_"
)

var (
	errDownloadsFailed = errors.New("some downloads failed")
	errNoHistory       = errors.New("--list-history and --forget need --history")
)

type appEnv struct {
	ctx      context.Context
	logger   *zap.Logger
	level    zap.AtomicLevel
	prompter prompt.Prompter
	out      io.Writer
	// now is used for the default output dir name.
	now func() time.Time
}

func newApp(env appEnv) *cli.App {
	if env.now == nil {
		env.now = time.Now
	}
	return &cli.App{
		Name:      appName,
		Usage:     "download every video listed in a text file",
		Version:   appVersion,
		ArgsUsage: "[URL_FILE [OUTPUT_DIR [RESOLUTION]]]",
		Writer:    env.out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url-file",
				Aliases: []string{"i"},
				Usage:   "read video URLs, one per line, from `FILE`",
				EnvVars: []string{envPrefix + "URL_FILE"},
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "save downloaded videos to `DIR` (default: timestamped directory)",
				EnvVars: []string{envPrefix + "OUTPUT"},
			},
			&cli.StringFlag{
				Name:    "resolution",
				Aliases: []string{"r"},
				Value:   youtube.DefaultResolution,
				Usage:   "preferred video `RESOLUTION`",
				EnvVars: []string{envPrefix + "RESOLUTION"},
			},
			&cli.StringFlag{
				Name:    "provider",
				Usage:   "only use the provider called `NAME` instead of picking one per URL",
				EnvVars: []string{envPrefix + "PROVIDER"},
			},
			&cli.StringFlag{
				Name:    "prefer",
				Usage:   "try the provider called `NAME` before any other",
				EnvVars: []string{envPrefix + "PREFER"},
			},
			&cli.BoolFlag{
				Name:  "list-providers",
				Usage: "print the providers in the order they are tried, then exit",
			},
			&cli.StringFlag{
				Name:    "template",
				Value:   video_downloader.DefaultTargetTemplate,
				Usage:   "name downloaded files using `TEMPLATE`",
				EnvVars: []string{envPrefix + "TEMPLATE"},
			},
			&cli.StringFlag{
				Name:    "history",
				Usage:   "record downloads in `FILE` and skip URLs it lists as complete",
				EnvVars: []string{envPrefix + "HISTORY"},
			},
			&cli.BoolFlag{
				Name:  "list-history",
				Usage: "print every URL in the history file, then exit",
			},
			&cli.StringSliceFlag{
				Name:  "forget",
				Usage: "remove `URL` from the history file so it is downloaded again",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Value:   providers.DefaultOptions.Timeout,
				Usage:   "network connect and response timeout",
				EnvVars: []string{envPrefix + "TIMEOUT"},
			},
			&cli.IntFlag{
				Name:    "retries",
				Value:   providers.DefaultOptions.MaxRetries,
				Usage:   "retry a failed stream up to `N` times",
				EnvVars: []string{envPrefix + "RETRIES"},
			},
			&cli.BoolFlag{
				Name:    "overwrite",
				Usage:   "replace files that already exist instead of skipping them",
				EnvVars: []string{envPrefix + "OVERWRITE"},
			},
			&cli.BoolFlag{
				Name:    "no-prompt",
				Usage:   "use defaults instead of asking for missing arguments",
				EnvVars: []string{envPrefix + "NO_PROMPT"},
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "hide progress bars",
				EnvVars: []string{envPrefix + "QUIET"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "enable debug logging",
				EnvVars: []string{envPrefix + "VERBOSE"},
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				env.level.SetLevel(zapcore.DebugLevel)
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return run(c, env)
		},
		HideHelpCommand: true,
	}
}

func run(c *cli.Context, env appEnv) error {
	log := env.logger.Sugar().Named("main")
	if c.NArg() > 3 {
		return fmt.Errorf("too many arguments: expected at most URL_FILE, OUTPUT_DIR and RESOLUTION")
	}

	opts := providers.Options{
		Timeout:    c.Duration("timeout"),
		MaxRetries: c.Int("retries"),
	}
	registry, err := providers.NewRegistry(opts)
	if err != nil {
		return err
	}
	if name := c.String("prefer"); name != "" {
		if err := registry.SetPriority(name, video_downloader.PriorityHighest); err != nil {
			return fmt.Errorf("%w: %s", err, name)
		}
	}
	if c.Bool("list-providers") {
		return listProviders(env.out, registry)
	}

	var store history.Store
	if path := c.String("history"); path != "" {
		if store, err = history.Open(path, env.logger); err != nil {
			return err
		}
		defer store.Close()
	} else if c.Bool("list-history") || len(c.StringSlice("forget")) > 0 {
		return errNoHistory
	}
	if c.Bool("list-history") {
		return listHistory(env.out, store)
	}
	for _, url := range c.StringSlice("forget") {
		if err := store.Delete(url); err != nil {
			return fmt.Errorf("failed to forget %s: %w", url, err)
		}
		log.Debugw("removed from history", "url", url)
	}

	urlFile, err := argOrAsk(c, env, 0, "url-file", "Enter the URL file", prompt.DefaultURLFile)
	if err != nil {
		return err
	}
	outputDir, err := argOrAsk(c, env, 1, "output", "Enter the dir for downloads", prompt.DefaultOutputDir(env.now()))
	if err != nil {
		return err
	}
	resolution := c.String("resolution")
	if c.NArg() > 2 {
		resolution = c.Args().Get(2)
	}

	created, err := batch.PrepareOutputDir(outputDir)
	if err != nil {
		return err
	}
	if created {
		_, _ = fmt.Fprintf(env.out, "Created a new dir %s\n", outputDir)
	}

	namer, err := video_downloader.NewTargetNamer(c.String("template"))
	if err != nil {
		return err
	}
	runner, err := batch.NewRunner(batch.Config{
		Registry:   registry,
		Provider:   c.String("provider"),
		OutputDir:  outputDir,
		Resolution: resolution,
		Namer:      namer,
		Overwrite:  c.Bool("overwrite"),
		HTTPClient: providers.NewHTTPClient(opts.Timeout),
		History:    store,
		Reporter: batch.NewConsoleReporter(env.out,
			batch.WithBanner(fmt.Sprintf(">>> STROUD VIDEO DOWNLOADER (v%s) <<<", appVersion)),
			batch.WithQuiet(c.Bool("quiet")),
		),
	})
	if err != nil {
		return err
	}

	log.Debugw("starting batch", "url_file", urlFile, "output", outputDir, "resolution", resolution)
	summary, err := runner.Run(env.ctx, urlFile)
	if err != nil {
		return err
	}
	log.Debugw("batch finished", "succeeded", summary.Succeeded, "skipped", summary.Skipped, "failed", summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", errDownloadsFailed, summary.Failed, summary.Total)
	}
	return nil
}

// argOrAsk takes a value from positional argument n, then the named flag, then the user, then def.
func argOrAsk(c *cli.Context, env appEnv, n int, flag string, label string, def string) (string, error) {
	if value := c.Args().Get(n); value != "" {
		return value, nil
	}
	if value := c.String(flag); value != "" {
		return value, nil
	}
	if c.Bool("no-prompt") || env.prompter == nil {
		return def, nil
	}
	return prompt.AskOrDefault(env.prompter, label, def)
}

func listProviders(out io.Writer, registry *video_downloader.ProviderRegistry) error {
	for _, name := range registry.List() {
		priority, err := registry.GetPriority(name)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%s\t%d\n", name, priority)
	}
	return nil
}

func listHistory(out io.Writer, store history.Store) error {
	records, err := store.List()
	if err != nil {
		return err
	}
	for _, record := range records {
		detail := record.Path
		if record.Status != history.StatusComplete {
			detail = record.Error
		}
		_, _ = fmt.Fprintf(out, "%s\t%s\t%s\n", record.Status, record.URL, detail)
	}
	return nil
}
