package batch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/stroud/video-downloader"
	"github.com/stroud/video-downloader/internal/history"
)

var (
	ErrAlreadyDownloaded = errors.New("already downloaded")
	ErrBlankLine         = errors.New("blank line")
)

type Config struct {
	Registry *video_downloader.ProviderRegistry
	// Provider forces every URL through the named provider; empty means try each provider in priority order.
	Provider   string
	OutputDir  string
	Resolution string
	Namer      video_downloader.TargetNamer
	// Overwrite replaces existing files instead of skipping them.
	Overwrite  bool
	HTTPClient *http.Client
	// History is optional; when set, URLs with a completed record are skipped and every outcome is recorded.
	History  history.Store
	Reporter Reporter
}

type Runner struct {
	config Config
}

func NewRunner(config Config) (*Runner, error) {
	if config.Registry == nil {
		config.Registry = &video_downloader.DefaultProviderRegistry
	}
	if config.OutputDir == "" {
		return nil, fmt.Errorf("no output dir")
	}
	if config.Namer == nil {
		config.Namer = video_downloader.MustTargetNamer(video_downloader.DefaultTargetTemplate)
	}
	if config.Reporter == nil {
		config.Reporter = ReporterFunc(func(Event) {})
	}
	if config.Provider != "" {
		if _, err := config.Registry.GetPriority(config.Provider); err != nil {
			return nil, fmt.Errorf("%w: %s", err, config.Provider)
		}
	}
	return &Runner{config: config}, nil
}

// Run downloads every URL listed in urlFile, one at a time. Failures of individual URLs are reported and counted in
// the Summary; the returned error is only set if the file could not be read or ctx was cancelled.
func (r *Runner) Run(ctx context.Context, urlFile string) (Summary, error) {
	log := video_downloader.Logger(ctx).Sugar().Named("batch")

	lines, err := ReadLines(urlFile)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Total: len(lines)}
	r.config.Reporter.Report(BatchStarted{URLFile: urlFile, Total: summary.Total})

	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			r.config.Reporter.Report(BatchFinished{Summary: summary, Err: err})
			return summary, err
		}
		item := &Item{
			Number: FileNumber(i+1, summary.Total),
			Index:  i + 1,
			Total:  summary.Total,
			Line:   line,
			URL:    strings.TrimSpace(line),
		}
		itemLog := log.With("line", item.Index, "url", item.URL)
		path, err := r.runItem(ctx, item, itemLog)
		switch {
		case err == nil:
			summary.Succeeded++
			itemLog.Debugf("saved %s", path)
			r.config.Reporter.Report(ItemCompleted{itemEvent: itemEvent{item}, Path: path})
		case errors.Is(err, ErrBlankLine), errors.Is(err, ErrAlreadyDownloaded), errors.Is(err, video_downloader.ErrFileExists):
			summary.Skipped++
			itemLog.Debugf("skipped: %v", err)
			r.config.Reporter.Report(ItemSkipped{itemEvent: itemEvent{item}, Reason: err.Error()})
		case ctx.Err() != nil:
			// Interrupted mid-download; not this URL's fault.
			r.config.Reporter.Report(BatchFinished{Summary: summary, Err: ctx.Err()})
			return summary, ctx.Err()
		default:
			summary.Failed++
			itemLog.Warnf("download failed: %v", err)
			r.config.Reporter.Report(ItemFailed{itemEvent: itemEvent{item}, Err: err})
		}
	}

	r.config.Reporter.Report(BatchFinished{Summary: summary})
	return summary, nil
}

func (r *Runner) runItem(ctx context.Context, item *Item, log *zap.SugaredLogger) (path string, err error) {
	if item.URL == "" {
		return "", ErrBlankLine
	}

	record := &history.Record{URL: item.URL}
	if r.config.History != nil {
		previous, historyErr := r.config.History.Get(item.URL)
		if historyErr != nil {
			log.Warnf("failed to read history: %v", historyErr)
		} else if previous.IsDone() {
			return previous.Path, fmt.Errorf("%w: %s", ErrAlreadyDownloaded, previous.Path)
		}
		defer func() {
			r.recordOutcome(record, path, err, log)
		}()
	}

	var match *video_downloader.Match
	if r.config.Provider != "" {
		match, err = r.config.Registry.MatchWith(r.config.Provider, item.URL)
	} else {
		match, err = r.config.Registry.Match(item.URL)
	}
	if err != nil {
		return "", err
	}
	record.Provider = match.ProviderName

	log.Debugf("resolving with provider %s", match.ProviderName)
	resolved, err := match.Source.Recon(ctx, video_downloader.ReconOptions{Resolution: r.config.Resolution})
	if err != nil {
		return "", err
	}
	info := resolved.Info()
	record.Title = info.Title
	record.Size = info.Size

	nameArgs := video_downloader.NewTargetNameArgs(item.Number, item.Total, match.ProviderName, info)
	filename, err := r.config.Namer.TargetName(nameArgs)
	if err != nil {
		return "", fmt.Errorf("failed to name target file: %w", err)
	}
	r.config.Reporter.Report(ItemStarted{
		itemEvent:    itemEvent{item},
		ProviderName: match.ProviderName,
		Info:         info,
		Filename:     filename,
		DisplayName:  nameArgs.Title + "." + nameArgs.Ext,
	})

	builder := video_downloader.NewDownloadBuilder().
		WithContext(video_downloader.WithLogger(ctx, log.Desugar())).
		WithHTTPClient(r.config.HTTPClient).
		WithTargetDir(r.config.OutputDir).
		WithSkipExisting(!r.config.Overwrite).
		WithProgressCallback(func(downloaded int64, expected int64) {
			r.config.Reporter.Report(ItemProgress{itemEvent: itemEvent{item}, Downloaded: downloaded, Expected: expected})
		})
	download, err := builder.Build()
	if err != nil {
		return "", err
	}
	defer download.Close()

	path = download.TargetPath(filename)
	if !r.config.Overwrite && download.Exists(filename) {
		return path, fmt.Errorf("%w: %s", video_downloader.ErrFileExists, filepath.Base(path))
	}
	if err := resolved.Download(download, filename); err != nil {
		return path, err
	}
	return path, nil
}

func (r *Runner) recordOutcome(record *history.Record, path string, err error, log *zap.SugaredLogger) {
	record.Path = path
	switch {
	case err == nil, errors.Is(err, video_downloader.ErrFileExists):
		record.Status = history.StatusComplete
	default:
		record.Status = history.StatusFailed
		record.Error = err.Error()
	}
	if err := r.config.History.Put(record); err != nil {
		log.Warnf("failed to write history: %v", err)
	}
}
