package batch

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
)

const displayNameLength = 50

// ConsoleReporter prints human-readable progress for a batch.
type ConsoleReporter struct {
	out    io.Writer
	banner string
	quiet  bool
	bar    *progressbar.ProgressBar
}

type ConsoleOption func(*ConsoleReporter)

// WithBanner sets the line printed before anything else.
func WithBanner(banner string) ConsoleOption {
	return func(c *ConsoleReporter) {
		c.banner = banner
	}
}

// WithQuiet hides the per-file progress bar.
func WithQuiet(quiet bool) ConsoleOption {
	return func(c *ConsoleReporter) {
		c.quiet = quiet
	}
}

func NewConsoleReporter(out io.Writer, opts ...ConsoleOption) *ConsoleReporter {
	c := &ConsoleReporter{out: out}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ConsoleReporter) Report(event Event) {
	switch e := event.(type) {
	case BatchStarted:
		if c.banner != "" {
			c.printf("%s\n", c.banner)
		}
		message := fmt.Sprintf("Parsing %d lines in %s...", e.Total, e.URLFile)
		c.printf("%s\n%s\n", message, strings.Repeat("_", len(message)))
	case ItemStarted:
		name := e.DisplayName
		if name == "" {
			name = e.Filename
		}
		c.printf("File %s/%d: %s\t%s ...\n", e.Item().Number, e.Item().Total, formatSize(e.Info.Size), truncate(name, displayNameLength))
	case ItemProgress:
		c.updateBar(e.Downloaded, e.Expected)
	case ItemCompleted:
		c.finishBar()
	case ItemSkipped:
		c.clearBar()
		c.printf("Skipping line [%s]: %s\n", e.Item().Number, e.Reason)
	case ItemFailed:
		c.clearBar()
		c.printf("Download error! %v\n", e.Err)
		c.printf("Line [%s] : %s\n", e.Item().Number, e.Item().Line)
	case BatchFinished:
		c.clearBar()
		if e.Err != nil {
			c.printf("\n\nStopped: %v\n", e.Err)
		} else {
			c.printf("\n\nFinished!\n")
		}
		if e.Summary.Failed > 0 {
			c.printf("(A total of %d errors)\n", e.Summary.Failed)
		} else {
			c.printf("(No Errors)\n")
		}
	}
}

func (c *ConsoleReporter) updateBar(downloaded int64, expected int64) {
	if c.quiet {
		return
	}
	total := expected
	if total <= 0 {
		// Unknown size shows a spinner.
		total = -1
	}
	if c.bar == nil {
		c.bar = progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(c.out),
			progressbar.OptionSetDescription("Download progress"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetPredictTime(false),
		)
	} else if c.bar.GetMax64() != total {
		c.bar.ChangeMax64(total)
	}
	_ = c.bar.Set64(downloaded)
}

func (c *ConsoleReporter) finishBar() {
	if c.bar == nil {
		return
	}
	_ = c.bar.Finish()
	c.bar = nil
	c.printf("\n")
}

func (c *ConsoleReporter) clearBar() {
	if c.bar == nil {
		return
	}
	_ = c.bar.Clear()
	c.bar = nil
}

func (c *ConsoleReporter) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func formatSize(size int64) string {
	if size <= 0 {
		return "? MiB"
	}
	return humanize.IBytes(uint64(size))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
