// Package providers registers the built-in providers. Importing it populates
// video_downloader.DefaultProviderRegistry with default settings.
package providers

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/stroud/video-downloader"
	"github.com/stroud/video-downloader/generic"
	"github.com/stroud/video-downloader/providers/raw"
	"github.com/stroud/video-downloader/providers/youtube"
)

type Options struct {
	// Timeout bounds connecting and waiting for response headers, not the whole transfer.
	Timeout    time.Duration
	MaxRetries int
}

var DefaultOptions = Options{
	Timeout:    10 * time.Second,
	MaxRetries: 10,
}

var ErrInvalidOptions = errors.New("invalid provider options")

func (o Options) Validate() error {
	if o.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout %v", ErrInvalidOptions, o.Timeout)
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("%w: negative retry count %d", ErrInvalidOptions, o.MaxRetries)
	}
	return nil
}

func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConns:          10,
		},
	}
}

// Register adds every built-in provider to r.
func Register(r *video_downloader.ProviderRegistry, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	client := NewHTTPClient(opts.Timeout)

	yt := youtube.NewConfig()
	yt.HTTPClient = client
	yt.MaxRetries = opts.MaxRetries
	if err := r.Add(yt.Provider()); err != nil {
		return err
	}

	rawConfig := raw.NewConfig()
	rawConfig.HTTPClient = client
	return r.Add(rawConfig.Provider().WithPriority(video_downloader.PriorityLowest))
}

func NewRegistry(opts Options) (*video_downloader.ProviderRegistry, error) {
	r := &video_downloader.ProviderRegistry{}
	if err := Register(r, opts); err != nil {
		return nil, err
	}
	return r, nil
}

func init() {
	generic.Unwrap_(Register(&video_downloader.DefaultProviderRegistry, DefaultOptions))
}
