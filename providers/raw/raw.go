package raw

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/stroud/video-downloader"
	"github.com/stroud/video-downloader/generic"
	"github.com/stroud/video-downloader/util"
)

const Name = "raw"

type Config struct {
	Protocols  generic.Set[string]
	Extensions generic.Set[string]
	HTTPClient *http.Client
}

func NewConfig() Config {
	return Config{
		Protocols: generic.NewSet(
			"http",
			"https",
		),
		Extensions: generic.NewSet(
			"3gp",
			"flv",
			"m4v",
			"mkv",
			"mov",
			"mp4",
			"webm",
		),
		HTTPClient: http.DefaultClient,
	}
}

func (c Config) Match(s string) (video_downloader.Source, error) {
	// Expect string to be a URL
	parsedURL, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	// Check that scheme/protocol is valid
	if !c.Protocols.Contains(parsedURL.Scheme) {
		return nil, fmt.Errorf("unknown URL scheme %q", parsedURL.Scheme)
	}
	// Attempt to extract filename and extension
	filename, err := util.FilenameFromURL(parsedURL)
	if err != nil {
		return nil, err
	}
	name, extension := util.SplitExtension(filename)
	if extension == "" {
		return nil, fmt.Errorf("no file extension found")
	}
	if !c.Extensions.Contains(extension) {
		return nil, fmt.Errorf("unknown file extension %q (expected one of %s)", extension, c.supportedExtensions())
	}
	res := source{
		config: c,
		url:    parsedURL.String(),
		name:   name,
		ext:    extension,
	}
	return &res, nil
}

func (c Config) supportedExtensions() string {
	extensions := c.Extensions.ToSlice()
	sort.Strings(extensions)
	return strings.Join(extensions, ", ")
}

func (c Config) Provider() video_downloader.Provider {
	return video_downloader.Provider{
		Name:  Name,
		Match: c.Match,
	}
}

type source struct {
	config Config
	url    string
	name   string
	ext    string
	size   int64
}

func (s *source) URL() string {
	return s.url
}

func (s *source) String() string {
	return s.URL()
}

// Recon asks the server for the content length. Servers that reject HEAD requests are not an error; the size is just
// reported as unknown.
func (s *source) Recon(ctx context.Context, _ video_downloader.ReconOptions) (video_downloader.ResolvedSource, error) {
	resolved := *s
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	_ = resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("video not available: %s", resp.Status)
	case resp.StatusCode >= 200 && resp.StatusCode <= 299 && resp.ContentLength > 0:
		resolved.size = resp.ContentLength
	}
	return &resolved, nil
}

func (s *source) Info() video_downloader.SourceInfo {
	return video_downloader.SourceInfo{
		ID:    s.name,
		Title: s.name,
		Ext:   s.ext,
		Size:  s.size,
	}
}

func (s *source) Download(d video_downloader.Download, filename string) error {
	return d.SaveURL(filename, s.url)
}
