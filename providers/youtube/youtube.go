package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/stroud/video-downloader"
	"github.com/stroud/video-downloader/util"
)

const (
	Name              = "youtube"
	DefaultResolution = "360p"
)

var (
	ErrNoMatchingFormat = errors.New("no progressive stream with the requested resolution")
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

type Config struct {
	HTTPClient *http.Client
	// MaxRetries is how many times a failed stream download is retried. Negative means no retries.
	MaxRetries int
	RetryDelay time.Duration
}

func NewConfig() Config {
	return Config{
		HTTPClient: http.DefaultClient,
		MaxRetries: 10,
		RetryDelay: time.Second,
	}
}

func (c Config) Provider() video_downloader.Provider {
	return video_downloader.Provider{Name: Name, Match: c.Match}
}

func (c Config) Match(s string) (video_downloader.Source, error) {
	parsedURL, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	videoID, err := extractVideoID(parsedURL)
	if err != nil {
		return nil, err
	}
	return &source{config: c, videoID: videoID}, nil
}

func (c Config) client() *youtube.Client {
	return &youtube.Client{HTTPClient: c.HTTPClient}
}

type source struct {
	config  Config
	videoID string
}

func (s *source) URL() string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", s.videoID)
}

func (s *source) String() string {
	return s.URL()
}

func (s *source) Recon(ctx context.Context, opts video_downloader.ReconOptions) (video_downloader.ResolvedSource, error) {
	client := s.config.client()
	videoDetails, err := client.GetVideoContext(ctx, s.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}
	resolution := opts.Resolution
	if resolution == "" {
		resolution = DefaultResolution
	}
	videoFormat, err := selectFormat(videoDetails.Formats, resolution)
	if err != nil {
		return nil, err
	}
	ext, err := util.ExtensionFromMimeType(videoFormat.MimeType)
	if err != nil {
		return nil, fmt.Errorf("unusable stream type %q: %w", videoFormat.MimeType, err)
	}
	return &resolvedSource{
		source:       *s,
		client:       client,
		videoDetails: videoDetails,
		videoFormat:  videoFormat,
		ext:          ext,
	}, nil
}

type resolvedSource struct {
	source
	client       *youtube.Client
	videoDetails *youtube.Video
	videoFormat  *youtube.Format
	ext          string
}

func (s *resolvedSource) Info() video_downloader.SourceInfo {
	return video_downloader.SourceInfo{
		ID:    s.videoDetails.ID,
		Title: s.videoDetails.Title,
		Ext:   s.ext,
		Size:  s.videoFormat.ContentLength,
	}
}

func (s *resolvedSource) Download(d video_downloader.Download, filename string) error {
	log := video_downloader.Logger(d.Context()).Sugar().Named(Name).With("video_id", s.videoID)
	retries := s.config.MaxRetries
	if retries < 0 {
		retries = 0
	}
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			log.Infof("retrying download (%d/%d) after error: %v", attempt, retries, err)
			select {
			case <-d.Context().Done():
				return d.Context().Err()
			case <-time.After(s.config.RetryDelay):
			}
			d.ResetProgress()
		}
		if err = s.downloadOnce(d, filename); err == nil {
			return nil
		}
		if d.Context().Err() != nil || errors.Is(err, video_downloader.ErrFileExists) {
			return err
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", retries+1, err)
}

func (s *resolvedSource) downloadOnce(d video_downloader.Download, filename string) error {
	stream, size, err := s.client.GetStreamContext(d.Context(), s.videoDetails, s.videoFormat)
	if err != nil {
		return fmt.Errorf("failed to get stream: %w", err)
	}
	defer stream.Close()
	d.AddExpectedBytes(size)
	return d.SaveStream(filename, stream)
}

func (s *resolvedSource) String() string {
	return fmt.Sprintf("%s [%s]", s.videoDetails.Title, s.videoDetails.ID)
}

// selectFormat picks the first progressive (audio+video) format with the requested resolution, preferring mp4.
func selectFormat(formats youtube.FormatList, resolution string) (*youtube.Format, error) {
	var fallback *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 || f.QualityLabel != resolution {
			continue
		}
		if strings.HasPrefix(f.MimeType, "video/mp4") {
			return f, nil
		}
		if fallback == nil {
			fallback = f
		}
	}
	if fallback == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoMatchingFormat, resolution)
	}
	return fallback, nil
}

// Extract video ID from YouTube URL.
//
// Allowed URL formats:
//		http(s?)://(www.|m.)?youtube.com/(watch|details)?v={VIDEO_ID}
//		http(s?)://(www.|m.)?youtube.com/(v|embed|shorts)/{VIDEO_ID}
//		http(s?)://youtu.be/{VIDEO_ID}
func extractVideoID(url *url.URL) (string, error) {
	var id string
	switch url.Hostname() {
	case "www.youtube.com", "m.youtube.com", "youtube.com":
		if url.Path == "/watch" || url.Path == "/details" {
			if !url.Query().Has("v") {
				return "", fmt.Errorf("missing ?v= query parameter")
			}
			id = url.Query().Get("v")
		} else {
			for _, prefix := range []string{"/v/", "/embed/", "/shorts/"} {
				if strings.HasPrefix(url.Path, prefix) {
					id = strings.SplitN(strings.TrimPrefix(url.Path, prefix), "/", 2)[0]
					break
				}
			}
		}
	case "youtu.be":
		id = strings.Trim(url.Path, "/")
	default:
		return "", fmt.Errorf("unrecognised hostname")
	}
	if id == "" {
		return "", fmt.Errorf("could not extract video ID")
	}
	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid video ID %q", id)
	}
	return id, nil
}
