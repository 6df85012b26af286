package video_downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

var (
	ErrFileExists = errors.New("target file already exists")
)

// PartialSuffix is appended to the target filename while a download is in progress.
const PartialSuffix = ".part"

type Download interface {
	// AddDownloadedBytes increases how many bytes have been successfully downloaded so far.
	AddDownloadedBytes(n int64)

	// AddExpectedBytes increases how many bytes are expected to be downloaded.
	AddExpectedBytes(n int64)

	// Cancel the Download, stopping any in-progress I/O activity.
	Cancel()

	// Close releases the Download's context.
	Close() error

	// Context is the cancellable context of this Download.
	Context() context.Context

	// Exists returns true if the named target file exists and is not empty.
	Exists(filename string) bool

	// Progress returns the downloaded and expected bytes of the download.
	Progress() (int64, int64)

	// ResetProgress sets both downloaded and expected bytes back to zero, e.g. before retrying.
	ResetProgress()

	// SaveHTTPRequest will execute the http.Request with Context() and then download the response body like
	// SaveStream.
	SaveHTTPRequest(filename string, req *http.Request) error

	// SaveStream will download the stream to the named file, calling AddDownloadedBytes as necessary. Data is written
	// to a partial file which is only renamed to the target once the stream is complete.
	SaveStream(filename string, stream io.Reader) error

	// SaveURL will make a GET request to the URL and then download the resulting stream like SaveStream.
	SaveURL(filename string, url string) error

	// TargetPath returns the full path the named file will be saved to.
	TargetPath(filename string) string

	// Write will ignore the data but will send the byte count to AddDownloadedBytes. Allows progress tracking using
	// io.MultiWriter (but ensure the Download is the last writer to avoid counting failed writes).
	Write(p []byte) (n int, err error)
}

type download struct {
	ctx              context.Context
	cancel           context.CancelFunc
	httpClient       *http.Client
	progressCallback func(int64, int64)
	skipExisting     bool
	targetDir        string
	expectedBytes    int64
	downloadedBytes  int64
}

func (d *download) AddDownloadedBytes(n int64) {
	d.downloadedBytes += n
	d.notify()
}

func (d *download) AddExpectedBytes(n int64) {
	if n <= 0 {
		return
	}
	d.expectedBytes += n
	d.notify()
}

func (d *download) Cancel() {
	d.cancel()
}

func (d *download) Close() error {
	d.cancel()
	return nil
}

func (d *download) Context() context.Context {
	return d.ctx
}

func (d *download) Exists(filename string) bool {
	info, err := os.Stat(d.TargetPath(filename))
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

func (d *download) Progress() (int64, int64) {
	return d.downloadedBytes, d.expectedBytes
}

func (d *download) ResetProgress() {
	d.downloadedBytes = 0
	d.expectedBytes = 0
	d.notify()
}

func (d *download) SaveHTTPRequest(filename string, req *http.Request) error {
	if req == nil {
		return fmt.Errorf("nil request")
	}
	req = req.WithContext(d.Context())
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download failed: unexpected status %s", resp.Status)
	}
	d.AddExpectedBytes(resp.ContentLength)
	return d.SaveStream(filename, resp.Body)
}

func (d *download) SaveStream(filename string, stream io.Reader) (err error) {
	if d.skipExisting && d.Exists(filename) {
		return fmt.Errorf("%w: %s", ErrFileExists, filename)
	}
	targetPath := d.TargetPath(filename)
	if err := os.MkdirAll(filepath.Dir(targetPath), 0775); err != nil {
		return fmt.Errorf("failed to create target dir: %w", err)
	}
	partPath := targetPath + PartialSuffix
	f, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to open target file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(partPath)
		}
	}()

	if _, err = io.Copy(io.MultiWriter(f, d), &readerContext{ctx: d.ctx, r: stream}); err != nil {
		return fmt.Errorf("failed to save stream: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close target file: %w", err)
	}
	if err = os.Rename(partPath, targetPath); err != nil {
		return fmt.Errorf("failed to move completed file into place: %w", err)
	}
	return nil
}

func (d *download) SaveURL(filename string, url string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return d.SaveHTTPRequest(filename, req)
}

func (d *download) TargetPath(filename string) string {
	return filepath.Join(d.targetDir, filename)
}

func (d *download) Write(p []byte) (n int, err error) {
	n = len(p)
	d.AddDownloadedBytes(int64(n))
	return n, nil
}

func (d *download) notify() {
	if d.progressCallback != nil {
		d.progressCallback(d.Progress())
	}
}

type DownloadBuilder interface {
	Build() (Download, error)
	WithContext(ctx context.Context) DownloadBuilder
	WithHTTPClient(client *http.Client) DownloadBuilder
	WithProgressCallback(f func(downloaded int64, expected int64)) DownloadBuilder
	// WithSkipExisting makes SaveStream fail with ErrFileExists instead of overwriting a non-empty target file.
	WithSkipExisting(skip bool) DownloadBuilder
	WithTargetDir(dir string) DownloadBuilder
}

type downloadBuilder struct {
	ctx              context.Context
	httpClient       *http.Client
	progressCallback func(int64, int64)
	skipExisting     bool
	targetDir        string
}

func NewDownloadBuilder() DownloadBuilder {
	return &downloadBuilder{
		ctx:          context.Background(),
		httpClient:   http.DefaultClient,
		skipExisting: true,
		targetDir:    ".",
	}
}

func (b *downloadBuilder) Build() (Download, error) {
	if b.targetDir == "" {
		return nil, fmt.Errorf("empty target dir")
	}
	d := download{
		httpClient:       b.httpClient,
		progressCallback: b.progressCallback,
		skipExisting:     b.skipExisting,
		targetDir:        b.targetDir,
	}
	d.ctx, d.cancel = context.WithCancel(b.ctx)
	return &d, nil
}

func (b *downloadBuilder) WithContext(ctx context.Context) DownloadBuilder {
	b.ctx = ctx
	return b
}

func (b *downloadBuilder) WithHTTPClient(client *http.Client) DownloadBuilder {
	if client != nil {
		b.httpClient = client
	}
	return b
}

func (b *downloadBuilder) WithProgressCallback(f func(int64, int64)) DownloadBuilder {
	b.progressCallback = f
	return b
}

func (b *downloadBuilder) WithSkipExisting(skip bool) DownloadBuilder {
	b.skipExisting = skip
	return b
}

func (b *downloadBuilder) WithTargetDir(dir string) DownloadBuilder {
	b.targetDir = dir
	return b
}
