package raw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"

	"github.com/stroud/video-downloader"
)

func TestMatch(t *testing.T) {
	assert := assert_.New(t)
	config := NewConfig()

	matched, err := config.Match("https://example.com/media/My%20Clip.MP4?token=abc")
	if assert.NoError(err) {
		src := matched.(*source)
		assert.Equal("My Clip", src.name)
		assert.Equal("mp4", src.ext)
		assert.Equal("https://example.com/media/My%20Clip.MP4?token=abc", matched.URL())
	}

	for _, s := range []string{
		"ftp://example.com/clip.mp4",
		"https://example.com/clip",
		"https://example.com/clip.txt",
		"https://example.com/",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	} {
		_, err := config.Match(s)
		assert.Error(err, s)
	}

	_, err = config.Match("https://example.com/clip.txt")
	if assert.Error(err) {
		assert.Contains(err.Error(), `unknown file extension "txt" (expected one of 3gp, flv, m4v, mkv, mov, mp4, webm)`)
	}
}

func TestReconAndDownload(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/clip.webm":
			w.Header().Set("Content-Length", "10")
			if r.Method != http.MethodHead {
				_, _ = w.Write([]byte("0123456789"))
			}
		case "/nohead.mp4":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			_, _ = w.Write([]byte("data"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	config := NewConfig()
	config.HTTPClient = server.Client()
	ctx := context.Background()

	src, err := config.Match(server.URL + "/clip.webm")
	require.NoError(err)
	resolved, err := src.Recon(ctx, video_downloader.ReconOptions{Resolution: "720p"})
	require.NoError(err)
	assert.Equal(video_downloader.SourceInfo{ID: "clip", Title: "clip", Ext: "webm", Size: 10}, resolved.Info())

	dir := t.TempDir()
	d, err := video_downloader.NewDownloadBuilder().WithContext(ctx).WithTargetDir(dir).Build()
	require.NoError(err)
	defer d.Close()
	assert.NoError(resolved.Download(d, "[1] clip.webm"))
	data, err := os.ReadFile(filepath.Join(dir, "[1] clip.webm"))
	assert.NoError(err)
	assert.Equal("0123456789", string(data))

	src, err = config.Match(server.URL + "/nohead.mp4")
	require.NoError(err)
	resolved, err = src.Recon(ctx, video_downloader.ReconOptions{})
	require.NoError(err)
	assert.Equal(int64(0), resolved.Info().Size)

	src, err = config.Match(server.URL + "/missing.mp4")
	require.NoError(err)
	_, err = src.Recon(ctx, video_downloader.ReconOptions{})
	assert.Error(err)
}
