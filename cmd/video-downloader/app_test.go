package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stroud/video-downloader"
	"github.com/stroud/video-downloader/providers"
)

type fixedPrompter struct {
	answers map[string]string
	asked   []string
}

func (p *fixedPrompter) Prompt(label string) (string, error) {
	p.asked = append(p.asked, label)
	for prefix, answer := range p.answers {
		if strings.HasPrefix(label, prefix) {
			return answer, nil
		}
	}
	return "", nil
}

func newVideoServer(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/media/first.mp4", "/media/second.webm":
			w.Header().Set("Content-Length", "5")
			if r.Method != http.MethodHead {
				_, _ = w.Write([]byte("video"))
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestEnv(prompter *fixedPrompter, out *bytes.Buffer) appEnv {
	env := appEnv{
		ctx:    context.Background(),
		logger: zap.NewNop(),
		level:  zap.NewAtomicLevelAt(zapcore.WarnLevel),
		out:    out,
		now:    func() time.Time { return time.Date(2024, time.January, 31, 17, 45, 2, 0, time.UTC) },
	}
	if prompter != nil {
		env.prompter = prompter
	}
	return env
}

func TestApp_PositionalArgs(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	server := newVideoServer(t)

	dir := t.TempDir()
	urlFile := filepath.Join(dir, "links.txt")
	require.NoError(os.WriteFile(urlFile, []byte(fmt.Sprintf("%s/media/first.mp4\n%s/media/second.webm\n", server.URL, server.URL)), 0644))
	outputDir := filepath.Join(dir, "videos")

	var out bytes.Buffer
	app := newApp(newTestEnv(nil, &out))
	err := app.Run([]string{appName, "--quiet", "--history", filepath.Join(dir, "history.db"), urlFile, outputDir, "720p"})
	require.NoError(err)

	assert.FileExists(filepath.Join(outputDir, "[1] first.mp4"))
	assert.FileExists(filepath.Join(outputDir, "[2] second.webm"))
	assert.Contains(out.String(), ">>> STROUD VIDEO DOWNLOADER (v1.0) <<<\n")
	assert.Contains(out.String(), "Created a new dir "+outputDir)
	assert.Contains(out.String(), "Parsing 2 lines in "+urlFile+"...")
	assert.Contains(out.String(), "(No Errors)")

	// Running again skips everything using the history.
	out.Reset()
	err = app.Run([]string{appName, "--quiet", "--history", filepath.Join(dir, "history.db"), urlFile, outputDir})
	require.NoError(err)
	assert.Equal(2, strings.Count(out.String(), "Skipping line"))
}

func TestApp_Failures(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	server := newVideoServer(t)

	dir := t.TempDir()
	urlFile := filepath.Join(dir, "url.txt")
	lines := []string{
		server.URL + "/media/first.mp4",
		server.URL + "/media/missing.mp4",
		"https://example.com/not-a-video",
	}
	require.NoError(os.WriteFile(urlFile, []byte(strings.Join(lines, "\n")), 0644))

	var out bytes.Buffer
	app := newApp(newTestEnv(nil, &out))
	err := app.Run([]string{appName, "--quiet", "--url-file", urlFile, "--output", filepath.Join(dir, "out")})
	assert.True(errors.Is(err, errDownloadsFailed))
	assert.Contains(out.String(), "Line [2] : "+lines[1])
	assert.Contains(out.String(), "Line [3] : "+lines[2])
	assert.Contains(out.String(), "(A total of 2 errors)")
	assert.FileExists(filepath.Join(dir, "out", "[1] first.mp4"))
}

func TestApp_Prompts(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	server := newVideoServer(t)

	dir := t.TempDir()
	urlFile := filepath.Join(dir, "prompted.txt")
	require.NoError(os.WriteFile(urlFile, []byte(server.URL+"/media/first.mp4\n"), 0644))
	wd, err := os.Getwd()
	require.NoError(err)
	require.NoError(os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	prompter := &fixedPrompter{answers: map[string]string{"Enter the URL file": urlFile}}
	var out bytes.Buffer
	app := newApp(newTestEnv(prompter, &out))
	require.NoError(app.Run([]string{appName, "--quiet"}))

	assert.Equal([]string{
		"Enter the URL file (default = url.txt): ",
		"Enter the dir for downloads (default = 20240131.174502_download): ",
	}, prompter.asked)
	assert.FileExists(filepath.Join(dir, "20240131.174502_download", "[1] first.mp4"))
}

func TestApp_NoPrompt(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	wd, err := os.Getwd()
	require_.NoError(t, err)
	require_.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	prompter := &fixedPrompter{}
	var out bytes.Buffer
	app := newApp(newTestEnv(prompter, &out))
	// With no prompting the default url.txt is used, which doesn't exist here.
	err = app.Run([]string{appName, "--no-prompt", "--quiet"})
	assert.Error(err)
	assert.False(errors.Is(err, errDownloadsFailed))
	assert.Empty(prompter.asked)
}

func TestApp_BadArguments(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	urlFile := filepath.Join(dir, "url.txt")
	require_.NoError(t, os.WriteFile(urlFile, nil, 0644))
	var out bytes.Buffer
	app := newApp(newTestEnv(nil, &out))

	assert.Error(app.Run([]string{appName, urlFile, dir, "360p", "extra"}))
	assert.Error(app.Run([]string{appName, "--template", "{{.Title", urlFile, dir}))
	assert.Error(app.Run([]string{appName, "--provider", "vimeo", urlFile, dir}))
	assert.True(errors.Is(app.Run([]string{appName, "--retries", "-1", urlFile, filepath.Join(dir, "retries")}), providers.ErrInvalidOptions))
	assert.NoDirExists(filepath.Join(dir, "retries"))
	assert.NoError(app.Run([]string{appName, urlFile, dir}))
	assert.Contains(out.String(), "Parsing 0 lines")
}

func TestApp_ListProviders(t *testing.T) {
	assert := assert_.New(t)
	var out bytes.Buffer
	app := newApp(newTestEnv(nil, &out))

	assert.NoError(app.Run([]string{appName, "--list-providers"}))
	assert.Equal("youtube\t0\nraw\t32767\n", out.String())

	out.Reset()
	assert.NoError(app.Run([]string{appName, "--prefer", "raw", "--list-providers"}))
	assert.Equal("raw\t-32768\nyoutube\t0\n", out.String())

	err := app.Run([]string{appName, "--prefer", "vimeo", "--list-providers"})
	assert.True(errors.Is(err, video_downloader.ErrUnknownProvider))
	assert.Contains(err.Error(), "vimeo")
}

func TestApp_HistoryFlags(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	server := newVideoServer(t)

	dir := t.TempDir()
	historyFile := filepath.Join(dir, "history.db")
	outputDir := filepath.Join(dir, "videos")
	good := server.URL + "/media/first.mp4"
	missing := server.URL + "/media/missing.mp4"
	urlFile := filepath.Join(dir, "url.txt")
	require.NoError(os.WriteFile(urlFile, []byte(good+"\n"+missing+"\n"), 0644))

	var out bytes.Buffer
	app := newApp(newTestEnv(nil, &out))
	err := app.Run([]string{appName, "--quiet", "--history", historyFile, urlFile, outputDir})
	require.True(errors.Is(err, errDownloadsFailed))

	out.Reset()
	require.NoError(app.Run([]string{appName, "--history", historyFile, "--list-history"}))
	assert.Contains(out.String(), "complete\t"+good+"\t"+filepath.Join(outputDir, "[1] first.mp4")+"\n")
	assert.Contains(out.String(), "failed\t"+missing+"\t")

	out.Reset()
	require.NoError(app.Run([]string{appName, "--history", historyFile, "--forget", missing, "--forget", good, "--list-history"}))
	assert.Empty(out.String())

	assert.True(errors.Is(app.Run([]string{appName, "--list-history"}), errNoHistory))
	assert.True(errors.Is(app.Run([]string{appName, "--forget", good, urlFile, outputDir}), errNoHistory))
}
