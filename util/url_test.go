package util

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestFilenameFromURLString(t *testing.T) {
	assert := assert_.New(t)

	cases := []struct {
		input    string
		expected string
		err      error
	}{
		{"https://example.com/videos/clip.mp4", "clip.mp4", nil},
		{"https://example.com/videos/clip.mp4/?x=1", "clip.mp4", nil},
		{"https://example.com/", "", ErrNoFilename},
		{"https://example.com/videos/..", "", ErrNoFilename},
		{"https://example.com", "", ErrNoFilename},
	}
	for _, c := range cases {
		filename, err := FilenameFromURLString(c.input)
		assert.Equal(c.expected, filename, c.input)
		assert.Equal(c.err, err, c.input)
	}

	_, err := FilenameFromURL(nil)
	assert.Equal(ErrNoFilename, err)
	_, err = FilenameFromURLString("://bad")
	assert.Error(err)
}

func TestSplitExtension(t *testing.T) {
	assert := assert_.New(t)

	name, ext := SplitExtension("My Clip.MP4")
	assert.Equal("My Clip", name)
	assert.Equal("mp4", ext)

	name, ext = SplitExtension("noext")
	assert.Equal("noext", name)
	assert.Equal("", ext)
}

func TestExtensionFromMimeType(t *testing.T) {
	assert := assert_.New(t)

	cases := map[string]string{
		`video/mp4; codecs="avc1.42001E, mp4a.40.2"`: "mp4",
		`video/webm; codecs="vp9"`:                   "webm",
		"video/3gpp":                                 "3gp",
		"video/x-matroska":                           "mkv",
	}
	for input, expected := range cases {
		ext, err := ExtensionFromMimeType(input)
		assert.NoError(err, input)
		assert.Equal(expected, ext, input)
	}

	_, err := ExtensionFromMimeType("")
	assert.Error(err)
	_, err = ExtensionFromMimeType("video")
	assert.Error(err)
}
