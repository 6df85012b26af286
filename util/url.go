package util

import (
	"errors"
	"mime"
	"net/url"
	"path"
	"strings"
)

var (
	ErrNoFilename  = errors.New("cannot extract valid filename")
	ErrNoExtension = errors.New("cannot determine file extension")
)

func FilenameFromURL(url *url.URL) (string, error) {
	if url == nil {
		return "", ErrNoFilename
	}
	p := strings.Trim(url.Path, "/")
	if p == "" {
		return "", ErrNoFilename
	}
	filename := path.Base(p)
	// Don't allow "filenames" that are just ".", "..", etc.
	if strings.ReplaceAll(filename, ".", "") == "" {
		return "", ErrNoFilename
	}
	return filename, nil
}

func FilenameFromURLString(s string) (string, error) {
	parsedURL, err := url.Parse(s)
	if err != nil {
		return "", err
	}
	return FilenameFromURL(parsedURL)
}

// SplitExtension splits "name.ext" into ("name", "ext"), lower-casing the extension.
func SplitExtension(filename string) (string, string) {
	ext := path.Ext(filename)
	return strings.TrimSuffix(filename, ext), strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtensionFromMimeType turns e.g. `video/mp4; codecs="avc1.42001E, mp4a.40.2"` into "mp4".
func ExtensionFromMimeType(mimeType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "", err
	}
	parts := strings.SplitN(mediaType, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", ErrNoExtension
	}
	switch sub := parts[1]; sub {
	case "3gpp":
		return "3gp", nil
	case "x-matroska":
		return "mkv", nil
	case "quicktime":
		return "mov", nil
	default:
		return sub, nil
	}
}
