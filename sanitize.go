package video_downloader

import "strings"

// Replacements are applied in order, each to the output of the previous one.
var filenameReplacements = []struct {
	old string
	new string
}{
	{"/", ","},
	{":", "-"},
	{`"`, ""},
	{"&", "n"},
	{"#", ""},
	{"  ", ""},
	{"?", " "},
	{"!", " "},
}

// SanitizeFilename replaces characters that are awkward or invalid in filenames.
func SanitizeFilename(name string) string {
	for _, r := range filenameReplacements {
		name = strings.ReplaceAll(name, r.old, r.new)
	}
	return name
}
