package video_downloader

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/stroud/video-downloader/generic"
)

// DefaultTargetTemplate reproduces the "[NN] Title.ext" naming scheme.
const DefaultTargetTemplate = "[{{.Number}}] {{.Title}}.{{.Ext}}"

type TargetNamer interface {
	TargetName(args TargetNameArgs) (string, error)
}

// TargetNameArgs are the values available to a target filename template. Title is already sanitized.
type TargetNameArgs struct {
	// Number is the zero-padded, 1-indexed position of the URL in its list.
	Number       string
	Total        int
	ProviderName string
	Title        string
	ID           string
	Ext          string
}

type targetNamer struct {
	template *template.Template
}

func NewTargetNamer(text string) (TargetNamer, error) {
	tmpl, err := template.New("target_file").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid target template: %w", err)
	}
	return &targetNamer{template: tmpl}, nil
}

func MustTargetNamer(text string) TargetNamer {
	return generic.Unwrap(NewTargetNamer(text))
}

func (n *targetNamer) TargetName(args TargetNameArgs) (string, error) {
	builder := strings.Builder{}
	if err := n.template.Execute(&builder, &args); err != nil {
		return "", err
	}
	name := builder.String()
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("target template produced an empty filename")
	}
	return name, nil
}

// NewTargetNameArgs builds template arguments from resolved source information, falling back to the ID when the
// title is empty.
func NewTargetNameArgs(number string, total int, providerName string, info SourceInfo) TargetNameArgs {
	title := SanitizeFilename(info.Title)
	if strings.TrimSpace(title) == "" {
		title = SanitizeFilename(info.ID)
	}
	ext := info.Ext
	if ext == "" {
		ext = "mp4"
	}
	return TargetNameArgs{
		Number:       number,
		Total:        total,
		ProviderName: providerName,
		Title:        title,
		ID:           info.ID,
		Ext:          ext,
	}
}
