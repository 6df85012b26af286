// Package prompt asks the user for settings that were not given on the command line.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
)

const DefaultURLFile = "url.txt"

var (
	ErrCancelled = errors.New("input cancelled")
)

type Prompter interface {
	// Prompt shows label and returns the line the user entered, without surrounding whitespace.
	Prompt(label string) (string, error)
}

// DefaultOutputDir gives a timestamped directory name like "20240131.174502_download".
func DefaultOutputDir(now time.Time) string {
	return now.Format("20060102.150405") + "_download"
}

// AskOrDefault prompts for a value, returning def if the user enters nothing.
func AskOrDefault(p Prompter, label string, def string) (string, error) {
	answer, err := p.Prompt(fmt.Sprintf("%s (default = %s): ", label, def))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

type readlinePrompter struct {
	stdin  io.ReadCloser
	stdout io.Writer
}

// NewReadline returns a Prompter reading from the terminal. A nil stdin or stdout uses the process's own.
func NewReadline(stdin io.ReadCloser, stdout io.Writer) Prompter {
	return &readlinePrompter{stdin: stdin, stdout: stdout}
}

func (p *readlinePrompter) Prompt(label string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 label,
		Stdin:                  p.stdin,
		Stdout:                 p.stdout,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to initialize prompt: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", ErrCancelled
	case errors.Is(err, io.EOF):
		// Treat a closed stdin like an empty answer so defaults still apply.
		return strings.TrimSpace(line), nil
	case err != nil:
		return "", err
	}
	return strings.TrimSpace(line), nil
}
