package batch

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

// ReadLines reads every line of a URL list. Line endings are stripped; blank lines are kept so numbering matches the
// file.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL file: %w", err)
	}
	return lines, nil
}

// FileNumber formats the 1-indexed position n, zero-padded to the width of total.
func FileNumber(n int, total int) string {
	return fmt.Sprintf("%0*d", len(strconv.Itoa(total)), n)
}

// PrepareOutputDir makes sure dir exists, returning true if it had to be created.
func PrepareOutputDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return false, nil
	case err == nil:
		return false, fmt.Errorf("output path %s is not a directory", dir)
	case !os.IsNotExist(err):
		return false, err
	}
	if err := os.MkdirAll(dir, 0775); err != nil {
		return false, fmt.Errorf("failed to create output dir: %w", err)
	}
	return true, nil
}
