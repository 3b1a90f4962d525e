package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseList reads one start URL per line. Surrounding whitespace is
// trimmed; blank lines and lines starting with '#' are skipped.
func ParseList(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return urls, nil
}

// ReadListFile parses the URL list at path. An empty list is an error.
func ReadListFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path is given by the user on the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	urls, err := ParseList(f)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyList, path)
	}
	return urls, nil
}
