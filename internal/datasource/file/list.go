package file

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadList returns the entries of a list file in order. Blank lines and
// '#' comments (whole-line or trailing after whitespace) are skipped, and an
// entry listed twice is kept once.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer f.Close()
	return parseList(f)
}

func parseList(r io.Reader) ([]string, error) {
	var (
		out  []string
		seen = map[string]struct{}{}
		sc   = bufio.NewScanner(r)
	)
	for sc.Scan() {
		entry := sc.Text()
		if i := strings.Index(entry, " #"); i >= 0 {
			entry = entry[:i]
		}
		entry = strings.TrimSpace(entry)
		if entry == "" || entry[0] == '#' {
			continue
		}
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		out = append(out, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return out, nil
}
