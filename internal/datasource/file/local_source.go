// Package file reads model responses from the local filesystem.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"trialetl/internal/datasource"
)

// Supported formats.
const (
	FormatAuto  = "auto"
	FormatText  = "text"
	FormatDir   = "dir"
	FormatJSONL = "jsonl"
	FormatList  = "list"
)

// maxLine bounds a single JSONL record.
const maxLine = 16 << 20

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the configured path for reading. A canceled context is reported
// without touching the filesystem; filesystem errors are wrapped with the
// path and keep errors.Is(err, os.ErrNotExist) working.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Source reads responses in one of the supported formats:
//
//   - text:  the whole file is one response
//   - dir:   every *.txt file in the directory, ordered by name
//   - jsonl: one {"title","link","response"} object per line
//   - list:  a list file (see ReadList) naming one response file per line,
//     relative paths resolved against the list's directory
//
// auto picks dir for directories, jsonl for *.jsonl and text otherwise.
type Source struct {
	Path   string
	Format string
}

var _ datasource.Source = (*Source)(nil)

// Read implements datasource.Source.
func (s *Source) Read(ctx context.Context, skip datasource.SkipFunc) ([]datasource.Response, error) {
	if skip == nil {
		skip = func(string, error) {}
	}
	format, err := s.resolveFormat()
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatText:
		r, err := readText(ctx, s.Path)
		if err != nil {
			return nil, err
		}
		return []datasource.Response{r}, nil
	case FormatDir:
		return readDir(ctx, s.Path, skip)
	case FormatJSONL:
		return readJSONL(ctx, s.Path, skip)
	case FormatList:
		return readListed(ctx, s.Path, skip)
	default:
		return nil, fmt.Errorf("file source: unknown format %q", s.Format)
	}
}

func (s *Source) resolveFormat() (string, error) {
	f := strings.ToLower(strings.TrimSpace(s.Format))
	if f != "" && f != FormatAuto {
		return f, nil
	}
	fi, err := os.Stat(s.Path)
	if err != nil {
		return "", fmt.Errorf("file source: %w", err)
	}
	switch {
	case fi.IsDir():
		return FormatDir, nil
	case strings.EqualFold(filepath.Ext(s.Path), ".jsonl"):
		return FormatJSONL, nil
	default:
		return FormatText, nil
	}
}

func readText(ctx context.Context, path string) (datasource.Response, error) {
	rc, err := NewLocal(path).Open(ctx)
	if err != nil {
		return datasource.Response{}, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return datasource.Response{}, fmt.Errorf("read %s: %w", path, err)
	}
	return datasource.Response{ID: filepath.Base(path), Text: decodeText(b)}, nil
}

func readDir(ctx context.Context, dir string, skip datasource.SkipFunc) ([]datasource.Response, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return readFiles(ctx, dir, names, skip)
}

func readListed(ctx context.Context, listPath string, skip datasource.SkipFunc) ([]datasource.Response, error) {
	paths, err := ReadList(listPath)
	if err != nil {
		return nil, fmt.Errorf("read list %s: %w", listPath, err)
	}
	return readFiles(ctx, filepath.Dir(listPath), paths, skip)
}

func readFiles(ctx context.Context, base string, paths []string, skip datasource.SkipFunc) ([]datasource.Response, error) {
	out := make([]datasource.Response, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		r, err := readText(ctx, p)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			skip(filepath.Base(p), err)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// jsonlItem is one line of a response dump.
type jsonlItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Response string `json:"response"`
	Text     string `json:"text"`
}

func readJSONL(ctx context.Context, path string, skip datasource.SkipFunc) ([]datasource.Response, error) {
	rc, err := NewLocal(path).Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	base := filepath.Base(path)
	var out []datasource.Response

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for sc.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		id := base + ":" + strconv.Itoa(line)
		item, err := decodeItem(raw)
		if err != nil {
			skip(id, err)
			continue
		}
		if item.ID != "" {
			id = item.ID
		}
		text := item.Response
		if text == "" {
			text = item.Text
		}
		out = append(out, datasource.Response{
			ID:    id,
			Title: item.Title,
			Link:  item.Link,
			Text:  decodeText([]byte(text)),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return out, nil
}

// decodeItem unmarshals one JSONL line, retrying once through jsonrepair
// when the line is malformed (unescaped newlines, trailing commas, single
// quotes and the like).
func decodeItem(raw string) (jsonlItem, error) {
	var item jsonlItem
	err := json.Unmarshal([]byte(raw), &item)
	if err == nil {
		return item, nil
	}
	repaired, repairErr := jsonrepair.JSONRepair(raw)
	if repairErr != nil {
		return jsonlItem{}, fmt.Errorf("decode: %w (repair failed: %v)", err, repairErr)
	}
	item = jsonlItem{}
	if err := json.Unmarshal([]byte(repaired), &item); err != nil {
		return jsonlItem{}, fmt.Errorf("decode repaired line: %w", err)
	}
	return item, nil
}
