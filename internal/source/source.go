// Package source resolves which report files an import run reads and opens
// them from the local disk.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// DefaultFiles is the list imported when no input is configured: ten daily
// exports in the working directory.
var DefaultFiles = []string{
	"20190201.txt",
	"20190202.txt",
	"20190203.txt",
	"20190204.txt",
	"20190205.txt",
	"20190206.txt",
	"20190207.txt",
	"20190208.txt",
	"20190209.txt",
	"20190210.txt",
}

// Resolve picks the ordered file list for a run. The first configured input
// wins: explicit files, then a list file, then a directory scan, then
// DefaultFiles.
func Resolve(files []string, listPath, dir, pattern string) ([]string, error) {
	switch {
	case len(files) > 0:
		return append([]string(nil), files...), nil
	case listPath != "":
		out, err := ReadList(listPath)
		if err != nil {
			return nil, fmt.Errorf("read file list %s: %w", listPath, err)
		}
		return out, nil
	case dir != "":
		return Glob(dir, pattern)
	default:
		return append([]string(nil), DefaultFiles...), nil
	}
}

// Glob returns the files in dir matching pattern, sorted by name. Daily
// exports are named by date, so name order is import order.
func Glob(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.txt"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	out := matches[:0]
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", m, err)
		}
		if fi.Mode().IsRegular() {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("no files matching %s in %s", pattern, dir)
	}
	return out, nil
}

// Local opens one report from the local filesystem.
type Local struct{ path string }

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the bound path.
func (l *Local) Path() string { return l.path }

// Open returns the context error without touching the filesystem when ctx is
// already done; otherwise it opens the file. Filesystem errors are wrapped
// with the path and still match errors.Is(err, os.ErrNotExist).
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
