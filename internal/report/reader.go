// Package report parses the vendor's daily subscription-event exports.
//
// Exports are tab-separated with a fixed header row (see Columns). Cells
// holding "", " " or "NaN" are treated as missing and collapse to Null, so
// downstream code never has to tell those spellings apart.
package report

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"salesloader/internal/source"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const delimiter = '\t'

// nullTokens are the raw spellings of a missing value.
var nullTokens = map[string]struct{}{
	"":    {},
	" ":   {},
	"NaN": {},
}

// Normalize maps a raw cell to its Cell value.
func Normalize(raw string) Cell {
	if _, ok := nullTokens[raw]; ok {
		return Null
	}
	return Text(raw)
}

// Read parses a full export from r.
//
// The stream may start with a UTF-8 or UTF-16 byte order mark. Each line is
// split on tabs with no quote handling, so a cell may begin with '"'. Blank
// lines are skipped and a row whose width differs from the header is an
// error.
func Read(r io.Reader) (*Table, error) {
	br := bufio.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))

	line := 0
	next := func() ([]string, error) {
		for {
			s, err := br.ReadString('\n')
			if s == "" && err != nil {
				return nil, err
			}
			line++
			s = strings.TrimRight(s, "\r\n")
			if s == "" {
				if err != nil {
					return nil, err
				}
				continue
			}
			return strings.Split(s, string(delimiter)), nil
		}
	}

	header, err := next()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty report: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}

	t := NewTable(cols)
	for {
		rec, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line+1, err)
		}
		row := make([]Cell, len(rec))
		for i, raw := range rec {
			row[i] = Normalize(raw)
		}
		if err := t.Append(row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return t, nil
}

// ReadFile opens path and parses it with Read. Errors carry the path.
func ReadFile(ctx context.Context, path string) (*Table, error) {
	rc, err := source.NewLocal(path).Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := Read(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}
