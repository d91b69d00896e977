package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadList reads a list file naming one export per line, in import order.
// Blank lines and '#' comments are skipped. Relative entries are resolved
// against the list file's directory, so a list can sit next to the exports
// it names. A file listed twice is an error: facts are append-only and a
// second import would duplicate them.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseList(f, filepath.Dir(path))
}

func parseList(r io.Reader, base string) ([]string, error) {
	var out []string
	seen := make(map[string]int)

	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		entry := strings.TrimSpace(scanner.Text())
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(base, entry)
		}
		entry = filepath.Clean(entry)
		if first, ok := seen[entry]; ok {
			return nil, fmt.Errorf("line %d: %s already listed on line %d", n, entry, first)
		}
		seen[entry] = n
		out = append(out, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
