package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

type globHit struct {
	relPath string
	modTime int64
}

// Glob implements file_glob: returns files under path matching pattern,
// newest first, capped at maxResults.
func (s *Service) Glob(root string, pattern, path string, maxResults int) (string, error) {
	if path == "" {
		path = "."
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	abs, err := s.resolve(root, path)
	if err != nil {
		return "", err
	}

	matcher, err := glob.Compile(pattern, '/')
	if err != nil {
		return fmt.Sprintf("Error: invalid pattern: %s", err), nil
	}

	var hits []globHit
	walkErr := filepath.Walk(abs, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(abs, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if matcher.Match(rel) {
			hits = append(hits, globHit{relPath: rel, modTime: info.ModTime().UnixNano()})
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Sprintf("Error: cannot search %s: %s", path, walkErr), nil
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].modTime > hits[j].modTime })

	if len(hits) == 0 {
		return "No files found", nil
	}

	total := len(hits)
	capped := total > maxResults
	if capped {
		hits = hits[:maxResults]
	}

	var b strings.Builder
	for _, h := range hits {
		b.WriteString(h.relPath)
		b.WriteByte('\n')
	}
	if capped {
		fmt.Fprintf(&b, "(showing first %d of %d)\n", maxResults, total)
	}
	return b.String(), nil
}
