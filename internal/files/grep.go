package files

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

type grepCandidate struct {
	abs     string
	relPath string
	modTime int64
}

type grepMatch struct {
	line    int
	content string
}

// Grep implements file_grep: a regular-expression search grouped by file,
// files ordered newest-modified first, capped at maxResults total matches.
func (s *Service) Grep(root string, pattern, path, include string, caseInsensitive bool, maxResults int) (string, error) {
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

	expr := pattern
	if caseInsensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Sprintf("Error: invalid pattern: %s", err), nil
	}

	var includeMatcher glob.Glob
	if include != "" {
		includeMatcher, err = glob.Compile(include, '/')
		if err != nil {
			return fmt.Sprintf("Error: invalid include pattern: %s", err), nil
		}
	}

	var candidates []grepCandidate
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
		if includeMatcher != nil && !includeMatcher.Match(rel) {
			return nil
		}
		candidates = append(candidates, grepCandidate{abs: p, relPath: rel, modTime: info.ModTime().UnixNano()})
		return nil
	})
	if walkErr != nil {
		return fmt.Sprintf("Error: cannot search %s: %s", path, walkErr), nil
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].modTime > candidates[j].modTime })

	var b strings.Builder
	totalMatches := 0
	filesWithMatches := 0
	capped := false

	for _, c := range candidates {
		if capped {
			break
		}
		matches, binary := grepFile(c.abs, re)
		if binary || len(matches) == 0 {
			continue
		}
		filesWithMatches++
		fmt.Fprintf(&b, "%s:\n", c.relPath)
		for _, m := range matches {
			if totalMatches >= maxResults {
				capped = true
				break
			}
			fmt.Fprintf(&b, "%d| %s\n", m.line, truncateGrepLine(m.content))
			totalMatches++
		}
	}

	if filesWithMatches == 0 {
		return "No matches found", nil
	}
	if capped {
		fmt.Fprintf(&b, "(showing first %d matches)\n", maxResults)
	}
	return b.String(), nil
}

func grepFile(path string, re *regexp.Regexp) (matches []grepMatch, binary bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	buf := make([]byte, 8000)
	n, _ := f.Read(buf)
	for _, c := range buf[:n] {
		if c == 0 {
			return nil, true
		}
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, false
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if re.MatchString(line) {
			matches = append(matches, grepMatch{line: lineNum, content: line})
		}
	}
	return matches, false
}

func truncateGrepLine(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxGrepLineLength {
		return s
	}
	return string(runes[:MaxGrepLineLength]) + "..."
}
