package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// List implements file_ls: enumerates path as a tree, directories before
// files, each group sorted lexicographically, capped at MaxListFiles files.
func (s *Service) List(root string, path string, ignore []string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := s.resolve(root, path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Error: %s does not exist", path), nil
		}
		return fmt.Sprintf("Error: cannot stat %s: %s", path, err), nil
	}
	if !info.IsDir() {
		return fmt.Sprintf("Error: %s is not a directory", path), nil
	}

	matchers := compileGlobs(append(append([]string{}, s.ignoreDefaults...), ignore...))

	var lines []string
	count := 0
	capped := false
	if err := listDir(abs, "", 0, matchers, &lines, &count, &capped); err != nil {
		return fmt.Sprintf("Error: cannot list %s: %s", path, err), nil
	}

	if len(lines) == 0 {
		return "Directory is empty", nil
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if capped {
		fmt.Fprintf(&b, "(showing first %d of %d, use more specific path to see more)\n", MaxListFiles, count)
	} else {
		fmt.Fprintf(&b, "Found %d files\n", count)
	}
	return b.String(), nil
}

func listDir(dir, relPrefix string, depth int, matchers []glob.Glob, lines *[]string, fileCount *int, capped *bool) error {
	if *capped {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var dirs, files []os.DirEntry
	for _, e := range entries {
		rel := relPrefix + e.Name()
		if e.IsDir() {
			rel += "/"
		}
		if matchesAny(matchers, rel) {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name() < dirs[j].Name() })
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	indent := strings.Repeat("  ", depth)
	for _, d := range dirs {
		if *capped {
			return nil
		}
		*lines = append(*lines, indent+d.Name()+"/")
		listDir(filepath.Join(dir, d.Name()), relPrefix+d.Name()+"/", depth+1, matchers, lines, fileCount, capped)
	}
	for _, f := range files {
		if *fileCount >= MaxListFiles {
			*capped = true
			return nil
		}
		*lines = append(*lines, indent+f.Name())
		*fileCount++
	}
	return nil
}

func compileGlobs(patterns []string) []glob.Glob {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			continue
		}
		out = append(out, g)
	}
	return out
}

func matchesAny(matchers []glob.Glob, relPath string) bool {
	for _, m := range matchers {
		if m.Match(relPath) {
			return true
		}
	}
	return false
}
