package files

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/kdlbs/toolgate/internal/textutil"
)

// Read implements file_read: renders limit lines starting at 1-based line
// offset+1, with a five-character right-justified line-number column.
func (s *Service) Read(root string, path string, offset, limit int) (string, error) {
	if limit <= 0 {
		limit = MaxReadLines
	}

	abs, err := s.resolve(root, path)
	if err != nil {
		return "", err
	}

	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Error: file does not exist: %s", path), nil
		}
		return fmt.Sprintf("Error: cannot read file %s: %s", path, err), nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Sprintf("Error: cannot stat file %s: %s", path, err), nil
	}
	if info.IsDir() {
		return fmt.Sprintf("Error: %s is a directory", path), nil
	}

	binary, err := looksBinary(f)
	if err != nil {
		return fmt.Sprintf("Error: cannot read file %s: %s", path, err), nil
	}
	if binary {
		return fmt.Sprintf("Error: cannot read binary file: %s", path), nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Sprintf("Error: cannot read file %s: %s", path, err), nil
	}

	var out bytes.Buffer
	reader := bufio.NewReaderSize(f, 64*1024)
	lineNum := 0
	emitted := 0
	for {
		line, readErr := reader.ReadString('\n')
		if line != "" || readErr == nil {
			lineNum++
			if lineNum > offset && emitted < limit {
				fmt.Fprintf(&out, "%5d| %s\n", lineNum, truncateLine(trimNewline(line), MaxLineLength))
				emitted++
			}
		}
		if readErr != nil {
			break
		}
		if emitted >= limit {
			break
		}
	}

	return textutil.TruncateHeadTail(out.String()), nil
}

func trimNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}

func truncateLine(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// looksBinary reports whether f's leading bytes contain a NUL byte, the
// same heuristic used by git and most editors to detect binary content.
func looksBinary(f *os.File) (bool, error) {
	buf := make([]byte, 8000)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false, err
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}
