package files

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write implements file_write: creates intermediate directories as needed
// and writes content verbatim.
func (s *Service) Write(root string, path, content string) (string, error) {
	abs, err := s.resolve(root, path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Sprintf("Error: cannot create directory for %s: %s", path, err), nil
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return fmt.Sprintf("Error: cannot write file %s: %s", path, err), nil
	}

	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path), nil
}
