package files

import (
	"fmt"
	"os"
	"strings"
)

// Edit implements file_edit: an exact-substring replacement performed via a
// backup-then-replace pattern so a mid-write failure can always be undone.
func (s *Service) Edit(root string, path, oldString, newString string, replaceAll bool) (string, error) {
	if oldString == newString {
		return "Error: oldString and newString must be different", nil
	}

	abs, err := s.resolve(root, path)
	if err != nil {
		return "", err
	}

	original, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Error: file does not exist: %s", path), nil
		}
		return fmt.Sprintf("Error: cannot read file %s: %s", path, err), nil
	}

	content := string(original)
	if !strings.Contains(content, oldString) {
		return "Error: String not found in file", nil
	}

	var replaced string
	if replaceAll {
		replaced = strings.ReplaceAll(content, oldString, newString)
	} else {
		replaced = strings.Replace(content, oldString, newString, 1)
	}

	info, err := os.Stat(abs)
	var mode os.FileMode = 0644
	if err == nil {
		mode = info.Mode()
	}

	backupPath := abs + ".toolgate-bak"
	if err := os.WriteFile(backupPath, original, mode); err != nil {
		return fmt.Sprintf("Error: cannot create backup for %s: %s", path, err), nil
	}

	if err := os.WriteFile(abs, []byte(replaced), mode); err != nil {
		// The write failed partway through; restore unconditionally from
		// the original bytes read above (the same content as the backup)
		// rather than trying to diff what was written.
		_ = os.WriteFile(abs, original, mode)
		_ = os.Remove(backupPath)
		return fmt.Sprintf("Error: cannot write file %s: %s", path, err), nil
	}

	if err := os.Remove(backupPath); err != nil {
		s.logger.WithError(err).Warn("removing edit backup file")
	}

	return fmt.Sprintf("Successfully edited %s", path), nil
}
