//go:build !windows

package trash

import (
	"fmt"
	"os"
	"path/filepath"
)

// TrashDirEnv overrides the trash directory, mainly for tests.
const TrashDirEnv = "DISKWISE_TRASH_DIR"

func trashDir() (string, error) {
	if dir := os.Getenv(TrashDirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "Trash", "files"), nil
}

// Put moves path into the trash directory, suffixing the name on collision.
func Put(path string) error {
	dir, err := trashDir()
	if err != nil {
		return fmt.Errorf("resolve trash dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create trash dir: %w", err)
	}

	base := filepath.Base(path)
	target := filepath.Join(dir, base)
	for i := 1; ; i++ {
		if _, err := os.Lstat(target); os.IsNotExist(err) {
			break
		}
		target = filepath.Join(dir, fmt.Sprintf("%s.%d", base, i))
	}

	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("move %q to trash: %w", path, err)
	}
	return nil
}
