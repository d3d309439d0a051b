package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
)

// MaxBackups is how many copies `config init --force` keeps per file.
const MaxBackups = 3

const backupStamp = "20060102-150405.000"

// backupPrefix returns the name prefix shared by every backup of path, e.g.
// ".ayatsearch.yaml.bak.".
func backupPrefix(path string) string {
	return filepath.Base(path) + ".bak."
}

// BackupFile copies path to <path>.bak.<timestamp> and prunes all but the
// newest MaxBackups copies. It returns "" when path does not exist.
func BackupFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", aerrors.IOError("failed to read config for backup", err).WithDetail("path", path)
	}

	backup := filepath.Join(filepath.Dir(path), backupPrefix(path)+time.Now().Format(backupStamp))
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return "", aerrors.New(aerrors.ErrCodeFilePermission, "failed to write config backup", err).
			WithDetail("path", backup)
	}

	if old, err := ListBackups(path); err == nil && len(old) > MaxBackups {
		for _, p := range old[MaxBackups:] {
			_ = os.Remove(p)
		}
	}
	return backup, nil
}

// ListBackups returns the backups of path, newest first.
func ListBackups(path string) ([]string, error) {
	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, aerrors.IOError("failed to list config directory", err).WithDetail("path", dir)
	}

	prefix := backupPrefix(path)
	var backups []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), prefix) {
			backups = append(backups, filepath.Join(dir, e.Name()))
		}
	}
	// Stamps sort lexically in time order.
	slices.Sort(backups)
	slices.Reverse(backups)
	return backups, nil
}
