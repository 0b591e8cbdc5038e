package icons

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fulmenhq/navkit/pkg/safeio"
)

// BackupTimeLayout names one run's snapshot directory.
const BackupTimeLayout = "20060102_150405"

// BackupError means the pre-deletion snapshot could not be taken. Nothing
// destructive runs after it.
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup to %s failed: %v", e.Path, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// IsBackupError reports whether err is or wraps a *BackupError.
func IsBackupError(err error) bool {
	var be *BackupError
	return errors.As(err, &be)
}

// Backup copies each directory in full into a fresh run directory under
// root, named after the timestamp. An existing run directory is never
// reused: a numeric suffix is added instead. Each copy keeps its directory's
// base name. A failed backup removes its partial run directory.
func Backup(root string, now time.Time, dirs ...string) (string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", &BackupError{Path: root, Err: err}
	}

	runDir, err := reserveRunDir(root, now.Format(BackupTimeLayout))
	if err != nil {
		return "", &BackupError{Path: root, Err: err}
	}

	fail := func(err error) (string, error) {
		_ = os.RemoveAll(runDir)
		return "", &BackupError{Path: runDir, Err: err}
	}

	used := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		name := filepath.Base(filepath.Clean(dir))
		if used[name] {
			return fail(fmt.Errorf("two backed-up directories share the name %q", name))
		}
		used[name] = true
		if err := safeio.CopyDir(dir, filepath.Join(runDir, name)); err != nil {
			return fail(err)
		}
	}
	return runDir, nil
}

// reserveRunDir creates root/stamp, or root/stamp_N for the first free N.
func reserveRunDir(root, stamp string) (string, error) {
	for i := 0; i < 1000; i++ {
		name := stamp
		if i > 0 {
			name = fmt.Sprintf("%s_%d", stamp, i)
		}
		dir := filepath.Join(root, name)
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("no free run directory for %s", stamp)
}
