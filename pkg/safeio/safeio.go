// Package safeio holds the small file primitives every navkit job shares:
// atomic rewrites that keep the original file mode, and verbatim copies used
// for backups.
package safeio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrExists is returned by CopyDir when the destination is already present.
var ErrExists = errors.New("destination already exists")

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// WriteFilePreservePerms replaces path with data. The write goes to a sibling
// temp file that is renamed into place, so readers never observe a partially
// written document. An existing file's mode is kept; new files get 0644.
func WriteFilePreservePerms(path string, data []byte) error {
	var mode os.FileMode = 0o644
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// CopyFile copies src to dst byte for byte and carries over the mode bits.
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(src) // #nosec G304 -- caller-controlled backup source
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode()&0o777)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	return dstFile.Close()
}

// CopyDir copies the tree rooted at src into dst, which must not exist yet.
// Symlinks are skipped. On error the partially written dst is removed so a
// failed copy never looks like a usable snapshot.
func CopyDir(src, dst string) (err error) {
	if !IsDir(src) {
		return fmt.Errorf("copy %s: not a directory", src)
	}
	if _, statErr := os.Lstat(dst); statErr == nil {
		return fmt.Errorf("copy to %s: %w", dst, ErrExists)
	}

	defer func() {
		if err != nil {
			_ = os.RemoveAll(dst)
		}
	}()

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type()&fs.ModeSymlink != 0:
			return nil
		default:
			return CopyFile(path, target)
		}
	})
}
