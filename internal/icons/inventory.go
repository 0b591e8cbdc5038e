// Package icons finds byte-identical icon files, points every content
// reference at one canonical copy and removes the rest.
package icons

import (
	"crypto/md5" // #nosec G501 -- content fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/fulmenhq/navkit/internal/content"
)

// Inventory maps icon files to content hashes and back.
type Inventory struct {
	Dir    string
	ByHash map[string][]string
	ByFile map[string]string
}

// HashFile returns the hex MD5 of the file's full contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- icon directory is operator-configured
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := md5.New() // #nosec G401
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// BuildInventory hashes every file directly in dir that matches one of the
// glob patterns.
func BuildInventory(dir string, patterns []string) (*Inventory, error) {
	files, err := content.List(dir, patterns...)
	if err != nil {
		return nil, err
	}
	inv := &Inventory{
		Dir:    dir,
		ByHash: make(map[string][]string),
		ByFile: make(map[string]string, len(files)),
	}
	for _, path := range files {
		sum, err := HashFile(path)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", path, err)
		}
		inv.Add(filepath.Base(path), sum)
	}
	return inv, nil
}

// Add records name under sum, keeping each hash group sorted.
func (inv *Inventory) Add(name, sum string) {
	if old, ok := inv.ByFile[name]; ok {
		if old == sum {
			return
		}
		inv.ByHash[old] = remove(inv.ByHash[old], name)
		if len(inv.ByHash[old]) == 0 {
			delete(inv.ByHash, old)
		}
	}
	inv.ByFile[name] = sum
	group := append(inv.ByHash[sum], name)
	sort.Strings(group)
	inv.ByHash[sum] = group
}

// Files lists every inventoried filename, sorted.
func (inv *Inventory) Files() []string {
	out := make([]string, 0, len(inv.ByFile))
	for name := range inv.ByFile {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Duplicates returns the hash groups holding more than one file.
func (inv *Inventory) Duplicates() map[string][]string {
	out := make(map[string][]string)
	for sum, files := range inv.ByHash {
		if len(files) > 1 {
			out[sum] = append([]string(nil), files...)
		}
	}
	return out
}

func remove(list []string, name string) []string {
	out := list[:0]
	for _, s := range list {
		if s != name {
			out = append(out, s)
		}
	}
	return out
}
