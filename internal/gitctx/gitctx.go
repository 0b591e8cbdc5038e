// Package gitctx inspects the git working tree that holds the site content,
// so destructive jobs can refuse to run over uncommitted work.
package gitctx

import (
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// Change is one path with uncommitted changes.
type Change struct {
	Path     string `json:"path"`
	Staging  string `json:"staging"`
	Worktree string `json:"worktree"`
}

// Dirty lists uncommitted (staged, unstaged or untracked) files under any of
// paths, relative to the repository root and sorted. It returns nil when
// target is not inside a git repository.
func Dirty(target string, paths ...string) ([]Change, error) {
	repo, err := git.PlainOpenWithOptions(target, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, nil
	}
	st, err := wt.Status()
	if err != nil {
		return nil, err
	}

	root := resolve(wt.Filesystem.Root())
	var scopes []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(root, resolve(abs))
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		scopes = append(scopes, filepath.ToSlash(rel))
	}
	if len(paths) > 0 && len(scopes) == 0 {
		return nil, nil
	}

	var out []Change
	for path, s := range st {
		if s.Staging == git.Unmodified && s.Worktree == git.Unmodified {
			continue
		}
		path = filepath.ToSlash(path)
		if len(paths) > 0 && !within(path, scopes) {
			continue
		}
		out = append(out, Change{Path: path, Staging: code(s.Staging), Worktree: code(s.Worktree)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func within(path string, scopes []string) bool {
	for _, s := range scopes {
		if s == "." || path == s || strings.HasPrefix(path, s+"/") {
			return true
		}
	}
	return false
}

// resolve follows symlinks so temp dirs like /var -> /private/var compare equal.
func resolve(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	return p
}

func code(c git.StatusCode) string {
	if c == git.Unmodified {
		return " "
	}
	return string(c)
}
