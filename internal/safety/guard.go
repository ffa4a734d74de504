// Package safety decides whether a delete or rename target may be touched.
// A target must sit strictly below the scanned root, outside the protected
// system directories, and must not be reached through a directory link that
// leads out of the root.
package safety

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath   = errors.New("invalid path")
	ErrProtectedPath = errors.New("protected path")
	ErrOutsideRoot   = errors.New("outside scan root")
	ErrTraversal     = errors.New("path traversal detected")
	ErrSymlinkEscape = errors.New("symlink escape detected")
)

// systemDirs are always protected. "/" protects only itself.
var systemDirs = []string{
	"/",
	"/bin",
	"/boot",
	"/dev",
	"/etc",
	"/lib",
	"/lib64",
	"/proc",
	"/sbin",
	"/sys",
	"/usr",
}

// Guard satisfies registry.Guard.
type Guard struct {
	protected []string
}

// NewGuard returns a Guard protecting the system directories plus extra.
// Blank and unresolvable extras are ignored.
func NewGuard(extra []string) *Guard {
	g := &Guard{protected: append([]string(nil), systemDirs...)}
	for _, p := range extra {
		if abs, err := absClean(p); err == nil {
			g.protected = append(g.protected, abs)
		}
	}
	return g
}

// Protected returns a copy of the protected directory list.
func (g *Guard) Protected() []string {
	return append([]string(nil), g.protected...)
}

// ValidateTarget returns nil when path may be deleted or renamed as part of
// a batch over root. Errors wrap one of the package sentinels.
func (g *Guard) ValidateTarget(path, root string) error {
	if hasDotDot(path) {
		return fmt.Errorf("%w: %s", ErrTraversal, path)
	}
	target, err := absClean(path)
	if err != nil {
		return err
	}
	base, err := absClean(root)
	if err != nil {
		return err
	}

	for _, check := range []func(target, root string) error{
		g.checkProtected,
		checkBelowRoot,
		checkParentLinks,
	} {
		if err := check(target, base); err != nil {
			return err
		}
	}
	return nil
}

// IsProtected reports whether path is one of the protected directories or
// lies inside one.
func (g *Guard) IsProtected(path string) bool {
	p := filepath.Clean(path)
	for _, prot := range g.protected {
		if prot == string(os.PathSeparator) {
			if p == prot {
				return true
			}
			continue
		}
		if within(p, prot) {
			return true
		}
	}
	return false
}

func (g *Guard) checkProtected(target, _ string) error {
	if g.IsProtected(target) {
		return fmt.Errorf("%w: %s", ErrProtectedPath, target)
	}
	return nil
}

// The root itself is never a valid target.
func checkBelowRoot(target, root string) error {
	if target == root || !within(target, root) {
		return fmt.Errorf("%w: %s not below %s", ErrOutsideRoot, target, root)
	}
	return nil
}

// checkParentLinks resolves the directory holding target. The target may be
// a link itself; removing or renaming a link never touches what it points to.
func checkParentLinks(target, root string) error {
	resolved, err := filepath.EvalSymlinks(filepath.Dir(target))
	if err != nil {
		if os.IsNotExist(err) {
			// the filesystem call reports it
			return nil
		}
		return fmt.Errorf("resolve %s: %w", filepath.Dir(target), err)
	}

	if within(resolved, root) {
		return nil
	}
	if realRoot, err := filepath.EvalSymlinks(root); err == nil && within(resolved, realRoot) {
		return nil
	}
	return fmt.Errorf("%w: %s resolves to %s", ErrSymlinkEscape, target, resolved)
}

func absClean(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	return filepath.Clean(abs), nil
}

func hasDotDot(raw string) bool {
	for _, part := range strings.Split(filepath.ToSlash(raw), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

// within reports whether path equals dir or lies below it.
func within(path, dir string) bool {
	if dir == string(os.PathSeparator) {
		return strings.HasPrefix(path, dir)
	}
	return path == dir || strings.HasPrefix(path, dir+string(os.PathSeparator))
}
