// Package resolve implements the Source Resolver (spec §4.2): given a
// manifest Component, find a directory on disk that contains its
// package-definition file and whose own name matches the package
// directory name.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"weidu-driver/internal/manifest"
)

// MissingSourceError reports that no root directory yielded a source
// folder for component, and no download collaborator could supply one.
type MissingSourceError struct {
	Component manifest.Component
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("no source directory found for package %q (%s)", e.Component.PackageName, e.Component.PackageFile)
}

// Downloader is the external collaborator spec §4.2 allows the resolver
// to fall back on when download_when_missing is set: "prompt the user
// for a URL and stage a remote archive". Archive fetching itself is out
// of scope (spec §1); production code wires a concrete implementation,
// tests can substitute a stub or omit it entirely.
type Downloader interface {
	Fetch(component manifest.Component, intoRoot string) (string, error)
}

// Resolve walks roots in order, depth-first and symlink-following within
// each, looking for a directory D such that D contains (case
// insensitively) a file named component.PackageFile and D's final path
// segment case-insensitively equals component.PackageName. The first
// match in root order wins. If no root yields a match and downloader is
// non-nil, it is given one chance to produce a directory; otherwise
// Resolve fails with MissingSourceError.
func Resolve(component manifest.Component, roots []string, depth int, downloader Downloader) (string, error) {
	for _, root := range roots {
		if dir, ok := findInRoot(root, component, depth); ok {
			return dir, nil
		}
	}

	if downloader != nil && len(roots) > 0 {
		if dir, err := downloader.Fetch(component, roots[0]); err == nil {
			return dir, nil
		}
	}

	return "", &MissingSourceError{Component: component}
}

// FindAllMods walks every root the same way Resolve does, but instead of
// looking for one specific component it collects every directory that
// contains a ".tp2" package-definition file (case insensitive), for the
// scan subcommand's language/component introspection (spec §6, recovered
// from the original's scan.rs/scan_langauges.rs "find_all_mods").
func FindAllMods(roots []string, depth int) []string {
	var found []string
	seen := make(map[string]bool)

	var walk func(dir string, curDepth int)
	walk = func(dir string, curDepth int) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}

		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if strings.EqualFold(filepath.Ext(e.Name()), ".tp2") {
				if !seen[dir] {
					seen[dir] = true
					found = append(found, dir)
				}
				break
			}
		}

		if curDepth >= depth {
			return
		}

		for _, e := range entries {
			childPath := filepath.Join(dir, e.Name())
			isDir := e.IsDir()
			if e.Type()&os.ModeSymlink != 0 {
				info, statErr := os.Stat(childPath)
				if statErr != nil || !info.IsDir() {
					continue
				}
				isDir = true
			}
			if isDir {
				walk(childPath, curDepth+1)
			}
		}
	}

	for _, root := range roots {
		walk(root, 0)
	}
	return found
}

// findInRoot performs the depth-first, symlink-following walk described
// on Resolve, bounded to maxDepth levels below root.
func findInRoot(root string, component manifest.Component, maxDepth int) (string, bool) {
	var found string
	var walk func(dir string, depth int) bool
	walk = func(dir string, depth int) bool {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return false
		}

		if strings.EqualFold(filepath.Base(dir), component.PackageName) {
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				if strings.EqualFold(e.Name(), component.PackageFile) {
					found = dir
					return true
				}
			}
		}

		if depth >= maxDepth {
			return false
		}

		for _, e := range entries {
			childPath := filepath.Join(dir, e.Name())
			isDir := e.IsDir()
			if e.Type()&os.ModeSymlink != 0 {
				info, statErr := os.Stat(childPath)
				if statErr != nil || !info.IsDir() {
					continue
				}
				isDir = true
			}
			if !isDir {
				continue
			}
			if walk(childPath, depth+1) {
				return true
			}
		}
		return false
	}

	if walk(root, 0) {
		return found, true
	}
	return "", false
}
