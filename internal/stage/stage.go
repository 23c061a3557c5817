// Package stage implements Staging (spec §4.3): copying a resolved
// source directory into the game directory under the component's
// package name, honoring the overwrite policy.
package stage

import (
	"fmt"
	"path/filepath"

	"weidu-driver/internal/fsutil"
	"weidu-driver/internal/manifest"
)

// StagingError reports that a component's source directory could not be
// placed into the game directory.
type StagingError struct {
	Component manifest.Component
	Dest      string
	Err       error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging %q into %q: %v", e.Component.PackageName, e.Dest, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }

// Component copies sourceDir into gameDir/component.PackageName. If the
// destination already exists and overwrite is false, the existing copy
// is left untouched and Component returns its path without copying
// anything again (spec §4.3: staging a component already present in the
// game directory is a no-op unless overwrite is requested). If overwrite
// is true, any existing copy is removed first.
func Component(component manifest.Component, sourceDir, gameDir string, overwrite bool) (string, error) {
	dest := filepath.Join(gameDir, component.PackageName)

	if fsutil.Exists(dest) {
		if !overwrite {
			return dest, nil
		}
		if err := fsutil.RemoveTree(dest); err != nil {
			return "", &StagingError{Component: component, Dest: dest, Err: err}
		}
	}

	if err := fsutil.CopyTree(sourceDir, dest); err != nil {
		return "", &StagingError{Component: component, Dest: dest, Err: err}
	}
	return dest, nil
}

// CloneGameDirectory produces a fresh copy of an already-staged game
// directory at dest, for install profiles that run more than one
// installer pass against independent copies of the same starting state
// (spec §6, EET's "generate_directory" option covering both stages).
func CloneGameDirectory(src, dest string) error {
	if fsutil.Exists(dest) {
		if err := fsutil.RemoveTree(dest); err != nil {
			return err
		}
	}
	return fsutil.CopyTree(src, dest)
}
