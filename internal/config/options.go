package config

import (
	"fmt"
	"path/filepath"
)

// LoggingKind selects one of the external installer's logging-mode
// selectors (spec §6).
type LoggingKind int

const (
	// LogExplicit writes to a named path, serializing as "--log <path>".
	// If path names a directory, the per-component filename
	// "<package_name>-<component_index>.log" is appended at invocation
	// time.
	LogExplicit LoggingKind = iota
	// LogAuto serializes as "--autolog".
	LogAuto
	// LogAppend serializes as "--logapp".
	LogAppend
	// LogExternal serializes as "--log-extern".
	LogExternal
)

// LoggingMode is one selector from Installer Options' logging-mode set.
type LoggingMode struct {
	Kind LoggingKind
	Path string // only meaningful for LogExplicit
}

// Args returns the argument-vector fragment for this logging mode, given
// the component this invocation installs. isDir reports whether Path
// names a directory at invocation time (used to decide whether to
// append the per-component log filename).
func (m LoggingMode) Args(packageName, componentIndex string, isDir bool) []string {
	switch m.Kind {
	case LogAuto:
		return []string{"--autolog"}
	case LogAppend:
		return []string{"--logapp"}
	case LogExternal:
		return []string{"--log-extern"}
	case LogExplicit:
		path := m.Path
		if isDir {
			path = filepath.Join(path, fmt.Sprintf("%s-%s.log", packageName, componentIndex))
		}
		return []string{"--log", path}
	default:
		return nil
	}
}

// Options carries everything an install run needs beyond the Parser
// Configuration: where the external installer binary lives, where to
// search for source directories, and the behavioral flags spec §3
// groups under "Installer Options".
type Options struct {
	InstallerPath string

	// SourceRoots is the ordered list of root directories C3 walks
	// looking for each component's package directory.
	SourceRoots []string

	UILanguage string
	// WalkDepth bounds the depth-first directory walk C3 performs under
	// each source root.
	WalkDepth int

	SkipInstalled       bool
	AbortOnWarnings     bool
	TimeoutSeconds      int
	LoggingModes        []LoggingMode
	StrictMatching      bool
	DownloadWhenMissing bool
	Overwrite           bool
	CheckLastInstalled  bool

	// TickMillis is the Supervisor's polling period; it is also the unit
	// in which the Output Parser counts idle ticks against
	// TimeoutSeconds.
	TickMillis int
}

// DefaultOptions returns conservative defaults: no source roots, a
// 1-second poll tick, and a 10-minute timeout budget in seconds.
func DefaultOptions() Options {
	return Options{
		UILanguage:     "0",
		WalkDepth:      4,
		TimeoutSeconds: 600,
		TickMillis:     1000,
		LoggingModes:   []LoggingMode{{Kind: LogAuto}},
	}
}
