package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Manifest is an ordered sequence of Component records. Order is the
// source file's line order and is semantically significant: later
// components may depend on earlier ones having already been installed.
type Manifest struct {
	Components []Component
}

// Read parses r line by line into a Manifest, skipping blank lines and
// "//" comments. It fails fast on the first malformed line.
func Read(r io.Reader) (*Manifest, error) {
	m := &Manifest{}

	scanner := bufio.NewScanner(r)
	// Manifest lines (especially the descr tail) can be long; give the
	// scanner generous headroom over the default 64KiB token limit.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if isSkippable(line) {
			continue
		}
		c, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		m.Components = append(m.Components, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return m, nil
}

// ReadFile opens path and parses it with Read. A missing file is
// reported as-is; callers that want "missing means empty" behavior
// (e.g. the installed manifest in find_mods) must handle os.IsNotExist
// themselves.
func ReadFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// readFileBestEffort reads path, returning an empty Manifest (never an
// error) if the file cannot be read or parsed. Used for the installed
// manifest in FindMods per spec §4.1: "best-effort: if I cannot be read,
// treat as empty".
func readFileBestEffort(path string) *Manifest {
	m, err := ReadFile(path)
	if err != nil {
		return &Manifest{}
	}
	return m
}

// Retain keeps only the components for which keep returns true,
// preserving order, mutating the Manifest in place.
func (m *Manifest) Retain(keep func(Component) bool) {
	out := m.Components[:0]
	for _, c := range m.Components {
		if keep(c) {
			out = append(out, c)
		}
	}
	m.Components = out
}

// Last returns the last component in the manifest, or false if empty.
func (m *Manifest) Last() (Component, bool) {
	if len(m.Components) == 0 {
		return Component{}, false
	}
	return m.Components[len(m.Components)-1], true
}

// FindMods returns the order-preserving subsequence of target whose
// components are not present in the installed manifest at
// installedLogPath (best-effort: a missing/unreadable installed log is
// treated as empty). strict selects StrictEqual over Equal for the
// membership test; this is the only place the two equality relations
// are consumed.
func FindMods(target *Manifest, installedLogPath string, strict bool) (*Manifest, error) {
	installed := readFileBestEffort(installedLogPath)

	matches := func(c Component) bool {
		for _, i := range installed.Components {
			if strict {
				if c.StrictEqual(i) {
					return true
				}
			} else if c.Equal(i) {
				return true
			}
		}
		return false
	}

	out := &Manifest{Components: make([]Component, 0, len(target.Components))}
	for _, c := range target.Components {
		if !matches(c) {
			out.Components = append(out.Components, c)
		}
	}
	return out, nil
}
