// Package manifest parses the external installer's line-oriented log
// format into structured Component records and diffs manifests against
// each other.
package manifest

import (
	"fmt"
	"regexp"
	"strings"
)

// Component is an immutable value parsed from one manifest line. Equality
// comes in two flavors: Equal (loose, used for skip-installed filtering)
// and StrictEqual (loose plus the descriptive fields).
type Component struct {
	PackageFile    string
	PackageName    string
	LanguageIndex  string
	ComponentIndex string
	ComponentName  string
	SubComponent   string
	Version        string
}

// Equal is the loose equality relation: package file, package name,
// language index and component index, all case-folded.
func (c Component) Equal(other Component) bool {
	return strings.EqualFold(c.PackageFile, other.PackageFile) &&
		strings.EqualFold(c.PackageName, other.PackageName) &&
		strings.EqualFold(c.LanguageIndex, other.LanguageIndex) &&
		strings.EqualFold(c.ComponentIndex, other.ComponentIndex)
}

// StrictEqual additionally requires the descriptive fields to match
// verbatim. StrictEqual implies Equal.
func (c Component) StrictEqual(other Component) bool {
	return c.Equal(other) &&
		c.ComponentName == other.ComponentName &&
		c.SubComponent == other.SubComponent &&
		c.Version == other.Version
}

// String renders the canonical manifest line for this component, always
// using '/' as the directory separator. ParseLine(c.String()) reproduces
// c whenever c.PackageName is already lower-case.
func (c Component) String() string {
	descr := c.ComponentName
	if c.SubComponent != "" {
		descr = fmt.Sprintf("%s -> %s", descr, c.SubComponent)
	}
	if c.Version != "" {
		descr = fmt.Sprintf("%s: %s", descr, c.Version)
	}
	return fmt.Sprintf("~%s/%s~ #%s #%s // %s", c.PackageName, c.PackageFile, c.LanguageIndex, c.ComponentIndex, descr)
}

// MalformedManifestLineError reports a manifest line that does not match
// the grammar in spec §4.1.
type MalformedManifestLineError struct {
	Line string
}

func (e *MalformedManifestLineError) Error() string {
	return fmt.Sprintf("malformed manifest line: %q", e.Line)
}

var langComponentRe = regexp.MustCompile(`^\s*#(\S+)\s+#(\S+)\s*$`)

// ParseLine decodes one non-blank, non-comment manifest line into a
// Component. The grammar is:
//
//	~<dir-sep><pkg>~ #<lang> #<comp> // <descr>[: <version>]
//
// where <dir-sep> is '/' or '\', and <descr> may contain " -> " to
// separate component_name from sub_component.
func ParseLine(line string) (Component, error) {
	malformed := func() (Component, error) {
		return Component{}, &MalformedManifestLineError{Line: line}
	}

	parts := strings.Split(line, "~")
	if len(parts) < 3 {
		return malformed()
	}

	installPath := parts[1]
	sep := "/"
	if strings.Contains(installPath, "\\") {
		sep = "\\"
	}
	segs := strings.Split(installPath, sep)
	if len(segs) < 2 {
		return malformed()
	}
	packageName := strings.ToLower(segs[0])
	packageFile := segs[len(segs)-1]

	rest := strings.Join(parts[2:], "~")
	beforeAfter := strings.SplitN(rest, "//", 2)
	if len(beforeAfter) < 2 {
		return malformed()
	}

	match := langComponentRe.FindStringSubmatch(beforeAfter[0])
	if match == nil {
		return malformed()
	}
	languageIndex := strings.TrimPrefix(match[1], "#")
	componentIndex := strings.TrimPrefix(match[2], "#")

	descrVersion := strings.SplitN(beforeAfter[1], ":", 2)
	nameSub := strings.SplitN(strings.TrimSpace(descrVersion[0]), "->", 2)
	componentName := strings.TrimSpace(nameSub[0])
	subComponent := ""
	if len(nameSub) > 1 {
		subComponent = strings.TrimSpace(nameSub[1])
	}
	version := ""
	if len(descrVersion) > 1 {
		version = strings.TrimSpace(descrVersion[1])
	}

	return Component{
		PackageFile:    packageFile,
		PackageName:    packageName,
		LanguageIndex:  languageIndex,
		ComponentIndex: componentIndex,
		ComponentName:  componentName,
		SubComponent:   subComponent,
		Version:        version,
	}, nil
}

// isSkippable reports whether a raw manifest line carries no component
// (blank or a "//" comment).
func isSkippable(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "//")
}
