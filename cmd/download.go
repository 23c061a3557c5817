package cmd

import (
	"bufio"
	"fmt"
	"os"

	"weidu-driver/internal/download"
	"weidu-driver/internal/manifest"
	"weidu-driver/internal/resolve"

	"github.com/pterm/pterm"
)

// stdinURLPrompter asks the user for a download URL on stdout/stdin when
// a component's source directory cannot be found under any configured
// root (spec §4.2).
type stdinURLPrompter struct{}

func (stdinURLPrompter) PromptURL(component manifest.Component) (string, error) {
	pterm.Info.Printfln("could not find a source directory for %q; enter a URL to download it from (blank to skip):", component.PackageName)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading download url: %w", err)
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}

// buildDownloader returns the Downloader to inject into the Run
// Controller when --download is enabled, or nil otherwise.
func buildDownloader(enabled bool) resolve.Downloader {
	if !enabled {
		return nil
	}
	return download.NewHTTPDownloader(stdinURLPrompter{}, nil)
}
