// Package download provides the resolve.Downloader the Source Resolver
// falls back on when download_when_missing is set and a component's
// source directory cannot be found under any configured root.
//
// Archive fetching and extraction is explicitly out of scope (spec §1);
// this package only wires the "fetch one URL to disk with a progress
// bar" mechanics, in the teacher's style, and an injectable Extractor
// seam for whatever archive format the URL serves. Without an Extractor
// configured, Fetch downloads the archive and reports that it cannot
// unpack it — callers operating fully out of scope can still observe the
// download succeeded.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"weidu-driver/internal/manifest"

	"github.com/pterm/pterm"
)

// Extractor unpacks an archive at archivePath into destDir, returning
// the directory that holds the mod's package-definition file.
type Extractor interface {
	Extract(archivePath, destDir string) (string, error)
}

// URLPrompter asks the user for the URL to fetch a missing component
// from (spec §4.2: "prompt the user for a URL").
type URLPrompter interface {
	PromptURL(component manifest.Component) (string, error)
}

// HTTPDownloader implements resolve.Downloader by prompting for a URL,
// fetching it with progress reporting, and handing the result to an
// Extractor.
type HTTPDownloader struct {
	Client    *http.Client
	Prompter  URLPrompter
	Extractor Extractor
}

// NewHTTPDownloader returns a HTTPDownloader with sane client timeouts,
// matching the teacher's Updater.httpClient construction.
func NewHTTPDownloader(prompter URLPrompter, extractor Extractor) *HTTPDownloader {
	return &HTTPDownloader{
		Client: &http.Client{
			Timeout: 5 * time.Minute,
		},
		Prompter:  prompter,
		Extractor: extractor,
	}
}

// Fetch implements resolve.Downloader.
func (d *HTTPDownloader) Fetch(component manifest.Component, intoRoot string) (string, error) {
	if d.Prompter == nil {
		return "", fmt.Errorf("download requested for %q but no URL prompter is configured", component.PackageName)
	}
	url, err := d.Prompter.PromptURL(component)
	if err != nil {
		return "", fmt.Errorf("prompting for download url: %w", err)
	}

	archivePath := filepath.Join(intoRoot, component.PackageName+".archive")
	if err := d.downloadFile(archivePath, url); err != nil {
		return "", err
	}

	if d.Extractor == nil {
		return "", fmt.Errorf("downloaded %q but no extractor is configured to unpack it", archivePath)
	}
	dir, err := d.Extractor.Extract(archivePath, intoRoot)
	if err != nil {
		return "", fmt.Errorf("extracting %q: %w", archivePath, err)
	}
	return dir, nil
}

// downloadFile streams url to targetPath, reporting progress through a
// pterm progress bar exactly as the teacher's downloadFile does, minus
// the Factorio-specific SHA-1 validation step.
func (d *HTTPDownloader) downloadFile(targetPath, url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating download request: %w", err)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("executing download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	var progress *pterm.ProgressbarPrinter
	if !pterm.RawOutput {
		p, _ := pterm.DefaultProgressbar.WithTotal(100).WithTitle("downloading " + filepath.Base(targetPath)).Start()
		progress = p
	}

	tmpPath := targetPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", tmpPath, err)
	}
	defer func() { _ = out.Close() }()

	counter := &writeCounter{Total: uint64(resp.ContentLength), Progress: progress}
	if _, err := io.Copy(out, io.TeeReader(resp.Body, counter)); err != nil {
		if progress != nil {
			_, _ = progress.Stop()
		}
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing download data: %w", err)
	}
	if progress != nil {
		_, _ = progress.Stop()
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("flushing to disk %s: %w", tmpPath, err)
	}

	return os.Rename(tmpPath, targetPath)
}

// writeCounter wraps an io.Writer to track download progress and update
// a pterm ProgressbarPrinter with the current completion percentage.
type writeCounter struct {
	Total    uint64
	Current  uint64
	Progress *pterm.ProgressbarPrinter
}

func (wc *writeCounter) Write(p []byte) (int, error) {
	n := len(p)
	wc.Current += uint64(n)
	if wc.Total > 0 && wc.Progress != nil {
		pct := int(float64(wc.Current) / float64(wc.Total) * 100)
		if pct > 100 {
			pct = 100
		}
		wc.Progress.Add(pct - wc.Progress.Current)
	}
	return n, nil
}
