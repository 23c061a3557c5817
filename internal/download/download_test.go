package download

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"weidu-driver/internal/manifest"
)

type stubURLPrompter struct {
	url string
	err error
}

func (s stubURLPrompter) PromptURL(manifest.Component) (string, error) {
	return s.url, s.err
}

type stubExtractor struct {
	dir string
	err error
}

func (s stubExtractor) Extract(archivePath, destDir string) (string, error) {
	return s.dir, s.err
}

func TestHTTPDownloaderFetchesAndExtracts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("archive-bytes"))
	}))
	defer srv.Close()

	intoRoot := t.TempDir()
	extractedDir := filepath.Join(intoRoot, "extracted")
	if err := os.MkdirAll(extractedDir, 0o755); err != nil {
		t.Fatal(err)
	}

	d := NewHTTPDownloader(stubURLPrompter{url: srv.URL}, stubExtractor{dir: extractedDir})
	component := manifest.Component{PackageName: "TobEx", PackageFile: "TobEx.TP2"}

	got, err := d.Fetch(component, intoRoot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != extractedDir {
		t.Errorf("got %q; want %q", got, extractedDir)
	}
}

func TestHTTPDownloaderFailsWithoutExtractor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("archive-bytes"))
	}))
	defer srv.Close()

	d := NewHTTPDownloader(stubURLPrompter{url: srv.URL}, nil)
	component := manifest.Component{PackageName: "TobEx", PackageFile: "TobEx.TP2"}

	_, err := d.Fetch(component, t.TempDir())
	if err == nil {
		t.Fatal("expected an error when no extractor is configured")
	}
}

func TestHTTPDownloaderFailsWithoutPrompter(t *testing.T) {
	d := &HTTPDownloader{}
	component := manifest.Component{PackageName: "TobEx", PackageFile: "TobEx.TP2"}

	_, err := d.Fetch(component, t.TempDir())
	if err == nil {
		t.Fatal("expected an error when no URL prompter is configured")
	}
}
