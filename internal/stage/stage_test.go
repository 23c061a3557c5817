package stage

import (
	"os"
	"path/filepath"
	"testing"

	"weidu-driver/internal/manifest"
)

func TestComponentCopiesSourceIntoGameDir(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "TobEx.TP2"), []byte("tp2"), 0o644); err != nil {
		t.Fatal(err)
	}
	gameDir := t.TempDir()
	component := manifest.Component{PackageFile: "TobEx.TP2", PackageName: "TobEx"}

	dest, err := Component(component, src, gameDir, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest != filepath.Join(gameDir, "TobEx") {
		t.Errorf("dest = %q", dest)
	}
	if _, err := os.Stat(filepath.Join(dest, "TobEx.TP2")); err != nil {
		t.Errorf("expected copied file, got %v", err)
	}
}

func TestComponentIsNoOpWhenAlreadyPresentAndNotOverwriting(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "TobEx.TP2"), []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	gameDir := t.TempDir()
	component := manifest.Component{PackageFile: "TobEx.TP2", PackageName: "TobEx"}
	existing := filepath.Join(gameDir, "TobEx")
	if err := os.MkdirAll(existing, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(existing, "TobEx.TP2"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	dest, err := Component(component, src, gameDir, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dest, "TobEx.TP2"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "old" {
		t.Errorf("expected existing copy to be left alone, got %q", content)
	}
}

func TestComponentOverwritesWhenRequested(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "TobEx.TP2"), []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	gameDir := t.TempDir()
	component := manifest.Component{PackageFile: "TobEx.TP2", PackageName: "TobEx"}
	existing := filepath.Join(gameDir, "TobEx")
	if err := os.MkdirAll(existing, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(existing, "TobEx.TP2"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	dest, err := Component(component, src, gameDir, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dest, "TobEx.TP2"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "new" {
		t.Errorf("expected overwrite to replace content, got %q", content)
	}
}

func TestCloneGameDirectoryReplacesExistingDest(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "chitin.key"), []byte("fresh"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(dest, "chitin.key"), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CloneGameDirectory(src, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dest, "chitin.key"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "fresh" {
		t.Errorf("expected clone to overwrite dest contents, got %q", content)
	}
}
