package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"weidu-driver/internal/config"
	"weidu-driver/internal/manifest"
)

func mkSource(t *testing.T, root string, component manifest.Component, installerBody string) {
	t.Helper()
	dir := filepath.Join(root, component.PackageName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, component.PackageFile), []byte("tp2"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func scriptInstaller(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "installer.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestControllerRunsSequenceAndStagesEachComponent(t *testing.T) {
	sourceRoot := t.TempDir()
	c1 := manifest.Component{PackageFile: "mod1.tp2", PackageName: "mod1", LanguageIndex: "0", ComponentIndex: "0", ComponentName: "First"}
	c2 := manifest.Component{PackageFile: "mod2.tp2", PackageName: "mod2", LanguageIndex: "0", ComponentIndex: "0", ComponentName: "Second"}
	mkSource(t, sourceRoot, c1, "")
	mkSource(t, sourceRoot, c2, "")

	installer := scriptInstaller(t, `echo "SUCCESSFULLY INSTALLED      ok"`)
	opts := config.DefaultOptions()
	opts.InstallerPath = installer
	opts.SourceRoots = []string{sourceRoot}
	opts.TickMillis = 5
	opts.TimeoutSeconds = 1

	ctrl := NewController(opts, config.DefaultParserConfig(), nil, nil)
	target := &manifest.Manifest{Components: []manifest.Component{c1, c2}}

	gameDir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := ctrl.Run(ctx, target, filepath.Join(gameDir, "weidu.log"), gameDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(report.Outcomes))
	}
	for _, o := range report.Outcomes {
		if o.Err != nil {
			t.Errorf("component %s failed: %v", o.Component.PackageName, o.Err)
		}
	}
	if _, err := os.Stat(filepath.Join(gameDir, "mod1", "mod1.tp2")); err != nil {
		t.Errorf("expected mod1 staged: %v", err)
	}
	if _, err := os.Stat(filepath.Join(gameDir, "mod2", "mod2.tp2")); err != nil {
		t.Errorf("expected mod2 staged: %v", err)
	}
}

func TestControllerSkipsAlreadyInstalledComponents(t *testing.T) {
	sourceRoot := t.TempDir()
	c1 := manifest.Component{PackageFile: "mod1.tp2", PackageName: "mod1", LanguageIndex: "0", ComponentIndex: "0", ComponentName: "First"}
	c2 := manifest.Component{PackageFile: "mod2.tp2", PackageName: "mod2", LanguageIndex: "0", ComponentIndex: "0", ComponentName: "Second"}
	mkSource(t, sourceRoot, c2, "")

	installer := scriptInstaller(t, `echo "SUCCESSFULLY INSTALLED      ok"`)
	opts := config.DefaultOptions()
	opts.InstallerPath = installer
	opts.SourceRoots = []string{sourceRoot}
	opts.SkipInstalled = true
	opts.TickMillis = 5
	opts.TimeoutSeconds = 1

	ctrl := NewController(opts, config.DefaultParserConfig(), nil, nil)
	target := &manifest.Manifest{Components: []manifest.Component{c1, c2}}

	gameDir := t.TempDir()
	installedLog := filepath.Join(t.TempDir(), "weidu.log")
	if err := os.WriteFile(installedLog, []byte(c1.String()+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := ctrl.Run(ctx, target, installedLog, gameDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Outcomes) != 1 {
		t.Fatalf("expected only the uninstalled component to run, got %d outcomes", len(report.Outcomes))
	}
	if report.Outcomes[0].Component.PackageName != "mod2" {
		t.Errorf("expected mod2 to run, got %s", report.Outcomes[0].Component.PackageName)
	}
}

func TestControllerAbortsOnMissingSource(t *testing.T) {
	sourceRoot := t.TempDir()
	c1 := manifest.Component{PackageFile: "missing.tp2", PackageName: "missing", LanguageIndex: "0", ComponentIndex: "0"}

	opts := config.DefaultOptions()
	opts.InstallerPath = scriptInstaller(t, `echo ok`)
	opts.SourceRoots = []string{sourceRoot}

	ctrl := NewController(opts, config.DefaultParserConfig(), nil, nil)
	target := &manifest.Manifest{Components: []manifest.Component{c1}}

	gameDir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := ctrl.Run(ctx, target, filepath.Join(gameDir, "weidu.log"), gameDir)
	if err == nil {
		t.Fatal("expected an error for a missing source directory")
	}
	if !report.Aborted {
		t.Error("expected report to be marked aborted")
	}
}

func TestControllerAbortsOnWarningsWhenConfigured(t *testing.T) {
	sourceRoot := t.TempDir()
	c1 := manifest.Component{PackageFile: "mod1.tp2", PackageName: "mod1", LanguageIndex: "0", ComponentIndex: "0"}
	mkSource(t, sourceRoot, c1, "")

	opts := config.DefaultOptions()
	opts.InstallerPath = scriptInstaller(t, `echo "INSTALLED WITH WARNINGS   something"`)
	opts.SourceRoots = []string{sourceRoot}
	opts.AbortOnWarnings = true
	opts.TickMillis = 5
	opts.TimeoutSeconds = 1

	ctrl := NewController(opts, config.DefaultParserConfig(), nil, nil)
	target := &manifest.Manifest{Components: []manifest.Component{c1}}

	gameDir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := ctrl.Run(ctx, target, filepath.Join(gameDir, "weidu.log"), gameDir)
	if err == nil {
		t.Fatal("expected abort_on_warnings to surface an error")
	}
}

func TestNormalProfileClonesGameDirectoryFirst(t *testing.T) {
	sourceRoot := t.TempDir()
	c1 := manifest.Component{PackageFile: "mod1.tp2", PackageName: "mod1", LanguageIndex: "0", ComponentIndex: "0"}
	mkSource(t, sourceRoot, c1, "")

	opts := config.DefaultOptions()
	opts.InstallerPath = scriptInstaller(t, `echo "SUCCESSFULLY INSTALLED      ok"`)
	opts.SourceRoots = []string{sourceRoot}
	opts.TickMillis = 5
	opts.TimeoutSeconds = 1

	ctrl := NewController(opts, config.DefaultParserConfig(), nil, nil)
	target := &manifest.Manifest{Components: []manifest.Component{c1}}

	pristine := t.TempDir()
	if err := os.WriteFile(filepath.Join(pristine, "chitin.key"), []byte("game"), 0o644); err != nil {
		t.Fatal(err)
	}
	gameDir := filepath.Join(t.TempDir(), "disposable")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := ctrl.NormalProfile(ctx, target, filepath.Join(gameDir, "weidu.log"), gameDir, pristine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(gameDir, "chitin.key")); err != nil {
		t.Errorf("expected cloned game directory contents, got %v", err)
	}
}

func TestEETProfileRunsBothStagesAndAutoAnswersSentinel(t *testing.T) {
	sourceRoot := t.TempDir()
	eetComponent := manifest.Component{PackageFile: "eet.tp2", PackageName: "eet", LanguageIndex: "0", ComponentIndex: "0"}
	eetEndComponent := manifest.Component{PackageFile: "eetend.tp2", PackageName: "eetend", LanguageIndex: "0", ComponentIndex: "0"}
	mkSource(t, sourceRoot, eetComponent, "")
	mkSource(t, sourceRoot, eetEndComponent, "")

	installer := scriptInstaller(t, `
if [ "$1" = "eetend/eetend.tp2" ]; then
  echo "Enter the full path to your BG:EE+SoD installation:"
  read ans
  echo "SUCCESSFULLY INSTALLED      EET End ($ans)"
else
  echo "SUCCESSFULLY INSTALLED      EET transfer"
fi
`)
	opts := config.DefaultOptions()
	opts.InstallerPath = installer
	opts.SourceRoots = []string{sourceRoot}
	opts.TickMillis = 5
	opts.TimeoutSeconds = 1

	ctrl := NewController(opts, config.DefaultParserConfig(), nil, nil)
	firstTarget := &manifest.Manifest{Components: []manifest.Component{eetComponent}}
	secondTarget := &manifest.Manifest{Components: []manifest.Component{eetEndComponent}}

	firstGameDir := t.TempDir()
	secondGameDir := t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := ctrl.EETProfile(
		ctx,
		firstTarget, secondTarget,
		filepath.Join(firstGameDir, "weidu.log"), filepath.Join(secondGameDir, "weidu.log"),
		firstGameDir, secondGameDir,
		[2]string{"", ""},
		"/abs/path/to/bg1ee",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.EETFirst.Outcomes) != 1 || report.EETFirst.Outcomes[0].Err != nil {
		t.Errorf("first stage outcomes: %+v", report.EETFirst.Outcomes)
	}
	if len(report.EETSecond.Outcomes) != 1 || report.EETSecond.Outcomes[0].Err != nil {
		t.Errorf("second stage outcomes: %+v", report.EETSecond.Outcomes)
	}
}
