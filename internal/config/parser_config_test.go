package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultParserConfigListsAreNonEmpty(t *testing.T) {
	cfg := DefaultParserConfig()
	lists := map[string][]string{
		"in_progress_words":   cfg.InProgressWords,
		"useful_status_words": cfg.UsefulStatusWords,
		"choice_words":        cfg.ChoiceWords,
		"choice_phrases":      cfg.ChoicePhrases,
		"warning_phrases":     cfg.WarningPhrases,
		"error_phrases":       cfg.ErrorPhrases,
		"finished_phrases":    cfg.FinishedPhrases,
	}
	for name, list := range lists {
		if len(list) == 0 {
			t.Errorf("default %s should be non-empty", name)
		}
	}
}

func TestLoadParserConfigMissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parser.toml")

	cfg, err := LoadParserConfig(path)
	if err != nil {
		t.Fatalf("LoadParserConfig() returned unexpected error: %v", err)
	}
	if len(cfg.FinishedPhrases) == 0 {
		t.Error("expected defaults to be returned when file is missing")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected defaults to be persisted to %s: %v", path, err)
	}
}

func TestLoadParserConfigRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parser.toml")

	custom := DefaultParserConfig()
	custom.ChoiceWords = []string{"pick"}
	if err := SaveParserConfig(path, custom); err != nil {
		t.Fatalf("SaveParserConfig() returned unexpected error: %v", err)
	}

	loaded, err := LoadParserConfig(path)
	if err != nil {
		t.Fatalf("LoadParserConfig() returned unexpected error: %v", err)
	}
	if len(loaded.ChoiceWords) != 1 || loaded.ChoiceWords[0] != "pick" {
		t.Errorf("expected persisted choice_words to round trip, got %v", loaded.ChoiceWords)
	}
}

func TestLoadParserConfigDiscardsVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parser.toml")

	stale := DefaultParserConfig()
	stale.ChoiceWords = []string{"stale-only-word"}
	stale.Metadata.ToolVersion = "0-ancient"
	if err := SaveParserConfig(path, stale); err != nil {
		t.Fatalf("SaveParserConfig() returned unexpected error: %v", err)
	}

	loaded, err := LoadParserConfig(path)
	if err != nil {
		t.Fatalf("LoadParserConfig() returned unexpected error: %v", err)
	}
	for _, w := range loaded.ChoiceWords {
		if w == "stale-only-word" {
			t.Fatal("expected version-mismatched config to be discarded")
		}
	}
	if loaded.Metadata.ToolVersion != toolVersion {
		t.Errorf("expected rewritten config to stamp current tool version, got %q", loaded.Metadata.ToolVersion)
	}
}

func TestLoggingModeArgs(t *testing.T) {
	tests := []struct {
		name  string
		mode  LoggingMode
		isDir bool
		want  []string
	}{
		{"auto", LoggingMode{Kind: LogAuto}, false, []string{"--autolog"}},
		{"append", LoggingMode{Kind: LogAppend}, false, []string{"--logapp"}},
		{"external", LoggingMode{Kind: LogExternal}, false, []string{"--log-extern"}},
		{"explicit file", LoggingMode{Kind: LogExplicit, Path: "/tmp/my.log"}, false, []string{"--log", "/tmp/my.log"}},
		{"explicit dir", LoggingMode{Kind: LogExplicit, Path: "/tmp/logs"}, true, []string{"--log", "/tmp/logs/foo-100.log"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.mode.Args("foo", "100", tt.isDir)
			if len(got) != len(tt.want) {
				t.Fatalf("Args() = %v; want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Args()[%d] = %q; want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
