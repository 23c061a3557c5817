package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"weidu-driver/internal/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "weidu-driver",
	Short: "Drives the WeiDU mod installer through a BG:EE install run",
	Long:  `An automation layer that sequences WeiDU component installs from a target manifest, answering prompts and classifying output on the way.`,
}

// Execute initializes the root command tree and delegates to Cobra for
// argument parsing and subcommand dispatch.
func Execute() {
	if !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != "" {
		pterm.DisableStyling()
		pterm.RawOutput = true
	}
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

// boolLiteral is a pflag.Value accepting the same boolean spellings as
// the original tool's CLI layer: true/t/yes/y/1 and false/f/no/n/0,
// case-insensitively, in addition to bare "--flag" meaning true.
type boolLiteral struct {
	value *bool
}

func newBoolLiteral(dest *bool, def bool) *boolLiteral {
	*dest = def
	return &boolLiteral{value: dest}
}

func (b *boolLiteral) String() string {
	if b.value == nil || !*b.value {
		return "false"
	}
	return "true"
}

func (b *boolLiteral) Set(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		*b.value = true
	case "false", "f", "no", "n", "0":
		*b.value = false
	default:
		return fmt.Errorf("invalid boolean literal %q (want one of true/t/yes/y/1/false/f/no/n/0)", s)
	}
	return nil
}

func (b *boolLiteral) Type() string { return "bool" }

// commonFlags are the Installer Options flags shared by normal, eet and
// every scan form (spec §3's "Installer Options", mirroring the
// original CLI's flattened Options struct).
type commonFlags struct {
	weiduBinary        string
	modDirectories     []string
	language           string
	depth              int
	skipInstalled      bool
	abortOnWarnings    bool
	timeoutSeconds     int
	weiduLogMode       []string
	strictMatching     bool
	download           bool
	overwrite          bool
	checkLastInstalled bool
	tickMillis         int
	parserConfigPath   string
}

func addCommonFlags(cmd *cobra.Command, f *commonFlags) {
	flags := cmd.Flags()
	flags.StringVarP(&f.weiduBinary, "weidu-binary", "w", "", "absolute path to the weidu binary")
	flags.StringSliceVarP(&f.modDirectories, "mod-directories", "m", []string{"."}, "comma-separated list of directories to search for mod sources")
	flags.StringVarP(&f.language, "language", "l", "0", "ui language index passed to the installer")
	flags.IntVarP(&f.depth, "depth", "d", 5, "depth to walk each mod directory")

	flags.VarP(newBoolLiteral(&f.skipInstalled, true), "skip-installed", "s", "skip components already present in the installed log")
	flags.Lookup("skip-installed").NoOptDefVal = "true"

	flags.VarP(newBoolLiteral(&f.abortOnWarnings, false), "abort-on-warnings", "a", "abort the run the first time a component finishes with warnings")
	flags.Lookup("abort-on-warnings").NoOptDefVal = "true"

	flags.IntVarP(&f.timeoutSeconds, "timeout", "t", 3600, "idle timeout per component, in seconds")
	flags.StringSliceVarP(&f.weiduLogMode, "weidu-log-mode", "u", []string{"autolog", "logapp", "log-extern"}, "weidu logging mode(s): autolog, logapp, log-extern, or \"log <path>\"")

	flags.VarP(newBoolLiteral(&f.strictMatching, false), "strict-matching", "x", "require descriptive fields to match when comparing against the installed log")
	flags.Lookup("strict-matching").NoOptDefVal = "true"

	flags.VarP(newBoolLiteral(&f.download, true), "download", "", "prompt for a download when a component's source directory is missing")
	flags.Lookup("download").NoOptDefVal = "true"

	flags.VarP(newBoolLiteral(&f.overwrite, false), "overwrite", "o", "force re-staging a component even if already present in the game directory")
	flags.Lookup("overwrite").NoOptDefVal = "true"

	flags.VarP(newBoolLiteral(&f.checkLastInstalled, true), "check-last-installed", "c", "verify the installed log's last entry matches the manifest's last entry after the run")
	flags.Lookup("check-last-installed").NoOptDefVal = "true"

	flags.IntVarP(&f.tickMillis, "tick", "i", 500, "supervisor poll interval in milliseconds")
	flags.StringVar(&f.parserConfigPath, "parser-config", defaultParserConfigPath(), "path to the persisted parser configuration TOML file")
}

func defaultParserConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "parser-config.toml"
	}
	return filepath.Join(dir, "weidu-driver", "parser-config.toml")
}

// buildOptions turns commonFlags into an Options value, resolving the
// weidu binary from PATH when unset.
func (f *commonFlags) buildOptions() (config.Options, error) {
	binary := f.weiduBinary
	if binary == "" {
		found, err := findWeiduOnPath()
		if err != nil {
			return config.Options{}, err
		}
		binary = found
	}

	modes, err := parseLoggingModes(f.weiduLogMode)
	if err != nil {
		return config.Options{}, err
	}

	opts := config.DefaultOptions()
	opts.InstallerPath = binary
	opts.SourceRoots = f.modDirectories
	opts.UILanguage = f.language
	opts.WalkDepth = f.depth
	opts.SkipInstalled = f.skipInstalled
	opts.AbortOnWarnings = f.abortOnWarnings
	opts.TimeoutSeconds = f.timeoutSeconds
	opts.LoggingModes = modes
	opts.StrictMatching = f.strictMatching
	opts.DownloadWhenMissing = f.download
	opts.Overwrite = f.overwrite
	opts.CheckLastInstalled = f.checkLastInstalled
	opts.TickMillis = f.tickMillis
	return opts, nil
}

func findWeiduOnPath() (string, error) {
	name := "weidu"
	if isWindows() {
		name = "weidu.exe"
	}
	path, err := execLookPath(name)
	if err != nil {
		return "", fmt.Errorf("no --weidu-binary given and %q not found on PATH: %w", name, err)
	}
	return path, nil
}

// parseLoggingModes parses the --weidu-log-mode token list into
// config.LoggingMode values. Recognized tokens are "autolog", "logapp",
// "log-extern", and "log <path>" for an explicit log destination.
func parseLoggingModes(tokens []string) ([]config.LoggingMode, error) {
	modes := make([]config.LoggingMode, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == "autolog":
			modes = append(modes, config.LoggingMode{Kind: config.LogAuto})
		case tok == "logapp":
			modes = append(modes, config.LoggingMode{Kind: config.LogAppend})
		case tok == "log-extern":
			modes = append(modes, config.LoggingMode{Kind: config.LogExternal})
		case strings.HasPrefix(tok, "log "):
			path := strings.TrimSpace(strings.TrimPrefix(tok, "log "))
			modes = append(modes, config.LoggingMode{Kind: config.LogExplicit, Path: path})
		default:
			return nil, fmt.Errorf("invalid --weidu-log-mode token %q (want autolog, logapp, log-extern, or \"log <path>\")", tok)
		}
	}
	return modes, nil
}

// loadParserConfig loads the persisted Parser Configuration, writing
// defaults on first use (spec §6).
func loadParserConfig(path string) (config.ParserConfig, error) {
	return config.LoadParserConfig(path)
}
