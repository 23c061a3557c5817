package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"weidu-driver/internal/manifest"
	"weidu-driver/internal/runner"
	"weidu-driver/internal/supervisor"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var normalFlags commonFlags
var normalLogFile string
var normalGameDirectory string
var normalGenerateDirectory string

var normalCmd = &cobra.Command{
	Use:     "normal",
	Aliases: []string{"n"},
	Short:   "Run a single install sequence against one game directory (BG1EE, BG2EE, IWDEE)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNormal()
	},
}

func init() {
	addCommonFlags(normalCmd, &normalFlags)
	flags := normalCmd.Flags()
	flags.StringVarP(&normalLogFile, "log-file", "f", "", "path to the target manifest (weidu.log-formatted)")
	flags.StringVarP(&normalGameDirectory, "game-directory", "g", "", "absolute path to the game directory")
	flags.StringVarP(&normalGenerateDirectory, "generate-directory", "n", "", "clone game-directory's contents here first, then install into the clone")
	_ = normalCmd.MarkFlagRequired("log-file")
	_ = normalCmd.MarkFlagRequired("game-directory")

	rootCmd.AddCommand(normalCmd)
}

func runNormal() error {
	opts, err := normalFlags.buildOptions()
	if err != nil {
		return err
	}
	parserCfg, err := loadParserConfig(normalFlags.parserConfigPath)
	if err != nil {
		return err
	}

	target, err := manifest.ReadFile(normalLogFile)
	if err != nil {
		return fmt.Errorf("reading target manifest %q: %w", normalLogFile, err)
	}

	gameDir := normalGameDirectory
	installedLogPath := filepath.Join(gameDir, "weidu.log")

	toInstall := target
	if opts.SkipInstalled {
		toInstall, err = manifest.FindMods(target, installedLogPath, opts.StrictMatching)
		if err != nil {
			return err
		}
	}
	renderDiffSummary(target, toInstall)

	if len(toInstall.Components) == 0 {
		pterm.Success.Println("Nothing to install.")
		return nil
	}

	ctrl := runner.NewController(opts, parserCfg, buildDownloader(opts.DownloadWhenMissing), interactivePrompterFactory())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cloneSrc := ""
	if normalGenerateDirectory != "" {
		cloneSrc = normalGameDirectory
		gameDir = normalGenerateDirectory
		installedLogPath = filepath.Join(gameDir, "weidu.log")
	}

	report, err := ctrl.NormalProfile(ctx, target, installedLogPath, gameDir, cloneSrc)
	printReport(report)
	if err != nil {
		return err
	}
	return nil
}

// interactivePrompterFactory builds one StdinPrompter per component,
// backed by the process's own stdin/stdout (spec §4.6's blocking
// "prompt the user and read one line" interaction loop).
func interactivePrompterFactory() runner.PrompterFactory {
	return func(manifest.Component) supervisor.Prompter {
		return supervisor.NewStdinPrompter(os.Stdout, os.Stdin)
	}
}

// printReport renders a Run Controller Report as a sequence of
// pterm status lines, one per component outcome.
func printReport(report runner.Report) {
	for _, outcome := range report.Outcomes {
		name := outcome.Component.PackageName
		if outcome.Err != nil {
			pterm.Error.Printfln("%s: %v", name, outcome.Err)
			continue
		}
		switch outcome.Verdict {
		case supervisor.Success:
			pterm.Success.Printfln("%s: installed", name)
		case supervisor.Warnings:
			pterm.Warning.Printfln("%s: installed with warnings", name)
		case supervisor.Error:
			pterm.Error.Printfln("%s: failed", name)
		}
	}
	if report.Aborted {
		pterm.Warning.Println("run aborted before completing the manifest")
	}
}
