package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"weidu-driver/internal/manifest"
	"weidu-driver/internal/runner"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var eetFlags commonFlags
var eetBG1GameDirectory string
var eetBG1LogFile string
var eetBG2GameDirectory string
var eetBG2LogFile string
var eetNewPreEETDir string
var eetNewEETDir string

var eetCmd = &cobra.Command{
	Use:     "eet",
	Aliases: []string{"e"},
	Short:   "Run the two-stage EET install: the BG1EE donor game, then the BG2EE recipient game",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEET()
	},
}

func init() {
	addCommonFlags(eetCmd, &eetFlags)
	flags := eetCmd.Flags()
	flags.StringVarP(&eetBG1GameDirectory, "bg1-game-directory", "1", "", "absolute path to the bg1ee game directory")
	flags.StringVarP(&eetBG1LogFile, "bg1-log-file", "y", "", "path to the bg1ee target manifest")
	flags.StringVarP(&eetBG2GameDirectory, "bg2-game-directory", "2", "", "absolute path to the bg2ee game directory")
	flags.StringVarP(&eetBG2LogFile, "bg2-log-file", "z", "", "path to the bg2ee target manifest")
	flags.StringVarP(&eetNewPreEETDir, "new-pre-eet-dir", "p", "", "clone bg1-game-directory's contents here first")
	flags.StringVarP(&eetNewEETDir, "new-eet-dir", "n", "", "clone bg2-game-directory's contents here first")
	for _, name := range []string{"bg1-game-directory", "bg1-log-file", "bg2-game-directory", "bg2-log-file"} {
		_ = eetCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(eetCmd)
}

func runEET() error {
	opts, err := eetFlags.buildOptions()
	if err != nil {
		return err
	}
	parserCfg, err := loadParserConfig(eetFlags.parserConfigPath)
	if err != nil {
		return err
	}

	bg1Target, err := manifest.ReadFile(eetBG1LogFile)
	if err != nil {
		return fmt.Errorf("reading bg1 target manifest %q: %w", eetBG1LogFile, err)
	}
	bg2Target, err := manifest.ReadFile(eetBG2LogFile)
	if err != nil {
		return fmt.Errorf("reading bg2 target manifest %q: %w", eetBG2LogFile, err)
	}

	bg1Installed := filepath.Join(eetBG1GameDirectory, "weidu.log")
	bg2Installed := filepath.Join(eetBG2GameDirectory, "weidu.log")

	bg1ToInstall := bg1Target
	bg2ToInstall := bg2Target
	if opts.SkipInstalled {
		if bg1ToInstall, err = manifest.FindMods(bg1Target, bg1Installed, opts.StrictMatching); err != nil {
			return err
		}
		if bg2ToInstall, err = manifest.FindMods(bg2Target, bg2Installed, opts.StrictMatching); err != nil {
			return err
		}
	}

	pterm.DefaultSection.Println("Stage 1: BG1EE")
	renderDiffSummary(bg1Target, bg1ToInstall)
	pterm.DefaultSection.Println("Stage 2: BG2EE")
	renderDiffSummary(bg2Target, bg2ToInstall)

	ctrl := runner.NewController(opts, parserCfg, buildDownloader(opts.DownloadWhenMissing), interactivePrompterFactory())

	eetEndAnswer, err := filepath.Abs(eetBG1GameDirectory)
	if eetNewPreEETDir != "" {
		eetEndAnswer, err = filepath.Abs(eetNewPreEETDir)
	}
	if err != nil {
		return fmt.Errorf("resolving bg1 game directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bg1Dir, bg1CloneSrc := eetBG1GameDirectory, ""
	if eetNewPreEETDir != "" {
		bg1Dir, bg1CloneSrc = eetNewPreEETDir, eetBG1GameDirectory
	}
	bg2Dir, bg2CloneSrc := eetBG2GameDirectory, ""
	if eetNewEETDir != "" {
		bg2Dir, bg2CloneSrc = eetNewEETDir, eetBG2GameDirectory
	}

	eetReport, err := ctrl.EETProfile(
		ctx,
		bg1Target, bg2Target,
		filepath.Join(bg1Dir, "weidu.log"), filepath.Join(bg2Dir, "weidu.log"),
		bg1Dir, bg2Dir,
		[2]string{bg1CloneSrc, bg2CloneSrc},
		eetEndAnswer,
	)
	pterm.DefaultSection.Println("Stage 1 results")
	printReport(eetReport.EETFirst)
	pterm.DefaultSection.Println("Stage 2 results")
	printReport(eetReport.EETSecond)
	if err != nil {
		return err
	}
	return nil
}
