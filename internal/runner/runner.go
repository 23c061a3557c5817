// Package runner implements the Run Controller (spec §4.7) and the two
// Install Profiles built on top of it (spec §4.8): Normal, a single
// component sequence against one game directory, and EET, the same
// sequence run twice against two independently staged game directories.
package runner

import (
	"context"
	"fmt"

	"weidu-driver/internal/config"
	"weidu-driver/internal/manifest"
	"weidu-driver/internal/resolve"
	"weidu-driver/internal/stage"
	"weidu-driver/internal/supervisor"
)

// LastInstalledMismatchError reports that check_last_installed is set
// and the installed manifest's final component, after a run, does not
// match the target manifest's final component (spec §4.7).
type LastInstalledMismatchError struct {
	Want manifest.Component
	Got  manifest.Component
}

func (e *LastInstalledMismatchError) Error() string {
	return fmt.Sprintf("last installed component mismatch: want %q, got %q", e.Want.String(), e.Got.String())
}

// ComponentOutcome records one component's result within a Report.
type ComponentOutcome struct {
	Component manifest.Component
	Verdict   supervisor.Verdict
	Err       error
}

// Report is the Run Controller's summary of one sequence over a
// manifest.
type Report struct {
	Outcomes []ComponentOutcome
	Aborted  bool
}

// Downloader is re-exported so callers assembling a Controller do not
// need to import internal/resolve directly.
type Downloader = resolve.Downloader

// PrompterFactory builds the Prompter the Supervisor should use for one
// component install. Production code typically returns the same
// interactive Prompter for every component; the EET second stage
// substitutes a SentinelAutoAnswer wrapper instead.
type PrompterFactory func(c manifest.Component) supervisor.Prompter

// Controller sequences Resolve -> Stage -> Supervise across a manifest,
// honoring skip_installed, abort_on_warnings and check_last_installed.
type Controller struct {
	Options    config.Options
	ParserCfg  config.ParserConfig
	Downloader Downloader
	Prompter   PrompterFactory

	resolvedByPackageFile map[string]string
}

// NewController returns a Controller ready to run sequences against
// opts/parserCfg. downloader and prompterFactory may be nil.
func NewController(opts config.Options, parserCfg config.ParserConfig, downloader Downloader, prompterFactory PrompterFactory) *Controller {
	return &Controller{
		Options:               opts,
		ParserCfg:             parserCfg,
		Downloader:            downloader,
		Prompter:              prompterFactory,
		resolvedByPackageFile: make(map[string]string),
	}
}

// Run executes target's components, in order, against gameDir: resolving
// each component's source directory (memoized by package file across the
// whole sequence), staging it into gameDir, then supervising the
// external installer. If opts.SkipInstalled is set, target is first
// filtered through FindMods against installedLogPath.
func (c *Controller) Run(ctx context.Context, target *manifest.Manifest, installedLogPath, gameDir string) (Report, error) {
	toInstall := target
	if c.Options.SkipInstalled {
		filtered, err := manifest.FindMods(target, installedLogPath, c.Options.StrictMatching)
		if err != nil {
			return Report{}, err
		}
		toInstall = filtered
	}

	report := Report{}

	for _, component := range toInstall.Components {
		sourceDir, err := c.resolveSource(component)
		if err != nil {
			report.Outcomes = append(report.Outcomes, ComponentOutcome{Component: component, Err: err})
			report.Aborted = true
			return report, err
		}

		if _, err := stage.Component(component, sourceDir, gameDir, c.Options.Overwrite); err != nil {
			report.Outcomes = append(report.Outcomes, ComponentOutcome{Component: component, Err: err})
			report.Aborted = true
			return report, err
		}

		var prompter supervisor.Prompter
		if c.Prompter != nil {
			prompter = c.Prompter(component)
		}

		result, err := supervisor.Run(ctx, component, c.Options, c.ParserCfg, gameDir, false, prompter)
		outcome := ComponentOutcome{Component: component, Verdict: result.Verdict, Err: err}
		report.Outcomes = append(report.Outcomes, outcome)

		if err != nil {
			report.Aborted = true
			return report, err
		}
		if result.Verdict == supervisor.Warnings && c.Options.AbortOnWarnings {
			report.Aborted = true
			return report, &supervisor.InstallerWarningError{Component: component}
		}
	}

	if c.Options.CheckLastInstalled {
		if err := c.checkLastInstalled(target, installedLogPath); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (c *Controller) resolveSource(component manifest.Component) (string, error) {
	if dir, ok := c.resolvedByPackageFile[component.PackageFile]; ok {
		return dir, nil
	}
	dir, err := resolve.Resolve(component, c.Options.SourceRoots, c.Options.WalkDepth, c.asResolveDownloader())
	if err != nil {
		return "", err
	}
	c.resolvedByPackageFile[component.PackageFile] = dir
	return dir, nil
}

func (c *Controller) asResolveDownloader() resolve.Downloader {
	if !c.Options.DownloadWhenMissing || c.Downloader == nil {
		return nil
	}
	return c.Downloader
}

func (c *Controller) checkLastInstalled(target *manifest.Manifest, installedLogPath string) error {
	want, ok := target.Last()
	if !ok {
		return nil
	}
	installed, err := manifest.ReadFile(installedLogPath)
	if err != nil {
		return &LastInstalledMismatchError{Want: want}
	}
	got, ok := installed.Last()
	if !ok || !want.Equal(got) {
		return &LastInstalledMismatchError{Want: want, Got: got}
	}
	return nil
}
