package runner

import (
	"context"
	"fmt"

	"weidu-driver/internal/manifest"
	"weidu-driver/internal/stage"
	"weidu-driver/internal/supervisor"
)

// eetSentinel is the prompt substring WeiDU's EET-End component uses to
// ask for the original BG:EE+SoD installation path during the second
// stage of an EET run (spec §6).
const eetSentinel = "Enter the full path to your BG:EE+SoD installation"

// NormalProfile runs one component sequence against a single game
// directory (spec §4.8). If generateDirectorySrc is non-empty, gameDir
// is first replaced with a fresh clone of it; this lets callers keep a
// pristine base install and stage into disposable copies.
func (c *Controller) NormalProfile(ctx context.Context, target *manifest.Manifest, installedLogPath, gameDir, generateDirectorySrc string) (Report, error) {
	if generateDirectorySrc != "" {
		if err := stage.CloneGameDirectory(generateDirectorySrc, gameDir); err != nil {
			return Report{}, fmt.Errorf("cloning game directory: %w", err)
		}
	}
	return c.Run(ctx, target, installedLogPath, gameDir)
}

// EETReport bundles the two stages an EET install profile runs.
type EETReport struct {
	EETFirst  Report
	EETSecond Report
}

// EETProfile runs two independent component sequences (spec §4.8
// "EET"): firstTarget against firstGameDir (the BG1EE donor game, which
// installs EET's transfer component), and secondTarget against
// secondGameDir (the BG2EE recipient game, which installs EET-End and
// during installation prompts for the donor game's path). eetEndAnswer
// supplies that path automatically via a SentinelAutoAnswer; if empty,
// the sentinel prompt is left to whatever base Prompter the Controller
// supplies for the second stage.
//
// generateDirectorySrc, when an entry is non-empty, clones a fresh game
// directory for that stage before running it, the same as
// NormalProfile.
func (c *Controller) EETProfile(
	ctx context.Context,
	firstTarget, secondTarget *manifest.Manifest,
	firstInstalledLogPath, secondInstalledLogPath string,
	firstGameDir, secondGameDir string,
	generateDirectorySrc [2]string,
	eetEndAnswer string,
) (EETReport, error) {
	if generateDirectorySrc[0] != "" {
		if err := stage.CloneGameDirectory(generateDirectorySrc[0], firstGameDir); err != nil {
			return EETReport{}, fmt.Errorf("cloning first-stage game directory: %w", err)
		}
	}
	firstReport, err := c.Run(ctx, firstTarget, firstInstalledLogPath, firstGameDir)
	if err != nil {
		return EETReport{EETFirst: firstReport}, err
	}

	if generateDirectorySrc[1] != "" {
		if err := stage.CloneGameDirectory(generateDirectorySrc[1], secondGameDir); err != nil {
			return EETReport{EETFirst: firstReport}, fmt.Errorf("cloning second-stage game directory: %w", err)
		}
	}

	secondPrompter := c.Prompter
	if eetEndAnswer != "" {
		base := c.Prompter
		secondPrompter = func(comp manifest.Component) supervisor.Prompter {
			var next supervisor.Prompter
			if base != nil {
				next = base(comp)
			}
			return &supervisor.SentinelAutoAnswer{
				Sentinel: eetSentinel,
				Answer:   eetEndAnswer,
				Next:     next,
			}
		}
	}

	savedPrompter := c.Prompter
	c.Prompter = secondPrompter
	secondReport, err := c.Run(ctx, secondTarget, secondInstalledLogPath, secondGameDir)
	c.Prompter = savedPrompter

	return EETReport{EETFirst: firstReport, EETSecond: secondReport}, err
}
