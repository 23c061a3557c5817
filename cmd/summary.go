package cmd

import (
	"fmt"

	"weidu-driver/internal/manifest"

	"github.com/pterm/pterm"
)

// renderDiffSummary prints a table of target's components, marking each
// as "to install" or "already installed" depending on whether it survived
// find_mods filtering into toInstall. It mirrors the teacher's
// printModList: a pterm table when attached to a terminal, a plain
// summary line otherwise.
func renderDiffSummary(target, toInstall *manifest.Manifest) string {
	willInstall := make(map[string]bool, len(toInstall.Components))
	for _, c := range toInstall.Components {
		willInstall[c.PackageName+"|"+c.ComponentIndex+"|"+c.LanguageIndex] = true
	}

	tableData := pterm.TableData{
		{"Package", "Component", "Status"},
	}

	toInstallCount := 0
	alreadyInstalledCount := 0

	for _, c := range target.Components {
		key := c.PackageName + "|" + c.ComponentIndex + "|" + c.LanguageIndex
		status := "already installed"
		if willInstall[key] {
			status = "to install"
			toInstallCount++
		} else {
			alreadyInstalledCount++
		}

		name := c.PackageName
		statusStr := pterm.Green(status)
		if status == "to install" {
			statusStr = pterm.Yellow(status)
		}
		tableData = append(tableData, []string{name, c.ComponentName, statusStr})
	}

	summary := fmt.Sprintf("Summary: %d to install, %d already installed (%d total)",
		toInstallCount, alreadyInstalledCount, len(target.Components))

	if pterm.RawOutput {
		fmt.Println(summary)
	} else {
		_ = pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
		fmt.Println(summary)
	}

	return summary
}
