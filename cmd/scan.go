package cmd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"weidu-driver/internal/manifest"
	"weidu-driver/internal/resolve"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Read-only introspection of available mods, bypassing staging and supervision",
}

var scanLanguagesFlags commonFlags
var scanLanguagesFilter string

var scanLanguagesCmd = &cobra.Command{
	Use:     "languages",
	Aliases: []string{"l"},
	Short:   "List the languages each mod under --mod-directories offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScanLanguages()
	},
}

var scanComponentsFlags commonFlags
var scanComponentsFilter string
var scanComponentsGameDirectory string

var scanComponentsCmd = &cobra.Command{
	Use:     "components",
	Aliases: []string{"c"},
	Short:   "List the components each mod under --mod-directories offers, per language",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScanComponents()
	},
}

func init() {
	addCommonFlags(scanLanguagesCmd, &scanLanguagesFlags)
	scanLanguagesCmd.Flags().StringVarP(&scanLanguagesFilter, "filter-by-selected-language", "f", "", "only list languages whose description contains this substring")

	addCommonFlags(scanComponentsCmd, &scanComponentsFlags)
	scanComponentsCmd.Flags().StringVarP(&scanComponentsFilter, "filter-by-selected-language", "f", "", "only list components for languages whose description contains this substring")
	scanComponentsCmd.Flags().StringVarP(&scanComponentsGameDirectory, "game-directory", "g", "", "absolute path to the game directory to scan against")
	_ = scanComponentsCmd.MarkFlagRequired("game-directory")

	scanCmd.AddCommand(scanLanguagesCmd)
	scanCmd.AddCommand(scanComponentsCmd)
	rootCmd.AddCommand(scanCmd)
}

func runScanLanguages() error {
	opts, err := scanLanguagesFlags.buildOptions()
	if err != nil {
		return err
	}

	mods := resolve.FindAllMods(opts.SourceRoots, opts.WalkDepth)
	for _, modDir := range mods {
		langs, err := listLanguages(opts.InstallerPath, modDir, scanLanguagesFilter)
		if err != nil {
			pterm.Warning.Printfln("%s: %v", modDir, err)
			continue
		}
		pterm.Info.Printfln("%s: %s", modDir, strings.Join(langs, ", "))
	}
	return nil
}

func runScanComponents() error {
	opts, err := scanComponentsFlags.buildOptions()
	if err != nil {
		return err
	}

	mods := resolve.FindAllMods(opts.SourceRoots, opts.WalkDepth)
	for _, modDir := range mods {
		langs, err := listLanguages(opts.InstallerPath, modDir, scanComponentsFilter)
		if err != nil {
			pterm.Warning.Printfln("%s: %v", modDir, err)
			continue
		}
		for _, lang := range langs {
			components, err := listComponents(opts.InstallerPath, modDir, lang, scanComponentsGameDirectory)
			if err != nil {
				pterm.Warning.Printfln("%s (lang %s): %v", modDir, lang, err)
				continue
			}
			for _, c := range components {
				pterm.Println(c.String())
			}
		}
	}
	return nil
}

// listLanguages shells out to the external installer with
// --list-languages and filters numeric-prefixed lines by substring,
// mirroring the original tool's scan_for_langauges.
func listLanguages(installerPath, modDir, filter string) ([]string, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, installerPath, "--nogame", "--list-languages", modDir, "--no-exit-pause")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("listing languages for %q: %w", modDir, err)
	}

	var langs []string
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if _, err := strconv.Atoi(line[:1]); err != nil {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(line), strings.ToLower(filter)) {
			continue
		}
		langNum, _, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		langs = append(langs, strings.TrimSpace(langNum))
	}
	return langs, nil
}

// listComponents shells out to the external installer with
// --list-components for one mod/language pair, run from inside
// gameDirectory, and parses the "~"-prefixed lines into Components.
func listComponents(installerPath, modDir, lang, gameDirectory string) ([]manifest.Component, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, installerPath, "--game", gameDirectory, "--list-components", modDir, lang, "--no-exit-pause")
	cmd.Dir = gameDirectory
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("listing components for %q (lang %s): %w", modDir, lang, err)
	}

	var components []manifest.Component
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(strings.TrimSpace(line), "~") {
			continue
		}
		c, err := manifest.ParseLine(line)
		if err != nil {
			continue
		}
		components = append(components, c)
	}
	return components, nil
}
