// Package supervisor implements the Supervisor (spec §4.6): it spawns the
// external installer for exactly one component, wires its stdout/stderr
// through the Raw Stream Reader and Output Parser, answers prompts
// interactively, and reduces the whole run to a single Verdict.
package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"weidu-driver/internal/config"
	"weidu-driver/internal/manifest"
	"weidu-driver/internal/parser"
	"weidu-driver/internal/stream"
)

// Verdict is the Supervisor's terminal report for one component install.
type Verdict int

const (
	Success Verdict = iota
	Warnings
	Error
)

func (v Verdict) String() string {
	switch v {
	case Success:
		return "Success"
	case Warnings:
		return "Warnings"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Result bundles a component's final Verdict with the transcript the Raw
// Stream Reader accumulated, for diagnostics and logging regardless of
// outcome.
type Result struct {
	Verdict    Verdict
	Transcript string
	Details    string
}

// SpawnError reports that the external installer process could not be
// started at all.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawning installer %q: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ParserTimedOutError reports that the Output Parser never observed a
// terminal verdict and the child stayed idle past the configured timeout
// budget (spec §4.5/§4.6).
type ParserTimedOutError struct {
	Component manifest.Component
}

func (e *ParserTimedOutError) Error() string {
	return fmt.Sprintf("installer timed out waiting for %q to finish or respond", e.Component.ComponentName)
}

// InstallerError reports a terminal error verdict from the Output Parser,
// or a non-0/3 process exit code (spec §4.6: "0 and 3 both mean
// success").
type InstallerError struct {
	Component manifest.Component
	Details   string
}

func (e *InstallerError) Error() string {
	return fmt.Sprintf("installing %q failed: %s", e.Component.ComponentName, e.Details)
}

// InstallerWarningError reports a terminal warnings verdict, surfaced as
// an error only by callers that treat AbortOnWarnings as fatal.
type InstallerWarningError struct {
	Component manifest.Component
}

func (e *InstallerWarningError) Error() string {
	return fmt.Sprintf("installing %q completed with warnings", e.Component.ComponentName)
}

// Prompter displays a question to the user and returns their answer line,
// unterminated by a newline. Production code backs this with a terminal
// read; tests and the EET second-stage sentinel answer substitute a
// scripted Prompter.
type Prompter interface {
	Prompt(question string) (string, error)
}

// StdinPrompter reads one line from stdin per call, echoing the question
// first. It is the default interactive Prompter.
type StdinPrompter struct {
	Out io.Writer
	In  *bufio.Reader
}

func NewStdinPrompter(out io.Writer, in io.Reader) *StdinPrompter {
	return &StdinPrompter{Out: out, In: bufio.NewReader(in)}
}

func (p *StdinPrompter) Prompt(question string) (string, error) {
	if _, err := fmt.Fprintln(p.Out, question); err != nil {
		return "", err
	}
	line, err := p.In.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return trimNewline(line), nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// buildArgs constructs the external installer's argument vector exactly
// as spec §6 defines it:
//
//	<package_name>/<package_file> --force-install <component_index>
//	  --use-lang <ui_language> --language <language_index>
//	  --no-exit-pause <logging-mode args...>
func buildArgs(c manifest.Component, opts config.Options, loggingDestIsDir bool) []string {
	args := []string{
		fmt.Sprintf("%s/%s", c.PackageName, c.PackageFile),
		"--force-install", c.ComponentIndex,
		"--use-lang", opts.UILanguage,
		"--language", c.LanguageIndex,
		"--no-exit-pause",
	}
	for _, mode := range opts.LoggingModes {
		args = append(args, mode.Args(c.PackageName, c.ComponentIndex, loggingDestIsDir)...)
	}
	return args
}

// Run spawns the external installer for one component inside workDir,
// drives the Output Parser against its combined stdout/stderr, answers
// RequiresInput events via prompter, and blocks until a terminal event is
// observed or the process exits. prompter may be nil, in which case any
// RequiresInput event is treated as a fatal protocol error (spec §4.6:
// unattended runs that still hit a prompt cannot proceed).
func Run(ctx context.Context, c manifest.Component, opts config.Options, cfg config.ParserConfig, workDir string, loggingDestIsDir bool, prompter Prompter) (Result, error) {
	args := buildArgs(c, opts, loggingDestIsDir)
	cmd := exec.CommandContext(ctx, opts.InstallerPath, args...)
	cmd.Dir = workDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, &SpawnError{Path: opts.InstallerPath, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, &SpawnError{Path: opts.InstallerPath, Err: err}
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Result{}, &SpawnError{Path: opts.InstallerPath, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return Result{}, &SpawnError{Path: opts.InstallerPath, Err: err}
	}

	reader := stream.New()
	lines := reader.Drain(stdout, stderr)

	idleTick := &atomic.Int64{}
	p := parser.New(cfg)
	events := p.Run(lines, idleTick, opts.TickMillis, opts.TimeoutSeconds)

	tickCtx, stopTicking := context.WithCancel(ctx)
	defer stopTicking()
	go tickLoop(tickCtx, idleTick, opts.TickMillis)

	result, runErr := driveEvents(c, events, stdin, prompter, reader, idleTick)

	waitErr := cmd.Wait()
	if runErr != nil {
		return result, runErr
	}

	if waitErr != nil {
		if !isToleratedExitCode(waitErr) {
			result.Verdict = Error
			result.Details = waitErr.Error()
			return result, &InstallerError{Component: c, Details: waitErr.Error()}
		}
	}

	return result, nil
}

// tickLoop increments idleTick once per tickMillis until ctx is done. Run
// cancels ctx as soon as it is finished with this component, so the
// ticker goroutine does not outlive the component it was measuring.
func tickLoop(ctx context.Context, idleTick *atomic.Int64, tickMillis int) {
	ticker := time.NewTicker(time.Duration(tickMillis) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			idleTick.Add(1)
		}
	}
}

func driveEvents(c manifest.Component, events <-chan parser.Event, stdin io.WriteCloser, prompter Prompter, reader *stream.Reader, idleTick *atomic.Int64) (Result, error) {
	defer func() { _ = stdin.Close() }()

	for ev := range events {
		switch ev.Kind {
		case parser.InProgress:
			continue
		case parser.RequiresInput:
			if prompter == nil {
				return Result{Verdict: Error, Transcript: reader.Transcript()}, &InstallerError{
					Component: c,
					Details:   "installer requires input but no prompter is configured: " + ev.Question,
				}
			}
			answer, err := prompter.Prompt(ev.Question)
			idleTick.Store(0)
			if err != nil {
				return Result{Verdict: Error, Transcript: reader.Transcript()}, &SpawnError{Path: "stdin", Err: err}
			}
			if _, err := fmt.Fprintln(stdin, answer); err != nil {
				return Result{Verdict: Error, Transcript: reader.Transcript()}, &SpawnError{Path: "stdin", Err: err}
			}
			idleTick.Store(0)
		case parser.TimedOut:
			return Result{Verdict: Error, Transcript: reader.Transcript()}, &ParserTimedOutError{Component: c}
		case parser.Completed:
			return Result{Verdict: Success, Transcript: reader.Transcript()}, nil
		case parser.CompletedWithWarnings:
			return Result{Verdict: Warnings, Transcript: reader.Transcript()}, nil
		case parser.CompletedWithErrors:
			return Result{Verdict: Error, Transcript: reader.Transcript(), Details: ev.Details}, &InstallerError{Component: c, Details: ev.Details}
		}
	}
	return Result{Verdict: Success, Transcript: reader.Transcript()}, nil
}

// isToleratedExitCode reports whether waitErr represents an exit code the
// external installer uses for success: 0 (never reaches here, cmd.Wait
// returns nil for it) or 3 (spec §4.6: "exit codes 0 and 3 both mean
// success").
func isToleratedExitCode(waitErr error) bool {
	exitErr, ok := waitErr.(*exec.ExitError)
	if !ok {
		return false
	}
	return exitErr.ExitCode() == 3
}

// SentinelAutoAnswer wraps another Prompter, answering one specific
// prompt substring automatically (spec §6: the EET second stage's
// "Enter the full path to your BG:EE+SoD installation" prompt) at most
// once, then delegating everything else, including any further
// occurrences of the same prompt, to the wrapped Prompter.
type SentinelAutoAnswer struct {
	Sentinel string
	Answer   string
	Next     Prompter

	used bool
}

func (s *SentinelAutoAnswer) Prompt(question string) (string, error) {
	if !s.used && strings.Contains(strings.ToLower(question), strings.ToLower(s.Sentinel)) {
		s.used = true
		return s.Answer, nil
	}
	if s.Next == nil {
		return "", fmt.Errorf("no prompter configured to answer: %s", question)
	}
	return s.Next.Prompt(question)
}
