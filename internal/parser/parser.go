// Package parser implements the Output Parser (spec §4.5): a state
// machine that classifies lines from the external installer into
// progress, question, or terminal-verdict events, batching question
// fragments and forwarding a coherent prompt only when the child has
// truly blocked on input.
package parser

import (
	"strings"
	"sync/atomic"
	"time"

	"weidu-driver/internal/config"
)

// EventKind identifies which Process State a Event carries.
type EventKind int

const (
	InProgress EventKind = iota
	RequiresInput
	TimedOut
	Completed
	CompletedWithWarnings
	CompletedWithErrors
)

func (k EventKind) String() string {
	switch k {
	case InProgress:
		return "InProgress"
	case RequiresInput:
		return "RequiresInput"
	case TimedOut:
		return "TimedOut"
	case Completed:
		return "Completed"
	case CompletedWithWarnings:
		return "CompletedWithWarnings"
	case CompletedWithErrors:
		return "CompletedWithErrors"
	default:
		return "Unknown"
	}
}

// Event is one Process State observation emitted onto the parser's
// output channel.
type Event struct {
	Kind     EventKind
	Question string // set only for RequiresInput
	Details  string // set only for CompletedWithErrors
}

// state is the parser's internal scanning state (spec §4.5 "States").
type state int

const (
	scanning state = iota
	buildingPrompt
	awaitingMorePromptContent
)

// Parser consumes a stream of raw lines and emits Process State events.
// It is not safe for concurrent use by multiple goroutines; Run owns it
// for the duration of one component install.
type Parser struct {
	cfg config.ParserConfig
}

// New returns a Parser configured with cfg.
func New(cfg config.ParserConfig) *Parser {
	return &Parser{cfg: cfg}
}

// Run starts the state machine in its own goroutine, reading from lines
// and writing Events to the returned channel, which is closed once lines
// closes (spec: "channel closed" is the Supervisor's cue to reap the
// child and fall back to its exit code) or once a terminal verdict or a
// TimedOut event has been emitted.
//
// idleTick is a shared counter, incremented by the Supervisor once per
// poll and read here to detect a stalled child; tickMillis and
// timeoutSeconds convert that counter into the configured wall-clock
// budget (spec: "Time is measured in units of tick_millis").
func (p *Parser) Run(lines <-chan string, idleTick *atomic.Int64, tickMillis int, timeoutSeconds int) <-chan Event {
	events := make(chan Event, 1)

	timeoutTicks := int64(timeoutSeconds)
	if tickMillis > 0 {
		timeoutTicks = int64(timeoutSeconds) * 1000 / int64(tickMillis)
	}

	go func() {
		defer close(events)

		events <- Event{Kind: InProgress}

		st := scanning
		var buffer strings.Builder

		appendToBuffer := func(line string) {
			buffer.WriteString(line)
			buffer.WriteString("\n")
		}
		clearBuffer := func() {
			buffer.Reset()
		}

		tick := time.NewTicker(time.Duration(tickMillis) * time.Millisecond)
		defer tick.Stop()

		for {
			select {
			case line, ok := <-lines:
				if !ok {
					return
				}

				comparable := strings.ToLower(strings.TrimSpace(line))

				if verdict, details, isTerminal := p.classifyTerminal(comparable, line); isTerminal {
					events <- Event{Kind: verdict, Details: details}
					return
				}

				isProgress := p.isProgress(comparable)
				isUsefulStatus := p.isUsefulStatus(comparable)
				// A line matching in_progress_words is never a question,
				// even if it also happens to contain a choice phrase
				// (spec §9 open question b: progress dominates).
				isQuestion := !isProgress && p.isQuestion(comparable)

				switch st {
				case scanning:
					if isQuestion {
						appendToBuffer(line)
						st = buildingPrompt
					}
				case buildingPrompt, awaitingMorePromptContent:
					if isUsefulStatus {
						clearBuffer()
						st = scanning
					} else {
						appendToBuffer(line)
						st = buildingPrompt
					}
				}

			case <-tick.C:
				switch st {
				case buildingPrompt:
					st = awaitingMorePromptContent
				case awaitingMorePromptContent:
					events <- Event{Kind: RequiresInput, Question: strings.TrimRight(buffer.String(), "\n")}
					clearBuffer()
					st = scanning
				default:
					if idleTick.Load() >= timeoutTicks {
						events <- Event{Kind: TimedOut}
						return
					}
				}
			}
		}
	}()

	return events
}

// classifyTerminal checks line against the error/warning/finished phrase
// lists, error dominates warning dominates success, per spec §4.5.
func (p *Parser) classifyTerminal(comparable, raw string) (EventKind, string, bool) {
	for _, phrase := range p.cfg.ErrorPhrases {
		if strings.Contains(comparable, strings.ToLower(phrase)) {
			return CompletedWithErrors, raw, true
		}
	}
	for _, phrase := range p.cfg.WarningPhrases {
		if strings.Contains(comparable, strings.ToLower(phrase)) {
			return CompletedWithWarnings, "", true
		}
	}
	for _, phrase := range p.cfg.FinishedPhrases {
		if strings.Contains(comparable, strings.ToLower(phrase)) {
			return Completed, "", true
		}
	}
	return 0, "", false
}

func (p *Parser) isProgress(comparable string) bool {
	for _, word := range p.cfg.InProgressWords {
		if strings.Contains(comparable, strings.ToLower(word)) {
			return true
		}
	}
	return false
}

func (p *Parser) isUsefulStatus(comparable string) bool {
	for _, word := range p.cfg.UsefulStatusWords {
		if strings.Contains(comparable, strings.ToLower(word)) {
			return true
		}
	}
	return false
}

// isQuestion reports whether comparable contains a choice phrase as a
// substring, or has a whitespace-delimited alphabetic-only word equal to
// a choice word.
func (p *Parser) isQuestion(comparable string) bool {
	for _, phrase := range p.cfg.ChoicePhrases {
		if strings.Contains(comparable, strings.ToLower(phrase)) {
			return true
		}
	}

	for _, field := range strings.Fields(comparable) {
		word := alphabeticOnly(field)
		for _, choiceWord := range p.cfg.ChoiceWords {
			if word == strings.ToLower(choiceWord) {
				return true
			}
		}
	}

	return false
}

func alphabeticOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
