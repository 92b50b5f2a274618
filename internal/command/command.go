// internal/command/command.go

// Package command implements a table-driven command engine for any
// line-based transport: commands are registered by name with argument
// bounds and dispatched with automatic argument coercion, validation,
// history, and help output.
package command

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

const (
	// MaxCommands bounds the registration table.
	MaxCommands = 24

	// MaxArgs bounds the number of arguments per invocation.
	MaxArgs = 8

	// HistoryDepth is the size of the history ring.
	HistoryDepth = 8
)

var (
	ErrTableFull      = errors.New("command: table full")
	ErrUnknownCommand = errors.New("command: unknown command")
	ErrBadArgCount    = errors.New("command: argument count out of range")
)

// Kind discriminates coerced argument values.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindBool
)

// Arg is one coerced argument. Exactly one field is meaningful
// depending on Kind; Str always holds the raw token.
type Arg struct {
	Kind Kind
	Str  string
	Int  int64
	Bool bool
}

func (a Arg) String() string {
	switch a.Kind {
	case KindInt:
		return strconv.FormatInt(a.Int, 10)
	case KindBool:
		return strconv.FormatBool(a.Bool)
	default:
		return a.Str
	}
}

// Handler executes one command. Human-readable output goes to w.
type Handler func(w io.Writer, args []Arg) error

// Spec describes one registered command.
type Spec struct {
	Name    string
	Help    string
	Usage   string
	MinArgs int
	MaxArgs int
	Hidden  bool
	Run     Handler
}

// Stats are the aggregate dispatch counters.
type Stats struct {
	Registered int    `json:"registered"`
	Total      uint64 `json:"total"`
	Successful uint64 `json:"successful"`
	Failed     uint64 `json:"failed"`
	Unknown    uint64 `json:"unknown"`
	ArgErrors  uint64 `json:"arg_errors"`
}

// Engine dispatches command lines against a bounded registration table.
type Engine struct {
	mu     sync.Mutex
	cmds   []Spec
	hist   [HistoryDepth]string
	hHead  int
	hCount int

	total, ok, failed, unknown, argErrors uint64
}

// NewEngine returns an empty engine. Builtins are opt-in via RegisterBuiltins.
func NewEngine() *Engine {
	return &Engine{
		cmds: make([]Spec, 0, MaxCommands),
	}
}

// Register adds one command. Names are matched case-insensitively.
func (e *Engine) Register(spec Spec) error {
	if spec.Name == "" || spec.Run == nil {
		return errors.New("command: spec requires name and handler")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.cmds) >= MaxCommands {
		return ErrTableFull
	}
	e.cmds = append(e.cmds, spec)
	return nil
}

// Execute parses and dispatches one command line, writing human output
// to w. Unknown commands and argument-count violations are reported on
// w and returned as errors.
func (e *Engine) Execute(line string, w io.Writer) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	tokens := tokenize(line, MaxArgs+1)
	if len(tokens) == 0 {
		return nil
	}

	e.mu.Lock()
	e.addHistory(line)
	e.total++
	spec, found := e.find(tokens[0])
	if !found {
		e.unknown++
		e.mu.Unlock()
		fmt.Fprintf(w, "Unknown command: %q. Type 'help'.\n", tokens[0])
		return fmt.Errorf("%w: %s", ErrUnknownCommand, tokens[0])
	}
	e.mu.Unlock()

	if len(tokens) > 1 && tokens[1] == "--help" {
		usage := spec.Usage
		if usage == "" {
			usage = spec.Name
		}
		fmt.Fprintf(w, "Usage: %s\n", usage)
		if spec.Help != "" {
			fmt.Fprintf(w, "  %s\n", spec.Help)
		}
		return nil
	}

	argTokens := tokens[1:]
	if len(argTokens) < spec.MinArgs || len(argTokens) > spec.MaxArgs {
		e.mu.Lock()
		e.argErrors++
		e.mu.Unlock()
		fmt.Fprintf(w, "Wrong argument count for %q (min %d, max %d, got %d)\n",
			spec.Name, spec.MinArgs, spec.MaxArgs, len(argTokens))
		return ErrBadArgCount
	}

	args := make([]Arg, len(argTokens))
	for i, tok := range argTokens {
		args[i] = coerce(tok)
	}

	err := spec.Run(w, args)

	e.mu.Lock()
	if err != nil {
		e.failed++
	} else {
		e.ok++
	}
	e.mu.Unlock()
	return err
}

// History returns the retained command lines, oldest first.
func (e *Engine) History() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, e.hCount)
	start := (e.hHead - e.hCount + HistoryDepth) % HistoryDepth
	for i := 0; i < e.hCount; i++ {
		out = append(out, e.hist[(start+i)%HistoryDepth])
	}
	return out
}

// Stats returns the dispatch counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Stats{
		Registered: len(e.cmds),
		Total:      e.total,
		Successful: e.ok,
		Failed:     e.failed,
		Unknown:    e.unknown,
		ArgErrors:  e.argErrors,
	}
}

// find resolves a name case-insensitively. Callers must hold e.mu.
func (e *Engine) find(name string) (Spec, bool) {
	for _, c := range e.cmds {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Spec{}, false
}

// addHistory appends a line, skipping immediate duplicates.
// Callers must hold e.mu.
func (e *Engine) addHistory(line string) {
	if e.hCount > 0 {
		prev := (e.hHead - 1 + HistoryDepth) % HistoryDepth
		if e.hist[prev] == line {
			return
		}
	}

	e.hist[e.hHead] = line
	e.hHead = (e.hHead + 1) % HistoryDepth
	if e.hCount < HistoryDepth {
		e.hCount++
	}
}

// tokenize splits a line on whitespace, honoring double-quoted tokens.
func tokenize(line string, max int) []string {
	var tokens []string
	i := 0
	for i < len(line) && len(tokens) < max {
		for i < len(line) && unicode.IsSpace(rune(line[i])) {
			i++
		}
		if i >= len(line) {
			break
		}

		if line[i] == '"' {
			i++
			end := strings.IndexByte(line[i:], '"')
			if end < 0 {
				tokens = append(tokens, line[i:])
				break
			}
			tokens = append(tokens, line[i:i+end])
			i += end + 1
			continue
		}

		start := i
		for i < len(line) && !unicode.IsSpace(rune(line[i])) {
			i++
		}
		tokens = append(tokens, line[start:i])
	}
	return tokens
}

// coerce maps a token to the most specific argument kind:
// bool words first, then integers (any strconv base prefix), else string.
func coerce(tok string) Arg {
	switch tok {
	case "true", "on", "yes":
		return Arg{Kind: KindBool, Str: tok, Bool: true}
	case "false", "off", "no":
		return Arg{Kind: KindBool, Str: tok}
	}

	if n, err := strconv.ParseInt(tok, 0, 64); err == nil {
		return Arg{Kind: KindInt, Str: tok, Int: n}
	}

	return Arg{Kind: KindString, Str: tok}
}
