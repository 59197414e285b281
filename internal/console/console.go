// Package console implements the in-game text console: a single editable
// input line, a bounded command history and a bounded scrollback that
// also mirrors warnings from the log.
package console

import (
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/ingenium/internal/command"
)

// Prompt prefixes submitted lines in the scrollback.
const Prompt = "> "

// Options bounds the console buffers.
type Options struct {
	HistorySize    int
	ScrollbackSize int
}

// DefaultOptions returns the sizes used when config leaves them unset.
func DefaultOptions() Options {
	return Options{HistorySize: 64, ScrollbackSize: 256}
}

// Console queues submitted lines into a command Processor.
//
// Editing and submission happen on the main thread. The scrollback is
// guarded because the log hook can fire from any goroutine.
type Console struct {
	proc *command.Processor
	opts Options
	log  *zap.Logger

	open    bool
	line    []rune
	history []string
	histPos int

	mu         sync.Mutex
	scrollback []string
}

// New creates a closed console feeding proc.
func New(proc *command.Processor, opts Options, log *zap.Logger) *Console {
	def := DefaultOptions()
	if opts.HistorySize <= 0 {
		opts.HistorySize = def.HistorySize
	}
	if opts.ScrollbackSize <= 0 {
		opts.ScrollbackSize = def.ScrollbackSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Console{proc: proc, opts: opts, log: log}
}

// IsOpen reports whether the console takes text input.
func (c *Console) IsOpen() bool { return c.open }

// Toggle opens or closes the console and returns the new state.
func (c *Console) Toggle() bool {
	c.open = !c.open
	c.log.Debug("console toggled", zap.Bool("open", c.open))
	return c.open
}

// Line returns the text being edited.
func (c *Console) Line() string { return string(c.line) }

// InsertText appends typed text to the input line.
func (c *Console) InsertText(text string) {
	c.line = append(c.line, []rune(text)...)
}

// Backspace deletes the last character of the input line.
func (c *Console) Backspace() {
	if len(c.line) > 0 {
		c.line = c.line[:len(c.line)-1]
	}
}

// Submit buffers the input line for execution, echoes it and records it
// in history. An all-blank line is discarded.
func (c *Console) Submit() {
	text := strings.TrimSpace(string(c.line))
	c.line = c.line[:0]
	c.histPos = 0
	if text == "" {
		return
	}

	c.Print(Prompt + text)
	c.proc.Buffer(text)

	if n := len(c.history); n > 0 && c.history[n-1] == text {
		return
	}
	c.history = append(c.history, text)
	if over := len(c.history) - c.opts.HistorySize; over > 0 {
		c.history = append(c.history[:0], c.history[over:]...)
	}
}

// HistoryPrev replaces the input line with the previous history entry.
func (c *Console) HistoryPrev() {
	if c.histPos >= len(c.history) {
		return
	}
	c.histPos++
	c.line = []rune(c.history[len(c.history)-c.histPos])
}

// HistoryNext walks back towards the newest entry, ending on a blank line.
func (c *Console) HistoryNext() {
	if c.histPos == 0 {
		return
	}
	c.histPos--
	if c.histPos == 0 {
		c.line = c.line[:0]
		return
	}
	c.line = []rune(c.history[len(c.history)-c.histPos])
}

// History returns submitted lines, oldest first.
func (c *Console) History() []string {
	return append([]string(nil), c.history...)
}

// Print appends text to the scrollback, one entry per line.
func (c *Console) Print(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, line := range strings.Split(text, "\n") {
		c.scrollback = append(c.scrollback, line)
	}
	if over := len(c.scrollback) - c.opts.ScrollbackSize; over > 0 {
		c.scrollback = append(c.scrollback[:0], c.scrollback[over:]...)
	}
}

// Scrollback returns a copy of the visible output, oldest first.
func (c *Console) Scrollback() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.scrollback...)
}

// Clear empties the scrollback.
func (c *Console) Clear() {
	c.mu.Lock()
	c.scrollback = nil
	c.mu.Unlock()
}

// Hook mirrors log entries at Warn and above into the scrollback. Pass
// it to zap.Hooks.
func (c *Console) Hook(e zapcore.Entry) error {
	if e.Level < zapcore.WarnLevel {
		return nil
	}
	c.Print(e.Level.CapitalString() + ": " + e.Message)
	return nil
}

// RegisterCommands installs echo, clear, toggleconsole and history.
func (c *Console) RegisterCommands(reg *command.Registry) error {
	return multierr.Combine(
		command.RegisterText(reg, "echo", c.Print),
		command.Register0(reg, "clear", c.Clear),
		command.Register0(reg, "toggleconsole", func() { c.Toggle() }),
		command.Register0(reg, "history", func() {
			for _, line := range c.History() {
				c.Print("  " + line)
			}
		}),
	)
}
