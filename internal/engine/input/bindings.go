package input

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/ingenium/internal/command"
)

// ErrUnknownKey is returned when a key name is not recognised.
var ErrUnknownKey = errors.New("unknown key")

// Bindings maps key names to command lines.
type Bindings struct {
	keys  map[string]string
	valid func(key string) bool
	log   *zap.Logger
}

// NewBindings creates an empty table. valid checks key names; nil
// accepts any non-empty name.
func NewBindings(valid func(key string) bool, log *zap.Logger) *Bindings {
	if valid == nil {
		valid = func(key string) bool { return key != "" }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bindings{keys: make(map[string]string), valid: valid, log: log}
}

// NormalizeKey lower-cases a key name.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Bind maps key to line, replacing any previous binding.
func (b *Bindings) Bind(key, line string) error {
	key = NormalizeKey(key)
	if !b.valid(key) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return fmt.Errorf("bind %s: empty command", key)
	}
	b.keys[key] = line
	b.log.Debug("key bound", zap.String("key", key), zap.String("command", line))
	return nil
}

// Unbind removes a binding. Unbinding a free key is a no-op.
func (b *Bindings) Unbind(key string) {
	delete(b.keys, NormalizeKey(key))
}

// Lookup returns the line bound to key.
func (b *Bindings) Lookup(key string) (string, bool) {
	line, ok := b.keys[NormalizeKey(key)]
	return line, ok
}

// Keys returns bound key names in sorted order.
func (b *Bindings) Keys() []string {
	keys := make([]string, 0, len(b.keys))
	for k := range b.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dispatch queues the bound line for every fresh key press in events.
// Key repeats are ignored. Returns how many lines were queued.
func (b *Bindings) Dispatch(events []Event, proc *command.Processor) int {
	n := 0
	for _, e := range events {
		if e.Type != EventKeyDown || e.Repeat {
			continue
		}
		if line, ok := b.keys[e.Key]; ok {
			proc.Buffer(line)
			n++
		}
	}
	return n
}

// RegisterCommands installs bind, unbind and binds. Everything after the
// key is the bound line, so "bind f5 scene Sandbox" works.
func (b *Bindings) RegisterCommands(reg *command.Registry) error {
	return multierr.Combine(
		reg.Register("bind", command.Signature{command.KindString, command.KindText}, func(args []command.Value) {
			if err := b.Bind(args[0].Text, args[1].Text); err != nil {
				b.log.Warn("bind failed", zap.Error(err))
			}
		}),
		command.Register1(reg, "unbind", func(key string) { b.Unbind(key) }),
		command.Register0(reg, "binds", func() {
			for _, k := range b.Keys() {
				b.log.Info(fmt.Sprintf("%s -> %s", k, b.keys[k]))
			}
		}),
	)
}
