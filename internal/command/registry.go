// Package command implements the engine's console command system: a
// registry of named, typed handlers and a processor that queues raw text
// lines and dispatches them one per frame.
//
// Handlers are stored type-erased together with their Signature. Every
// invocation is checked against it, so a line with the wrong shape is
// rejected with ErrSignatureMismatch instead of reaching the handler.
package command

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Handler receives arguments already converted to the registered Signature.
type Handler func(args []Value)

// Param lists the Go types a typed handler may take.
type Param interface {
	string | int | float64
}

type entry struct {
	sig Signature
	fn  Handler
}

// Registry maps command names to handlers. It is owned by the main
// thread and not safe for concurrent use.
type Registry struct {
	commands map[string]*entry
	log      *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		commands: make(map[string]*entry),
		log:      log,
	}
}

// Register adds a handler under name. A name can only be registered once;
// later registrations fail with ErrDuplicateCommand and the first stays.
func (r *Registry) Register(name string, sig Signature, fn Handler) error {
	if name == "" {
		return ErrEmptyName
	}
	if fn == nil {
		return fmt.Errorf("command %q: nil handler", name)
	}
	for i, k := range sig {
		if k == KindText && i != len(sig)-1 {
			return fmt.Errorf("command %q: text argument must be last", name)
		}
	}
	if existing, ok := r.commands[name]; ok {
		r.log.Warn("command already registered",
			zap.String("command", name),
			zap.Stringer("signature", existing.sig),
		)
		return fmt.Errorf("%w: %q", ErrDuplicateCommand, name)
	}
	r.commands[name] = &entry{sig: append(Signature(nil), sig...), fn: fn}
	r.log.Debug("command registered", zap.String("command", name), zap.Stringer("signature", sig))
	return nil
}

// Unregister removes a command. Removing an absent name is a no-op.
func (r *Registry) Unregister(name string) {
	delete(r.commands, name)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.commands[name]
	return ok
}

// Lookup returns the signature registered under name.
func (r *Registry) Lookup(name string) (Signature, bool) {
	e, ok := r.commands[name]
	if !ok {
		return nil, false
	}
	return e.sig, true
}

// Names returns all registered command names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.commands)
}

// Execute runs the command registered under name. Failures are logged
// and returned; they never propagate as panics.
func (r *Registry) Execute(name string, args ...Value) error {
	e, ok := r.commands[name]
	if !ok {
		r.log.Warn("unknown command", zap.String("command", name))
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	converted, ok := e.sig.match(args)
	if !ok {
		got := kindsOf(args)
		r.log.Warn("command signature mismatch",
			zap.String("command", name),
			zap.Stringer("want", e.sig),
			zap.Stringer("got", got),
		)
		return fmt.Errorf("%w: %q wants %s, got %s", ErrSignatureMismatch, name, e.sig, got)
	}

	return r.safeCall(name, e.fn, converted)
}

// safeCall runs a handler with panic recovery so a broken command cannot
// take down the frame loop.
func (r *Registry) safeCall(name string, fn Handler, args []Value) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("command handler panic recovered",
				zap.String("command", name),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("%w: %q: %v", ErrHandlerPanic, name, rec)
		}
	}()
	fn(args)
	return nil
}

// Register0 registers a command that takes no arguments.
func Register0(r *Registry, name string, fn func()) error {
	if fn == nil {
		return r.Register(name, nil, nil)
	}
	return r.Register(name, Signature{}, func([]Value) { fn() })
}

// Register1 registers a one-argument command; the argument kind follows A.
func Register1[A Param](r *Registry, name string, fn func(A)) error {
	if fn == nil {
		return r.Register(name, nil, nil)
	}
	return r.Register(name, Signature{kindOf[A]()}, func(args []Value) {
		fn(arg[A](args[0]))
	})
}

// Register2 registers a two-argument command.
func Register2[A, B Param](r *Registry, name string, fn func(A, B)) error {
	if fn == nil {
		return r.Register(name, nil, nil)
	}
	return r.Register(name, Signature{kindOf[A](), kindOf[B]()}, func(args []Value) {
		fn(arg[A](args[0]), arg[B](args[1]))
	})
}

// Register3 registers a three-argument command.
func Register3[A, B, C Param](r *Registry, name string, fn func(A, B, C)) error {
	if fn == nil {
		return r.Register(name, nil, nil)
	}
	return r.Register(name, Signature{kindOf[A](), kindOf[B](), kindOf[C]()}, func(args []Value) {
		fn(arg[A](args[0]), arg[B](args[1]), arg[C](args[2]))
	})
}

// RegisterText registers a command that takes the rest of the line as
// one string, e.g. "echo hello world".
func RegisterText(r *Registry, name string, fn func(string)) error {
	if fn == nil {
		return r.Register(name, nil, nil)
	}
	return r.Register(name, Signature{KindText}, func(args []Value) {
		fn(args[0].Text)
	})
}

func kindOf[T Param]() Kind {
	var zero T
	switch any(zero).(type) {
	case int:
		return KindInt
	case float64:
		return KindFloat
	default:
		return KindString
	}
}

func arg[T Param](v Value) T {
	var out T
	switch p := any(&out).(type) {
	case *string:
		*p = v.Text
	case *int:
		*p = v.Int
	case *float64:
		*p = v.Float
	}
	return out
}
