// Package options holds the engine's console variables: named, typed
// settings that players change with "set" and that persist between runs.
package options

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/ingenium/internal/command"
)

// Type is the value type of a variable.
type Type int

const (
	TypeBool Type = iota
	TypeInt
	TypeFloat
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	default:
		return "string"
	}
}

// ErrUnknownVar is returned for names that were never defined.
var ErrUnknownVar = errors.New("unknown variable")

// Var is a single console variable. Value is kept in canonical text form.
type Var struct {
	Name    string
	Type    Type
	Value   string
	Default string
	Help    string

	onChange []func(*Var)
}

// Bool returns the value as a bool.
func (v *Var) Bool() bool {
	b, _ := strconv.ParseBool(v.Value)
	return b
}

// Int returns the value as an int.
func (v *Var) Int() int {
	n, _ := strconv.Atoi(v.Value)
	return n
}

// Float returns the value as a float64.
func (v *Var) Float() float64 {
	f, _ := strconv.ParseFloat(v.Value, 64)
	return f
}

// Store is the set of defined variables. Main thread only.
type Store struct {
	vars map[string]*Var
	log  *zap.Logger
}

// New creates an empty store.
func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{vars: make(map[string]*Var), log: log}
}

// DefineBool defines a bool variable.
func (s *Store) DefineBool(name string, def bool, help string) *Var {
	return s.define(name, TypeBool, strconv.FormatBool(def), help)
}

// DefineInt defines an int variable.
func (s *Store) DefineInt(name string, def int, help string) *Var {
	return s.define(name, TypeInt, strconv.Itoa(def), help)
}

// DefineFloat defines a float variable.
func (s *Store) DefineFloat(name string, def float64, help string) *Var {
	return s.define(name, TypeFloat, formatFloat(def), help)
}

// DefineString defines a string variable.
func (s *Store) DefineString(name, def, help string) *Var {
	return s.define(name, TypeString, def, help)
}

// define registers a variable, returning the existing one when name is
// already defined so subsystems can share a variable.
func (s *Store) define(name string, t Type, def, help string) *Var {
	if v, ok := s.vars[name]; ok {
		if v.Type != t {
			s.log.Warn("variable redefined with a different type",
				zap.String("var", name),
				zap.Stringer("have", v.Type),
				zap.Stringer("want", t),
			)
		}
		return v
	}
	v := &Var{Name: name, Type: t, Value: def, Default: def, Help: help}
	s.vars[name] = v
	return v
}

// Get returns the variable called name.
func (s *Store) Get(name string) (*Var, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Set parses value according to the variable's type, stores it and
// notifies change listeners when it differs from the current value.
func (s *Store) Set(name, value string) error {
	v, ok := s.vars[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVar, name)
	}
	canon, err := canonical(v.Type, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	if canon == v.Value {
		return nil
	}
	v.Value = canon
	s.log.Debug("variable changed", zap.String("var", name), zap.String("value", canon))
	for _, fn := range v.onChange {
		fn(v)
	}
	return nil
}

// Reset restores a variable to its default.
func (s *Store) Reset(name string) error {
	v, ok := s.vars[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVar, name)
	}
	return s.Set(name, v.Default)
}

// OnChange subscribes fn to changes of name.
func (s *Store) OnChange(name string, fn func(*Var)) error {
	v, ok := s.vars[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVar, name)
	}
	v.onChange = append(v.onChange, fn)
	return nil
}

// Names returns defined variable names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads a flat YAML map of name: value. Unknown names are kept out
// and logged; a missing file is not an error.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse options %s: %w", path, err)
	}

	for name, value := range raw {
		if err := s.Set(name, value); err != nil {
			s.log.Warn("skipping stored option", zap.String("var", name), zap.Error(err))
		}
	}
	return nil
}

// Save writes every variable that differs from its default.
func (s *Store) Save(path string) error {
	out := map[string]string{}
	for name, v := range s.vars {
		if v.Value != v.Default {
			out[name] = v.Value
		}
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// RegisterCommands installs set, vars, resetvar and saveopts. saveopts
// writes to path.
func (s *Store) RegisterCommands(reg *command.Registry, path string) error {
	return multierr.Combine(
		reg.Register("set", command.Signature{command.KindString, command.KindText}, func(args []command.Value) {
			name := args[0].Text
			if err := s.Set(name, args[1].Text); err != nil {
				s.log.Warn("set failed", zap.Error(err))
				return
			}
			v := s.vars[name]
			s.log.Info(v.Name + " = " + v.Value)
		}),
		command.Register0(reg, "vars", func() {
			for _, name := range s.Names() {
				v := s.vars[name]
				s.log.Info(fmt.Sprintf("%s = %s (%s, default %s) %s", v.Name, v.Value, v.Type, v.Default, v.Help))
			}
		}),
		command.Register1(reg, "resetvar", func(name string) {
			if err := s.Reset(name); err != nil {
				s.log.Warn("reset failed", zap.Error(err))
			}
		}),
		command.Register0(reg, "saveopts", func() {
			if err := s.Save(path); err != nil {
				s.log.Error("saving options failed", zap.String("path", path), zap.Error(err))
				return
			}
			s.log.Info("options saved", zap.String("path", path))
		}),
	)
}

func canonical(t Type, value string) (string, error) {
	switch t {
	case TypeBool:
		switch strings.ToLower(value) {
		case "on", "yes":
			return "true", nil
		case "off", "no":
			return "false", nil
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", fmt.Errorf("%q is not a bool", value)
		}
		return strconv.FormatBool(b), nil
	case TypeInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return "", fmt.Errorf("%q is not an int", value)
		}
		return strconv.Itoa(n), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return "", fmt.Errorf("%q is not a float", value)
		}
		return formatFloat(f), nil
	default:
		return value, nil
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
