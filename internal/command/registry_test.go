package command

import (
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestExecuteUnknown(t *testing.T) {
	log, logs := newObserved()
	r := NewRegistry(log)

	called := false
	if err := Register0(r, "known", func() { called = true }); err != nil {
		t.Fatalf("Register0: %v", err)
	}

	for _, name := range []string{"missing", "KNOWN", "known2", ""} {
		err := r.Execute(name, Int(1))
		if !errors.Is(err, ErrUnknownCommand) {
			t.Errorf("Execute(%q) error = %v, want ErrUnknownCommand", name, err)
		}
	}
	if called {
		t.Error("unknown command invoked a registered handler")
	}

	warns := logs.FilterMessage("unknown command").FilterLevelExact(zapcore.WarnLevel)
	if warns.Len() != 4 {
		t.Errorf("unknown command warnings = %d, want 4", warns.Len())
	}
}

func TestExecuteSignatureMismatch(t *testing.T) {
	log, logs := newObserved()
	r := NewRegistry(log)

	calls := 0
	Register0(r, "stats", func() { calls++ })
	Register2(r, "res", func(w, h int) { calls++ })
	Register1(r, "volume", func(v float64) { calls++ })

	tests := []struct {
		name string
		args []Value
	}{
		{"stats", []Value{String("extra")}},
		{"res", []Value{Int(800)}},
		{"res", []Value{Int(800), Int(600), Int(32)}},
		{"res", []Value{String("wide"), Int(600)}},
		{"res", []Value{Float(800.5), Int(600)}},
		{"volume", []Value{String("loud")}},
		{"volume", nil},
	}

	for _, tt := range tests {
		err := r.Execute(tt.name, tt.args...)
		if !errors.Is(err, ErrSignatureMismatch) {
			t.Errorf("Execute(%q, %v) error = %v, want ErrSignatureMismatch", tt.name, tt.args, err)
		}
	}
	if calls != 0 {
		t.Errorf("mismatched calls reached handlers %d times", calls)
	}
	if n := logs.FilterMessage("command signature mismatch").Len(); n != len(tests) {
		t.Errorf("mismatch warnings = %d, want %d", n, len(tests))
	}
}

func TestExecuteWidening(t *testing.T) {
	r := NewRegistry(nil)

	var gotF float64
	var gotS string
	Register1(r, "volume", func(v float64) { gotF = v })
	Register2(r, "set", func(name, value string) { gotS = name + "=" + value })

	if err := r.Execute("volume", Int(1)); err != nil {
		t.Fatalf("int to float: %v", err)
	}
	if gotF != 1.0 {
		t.Errorf("volume = %v, want 1", gotF)
	}

	v, err := ParseToken("0.25")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Execute("set", String("gamma"), v); err != nil {
		t.Fatalf("float to string: %v", err)
	}
	if gotS != "gamma=0.25" {
		t.Errorf("set = %q, want gamma=0.25", gotS)
	}
}

func TestTypedHandlers(t *testing.T) {
	r := NewRegistry(nil)

	var (
		s1      string
		i1, i2  int
		f1      float64
		s3      string
		i3      int
		f3      float64
		invoked int
	)
	Register0(r, "none", func() { invoked++ })
	Register1(r, "say", func(s string) { s1 = s })
	Register2(r, "res", func(w, h int) { i1, i2 = w, h })
	Register1(r, "gamma", func(f float64) { f1 = f })
	Register3(r, "spawn", func(s string, n int, f float64) { s3, i3, f3 = s, n, f })

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(r.Execute("none"))
	must(r.Execute("say", String("hello")))
	must(r.Execute("res", Int(800), Int(600)))
	must(r.Execute("gamma", Float(2.2)))
	must(r.Execute("spawn", String("crate"), Int(3), Float(0.5)))

	if invoked != 1 {
		t.Errorf("none invoked %d times, want 1", invoked)
	}
	if s1 != "hello" {
		t.Errorf("say = %q", s1)
	}
	if i1 != 800 || i2 != 600 {
		t.Errorf("res = %d,%d", i1, i2)
	}
	if f1 != 2.2 {
		t.Errorf("gamma = %v", f1)
	}
	if s3 != "crate" || i3 != 3 || f3 != 0.5 {
		t.Errorf("spawn = %q %d %v", s3, i3, f3)
	}

	sig, ok := r.Lookup("spawn")
	if !ok {
		t.Fatal("spawn not found")
	}
	if want := (Signature{KindString, KindInt, KindFloat}); !reflect.DeepEqual(sig, want) {
		t.Errorf("spawn signature = %v, want %v", sig, want)
	}
	if sig.Tag() != "sif" {
		t.Errorf("spawn tag = %q, want sif", sig.Tag())
	}
}

func TestRegisterRules(t *testing.T) {
	log, logs := newObserved()
	r := NewRegistry(log)

	if err := Register0(r, "", func() {}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name error = %v, want ErrEmptyName", err)
	}

	first := 0
	if err := Register0(r, "quit", func() { first++ }); err != nil {
		t.Fatal(err)
	}
	err := Register1(r, "quit", func(string) {})
	if !errors.Is(err, ErrDuplicateCommand) {
		t.Errorf("duplicate error = %v, want ErrDuplicateCommand", err)
	}
	if logs.FilterMessage("command already registered").Len() != 1 {
		t.Error("expected one duplicate warning")
	}

	// First registration still wins.
	if err := r.Execute("quit"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first != 1 {
		t.Errorf("first handler invoked %d times, want 1", first)
	}

	if err := r.Register("nilfn", nil, nil); err == nil {
		t.Error("expected error for nil handler")
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	Register0(r, "stats", func() {})

	r.Unregister("stats")
	r.Unregister("stats")
	r.Unregister("never-registered")

	if r.Has("stats") {
		t.Error("stats still registered")
	}
	if !errors.Is(r.Execute("stats"), ErrUnknownCommand) {
		t.Error("expected unknown command after unregister")
	}

	// The name is free again.
	if err := Register0(r, "stats", func() {}); err != nil {
		t.Errorf("re-register after unregister: %v", err)
	}
}

func TestNames(t *testing.T) {
	r := NewRegistry(nil)
	for _, n := range []string{"vars", "bind", "quit", "set"} {
		Register0(r, n, func() {})
	}
	want := []string{"bind", "quit", "set", "vars"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if r.Len() != 4 {
		t.Errorf("Len() = %d, want 4", r.Len())
	}
}

func TestHandlerPanicRecovered(t *testing.T) {
	log, logs := newObserved()
	r := NewRegistry(log)
	Register0(r, "boom", func() { panic("kaboom") })

	err := r.Execute("boom")
	if !errors.Is(err, ErrHandlerPanic) {
		t.Fatalf("error = %v, want ErrHandlerPanic", err)
	}
	if logs.FilterLevelExact(zapcore.ErrorLevel).Len() != 1 {
		t.Error("expected panic logged at error level")
	}
}

func TestRawRegister(t *testing.T) {
	r := NewRegistry(nil)
	sig, err := ParseSignature("si")
	if err != nil {
		t.Fatal(err)
	}

	var got []Value
	if err := r.Register("give", sig, func(args []Value) { got = args }); err != nil {
		t.Fatal(err)
	}
	if err := r.Execute("give", String("gold"), Int(50)); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Text != "gold" || got[1].Int != 50 {
		t.Errorf("raw handler args = %+v", got)
	}
}

func TestTextArgument(t *testing.T) {
	p := NewProcessor(nil)
	var said string
	if err := RegisterText(p.Registry, "say", func(s string) { said = s }); err != nil {
		t.Fatalf("RegisterText: %v", err)
	}
	var key, line string
	if err := p.Register("alias", Signature{KindString, KindText}, func(args []Value) {
		key, line = args[0].Text, args[1].Text
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := p.Process("say hello  big 2 world 1.5"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if said != "hello big 2 world 1.5" {
		t.Errorf("say got %q", said)
	}

	if err := p.Process("alias f5 scene Sandbox"); err != nil {
		t.Fatalf("Process alias: %v", err)
	}
	if key != "f5" || line != "scene Sandbox" {
		t.Errorf("alias got (%q, %q), want (f5, scene Sandbox)", key, line)
	}

	if err := p.Process("say"); !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("say without text = %v, want ErrSignatureMismatch", err)
	}
	if err := p.Process("alias f5"); !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("alias without line = %v, want ErrSignatureMismatch", err)
	}
}

func TestTextSignatureMustEndWithText(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register("bad", Signature{KindText, KindInt}, func([]Value) {}); err == nil {
		t.Error("Register accepted text before the last argument")
	}
	if _, err := ParseSignature("ts"); err == nil {
		t.Error(`ParseSignature("ts") accepted text before the last argument`)
	}
	sig, err := ParseSignature("st")
	if err != nil {
		t.Fatalf(`ParseSignature("st"): %v`, err)
	}
	if sig.Tag() != "st" || sig.String() != "(string, text...)" {
		t.Errorf("sig = %s tag %q", sig, sig.Tag())
	}
}
