package command

import (
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap/zapcore"
)

func drain(p *Processor) []string {
	var lines []string
	for len(p.pending) > 0 {
		lines = append(lines, p.pending[0])
		p.pending = p.pending[1:]
	}
	return lines
}

func TestBufferSplitsLines(t *testing.T) {
	p := NewProcessor(nil)
	p.Buffer("cmdA\n\n  cmdB arg  \r\n\ncmdC")

	want := []string{"cmdA", "cmdB arg", "cmdC"}
	if got := drain(p); !reflect.DeepEqual(got, want) {
		t.Errorf("queued = %q, want %q", got, want)
	}
}

func TestUpdateOnePerCall(t *testing.T) {
	p := NewProcessor(nil)

	var order []string
	Register0(p.Registry, "cmdA", func() { order = append(order, "A") })
	Register0(p.Registry, "cmdB", func() { order = append(order, "B") })

	p.Buffer("cmdA\ncmdB")

	p.Update(0.016)
	if !reflect.DeepEqual(order, []string{"A"}) {
		t.Fatalf("after first Update: %v, want [A]", order)
	}
	if p.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", p.Pending())
	}

	p.Update(0.016)
	if !reflect.DeepEqual(order, []string{"A", "B"}) {
		t.Fatalf("after second Update: %v, want [A B]", order)
	}

	// Empty queue is a no-op.
	p.Update(0.016)
	if len(order) != 2 {
		t.Errorf("extra Update ran a command")
	}
}

func TestBufferArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
		warn int
	}{
		{
			name: "resolution and fullscreen",
			args: []string{"./app", "-resolution", "1920", "1080", "-fullscreen"},
			want: []string{"resolution 1920 1080", "fullscreen"},
		},
		{
			name: "prefixed tokens with inline args",
			args: []string{"./app", "-res 800 600", "-fullscreen"},
			want: []string{"res 800 600", "fullscreen"},
		},
		{
			name: "leading bare token",
			args: []string{"./app", "stray", "-stats"},
			want: []string{"stats"},
			warn: 1,
		},
		{
			name: "double dash",
			args: []string{"./app", "--windowed"},
			want: []string{"windowed"},
		},
		{
			name: "lone dash",
			args: []string{"./app", "-", "x", "-quit"},
			want: []string{"quit"},
			warn: 2,
		},
		{
			name: "program only",
			args: []string{"./app"},
		},
		{
			name: "nothing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, logs := newObserved()
			p := NewProcessor(log)
			p.BufferArgs(tt.args)

			got := drain(p)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("queued = %q, want %q", got, tt.want)
			}
			if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != tt.warn {
				t.Errorf("warnings = %d, want %d", n, tt.warn)
			}
		})
	}
}

func TestStartupResolutionScenario(t *testing.T) {
	p := NewProcessor(nil)

	var w, h int
	fullscreen := 0
	Register2(p.Registry, "res", func(width, height int) { w, h = width, height })
	Register0(p.Registry, "fullscreen", func() { fullscreen++ })

	p.BufferArgs([]string{"./app", "-res", "800", "600", "-fullscreen"})
	if p.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", p.Pending())
	}

	p.Update(0)
	if w != 800 || h != 600 {
		t.Errorf("res = %d,%d, want 800,600", w, h)
	}
	if fullscreen != 0 {
		t.Error("fullscreen ran in the same Update as res")
	}
	p.Update(0)
	if fullscreen != 1 {
		t.Errorf("fullscreen ran %d times, want 1", fullscreen)
	}
}

func TestProcessArityRules(t *testing.T) {
	p := NewProcessor(nil)

	zero := 0
	Register0(p.Registry, "name", func() { zero++ })

	if err := p.Process("name"); err != nil {
		t.Fatalf("Process(name): %v", err)
	}
	if zero != 1 {
		t.Fatalf("zero-arg handler ran %d times, want 1", zero)
	}

	err := p.Process("name extra")
	if !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("Process(name extra) error = %v, want ErrSignatureMismatch", err)
	}
	err = p.Process("name extra more")
	if !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("Process(name extra more) error = %v, want ErrSignatureMismatch", err)
	}
	if zero != 1 {
		t.Errorf("zero-arg handler ran with dropped arguments")
	}
}

func TestProcessTyping(t *testing.T) {
	p := NewProcessor(nil)

	var got []Value
	sig, _ := ParseSignature("sifsi")
	p.Register("probe", sig, func(args []Value) { got = args })

	if err := p.Process("probe  map01   3   0.5  v1.x -7"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d args", len(got))
	}
	if got[0].Text != "map01" || got[1].Int != 3 || got[2].Float != 0.5 || got[3].Text != "v1.x" || got[4].Int != -7 {
		t.Errorf("args = %+v", got)
	}
}

func TestProcessEmpty(t *testing.T) {
	log, logs := newObserved()
	p := NewProcessor(log)

	for _, line := range []string{"", "   ", "\t"} {
		if err := p.Process(line); err != nil {
			t.Errorf("Process(%q) = %v, want nil", line, err)
		}
	}
	if logs.Len() != 0 {
		t.Errorf("empty lines logged %d entries", logs.Len())
	}
}

func TestProcessParseFailureContinues(t *testing.T) {
	log, logs := newObserved()
	p := NewProcessor(log)

	var ran []string
	Register1(p.Registry, "gamma", func(f float64) { ran = append(ran, "gamma") })
	Register0(p.Registry, "next", func() { ran = append(ran, "next") })

	p.Buffer("gamma 1.2.3\nmissing\nnext")
	p.Update(0)
	p.Update(0)
	p.Update(0)

	if !reflect.DeepEqual(ran, []string{"next"}) {
		t.Errorf("ran = %v, want [next]", ran)
	}
	if logs.FilterLevelExact(zapcore.ErrorLevel).FilterMessage("command argument parse failed").Len() != 1 {
		t.Error("expected one parse failure at error level")
	}
	if logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("unknown command").Len() != 1 {
		t.Error("expected one unknown command warning")
	}
}

func TestFlush(t *testing.T) {
	p := NewProcessor(nil)

	ran := 0
	Register0(p.Registry, "again", func() {
		ran++
		p.Buffer("again")
	})

	p.Buffer("again\nagain\nagain")
	if n := p.Flush(); n != 3 {
		t.Errorf("Flush ran %d, want 3", n)
	}
	if ran != 3 {
		t.Errorf("handler ran %d times, want 3", ran)
	}
	// Lines queued during Flush wait for the next frame.
	if p.Pending() != 3 {
		t.Errorf("pending = %d, want 3", p.Pending())
	}
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		tok     string
		kind    Kind
		wantErr bool
	}{
		{"hello", KindString, false},
		{"42", KindInt, false},
		{"-42", KindInt, false},
		{"+7", KindInt, false},
		{"0.5", KindFloat, false},
		{".5", KindFloat, false},
		{"-1.5e3", KindFloat, false},
		{"1.2.3", KindFloat, true},
		{"99999999999999999999999", KindInt, true},
		{"file.txt", KindString, false},
		{"v1.2", KindString, false},
		{"-", KindString, false},
		{".", KindString, false},
		{"1e5", KindString, false},
	}

	for _, tt := range tests {
		v, err := ParseToken(tt.tok)
		if tt.wantErr {
			if !errors.Is(err, ErrParseFailure) {
				t.Errorf("ParseToken(%q) error = %v, want ErrParseFailure", tt.tok, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseToken(%q) error = %v", tt.tok, err)
			continue
		}
		if v.Kind != tt.kind {
			t.Errorf("ParseToken(%q) kind = %v, want %v", tt.tok, v.Kind, tt.kind)
		}
		if v.Text != tt.tok {
			t.Errorf("ParseToken(%q) text = %q", tt.tok, v.Text)
		}
	}
}

func TestParseSignature(t *testing.T) {
	sig, err := ParseSignature("")
	if err != nil || len(sig) != 0 {
		t.Errorf("empty tag = %v, %v", sig, err)
	}
	if _, err := ParseSignature("sx"); err == nil {
		t.Error("expected error for unknown kind")
	}
	sig, _ = ParseSignature("fis")
	if sig.String() != "(float, int, string)" {
		t.Errorf("String() = %q", sig.String())
	}
}
