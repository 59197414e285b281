package console

import (
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/ingenium/internal/command"
)

func newConsole(opts Options) (*Console, *command.Processor) {
	p := command.NewProcessor(nil)
	return New(p, opts, nil), p
}

func TestEditing(t *testing.T) {
	c, _ := newConsole(Options{})

	c.InsertText("scené")
	c.Backspace()
	c.InsertText("e 2")
	if got := c.Line(); got != "scene 2" {
		t.Errorf("Line() = %q, want %q", got, "scene 2")
	}

	c.Backspace()
	c.Backspace()
	c.Backspace()
	c.Backspace()
	c.Backspace()
	c.Backspace()
	c.Backspace()
	c.Backspace() // past the start
	if got := c.Line(); got != "" {
		t.Errorf("Line() = %q, want empty", got)
	}
}

func TestSubmitBuffersAndEchoes(t *testing.T) {
	c, p := newConsole(Options{})

	var got []int
	if err := command.Register1(p.Registry, "fps", func(n int) { got = append(got, n) }); err != nil {
		t.Fatal(err)
	}

	c.InsertText("  fps 30 ")
	c.Submit()
	if c.Line() != "" {
		t.Errorf("line not cleared: %q", c.Line())
	}
	if p.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", p.Pending())
	}
	p.Update(0)
	if !reflect.DeepEqual(got, []int{30}) {
		t.Errorf("handler args = %v", got)
	}

	if sb := c.Scrollback(); !reflect.DeepEqual(sb, []string{"> fps 30"}) {
		t.Errorf("Scrollback() = %v", sb)
	}

	c.InsertText("   ")
	c.Submit()
	if p.Pending() != 0 || len(c.History()) != 1 {
		t.Errorf("blank submit was recorded: pending=%d history=%v", p.Pending(), c.History())
	}
}

func TestHistoryBounded(t *testing.T) {
	c, _ := newConsole(Options{HistorySize: 3})

	for _, line := range []string{"a", "b", "b", "c", "d"} {
		c.InsertText(line)
		c.Submit()
	}
	if got, want := c.History(), []string{"b", "c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("History() = %v, want %v", got, want)
	}
}

func TestHistoryNavigation(t *testing.T) {
	c, _ := newConsole(Options{})
	for _, line := range []string{"one", "two", "three"} {
		c.InsertText(line)
		c.Submit()
	}

	steps := []struct {
		prev bool
		want string
	}{
		{true, "three"},
		{true, "two"},
		{true, "one"},
		{true, "one"}, // stays on the oldest
		{false, "two"},
		{false, "three"},
		{false, ""},
		{false, ""},
	}
	for i, s := range steps {
		if s.prev {
			c.HistoryPrev()
		} else {
			c.HistoryNext()
		}
		if got := c.Line(); got != s.want {
			t.Errorf("step %d: Line() = %q, want %q", i, got, s.want)
		}
	}
}

func TestScrollbackBounded(t *testing.T) {
	c, _ := newConsole(Options{ScrollbackSize: 2})
	c.Print("first\nsecond")
	c.Print("third")
	if got, want := c.Scrollback(), []string{"second", "third"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Scrollback() = %v, want %v", got, want)
	}
	c.Clear()
	if len(c.Scrollback()) != 0 {
		t.Error("Clear left lines")
	}
}

func TestLogHook(t *testing.T) {
	c, _ := newConsole(Options{})
	core, _ := observer.New(zapcore.DebugLevel)
	log := zap.New(core, zap.Hooks(c.Hook))

	log.Info("not mirrored")
	log.Warn("unknown command")
	log.Error("scene stack halted")

	want := []string{"WARN: unknown command", "ERROR: scene stack halted"}
	if got := c.Scrollback(); !reflect.DeepEqual(got, want) {
		t.Errorf("Scrollback() = %v, want %v", got, want)
	}
}

func TestConsoleCommands(t *testing.T) {
	c, p := newConsole(Options{})
	if err := c.RegisterCommands(p.Registry); err != nil {
		t.Fatal(err)
	}

	p.Buffer("echo hello\ntoggleconsole\necho 42\necho hello world  3.5")
	p.Flush()
	if !c.IsOpen() {
		t.Error("toggleconsole did not open the console")
	}
	if got, want := c.Scrollback(), []string{"hello", "42", "hello world 3.5"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Scrollback() = %v, want %v", got, want)
	}

	c.InsertText("echo hi")
	c.Submit()
	p.Buffer("clear")
	p.Flush()
	if len(c.Scrollback()) != 0 {
		t.Errorf("clear left %v", c.Scrollback())
	}

	p.Buffer("history")
	p.Flush()
	if got, want := c.Scrollback(), []string{"  echo hi"}; !reflect.DeepEqual(got, want) {
		t.Errorf("history output = %v, want %v", got, want)
	}

	if err := c.RegisterCommands(p.Registry); err == nil {
		t.Error("second RegisterCommands should fail on duplicates")
	}
}
