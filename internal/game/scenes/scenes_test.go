package scenes

import (
	"errors"
	"testing"

	"github.com/Faultbox/ingenium/internal/command"
	"github.com/Faultbox/ingenium/internal/scene"
)

func TestTitleMenu(t *testing.T) {
	p := command.NewProcessor(nil)
	var quit bool
	command.Register0(p.Registry, "quit", func() { quit = true })

	stack := scene.NewStack(nil, func(string) {})
	title := NewTitle(p, nil)
	if err := stack.AddActiveScene(title); err != nil {
		t.Fatal(err)
	}

	if !p.Has("menu_select") {
		t.Fatal("menu commands missing while active")
	}
	p.Buffer("menu_up\nmenu_select")
	p.Flush()
	if title.Current().Label != "Quit" {
		t.Errorf("cursor on %q, want wrap to Quit", title.Current().Label)
	}
	p.Flush()
	if !quit {
		t.Error("menu_select did not queue the item command")
	}

	p.Process("menu_down")
	if title.Selected != 0 {
		t.Errorf("Selected = %d, want 0", title.Selected)
	}
}

func TestTitleYieldsCommandsWhenPaused(t *testing.T) {
	p := command.NewProcessor(nil)
	stack := scene.NewStack(nil, func(string) {})
	title := NewTitle(p, nil)
	stack.AddActiveScene(title)
	stack.AddActiveScene(NewSandbox(p, nil, nil))

	if err := p.Process("menu_up"); !errors.Is(err, command.ErrUnknownCommand) {
		t.Errorf("menu_up while paused = %v", err)
	}

	stack.InactivateActiveScene()
	if stack.GetActiveScene() != title || !p.Has("menu_up") {
		t.Error("title did not take its commands back on resume")
	}
}

func TestSandbox(t *testing.T) {
	p := command.NewProcessor(nil)
	var cleared int
	sb := NewSandbox(p, func(r, g, b float32) { cleared++ }, nil)

	stack := scene.NewStack(nil, func(string) {})
	stack.AddActiveScene(sb)

	p.Process("sandbox_speed 2")
	stack.Update(0.5)
	stack.Draw()
	if sb.Elapsed != 1 {
		t.Errorf("Elapsed = %v, want 1", sb.Elapsed)
	}
	if cleared != 1 {
		t.Errorf("clear called %d times", cleared)
	}

	stack.ResetActiveScene()
	if sb.Elapsed != 0 || sb.Speed != 1 || sb.Resets != 1 {
		t.Errorf("after reset: elapsed=%v speed=%v resets=%d", sb.Elapsed, sb.Speed, sb.Resets)
	}

	stack.ReleaseAll()
	if p.Has("sandbox_speed") {
		t.Error("sandbox_speed left registered after release")
	}
}

func TestStaleTitleKeepsHandsOffNewerCommands(t *testing.T) {
	p := command.NewProcessor(nil)
	stack := scene.NewStack(nil, func(string) {})

	old := NewTitle(p, nil)
	stack.AddActiveScene(old)
	stack.AddActiveScene(NewSandbox(p, nil, nil))
	stack.KillPreviousScene()

	// The old title paused and gave its commands up; a new one takes them.
	fresh := NewTitle(p, nil)
	stack.AddActiveScene(fresh)
	if !p.Has("menu_up") {
		t.Fatal("fresh title did not register menu_up")
	}

	// Cleanup releases the killed title.
	for stack.DeadCount() > 0 {
		stack.Cleanup()
	}
	for _, name := range []string{"menu_up", "menu_down", "menu_select"} {
		if !p.Has(name) {
			t.Errorf("%s removed by the stale title", name)
		}
	}

	p.Process("menu_down")
	if fresh.Selected != 1 {
		t.Errorf("fresh Selected = %d, want 1", fresh.Selected)
	}
	if old.Selected != 0 {
		t.Errorf("old title moved its cursor")
	}
}

func TestTitleDoesNotTakeForeignCommands(t *testing.T) {
	p := command.NewProcessor(nil)
	var foreign bool
	command.Register0(p.Registry, "menu_up", func() { foreign = true })

	stack := scene.NewStack(nil, func(string) {})
	title := NewTitle(p, nil)
	stack.AddActiveScene(title)
	stack.ReleaseAll()

	p.Process("menu_up")
	if !foreign {
		t.Error("releasing the title removed a command it did not register")
	}
}
