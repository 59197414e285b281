// Package scenes holds the concrete scenes shipped with the engine binary.
package scenes

import (
	"go.uber.org/zap"

	"github.com/Faultbox/ingenium/internal/command"
)

// Scene ids.
const (
	TitleID   = "Title"
	SandboxID = "Sandbox"
)

// MenuItem is one entry of the title menu.
type MenuItem struct {
	Label   string
	Command string
}

// Title is the main menu. While active it owns the menu_* commands,
// which the default key bindings drive.
type Title struct {
	proc *command.Processor
	log  *zap.Logger
	// owned lists the menu commands this instance registered.
	owned []string

	Items    []MenuItem
	Selected int
}

// NewTitle creates the title scene.
func NewTitle(proc *command.Processor, log *zap.Logger) *Title {
	if log == nil {
		log = zap.NewNop()
	}
	return &Title{
		proc: proc,
		log:  log,
		Items: []MenuItem{
			{Label: "Play", Command: "scene " + SandboxID},
			{Label: "Quit", Command: "quit"},
		},
	}
}

func (s *Title) ID() string { return TitleID }

// Initialize is called when the title first becomes active.
func (s *Title) Initialize() {
	s.Selected = 0
	s.registerCommands()
}

// ReInitialize resets the cursor.
func (s *Title) ReInitialize() {
	s.Selected = 0
}

// Release drops the menu commands.
func (s *Title) Release() {
	s.unregisterCommands()
}

// Pause hands the menu keys to whatever scene comes next.
func (s *Title) Pause() {
	s.unregisterCommands()
}

// Resume takes the menu keys back.
func (s *Title) Resume() {
	s.registerCommands()
}

func (s *Title) Update(dt float64) error { return nil }

func (s *Title) Draw() error { return nil }

// Current returns the highlighted item.
func (s *Title) Current() MenuItem {
	return s.Items[s.Selected]
}

func (s *Title) move(delta int) {
	n := len(s.Items)
	s.Selected = ((s.Selected+delta)%n + n) % n
	s.log.Debug("menu cursor", zap.String("item", s.Current().Label))
}

func (s *Title) registerCommands() {
	s.own("menu_up", func() { s.move(-1) })
	s.own("menu_down", func() { s.move(1) })
	s.own("menu_select", func() {
		s.log.Info("menu select", zap.String("item", s.Current().Label))
		s.proc.Buffer(s.Current().Command)
	})
}

func (s *Title) own(name string, fn func()) {
	for _, n := range s.owned {
		if n == name {
			return
		}
	}
	if err := command.Register0(s.proc.Registry, name, fn); err != nil {
		s.log.Warn("menu command not registered", zap.Error(err))
		return
	}
	s.owned = append(s.owned, name)
}

// unregisterCommands removes only the commands this instance owns, so a
// stale title cannot take them from a newer one.
func (s *Title) unregisterCommands() {
	for _, name := range s.owned {
		s.proc.Unregister(name)
	}
	s.owned = nil
}
