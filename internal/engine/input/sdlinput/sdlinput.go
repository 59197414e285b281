// Package sdlinput pumps SDL2 events into input.Events.
package sdlinput

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/ingenium/internal/engine/input"
)

// Input handles all input processing.
type Input struct {
	events []input.Event
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]input.Event, 0, 16),
	}
}

// Update polls SDL events and converts them to game events.
// Returns true if the game should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0] // Clear previous events

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, input.Event{Type: input.EventQuit})
			return true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED {
				i.events = append(i.events, input.Event{
					Type:   input.EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			ev := input.Event{
				Key:    KeyName(e.Keysym.Sym),
				Repeat: e.Repeat != 0,
			}
			if e.Type == sdl.KEYDOWN {
				ev.Type = input.EventKeyDown
			} else {
				ev.Type = input.EventKeyUp
			}
			i.events = append(i.events, ev)

		case *sdl.TextInputEvent:
			i.events = append(i.events, input.Event{
				Type: input.EventText,
				Text: e.GetText(),
			})

		case *sdl.MouseMotionEvent:
			i.events = append(i.events, input.Event{
				Type:   input.EventMouseMove,
				MouseX: int(e.X),
				MouseY: int(e.Y),
			})

		case *sdl.MouseButtonEvent:
			ev := input.Event{
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: e.Button,
			}
			if e.Type == sdl.MOUSEBUTTONDOWN {
				ev.Type = input.EventMouseDown
			} else {
				ev.Type = input.EventMouseUp
			}
			i.events = append(i.events, ev)
		}
	}

	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []input.Event {
	return i.events
}

// KeyName returns the normalized name of a key code.
func KeyName(k sdl.Keycode) string {
	return input.NormalizeKey(sdl.GetKeyName(k))
}

// ValidKey reports whether SDL knows the key name. Used to validate
// binds.
func ValidKey(name string) bool {
	return sdl.GetKeyFromName(name) != sdl.K_UNKNOWN
}
