// Package input defines the engine's platform-neutral input events and
// the key binding table. The SDL event pump lives in input/sdlinput.
package input

// Event types for game use
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventText
	EventMouseMove
	EventMouseDown
	EventMouseUp
)

// Event represents a processed input event. Key holds the lower-case
// key name ("escape", "f1", "a").
type Event struct {
	Type   EventType
	Key    string
	Repeat bool
	Text   string
	Width  int
	Height int
	MouseX int
	MouseY int
	Button uint8
}

// Source produces the events of one frame.
type Source interface {
	// Update polls pending events. Returns true if the game should quit.
	Update() bool
	// Events returns the events from the last Update.
	Events() []Event
}

// IsKeyPressed checks if a specific key was pressed in events.
func IsKeyPressed(events []Event, key string) bool {
	for _, e := range events {
		if e.Type == EventKeyDown && e.Key == key {
			return true
		}
	}
	return false
}
