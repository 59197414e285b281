// Package scene implements the engine's scene stack: an ordered set of
// application modes (menus, gameplay, editors) where the top scene is
// active and the rest stay resident but paused.
package scene

// Scene is one interactive application mode.
//
// The Stack owns lifecycle bookkeeping and calls each hook exactly once
// per transition, so implementations do not need to guard against
// repeated Pause or Resume calls.
type Scene interface {
	// ID is the stable name used for lookup.
	ID() string

	// Initialize is called the first time the scene becomes active, and
	// again only after a Release.
	Initialize()

	// ReInitialize performs a scene-defined soft reset.
	ReInitialize()

	// Release frees everything Initialize acquired.
	Release()

	// Pause is called when the scene stops being the active scene.
	Pause()

	// Resume is called when a paused scene becomes active again.
	Resume()

	// Update is called every frame while the scene is active.
	Update(dt float64) error

	// Draw is called every frame while the scene is active.
	Draw() error
}

// Base provides no-op hooks. Embed it and override what the scene needs.
type Base struct {
	Name string
}

// NewBase creates a Base with the given id.
func NewBase(id string) Base {
	return Base{Name: id}
}

func (b *Base) ID() string { return b.Name }
func (b *Base) Initialize() {}
func (b *Base) ReInitialize() {}
func (b *Base) Release() {}
func (b *Base) Pause() {}
func (b *Base) Resume() {}
func (b *Base) Update(float64) error { return nil }
func (b *Base) Draw() error { return nil }
