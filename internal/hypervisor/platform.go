package hypervisor

import (
	"go.uber.org/zap"

	"github.com/Faultbox/ingenium/internal/command"
	"github.com/Faultbox/ingenium/internal/config"
	"github.com/Faultbox/ingenium/internal/engine/input"
)

// Window is the presentation surface and its graphics context.
type Window interface {
	SwapBuffers()
	Size() (int, int)
	SetSize(width, height int)
	SetFullscreen(on bool) error
	SetVSync(on bool)
	SetTitle(title string)
	Close() error
}

// Renderer brackets each frame's draw calls.
type Renderer interface {
	Begin()
	End()
	Resize(width, height int)
	Close() error
}

// Audio is the sound output.
type Audio interface {
	Init() error
	SetMasterVolume(vol float64)
	SetMuted(muted bool)
	PlayWAV(data []byte) error
	RegisterCommands(reg *command.Registry) error
	Close() error
}

// Platform constructs the platform-bound subsystems. The binary wires
// SDL, OpenGL and beep; tests supply fakes.
type Platform struct {
	NewWindow   func(cfg config.WindowConfig, log *zap.Logger) (Window, error)
	NewRenderer func(width, height int, log *zap.Logger) (Renderer, error)
	NewAudio    func(log *zap.Logger) Audio
	NewInput    func() input.Source

	// ValidKey checks key names given to bind. Nil accepts any name.
	ValidKey func(key string) bool
}
