package main

import (
	"go.uber.org/zap"

	"github.com/Faultbox/ingenium/internal/config"
	"github.com/Faultbox/ingenium/internal/engine/audio"
	"github.com/Faultbox/ingenium/internal/engine/input"
	"github.com/Faultbox/ingenium/internal/engine/input/sdlinput"
	"github.com/Faultbox/ingenium/internal/engine/renderer"
	"github.com/Faultbox/ingenium/internal/engine/window"
	"github.com/Faultbox/ingenium/internal/hypervisor"
)

// desktop wires SDL2 windows and input, OpenGL and the beep speaker.
func desktop() hypervisor.Platform {
	return hypervisor.Platform{
		NewWindow: func(cfg config.WindowConfig, log *zap.Logger) (hypervisor.Window, error) {
			return window.New(window.Config{
				Title:      cfg.Title,
				Width:      cfg.Width,
				Height:     cfg.Height,
				Fullscreen: cfg.Fullscreen,
				VSync:      cfg.VSync,
			}, log)
		},
		NewRenderer: func(width, height int, log *zap.Logger) (hypervisor.Renderer, error) {
			return renderer.New(renderer.Config{Width: width, Height: height}, log)
		},
		NewAudio: func(log *zap.Logger) hypervisor.Audio {
			return audio.New(log)
		},
		NewInput: func() input.Source {
			return sdlinput.New()
		},
		ValidKey: sdlinput.ValidKey,
	}
}
