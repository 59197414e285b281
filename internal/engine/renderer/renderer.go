// Package renderer provides OpenGL frame setup.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

// Color is an RGBA clear colour in the 0-1 range.
type Color struct {
	R, G, B, A float32
}

// DefaultClearColor is a dark blue-gray.
var DefaultClearColor = Color{0.1, 0.1, 0.15, 1.0}

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Renderer clears and sizes the default framebuffer. Scenes issue their
// own draw calls between Begin and End.
type Renderer struct {
	config Config
	clear  Color
	log    *zap.Logger
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Renderer{
		config: cfg,
		clear:  DefaultClearColor,
		log:    log,
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	r.SetClearColor(r.clear)
	r.Resize(cfg.Width, cfg.Height)

	return r, nil
}

// Close releases renderer state.
func (r *Renderer) Close() error {
	r.log.Info("closing renderer")
	return nil
}

// SetClearColor changes the colour used by Begin.
func (r *Renderer) SetClearColor(c Color) {
	r.clear = c
	gl.ClearColor(c.R, c.G, c.B, c.A)
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.Flush()
}
