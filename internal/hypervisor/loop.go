package hypervisor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/ingenium/internal/engine/input"
)

// Run drives frames until a quit is requested or ctx is cancelled.
// A scene Update or Draw error ends the loop and is returned.
func (h *HyperVisor) Run(ctx context.Context) error {
	if !h.booted {
		return ErrNotBooted
	}

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := lastTime

	h.log.Info("starting engine loop")

	for !h.stop {
		if ctx.Err() != nil {
			h.log.Info("stop requested", zap.Error(ctx.Err()))
			h.stop = true
			break
		}

		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if err := h.frame(dt); err != nil {
			return err
		}
		if h.stop {
			break
		}

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			lvl := zap.DebugLevel
			if h.showFPS != nil && h.showFPS.Bool() {
				lvl = zap.InfoLevel
			}
			h.log.Log(lvl, "fps", zap.Int("count", frameCount), zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)))
			frameCount = 0
			fpsTimer = time.Now()
		}

		h.pace(now)
	}

	h.log.Info("engine loop stopped", zap.Uint64("frames", h.frames))
	return nil
}

// frame runs one iteration. A quit event ends it before the scene runs.
func (h *HyperVisor) frame(dt float64) error {
	d := &h.deps

	// 1. Input
	if d.Input.Update() {
		h.log.Info("quit event received")
		h.stop = true
		return nil
	}
	h.handleEvents(d.Input.Events())

	// 2. Active scene
	if err := d.Scenes.Update(dt); err != nil {
		return fmt.Errorf("update error: %w", err)
	}

	// 3. Render
	d.Renderer.Begin()
	if err := d.Scenes.Draw(); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	d.Renderer.End()

	// 4. Present
	d.Window.SwapBuffers()

	// 5. One queued command, then reclaim one dead scene
	d.Commands.Update(dt)
	d.Scenes.Cleanup()

	if d.RCon != nil {
		d.RCon.Drain(d.Commands.Buffer)
	}

	h.frames++
	return nil
}

func (h *HyperVisor) handleEvents(events []input.Event) {
	d := &h.deps
	toggle := input.NormalizeKey(d.Config.Console.ToggleKey)

	for _, e := range events {
		if e.Type == input.EventWindowResize {
			d.Renderer.Resize(e.Width, e.Height)
		}
	}

	if d.Console == nil || !d.Console.IsOpen() {
		d.Bindings.Dispatch(events, d.Commands)
		return
	}

	// The open console swallows the keyboard; only the toggle key closes it.
	for _, e := range events {
		switch e.Type {
		case input.EventText:
			if e.Text != toggle {
				d.Console.InsertText(e.Text)
			}
		case input.EventKeyDown:
			switch e.Key {
			case toggle:
				if !e.Repeat {
					d.Console.Toggle()
				}
			case "backspace":
				d.Console.Backspace()
			case "return", "keypad enter":
				d.Console.Submit()
			case "up":
				d.Console.HistoryPrev()
			case "down":
				d.Console.HistoryNext()
			}
		}
	}
}

// pace sleeps out the rest of the frame when fps_limit is set.
func (h *HyperVisor) pace(frameStart time.Time) {
	h.lastFrame = time.Since(frameStart)
	if h.fpsLimit == nil {
		return
	}
	limit := h.fpsLimit.Int()
	if limit <= 0 {
		return
	}
	target := time.Second / time.Duration(limit)
	if h.lastFrame < target {
		time.Sleep(target - h.lastFrame)
	}
}
