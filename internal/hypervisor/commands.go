package hypervisor

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/ingenium/internal/command"
)

func (h *HyperVisor) registerCoreCommands(reg *command.Registry) error {
	stack := h.deps.Scenes

	return multierr.Combine(
		command.Register0(reg, "quit", h.Stop),
		command.Register0(reg, "stats", h.logStats),

		command.Register1(reg, "scene", h.switchScene),
		command.Register0(reg, "back", stack.InactivateActiveScene),
		command.Register0(reg, "drop", stack.DropActiveScene),
		command.Register0(reg, "reset", stack.ResetActiveScene),
		command.Register0(reg, "pop", stack.RemoveActiveScene),
		command.Register0(reg, "kill_previous", stack.KillPreviousScene),
		command.Register0(reg, "scenes", func() {
			ids := stack.IDs()
			for i := len(ids) - 1; i >= 0; i-- {
				st, _ := stack.StateOf(ids[i])
				h.log.Info(fmt.Sprintf("%d. %s [%s]", len(ids)-i, ids[i], st))
			}
		}),

		command.Register0(reg, "cmdlist", func() {
			for _, name := range reg.Names() {
				sig, _ := reg.Lookup(name)
				h.log.Info(name + " " + sig.String())
			}
		}),

		command.Register2(reg, "resolution", h.setResolution),
		command.Register0(reg, "fullscreen", func() { h.setFullscreen(true) }),
		command.Register0(reg, "windowed", func() { h.setFullscreen(false) }),
		command.RegisterText(reg, "title", h.setTitle),
		command.Register0(reg, "writeconfig", h.writeConfig),
	)
}

// switchScene activates a resident scene or builds a registered one.
func (h *HyperVisor) switchScene(id string) {
	stack := h.deps.Scenes
	for _, resident := range stack.IDs() {
		if resident == id {
			stack.SetActiveScene(id)
			return
		}
	}
	factory, ok := h.factories[id]
	if !ok {
		h.log.Warn("no such scene", zap.String("scene", id), zap.String("resident", strings.Join(stack.IDs(), ",")))
		return
	}
	if err := stack.AddActiveScene(factory()); err != nil {
		h.log.Warn("scene switch failed", zap.String("scene", id), zap.Error(err))
	}
}

func (h *HyperVisor) setResolution(width, height int) {
	if width <= 0 || height <= 0 {
		h.log.Warn("invalid resolution", zap.Int("width", width), zap.Int("height", height))
		return
	}
	if h.deps.Window == nil {
		h.log.Warn("no window for resolution change")
		return
	}
	h.deps.Window.SetSize(width, height)
	if h.deps.Renderer != nil {
		h.deps.Renderer.Resize(width, height)
	}
}

func (h *HyperVisor) setFullscreen(on bool) {
	if h.deps.Window == nil {
		h.log.Warn("no window for mode change")
		return
	}
	if err := h.deps.Window.SetFullscreen(on); err != nil {
		h.log.Warn("window mode change failed", zap.Error(err))
		return
	}
	if h.deps.Renderer != nil {
		h.deps.Renderer.Resize(h.deps.Window.Size())
	}
}

func (h *HyperVisor) setTitle(title string) {
	if h.deps.Window == nil {
		h.log.Warn("no window for title change")
		return
	}
	h.deps.Window.SetTitle(title)
	h.deps.Config.Window.Title = title
}

// writeConfig stores the current window geometry in the user config file.
func (h *HyperVisor) writeConfig() {
	cfg := h.deps.Config
	if h.deps.Window != nil {
		cfg.Window.Width, cfg.Window.Height = h.deps.Window.Size()
	}
	if err := cfg.Save(); err != nil {
		h.log.Warn("config not written", zap.Error(err))
		return
	}
	h.log.Info("config written")
}

func (h *HyperVisor) logStats() {
	var uptime time.Duration
	if !h.started.IsZero() {
		uptime = time.Since(h.started)
	}
	h.log.Info("stats",
		zap.Uint64("frames", h.frames),
		zap.Duration("uptime", uptime.Truncate(time.Millisecond)),
		zap.Float64("avg_fps", averageFPS(h.frames, uptime)),
		zap.Duration("last_frame", h.lastFrame),
		zap.Int("scenes", h.deps.Scenes.NumScenes()),
		zap.Int("dead_scenes", h.deps.Scenes.DeadCount()),
		zap.Int("pending_commands", h.deps.Commands.Pending()),
		zap.Int("commands", h.deps.Commands.Len()),
	)
}
