// Package hypervisor is the engine run loop. It boots subsystems in a
// fixed order, drives the per-frame loop on the main thread and shuts
// everything down in reverse.
package hypervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/ingenium/internal/command"
	"github.com/Faultbox/ingenium/internal/config"
	"github.com/Faultbox/ingenium/internal/console"
	"github.com/Faultbox/ingenium/internal/engine/input"
	"github.com/Faultbox/ingenium/internal/options"
	"github.com/Faultbox/ingenium/internal/rcon"
	"github.com/Faultbox/ingenium/internal/scene"
	"github.com/Faultbox/ingenium/internal/scripting"
)

// Cvar names defined at boot.
const (
	VarVSync    = "vsync"
	VarFPSLimit = "fps_limit"
	VarShowFPS  = "show_fps"
	VarVolume   = "volume"
)

// ErrNotBooted is returned by Run before a successful Boot.
var ErrNotBooted = errors.New("hypervisor not booted")

// SceneFactory builds a scene on demand for the scene command.
type SceneFactory func() scene.Scene

type step struct {
	name string
	run  func(ctx context.Context) error
}

type closer struct {
	name  string
	close func() error
}

// HyperVisor owns the engine lifetime.
type HyperVisor struct {
	deps     Deps
	platform Platform
	halt     scene.HaltFunc
	log      *zap.Logger

	factories map[string]SceneFactory
	closers   []closer
	booted    bool

	stop      bool
	frames    uint64
	started   time.Time
	lastFrame time.Duration

	fpsLimit *options.Var
	showFPS  *options.Var
}

// New creates an unbooted run loop.
func New(cfg *config.Config, log *zap.Logger, platform Platform) *HyperVisor {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	h := &HyperVisor{
		platform:  platform,
		log:       log,
		factories: make(map[string]SceneFactory),
	}
	h.deps.Config = cfg
	return h
}

// SetHalt sets the callback the scene stack uses when it empties. Must
// be called before Boot; nil keeps the default fatal exit.
func (h *HyperVisor) SetHalt(halt scene.HaltFunc) {
	h.halt = halt
}

// RegisterScene makes a scene available to "scene <id>" even when it is
// not resident yet.
func (h *HyperVisor) RegisterScene(id string, factory SceneFactory) {
	h.factories[id] = factory
}

// Deps returns the subsystem container.
func (h *HyperVisor) Deps() *Deps {
	return &h.deps
}

// Boot constructs every subsystem in order and queues the startup
// arguments. On failure the subsystems built so far are closed in
// reverse and the step's error is returned.
func (h *HyperVisor) Boot(ctx context.Context, args []string) error {
	steps := []step{
		{"logging", h.bootLogging},
		{"commands", h.bootCommands},
		{"deps", h.bootDeps},
		{"options", h.bootOptions},
		{"window", h.bootWindow},
		{"renderer", h.bootRenderer},
		{"audio", h.bootAudio},
		{"input", h.bootInput},
		{"console", h.bootConsole},
		{"scripting", h.bootScripting},
		{"rcon", h.bootRCon},
		{"arguments", func(context.Context) error { return h.bootArguments(args) }},
	}

	for _, s := range steps {
		h.log.Debug("boot step", zap.String("step", s.name))
		if err := s.run(ctx); err != nil {
			h.log.Error("boot failed", zap.String("step", s.name), zap.Error(err))
			if cerr := h.closeAll(); cerr != nil {
				err = multierr.Append(err, cerr)
			}
			return fmt.Errorf("boot %s: %w", s.name, err)
		}
	}

	h.booted = true
	h.started = time.Now()
	h.log.Info("engine booted", zap.Int("commands", h.deps.Commands.Len()))
	return nil
}

// onClose pushes a subsystem onto the shutdown stack.
func (h *HyperVisor) onClose(name string, fn func() error) {
	h.closers = append(h.closers, closer{name: name, close: fn})
}

func (h *HyperVisor) bootLogging(context.Context) error {
	// Warn and above are mirrored into the console once it exists.
	h.log = h.log.WithOptions(zap.Hooks(func(e zapcore.Entry) error {
		if c := h.deps.Console; c != nil {
			return c.Hook(e)
		}
		return nil
	}))
	h.deps.Log = h.log
	return nil
}

func (h *HyperVisor) bootCommands(context.Context) error {
	h.deps.Commands = command.NewProcessor(h.log.Named("command"))
	return nil
}

func (h *HyperVisor) bootDeps(context.Context) error {
	h.deps.Scenes = scene.NewStack(h.log.Named("scene"), h.halt)
	return h.registerCoreCommands(h.deps.Commands.Registry)
}

func (h *HyperVisor) bootOptions(context.Context) error {
	cfg := h.deps.Config
	opts := options.New(h.log.Named("options"))
	opts.DefineBool(VarVSync, cfg.Window.VSync, "synchronise buffer swaps to the display")
	h.fpsLimit = opts.DefineInt(VarFPSLimit, cfg.Window.FPSLimit, "frame rate cap, 0 for none")
	h.showFPS = opts.DefineBool(VarShowFPS, false, "log the frame rate every second")
	opts.DefineFloat(VarVolume, cfg.Audio.MasterVolume, "master volume 0-1")

	if err := opts.Load(cfg.Options.Path); err != nil {
		return err
	}
	if err := opts.RegisterCommands(h.deps.Commands.Registry, cfg.Options.Path); err != nil {
		return err
	}
	h.deps.Options = opts
	h.onClose("options", func() error { return opts.Save(cfg.Options.Path) })
	return nil
}

func (h *HyperVisor) bootWindow(context.Context) error {
	if h.platform.NewWindow == nil {
		return errors.New("no window factory")
	}
	wcfg := h.deps.Config.Window
	if v, ok := h.deps.Options.Get(VarVSync); ok {
		wcfg.VSync = v.Bool()
	}
	w, err := h.platform.NewWindow(wcfg, h.log.Named("window"))
	if err != nil {
		return err
	}
	h.deps.Window = w
	h.onClose("window", w.Close)
	return h.deps.Options.OnChange(VarVSync, func(v *options.Var) { w.SetVSync(v.Bool()) })
}

func (h *HyperVisor) bootRenderer(context.Context) error {
	if h.platform.NewRenderer == nil {
		return errors.New("no renderer factory")
	}
	width, height := h.deps.Window.Size()
	r, err := h.platform.NewRenderer(width, height, h.log.Named("renderer"))
	if err != nil {
		return err
	}
	h.deps.Renderer = r
	h.onClose("renderer", r.Close)
	return nil
}

func (h *HyperVisor) bootAudio(context.Context) error {
	cfg := h.deps.Config.Audio
	if !cfg.Enabled || h.platform.NewAudio == nil {
		h.log.Info("audio disabled")
		return nil
	}
	a := h.platform.NewAudio(h.log.Named("audio"))
	if err := a.Init(); err != nil {
		// A machine without sound output still runs.
		h.log.Warn("audio unavailable", zap.Error(err))
		return nil
	}
	h.onClose("audio", a.Close)

	vol, _ := h.deps.Options.Get(VarVolume)
	a.SetMasterVolume(vol.Float())
	a.SetMuted(cfg.Muted)
	if cfg.StartupSound != "" {
		h.playStartupSound(a, cfg.StartupSound)
	}
	if err := h.deps.Options.OnChange(VarVolume, func(v *options.Var) { a.SetMasterVolume(v.Float()) }); err != nil {
		return err
	}
	h.deps.Audio = a
	return a.RegisterCommands(h.deps.Commands.Registry)
}

// playStartupSound reads and plays a WAV file. Failures only warn.
func (h *HyperVisor) playStartupSound(a Audio, path string) {
	data, err := os.ReadFile(path)
	if err == nil {
		err = a.PlayWAV(data)
	}
	if err != nil {
		h.log.Warn("startup sound not played", zap.String("path", path), zap.Error(err))
	}
}

func (h *HyperVisor) bootInput(context.Context) error {
	if h.platform.NewInput == nil {
		return errors.New("no input factory")
	}
	h.deps.Input = h.platform.NewInput()

	b := input.NewBindings(h.platform.ValidKey, h.log.Named("input"))
	defaults := map[string]string{
		h.deps.Config.Console.ToggleKey: "toggleconsole",
		"escape":                        "back",
		"f3":                            "stats",
	}
	for key, line := range defaults {
		if err := b.Bind(key, line); err != nil {
			h.log.Warn("default binding skipped", zap.String("key", key), zap.Error(err))
		}
	}
	h.deps.Bindings = b
	return b.RegisterCommands(h.deps.Commands.Registry)
}

func (h *HyperVisor) bootConsole(context.Context) error {
	cfg := h.deps.Config.Console
	c := console.New(h.deps.Commands, console.Options{
		HistorySize:    cfg.HistorySize,
		ScrollbackSize: cfg.ScrollbackSize,
	}, h.log.Named("console"))
	if err := c.RegisterCommands(h.deps.Commands.Registry); err != nil {
		return err
	}
	h.deps.Console = c
	return nil
}

func (h *HyperVisor) bootScripting(context.Context) error {
	cfg := h.deps.Config.Scripting
	if !cfg.Enabled {
		return nil
	}
	e := scripting.NewEngine(h.deps.Commands, h.deps.Scenes, h.log.Named("lua"))
	h.deps.Scripts = e
	h.onClose("scripting", e.Close)

	// Broken scripts are logged by the engine and do not stop the boot.
	if err := e.LoadDir(cfg.Dir); err != nil {
		h.log.Warn("some scripts failed to load", zap.Int("failed", len(multierr.Errors(err))))
	}
	return nil
}

func (h *HyperVisor) bootRCon(ctx context.Context) error {
	cfg := h.deps.Config.RCon
	if !cfg.Enabled {
		return nil
	}
	s := rcon.New(rcon.Options{
		Addr:      cfg.Addr,
		Path:      cfg.Path,
		QueueSize: cfg.QueueSize,
	}, h.log.Named("rcon"))
	if err := s.Start(ctx); err != nil {
		return err
	}
	h.deps.RCon = s
	h.onClose("rcon", s.Close)
	return nil
}

func (h *HyperVisor) bootArguments(args []string) error {
	h.deps.Commands.BufferArgs(args)
	if h.deps.Config.Console.DrainStartup {
		n := h.deps.Commands.Flush()
		h.log.Debug("startup commands drained", zap.Int("count", n))
	}
	return nil
}

// Stop requests the loop to exit at the top of the next frame.
func (h *HyperVisor) Stop() {
	h.stop = true
}

// Frames returns the number of completed frames.
func (h *HyperVisor) Frames() uint64 {
	return h.frames
}

// Shutdown releases every scene, then closes subsystems in reverse boot
// order. All close errors are returned together.
func (h *HyperVisor) Shutdown() error {
	if h.deps.Scenes != nil {
		h.deps.Scenes.ReleaseAll()
	}

	var uptime time.Duration
	if !h.started.IsZero() {
		uptime = time.Since(h.started)
	}
	h.log.Info("engine shutting down",
		zap.Uint64("frames", h.frames),
		zap.Duration("uptime", uptime),
		zap.Float64("avg_fps", averageFPS(h.frames, uptime)),
	)

	err := h.closeAll()
	h.booted = false
	_ = h.log.Sync()
	return err
}

func (h *HyperVisor) closeAll() error {
	var errs error
	for i := len(h.closers) - 1; i >= 0; i-- {
		c := h.closers[i]
		if err := c.close(); err != nil {
			h.log.Error("close failed", zap.String("subsystem", c.name), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	h.closers = nil
	return errs
}

func averageFPS(frames uint64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(frames) / d.Seconds()
}
