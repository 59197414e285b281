package scenes

import (
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/ingenium/internal/command"
	"github.com/Faultbox/ingenium/internal/scene"
)

// ClearFunc sets the frame clear colour.
type ClearFunc func(r, g, b float32)

// Sandbox is an empty playground that cycles the background colour. It
// exists to exercise the stack from the console.
type Sandbox struct {
	scene.Base

	proc  *command.Processor
	clear ClearFunc
	log   *zap.Logger

	Elapsed float64
	Speed   float64
	Resets  int
}

// NewSandbox creates the sandbox scene. clear may be nil.
func NewSandbox(proc *command.Processor, clear ClearFunc, log *zap.Logger) *Sandbox {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sandbox{
		Base:  scene.NewBase(SandboxID),
		proc:  proc,
		clear: clear,
		log:   log,
		Speed: 1,
	}
}

func (s *Sandbox) Initialize() {
	s.Elapsed = 0
	if err := command.Register1(s.proc.Registry, "sandbox_speed", func(v float64) {
		s.Speed = v
	}); err != nil {
		s.log.Warn("sandbox command not registered", zap.Error(err))
	}
	s.log.Info("sandbox started")
}

func (s *Sandbox) ReInitialize() {
	s.Elapsed = 0
	s.Speed = 1
	s.Resets++
}

func (s *Sandbox) Release() {
	s.proc.Unregister("sandbox_speed")
	s.log.Info("sandbox released", zap.Float64("elapsed", s.Elapsed))
}

func (s *Sandbox) Update(dt float64) error {
	s.Elapsed += dt * s.Speed
	return nil
}

func (s *Sandbox) Draw() error {
	if s.clear == nil {
		return nil
	}
	t := s.Elapsed
	s.clear(
		float32(0.1+0.05*math.Sin(t)),
		float32(0.1+0.05*math.Sin(t+2)),
		float32(0.15+0.05*math.Sin(t+4)),
	)
	return nil
}
