package hypervisor

import (
	"go.uber.org/zap"

	"github.com/Faultbox/ingenium/internal/command"
	"github.com/Faultbox/ingenium/internal/config"
	"github.com/Faultbox/ingenium/internal/console"
	"github.com/Faultbox/ingenium/internal/engine/input"
	"github.com/Faultbox/ingenium/internal/options"
	"github.com/Faultbox/ingenium/internal/rcon"
	"github.com/Faultbox/ingenium/internal/scene"
	"github.com/Faultbox/ingenium/internal/scripting"
)

// Deps holds every subsystem built during boot. Fields are filled in
// boot order, so a step may rely on anything set by an earlier one.
// Optional subsystems stay nil when disabled.
type Deps struct {
	Config *config.Config
	Log    *zap.Logger

	Commands *command.Processor
	Scenes   *scene.Stack
	Options  *options.Store

	Window   Window
	Renderer Renderer
	Audio    Audio

	Input    input.Source
	Bindings *input.Bindings
	Console  *console.Console

	Scripts *scripting.Engine
	RCon    *rcon.Server
}
