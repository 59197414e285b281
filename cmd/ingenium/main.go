// Package main is the entry point for the Ingenium engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/ingenium/internal/config"
	"github.com/Faultbox/ingenium/internal/engine/renderer"
	"github.com/Faultbox/ingenium/internal/game/scenes"
	"github.com/Faultbox/ingenium/internal/hypervisor"
	"github.com/Faultbox/ingenium/internal/logger"
	"github.com/Faultbox/ingenium/internal/scene"
)

func main() {
	// Load configuration. Command-line arguments belong to the console.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	defer logger.Sync()

	logger.Info("=== Ingenium ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hv := hypervisor.New(cfg, log, desktop())
	hv.SetHalt(func(msg string) {
		logger.Error("engine halted", zap.String("reason", msg))
		dialog.Message("%s", msg).Title("Ingenium").Error()
		logger.Sync()
		os.Exit(1)
	})

	// Factories read Deps lazily, so startup commands can switch scenes.
	d := hv.Deps()
	hv.RegisterScene(scenes.TitleID, func() scene.Scene {
		return scenes.NewTitle(d.Commands, log.Named("title"))
	})
	hv.RegisterScene(scenes.SandboxID, func() scene.Scene {
		return scenes.NewSandbox(d.Commands, clearColor(d), log.Named("sandbox"))
	})

	if err := hv.Boot(ctx, os.Args); err != nil {
		logger.Error("failed to boot engine", zap.Error(err))
		os.Exit(1)
	}
	bindMenuKeys(d)

	if err := d.Scenes.AddInactiveScene(scenes.NewTitle(d.Commands, log.Named("title"))); err != nil {
		logger.Error("failed to add title scene", zap.Error(err))
		os.Exit(1)
	}

	runErr := hv.Run(ctx)
	if err := hv.Shutdown(); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	if runErr != nil {
		logger.Error("engine error", zap.Error(runErr))
		os.Exit(1)
	}

	logger.Info("engine closed normally")
}

func bindMenuKeys(d *hypervisor.Deps) {
	for key, line := range map[string]string{
		"up":     "menu_up",
		"down":   "menu_down",
		"return": "menu_select",
	} {
		if err := d.Bindings.Bind(key, line); err != nil {
			logger.Warn("menu key not bound", zap.String("key", key), zap.Error(err))
		}
	}
}

func clearColor(d *hypervisor.Deps) scenes.ClearFunc {
	r, ok := d.Renderer.(*renderer.Renderer)
	if !ok {
		return nil
	}
	return func(red, green, blue float32) {
		r.SetClearColor(renderer.Color{R: red, G: green, B: blue, A: 1})
	}
}
