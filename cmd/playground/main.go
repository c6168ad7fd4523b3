package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/spatial/internal/core/config"
	"github.com/zeusync/spatial/internal/core/observability/log"
	"github.com/zeusync/spatial/internal/core/scene"
	"github.com/zeusync/spatial/internal/injector"
	"github.com/zeusync/spatial/internal/platform/desktop"
)

func main() {
	configPath := flag.String("config", "", "YAML config file; defaults apply when empty")
	scenePath := flag.String("scene", "", "scene file, overrides scene.path")
	flag.Parse()

	if err := run(*configPath, *scenePath); err != nil {
		fmt.Fprintln(os.Stderr, "playground:", err)
		os.Exit(1)
	}
}

func run(configPath, scenePath string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if scenePath != "" {
		cfg.Scene.Path = scenePath
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	logger := app.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	game := desktop.NewGame(ctx, app.Simulation, cfg.Window, logger)

	if app.Inspector != nil {
		if err := app.Inspector.Start(cfg.Inspector.Addr); err != nil {
			return fmt.Errorf("start inspector: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := app.Inspector.Stop(shutdownCtx); err != nil {
				logger.Warn("inspector shutdown", log.Error(err))
			}
		}()
		if err := app.Inspector.WatchDrops(); err != nil {
			return err
		}
		game.SetSink(app.Inspector)
	}

	if cfg.Scene.Path != "" {
		sc, err := scene.Load(cfg.Scene.Path)
		switch {
		case err == nil:
			game.QueueScene(sc)
		case errors.Is(err, fs.ErrNotExist) && !cfg.Scene.Watch:
			logger.Warn("scene file missing, starting empty", log.String("path", cfg.Scene.Path))
		case errors.Is(err, fs.ErrNotExist):
			logger.Info("waiting for scene file", log.String("path", cfg.Scene.Path))
		default:
			return err
		}
	}

	if cfg.Scene.Watch && cfg.Scene.Path != "" {
		w, err := scene.NewWatcher(cfg.Scene.Path, logger, game.QueueScene)
		if err != nil {
			return fmt.Errorf("watch scene: %w", err)
		}
		defer w.Close()
		go func() {
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("scene watcher stopped", log.Error(err))
			}
		}()
	}

	logger.Info("playground starting",
		log.String("session", app.Simulation.ID()),
		log.Int("width", cfg.Window.Width),
		log.Int("height", cfg.Window.Height),
	)
	return desktop.Run(game, cfg.Window)
}
