// Command replay drives a simulation from a scripted pointer session without
// a window and logs every drop.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/spatial/internal/core/config"
	"github.com/zeusync/spatial/internal/core/observability/log"
	"github.com/zeusync/spatial/internal/core/scene"
	"github.com/zeusync/spatial/internal/core/simulation"
	"github.com/zeusync/spatial/internal/core/systems/pointer"
	"github.com/zeusync/spatial/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "YAML config file; defaults apply when empty")
	scenePath := flag.String("scene", "", "scene file, overrides scene.path")
	scriptPath := flag.String("script", "", "pointer script to replay (required)")
	printSnapshot := flag.Bool("snapshot", false, "print the final snapshot as JSON")
	flag.Parse()

	if err := run(*configPath, *scenePath, *scriptPath, *printSnapshot); err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
}

func run(configPath, scenePath, scriptPath string, printSnapshot bool) error {
	if scriptPath == "" {
		return errors.New("-script is required")
	}
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
	// Replays are headless.
	cfg.Inspector.Enabled = false

	sc, err := scene.Load(cfg.Scene.Path)
	if err != nil {
		return err
	}
	script, err := scene.LoadScript(scriptPath)
	if err != nil {
		return err
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var out io.Writer
	if printSnapshot {
		out = os.Stdout
	}
	_, err = replay(ctx, app.Simulation, app.Logger, sc, script, out)
	return err
}

// Result summarises a finished replay.
type Result struct {
	Frames int
	Drops  []Drop
}

// Drop is a drop notification with names resolved.
type Drop struct {
	Frame   uint64
	Dropped string
	Target  string
}

// replay runs script against sim with world coordinates as screen
// coordinates. When out is set the final snapshot is written to it.
func replay(ctx context.Context, sim *simulation.Simulation, logger log.Log, sc *scene.Scene, script *scene.Script, out io.Writer) (Result, error) {
	sim.SetCamera(pointer.IdentityCamera{})
	if _, err := sc.Apply(sim); err != nil {
		return Result{}, err
	}
	drops := sim.Drops()

	var res Result
	for _, in := range script.Inputs() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := sim.Step(ctx, in); err != nil {
			logger.Warn("frame failed", log.Uint64("frame", sim.Frame()), log.Error(err))
		}
		res.Frames++
		for _, d := range drops.Read() {
			dropped, _ := sim.Name(d.Dropped)
			target, _ := sim.Name(d.Target)
			res.Drops = append(res.Drops, Drop{Frame: d.Frame, Dropped: dropped, Target: target})
			logger.Info("drop",
				log.Uint64("frame", d.Frame),
				log.Stringer("dropped", d.Dropped),
				log.String("dropped_name", dropped),
				log.Stringer("target", d.Target),
				log.String("target_name", target),
				log.Float64("x", d.Position.X),
				log.Float64("y", d.Position.Y),
			)
		}
	}
	if n := drops.Missed(); n > 0 {
		logger.Warn("drops missed", log.Uint64("count", n))
	}

	logger.Info("replay finished", log.Int("frames", res.Frames), log.Int("drops", len(res.Drops)))
	if out != nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sim.Snapshot()); err != nil {
			return res, err
		}
	}
	return res, nil
}
