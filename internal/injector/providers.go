// Package injector assembles the application graph with wire.
package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/spatial/internal/core/config"
	"github.com/zeusync/spatial/internal/core/events/bus"
	"github.com/zeusync/spatial/internal/core/observability/log"
	"github.com/zeusync/spatial/internal/core/simulation"
	"github.com/zeusync/spatial/internal/inspector"
)

// App is everything a command needs to drive a simulation.
type App struct {
	Config     config.Config
	Logger     log.Log
	Bus        bus.EventBus
	Simulation *simulation.Simulation
	// Inspector is nil unless enabled in the config.
	Inspector *inspector.Server
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideBus,
	simulation.New,
	ProvideInspector,
	wire.Struct(new(App), "*"),
)

// ProvideLogger builds the root logger. The cleanup flushes it.
func ProvideLogger(cfg config.Config) (log.Log, func(), error) {
	logger, err := log.NewWithOptions(cfg.LogOptions())
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideBus() bus.EventBus { return bus.New() }

// ProvideInspector returns nil when the inspector is disabled. It is not
// started here.
func ProvideInspector(cfg config.Config, b bus.EventBus, logger log.Log) *inspector.Server {
	if !cfg.Inspector.Enabled {
		return nil
	}
	return inspector.New(b, logger, inspector.Options{})
}
