package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/behave/internal/config"
	"github.com/zeusync/behave/internal/core/bt/loader"
	"github.com/zeusync/behave/internal/core/events/bus"
	"github.com/zeusync/behave/internal/core/observability/log"
	"github.com/zeusync/behave/internal/runner"
)

// App holds the process-wide services shared by every runner.
type App struct {
	Config   config.Runner
	Logger   log.Log
	Bus      bus.EventBus
	Registry *loader.Registry
}

func ProvideLogger(cfg config.Runner) log.Log {
	return log.New(cfg.Level())
}

func ProvideBus() bus.EventBus {
	return bus.New()
}

func ProvideRegistry() *loader.Registry {
	return loader.NewDefaultRegistry()
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideBus,
	ProvideRegistry,
	wire.Struct(new(App), "*"),
)

// Runner builds a runner for def wired to the app's logger, bus and registry.
func (a *App) Runner(def *loader.Definition) (*runner.Runner, error) {
	return runner.New(def, a.Registry, a.Config,
		runner.WithLogger(a.Logger),
		runner.WithBus(a.Bus),
	)
}
