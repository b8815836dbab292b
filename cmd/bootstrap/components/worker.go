package components

import (
	"context"

	"voltshare/internal/pkg/config"
	"voltshare/internal/usecase/commands"
	"voltshare/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		func(sweeper commands.SweepCommands, engine config.EngineConfig) *worker.Monitor {
			return worker.NewMonitor(sweeper, engine.SweepInterval)
		},
	),
	fx.Invoke(startMonitor),
)

// The index must be rehydrated before the first request can commit a
// booking, so it happens synchronously on start.
func startMonitor(lc fx.Lifecycle, monitor *worker.Monitor, sweeper commands.SweepCommands) {
	runCtx, cancel := context.WithCancel(context.Background())
	started := false

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := sweeper.RehydrateIndex(ctx); err != nil {
				cancel()
				return err
			}
			started = true
			go monitor.Run(runCtx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			if started {
				monitor.Wait()
			}
			return nil
		},
	})
}
