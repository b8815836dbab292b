package components

import (
	"voltshare/internal/domain/booking"
	"voltshare/internal/domain/pricing"
	"voltshare/internal/infra/interval"
	"voltshare/internal/infra/payment"
	"voltshare/internal/pkg/clock"
	"voltshare/internal/pkg/config"
	"voltshare/internal/usecase/commands"
	"voltshare/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	interval.NewIndex,
	func(cfg config.Config) config.EngineConfig {
		return cfg.Engine
	},
	func(engine config.EngineConfig) *pricing.Calculator {
		return pricing.NewCalculator(engine.PlatformFeeBasisPoints, engine.EfficiencyPerMille)
	},
	func(clk clock.Clock, calc *pricing.Calculator, engine config.EngineConfig) *booking.Factory {
		return booking.NewFactory(clk, calc, booking.Policy{
			ClockSkewTolerance: engine.ClockSkewTolerance,
		})
	},
	fx.Annotate(
		payment.NewLogGateway,
		fx.As(new(commands.PaymentGateway)),
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
		queries.NewChargerQueries,
		queries.NewAvailabilityQueries,
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewBookingUseCase,
		commands.NewSessionUseCase,
		commands.NewChargerUseCase,
		commands.NewPaymentUseCase,
		commands.NewSweepUseCase,
	),
)
