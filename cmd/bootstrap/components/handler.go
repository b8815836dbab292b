package components

import (
	"voltshare/internal/handler"
	"voltshare/internal/handler/api"
	"voltshare/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		api.NewSessionHandler,
		api.NewChargerHandler,
		api.NewPaymentHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
