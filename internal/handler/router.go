package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"voltshare/internal/handler/api"
	"voltshare/internal/handler/middleware"
	"voltshare/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	bookingHandler *api.BookingHandler,
	sessionHandler *api.SessionHandler,
	chargerHandler *api.ChargerHandler,
	paymentHandler *api.PaymentHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, bookingHandler, sessionHandler, chargerHandler, paymentHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	bookingHandler *api.BookingHandler,
	sessionHandler *api.SessionHandler,
	chargerHandler *api.ChargerHandler,
	paymentHandler *api.PaymentHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		chargers := apiGroup.Group("/chargers")
		chargers.Use(authMiddleware.RequireAuth())
		{
			addRoutes(chargers, []route{
				{Method: http.MethodPost, Path: "", Handler: chargerHandler.RegisterCharger},
				{Method: http.MethodGet, Path: "", Handler: chargerHandler.ListChargers},
				{Method: http.MethodGet, Path: "/:id", Handler: chargerHandler.GetCharger},
				{Method: http.MethodPut, Path: "/:id/active", Handler: chargerHandler.SetChargerActive},
				{Method: http.MethodGet, Path: "/:id/availability", Handler: chargerHandler.GetAvailability},
			})
		}

		bookings := apiGroup.Group("/bookings")
		bookings.Use(authMiddleware.RequireAuth())
		{
			addRoutes(bookings, []route{
				{Method: http.MethodPost, Path: "", Handler: bookingHandler.CreateBooking},
				{Method: http.MethodGet, Path: "", Handler: bookingHandler.ListBookings},
				{Method: http.MethodGet, Path: "/:id", Handler: bookingHandler.GetBooking},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: bookingHandler.CancelBooking},
				{Method: http.MethodPost, Path: "/:id/accept", Handler: bookingHandler.AcceptBooking},
				{Method: http.MethodPost, Path: "/:id/session/start", Handler: sessionHandler.StartSession},
				{Method: http.MethodPost, Path: "/:id/session/stop", Handler: sessionHandler.StopSession},
			})
		}

		// The payment collaborator authenticates with its own shared secret,
		// not a user token.
		payments := apiGroup.Group("/payments")
		{
			addRoutes(payments, []route{
				{Method: http.MethodPost, Path: "/webhook", Handler: paymentHandler.HandleWebhook},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
