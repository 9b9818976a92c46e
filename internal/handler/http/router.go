package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/rookgm/checkout/internal/middleware"
	"github.com/rookgm/checkout/internal/service"
	"go.uber.org/zap"
)

// NewRouter returns router serving session routes
func NewRouter(sh *SessionHandler, ts service.TokenService, log *zap.Logger) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.Logging(log))

	router.Post("/api/session/{orderID}", sh.LoadOrder())
	router.Get("/api/notifications", sh.ListNotifications())

	// routes that require session token
	router.Group(func(group chi.Router) {
		group.Use(AuthMiddleware(ts))
		group.Get("/api/session", sh.GetSession())
		group.Get("/api/session/status", sh.GetStatus())
		group.Post("/api/session/pay/{payWay}", sh.SubmitPayment())
		group.Post("/api/session/return", sh.ReturnToMerchant())
	})

	return router
}
