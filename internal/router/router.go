// Package router wires handlers and middleware onto the Echo instance.
package router

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/riopesca/booking-api/internal/config"
    "github.com/riopesca/booking-api/internal/handler"
    "github.com/riopesca/booking-api/internal/middleware"
    "github.com/riopesca/booking-api/internal/model"
)

// Handlers collects the constructed handlers the router needs.
type Handlers struct {
    Auth         *handler.AuthHandler
    Reservations *handler.ReservationHandler
    Payments     *handler.PaymentHandler
    Webhook      *handler.WebhookHandler
    Wise         *handler.WiseHandler
}

// Register mounts every route.  The webhook and auth endpoints are public
// (the webhook authenticates by signature, not by JWT); everything else
// lives behind JWT + role middleware.  Rate limiting wraps the public
// surface and the response cache wraps staff GET endpoints; both degrade to
// pass-through when Redis is down.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    e.GET("/healthz", handler.Health)

    // Provider webhook: public, signature-verified, rate limited.
    e.POST("/v1/payments/wise/webhook", h.Webhook.HandleWise, limiter)

    // Session endpoints.
    authGroup := e.Group("/v1/auth", limiter)
    authGroup.POST("/register", h.Auth.Register)
    authGroup.POST("/login", h.Auth.Login)
    authGroup.POST("/refresh", h.Auth.Refresh)
    authGroup.POST("/refresh-access", h.Auth.RefreshAccess)
    authGroup.POST("/logout", h.Auth.Logout)

    // Staff endpoints: any authenticated staff role.
    v1 := e.Group("/v1")
    v1.Use(middleware.JWTAuth(cfg.JWTSecret))
    v1.Use(middleware.RequireRole(model.RoleAdmin, model.RoleAgent))

    v1.GET("/me", h.Auth.Me)

    v1.POST("/reservations", h.Reservations.Create)
    v1.GET("/reservations", h.Reservations.List, cache)
    v1.GET("/reservations/:id", h.Reservations.Get)
    v1.PUT("/reservations/:id", h.Reservations.Update)
    v1.PATCH("/reservations/:id/status", h.Reservations.UpdateStatus)
    v1.DELETE("/reservations/:id", h.Reservations.Cancel)

    v1.POST("/payments", h.Payments.Create)
    v1.GET("/payments", h.Payments.List, cache)
    v1.GET("/payments/unreconciled", h.Payments.ListUnreconciled)
    v1.POST("/payments/reconcile/:unreconciledId", h.Payments.Reconcile)
    v1.GET("/payments/reservation/:reservationId", h.Payments.Details)
    v1.GET("/payments/:id", h.Payments.Get)
    v1.PATCH("/payments/:id/status", h.Payments.UpdateStatus)
    v1.PATCH("/payments/:id/metadata", h.Payments.UpdateMetadata)
    v1.DELETE("/payments/:id", h.Payments.Delete)

    v1.GET("/wise/account-details", h.Wise.AccountDetails)
    v1.GET("/wise/transfers", h.Wise.Transfers)
}
