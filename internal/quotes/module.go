// Package quotes provides the offer lifecycle domain module.
package quotes

import (
	"offermarket_backend/internal/events"
	apphttp "offermarket_backend/internal/http"
	"offermarket_backend/internal/quotes/handler"
	"offermarket_backend/internal/quotes/repository"
	"offermarket_backend/internal/quotes/service"
	"offermarket_backend/platform/logger"
	"offermarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the quotes domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new quotes module with all dependencies wired
func NewModule(pool *pgxpool.Pool, partners service.PartnerDirectory, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, partners, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/quotes")
	public.Use(ctx.PublicRateLimiter)
	m.handler.RegisterPublicRoutes(public)

	protected := ctx.Protected.Group("/quotes")
	m.handler.RegisterProtectedRoutes(protected)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
