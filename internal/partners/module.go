// Package partners provides the partner management domain module.
package partners

import (
	commission "offermarket_backend/internal/commission/service"
	"offermarket_backend/internal/events"
	apphttp "offermarket_backend/internal/http"
	"offermarket_backend/internal/partners/handler"
	"offermarket_backend/internal/partners/repository"
	"offermarket_backend/internal/partners/service"
	"offermarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the partners domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new partners module with all dependencies wired
func NewModule(pool *pgxpool.Pool, commissionSvc *commission.Service, bus events.Bus, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, commissionSvc, bus)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "partners"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/partners")
	public.Use(ctx.PublicRateLimiter)
	m.handler.RegisterPublicRoutes(public)

	admin := ctx.Admin.Group("/partners")
	m.handler.RegisterAdminRoutes(admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
