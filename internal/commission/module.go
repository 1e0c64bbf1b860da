// Package commission provides the commission resolution domain module.
package commission

import (
	"offermarket_backend/internal/commission/handler"
	"offermarket_backend/internal/commission/repository"
	"offermarket_backend/internal/commission/service"
	apphttp "offermarket_backend/internal/http"
	"offermarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the commission domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new commission module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "commission"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	commission := ctx.Admin.Group("/commission")
	m.handler.RegisterRoutes(commission)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
