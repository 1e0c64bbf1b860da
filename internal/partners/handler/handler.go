package handler

import (
	"offermarket_backend/internal/partners/repository"
	"offermarket_backend/internal/partners/service"
	"offermarket_backend/internal/partners/transport"
	"offermarket_backend/platform/apperr"
	"offermarket_backend/platform/httpkit"
	"offermarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes partner operations over HTTP.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new partners handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes registers the unauthenticated application endpoint.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/apply", h.apply)
}

// RegisterAdminRoutes registers back-office partner management.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.get)
	rg.PUT("/:id/commission", h.setCommissionOverride)
	rg.PUT("/:id/sponsored", h.setSponsored)
}

func (h *Handler) apply(c *gin.Context) {
	var req transport.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindValidation, "invalid partner application", err))
		return
	}

	partner, err := h.svc.Apply(c.Request.Context(), service.ApplyInput{
		CompanyName:  req.CompanyName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, toResponse(partner))
}

func (h *Handler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid partner id"))
		return
	}

	partner, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(partner))
}

func (h *Handler) setCommissionOverride(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid partner id"))
		return
	}

	var req transport.CommissionOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindValidation, "invalid commission override", err))
		return
	}

	if err := h.svc.SetCommissionOverride(c.Request.Context(), id, req.Rate, req.Type); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"updated": true})
}

func (h *Handler) setSponsored(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid partner id"))
		return
	}

	var req transport.SponsoredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}

	if err := h.svc.SetSponsored(c.Request.Context(), id, req.Sponsored); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"updated": true})
}

func toResponse(p repository.Partner) transport.PartnerResponse {
	return transport.PartnerResponse{
		ID:                     p.ID,
		CompanyName:            p.CompanyName,
		ContactEmail:           p.ContactEmail,
		ContactPhone:           p.ContactPhone,
		CommissionRateOverride: p.CommissionRateOverride,
		CommissionTypeOverride: p.CommissionTypeOverride,
		IsSponsored:            p.IsSponsored,
		IsActive:               p.IsActive,
		CreatedAt:              p.CreatedAt,
	}
}
