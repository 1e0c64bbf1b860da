package handler

import (
	"offermarket_backend/internal/commission/service"
	"offermarket_backend/internal/commission/transport"
	"offermarket_backend/platform/apperr"
	"offermarket_backend/platform/httpkit"
	"offermarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler exposes the commission default over HTTP for back-office use.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new commission handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the commission routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.get)
	rg.PUT("", h.update)
}

func (h *Handler) get(c *gin.Context) {
	resolved, err := h.svc.SystemDefault(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.CommissionResponse{Rate: resolved.Rate, Type: resolved.Type})
}

func (h *Handler) update(c *gin.Context) {
	var req transport.UpdateCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindValidation, "invalid commission setting", err))
		return
	}

	resolved, err := h.svc.UpdateSystemDefault(c.Request.Context(), req.Rate, req.Type)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.CommissionResponse{Rate: resolved.Rate, Type: resolved.Type})
}
