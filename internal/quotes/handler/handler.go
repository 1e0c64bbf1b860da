package handler

import (
	"offermarket_backend/internal/quotes/repository"
	"offermarket_backend/internal/quotes/service"
	"offermarket_backend/internal/quotes/transport"
	"offermarket_backend/platform/apperr"
	"offermarket_backend/platform/httpkit"
	"offermarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes the offer lifecycle over HTTP.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new quotes handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes registers the intake endpoint used by the quote form
// collaborator.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.createQuote)
}

// RegisterProtectedRoutes registers the authenticated lifecycle endpoints.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/:quoteId", h.getQuote)
	rg.GET("/:quoteId/offers", h.listOffers)
	rg.POST("/:quoteId/offers", h.submitOffer)
	rg.POST("/:quoteId/offers/:offerId/approve", h.approveOffer)
	rg.POST("/:quoteId/offers/:offerId/withdraw", h.withdrawOffer)
	rg.POST("/:quoteId/complete", h.completeQuote)
	rg.POST("/:quoteId/cancel", h.cancelQuote)
	rg.POST("/:quoteId/job-status", h.updateJobStatus)
}

func (h *Handler) createQuote(c *gin.Context) {
	var req transport.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindValidation, "invalid quote request", err))
		return
	}

	quote, err := h.svc.CreateQuote(c.Request.Context(), service.CreateQuoteInput{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ServiceType:     req.ServiceType,
		ServiceDate:     req.ServiceDate,
		PickupAddress:   req.PickupAddress,
		DeliveryAddress: req.DeliveryAddress,
		Scope:           req.Scope,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, toQuoteResponse(quote))
}

func (h *Handler) getQuote(c *gin.Context) {
	quoteID, ok := pathID(c, "quoteId")
	if !ok {
		return
	}
	quote, err := h.svc.GetQuote(c.Request.Context(), quoteID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toQuoteResponse(quote))
}

func (h *Handler) listOffers(c *gin.Context) {
	quoteID, ok := pathID(c, "quoteId")
	if !ok {
		return
	}

	mode := c.DefaultQuery("sort", service.SortModePrice)
	offers, err := h.svc.ListOffers(c.Request.Context(), quoteID, mode)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.OfferResponse, 0, len(offers))
	for _, o := range offers {
		out = append(out, toOfferResponse(o))
	}
	httpkit.OK(c, out)
}

func (h *Handler) submitOffer(c *gin.Context) {
	quoteID, ok := pathID(c, "quoteId")
	if !ok {
		return
	}
	partnerID, ok := actorID(c)
	if !ok {
		return
	}

	var req transport.SubmitOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindValidation, "invalid offer", err))
		return
	}

	offer, err := h.svc.SubmitOffer(c.Request.Context(), quoteID, partnerID, req.TotalPriceCents, req.RankingScore)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, gin.H{"id": offer.ID, "status": offer.Status})
}

func (h *Handler) approveOffer(c *gin.Context) {
	quoteID, ok := pathID(c, "quoteId")
	if !ok {
		return
	}
	offerID, ok := pathID(c, "offerId")
	if !ok {
		return
	}

	offer, err := h.svc.ApproveOffer(c.Request.Context(), quoteID, offerID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"id": offer.ID, "status": offer.Status})
}

func (h *Handler) withdrawOffer(c *gin.Context) {
	quoteID, ok := pathID(c, "quoteId")
	if !ok {
		return
	}
	offerID, ok := pathID(c, "offerId")
	if !ok {
		return
	}
	partnerID, ok := actorID(c)
	if !ok {
		return
	}

	if err := h.svc.WithdrawOffer(c.Request.Context(), quoteID, offerID, partnerID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"withdrawn": true})
}

func (h *Handler) completeQuote(c *gin.Context) {
	quoteID, ok := pathID(c, "quoteId")
	if !ok {
		return
	}
	partnerID, ok := actorID(c)
	if !ok {
		return
	}

	if err := h.svc.CompleteQuote(c.Request.Context(), quoteID, partnerID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"completed": true})
}

func (h *Handler) cancelQuote(c *gin.Context) {
	quoteID, ok := pathID(c, "quoteId")
	if !ok {
		return
	}
	if err := h.svc.CancelQuote(c.Request.Context(), quoteID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"cancelled": true})
}

func (h *Handler) updateJobStatus(c *gin.Context) {
	quoteID, ok := pathID(c, "quoteId")
	if !ok {
		return
	}
	partnerID, ok := actorID(c)
	if !ok {
		return
	}

	var req transport.JobStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindValidation, "invalid job status", err))
		return
	}

	if err := h.svc.UpdateJobStatus(c.Request.Context(), quoteID, partnerID, req.Status, req.Note); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"updated": true})
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// actorID reads the authenticated partner from the request identity.
func actorID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.GetIdentity(c)
	if !identity.IsAuthenticated() {
		httpkit.HandleError(c, apperr.Unauthorized("authentication required"))
		return uuid.Nil, false
	}
	return identity.ActorID(), true
}

func toQuoteResponse(q repository.Quote) transport.QuoteResponse {
	return transport.QuoteResponse{
		ID:              q.ID,
		Status:          q.Status,
		CustomerName:    q.CustomerName,
		ServiceType:     q.ServiceType,
		ServiceDate:     q.ServiceDate,
		PickupAddress:   q.PickupAddress,
		DeliveryAddress: q.DeliveryAddress,
		Scope:           q.Scope,
		CommissionRate:  q.CommissionRate,
		CommissionType:  q.CommissionType,
		CreatedAt:       q.CreatedAt,
	}
}

func toOfferResponse(o repository.OfferListing) transport.OfferResponse {
	return transport.OfferResponse{
		ID:              o.ID,
		QuoteID:         o.QuoteID,
		PartnerID:       o.PartnerID,
		PartnerName:     o.PartnerName,
		Status:          o.Status,
		TotalPriceCents: o.TotalPriceCents,
		RankingScore:    o.RankingScore,
		IsSponsored:     o.IsSponsored,
		CreatedAt:       o.CreatedAt,
	}
}
