package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateQuoteRequest is the intake payload from the form collaborator.
type CreateQuoteRequest struct {
	CustomerName    string    `json:"customerName" validate:"required,min=2,max=200"`
	CustomerEmail   string    `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string    `json:"customerPhone" validate:"omitempty,min=6,max=20"`
	ServiceType     string    `json:"serviceType" validate:"required,max=100"`
	ServiceDate     time.Time `json:"serviceDate" validate:"required"`
	PickupAddress   string    `json:"pickupAddress" validate:"required,max=500"`
	DeliveryAddress string    `json:"deliveryAddress" validate:"required,max=500"`
	Scope           string    `json:"scope" validate:"max=2000"`
}

// SubmitOfferRequest is a partner bid.
type SubmitOfferRequest struct {
	TotalPriceCents int64    `json:"totalPriceCents" validate:"required,gt=0"`
	RankingScore    *float64 `json:"rankingScore" validate:"omitempty,min=0"`
}

// JobStatusRequest reports progress on an approved job.
type JobStatusRequest struct {
	Status string `json:"status" validate:"required,max=50"`
	Note   string `json:"note" validate:"max=1000"`
}

// QuoteResponse is the API shape for a quote.
type QuoteResponse struct {
	ID              uuid.UUID `json:"id"`
	Status          string    `json:"status"`
	CustomerName    string    `json:"customerName"`
	ServiceType     string    `json:"serviceType"`
	ServiceDate     time.Time `json:"serviceDate"`
	PickupAddress   string    `json:"pickupAddress"`
	DeliveryAddress string    `json:"deliveryAddress"`
	Scope           string    `json:"scope,omitempty"`
	CommissionRate  *float64  `json:"commissionRate,omitempty"`
	CommissionType  *string   `json:"commissionType,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// OfferResponse is the API shape for an offer in a listing.
type OfferResponse struct {
	ID              uuid.UUID `json:"id"`
	QuoteID         uuid.UUID `json:"quoteId"`
	PartnerID       uuid.UUID `json:"partnerId"`
	PartnerName     string    `json:"partnerName"`
	Status          string    `json:"status"`
	TotalPriceCents int64     `json:"totalPriceCents"`
	RankingScore    *float64  `json:"rankingScore,omitempty"`
	IsSponsored     bool      `json:"isSponsored"`
	CreatedAt       time.Time `json:"createdAt"`
}
