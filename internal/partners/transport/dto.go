package transport

import (
	"time"

	"github.com/google/uuid"
)

// ApplyRequest is a new partner application.
type ApplyRequest struct {
	CompanyName  string `json:"companyName" validate:"required,min=2,max=200"`
	ContactEmail string `json:"contactEmail" validate:"required,email"`
	ContactPhone string `json:"contactPhone" validate:"required,min=6,max=20"`
}

// CommissionOverrideRequest sets or clears a partner's commission override.
// Null fields clear that side of the override.
type CommissionOverrideRequest struct {
	Rate *float64 `json:"rate" validate:"omitempty,min=0"`
	Type *string  `json:"type" validate:"omitempty,oneof=percentage fixed"`
}

// SponsoredRequest toggles sponsored placement.
type SponsoredRequest struct {
	Sponsored bool `json:"sponsored"`
}

// PartnerResponse is the API shape for a partner.
type PartnerResponse struct {
	ID                     uuid.UUID `json:"id"`
	CompanyName            string    `json:"companyName"`
	ContactEmail           string    `json:"contactEmail"`
	ContactPhone           string    `json:"contactPhone"`
	CommissionRateOverride *float64  `json:"commissionRateOverride,omitempty"`
	CommissionTypeOverride *string   `json:"commissionTypeOverride,omitempty"`
	IsSponsored            bool      `json:"isSponsored"`
	IsActive               bool      `json:"isActive"`
	CreatedAt              time.Time `json:"createdAt"`
}
