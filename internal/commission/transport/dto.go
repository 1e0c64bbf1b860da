// Package transport defines request/response DTOs for the commission module.
package transport

// CommissionResponse is the resolved or stored commission setting.
type CommissionResponse struct {
	Rate float64 `json:"rate"`
	Type string  `json:"type"`
}

// UpdateCommissionRequest updates the system-wide default commission.
type UpdateCommissionRequest struct {
	Rate float64 `json:"rate" validate:"required"`
	Type string  `json:"type" validate:"required,oneof=percentage fixed"`
}
