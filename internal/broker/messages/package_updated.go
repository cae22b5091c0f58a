package messages

import "time"

// PackageUpdated carries an externally sourced status change for an active package.
// Nil fields are left as they are.
type PackageUpdated struct {
	PackageID string `json:"package_id"`

	Status            *string `json:"status,omitempty"`
	Location          *string `json:"location,omitempty"`
	EstimatedDelivery *string `json:"estimated_delivery,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}
