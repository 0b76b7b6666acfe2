// internal/models/tenant.go
package models

import "time"

// Tenant is a company onboarding onto one hub.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	HubID     int       `json:"hubId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}
