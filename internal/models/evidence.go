// internal/models/evidence.go
package models

import "time"

// Verification statuses
const (
	VerificationStatusPending  = "pending"
	VerificationStatusVerified = "verified"
)

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

// LeadStatusPending marks a lead nobody has followed up yet.
const LeadStatusPending = "pending"

// Verification is an identity-verification attempt. TenantID is empty when the
// attempt has not been linked to a company yet.
type Verification struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId,omitempty"`
	HubID     int       `json:"hubId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserAccount struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId,omitempty"`
	HubID     int       `json:"hubId"`
	CreatedAt time.Time `json:"createdAt"`
}

// PaymentRecord is the billing customer row of a tenant. Only the status is consumed.
type PaymentRecord struct {
	TenantID      string    `json:"tenantId"`
	HubID         int       `json:"hubId"`
	PaymentStatus string    `json:"paymentStatus"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

type Membership struct {
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId"`
	HubID    int    `json:"hubId"`
}

// Submission is the latest onboarding-wizard record of a tenant.
type Submission struct {
	TenantID     string    `json:"tenantId"`
	HubID        int       `json:"hubId"`
	CurrentStep  string    `json:"currentStep"`
	StripeStatus string    `json:"stripeStatus"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LeadTally is the lead count of one hub.
type LeadTally struct {
	HubID   int `json:"hubId"`
	Total   int `json:"total"`
	Pending int `json:"pending"`
}
