// internal/evidence/store.go
package evidence

import (
	"context"
	"time"

	"hub-backoffice/internal/models"
)

// Kind names one independently queried evidence source.
type Kind string

const (
	KindTenants       Kind = "tenants"
	KindVerifications Kind = "verifications"
	KindUsers         Kind = "users"
	KindPayments      Kind = "payments"
	KindMemberships   Kind = "memberships"
	KindSubmissions   Kind = "submissions"
	KindLeads         Kind = "leads"
)

// Query is the closed filter set every evidence store accepts. A nil HubID
// means the full table.
type Query struct {
	HubID    *int
	TenantID string

	// Only the verification store honours the time range. Zero means unbounded.
	VerificationsSince time.Time
	VerificationsUntil time.Time
}

// QueryFor builds the query for a scope.
func QueryFor(scope models.Scope) Query {
	return Query{HubID: scope.HubFilter()}
}

// ScopeLabel is the metric/log label of the query.
func (q Query) ScopeLabel() string {
	switch {
	case q.TenantID != "":
		return "tenant"
	case q.HubID == nil:
		return "global"
	default:
		return "hub"
	}
}

type TenantStore interface {
	ListTenants(ctx context.Context, q Query) ([]models.Tenant, error)
}

type VerificationStore interface {
	ListVerifications(ctx context.Context, q Query) ([]models.Verification, error)
}

type UserStore interface {
	ListUsers(ctx context.Context, q Query) ([]models.UserAccount, error)
}

type PaymentStore interface {
	ListPayments(ctx context.Context, q Query) ([]models.PaymentRecord, error)
}

type MembershipStore interface {
	ListMemberships(ctx context.Context, q Query) ([]models.Membership, error)
}

// SubmissionStore returns at most one submission per tenant: the latest.
type SubmissionStore interface {
	ListLatestSubmissions(ctx context.Context, q Query) ([]models.Submission, error)
}

type LeadStore interface {
	TallyLeads(ctx context.Context, q Query) ([]models.LeadTally, error)
}

// Stores bundles one implementation per evidence kind. A nil store is skipped
// and its evidence reported absent.
type Stores struct {
	Tenants       TenantStore
	Verifications VerificationStore
	Users         UserStore
	Payments      PaymentStore
	Memberships   MembershipStore
	Submissions   SubmissionStore
	Leads         LeadStore
}

// PostgresStores wires every kind to the same Postgres store.
func PostgresStores(pg *PostgresStore) Stores {
	return Stores{
		Tenants:       pg,
		Verifications: pg,
		Users:         pg,
		Payments:      pg,
		Memberships:   pg,
		Submissions:   pg,
		Leads:         pg,
	}
}
