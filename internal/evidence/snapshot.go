// internal/evidence/snapshot.go
package evidence

import (
	"sort"
	"strings"

	"hub-backoffice/internal/models"
	"hub-backoffice/internal/onboarding"
)

// Snapshot is the evidence collected for one request. A kind listed in Failed
// could not be read; its slice is empty and it counts as absent evidence.
type Snapshot struct {
	Tenants       []models.Tenant
	Verifications []models.Verification
	Users         []models.UserAccount
	Payments      []models.PaymentRecord
	Memberships   []models.Membership
	Submissions   []models.Submission
	Leads         []models.LeadTally

	Failed []Kind
}

// Degraded reports whether any kind failed.
func (s *Snapshot) Degraded() bool {
	return len(s.Failed) > 0
}

// FailedNames returns the failed kinds as sorted strings.
func (s *Snapshot) FailedNames() []string {
	out := make([]string, 0, len(s.Failed))
	for _, k := range s.Failed {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

// TenantIndex groups per-tenant evidence for stage inference.
type TenantIndex struct {
	verified    map[string]bool
	users       map[string]bool
	memberships map[string]bool
	payments    map[string]*models.PaymentRecord
	submissions map[string]*models.Submission
}

// Index builds the per-tenant lookups for the snapshot.
func (s *Snapshot) Index() *TenantIndex {
	idx := &TenantIndex{
		verified:    make(map[string]bool),
		users:       make(map[string]bool),
		memberships: make(map[string]bool),
		payments:    make(map[string]*models.PaymentRecord),
		submissions: make(map[string]*models.Submission),
	}

	for _, v := range s.Verifications {
		if v.TenantID != "" {
			idx.verified[v.TenantID] = true
		}
	}
	for _, u := range s.Users {
		if u.TenantID != "" {
			idx.users[u.TenantID] = true
		}
	}
	for _, m := range s.Memberships {
		idx.memberships[m.TenantID] = true
	}
	for i := range s.Payments {
		p := &s.Payments[i]
		if cur, ok := idx.payments[p.TenantID]; !ok || paymentRank(p.PaymentStatus) > paymentRank(cur.PaymentStatus) {
			idx.payments[p.TenantID] = p
		}
	}
	for i := range s.Submissions {
		sub := &s.Submissions[i]
		if cur, ok := idx.submissions[sub.TenantID]; !ok || sub.UpdatedAt.After(cur.UpdatedAt) {
			idx.submissions[sub.TenantID] = sub
		}
	}
	return idx
}

// paymentRank orders duplicate payment rows: completed beats pending beats
// any other status beats empty.
func paymentRank(status string) int {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.PaymentStatusCompleted:
		return 3
	case models.PaymentStatusPending:
		return 2
	case "":
		return 0
	default:
		return 1
	}
}

// Evidence returns what is known about one tenant.
func (idx *TenantIndex) Evidence(tenantID string) onboarding.Evidence {
	return onboarding.Evidence{
		HasVerification: idx.verified[tenantID],
		HasUserAccount:  idx.users[tenantID],
		HasMembership:   idx.memberships[tenantID],
		Payment:         idx.payments[tenantID],
		Submission:      idx.submissions[tenantID],
	}
}

// HasMembership reports whether the tenant has at least one member.
func (idx *TenantIndex) HasMembership(tenantID string) bool {
	return idx.memberships[tenantID]
}
