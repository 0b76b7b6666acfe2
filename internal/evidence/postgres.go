// internal/evidence/postgres.go
package evidence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"hub-backoffice/internal/common/logger"
	"hub-backoffice/internal/common/metrics"
	"hub-backoffice/internal/models"
)

var baseQueries = map[Kind]string{
	KindTenants:       `SELECT id, name, hub_id, created_at, updated_at FROM companies`,
	KindVerifications: `SELECT id, company_id, hub_id, status, created_at FROM verifications`,
	KindUsers:         `SELECT id, company_id, hub_id, created_at FROM users`,
	KindPayments:      `SELECT company_id, hub_id, payment_status, updated_at FROM customers`,
	KindMemberships:   `SELECT user_id, company_id, hub_id FROM memberships`,
	KindSubmissions:   `SELECT DISTINCT ON (company_id) company_id, hub_id, current_step, stripe_status, updated_at FROM onboarding_submissions`,
	KindLeads:         `SELECT hub_id, COUNT(*), COUNT(*) FILTER (WHERE status = 'pending') FROM leads`,
}

// PostgresStore reads every evidence kind from the shared relational store.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"store": "postgres"}),
	}
}

type whereClause struct {
	conds []string
	args  []interface{}
}

// add appends a condition; expr holds one %d for the placeholder index.
func (w *whereClause) add(expr string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(expr, len(w.args)))
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func scoped(q Query, tenantCol string) *whereClause {
	w := &whereClause{}
	if q.HubID != nil {
		w.add("hub_id = $%d", *q.HubID)
	}
	if q.TenantID != "" && tenantCol != "" {
		w.add(tenantCol+" = $%d", q.TenantID)
	}
	return w
}

func (s *PostgresStore) ListTenants(ctx context.Context, q Query) ([]models.Tenant, error) {
	w := scoped(q, "id")
	rows, err := s.db.QueryContext(ctx, baseQueries[KindTenants]+w.String()+" ORDER BY created_at DESC", w.args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, KindTenants, s.logger, func(r *sql.Rows) (models.Tenant, error) {
		var t models.Tenant
		var updated sql.NullTime
		if err := r.Scan(&t.ID, &t.Name, &t.HubID, &t.CreatedAt, &updated); err != nil {
			return t, err
		}
		t.UpdatedAt = updated.Time
		return t, nil
	})
}

func (s *PostgresStore) ListVerifications(ctx context.Context, q Query) ([]models.Verification, error) {
	w := scoped(q, "company_id")
	if !q.VerificationsSince.IsZero() {
		w.add("created_at >= $%d", q.VerificationsSince)
	}
	if !q.VerificationsUntil.IsZero() {
		w.add("created_at < $%d", q.VerificationsUntil)
	}
	rows, err := s.db.QueryContext(ctx, baseQueries[KindVerifications]+w.String(), w.args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, KindVerifications, s.logger, func(r *sql.Rows) (models.Verification, error) {
		var v models.Verification
		var tenantID sql.NullString
		if err := r.Scan(&v.ID, &tenantID, &v.HubID, &v.Status, &v.CreatedAt); err != nil {
			return v, err
		}
		v.TenantID = tenantID.String
		return v, nil
	})
}

func (s *PostgresStore) ListUsers(ctx context.Context, q Query) ([]models.UserAccount, error) {
	w := scoped(q, "company_id")
	rows, err := s.db.QueryContext(ctx, baseQueries[KindUsers]+w.String(), w.args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, KindUsers, s.logger, func(r *sql.Rows) (models.UserAccount, error) {
		var u models.UserAccount
		var tenantID sql.NullString
		if err := r.Scan(&u.ID, &tenantID, &u.HubID, &u.CreatedAt); err != nil {
			return u, err
		}
		u.TenantID = tenantID.String
		return u, nil
	})
}

func (s *PostgresStore) ListPayments(ctx context.Context, q Query) ([]models.PaymentRecord, error) {
	w := scoped(q, "company_id")
	rows, err := s.db.QueryContext(ctx, baseQueries[KindPayments]+w.String(), w.args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, KindPayments, s.logger, func(r *sql.Rows) (models.PaymentRecord, error) {
		var p models.PaymentRecord
		var status sql.NullString
		var updated sql.NullTime
		if err := r.Scan(&p.TenantID, &p.HubID, &status, &updated); err != nil {
			return p, err
		}
		p.PaymentStatus = status.String
		p.UpdatedAt = updated.Time
		return p, nil
	})
}

func (s *PostgresStore) ListMemberships(ctx context.Context, q Query) ([]models.Membership, error) {
	w := scoped(q, "company_id")
	rows, err := s.db.QueryContext(ctx, baseQueries[KindMemberships]+w.String(), w.args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, KindMemberships, s.logger, func(r *sql.Rows) (models.Membership, error) {
		var m models.Membership
		err := r.Scan(&m.UserID, &m.TenantID, &m.HubID)
		return m, err
	})
}

func (s *PostgresStore) ListLatestSubmissions(ctx context.Context, q Query) ([]models.Submission, error) {
	w := scoped(q, "company_id")
	rows, err := s.db.QueryContext(ctx, baseQueries[KindSubmissions]+w.String()+" ORDER BY company_id, updated_at DESC", w.args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, KindSubmissions, s.logger, func(r *sql.Rows) (models.Submission, error) {
		var sub models.Submission
		var step, stripe sql.NullString
		if err := r.Scan(&sub.TenantID, &sub.HubID, &step, &stripe, &sub.UpdatedAt); err != nil {
			return sub, err
		}
		sub.CurrentStep = step.String
		sub.StripeStatus = stripe.String
		return sub, nil
	})
}

// TallyLeads counts leads per hub. Leads are not tied to a tenant, so
// Query.TenantID is ignored.
func (s *PostgresStore) TallyLeads(ctx context.Context, q Query) ([]models.LeadTally, error) {
	w := scoped(q, "")
	rows, err := s.db.QueryContext(ctx, baseQueries[KindLeads]+w.String()+" GROUP BY hub_id", w.args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, KindLeads, s.logger, func(r *sql.Rows) (models.LeadTally, error) {
		var lt models.LeadTally
		err := r.Scan(&lt.HubID, &lt.Total, &lt.Pending)
		return lt, err
	})
}

// collectRows scans every row with scan. A row that fails to scan is logged,
// counted and skipped so one corrupt record only loses its own evidence.
func collectRows[T any](rows *sql.Rows, kind Kind, log logger.Logger, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	skipped := 0
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			skipped++
			metrics.EvidenceRowsSkipped.WithLabelValues(string(kind)).Inc()
			log.Warn("skipping undecodable evidence row", map[string]interface{}{
				"kind":  string(kind),
				"error": err.Error(),
			})
			continue
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if skipped > 0 {
		log.Debug("evidence rows skipped", map[string]interface{}{"kind": string(kind), "skipped": skipped, "kept": len(out)})
	}
	return out, nil
}
