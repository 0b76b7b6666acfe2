package evidence

import (
	"context"
	"errors"
	"testing"
	"time"

	"hub-backoffice/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db, createTestLogger(t)), mock
}

func hubRef(id int) *int { return &id }

// ==========================
// Tenants
// ==========================

func TestPostgresStore_ListTenants(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)

	rows := sqlmock.NewRows([]string{"id", "name", "hub_id", "created_at", "updated_at"}).
		AddRow("t-1", "Acme Plumbing", 2, created, updated).
		AddRow("t-2", "Bright Dental", 2, created, nil)

	mock.ExpectQuery(`SELECT id, name, hub_id, created_at, updated_at FROM companies WHERE hub_id = \$1 ORDER BY created_at DESC`).
		WithArgs(2).
		WillReturnRows(rows)

	tenants, err := store.ListTenants(context.Background(), Query{HubID: hubRef(2)})
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "Acme Plumbing", tenants[0].Name)
	assert.Equal(t, updated, tenants[0].UpdatedAt)
	assert.True(t, tenants[1].UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListTenants_GlobalHasNoFilter(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM companies ORDER BY created_at DESC`).
		WithArgs().
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "hub_id", "created_at", "updated_at"}))

	tenants, err := store.ListTenants(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, tenants)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListTenants_SingleTenant(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM companies WHERE id = \$1`).
		WithArgs("t-9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "hub_id", "created_at", "updated_at"}).
			AddRow("t-9", "Solo", 1, time.Now(), nil))

	tenants, err := store.ListTenants(context.Background(), Query{TenantID: "t-9"})
	require.NoError(t, err)
	assert.Len(t, tenants, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SkipsUndecodableRow(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "hub_id", "created_at", "updated_at"}).
		AddRow("t-1", "Good", 1, time.Now(), nil).
		AddRow("t-2", "Broken", 1, "not-a-timestamp", nil).
		AddRow("t-3", "Also good", 1, time.Now(), nil)

	mock.ExpectQuery(`FROM companies`).WillReturnRows(rows)

	tenants, err := store.ListTenants(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "t-1", tenants[0].ID)
	assert.Equal(t, "t-3", tenants[1].ID)
}

func TestPostgresStore_QueryError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM customers`).WillReturnError(errors.New("connection reset"))

	_, err := store.ListPayments(context.Background(), Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

// ==========================
// Other kinds
// ==========================

func TestPostgresStore_ListVerifications_TimeRange(t *testing.T) {
	store, mock := newMockStore(t)
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.AddDate(0, 1, 0)

	mock.ExpectQuery(`FROM verifications WHERE hub_id = \$1 AND created_at >= \$2 AND created_at < \$3`).
		WithArgs(3, since, until).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "hub_id", "status", "created_at"}).
			AddRow("v-1", nil, 3, "pending", since).
			AddRow("v-2", "t-1", 3, "verified", since))

	got, err := store.ListVerifications(context.Background(), Query{
		HubID:              hubRef(3),
		VerificationsSince: since,
		VerificationsUntil: until,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Empty(t, got[0].TenantID)
	assert.Equal(t, "t-1", got[1].TenantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListPayments_NullStatus(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT company_id, hub_id, payment_status, updated_at FROM customers WHERE company_id = \$1`).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows([]string{"company_id", "hub_id", "payment_status", "updated_at"}).
			AddRow("t-1", 1, nil, nil))

	got, err := store.ListPayments(context.Background(), Query{TenantID: "t-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].PaymentStatus)
}

func TestPostgresStore_ListLatestSubmissions(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT DISTINCT ON \(company_id\) company_id, hub_id, current_step, stripe_status, updated_at FROM onboarding_submissions WHERE hub_id = \$1 ORDER BY company_id, updated_at DESC`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"company_id", "hub_id", "current_step", "stripe_status", "updated_at"}).
			AddRow("t-1", 1, "brand", "completed", ts))

	got, err := store.ListLatestSubmissions(context.Background(), Query{HubID: hubRef(1)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "brand", got[0].CurrentStep)
	assert.Equal(t, ts, got[0].UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_TallyLeads_IgnoresTenant(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM leads WHERE hub_id = \$1 GROUP BY hub_id`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"hub_id", "count", "pending"}).AddRow(4, 12, 5))

	got, err := store.TallyLeads(context.Background(), Query{HubID: hubRef(4), TenantID: "t-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 12, got[0].Total)
	assert.Equal(t, 5, got[0].Pending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListUsersAndMemberships(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, company_id, hub_id, created_at FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "hub_id", "created_at"}).
			AddRow("u-1", "t-1", 1, time.Now()))
	mock.ExpectQuery(`SELECT user_id, company_id, hub_id FROM memberships`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "company_id", "hub_id"}).
			AddRow("u-1", "t-1", 1).
			AddRow("u-2", "t-1", 1))

	users, err := store.ListUsers(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, users, 1)

	members, err := store.ListMemberships(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
