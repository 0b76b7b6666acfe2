// internal/evidence/collector.go
package evidence

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "hub-backoffice/internal/common/errors"
	"hub-backoffice/internal/common/logger"
	"hub-backoffice/internal/common/metrics"
	"hub-backoffice/internal/common/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Collector reads every evidence kind concurrently. A failing kind is logged
// and recorded in Snapshot.Failed; it never fails the whole collection.
type Collector struct {
	stores  Stores
	timeout time.Duration
	logger  logger.Logger
}

func NewCollector(stores Stores, timeout time.Duration, log logger.Logger) *Collector {
	return &Collector{
		stores:  stores,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "evidence-collector"}),
	}
}

type fetchFunc func(ctx context.Context, snap *Snapshot) (int, error)

// Collect gathers the snapshot for q. The only error it returns is a
// cancelled caller context.
func (c *Collector) Collect(ctx context.Context, q Query) (*Snapshot, error) {
	ctx, span := observability.Tracer("evidence").Start(ctx, "evidence.collect")
	defer span.End()
	span.SetAttributes(attribute.String("scope", q.ScopeLabel()))

	snap := &Snapshot{}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for kind, fetch := range c.fetchers(q, &mu) {
		kind, fetch := kind, fetch
		g.Go(func() error {
			c.run(gctx, q, kind, fetch, snap, &mu)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return nil, apperrors.NewRequestCancelledError(err)
	}

	if snap.Degraded() {
		span.SetAttributes(attribute.StringSlice("failed_kinds", snap.FailedNames()))
		c.logger.Warn("evidence collected with degraded sources", map[string]interface{}{
			"scope":  q.ScopeLabel(),
			"failed": snap.FailedNames(),
		})
	}
	return snap, nil
}

func (c *Collector) run(ctx context.Context, q Query, kind Kind, fetch fetchFunc, snap *Snapshot, mu *sync.Mutex) {
	qctx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	qctx, span := observability.Tracer("evidence").Start(qctx, "evidence.query."+string(kind))
	defer span.End()

	start := time.Now()
	n, err := fetch(qctx, snap)
	metrics.EvidenceQueryDuration.WithLabelValues(string(kind), q.ScopeLabel()).Observe(time.Since(start).Seconds())

	if err == nil {
		span.SetAttributes(attribute.Int("rows", n))
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.EvidenceQueryFailures.WithLabelValues(string(kind)).Inc()

	var stdErr *apperrors.StandardError
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		stdErr = apperrors.NewQueryTimeoutError(string(kind))
	} else {
		stdErr = apperrors.NewEvidenceQueryFailedError(string(kind), err)
	}

	c.logger.Warn("evidence query failed, treating as absent", map[string]interface{}{
		"kind":      string(kind),
		"scope":     q.ScopeLabel(),
		"errorCode": string(stdErr.Code),
		"error":     stdErr.Details,
	})

	mu.Lock()
	snap.Failed = append(snap.Failed, kind)
	mu.Unlock()
}

// fetchers returns one fetch per configured store. Each fetch stores its
// rows into the snapshot under mu.
func (c *Collector) fetchers(q Query, mu *sync.Mutex) map[Kind]fetchFunc {
	out := make(map[Kind]fetchFunc)
	s := c.stores

	if s.Tenants != nil {
		out[KindTenants] = func(ctx context.Context, snap *Snapshot) (int, error) {
			rows, err := s.Tenants.ListTenants(ctx, q)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			snap.Tenants = rows
			mu.Unlock()
			return len(rows), nil
		}
	}
	if s.Verifications != nil {
		out[KindVerifications] = func(ctx context.Context, snap *Snapshot) (int, error) {
			rows, err := s.Verifications.ListVerifications(ctx, q)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			snap.Verifications = rows
			mu.Unlock()
			return len(rows), nil
		}
	}
	if s.Users != nil {
		out[KindUsers] = func(ctx context.Context, snap *Snapshot) (int, error) {
			rows, err := s.Users.ListUsers(ctx, q)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			snap.Users = rows
			mu.Unlock()
			return len(rows), nil
		}
	}
	if s.Payments != nil {
		out[KindPayments] = func(ctx context.Context, snap *Snapshot) (int, error) {
			rows, err := s.Payments.ListPayments(ctx, q)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			snap.Payments = rows
			mu.Unlock()
			return len(rows), nil
		}
	}
	if s.Memberships != nil {
		out[KindMemberships] = func(ctx context.Context, snap *Snapshot) (int, error) {
			rows, err := s.Memberships.ListMemberships(ctx, q)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			snap.Memberships = rows
			mu.Unlock()
			return len(rows), nil
		}
	}
	if s.Submissions != nil {
		out[KindSubmissions] = func(ctx context.Context, snap *Snapshot) (int, error) {
			rows, err := s.Submissions.ListLatestSubmissions(ctx, q)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			snap.Submissions = rows
			mu.Unlock()
			return len(rows), nil
		}
	}
	// lead tallies are per hub, a single-tenant view has no use for them
	if s.Leads != nil && q.TenantID == "" {
		out[KindLeads] = func(ctx context.Context, snap *Snapshot) (int, error) {
			rows, err := s.Leads.TallyLeads(ctx, q)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			snap.Leads = rows
			mu.Unlock()
			return len(rows), nil
		}
	}
	return out
}
