// internal/stats/service.go
package stats

import (
	"context"
	"errors"
	"strings"
	"time"

	"hub-backoffice/internal/common/config"
	apperrors "hub-backoffice/internal/common/errors"
	"hub-backoffice/internal/common/logger"
	"hub-backoffice/internal/common/metrics"
	"hub-backoffice/internal/common/observability"
	"hub-backoffice/internal/evidence"
	"hub-backoffice/internal/models"
	"hub-backoffice/internal/onboarding"

	"go.opentelemetry.io/otel/attribute"
)

// Collector is the evidence source the service aggregates over.
type Collector interface {
	Collect(ctx context.Context, q evidence.Query) (*evidence.Snapshot, error)
}

// Service answers the dashboard questions: stats for one hub, stats for every
// hub with the per-hub breakdown, and the derived onboarding rows.
type Service struct {
	collector Collector
	hubs      *config.HubDirectory
	dashboard config.DashboardConfig
	obs       *observability.Observability
	logger    logger.Logger
	now       func() time.Time
}

func NewService(collector Collector, hubs *config.HubDirectory, dashboard config.DashboardConfig, obs *observability.Observability, log logger.Logger) *Service {
	if dashboard.PageSize <= 0 {
		dashboard.PageSize = 50
	}
	if dashboard.MaxPageSize < dashboard.PageSize {
		dashboard.MaxPageSize = dashboard.PageSize
	}
	return &Service{
		collector: collector,
		hubs:      hubs,
		dashboard: dashboard,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "stats"}),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Hubs exposes the hub directory the service resolves references against.
func (s *Service) Hubs() *config.HubDirectory {
	return s.hubs
}

// GetStats computes the stats of one hub. hubRef is a hub id or name; an
// unknown hub fails with INVALID_SCOPE.
func (s *Service) GetStats(ctx context.Context, hubRef string, opts StatsOptions) (*Stats, error) {
	hub, err := s.hubs.Resolve(hubRef)
	if err != nil {
		return nil, apperrors.NewInvalidScopeError(hubRef, err)
	}

	q := evidence.QueryFor(models.HubScope(hub.ID))
	q.VerificationsSince = opts.VerificationsSince
	q.VerificationsUntil = opts.VerificationsUntil

	stats, _, err := s.compute(ctx, q)
	if err != nil {
		return nil, err
	}
	id := hub.ID
	stats.HubID = &id
	stats.HubName = hub.Name
	return stats, nil
}

// GetGlobalStats computes the stats over every hub plus the per-hub
// breakdown. The breakdown comes from the same snapshot, not from one query
// per hub.
func (s *Service) GetGlobalStats(ctx context.Context, opts StatsOptions) (*Stats, error) {
	q := evidence.QueryFor(models.GlobalScope())
	q.VerificationsSince = opts.VerificationsSince
	q.VerificationsUntil = opts.VerificationsUntil

	stats, snap, err := s.compute(ctx, q)
	if err != nil {
		return nil, err
	}
	stats.HubBreakdown = breakdown(snap, s.hubs.Hubs())
	return stats, nil
}

// GetTenantOnboardingRows returns the derived results for a scope, filtered
// by opts and capped at the page size.
func (s *Service) GetTenantOnboardingRows(ctx context.Context, scope models.Scope, opts RowsOptions) ([]onboarding.Result, error) {
	if !scope.Global && !s.hubs.Contains(scope.HubID) {
		return nil, apperrors.NewInvalidScopeError(scope.String(), config.ErrUnknownHub)
	}
	if opts.Stage != "" && !opts.Stage.Valid() {
		return nil, apperrors.NewInvalidParameterError("stage", string(opts.Stage))
	}
	if opts.Limit < 0 {
		return nil, apperrors.NewInvalidParameterError("limit", "must not be negative")
	}

	ctx, span := observability.Tracer("stats").Start(ctx, "stats.rows")
	defer span.End()
	span.SetAttributes(attribute.String("scope", scope.String()))

	snap, err := s.collector.Collect(ctx, evidence.QueryFor(scope))
	if err != nil {
		return nil, err
	}

	results := evaluate(snap)
	filtered := results[:0]
	for _, r := range results {
		if opts.matches(r) {
			filtered = append(filtered, r)
		}
	}
	return capResults(filtered, s.limit(opts.Limit)), nil
}

// GetTenantOnboarding derives the result of a single tenant.
func (s *Service) GetTenantOnboarding(ctx context.Context, tenantID string) (*onboarding.Result, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, apperrors.NewInvalidParameterError("tenantId", "must not be empty")
	}

	snap, err := s.collector.Collect(ctx, evidence.Query{TenantID: tenantID})
	if err != nil {
		return nil, err
	}

	for _, k := range snap.Failed {
		if k == evidence.KindTenants {
			return nil, apperrors.NewEvidenceQueryFailedError(string(k), errors.New("tenant store unavailable"))
		}
	}

	results := evaluate(snap)
	for i := range results {
		if results[i].TenantID == tenantID {
			return &results[i], nil
		}
	}
	return nil, apperrors.NewTenantNotFoundError(tenantID)
}

func (s *Service) compute(ctx context.Context, q evidence.Query) (*Stats, *evidence.Snapshot, error) {
	ctx, span := observability.Tracer("stats").Start(ctx, "stats.compute")
	defer span.End()

	scopeLabel := "global"
	if q.HubID != nil {
		scopeLabel = s.hubs.Name(*q.HubID)
	}
	span.SetAttributes(attribute.String("scope", scopeLabel))

	snap, err := s.collector.Collect(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	results := evaluate(snap)
	stats := &Stats{Scope: q.ScopeLabel(), GeneratedAt: s.now()}
	summarize(stats, snap, results)
	stats.Tenants = capResults(results, s.dashboard.PageSize)

	for stage, n := range stats.StageCounts {
		metrics.OnboardingStageTenants.WithLabelValues(scopeLabel, string(stage)).Set(float64(n))
	}
	s.obs.RecordStatsComputed(ctx, scopeLabel, stats.TotalTenants, len(stats.DegradedSources))

	s.logger.Info("stats computed", map[string]interface{}{
		"scope":    scopeLabel,
		"tenants":  stats.TotalTenants,
		"degraded": stats.DegradedSources,
	})
	return stats, snap, nil
}

func (s *Service) limit(requested int) int {
	switch {
	case requested <= 0:
		return s.dashboard.PageSize
	case requested > s.dashboard.MaxPageSize:
		return s.dashboard.MaxPageSize
	default:
		return requested
	}
}

func capResults(results []onboarding.Result, n int) []onboarding.Result {
	if len(results) > n {
		results = results[:n]
	}
	out := make([]onboarding.Result, len(results))
	copy(out, results)
	return out
}
