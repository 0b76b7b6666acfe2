// internal/api/handlers.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hub-backoffice/internal/common/config"
	apperrors "hub-backoffice/internal/common/errors"
	"hub-backoffice/internal/common/logger"
	"hub-backoffice/internal/export"
	"hub-backoffice/internal/models"
	"hub-backoffice/internal/onboarding"
	"hub-backoffice/internal/stats"

	"github.com/gorilla/mux"
)

// StatsService is what the handlers need from stats.Service.
type StatsService interface {
	GetStats(ctx context.Context, hubRef string, opts stats.StatsOptions) (*stats.Stats, error)
	GetGlobalStats(ctx context.Context, opts stats.StatsOptions) (*stats.Stats, error)
	GetTenantOnboardingRows(ctx context.Context, scope models.Scope, opts stats.RowsOptions) ([]onboarding.Result, error)
	GetTenantOnboarding(ctx context.Context, tenantID string) (*onboarding.Result, error)
	Hubs() *config.HubDirectory
}

type Handlers struct {
	stats  StatsService
	logger logger.Logger
}

func NewHandlers(svc StatsService, log logger.Logger) *Handlers {
	return &Handlers{stats: svc, logger: log}
}

type hubsResponse struct {
	Hubs []config.Hub `json:"hubs"`
}

type rowsResponse struct {
	Scope string              `json:"scope"`
	Count int                 `json:"count"`
	Rows  []onboarding.Result `json:"rows"`
}

func (h *Handlers) ListHubs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, hubsResponse{Hubs: h.stats.Hubs().Hubs()})
}

func (h *Handlers) GetGlobalStats(w http.ResponseWriter, r *http.Request) {
	opts, err := parseStatsOptions(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	result, err := h.stats.GetGlobalStats(r.Context(), opts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetHubStats(w http.ResponseWriter, r *http.Request) {
	opts, err := parseStatsOptions(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	result, err := h.stats.GetStats(r.Context(), mux.Vars(r)["hub"], opts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetGlobalOnboarding(w http.ResponseWriter, r *http.Request) {
	h.writeRows(w, r, models.GlobalScope())
}

func (h *Handlers) GetHubOnboarding(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["hub"]
	hub, err := h.stats.Hubs().Resolve(ref)
	if err != nil {
		writeError(w, r, h.logger, apperrors.NewInvalidScopeError(ref, err))
		return
	}
	h.writeRows(w, r, models.HubScope(hub.ID))
}

func (h *Handlers) writeRows(w http.ResponseWriter, r *http.Request, scope models.Scope) {
	opts, err := parseRowsOptions(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rows, err := h.stats.GetTenantOnboardingRows(r.Context(), scope, opts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Scope: scope.String(), Count: len(rows), Rows: rows})
}

func (h *Handlers) GetTenantOnboarding(w http.ResponseWriter, r *http.Request) {
	result, err := h.stats.GetTenantOnboarding(r.Context(), mux.Vars(r)["tenantId"])
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ExportOnboarding streams the rows of ?hub= (or every hub) as xlsx.
func (h *Handlers) ExportOnboarding(w http.ResponseWriter, r *http.Request) {
	scope := models.GlobalScope()
	filename := "onboarding-global"
	if ref := r.URL.Query().Get("hub"); ref != "" {
		hub, err := h.stats.Hubs().Resolve(ref)
		if err != nil {
			writeError(w, r, h.logger, apperrors.NewInvalidScopeError(ref, err))
			return
		}
		scope = models.HubScope(hub.ID)
		filename = "onboarding-" + hub.Name
	}

	opts, err := parseRowsOptions(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rows, err := h.stats.GetTenantOnboardingRows(r.Context(), scope, opts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	data, err := export.OnboardingWorkbook(rows, h.stats.Hubs().Name)
	if err != nil {
		writeError(w, r, h.logger, apperrors.NewExportFailedError(err))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.xlsx"`, filename, time.Now().UTC().Format("20060102")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func parseStatsOptions(r *http.Request) (stats.StatsOptions, error) {
	var opts stats.StatsOptions
	q := r.URL.Query()

	if v := q.Get("verifications_since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, apperrors.NewInvalidParameterError("verifications_since", "expected RFC3339 timestamp")
		}
		opts.VerificationsSince = t
	}
	if v := q.Get("verifications_until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, apperrors.NewInvalidParameterError("verifications_until", "expected RFC3339 timestamp")
		}
		opts.VerificationsUntil = t
	}
	if !opts.VerificationsSince.IsZero() && !opts.VerificationsUntil.IsZero() && !opts.VerificationsUntil.After(opts.VerificationsSince) {
		return opts, apperrors.NewInvalidParameterError("verifications_until", "must be after verifications_since")
	}
	return opts, nil
}

func parseRowsOptions(r *http.Request) (stats.RowsOptions, error) {
	var opts stats.RowsOptions
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, apperrors.NewInvalidParameterError("limit", "expected a non-negative integer")
		}
		opts.Limit = n
	}
	if v := strings.TrimSpace(q.Get("stage")); v != "" {
		st, ok := onboarding.ParseStage(v)
		if !ok {
			return opts, apperrors.NewInvalidParameterError("stage", v)
		}
		opts.Stage = st
	}
	if v := strings.TrimSpace(q.Get("health")); v != "" {
		hs, ok := onboarding.ParseHealth(v)
		if !ok {
			return opts, apperrors.NewInvalidParameterError("health", v)
		}
		opts.Health = hs
	}
	return opts, nil
}
