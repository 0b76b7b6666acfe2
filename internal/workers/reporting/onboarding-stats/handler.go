// internal/workers/reporting/onboarding-stats/handler.go
package onboardingstats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"hub-backoffice/internal/common/errors"
	"hub-backoffice/internal/common/logger"
	"hub-backoffice/internal/common/metrics"
	"hub-backoffice/internal/common/observability"
	"hub-backoffice/internal/stats"
	"hub-backoffice/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "onboarding-stats"
)

// StatsService is the part of stats.Service this worker reads from.
type StatsService interface {
	GetStats(ctx context.Context, hubRef string, opts stats.StatsOptions) (*stats.Stats, error)
	GetGlobalStats(ctx context.Context, opts stats.StatsOptions) (*stats.Stats, error)
}

type Handler struct {
	config       *Config
	service      StatsService
	registry     *registry.ActivityRegistry
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
}

func NewHandler(config *Config, service StatsService, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		registry:     registry.Default(),
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		obs:          obs,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output, start)
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	if err := h.registry.ValidateInput(TaskType, []byte(variables)); err != nil {
		return nil, errors.NewInputValidationFailedError(err.Error())
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var opts stats.StatsOptions
	if input.VerificationsSince != "" {
		since, err := time.Parse(time.RFC3339, input.VerificationsSince)
		if err != nil {
			return nil, errors.NewInputValidationFailedError(fmt.Sprintf("verificationsSince: %v", err))
		}
		opts.VerificationsSince = since
	}

	var (
		result *stats.Stats
		err    error
	)
	if hub := strings.TrimSpace(input.Hub); hub != "" {
		result, err = h.service.GetStats(ctx, hub, opts)
	} else {
		result, err = h.service.GetGlobalStats(ctx, opts)
	}
	if err != nil {
		return nil, err
	}

	return h.buildOutput(result, input.IncludeTenants), nil
}

func (h *Handler) buildOutput(s *stats.Stats, includeTenants bool) *Output {
	stageCounts := make(map[string]int, len(s.StageCounts))
	for stage, n := range s.StageCounts {
		stageCounts[string(stage)] = n
	}

	out := &Output{
		Scope:                s.Scope,
		HubName:              s.HubName,
		TotalTenants:         s.TotalTenants,
		ActiveTenants:        s.ActiveTenants,
		TotalUsers:           s.TotalUsers,
		ActiveUsers:          s.ActiveUsers,
		PendingLeads:         s.PendingLeads,
		PendingVerifications: s.PendingVerifications,
		StageCounts:          stageCounts,
		AverageProgress:      s.AverageProgress,
		DegradedSources:      s.DegradedSources,
		GeneratedAt:          s.GeneratedAt.UTC().Format(time.RFC3339),
	}

	if includeTenants {
		tenants := s.Tenants
		if h.config.MaxTenants > 0 && len(tenants) > h.config.MaxTenants {
			tenants = tenants[:h.config.MaxTenants]
		}
		out.Tenants = tenants
	}
	return out
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		h.failJob(ctx, client, job, err, start)
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":       job.Key,
		"scope":        output.Scope,
		"totalTenants": output.TotalTenants,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	code := string(errors.ErrCodeInternal)
	if stdErr, ok := errors.AsStandardError(err); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")

	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
