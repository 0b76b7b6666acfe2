// internal/workers/reporting/onboarding-digest/handler.go
package onboardingdigest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	awsclients "hub-backoffice/internal/common/aws"
	"hub-backoffice/internal/common/errors"
	"hub-backoffice/internal/common/logger"
	"hub-backoffice/internal/common/metrics"
	"hub-backoffice/internal/common/observability"
	"hub-backoffice/internal/onboarding"
	"hub-backoffice/internal/stats"
	"hub-backoffice/pkg/registry"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "onboarding-digest"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type WebhookClient interface {
	PostJSON(ctx context.Context, url string, body interface{}) (int, error)
}

type StatsService interface {
	GetStats(ctx context.Context, hubRef string, opts stats.StatsOptions) (*stats.Stats, error)
	GetGlobalStats(ctx context.Context, opts stats.StatsOptions) (*stats.Stats, error)
}

type Handler struct {
	config       *Config
	service      StatsService
	sesClient    SESService
	snsClient    SNSService
	webhook      WebhookClient
	registry     *registry.ActivityRegistry
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
}

func NewHandler(config *Config, service StatsService, clients *awsclients.Clients, webhook WebhookClient, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		sesClient:    clients.SES,
		snsClient:    clients.SNS,
		webhook:      webhook,
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

	if err := h.registry.ValidateInput(TaskType, []byte(job.Variables)); err != nil {
		h.failJob(ctx, client, job, errors.NewInputValidationFailedError(err.Error()), start)
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, errors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err)), start)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output, start)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.Recipients) == 0 {
		return nil, errors.NewInputValidationFailedError("recipients must not be empty")
	}

	summary, err := h.loadStats(ctx, input.Hub)
	if err != nil {
		return nil, err
	}

	subject, body, err := renderDigest(summary)
	if err != nil {
		return nil, err
	}

	digestID := uuid.New().String()
	output := &Output{
		DigestID:     digestID,
		Status:       StatusSent,
		Scope:        summary.Scope,
		TotalTenants: summary.TotalTenants,
	}

	// Email is the primary channel; without it the digest was not delivered.
	if err := h.sendEmail(ctx, input.Recipients, subject, body); err != nil {
		return nil, errors.NewDigestSendFailedError(ChannelEmail, err)
	}
	output.Channels = append(output.Channels, ChannelEmail)

	if h.config.SMSEnabled && len(input.Phones) > 0 {
		if err := h.sendSMS(ctx, input.Phones, subject); err != nil {
			h.logger.Warn("SMS send failed", map[string]interface{}{
				"error":    err,
				"digestId": digestID,
			})
			output.FailedChannels = append(output.FailedChannels, ChannelSMS)
		} else {
			output.Channels = append(output.Channels, ChannelSMS)
		}
	}

	if h.config.WebhookURL != "" && h.webhook != nil {
		if _, err := h.webhook.PostJSON(ctx, h.config.WebhookURL, webhookPayload(digestID, summary)); err != nil {
			h.logger.Warn("webhook delivery failed", map[string]interface{}{
				"error":    err,
				"digestId": digestID,
			})
			output.FailedChannels = append(output.FailedChannels, ChannelWebhook)
		} else {
			output.Channels = append(output.Channels, ChannelWebhook)
		}
	}

	if len(output.FailedChannels) > 0 {
		output.Status = StatusPartial
	}
	output.SentAt = time.Now().UTC().Format(time.RFC3339)
	return output, nil
}

func (h *Handler) loadStats(ctx context.Context, hub string) (*stats.Stats, error) {
	if hub = strings.TrimSpace(hub); hub != "" {
		return h.service.GetStats(ctx, hub, stats.StatsOptions{})
	}
	return h.service.GetGlobalStats(ctx, stats.StatsOptions{})
}

func (h *Handler) sendEmail(ctx context.Context, to []string, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, phones []string, message string) error {
	for _, phone := range phones {
		if _, err := h.snsClient.Publish(ctx, &sns.PublishInput{
			PhoneNumber: aws.String(phone),
			Message:     aws.String(message),
		}); err != nil {
			return fmt.Errorf("publish to %s: %w", phone, err)
		}
	}
	return nil
}

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{"join": strings.Join}).Parse(
	`Onboarding digest for {{.Title}}

Tenants: {{.Stats.TotalTenants}} ({{.Stats.ActiveTenants}} active)
Users: {{.Stats.TotalUsers}} ({{.Stats.ActiveUsers}} active)
Pending verifications: {{.Stats.PendingVerifications}}
Pending leads: {{.Stats.PendingLeads}}
Average progress: {{printf "%.0f" .Stats.AverageProgress}}%

Stages:
{{range .Stages}}  {{.Stage}}: {{.Count}}
{{end}}{{if .Stats.DegradedSources}}
Incomplete data, unavailable sources: {{join .Stats.DegradedSources ", "}}
{{end}}`))

type stageLine struct {
	Stage onboarding.Stage
	Count int
}

func digestTitle(s *stats.Stats) string {
	if s.HubName != "" {
		return "hub " + s.HubName
	}
	return "all hubs"
}

// renderDigest returns the subject and plain-text body. Stages are listed in
// lifecycle order, skipping empty ones.
func renderDigest(s *stats.Stats) (string, string, error) {
	var lines []stageLine
	for _, stage := range onboarding.OrderedStages() {
		if n := s.StageCounts[stage]; n > 0 {
			lines = append(lines, stageLine{Stage: stage, Count: n})
		}
	}

	var buf bytes.Buffer
	err := digestTemplate.Execute(&buf, map[string]interface{}{
		"Title":  digestTitle(s),
		"Stats":  s,
		"Stages": lines,
	})
	if err != nil {
		return "", "", fmt.Errorf("render digest: %w", err)
	}

	subject := fmt.Sprintf("Onboarding digest: %d tenants, %d complete (%s)",
		s.TotalTenants, s.StageCounts[onboarding.StageOnboardingComplete], digestTitle(s))
	return subject, buf.String(), nil
}

func webhookPayload(digestID string, s *stats.Stats) WebhookPayload {
	counts := make(map[string]int, len(s.StageCounts))
	for stage, n := range s.StageCounts {
		counts[string(stage)] = n
	}
	return WebhookPayload{
		DigestID:             digestID,
		Scope:                s.Scope,
		HubName:              s.HubName,
		TotalTenants:         s.TotalTenants,
		ActiveTenants:        s.ActiveTenants,
		PendingVerifications: s.PendingVerifications,
		PendingLeads:         s.PendingLeads,
		StageCounts:          counts,
		DegradedSources:      s.DegradedSources,
		GeneratedAt:          s.GeneratedAt.UTC().Format(time.RFC3339),
	}
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
	h.obs.RecordJobProcessed(ctx, TaskType, output.Status)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), output.Status)

	h.logger.Info("digest delivered", map[string]interface{}{
		"jobKey":   job.Key,
		"digestId": output.DigestID,
		"channels": output.Channels,
		"status":   output.Status,
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
