// cmd/tools/worker-generator/main.go
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"hub-backoffice/pkg/registry"
)

// WorkerData holds data for templates
type WorkerData struct {
	Name        string
	PackageName string
	TaskType    string
	Category    string
	Description string
	Timeout     string
	Retries     int
	ErrorCodes  []string
	Input       []Field
	Output      []Field
}

// Field is one property of an input or output schema.
type Field struct {
	GoName   string
	JSONName string
	GoType   string
}

func (f Field) Tag() string {
	return "`json:\"" + f.JSONName + ",omitempty\"`"
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("worker-generator", flag.ContinueOnError)
	fs.SetOutput(out)
	activity := fs.String("activity", "", "Activity ID from the registry (e.g. onboarding-stats)")
	outputDir := fs.String("output", "internal/workers", "Root directory for generated workers")
	registryPath := fs.String("registry", "", "Registry file (default: the registry built into the service)")
	force := fs.Bool("force", false, "Overwrite files that already exist")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *activity == "" {
		fmt.Fprintln(out, "Usage: worker-generator -activity <id> [-output <dir>] [-registry <path>] [-force]")
		return fmt.Errorf("activity is required")
	}

	reg := registry.Default()
	if *registryPath != "" {
		var err error
		if reg, err = registry.LoadRegistry(*registryPath); err != nil {
			return fmt.Errorf("load registry: %w", err)
		}
	}

	var found *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == *activity {
			found = &reg.Activities[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("activity %q not found in registry", *activity)
	}

	data := workerData(found)
	workerDir := filepath.Join(*outputDir, data.Category, found.ID)
	files, err := render(data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(workerDir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(workerDir, name)
		if _, err := os.Stat(path); err == nil && !*force {
			fmt.Fprintf(out, "skipped %s (exists)\n", path)
			continue
		}
		if err := os.WriteFile(path, files[name], 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(out, "generated %s\n", path)
	}

	fmt.Fprintf(out, "\nNext steps:\n")
	fmt.Fprintf(out, "  1. Implement Service for %s\n", data.TaskType)
	fmt.Fprintf(out, "  2. Start the worker in cmd/backoffice-server/main.go\n")
	fmt.Fprintf(out, "  3. Add workers.%s to configs/config.yaml\n", data.TaskType)
	return nil
}

func workerData(a *registry.Activity) WorkerData {
	category := strings.ToLower(strings.TrimSpace(a.Category))
	if category == "" {
		category = "misc"
	}
	return WorkerData{
		Name:        a.DisplayName,
		PackageName: packageName(a.ID),
		TaskType:    a.TaskType,
		Category:    category,
		Description: a.Description,
		Timeout:     a.Timeout,
		Retries:     a.Retries,
		ErrorCodes:  a.ErrorCodes,
		Input:       fieldsFromSchema(a.InputSchema),
		Output:      fieldsFromSchema(a.OutputSchema),
	}
}

// render executes every template and gofmts the Go sources.
func render(data WorkerData) (map[string][]byte, error) {
	out := make(map[string][]byte, len(templates))
	for name, text := range templates {
		tmpl, err := template.New(name).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("execute template %s: %w", name, err)
		}
		src := buf.Bytes()
		if strings.HasSuffix(name, ".go") {
			if src, err = format.Source(src); err != nil {
				return nil, fmt.Errorf("format %s: %w", name, err)
			}
		}
		out[name] = src
	}
	return out, nil
}

func packageName(id string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(id) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fieldsFromSchema lists the schema properties sorted by name.
func fieldsFromSchema(schema map[string]interface{}) []Field {
	props, _ := schema["properties"].(map[string]interface{})
	fields := make([]Field, 0, len(props))
	for name, raw := range props {
		prop, _ := raw.(map[string]interface{})
		fields = append(fields, Field{
			GoName:   exportedName(name),
			JSONName: name,
			GoType:   goType(prop),
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].JSONName < fields[j].JSONName })
	return fields
}

// goType maps a JSON schema property to a Go type.
func goType(prop map[string]interface{}) string {
	switch prop["type"] {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		items, _ := prop["items"].(map[string]interface{})
		if items == nil {
			return "[]interface{}"
		}
		return "[]" + goType(items)
	default:
		return "interface{}"
	}
}

func exportedName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	var b strings.Builder
	for _, p := range parts {
		runes := []rune(p)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	if b.Len() == 0 {
		return "Field"
	}
	return b.String()
}

var templates = map[string]string{
	"config.go":       configTemplate,
	"models.go":       modelsTemplate,
	"handler.go":      handlerTemplate,
	"handler_test.go": testTemplate,
}

const configTemplate = `// internal/workers/{{ .Category }}/{{ .TaskType }}/config.go
package {{ .PackageName }}

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
`

const modelsTemplate = `// internal/workers/{{ .Category }}/{{ .TaskType }}/models.go
package {{ .PackageName }}

type Input struct {
{{- range .Input }}
	{{ .GoName }} {{ .GoType }} {{ .Tag }}
{{- end }}
}

type Output struct {
{{- range .Output }}
	{{ .GoName }} {{ .GoType }} {{ .Tag }}
{{- end }}
}
`

const handlerTemplate = `// internal/workers/{{ .Category }}/{{ .TaskType }}/handler.go
package {{ .PackageName }}

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hub-backoffice/internal/common/errors"
	"hub-backoffice/internal/common/logger"
	"hub-backoffice/internal/common/metrics"
	"hub-backoffice/internal/common/observability"
	"hub-backoffice/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "{{ .TaskType }}"
)

// Service does the work behind {{ .TaskType }}.
type Service interface {
	Run(ctx context.Context, input *Input) (*Output, error)
}

type Handler struct {
	config       *Config
	service      Service
	registry     *registry.ActivityRegistry
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
}

func NewHandler(config *Config, service Service, obs *observability.Observability, log logger.Logger) *Handler {
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
	return h.service.Run(ctx, input)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
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
	h.logger.Info("job completed", map[string]interface{}{"jobKey": job.Key})
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
`

const testTemplate = `// internal/workers/{{ .Category }}/{{ .TaskType }}/handler_test.go
package {{ .PackageName }}

import (
	"context"
	"testing"
	"time"

	"hub-backoffice/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockService struct {
	RunFunc func(ctx context.Context, input *Input) (*Output, error)
}

func (m *MockService) Run(ctx context.Context, input *Input) (*Output, error) {
	return m.RunFunc(ctx, input)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewTestLogger(t)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	svc := &MockService{
		RunFunc: func(ctx context.Context, input *Input) (*Output, error) {
			return &Output{}, nil
		},
	}
	h := NewHandler(createTestConfig(), svc, nil, createTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.NotNil(t, output)
}
`
