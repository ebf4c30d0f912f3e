// internal/workers/retrieval/assess-data-needs/handler.go
package assessdataneeds

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"planning-workers/internal/common/cache"
	apperrors "planning-workers/internal/common/errors"
	"planning-workers/internal/common/genai"
	"planning-workers/internal/common/logger"
	"planning-workers/internal/common/metrics"
	"planning-workers/pkg/registry"
)

const (
	TaskType = "assess-data-needs"

	maxAdditionalQueries = 3
)

// Handler decides which external evidence sources are worth querying for one
// retrieval run. The reasoning call is advisory: any failure substitutes the
// conservative default instead of failing the job.
type Handler struct {
	config   *Config
	reasoner genai.Reasoner
	store    cache.AssessmentStore
	registry *registry.TaskRegistry
	logger   logger.Logger
	errs     *apperrors.ErrorHandler
}

func NewHandler(config *Config, reasoner genai.Reasoner, store cache.AssessmentStore, reg *registry.TaskRegistry, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		reasoner: reasoner,
		store:    store,
		registry: reg,
		logger:   scoped,
		errs:     apperrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	// This task opens the run: it assigns the run ID when the process did
	// not carry one, and creates the active-run registry entry that later
	// stages write their snapshots against.
	if input.RunID == "" {
		input.RunID = uuid.NewString()
	}
	if h.store != nil && input.RunID != "" {
		if err := h.store.Register(ctx, input.RunID); err != nil {
			h.logger.Warn("failed to register active run", map[string]interface{}{
				"runId": input.RunID,
				"error": err.Error(),
			})
		}
	}

	output := h.Execute(ctx, input)

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
}

// Execute never returns an error: reasoning failures degrade to the
// conservative all-sources default.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	needs := genai.ConservativeDataNeeds()
	degraded := true
	if h.reasoner != nil {
		assessed, err := h.reasoner.AssessDataNeeds(ctx, input.Query, input.Context, input.LocalResultsSummary)
		if err != nil {
			h.logger.Warn("reasoning unavailable, using conservative default", map[string]interface{}{
				"runId": input.RunID,
				"error": err.Error(),
			})
		} else {
			needs = assessed
			degraded = false
		}
	}

	// Generic queries pull in too much unrelated appeal noise, so the
	// precedent flag only survives for specific ones.
	if !isSpecific(input.Query, input.Context.Address) {
		needs.NeedsPrecedentSearch = false
	}

	queries := needs.AdditionalQueries
	if len(queries) > maxAdditionalQueries {
		queries = queries[:maxAdditionalQueries]
	}

	return &Output{
		RunID:                   input.RunID,
		NeedsPrecedentSearch:    needs.NeedsPrecedentSearch,
		NeedsPolicyRegistry:     needs.NeedsPolicyRegistry,
		NeedsConstraintRegistry: needs.NeedsConstraintRegistry,
		AdditionalQueries:       queries,
		Degraded:                degraded,
	}
}

// isSpecific reports whether the query identifies a concrete proposal: it
// mentions a number (heights, unit counts, plot references) or comes with a
// resolved address.
func isSpecific(query, address string) bool {
	for _, token := range strings.Fields(query) {
		for _, r := range token {
			if unicode.IsDigit(r) {
				return true
			}
		}
	}
	return len(address) > 5
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

// parseInput checks the job variables against the registered input contract
// before decoding them. Contract violations fail the job the same way broken
// JSON does.
func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &raw); err != nil {
		return nil, apperrors.NewInputParseError(err)
	}
	if h.registry != nil {
		if err := h.registry.ValidateInput(TaskType, raw); err != nil {
			return nil, apperrors.NewInputParseError(err)
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, apperrors.NewInputParseError(err)
	}
	return &input, nil
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	stdErr := apperrors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errs.HandleJobError(context.Background(), client, job, stdErr)
}
