// internal/workers/assessment/synthesize-decision/handler.go
package synthesizedecision

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"planning-workers/internal/common/cache"
	apperrors "planning-workers/internal/common/errors"
	"planning-workers/internal/common/logger"
	"planning-workers/internal/common/metrics"
	"planning-workers/internal/models"
	"planning-workers/pkg/registry"
)

const TaskType = "synthesize-decision"

// Handler turns a completed material assessment into the final
// recommendation. When the job omits the snapshot it is read back from the
// store; a missing snapshot yields a low-confidence defer, not a failure.
type Handler struct {
	config   *Config
	store    cache.AssessmentStore
	registry *registry.TaskRegistry
	logger   logger.Logger
	errs     *apperrors.ErrorHandler
}

func NewHandler(config *Config, store cache.AssessmentStore, reg *registry.TaskRegistry, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
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

	output := h.Execute(ctx, input)

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	assessment := input.Assessment
	if assessment == nil && h.store != nil && input.RunID != "" {
		stored, err := h.store.GetAssessment(ctx, input.RunID)
		if err != nil {
			h.logger.Warn("assessment snapshot unavailable", map[string]interface{}{
				"runId": input.RunID,
				"error": err.Error(),
			})
		} else {
			assessment = stored
		}
	}
	if assessment == nil {
		assessment = &models.MaterialAssessment{RunID: input.RunID}
	}

	rec := synthesize(assessment, input.AIAnalysisConfidence)

	if h.store != nil && input.RunID != "" {
		if err := h.store.SaveRecommendation(ctx, input.RunID, rec); err != nil {
			h.logger.Warn("failed to persist recommendation", map[string]interface{}{
				"runId": input.RunID,
				"error": err.Error(),
			})
		}
	}

	metrics.AssessmentsCompleted.WithLabelValues(string(rec.Decision)).Inc()
	h.logger.Info("decision synthesized", map[string]interface{}{
		"runId":      input.RunID,
		"decision":   string(rec.Decision),
		"confidence": rec.Confidence,
		"appealRisk": string(rec.AppealRisk),
	})

	return &Output{RunID: input.RunID, Recommendation: rec}
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
