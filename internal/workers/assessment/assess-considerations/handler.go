// internal/workers/assessment/assess-considerations/handler.go
package assessconsiderations

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"planning-workers/internal/citations"
	apperrors "planning-workers/internal/common/errors"
	"planning-workers/internal/common/logger"
	"planning-workers/internal/common/metrics"
	"planning-workers/internal/models"
	"planning-workers/pkg/registry"
)

const TaskType = "assess-considerations"

// Handler scores the fixed material-consideration taxonomy against the
// spatial and document facts of one proposal. Scoring is pure rule
// evaluation; absent data yields neutral baselines, never an error.
type Handler struct {
	config   *Config
	registry *registry.TaskRegistry
	logger   logger.Logger
	errs     *apperrors.ErrorHandler
}

func NewHandler(config *Config, reg *registry.TaskRegistry, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
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

	output := h.Execute(context.Background(), input)

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	ix := citations.NewIndexer()

	out := &Output{RunID: input.RunID}
	confidenceSum := 0.0
	applicable := 0

	for _, rule := range assessmentRules {
		c := rule(input, ix)
		out.Considerations = append(out.Considerations, c)
		if c.Significance != models.SignificanceNotApplicable {
			confidenceSum += c.Confidence
			applicable++
		}
	}

	if applicable > 0 {
		out.MaterialConfidence = confidenceSum / float64(applicable)
	} else {
		out.MaterialConfidence = 0.5
	}
	out.Citations = ix.Index()

	h.logger.Info("considerations assessed", map[string]interface{}{
		"runId":      input.RunID,
		"applicable": applicable,
		"citations":  ix.Count(),
	})
	return out
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
