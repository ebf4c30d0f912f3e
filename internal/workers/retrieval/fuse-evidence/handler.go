// internal/workers/retrieval/fuse-evidence/handler.go
package fuseevidence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"golang.org/x/sync/errgroup"

	apperrors "planning-workers/internal/common/errors"
	"planning-workers/internal/common/genai"
	"planning-workers/internal/common/logger"
	"planning-workers/internal/common/metrics"
	"planning-workers/internal/models"
	"planning-workers/pkg/registry"
)

const TaskType = "fuse-evidence"

// Source boundaries consumed by the fetch phase. The concrete clients live in
// internal/common/search.
type LocalSearcher interface {
	SearchPolicies(ctx context.Context, query string, size int) ([]models.RetrievalResult, error)
	SearchApplications(ctx context.Context, query string, size int) ([]models.RetrievalResult, error)
}

type PrecedentSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.RetrievalResult, error)
}

type PolicySource interface {
	PoliciesFor(ctx context.Context, authorityCode string, limit int) ([]models.RetrievalResult, error)
}

type ConstraintSource interface {
	Lookup(ctx context.Context, coordinates [2]float64, limit int) ([]models.RetrievalResult, error)
}

// Handler fuses evidence from every configured source into one ranked,
// diversified, token-budgeted bundle. No source failure fails the job: each
// degrades to an empty contribution and a warning.
type Handler struct {
	config      *Config
	local       LocalSearcher
	precedents  PrecedentSearcher
	policies    PolicySource
	constraints ConstraintSource
	reasoner    genai.Reasoner
	registry    *registry.TaskRegistry
	logger      logger.Logger
	errs        *apperrors.ErrorHandler
}

func NewHandler(config *Config, local LocalSearcher, precedents PrecedentSearcher, policies PolicySource, constraints ConstraintSource, reasoner genai.Reasoner, reg *registry.TaskRegistry, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		local:       local,
		precedents:  precedents,
		policies:    policies,
		constraints: constraints,
		reasoner:    reasoner,
		registry:    reg,
		logger:      scoped,
		errs:        apperrors.NewErrorHandler(scoped),
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

// Execute runs the full fusion sequence: local search, external fan-out,
// combine, diversify, budget, policy matrix, optional grounding escalation.
// It always returns a bundle; degraded runs are tagged with the fallback
// strategy.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	items, localFailed := h.fetchLocal(ctx, input)
	items = append(items, h.fetchExternal(ctx, input)...)

	ranked := combine(items, h.config.TopK)
	diversified := diversify(ranked, h.config.SourceCaps, h.config.JaccardThreshold)
	budgeted := budget(diversified, h.config)
	matrix := buildPolicyMatrix(budgeted, h.config.PolicyScanCap, h.config.PolicyCodeCap)

	grounded := false
	if h.reasoner != nil && shouldEscalate(matrix, budgeted, h.config) {
		metrics.GroundingEscalations.Inc()
		h.logger.Info("escalating to grounding search", map[string]interface{}{
			"runId":         input.RunID,
			"policyCount":   matrix.Count,
			"budgetedItems": len(budgeted),
		})

		extra := escalate(ctx, h.reasoner, groundingQueries(input, h.config), h.config, h.logger)
		if len(extra) > 0 {
			grounded = true
			ranked = combine(append(items, extra...), h.config.TopK)
			diversified = diversify(ranked, h.config.SourceCaps, h.config.JaccardThreshold)
			budgeted = budget(diversified, h.config)
			matrix = buildPolicyMatrix(budgeted, h.config.PolicyScanCap, h.config.PolicyCodeCap)
		}
	}

	strategy := models.StrategyFused
	if localFailed {
		strategy = models.StrategyFallback
		metrics.FallbackRuns.Inc()
	}

	return &Output{
		Results:      budgeted,
		PolicyMatrix: matrix,
		Strategy:     strategy,
		Grounded:     grounded,
	}
}

// fetchLocal runs the in-process searches synchronously before any external
// fan-out begins. The second return value reports whether both role indices
// failed, which downgrades the whole run to the fallback strategy.
func (h *Handler) fetchLocal(ctx context.Context, input *Input) ([]models.RetrievalResult, bool) {
	var items []models.RetrievalResult
	failures := 0

	policyHits, err := h.local.SearchPolicies(ctx, input.Query, h.config.SourceCaps[models.SourceLocalPolicy])
	if err != nil {
		h.warnSourceFailure(models.SourceLocalPolicy, input.RunID, err)
		failures++
	} else {
		items = append(items, policyHits...)
	}

	appHits, err := h.local.SearchApplications(ctx, input.Query, h.config.SourceCaps[models.SourceLocalApplication])
	if err != nil {
		h.warnSourceFailure(models.SourceLocalApplication, input.RunID, err)
		failures++
	} else {
		items = append(items, appHits...)
	}

	return items, failures == 2
}

// fetchExternal fans out the flagged external sources with settle-all
// semantics: every task writes its own slot, failures degrade to empty
// slices, and no task can abort a sibling.
func (h *Handler) fetchExternal(ctx context.Context, input *Input) []models.RetrievalResult {
	type task struct {
		source models.SourceTier
		fetch  func(context.Context) ([]models.RetrievalResult, error)
	}

	var tasks []task
	if input.NeedsPrecedentSearch && h.precedents != nil {
		tasks = append(tasks, task{models.SourcePrecedent, func(ctx context.Context) ([]models.RetrievalResult, error) {
			return h.precedents.Search(ctx, input.Query, h.config.SourceCaps[models.SourcePrecedent])
		}})
	}
	if input.NeedsPolicyRegistry && h.policies != nil {
		tasks = append(tasks, task{models.SourceExternalPolicy, func(ctx context.Context) ([]models.RetrievalResult, error) {
			return h.policies.PoliciesFor(ctx, input.Context.Authority, h.config.SourceCaps[models.SourceExternalPolicy])
		}})
	}
	if input.NeedsConstraintRegistry && h.constraints != nil {
		tasks = append(tasks, task{models.SourceConstraints, func(ctx context.Context) ([]models.RetrievalResult, error) {
			return h.constraints.Lookup(ctx, input.Context.Coordinates, h.config.SourceCaps[models.SourceConstraints])
		}})
	}
	for _, query := range input.AdditionalQueries {
		query := query
		tasks = append(tasks, task{models.SourceTargeted, func(ctx context.Context) ([]models.RetrievalResult, error) {
			hits, err := h.local.SearchPolicies(ctx, query, h.config.SourceCaps[models.SourceTargeted])
			for i := range hits {
				hits[i].Source = models.SourceTargeted
				hits[i].Role = models.RoleOther
			}
			return hits, err
		}})
	}

	slots := make([][]models.RetrievalResult, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, tk := range tasks {
		i, tk := i, tk
		g.Go(func() error {
			hits, err := tk.fetch(gctx)
			if err != nil {
				h.warnSourceFailure(tk.source, input.RunID, err)
				return nil
			}
			slots[i] = hits
			return nil
		})
	}
	// Tasks never return errors, so Wait only joins.
	_ = g.Wait()

	var items []models.RetrievalResult
	for _, slot := range slots {
		items = append(items, slot...)
	}
	return items
}

func (h *Handler) warnSourceFailure(source models.SourceTier, runID string, err error) {
	metrics.SourceFetchFailures.WithLabelValues(string(source)).Inc()
	h.logger.Warn("source fetch failed, contributing empty result", map[string]interface{}{
		"source": string(source),
		"runId":  runID,
		"error":  err.Error(),
	})
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
