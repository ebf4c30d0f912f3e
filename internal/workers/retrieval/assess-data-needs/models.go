// internal/workers/retrieval/assess-data-needs/models.go
package assessdataneeds

import "planning-workers/internal/models"

type Input struct {
	RunID               string                  `json:"runId"`
	Query               string                  `json:"query"`
	Context             models.RetrievalContext `json:"context"`
	LocalResultsSummary string                  `json:"localResultsSummary,omitempty"`
}

type Output struct {
	RunID                   string   `json:"runId"`
	NeedsPrecedentSearch    bool     `json:"needsPrecedentSearch"`
	NeedsPolicyRegistry     bool     `json:"needsPolicyRegistry"`
	NeedsConstraintRegistry bool     `json:"needsConstraintRegistry"`
	AdditionalQueries       []string `json:"additionalQueries"`
	Degraded                bool     `json:"degraded"`
}
