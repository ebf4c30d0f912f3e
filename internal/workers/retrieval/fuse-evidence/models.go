// internal/workers/retrieval/fuse-evidence/models.go
package fuseevidence

import "planning-workers/internal/models"

type Input struct {
	RunID   string                  `json:"runId"`
	Query   string                  `json:"query"`
	Context models.RetrievalContext `json:"context"`

	// Flags from the data-needs assessment. All false means local-only.
	NeedsPrecedentSearch    bool     `json:"needsPrecedentSearch"`
	NeedsPolicyRegistry     bool     `json:"needsPolicyRegistry"`
	NeedsConstraintRegistry bool     `json:"needsConstraintRegistry"`
	AdditionalQueries       []string `json:"additionalQueries,omitempty"`
}

type Output struct {
	Results      []models.RetrievalResult `json:"results"`
	PolicyMatrix models.PolicyMatrix      `json:"policyMatrix"`
	Strategy     string                   `json:"retrievalStrategy"`
	Grounded     bool                     `json:"grounded"`
}
