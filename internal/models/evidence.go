// internal/models/evidence.go
package models

// SourceTier identifies where a retrieval result came from. Tier weights in
// the combiner key off these values.
type SourceTier string

const (
	SourceLocalPolicy      SourceTier = "local_policy"
	SourceLocalApplication SourceTier = "local_application"
	SourceExternalPolicy   SourceTier = "external_policy"
	SourceConstraints      SourceTier = "constraints"
	SourcePrecedent        SourceTier = "precedent"
	SourceTargeted         SourceTier = "targeted"
	SourceGrounding        SourceTier = "grounding"
)

// EvidenceRole partitions evidence for token budgeting.
type EvidenceRole string

const (
	RoleApplication EvidenceRole = "application"
	RolePolicy      EvidenceRole = "policy"
	RoleOther       EvidenceRole = "other"
)

// RetrievalResult is one piece of fetched evidence. It lives only for the
// duration of a single retrieval call and is never persisted.
type RetrievalResult struct {
	Source         SourceTier   `json:"source"`
	Content        string       `json:"content"`
	RelevanceScore float64      `json:"relevanceScore"`
	Role           EvidenceRole `json:"role"`
	Reference      string       `json:"reference,omitempty"`
}

// PolicyEntry is one extracted policy code with a short supporting snippet.
type PolicyEntry struct {
	Code    string `json:"code"`
	Snippet string `json:"snippet"`
}

// PolicyMatrix summarizes the policy codes found in the budgeted context.
type PolicyMatrix struct {
	Count    int           `json:"count"`
	Policies []PolicyEntry `json:"policies"`
}

// Retrieval strategies reported to callers and telemetry.
const (
	StrategyFused    = "fused"
	StrategyFallback = "fallback"
)

// RetrievalBundle is the fused, ranked, diversified, budgeted context handed
// to the assessment stages.
type RetrievalBundle struct {
	Results      []RetrievalResult `json:"results"`
	PolicyMatrix PolicyMatrix      `json:"policyMatrix"`
	Strategy     string            `json:"retrievalStrategy"`
	Grounded     bool              `json:"grounded"`
}

// CitationEntry is the lookup record behind one citation key.
type CitationEntry struct {
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Source      string  `json:"source"`
}

// CitationIndex maps citation key to its evidence record for one run.
type CitationIndex map[string]CitationEntry
