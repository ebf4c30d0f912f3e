// internal/models/assessment.go
package models

// Significance classifies how much weight a consideration carries in the
// planning balance.
type Significance string

const (
	SignificanceNotApplicable Significance = "not_applicable"
	SignificanceLow           Significance = "low"
	SignificanceMedium        Significance = "medium"
	SignificanceHigh          Significance = "high"
)

// Top-level material consideration categories.
const (
	CategoryHeritage  = "heritage"
	CategoryFlooding  = "flooding"
	CategoryTransport = "transport"
	CategoryAmenity   = "amenity"
	CategoryHousing   = "housing"
	CategoryOther     = "other"
)

// ConsiderationAssessment scores one material-consideration subcategory.
// Scores are 0-100 with 50 as the neutral baseline; confidence is 0-1.
type ConsiderationAssessment struct {
	ID               string       `json:"id"`
	Category         string       `json:"category"`
	Subcategory      string       `json:"subcategory"`
	Score            float64      `json:"score"`
	Significance     Significance `json:"significance"`
	Evidence         []string     `json:"evidence"`
	Confidence       float64      `json:"confidence"`
	PolicyReferences []string     `json:"policyReferences"`
	Conditions       []string     `json:"conditions"`
}

// CategoryAssessment aggregates the considerations of one category.
type CategoryAssessment struct {
	Category     string   `json:"category"`
	OverallScore float64  `json:"overallScore"`
	Confidence   float64  `json:"confidence"`
	KeyIssues    []string `json:"keyIssues"`
}

// OverallBalance classifies the outcome of the balancing exercise.
type OverallBalance string

const (
	BalanceSignificantBenefit OverallBalance = "significant_benefit"
	BalanceMinorBenefit       OverallBalance = "minor_benefit"
	BalanceNeutral            OverallBalance = "neutral"
	BalanceMinorHarm          OverallBalance = "minor_harm"
	BalanceSignificantHarm    OverallBalance = "significant_harm"
)

// HarmDominant reports whether the balance falls in the harm-dominant set.
func (b OverallBalance) HarmDominant() bool {
	return b == BalanceMinorHarm || b == BalanceSignificantHarm
}

// CategoryWeighting records how one category entered the planning balance.
type CategoryWeighting struct {
	Score         float64      `json:"score"`
	Weight        float64      `json:"weight"`
	WeightedScore float64      `json:"weightedScore"`
	Significance  Significance `json:"significance"`
}

// BalancingExercise is the category-weighted planning balance.
type BalancingExercise struct {
	WeightsApplied      map[string]CategoryWeighting `json:"weightsApplied"`
	CumulativeScore     float64                      `json:"cumulativeScore"`
	SignificantBenefits []string                     `json:"significantBenefits"`
	SignificantHarms    []string                     `json:"significantHarms"`
	OverallBalance      OverallBalance               `json:"overallBalance"`
	Narrative           string                       `json:"narrative"`
	// Decision is set only when the balance is decisive; empty means the
	// synthesizer should defer.
	Decision Decision `json:"decision,omitempty"`
}

// Decision is the final recommendation outcome.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionRefuse  Decision = "refuse"
	DecisionDefer   Decision = "defer"
)

// AppealRisk bands the exposure of a refusal to appeal.
type AppealRisk string

const (
	AppealRiskLow    AppealRisk = "low"
	AppealRiskMedium AppealRisk = "medium"
)

// Recommendation is the synthesized decision with calibrated confidence.
type Recommendation struct {
	Decision          Decision   `json:"decision"`
	Reasoning         string     `json:"reasoning"`
	Confidence        float64    `json:"confidence"`
	RiskFactors       []string   `json:"riskFactors"`
	KeyConsiderations []string   `json:"keyConsiderations"`
	Conditions        []string   `json:"conditions"`
	AppealRisk        AppealRisk `json:"appealRisk"`
}

// MaterialAssessment is the immutable per-run snapshot handed to the
// persistence collaborator once assessment completes.
type MaterialAssessment struct {
	RunID          string                    `json:"runId"`
	Considerations []ConsiderationAssessment `json:"considerations"`
	Categories     []CategoryAssessment      `json:"categories"`
	Balance        *BalancingExercise        `json:"balance,omitempty"`
	Citations      CitationIndex             `json:"citations"`
	Confidence     float64                   `json:"confidence"`
}
