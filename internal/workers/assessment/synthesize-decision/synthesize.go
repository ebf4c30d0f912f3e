// internal/workers/assessment/synthesize-decision/synthesize.go
package synthesizedecision

import (
	"fmt"

	"planning-workers/internal/models"
)

// Confidence blend weights: material assessment carries the most, the
// reasoning analysis and the evidence base split the rest.
const (
	materialWeight = 0.4
	aiWeight       = 0.3
	evidenceWeight = 0.3

	lowConfidenceThreshold = 0.6
	appealRiskThreshold    = 0.7
)

// evidenceConfidence is a step function of how many citations back the
// assessment. No citations at all floors it hard.
func evidenceConfidence(citationCount int) float64 {
	switch {
	case citationCount == 0:
		return 0.3
	case citationCount >= 20:
		return 0.9
	case citationCount >= 10:
		return 0.8
	case citationCount >= 5:
		return 0.7
	default:
		return 0.6
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// synthesize builds the final recommendation from an assessment snapshot.
// It is pure: identical inputs always produce identical recommendations.
func synthesize(assessment *models.MaterialAssessment, aiAnalysisConfidence float64) *models.Recommendation {
	if aiAnalysisConfidence <= 0 {
		aiAnalysisConfidence = 0.5
	}

	confidence := clamp01(
		materialWeight*assessment.Confidence +
			aiWeight*aiAnalysisConfidence +
			evidenceWeight*evidenceConfidence(len(assessment.Citations)))

	rec := &models.Recommendation{
		Decision:          models.DecisionDefer,
		Confidence:        confidence,
		RiskFactors:       []string{},
		KeyConsiderations: []string{},
		Conditions:        []string{},
		AppealRisk:        models.AppealRiskLow,
	}

	var balance models.OverallBalance
	if assessment.Balance != nil {
		balance = assessment.Balance.OverallBalance
		if assessment.Balance.Decision != "" {
			rec.Decision = assessment.Balance.Decision
		}
	}

	for _, category := range assessment.Categories {
		rec.KeyConsiderations = append(rec.KeyConsiderations, category.KeyIssues...)
	}

	seen := make(map[string]bool)
	for _, consideration := range assessment.Considerations {
		for _, condition := range consideration.Conditions {
			if seen[condition] {
				continue
			}
			seen[condition] = true
			rec.Conditions = append(rec.Conditions, condition)
		}

		// Any medium-or-high heritage or flooding intersection surfaces
		// as a risk factor.
		switch consideration.Category {
		case models.CategoryHeritage:
			switch consideration.Significance {
			case models.SignificanceHigh:
				rec.RiskFactors = append(rec.RiskFactors, "significant heritage impact: "+consideration.Subcategory)
			case models.SignificanceMedium:
				rec.RiskFactors = append(rec.RiskFactors, "heritage impact: "+consideration.Subcategory)
			}
		case models.CategoryFlooding:
			switch consideration.Significance {
			case models.SignificanceHigh:
				rec.RiskFactors = append(rec.RiskFactors, "significant flood risk: "+consideration.Subcategory)
			case models.SignificanceMedium:
				rec.RiskFactors = append(rec.RiskFactors, "flood risk: "+consideration.Subcategory)
			}
		}
	}
	if confidence < lowConfidenceThreshold {
		rec.RiskFactors = append(rec.RiskFactors, fmt.Sprintf("low decision confidence (%.2f)", confidence))
	}

	if rec.Decision == models.DecisionRefuse && confidence < appealRiskThreshold {
		rec.AppealRisk = models.AppealRiskMedium
	}

	rec.Reasoning = reasoning(rec.Decision, balance, assessment)
	return rec
}

func reasoning(decision models.Decision, balance models.OverallBalance, assessment *models.MaterialAssessment) string {
	if balance == "" {
		return fmt.Sprintf("No balancing exercise available; recommendation defaults to %s.", decision)
	}
	return fmt.Sprintf(
		"Planning balance concluded %s across %d categories from %d scored considerations; recommendation is to %s.",
		balance, len(assessment.Categories), len(assessment.Considerations), decision)
}
