// internal/workers/assessment/synthesize-decision/models.go
package synthesizedecision

import "planning-workers/internal/models"

type Input struct {
	RunID      string                     `json:"runId"`
	Assessment *models.MaterialAssessment `json:"assessment"`
	// Confidence reported by the upstream reasoning analysis, 0.5 when the
	// run degraded to defaults.
	AIAnalysisConfidence float64 `json:"aiAnalysisConfidence"`
}

type Output struct {
	RunID          string                 `json:"runId"`
	Recommendation *models.Recommendation `json:"recommendation"`
}
