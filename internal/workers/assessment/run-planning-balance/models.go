// internal/workers/assessment/run-planning-balance/models.go
package runplanningbalance

import "planning-workers/internal/models"

type Input struct {
	RunID              string                           `json:"runId"`
	Considerations     []models.ConsiderationAssessment `json:"considerations"`
	Citations          models.CitationIndex             `json:"citations"`
	MaterialConfidence float64                          `json:"materialConfidence"`
}

type Output struct {
	RunID      string                      `json:"runId"`
	Categories []models.CategoryAssessment `json:"categories"`
	Balance    *models.BalancingExercise   `json:"balance"`
	// The assembled snapshot is echoed so downstream synthesis does not need
	// a store read.
	Assessment *models.MaterialAssessment `json:"assessment"`
}
