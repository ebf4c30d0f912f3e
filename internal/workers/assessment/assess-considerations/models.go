// internal/workers/assessment/assess-considerations/models.go
package assessconsiderations

import "planning-workers/internal/models"

type Input struct {
	RunID       string                 `json:"runId"`
	Application models.ApplicationData `json:"applicationData"`
	Spatial     models.SpatialData     `json:"spatialData"`
	Documents   models.DocumentData    `json:"documentData"`
	// Policy codes from the retrieval bundle, attached as references where a
	// rule cannot name a more specific policy.
	PolicyMatrix models.PolicyMatrix `json:"policyMatrix"`
}

type Output struct {
	RunID              string                           `json:"runId"`
	Considerations     []models.ConsiderationAssessment `json:"considerations"`
	Citations          models.CitationIndex             `json:"citations"`
	MaterialConfidence float64                          `json:"materialConfidence"`
}
