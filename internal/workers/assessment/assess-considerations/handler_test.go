// internal/workers/assessment/assess-considerations/handler_test.go
package assessconsiderations

import (
	"context"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "planning-workers/internal/common/errors"
	"planning-workers/internal/common/logger"
	"planning-workers/internal/models"
	"planning-workers/pkg/registry"
)

func newTestHandler() *Handler {
	return NewHandler(LoadConfig(), nil, logger.NewNoOpLogger())
}

func findConsideration(t *testing.T, out *Output, id string) models.ConsiderationAssessment {
	t.Helper()
	for _, c := range out.Considerations {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("consideration %s not found", id)
	return models.ConsiderationAssessment{}
}

func TestExecuteEmptyInputYieldsNeutralBaselines(t *testing.T) {
	out := newTestHandler().Execute(context.Background(), &Input{RunID: "run-1"})

	require.Len(t, out.Considerations, 9)
	for _, c := range out.Considerations {
		assert.GreaterOrEqual(t, c.Score, 0.0)
		assert.LessOrEqual(t, c.Score, 100.0)
		if c.ID == "general-compliance" {
			assert.Equal(t, models.SignificanceLow, c.Significance)
			continue
		}
		assert.Equal(t, baselineScore, c.Score, "rule %s should stay at baseline", c.ID)
		assert.Equal(t, models.SignificanceNotApplicable, c.Significance)
	}
	assert.Equal(t, 0.5, out.MaterialConfidence)
}

func TestFloodZoneThreeScoresHarm(t *testing.T) {
	out := newTestHandler().Execute(context.Background(), &Input{
		Spatial: models.SpatialData{
			Intersections: []models.ConstraintIntersection{
				{Type: "flood_zone_3", CoveragePercent: 80, Area: 2400},
			},
		},
	})

	flood := findConsideration(t, out, "flood-risk")
	assert.Equal(t, 15.0, flood.Score)
	assert.Equal(t, models.SignificanceHigh, flood.Significance)
	assert.Equal(t, 0.9, flood.Confidence)
	assert.NotEmpty(t, flood.Conditions)
	require.Len(t, flood.Evidence, 1)

	entry, ok := out.Citations[flood.Evidence[0]]
	require.True(t, ok)
	assert.Equal(t, "constraint", entry.Type)
	assert.Contains(t, entry.Description, "80%")
}

func TestFloodRiskNoteSoftensScore(t *testing.T) {
	base := &Input{
		Spatial: models.SpatialData{
			Intersections: []models.ConstraintIntersection{
				{Type: "flood_zone_2", CoveragePercent: 30},
			},
		},
	}
	without := findConsideration(t, newTestHandler().Execute(context.Background(), base), "flood-risk")

	base.Documents.HasFloodRiskNote = true
	with := findConsideration(t, newTestHandler().Execute(context.Background(), base), "flood-risk")

	assert.Equal(t, without.Score+10, with.Score)
}

func TestListedBuildingCoverageBands(t *testing.T) {
	tests := []struct {
		coverage float64
		want     float64
	}{
		{60, 15},
		{20, 25},
		{5, 35},
	}
	for _, tt := range tests {
		out := newTestHandler().Execute(context.Background(), &Input{
			Spatial: models.SpatialData{
				Intersections: []models.ConstraintIntersection{
					{Type: "listed_building", CoveragePercent: tt.coverage},
				},
			},
		})
		c := findConsideration(t, out, "listed-buildings")
		assert.Equal(t, tt.want, c.Score, "coverage %.0f%%", tt.coverage)
		assert.Equal(t, models.SignificanceHigh, c.Significance)
	}
}

func TestAffordableHousingThresholds(t *testing.T) {
	tests := []struct {
		name         string
		units        int
		affordable   float64
		wantScore    float64
		significance models.Significance
	}{
		{"minor scheme not applicable", 6, 0, 50, models.SignificanceNotApplicable},
		{"policy compliant", 24, 40, 75, models.SignificanceHigh},
		{"partial provision", 24, 25, 60, models.SignificanceMedium},
		{"under provision", 24, 5, 30, models.SignificanceHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := newTestHandler().Execute(context.Background(), &Input{
				Documents: models.DocumentData{UnitCount: tt.units, AffordablePercent: tt.affordable},
			})
			c := findConsideration(t, out, "affordable-housing")
			assert.Equal(t, tt.wantScore, c.Score)
			assert.Equal(t, tt.significance, c.Significance)
		})
	}
}

func TestParkingRatioBands(t *testing.T) {
	tests := []struct {
		spaces, units int
		want          float64
	}{
		{18, 10, 60},
		{10, 10, 55},
		{7, 10, 45},
		{3, 10, 35},
	}
	for _, tt := range tests {
		out := newTestHandler().Execute(context.Background(), &Input{
			Documents: models.DocumentData{UnitCount: tt.units, ParkingSpaces: tt.spaces},
		})
		c := findConsideration(t, out, "parking-provision")
		assert.Equal(t, tt.want, c.Score, "%d spaces / %d units", tt.spaces, tt.units)
	}
}

func TestPrivacyRequiresTwoStoreys(t *testing.T) {
	spatial := models.SpatialData{
		Proximities: []models.Proximity{{Type: "residential", Distance: 8}},
	}

	single := newTestHandler().Execute(context.Background(), &Input{
		Spatial:   spatial,
		Documents: models.DocumentData{Storeys: 1},
	})
	assert.Equal(t, baselineScore, findConsideration(t, single, "privacy-overlooking").Score)

	double := newTestHandler().Execute(context.Background(), &Input{
		Spatial:   spatial,
		Documents: models.DocumentData{Storeys: 2},
	})
	c := findConsideration(t, double, "privacy-overlooking")
	assert.Equal(t, 25.0, c.Score)
	assert.Equal(t, models.SignificanceHigh, c.Significance)
}

func TestCitationKeysUniqueAcrossRun(t *testing.T) {
	out := newTestHandler().Execute(context.Background(), &Input{
		Spatial: models.SpatialData{
			Intersections: []models.ConstraintIntersection{
				{Type: "listed_building", CoveragePercent: 20},
				{Type: "conservation_area", CoveragePercent: 70},
				{Type: "flood_zone_3", CoveragePercent: 40},
			},
			Proximities: []models.Proximity{
				{Type: "listed_building", Distance: 30},
				{Type: "primary_road", Distance: 12},
				{Type: "residential", Distance: 15},
			},
			Metrics: models.SiteMetrics{AreaSqm: 3200},
		},
		Documents: models.DocumentData{
			HeightMeters:      14,
			Storeys:           4,
			UnitCount:         24,
			ParkingSpaces:     12,
			AffordablePercent: 40,
			HasTransportNote:  true,
			HasFloodRiskNote:  true,
		},
	})

	keys := make(map[string]bool)
	total := 0
	for _, c := range out.Considerations {
		for _, key := range c.Evidence {
			assert.False(t, keys[key], "duplicate citation key %s", key)
			keys[key] = true
			total++

			_, ok := out.Citations[key]
			assert.True(t, ok, "key %s missing from index", key)
		}
	}
	assert.Equal(t, total, len(out.Citations))
	assert.NotZero(t, total)
}

func TestGeneralCompliancePicksUpPolicyCodes(t *testing.T) {
	out := newTestHandler().Execute(context.Background(), &Input{
		PolicyMatrix: models.PolicyMatrix{
			Count: 2,
			Policies: []models.PolicyEntry{
				{Code: "DM-H2"}, {Code: "NPPF11"},
			},
		},
	})
	c := findConsideration(t, out, "general-compliance")
	assert.Equal(t, []string{"DM-H2", "NPPF11"}, c.PolicyReferences)
}

func TestMaterialConfidenceAveragesApplicableRules(t *testing.T) {
	out := newTestHandler().Execute(context.Background(), &Input{
		Spatial: models.SpatialData{
			Intersections: []models.ConstraintIntersection{
				{Type: "flood_zone_3", CoveragePercent: 60},
			},
		},
	})
	// Two applicable rules: flood risk (0.9) and general compliance (0.5).
	assert.InDelta(t, 0.7, out.MaterialConfidence, 1e-9)
}

func TestParseInputEnforcesRegisteredContract(t *testing.T) {
	reg := &registry.TaskRegistry{Tasks: []registry.TaskDefinition{{
		ID:          "assess-considerations",
		DisplayName: "Assess material considerations",
		Category:    "assessment",
		TaskType:    TaskType,
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"runId"},
			"properties": map[string]interface{}{
				"runId": map[string]interface{}{"type": "string"},
			},
		},
	}}}
	h := NewHandler(LoadConfig(), reg, logger.NewNoOpLogger())

	_, err := h.parseInput(entities.Job{ActivatedJob: &pb.ActivatedJob{Variables: `{"runId":42}`}})
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeInputParseFailed, stdErr.Code)

	input, err := h.parseInput(entities.Job{ActivatedJob: &pb.ActivatedJob{Variables: `{"runId":"run-9"}`}})
	require.NoError(t, err)
	assert.Equal(t, "run-9", input.RunID)
}
