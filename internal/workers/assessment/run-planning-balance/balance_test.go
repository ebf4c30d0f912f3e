// internal/workers/assessment/run-planning-balance/balance_test.go
package runplanningbalance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planning-workers/internal/models"
)

func category(name string, score float64) models.CategoryAssessment {
	return models.CategoryAssessment{Category: name, OverallScore: score, Confidence: 0.8}
}

func TestRunBalanceWeightedAverageIdentity(t *testing.T) {
	categories := []models.CategoryAssessment{
		category(models.CategoryHeritage, 70),
		category(models.CategoryTransport, 55),
		category(models.CategoryAmenity, 40),
	}

	exercise := runBalance(categories)

	expected := (70*95 + 55*75 + 40*65) / (95.0 + 75.0 + 65.0)
	assert.InDelta(t, expected, exercise.CumulativeScore, 1e-9)

	for _, c := range categories {
		weighting, ok := exercise.WeightsApplied[c.Category]
		require.True(t, ok)
		assert.InDelta(t, c.OverallScore*weighting.Weight, weighting.WeightedScore, 1e-9)
	}
}

func TestRunBalanceStatutoryVeto(t *testing.T) {
	// Two strong categories and one severe harm: the cumulative score stays
	// favourable but the balance must land harm-dominant.
	categories := []models.CategoryAssessment{
		category(models.CategoryHousing, 90),
		category(models.CategoryTransport, 85),
		category(models.CategoryHeritage, 15),
	}

	exercise := runBalance(categories)

	assert.Greater(t, exercise.CumulativeScore, 60.0)
	assert.True(t, exercise.OverallBalance.HarmDominant())
	assert.Equal(t, models.BalanceSignificantHarm, exercise.OverallBalance)
	assert.Equal(t, models.DecisionRefuse, exercise.Decision)
	assert.Contains(t, exercise.SignificantHarms, models.CategoryHeritage)
	assert.Contains(t, exercise.Narrative, "statutory threshold")
}

func TestRunBalanceClassificationBands(t *testing.T) {
	tests := []struct {
		score float64
		want  models.OverallBalance
	}{
		{85, models.BalanceSignificantBenefit},
		{65, models.BalanceMinorBenefit},
		{50, models.BalanceNeutral},
		{25, models.BalanceMinorHarm},
		{10, models.BalanceSignificantHarm},
	}
	for _, tt := range tests {
		exercise := runBalance([]models.CategoryAssessment{category(models.CategoryOther, tt.score)})
		assert.Equal(t, tt.want, exercise.OverallBalance, "score %.0f", tt.score)
	}
}

func TestRunBalanceDecisionMapping(t *testing.T) {
	approve := runBalance([]models.CategoryAssessment{category(models.CategoryHousing, 85)})
	assert.Equal(t, models.DecisionApprove, approve.Decision)

	neutral := runBalance([]models.CategoryAssessment{category(models.CategoryHousing, 50)})
	assert.Empty(t, neutral.Decision)

	refuse := runBalance([]models.CategoryAssessment{category(models.CategoryHousing, 25)})
	assert.Equal(t, models.DecisionRefuse, refuse.Decision)
}

func TestRunBalanceEmptyCategories(t *testing.T) {
	exercise := runBalance(nil)
	assert.Equal(t, 50.0, exercise.CumulativeScore)
	assert.Equal(t, models.BalanceNeutral, exercise.OverallBalance)
	assert.Empty(t, exercise.Decision)
}

func TestAggregateCategoriesSignificanceWeighting(t *testing.T) {
	considerations := []models.ConsiderationAssessment{
		{Category: models.CategoryHeritage, Subcategory: "listed_buildings", Score: 20, Significance: models.SignificanceHigh, Confidence: 0.9},
		{Category: models.CategoryHeritage, Subcategory: "heritage_assets", Score: 60, Significance: models.SignificanceLow, Confidence: 0.7},
	}

	categories := aggregateCategories(considerations)
	require.Len(t, categories, 1)

	expected := (20*1.0 + 60*0.3) / 1.3
	assert.InDelta(t, expected, categories[0].OverallScore, 1e-9)
	assert.InDelta(t, 0.8, categories[0].Confidence, 1e-9)
}

func TestAggregateCategoriesKeyIssues(t *testing.T) {
	considerations := []models.ConsiderationAssessment{
		{Category: models.CategoryFlooding, Subcategory: "flood_risk", Score: 15, Significance: models.SignificanceHigh, Confidence: 0.9},
		{Category: models.CategoryAmenity, Subcategory: "privacy_overlooking", Score: 45, Significance: models.SignificanceHigh, Confidence: 0.6},
		{Category: models.CategoryOther, Subcategory: "general_compliance", Score: 50, Significance: models.SignificanceLow, Confidence: 0.5},
	}

	categories := aggregateCategories(considerations)
	byName := make(map[string]models.CategoryAssessment)
	for _, c := range categories {
		byName[c.Category] = c
	}

	// Critical score and high significance both surface as key issues.
	require.Len(t, byName[models.CategoryFlooding].KeyIssues, 1)
	assert.Contains(t, byName[models.CategoryFlooding].KeyIssues[0], "flood_risk scored 15")
	assert.Equal(t, []string{"privacy_overlooking"}, byName[models.CategoryAmenity].KeyIssues)
	assert.Empty(t, byName[models.CategoryOther].KeyIssues)
}

func TestAggregateCategoriesNotApplicableStaysNeutral(t *testing.T) {
	considerations := []models.ConsiderationAssessment{
		{Category: models.CategoryHousing, Subcategory: "affordable_housing", Score: 50, Significance: models.SignificanceNotApplicable, Confidence: 0.5},
	}
	categories := aggregateCategories(considerations)
	require.Len(t, categories, 1)
	assert.Equal(t, 50.0, categories[0].OverallScore)
	assert.Equal(t, 0.5, categories[0].Confidence)
}
