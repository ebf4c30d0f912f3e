// internal/workers/assessment/run-planning-balance/balance.go
package runplanningbalance

import (
	"fmt"
	"sort"
	"strings"

	"planning-workers/internal/models"
)

// Fixed category weight table. Statutory designations dominate; generic
// compliance barely moves the balance. Versioned with the code, never
// mutable per request.
var categoryWeights = map[string]float64{
	models.CategoryHeritage:  95,
	models.CategoryFlooding:  90,
	models.CategoryHousing:   85,
	models.CategoryTransport: 75,
	models.CategoryAmenity:   65,
	models.CategoryOther:     50,
}

// Within a category, considerations are weighted by how much their
// significance says they matter.
var significanceWeights = map[models.Significance]float64{
	models.SignificanceHigh:   1.0,
	models.SignificanceMedium: 0.6,
	models.SignificanceLow:    0.3,
}

// Classification bands over the cumulative score.
const (
	bandSignificantBenefit = 80.0
	bandMinorBenefit       = 60.0
	bandNeutral            = 40.0
	bandMinorHarm          = 20.0

	// Any single category below this forces a harm-dominant outcome no
	// matter how favourable the cumulative score is.
	statutoryVetoThreshold = 20.0
)

// aggregateCategories folds considerations into one CategoryAssessment per
// category via a significance-weighted average. A category whose rules all
// came back not_applicable stays at the neutral baseline.
func aggregateCategories(considerations []models.ConsiderationAssessment) []models.CategoryAssessment {
	type accumulator struct {
		scoreSum      float64
		weightSum     float64
		confidenceSum float64
		applicable    int
		keyIssues     []string
	}
	byCategory := make(map[string]*accumulator)
	var order []string

	for _, c := range considerations {
		acc, ok := byCategory[c.Category]
		if !ok {
			acc = &accumulator{}
			byCategory[c.Category] = acc
			order = append(order, c.Category)
		}

		if c.Score < 30 {
			acc.keyIssues = append(acc.keyIssues, fmt.Sprintf("%s scored %.0f", c.Subcategory, c.Score))
		} else if c.Significance == models.SignificanceHigh {
			acc.keyIssues = append(acc.keyIssues, c.Subcategory)
		}

		weight, applicable := significanceWeights[c.Significance]
		if !applicable {
			continue
		}
		acc.scoreSum += c.Score * weight
		acc.weightSum += weight
		acc.confidenceSum += c.Confidence
		acc.applicable++
	}

	sort.Strings(order)

	categories := make([]models.CategoryAssessment, 0, len(order))
	for _, category := range order {
		acc := byCategory[category]
		assessment := models.CategoryAssessment{
			Category:     category,
			OverallScore: 50,
			Confidence:   0.5,
			KeyIssues:    acc.keyIssues,
		}
		if acc.weightSum > 0 {
			assessment.OverallScore = acc.scoreSum / acc.weightSum
			assessment.Confidence = acc.confidenceSum / float64(acc.applicable)
		}
		categories = append(categories, assessment)
	}
	return categories
}

// runBalance performs the category-weighted planning balance.
func runBalance(categories []models.CategoryAssessment) *models.BalancingExercise {
	exercise := &models.BalancingExercise{
		WeightsApplied:      make(map[string]models.CategoryWeighting, len(categories)),
		SignificantBenefits: []string{},
		SignificantHarms:    []string{},
	}

	weightedSum := 0.0
	weightTotal := 0.0
	vetoed := false

	for _, category := range categories {
		weight, ok := categoryWeights[category.Category]
		if !ok {
			weight = categoryWeights[models.CategoryOther]
		}
		weighting := models.CategoryWeighting{
			Score:         category.OverallScore,
			Weight:        weight,
			WeightedScore: category.OverallScore * weight,
			Significance:  significanceFor(category.OverallScore),
		}
		exercise.WeightsApplied[category.Category] = weighting
		weightedSum += weighting.WeightedScore
		weightTotal += weight

		if category.OverallScore >= bandSignificantBenefit {
			exercise.SignificantBenefits = append(exercise.SignificantBenefits, category.Category)
		}
		if category.OverallScore <= 30 {
			exercise.SignificantHarms = append(exercise.SignificantHarms, category.Category)
		}
		if category.OverallScore < statutoryVetoThreshold {
			vetoed = true
		}
	}

	if weightTotal > 0 {
		exercise.CumulativeScore = weightedSum / weightTotal
	} else {
		exercise.CumulativeScore = 50
	}

	exercise.OverallBalance = classify(exercise.CumulativeScore)
	if vetoed {
		exercise.OverallBalance = models.BalanceSignificantHarm
	}

	switch {
	case exercise.OverallBalance == models.BalanceSignificantBenefit || exercise.OverallBalance == models.BalanceMinorBenefit:
		exercise.Decision = models.DecisionApprove
	case exercise.OverallBalance.HarmDominant():
		exercise.Decision = models.DecisionRefuse
	}

	exercise.Narrative = narrative(exercise, vetoed)
	return exercise
}

func classify(cumulative float64) models.OverallBalance {
	switch {
	case cumulative >= bandSignificantBenefit:
		return models.BalanceSignificantBenefit
	case cumulative >= bandMinorBenefit:
		return models.BalanceMinorBenefit
	case cumulative >= bandNeutral:
		return models.BalanceNeutral
	case cumulative >= bandMinorHarm:
		return models.BalanceMinorHarm
	default:
		return models.BalanceSignificantHarm
	}
}

func significanceFor(score float64) models.Significance {
	switch {
	case score < 30 || score >= bandSignificantBenefit:
		return models.SignificanceHigh
	case score < bandNeutral || score >= bandMinorBenefit:
		return models.SignificanceMedium
	default:
		return models.SignificanceLow
	}
}

func narrative(exercise *models.BalancingExercise, vetoed bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cumulative weighted score %.1f, balance %s.", exercise.CumulativeScore, exercise.OverallBalance)
	if vetoed {
		b.WriteString(" A category scored below the statutory threshold, forcing a harm-dominant outcome.")
	}
	if len(exercise.SignificantHarms) > 0 {
		fmt.Fprintf(&b, " Significant harms: %s.", strings.Join(exercise.SignificantHarms, ", "))
	}
	if len(exercise.SignificantBenefits) > 0 {
		fmt.Fprintf(&b, " Significant benefits: %s.", strings.Join(exercise.SignificantBenefits, ", "))
	}
	return b.String()
}
