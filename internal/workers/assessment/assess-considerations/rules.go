// internal/workers/assessment/assess-considerations/rules.go
package assessconsiderations

import (
	"fmt"

	"planning-workers/internal/citations"
	"planning-workers/internal/models"
)

// Every rule starts from the neutral baseline and applies deltas from the
// spatial and document facts it understands. Absent data leaves the baseline
// untouched with not_applicable significance; no rule has an error path.
const baselineScore = 50.0

// criticalScoreThreshold flags a consideration as a critical key issue
// regardless of subcategory.
const criticalScoreThreshold = 30.0

type ruleFunc func(in *Input, ix *citations.Indexer) models.ConsiderationAssessment

// assessmentRules is the fixed taxonomy, in reporting order. The generic
// compliance rule always applies and anchors runs with no usable facts.
var assessmentRules = []ruleFunc{
	assessHeritageAssets,
	assessListedBuildings,
	assessConservationArea,
	assessHighwaySafety,
	assessFloodRisk,
	assessPrivacyOverlooking,
	assessAffordableHousing,
	assessParkingProvision,
	assessGeneralCompliance,
}

func newConsideration(id, category, subcategory string) models.ConsiderationAssessment {
	return models.ConsiderationAssessment{
		ID:               id,
		Category:         category,
		Subcategory:      subcategory,
		Score:            baselineScore,
		Significance:     models.SignificanceNotApplicable,
		Evidence:         []string{},
		Confidence:       0.5,
		PolicyReferences: []string{},
		Conditions:       []string{},
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func cite(ix *citations.Indexer, c *models.ConsiderationAssessment, citationType, subtype, description, source string, confidence float64) {
	key := ix.Add(citationType, subtype, models.CitationEntry{
		Type:        citationType,
		Category:    c.Category,
		Description: description,
		Confidence:  confidence,
		Source:      source,
	})
	c.Evidence = append(c.Evidence, key)
}

func assessHeritageAssets(in *Input, ix *citations.Indexer) models.ConsiderationAssessment {
	c := newConsideration("heritage-assets", models.CategoryHeritage, "heritage_assets")

	distance := in.Spatial.NearestDistance("listed_building")
	if distance < 0 {
		return c
	}

	switch {
	case distance < 50:
		c.Score -= 20
		c.Significance = models.SignificanceHigh
	case distance < 100:
		c.Score -= 10
		c.Significance = models.SignificanceMedium
	default:
		c.Significance = models.SignificanceLow
	}
	c.Confidence = 0.7
	c.PolicyReferences = append(c.PolicyReferences, "NPPF16")
	cite(ix, &c, "spatial", "heritage_proximity",
		fmt.Sprintf("nearest listed building %.0fm from site", distance), "spatial_pipeline", 0.7)

	if in.Documents.HeightMeters > 12 && distance < 100 {
		c.Score -= 10
		cite(ix, &c, "document", "height",
			fmt.Sprintf("proposed height %.1fm near designated heritage asset", in.Documents.HeightMeters), "document_pipeline", 0.7)
	}

	c.Score = clampScore(c.Score)
	return c
}

func assessListedBuildings(in *Input, ix *citations.Indexer) models.ConsiderationAssessment {
	c := newConsideration("listed-buildings", models.CategoryHeritage, "listed_buildings")

	intersection, ok := in.Spatial.Constraint("listed_building")
	if !ok {
		return c
	}

	c.Significance = models.SignificanceHigh
	c.Confidence = 0.9
	switch {
	case intersection.CoveragePercent > 50:
		c.Score -= 35
	case intersection.CoveragePercent > 10:
		c.Score -= 25
	default:
		c.Score -= 15
	}
	c.PolicyReferences = append(c.PolicyReferences, "NPPF16")
	c.Conditions = append(c.Conditions, "heritage impact assessment prior to commencement")
	cite(ix, &c, "constraint", "listed_building",
		fmt.Sprintf("listed building constraint covers %.0f%% of the site", intersection.CoveragePercent), "constraint_registry", 0.9)

	c.Score = clampScore(c.Score)
	return c
}

func assessConservationArea(in *Input, ix *citations.Indexer) models.ConsiderationAssessment {
	c := newConsideration("conservation-area", models.CategoryHeritage, "conservation_area")

	intersection, ok := in.Spatial.Constraint("conservation_area")
	if !ok {
		return c
	}

	c.Confidence = 0.9
	if intersection.CoveragePercent >= 50 {
		c.Score -= 25
		c.Significance = models.SignificanceHigh
	} else {
		c.Score -= 15
		c.Significance = models.SignificanceMedium
	}
	cite(ix, &c, "constraint", "conservation_area",
		fmt.Sprintf("conservation area covers %.0f%% of the site", intersection.CoveragePercent), "constraint_registry", 0.9)

	if in.Documents.HeightMeters > 9 {
		c.Score -= 10
		cite(ix, &c, "document", "height",
			fmt.Sprintf("proposed height %.1fm within conservation area", in.Documents.HeightMeters), "document_pipeline", 0.7)
	}

	c.Conditions = append(c.Conditions, "materials to be agreed in writing")
	c.Score = clampScore(c.Score)
	return c
}

func assessHighwaySafety(in *Input, ix *citations.Indexer) models.ConsiderationAssessment {
	c := newConsideration("highway-safety", models.CategoryTransport, "highway_safety")

	distance := in.Spatial.NearestDistance("primary_road")
	if distance < 0 {
		return c
	}

	c.Confidence = 0.7
	c.Significance = models.SignificanceLow
	if distance < 20 {
		c.Score -= 15
		c.Significance = models.SignificanceMedium
		cite(ix, &c, "spatial", "road_proximity",
			fmt.Sprintf("site access %.0fm from primary road", distance), "spatial_pipeline", 0.7)
	}
	if in.Documents.HasTransportNote {
		c.Score += 10
		cite(ix, &c, "document", "transport_note",
			"transport statement submitted with the application", "document_pipeline", 0.8)
	} else if distance < 20 {
		c.Conditions = append(c.Conditions, "visibility splays to be provided before first occupation")
	}

	c.Score = clampScore(c.Score)
	return c
}

func assessFloodRisk(in *Input, ix *citations.Indexer) models.ConsiderationAssessment {
	c := newConsideration("flood-risk", models.CategoryFlooding, "flood_risk")

	zone3, inZone3 := in.Spatial.Constraint("flood_zone_3")
	zone2, inZone2 := in.Spatial.Constraint("flood_zone_2")
	if !inZone3 && !inZone2 {
		return c
	}

	c.Confidence = 0.9
	c.PolicyReferences = append(c.PolicyReferences, "NPPF14")
	if inZone3 {
		c.Significance = models.SignificanceHigh
		if zone3.CoveragePercent > 50 {
			c.Score -= 35
		} else {
			c.Score -= 25
		}
		cite(ix, &c, "constraint", "flood_zone_3",
			fmt.Sprintf("flood zone 3 covers %.0f%% of the site", zone3.CoveragePercent), "constraint_registry", 0.9)
	} else {
		c.Significance = models.SignificanceMedium
		c.Score -= 15
		cite(ix, &c, "constraint", "flood_zone_2",
			fmt.Sprintf("flood zone 2 covers %.0f%% of the site", zone2.CoveragePercent), "constraint_registry", 0.9)
	}

	if in.Documents.HasFloodRiskNote {
		c.Score += 10
		cite(ix, &c, "document", "flood_risk_note",
			"site-specific flood risk assessment submitted", "document_pipeline", 0.8)
	}
	c.Conditions = append(c.Conditions, "surface water drainage scheme to be approved")

	c.Score = clampScore(c.Score)
	return c
}

func assessPrivacyOverlooking(in *Input, ix *citations.Indexer) models.ConsiderationAssessment {
	c := newConsideration("privacy-overlooking", models.CategoryAmenity, "privacy_overlooking")

	distance := in.Spatial.NearestDistance("residential")
	if distance < 0 || in.Documents.Storeys < 2 {
		return c
	}

	c.Confidence = 0.6
	switch {
	case distance < 10:
		c.Score -= 25
		c.Significance = models.SignificanceHigh
	case distance < 21:
		c.Score -= 15
		c.Significance = models.SignificanceMedium
	default:
		c.Significance = models.SignificanceLow
	}
	cite(ix, &c, "spatial", "residential_proximity",
		fmt.Sprintf("%d-storey form %.0fm from nearest dwelling", in.Documents.Storeys, distance), "spatial_pipeline", 0.6)
	if c.Significance != models.SignificanceLow {
		c.Conditions = append(c.Conditions, "obscure glazing to first-floor side windows")
	}

	c.Score = clampScore(c.Score)
	return c
}

func assessAffordableHousing(in *Input, ix *citations.Indexer) models.ConsiderationAssessment {
	c := newConsideration("affordable-housing", models.CategoryHousing, "affordable_housing")

	// Policy thresholds only bite on major schemes.
	if in.Documents.UnitCount < 10 {
		return c
	}

	c.Confidence = 0.8
	switch {
	case in.Documents.AffordablePercent >= 35:
		c.Score += 25
		c.Significance = models.SignificanceHigh
	case in.Documents.AffordablePercent >= 20:
		c.Score += 10
		c.Significance = models.SignificanceMedium
	default:
		c.Score -= 20
		c.Significance = models.SignificanceHigh
		c.Conditions = append(c.Conditions, "affordable housing to be secured by planning obligation")
	}
	cite(ix, &c, "document", "affordable_housing",
		fmt.Sprintf("%d units with %.0f%% affordable provision", in.Documents.UnitCount, in.Documents.AffordablePercent), "document_pipeline", 0.8)

	c.Score = clampScore(c.Score)
	return c
}

func assessParkingProvision(in *Input, ix *citations.Indexer) models.ConsiderationAssessment {
	c := newConsideration("parking-provision", models.CategoryTransport, "parking_provision")

	if in.Documents.UnitCount == 0 {
		return c
	}

	ratio := float64(in.Documents.ParkingSpaces) / float64(in.Documents.UnitCount)
	c.Confidence = 0.8
	switch {
	case ratio >= 1.5:
		c.Score += 10
		c.Significance = models.SignificanceLow
	case ratio >= 1:
		c.Score += 5
		c.Significance = models.SignificanceLow
	case ratio < 0.5:
		c.Score -= 15
		c.Significance = models.SignificanceMedium
	default:
		c.Score -= 5
		c.Significance = models.SignificanceLow
	}
	cite(ix, &c, "document", "parking_ratio",
		fmt.Sprintf("%.2f spaces per unit across %d units", ratio, in.Documents.UnitCount), "document_pipeline", 0.8)

	c.Score = clampScore(c.Score)
	return c
}

// assessGeneralCompliance is the fallback rule: it always applies so every
// assessment carries at least one consideration, and it picks up the policy
// codes retrieval surfaced when no specific rule claimed them.
func assessGeneralCompliance(in *Input, ix *citations.Indexer) models.ConsiderationAssessment {
	c := newConsideration("general-compliance", models.CategoryOther, "general_compliance")
	c.Significance = models.SignificanceLow
	c.Confidence = 0.5

	for i, policy := range in.PolicyMatrix.Policies {
		if i >= 5 {
			break
		}
		c.PolicyReferences = append(c.PolicyReferences, policy.Code)
	}
	if in.Spatial.Metrics.AreaSqm > 0 {
		cite(ix, &c, "computed", "site_metrics",
			fmt.Sprintf("site area %.0f sqm", in.Spatial.Metrics.AreaSqm), "spatial_pipeline", 0.5)
	}
	return c
}
