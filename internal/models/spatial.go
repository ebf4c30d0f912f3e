// internal/models/spatial.go
package models

// Types produced by the upstream spatial and document pipelines. This core
// consumes them read-only; resolution and geometry live upstream.

// ConstraintIntersection records how far a planning constraint overlaps the
// site boundary.
type ConstraintIntersection struct {
	Type            string  `json:"type"`
	CoveragePercent float64 `json:"coveragePercent"`
	Area            float64 `json:"area"`
}

// Proximity is the distance in metres from the site to a nearby feature.
type Proximity struct {
	Type     string  `json:"type"`
	Distance float64 `json:"distance"`
}

// SiteMetrics carries basic site geometry facts.
type SiteMetrics struct {
	AreaSqm       float64 `json:"areaSqm"`
	FrontageM     float64 `json:"frontageM"`
	NearestRoadM  float64 `json:"nearestRoadM"`
	ElevationMean float64 `json:"elevationMean"`
}

// SpatialData bundles the constraint-intersection output for one site.
type SpatialData struct {
	Intersections []ConstraintIntersection `json:"intersections"`
	Proximities   []Proximity              `json:"proximities"`
	Metrics       SiteMetrics              `json:"metrics"`
}

// HasConstraint reports whether any intersection of the given type exists.
func (s SpatialData) HasConstraint(constraintType string) bool {
	for _, ix := range s.Intersections {
		if ix.Type == constraintType {
			return true
		}
	}
	return false
}

// Constraint returns the first intersection of the given type.
func (s SpatialData) Constraint(constraintType string) (ConstraintIntersection, bool) {
	for _, ix := range s.Intersections {
		if ix.Type == constraintType {
			return ix, true
		}
	}
	return ConstraintIntersection{}, false
}

// NearestDistance returns the smallest distance to a feature of the given
// type, or -1 when none was recorded.
func (s SpatialData) NearestDistance(featureType string) float64 {
	nearest := -1.0
	for _, p := range s.Proximities {
		if p.Type != featureType {
			continue
		}
		if nearest < 0 || p.Distance < nearest {
			nearest = p.Distance
		}
	}
	return nearest
}

// DocumentData carries facts extracted from submitted documents by the
// upstream document pipeline. Zero values mean the fact was not extracted.
type DocumentData struct {
	HeightMeters      float64 `json:"heightMeters"`
	Storeys           int     `json:"storeys"`
	UnitCount         int     `json:"unitCount"`
	ParkingSpaces     int     `json:"parkingSpaces"`
	AffordablePercent float64 `json:"affordablePercent"`
	HasTransportNote  bool    `json:"hasTransportNote"`
	HasFloodRiskNote  bool    `json:"hasFloodRiskNote"`
}

// ApplicationData identifies the proposal under assessment.
type ApplicationData struct {
	Reference       string     `json:"reference"`
	Authority       string     `json:"authority"`
	Address         string     `json:"address"`
	DevelopmentType string     `json:"developmentType"`
	Description     string     `json:"description"`
	Coordinates     [2]float64 `json:"coordinates"`
}

// RetrievalContext is the situational context given to the retrieval-need
// assessor alongside the free-text query.
type RetrievalContext struct {
	Authority       string     `json:"authority"`
	Address         string     `json:"address"`
	Coordinates     [2]float64 `json:"coordinates"`
	DevelopmentType string     `json:"developmentType"`
}
