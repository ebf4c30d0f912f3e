// test/e2e/e2e_test.go
//
// Pipeline tests chaining the worker Execute stages the way the BPMN process
// does: assess-data-needs -> fuse-evidence -> assess-considerations ->
// run-planning-balance -> synthesize-decision. External sources are faked;
// the assessment store runs against miniredis.
package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planning-workers/internal/common/cache"
	"planning-workers/internal/common/genai"
	"planning-workers/internal/common/logger"
	"planning-workers/internal/models"

	ac "planning-workers/internal/workers/assessment/assess-considerations"
	rpb "planning-workers/internal/workers/assessment/run-planning-balance"
	sd "planning-workers/internal/workers/assessment/synthesize-decision"
	adn "planning-workers/internal/workers/retrieval/assess-data-needs"
	fe "planning-workers/internal/workers/retrieval/fuse-evidence"
)

type fakeLocal struct {
	policyHits []models.RetrievalResult
	appHits    []models.RetrievalResult
}

func (f *fakeLocal) SearchPolicies(ctx context.Context, query string, size int) ([]models.RetrievalResult, error) {
	return f.policyHits, nil
}

func (f *fakeLocal) SearchApplications(ctx context.Context, query string, size int) ([]models.RetrievalResult, error) {
	return f.appHits, nil
}

type fakePrecedents struct {
	hits []models.RetrievalResult
}

func (f *fakePrecedents) Search(ctx context.Context, query string, limit int) ([]models.RetrievalResult, error) {
	return f.hits, nil
}

type fakePolicies struct {
	hits []models.RetrievalResult
}

func (f *fakePolicies) PoliciesFor(ctx context.Context, authorityCode string, limit int) ([]models.RetrievalResult, error) {
	return f.hits, nil
}

type fakeConstraints struct {
	hits []models.RetrievalResult
}

func (f *fakeConstraints) Lookup(ctx context.Context, coordinates [2]float64, limit int) ([]models.RetrievalResult, error) {
	return f.hits, nil
}

type fakeReasoner struct {
	needs *genai.DataNeeds
}

func (f *fakeReasoner) AssessDataNeeds(ctx context.Context, query string, rctx models.RetrievalContext, localSummary string) (*genai.DataNeeds, error) {
	return f.needs, nil
}

func (f *fakeReasoner) GroundedSearch(ctx context.Context, query string) (*genai.GroundedResult, error) {
	return &genai.GroundedResult{Query: query}, nil
}

func newStore(t *testing.T) cache.AssessmentStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewRedisStore(client, time.Hour)
}

func evidenceSources() (*fakeLocal, *fakePrecedents, *fakePolicies, *fakeConstraints) {
	local := &fakeLocal{
		policyHits: []models.RetrievalResult{
			{
				Source:         models.SourceLocalPolicy,
				Content:        "Policy DM-H2 requires an appropriate mix of dwelling sizes on residential schemes of ten or more units",
				RelevanceScore: 0.92,
				Role:           models.RolePolicy,
			},
			{
				Source:         models.SourceLocalPolicy,
				Content:        "Policy T3 sets parking standards for new residential development across the borough",
				RelevanceScore: 0.84,
				Role:           models.RolePolicy,
			},
		},
		appHits: []models.RetrievalResult{
			{
				Source:         models.SourceLocalApplication,
				Content:        "Previous application on adjoining land approved subject to drainage conditions",
				RelevanceScore: 0.7,
				Role:           models.RoleApplication,
			},
		},
	}
	precedents := &fakePrecedents{hits: []models.RetrievalResult{
		{
			Source:         models.SourcePrecedent,
			Content:        "Appeal dismissed where affordable provision fell below the adopted policy requirement",
			RelevanceScore: 0.66,
			Role:           models.RoleOther,
		},
	}}
	policies := &fakePolicies{hits: []models.RetrievalResult{
		{
			Source:         models.SourceExternalPolicy,
			Content:        "National guidance applies a sequential approach to development in flood risk areas",
			RelevanceScore: 0.8,
			Role:           models.RolePolicy,
		},
	}}
	constraints := &fakeConstraints{hits: []models.RetrievalResult{
		{
			Source:         models.SourceConstraints,
			Content:        "Conservation area designation covering the town centre",
			RelevanceScore: 1.0,
			Role:           models.RoleOther,
		},
	}}
	return local, precedents, policies, constraints
}

// runRetrieval executes the two retrieval stages and returns the fused bundle.
func runRetrieval(t *testing.T, ctx context.Context, runID string, store cache.AssessmentStore) *fe.Output {
	t.Helper()
	log := logger.NewNoOpLogger()

	reasoner := &fakeReasoner{needs: &genai.DataNeeds{
		NeedsPrecedentSearch:    true,
		NeedsPolicyRegistry:     true,
		NeedsConstraintRegistry: true,
	}}
	needsHandler := adn.NewHandler(adn.LoadConfig(), reasoner, store, nil, log)
	rctx := models.RetrievalContext{
		Authority:       "guildford",
		Address:         "14 Mill Lane, Guildford",
		Coordinates:     [2]float64{-0.57, 51.23},
		DevelopmentType: "residential",
	}
	needs := needsHandler.Execute(ctx, &adn.Input{
		RunID:   runID,
		Query:   "erection of 12 dwellings with access and parking",
		Context: rctx,
	})
	require.False(t, needs.Degraded)
	require.True(t, needs.NeedsPrecedentSearch)

	local, precedents, policies, constraints := evidenceSources()
	fusionHandler := fe.NewHandler(fe.LoadConfig(), local, precedents, policies, constraints, reasoner, nil, log)
	bundle := fusionHandler.Execute(ctx, &fe.Input{
		RunID:                   runID,
		Query:                   "erection of 12 dwellings with access and parking",
		Context:                 rctx,
		NeedsPrecedentSearch:    needs.NeedsPrecedentSearch,
		NeedsPolicyRegistry:     needs.NeedsPolicyRegistry,
		NeedsConstraintRegistry: needs.NeedsConstraintRegistry,
		AdditionalQueries:       needs.AdditionalQueries,
	})
	require.Equal(t, models.StrategyFused, bundle.Strategy)
	require.NotEmpty(t, bundle.Results)
	return bundle
}

func TestPipelineStandardSchemeDefers(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	runID := "run-e2e-defer"
	require.NoError(t, store.Register(ctx, runID))

	log := logger.NewNoOpLogger()
	bundle := runRetrieval(t, ctx, runID, store)
	assert.GreaterOrEqual(t, bundle.PolicyMatrix.Count, 1)

	// Unconstrained 12-unit scheme with strong affordable and parking
	// provision.
	considerations := ac.NewHandler(ac.LoadConfig(), nil, log).Execute(ctx, &ac.Input{
		RunID: runID,
		Application: models.ApplicationData{
			Reference:       "24/01001/FUL",
			Authority:       "guildford",
			Address:         "14 Mill Lane, Guildford",
			DevelopmentType: "residential",
		},
		Spatial: models.SpatialData{
			Metrics: models.SiteMetrics{AreaSqm: 4200},
		},
		Documents: models.DocumentData{
			UnitCount:         12,
			ParkingSpaces:     18,
			AffordablePercent: 40,
			Storeys:           2,
		},
		PolicyMatrix: bundle.PolicyMatrix,
	})
	require.Len(t, considerations.Considerations, 9)
	assert.InDelta(t, 0.7, considerations.MaterialConfidence, 0.001)
	assert.Len(t, considerations.Citations, 3)

	balance := rpb.NewHandler(rpb.LoadConfig(), store, nil, log).Execute(ctx, &rpb.Input{
		RunID:              runID,
		Considerations:     considerations.Considerations,
		Citations:          considerations.Citations,
		MaterialConfidence: considerations.MaterialConfidence,
	})
	require.NotNil(t, balance.Balance)
	assert.Len(t, balance.Categories, 6)
	assert.InDelta(t, 56.25, balance.Balance.CumulativeScore, 0.01)
	assert.Equal(t, models.BalanceNeutral, balance.Balance.OverallBalance)
	assert.Empty(t, balance.Balance.Decision)

	// The snapshot is read back from the store rather than echoed.
	decision := sd.NewHandler(sd.LoadConfig(), store, nil, log).Execute(ctx, &sd.Input{
		RunID:                runID,
		AIAnalysisConfidence: 0.8,
	})
	require.NotNil(t, decision.Recommendation)
	assert.Equal(t, models.DecisionDefer, decision.Recommendation.Decision)
	assert.InDelta(t, 0.70, decision.Recommendation.Confidence, 0.001)
	assert.Equal(t, models.AppealRiskLow, decision.Recommendation.AppealRisk)

	saved, err := store.GetAssessment(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, runID, saved.RunID)
}

func TestPipelineConstrainedSiteRefused(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	runID := "run-e2e-refuse"
	require.NoError(t, store.Register(ctx, runID))

	log := logger.NewNoOpLogger()
	bundle := runRetrieval(t, ctx, runID, store)

	// Conservation area and flood zone 3 site, tall scheme with poor
	// affordable and parking provision.
	considerations := ac.NewHandler(ac.LoadConfig(), nil, log).Execute(ctx, &ac.Input{
		RunID: runID,
		Application: models.ApplicationData{
			Reference:       "24/01002/FUL",
			Authority:       "guildford",
			Address:         "2 Riverside Walk, Guildford",
			DevelopmentType: "residential",
		},
		Spatial: models.SpatialData{
			Intersections: []models.ConstraintIntersection{
				{Type: "flood_zone_3", CoveragePercent: 60},
				{Type: "conservation_area", CoveragePercent: 55},
			},
			Proximities: []models.Proximity{
				{Type: "listed_building", Distance: 40},
				{Type: "primary_road", Distance: 15},
				{Type: "residential", Distance: 8},
			},
			Metrics: models.SiteMetrics{AreaSqm: 2000},
		},
		Documents: models.DocumentData{
			HeightMeters:      13,
			Storeys:           3,
			UnitCount:         12,
			ParkingSpaces:     4,
			AffordablePercent: 10,
		},
		PolicyMatrix: bundle.PolicyMatrix,
	})
	require.Len(t, considerations.Considerations, 9)
	assert.InDelta(t, 0.7375, considerations.MaterialConfidence, 0.001)
	assert.Len(t, considerations.Citations, 10)

	balance := rpb.NewHandler(rpb.LoadConfig(), store, nil, log).Execute(ctx, &rpb.Input{
		RunID:              runID,
		Considerations:     considerations.Considerations,
		Citations:          considerations.Citations,
		MaterialConfidence: considerations.MaterialConfidence,
	})
	require.NotNil(t, balance.Balance)

	// Heritage aggregates to 17.5, below the statutory veto threshold, so
	// the balance is harm-dominant despite the cumulative score sitting in
	// the minor-harm band.
	assert.InDelta(t, 26.77, balance.Balance.CumulativeScore, 0.01)
	assert.Equal(t, models.BalanceSignificantHarm, balance.Balance.OverallBalance)
	assert.Equal(t, models.DecisionRefuse, balance.Balance.Decision)
	assert.Contains(t, balance.Balance.SignificantHarms, models.CategoryHeritage)
	assert.Contains(t, balance.Balance.SignificantHarms, models.CategoryFlooding)
	assert.Contains(t, balance.Balance.Narrative, "statutory threshold")

	decision := sd.NewHandler(sd.LoadConfig(), store, nil, log).Execute(ctx, &sd.Input{
		RunID:                runID,
		Assessment:           balance.Assessment,
		AIAnalysisConfidence: 0.5,
	})
	require.NotNil(t, decision.Recommendation)
	assert.Equal(t, models.DecisionRefuse, decision.Recommendation.Decision)
	assert.InDelta(t, 0.685, decision.Recommendation.Confidence, 0.001)
	assert.Equal(t, models.AppealRiskMedium, decision.Recommendation.AppealRisk)
	assert.Contains(t, decision.Recommendation.RiskFactors, "significant flood risk: flood_risk")
	assert.Contains(t, decision.Recommendation.Conditions, "surface water drainage scheme to be approved")
}

func TestPipelineCancelledRunDiscardsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	runID := "run-e2e-cancelled"
	require.NoError(t, store.Register(ctx, runID))
	require.NoError(t, store.Cancel(ctx, runID))

	log := logger.NewNoOpLogger()
	out := rpb.NewHandler(rpb.LoadConfig(), store, nil, log).Execute(ctx, &rpb.Input{
		RunID: runID,
		Considerations: []models.ConsiderationAssessment{
			{Category: models.CategoryOther, Subcategory: "general_compliance", Score: 50, Significance: models.SignificanceLow, Confidence: 0.5},
		},
		MaterialConfidence: 0.5,
	})
	require.NotNil(t, out.Balance)

	_, err := store.GetAssessment(ctx, runID)
	assert.ErrorIs(t, err, cache.ErrNotFound)

	// Without a snapshot the synthesis stage degrades to a low-confidence
	// defer instead of failing.
	decision := sd.NewHandler(sd.LoadConfig(), store, nil, log).Execute(ctx, &sd.Input{RunID: runID})
	require.NotNil(t, decision.Recommendation)
	assert.Equal(t, models.DecisionDefer, decision.Recommendation.Decision)
	assert.Less(t, decision.Recommendation.Confidence, 0.6)
}
