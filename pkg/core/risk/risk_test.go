package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldval/pkg/config"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

func TestMain(m *testing.M) {
	logging.Initialize("error")
	m.Run()
}

func testConfig() config.RiskConfig {
	var cfg config.RiskConfig
	cfg.Categories.Funding.Weight = 0.25
	cfg.Categories.Funding.Thresholds.RunwayMonths = config.BandThresholds{
		Critical: 6, High: 12, Moderate: 18, Low: 24,
	}
	cfg.Categories.Execution.Weight = 0.25
	cfg.Categories.Execution.StageScores = map[string]int{
		"exploration":  1,
		"pea":          2,
		"pfs":          3,
		"fs":           3,
		"permitting":   3,
		"construction": 4,
		"production":   5,
	}
	cfg.Categories.Commodity.Weight = 0.20
	cfg.Categories.Commodity.Thresholds.AISC = config.BandThresholds{
		Critical: 1600, High: 1400, Moderate: 1200, Low: 1000,
	}
	cfg.Categories.Control.Weight = 0.15
	cfg.Categories.Timing.Weight = 0.15
	cfg.Categories.Timing.Thresholds.YearsToProduction = config.BandThresholds{
		Critical: 5, High: 4, Moderate: 3, Low: 2,
	}
	return cfg
}

func TestScoreFundingBands(t *testing.T) {
	s := NewScorer(testConfig())

	assert.Equal(t, 1, s.ScoreFunding(5).Score)
	assert.Equal(t, "critical", s.ScoreFunding(5).Level)
	assert.Equal(t, 2, s.ScoreFunding(11).Score)
	assert.Equal(t, 3, s.ScoreFunding(15).Score)
	assert.Equal(t, 4, s.ScoreFunding(20).Score)
	assert.Equal(t, "low", s.ScoreFunding(20).Level)
	assert.Equal(t, 5, s.ScoreFunding(30).Score)

	zero := s.ScoreFunding(0)
	assert.Equal(t, 1, zero.Score)
	assert.Equal(t, "unknown", zero.Level)
}

func TestScoreExecution(t *testing.T) {
	s := NewScorer(testConfig())

	assert.Equal(t, 1, s.ScoreExecution(models.StageExploration).Score)
	assert.Equal(t, 3, s.ScoreExecution(models.StageFS).Score)
	assert.Equal(t, 5, s.ScoreExecution(models.StageProduction).Score)
	// Unknown stage falls back to a cautious 2.
	assert.Equal(t, 2, s.ScoreExecution(models.Stage("scoping")).Score)
}

func TestScoreCommodity(t *testing.T) {
	s := NewScorer(testConfig())

	assert.Equal(t, 1, s.ScoreCommodity(1700).Score)
	assert.Equal(t, 2, s.ScoreCommodity(1500).Score)
	assert.Equal(t, 3, s.ScoreCommodity(1300).Score)
	assert.Equal(t, 4, s.ScoreCommodity(1100).Score)
	assert.Equal(t, 5, s.ScoreCommodity(950).Score)
	// Boundary values belong to the better band.
	assert.Equal(t, 5, s.ScoreCommodity(1000).Score)
}

func TestScoreControlOverride(t *testing.T) {
	cfg := testConfig()
	cfg.CompanyOverrides = map[string]struct {
		Control int `yaml:"control"`
	}{
		"GOOD": {Control: 5},
		"BAD":  {Control: 9}, // out of range, ignored
	}
	s := NewScorer(cfg)

	assert.Equal(t, 5, s.ScoreControl("GOOD").Score)
	assert.Equal(t, 3, s.ScoreControl("BAD").Score)
	assert.Equal(t, 3, s.ScoreControl("UNKNOWN").Score)
}

func TestScoreTiming(t *testing.T) {
	s := NewScorer(testConfig())

	assert.Equal(t, 1, s.ScoreTiming(6).Score)
	assert.Equal(t, 1, s.ScoreTiming(5).Score)
	assert.Equal(t, 2, s.ScoreTiming(4).Score)
	assert.Equal(t, 3, s.ScoreTiming(3).Score)
	assert.Equal(t, 4, s.ScoreTiming(2).Score)
	assert.Equal(t, 5, s.ScoreTiming(1).Score)
	assert.Equal(t, 5, s.ScoreTiming(0).Score)
}

func neutralCompany() models.Company {
	return models.Company{
		Ticker: "NEU",
		Name:   "Neutral Mining",
		Project: models.ProjectParameters{
			Stage:     models.StageFS, // execution 3
			AISCPerOz: 1300,           // commodity 3
		},
		Cash:       models.CashData{RunwayMonths: 15},       // funding 3
		Calculated: models.CalculatedData{YearsToProduction: 3}, // timing 3
	}
}

func TestCompositeExactlyThreeWhenAllNeutral(t *testing.T) {
	s := NewScorer(testConfig())

	score := s.CalculateComposite(neutralCompany())
	assert.InDelta(t, 3.0, score.Composite, 1e-12)
	assert.Equal(t, "Moderate Risk", score.Interpretation.Level)
}

func TestCompositeBounds(t *testing.T) {
	s := NewScorer(testConfig())

	worst := models.Company{
		Ticker:     "W",
		Project:    models.ProjectParameters{Stage: models.StageExploration, AISCPerOz: 1800},
		Cash:       models.CashData{RunwayMonths: 2},
		Calculated: models.CalculatedData{YearsToProduction: 8},
	}
	best := models.Company{
		Ticker:     "B",
		Project:    models.ProjectParameters{Stage: models.StageProduction, AISCPerOz: 900},
		Cash:       models.CashData{RunwayMonths: 48},
		Calculated: models.CalculatedData{YearsToProduction: 0},
	}

	w := s.CalculateComposite(worst)
	b := s.CalculateComposite(best)

	assert.GreaterOrEqual(t, w.Composite, 1.0)
	assert.LessOrEqual(t, b.Composite, 5.0)
	// Control stays neutral without an override, capping the extremes.
	assert.InDelta(t, 1.3, w.Composite, 1e-9)
	assert.InDelta(t, 4.7, b.Composite, 1e-9)
	assert.Equal(t, "Very High Risk", w.Interpretation.Level)
	assert.Equal(t, "Minimal Risk", b.Interpretation.Level)
}

func TestWeakestCategoryTieBreak(t *testing.T) {
	s := NewScorer(testConfig())

	// Every category lands on 3: the tie resolves to the first category in
	// priority order, funding.
	score := s.CalculateComposite(neutralCompany())
	assert.Equal(t, CategoryFunding, score.WeakestCategory)
	assert.Equal(t, 3, score.WeakestScore)

	// Timing alone drops to 1 and takes over.
	c := neutralCompany()
	c.Calculated.YearsToProduction = 7
	score = s.CalculateComposite(c)
	assert.Equal(t, CategoryTiming, score.WeakestCategory)
	assert.Equal(t, 1, score.WeakestScore)
}

func TestCompareCompaniesRanking(t *testing.T) {
	s := NewScorer(testConfig())

	safe := neutralCompany()
	safe.Ticker = "SAFE"
	safe.Project.Stage = models.StageProduction
	safe.Cash.RunwayMonths = 40
	safe.Calculated.YearsToProduction = 0

	risky := neutralCompany()
	risky.Ticker = "RISKY"
	risky.Cash.RunwayMonths = 3

	scores, ranking := s.CompareCompanies([]models.Company{risky, safe})
	require.Len(t, scores, 2)
	require.Len(t, ranking, 2)
	assert.Equal(t, "SAFE", ranking[0].Ticker)
	assert.Equal(t, 1, ranking[0].Rank)
	assert.Equal(t, "RISKY", ranking[1].Ticker)
}
