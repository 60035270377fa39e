// Package risk scores junior miners on a five-category 1-5 scale (1 highest
// risk, 5 lowest) and combines categories into a weighted composite with
// threshold banding and weakest-category identification.
package risk

import (
	"sort"

	"github.com/rs/zerolog"

	"goldval/pkg/config"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

// Category names in scoring priority order. Ties for the weakest category
// break in this order rather than map iteration order.
const (
	CategoryFunding   = "funding"
	CategoryExecution = "execution"
	CategoryCommodity = "commodity"
	CategoryControl   = "control"
	CategoryTiming    = "timing"
)

var categoryOrder = []string{
	CategoryFunding, CategoryExecution, CategoryCommodity, CategoryControl, CategoryTiming,
}

var levelNames = []string{"critical", "high", "moderate", "low", "minimal"}

// CategoryScore is one category's contribution to the composite.
type CategoryScore struct {
	Category    string  `json:"category"`
	Score       int     `json:"score"` // 1..5
	Level       string  `json:"level"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

// Interpretation bands the continuous composite into an overall read.
type Interpretation struct {
	Level       string `json:"level"`
	Description string `json:"description"`
}

// CompositeScore is the full risk assessment for one company.
type CompositeScore struct {
	Ticker          string          `json:"ticker"`
	Name            string          `json:"name"`
	Composite       float64         `json:"composite_score"` // continuous, 1.0-5.0
	Interpretation  Interpretation  `json:"interpretation"`
	Categories      []CategoryScore `json:"categories"`
	WeakestCategory string          `json:"weakest_category"`
	WeakestScore    int             `json:"weakest_score"`
}

// Scorer applies configured thresholds and weights. It is state free; every
// call scores from its inputs alone.
type Scorer struct {
	cfg config.RiskConfig
	log zerolog.Logger
}

// NewScorer builds a scorer from injected risk configuration.
func NewScorer(cfg config.RiskConfig) *Scorer {
	return &Scorer{cfg: cfg, log: logging.ForComponent("risk")}
}

// ScoreFunding buckets cash runway. An uncomputable runway scores 1; a
// company that cannot state its runway is treated as the riskiest case.
func (s *Scorer) ScoreFunding(runwayMonths float64) CategoryScore {
	t := s.cfg.Categories.Funding.Thresholds.RunwayMonths
	cs := CategoryScore{Category: CategoryFunding, Weight: s.cfg.Categories.Funding.Weight}
	switch {
	case runwayMonths <= 0:
		cs.Score, cs.Level, cs.Description = 1, "unknown", "Unable to calculate runway"
	case runwayMonths < t.Critical:
		cs.Score, cs.Level, cs.Description = 1, "critical", "Immediate funding required"
	case runwayMonths < t.High:
		cs.Score, cs.Level, cs.Description = 2, "high", "Funding needed within year"
	case runwayMonths < t.Moderate:
		cs.Score, cs.Level, cs.Description = 3, "moderate", "Manageable but monitor"
	case runwayMonths < t.Low:
		cs.Score, cs.Level, cs.Description = 4, "low", "Comfortable runway"
	default:
		cs.Score, cs.Level, cs.Description = 5, "minimal", "Well funded"
	}
	return cs
}

var stageDescriptions = map[int]string{
	1: "Early exploration, high uncertainty",
	2: "PEA stage, significant technical risk",
	3: "PFS/FS or permitting, moderate risk",
	4: "Construction underway, lower risk",
	5: "Operating mine, proven execution",
}

// ScoreExecution looks the project stage up in the configured score table.
func (s *Scorer) ScoreExecution(stage models.Stage) CategoryScore {
	score, ok := s.cfg.Categories.Execution.StageScores[string(stage)]
	if !ok {
		score = 2
	}
	return CategoryScore{
		Category:    CategoryExecution,
		Score:       score,
		Level:       levelNames[score-1],
		Description: stageDescriptions[score],
		Weight:      s.cfg.Categories.Execution.Weight,
	}
}

// ScoreCommodity buckets all-in sustaining cost; higher cost scores lower.
func (s *Scorer) ScoreCommodity(aiscPerOz float64) CategoryScore {
	t := s.cfg.Categories.Commodity.Thresholds.AISC
	cs := CategoryScore{Category: CategoryCommodity, Weight: s.cfg.Categories.Commodity.Weight}
	switch {
	case aiscPerOz > t.Critical:
		cs.Score, cs.Level, cs.Description = 1, "critical", "Marginal at current prices"
	case aiscPerOz > t.High:
		cs.Score, cs.Level, cs.Description = 2, "high", "Limited margin"
	case aiscPerOz > t.Moderate:
		cs.Score, cs.Level, cs.Description = 3, "moderate", "Reasonable margin"
	case aiscPerOz > t.Low:
		cs.Score, cs.Level, cs.Description = 4, "low", "Strong margin"
	default:
		cs.Score, cs.Level, cs.Description = 5, "minimal", "Excellent margin"
	}
	return cs
}

var controlDescriptions = map[int]string{
	1: "Unproven team, governance concerns",
	2: "Mixed track record",
	3: "Competent, standard alignment",
	4: "Strong team, good track record",
	5: "Proven operators, exceptional",
}

// ScoreControl is an analyst judgment input: a per-ticker override from
// configuration, defaulting to neutral. It is not algorithmically derived.
func (s *Scorer) ScoreControl(ticker string) CategoryScore {
	score := 3
	if o, ok := s.cfg.CompanyOverrides[ticker]; ok && o.Control >= 1 && o.Control <= 5 {
		score = o.Control
	}
	return CategoryScore{
		Category:    CategoryControl,
		Score:       score,
		Level:       levelNames[score-1],
		Description: controlDescriptions[score],
		Weight:      s.cfg.Categories.Control.Weight,
	}
}

// ScoreTiming buckets years to production; longer timelines score lower.
func (s *Scorer) ScoreTiming(yearsToProduction int) CategoryScore {
	t := s.cfg.Categories.Timing.Thresholds.YearsToProduction
	y := float64(yearsToProduction)
	cs := CategoryScore{Category: CategoryTiming, Weight: s.cfg.Categories.Timing.Weight}
	switch {
	case y >= t.Critical:
		cs.Score, cs.Level, cs.Description = 1, "critical", "Long timeline, high uncertainty"
	case y >= t.High:
		cs.Score, cs.Level, cs.Description = 2, "high", "Extended timeline"
	case y >= t.Moderate:
		cs.Score, cs.Level, cs.Description = 3, "moderate", "Moderate timeline"
	case y >= t.Low:
		cs.Score, cs.Level, cs.Description = 4, "low", "Near-term production"
	default:
		cs.Score, cs.Level, cs.Description = 5, "minimal", "Producing or imminent"
	}
	return cs
}

// CalculateComposite scores every category for one company and combines
// them by weight into a continuous 1.0-5.0 composite.
func (s *Scorer) CalculateComposite(c models.Company) CompositeScore {
	categories := []CategoryScore{
		s.ScoreFunding(c.Cash.RunwayMonths),
		s.ScoreExecution(c.Project.Stage),
		s.ScoreCommodity(c.Project.AISCPerOz),
		s.ScoreControl(c.Ticker),
		s.ScoreTiming(c.Calculated.YearsToProduction),
	}

	var composite float64
	weakest := categories[0]
	for _, cat := range categories {
		composite += float64(cat.Score) * cat.Weight
		if cat.Score < weakest.Score {
			weakest = cat
		}
	}

	out := CompositeScore{
		Ticker:          c.Ticker,
		Name:            c.Name,
		Composite:       composite,
		Interpretation:  interpret(composite),
		Categories:      categories,
		WeakestCategory: weakest.Category,
		WeakestScore:    weakest.Score,
	}
	s.log.Info().
		Str("ticker", c.Ticker).
		Float64("composite", composite).
		Str("level", out.Interpretation.Level).
		Msg("risk scored")
	return out
}

func interpret(score float64) Interpretation {
	switch {
	case score < 1.5:
		return Interpretation{"Very High Risk", "Speculative investment with significant concerns"}
	case score < 2.5:
		return Interpretation{"High Risk", "Significant concerns require monitoring"}
	case score < 3.5:
		return Interpretation{"Moderate Risk", "Manageable risk profile"}
	case score < 4.5:
		return Interpretation{"Low Risk", "Favorable risk characteristics"}
	default:
		return Interpretation{"Minimal Risk", "Strong position across all categories"}
	}
}

// RankEntry is one company's place in a cross-company risk ranking.
type RankEntry struct {
	Rank   int     `json:"rank"`
	Ticker string  `json:"ticker"`
	Score  float64 `json:"score"`
}

// CompareCompanies scores every company and ranks them, lowest risk first.
func (s *Scorer) CompareCompanies(companies []models.Company) ([]CompositeScore, []RankEntry) {
	scores := make([]CompositeScore, 0, len(companies))
	for _, c := range companies {
		scores = append(scores, s.CalculateComposite(c))
	}

	ranked := append([]CompositeScore(nil), scores...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Composite > ranked[j].Composite
	})
	ranking := make([]RankEntry, len(ranked))
	for i, r := range ranked {
		ranking[i] = RankEntry{Rank: i + 1, Ticker: r.Ticker, Score: r.Composite}
	}
	return scores, ranking
}
