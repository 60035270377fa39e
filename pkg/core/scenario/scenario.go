// Package scenario computes probability-weighted valuations across a
// discrete gold price distribution and ranks projects on mean-variance
// utility.
package scenario

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"goldval/pkg/config"
	"goldval/pkg/core/dcf"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

// Scenario is one priced outcome with its probability mass.
type Scenario struct {
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	Price       float64 `json:"price"`
	Probability float64 `json:"probability"`
}

// ScenarioSet is an ordered discrete distribution over gold prices.
type ScenarioSet []Scenario

// SetFromConfig builds a deterministic scenario ordering (ascending price)
// from the configured map.
func SetFromConfig(defs map[string]config.ScenarioDef) ScenarioSet {
	set := make(ScenarioSet, 0, len(defs))
	for name, def := range defs {
		set = append(set, Scenario{
			Name:        name,
			Label:       def.Label,
			Price:       def.Price,
			Probability: def.Probability,
		})
	}
	sort.Slice(set, func(i, j int) bool {
		if set[i].Price != set[j].Price {
			return set[i].Price < set[j].Price
		}
		return set[i].Name < set[j].Name
	})
	return set
}

// Normalized returns the set with probabilities scaled to sum to one. A
// deviation beyond one percent is logged as an anomaly in the inputs.
func (s ScenarioSet) Normalized(log zerolog.Logger) (ScenarioSet, error) {
	var sum float64
	for _, sc := range s {
		sum += sc.Probability
	}
	if sum <= 0 {
		return nil, fmt.Errorf("scenario probabilities sum to %v", sum)
	}
	if math.Abs(sum-1) > 0.01 {
		log.Warn().Float64("probability_sum", sum).Msg("scenario probabilities renormalized")
	}
	out := make(ScenarioSet, len(s))
	for i, sc := range s {
		sc.Probability /= sum
		out[i] = sc
	}
	return out, nil
}

// ScenarioOutcome is one scenario's full DCF result weighted by probability.
type ScenarioOutcome struct {
	Scenario
	NPV         float64       `json:"npv"`
	NPVMillions float64       `json:"npv_millions"`
	IRR         dcf.IRRResult `json:"irr"`
	WeightedNPV float64       `json:"weighted_npv"`
}

// ExpectedValueResult is the distribution summary for one project. Upside
// and downside are the best and worst outcomes relative to the expectation.
type ExpectedValueResult struct {
	ExpectedNPV            float64           `json:"expected_npv"`
	ExpectedNPVMillions    float64           `json:"expected_npv_millions"`
	ExpectedIRR            float64           `json:"expected_irr"`
	Variance               float64           `json:"variance"`
	StdDev                 float64           `json:"std_dev"`
	CoefficientOfVariation models.Float      `json:"coefficient_of_variation"`
	RiskAdjustedValue      float64           `json:"risk_adjusted_value"`
	MaxNPVMillions         float64           `json:"max_npv_millions"`
	MinNPVMillions         float64           `json:"min_npv_millions"`
	UpsideVsExpected       float64           `json:"upside_vs_expected"`
	DownsideVsExpected     float64           `json:"downside_vs_expected"`
	Outcomes               []ScenarioOutcome `json:"outcomes"`
}

// Analyzer prices projects under a scenario distribution.
type Analyzer struct {
	calc         *dcf.Calculator
	riskAversion float64
	log          zerolog.Logger
}

// NewAnalyzer wraps a calculator with a mean-variance risk aversion factor.
func NewAnalyzer(calc *dcf.Calculator, riskAversion float64) *Analyzer {
	if riskAversion == 0 {
		riskAversion = 0.5
	}
	return &Analyzer{
		calc:         calc,
		riskAversion: riskAversion,
		log:          logging.ForComponent("scenario"),
	}
}

// CalculateExpectedNPV prices the project under every scenario and returns
// the probability-weighted expectation with its dispersion. Variance is the
// probability-weighted population variance since the set is a complete
// distribution.
func (a *Analyzer) CalculateExpectedNPV(in dcf.ProjectInputs, set ScenarioSet) (ExpectedValueResult, error) {
	set, err := set.Normalized(a.log)
	if err != nil {
		return ExpectedValueResult{}, err
	}

	outcomes := make([]ScenarioOutcome, 0, len(set))
	var expNPV, expIRR float64
	for _, sc := range set {
		priced := in
		priced.GoldPrice = sc.Price
		m, err := a.calc.ProjectMetrics(priced)
		if err != nil {
			return ExpectedValueResult{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		out := ScenarioOutcome{
			Scenario:    sc,
			NPV:         m.NPV,
			NPVMillions: m.NPVMillions,
			IRR:         m.IRR,
			WeightedNPV: m.NPV * sc.Probability,
		}
		expNPV += out.WeightedNPV
		expIRR += m.IRR.Rate * sc.Probability
		outcomes = append(outcomes, out)
	}

	var variance float64
	maxNPV, minNPV := math.Inf(-1), math.Inf(1)
	for _, out := range outcomes {
		d := out.NPV - expNPV
		variance += out.Probability * d * d
		maxNPV = math.Max(maxNPV, out.NPV)
		minNPV = math.Min(minNPV, out.NPV)
	}
	stdDev := math.Sqrt(variance)

	cv := math.Inf(1)
	if expNPV != 0 {
		cv = stdDev / expNPV
	}

	var upside, downside float64
	if expNPV != 0 {
		upside = maxNPV/expNPV - 1
		downside = minNPV/expNPV - 1
	}

	return ExpectedValueResult{
		ExpectedNPV:            expNPV,
		ExpectedNPVMillions:    expNPV / 1e6,
		ExpectedIRR:            expIRR,
		Variance:               variance,
		StdDev:                 stdDev,
		CoefficientOfVariation: models.Float(cv),
		RiskAdjustedValue:      expNPV - a.riskAversion*stdDev,
		MaxNPVMillions:         maxNPV / 1e6,
		MinNPVMillions:         minNPV / 1e6,
		UpsideVsExpected:       upside,
		DownsideVsExpected:     downside,
		Outcomes:               outcomes,
	}, nil
}

// ProjectRanking is one project's place in a risk-adjusted comparison.
type ProjectRanking struct {
	Name   string              `json:"name"`
	Result ExpectedValueResult `json:"result"`
}

// CompareProjects ranks projects by risk-adjusted value, best first.
// Projects that fail to price are surfaced as error records so one bad
// project does not abort the comparison.
func (a *Analyzer) CompareProjects(projects []models.ProjectParameters, discountRate float64, set ScenarioSet) ([]ProjectRanking, []models.TickerError) {
	rankings := make([]ProjectRanking, 0, len(projects))
	var failures []models.TickerError
	for _, p := range projects {
		res, err := a.CalculateExpectedNPV(dcf.InputsFromProject(p, 0, discountRate), set)
		if err != nil {
			failures = append(failures, models.TickerError{Ticker: p.Name, Err: err.Error()})
			continue
		}
		rankings = append(rankings, ProjectRanking{Name: p.Name, Result: res})
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Result.RiskAdjustedValue > rankings[j].Result.RiskAdjustedValue
	})
	return rankings, failures
}
