// Package dilution projects discrete equity-dilution outcomes for
// pre-production miners, probability-weighted and adjusted for completed
// raises and committed financing backstops.
package dilution

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"goldval/pkg/logging"
	"goldval/pkg/models"
)

// Band is one dilution outcome with its probability mass.
type Band struct {
	Name        string  `json:"name"`
	DilutionPct float64 `json:"dilution_pct"`
	Probability float64 `json:"probability"`
	Description string  `json:"description,omitempty"`
}

// DefaultBands is the generic four-band set used when nothing is known about
// a company's financing plans.
func DefaultBands() []Band {
	return []Band{
		{Name: "Low Dilution", DilutionPct: 10, Probability: 0.20,
			Description: "Minimal raise, strong market, strategic investment"},
		{Name: "Base Case", DilutionPct: 30, Probability: 0.50,
			Description: "Standard project financing with equity component"},
		{Name: "High Dilution", DilutionPct: 60, Probability: 0.25,
			Description: "Significant equity raises required"},
		{Name: "Extreme Dilution", DilutionPct: 100, Probability: 0.05,
			Description: "Major restructuring or distressed financing"},
	}
}

// InformedBands returns the financing-archetype band set for a company with
// known raises or committed backstops. The archetype probabilities shift
// with how much of the remaining funding gap the committed backstop covers.
func InformedBands(remainingGap, backstop float64) []Band {
	probs := informedProbabilities(remainingGap, backstop)
	return []Band{
		{Name: "Debt-Funded Build", DilutionPct: 15, Probability: probs[0],
			Description: "Backstop and debt carry the build, token equity"},
		{Name: "Mixed Debt+Equity", DilutionPct: 35, Probability: probs[1],
			Description: "Conventional project finance split"},
		{Name: "Equity-Heavy Build", DilutionPct: 65, Probability: probs[2],
			Description: "Debt capacity exhausted, market funds the rest"},
		{Name: "Full Equity+Overruns", DilutionPct: 100, Probability: probs[3],
			Description: "Cost overruns force repeated raises"},
	}
}

func informedProbabilities(remainingGap, backstop float64) [4]float64 {
	if remainingGap <= 0 {
		return [4]float64{0.60, 0.30, 0.08, 0.02}
	}
	coverage := backstop / remainingGap
	switch {
	case coverage >= 1:
		return [4]float64{0.45, 0.35, 0.15, 0.05}
	case coverage >= 0.5:
		return [4]float64{0.25, 0.45, 0.25, 0.05}
	default:
		return [4]float64{0.10, 0.40, 0.40, 0.10}
	}
}

// Scenario is one band applied to a concrete share count.
type Scenario struct {
	Band
	CurrentShares      float64      `json:"current_shares"`
	NewShares          float64      `json:"new_shares"`
	PostShares         float64      `json:"post_shares"`
	OwnershipPost      float64      `json:"ownership_post"`
	OwnershipLoss      float64      `json:"ownership_loss"`
	ImpliedRaised      float64      `json:"implied_capital_raised"`
	ImpliedPostPrice   float64      `json:"implied_post_price"`
	FundingGapCoverage models.Float `json:"funding_gap_coverage"`
}

// Analysis is the full dilution picture for one company.
type Analysis struct {
	Ticker              string     `json:"ticker"`
	Name                string     `json:"name"`
	Informed            bool       `json:"informed"`
	CurrentShares       float64    `json:"current_shares"`
	CurrentPrice        float64    `json:"current_price"`
	MarketCap           float64    `json:"market_cap"`
	FundingGap          float64    `json:"funding_gap"`
	CompletedProceeds   float64    `json:"completed_proceeds"`
	Backstop            float64    `json:"backstop"`
	RemainingFundingGap float64    `json:"remaining_funding_gap"`
	Scenarios           []Scenario `json:"scenarios"`
	ExpectedDilutionPct float64    `json:"expected_dilution_pct"`
	ExpectedPostShares  float64    `json:"expected_post_shares"`
	ExpectedOwnership   float64    `json:"expected_ownership_post"`
}

// NPVPerShareScenario is one band's per-share value after dilution.
type NPVPerShareScenario struct {
	Name           string  `json:"name"`
	DilutionPct    float64 `json:"dilution_pct"`
	Probability    float64 `json:"probability"`
	PostShares     float64 `json:"post_shares"`
	NPVPerShare    float64 `json:"npv_per_share"`
	VsBasePct      float64 `json:"npv_per_share_vs_base_pct"`
	WeightedMember float64 `json:"weighted_npv_per_share"`
}

// NPVAdjustment is the dilution-adjusted per-share valuation.
type NPVAdjustment struct {
	Ticker              string                `json:"ticker"`
	BaseNPV             float64               `json:"base_npv"`
	BaseNPVPerShare     float64               `json:"base_npv_per_share"`
	Scenarios           []NPVPerShareScenario `json:"scenarios"`
	ExpectedNPVPerShare float64               `json:"expected_npv_per_share"`
	ExpectedVsBasePct   float64               `json:"expected_npv_vs_base_pct"`
}

// Modeler builds dilution scenarios from normalized company records.
type Modeler struct {
	log zerolog.Logger
}

// NewModeler returns a dilution modeler.
func NewModeler() *Modeler {
	return &Modeler{log: logging.ForComponent("dilution")}
}

// BandsFor picks the informed archetype set when the company has completed
// raises or committed financing, otherwise the generic defaults.
func (m *Modeler) BandsFor(c models.Company) (bands []Band, informed bool, completed, backstop float64) {
	for _, r := range c.KnownRaises {
		if r.Completed() {
			completed += r.Proceeds
		}
	}
	for _, f := range c.Financing {
		backstop += f.CommittedAmount
	}
	if completed == 0 && backstop == 0 {
		return DefaultBands(), false, 0, 0
	}
	remaining := c.Calculated.FundingGap - completed
	if remaining < 0 {
		remaining = 0
	}
	return InformedBands(remaining, backstop), true, completed, backstop
}

// ModelScenarios builds the probability-weighted dilution analysis for one
// company. Share counts must be positive.
func (m *Modeler) ModelScenarios(c models.Company) (Analysis, error) {
	shares := c.Market.SharesOutstanding
	if shares <= 0 {
		return Analysis{}, &models.InvalidParameterError{Param: "shares_outstanding", Value: shares}
	}

	bands, informed, completed, backstop := m.BandsFor(c)
	remaining := c.Calculated.FundingGap - completed
	if remaining < 0 {
		remaining = 0
	}

	a := Analysis{
		Ticker:              c.Ticker,
		Name:                c.Name,
		Informed:            informed,
		CurrentShares:       shares,
		CurrentPrice:        c.Market.CurrentPrice,
		MarketCap:           c.Market.MarketCap,
		FundingGap:          c.Calculated.FundingGap,
		CompletedProceeds:   completed,
		Backstop:            backstop,
		RemainingFundingGap: remaining,
		Scenarios:           make([]Scenario, 0, len(bands)),
	}

	for _, b := range bands {
		newShares := shares * b.DilutionPct / 100
		postShares := shares + newShares
		raised := newShares * c.Market.CurrentPrice

		coverage := math.Inf(1)
		if a.FundingGap > 0 {
			coverage = raised / a.FundingGap * 100
		}
		var postPrice float64
		if postShares > 0 {
			postPrice = c.Market.MarketCap / postShares
		}

		a.Scenarios = append(a.Scenarios, Scenario{
			Band:               b,
			CurrentShares:      shares,
			NewShares:          newShares,
			PostShares:         postShares,
			OwnershipPost:      shares / postShares * 100,
			OwnershipLoss:      100 - shares/postShares*100,
			ImpliedRaised:      raised,
			ImpliedPostPrice:   postPrice,
			FundingGapCoverage: models.Float(coverage),
		})

		a.ExpectedPostShares += postShares * b.Probability
		a.ExpectedDilutionPct += b.DilutionPct * b.Probability
	}
	if a.ExpectedPostShares > 0 {
		a.ExpectedOwnership = shares / a.ExpectedPostShares * 100
	}

	m.log.Debug().
		Str("ticker", c.Ticker).
		Bool("informed", informed).
		Float64("expected_dilution_pct", a.ExpectedDilutionPct).
		Msg("dilution scenarios modeled")
	return a, nil
}

// NPVAdjustedForDilution spreads a base NPV over each scenario's post-raise
// share count and probability-weights the per-share outcomes.
func (m *Modeler) NPVAdjustedForDilution(c models.Company, baseNPV float64) (NPVAdjustment, error) {
	analysis, err := m.ModelScenarios(c)
	if err != nil {
		return NPVAdjustment{}, err
	}

	adj := NPVAdjustment{
		Ticker:          c.Ticker,
		BaseNPV:         baseNPV,
		BaseNPVPerShare: baseNPV / analysis.CurrentShares,
		Scenarios:       make([]NPVPerShareScenario, 0, len(analysis.Scenarios)),
	}

	for _, sc := range analysis.Scenarios {
		perShare := baseNPV / sc.PostShares
		var vsBase float64
		if adj.BaseNPVPerShare > 0 {
			vsBase = (perShare/adj.BaseNPVPerShare - 1) * 100
		}
		adj.Scenarios = append(adj.Scenarios, NPVPerShareScenario{
			Name:           sc.Name,
			DilutionPct:    sc.DilutionPct,
			Probability:    sc.Probability,
			PostShares:     sc.PostShares,
			NPVPerShare:    perShare,
			VsBasePct:      vsBase,
			WeightedMember: perShare * sc.Probability,
		})
		adj.ExpectedNPVPerShare += perShare * sc.Probability
	}
	if adj.BaseNPVPerShare > 0 {
		adj.ExpectedVsBasePct = (adj.ExpectedNPVPerShare/adj.BaseNPVPerShare - 1) * 100
	}
	return adj, nil
}

// CompareCompanies models every company, surfacing per-ticker failures as
// records so one bad company does not abort the batch. Results keep a
// deterministic order, highest expected dilution first.
func (m *Modeler) CompareCompanies(companies []models.Company) ([]Analysis, []models.TickerError) {
	analyses := make([]Analysis, 0, len(companies))
	var failures []models.TickerError
	for _, c := range companies {
		a, err := m.ModelScenarios(c)
		if err != nil {
			failures = append(failures, models.TickerError{Ticker: c.Ticker, Err: err.Error()})
			continue
		}
		analyses = append(analyses, a)
	}
	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].ExpectedDilutionPct > analyses[j].ExpectedDilutionPct
	})
	return analyses, failures
}
