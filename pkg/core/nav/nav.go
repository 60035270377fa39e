// Package nav builds stage-risked, ownership-weighted project NAV stacks
// and bridges them to corporate NAV with cash, debt, and configured
// adjustments. Peer tables come out as flat row records.
package nav

import (
	"math"

	"github.com/rs/zerolog"

	"goldval/pkg/config"
	"goldval/pkg/core/dcf"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

// ProjectNAV is one project's contribution to the corporate NAV stack.
type ProjectNAV struct {
	Name               string       `json:"name"`
	Stage              models.Stage `json:"stage"`
	Modeled            bool         `json:"modeled"`
	Reason             string       `json:"reason,omitempty"`
	AnnualProductionOz float64      `json:"annual_production_oz"`
	AISCPerOz          float64      `json:"aisc_per_oz"`
	StartYear          int          `json:"start_year"`
	MineLifeYears      int          `json:"mine_life_years"`
	CapexUsed          float64      `json:"capex_used"`
	OwnershipPct       float64      `json:"ownership_pct"`
	MarginPerOz        float64      `json:"margin_per_oz"`
	StageProbability   float64      `json:"stage_probability"`
	UnriskedNAV        float64      `json:"unrisked_nav"`
	RiskedNAV          float64      `json:"risked_nav"`
}

// CorporateNAV is the full NAV bridge for one company. PNAV and EVNAV are
// nil when their denominators are non-positive; a multiple against zero or
// negative NAV is meaningless.
type CorporateNAV struct {
	Ticker               string       `json:"ticker"`
	Name                 string       `json:"name"`
	GoldPrice            float64      `json:"gold_price"`
	DiscountRate         float64      `json:"discount_rate"`
	StageRisking         bool         `json:"stage_risking"`
	MarketCap            float64      `json:"market_cap"`
	EnterpriseValue      float64      `json:"enterprise_value"`
	SharesOutstanding    float64      `json:"shares_outstanding"`
	CurrentPrice         float64      `json:"current_price"`
	Cash                 float64      `json:"cash"`
	Debt                 float64      `json:"debt"`
	ProjectNAVUnrisked   float64      `json:"project_nav_unrisked"`
	ProjectNAVRisked     float64      `json:"project_nav_risked"`
	ProjectNAVSelected   float64      `json:"project_nav_selected"`
	CorporateNAV         float64      `json:"corporate_nav"`
	CorporateNAVUnrisked float64      `json:"corporate_nav_unrisked"`
	CorporateNAVRisked   float64      `json:"corporate_nav_risked"`
	CorporateAdjustment  float64      `json:"corporate_adjustment"`
	NAVPerShare          float64      `json:"nav_per_share"`
	PNAV                 *float64     `json:"p_nav"`
	EVNAV                *float64     `json:"ev_nav"`
	ImpliedUpsidePct     float64      `json:"implied_upside_pct"`
	Projects             []ProjectNAV `json:"projects"`
	ModeledProjects      int          `json:"modeled_projects"`
	TotalProjects        int          `json:"total_projects"`
}

// Options override the configured discount rate and risking toggle per call.
type Options struct {
	DiscountRate *float64
	StageRisking *bool
}

// Model prices company NAV stacks against a shared calculator.
type Model struct {
	calc        *dcf.Calculator
	assumptions config.NAVAssumptions
	log         zerolog.Logger
}

// NewModel builds a NAV model from injected assumptions.
func NewModel(calc *dcf.Calculator, assumptions config.NAVAssumptions) *Model {
	return &Model{
		calc:        calc,
		assumptions: assumptions,
		log:         logging.ForComponent("nav"),
	}
}

func (m *Model) stageProbability(stage models.Stage) float64 {
	p, ok := m.assumptions.StageProbabilities[string(stage)]
	if !ok {
		p = m.assumptions.DefaultStageProbability
	}
	return math.Max(0, math.Min(1, p))
}

// inferMineLife falls back to life-of-mine ounces over annual production,
// rounded, then to ten years.
func inferMineLife(p models.ProjectParameters) int {
	if p.MineLifeYears > 0 {
		return p.MineLifeYears
	}
	if p.AnnualProductionOz > 0 && p.LifeOfMineGoldOz > 0 {
		if inferred := int(math.Round(p.LifeOfMineGoldOz / p.AnnualProductionOz)); inferred > 0 {
			return inferred
		}
	}
	return 10
}

func (m *Model) projectNAV(p models.ProjectParameters, goldPrice, discountRate float64, risking bool) ProjectNAV {
	mineLife := inferMineLife(p)
	startYear := p.StartYear
	if p.Stage == models.StageProduction && startYear < m.calc.AsOfYear() {
		startYear = m.calc.AsOfYear()
	}

	capex := p.InitialCapex
	if m.assumptions.ExcludeSunkCapex() && p.Stage == models.StageProduction {
		capex = 0 // already spent, must not re-subtract from NAV
	}

	ownershipPct := p.OwnershipPct
	if ownershipPct == 0 {
		ownershipPct = 100
	}
	ownershipFactor := math.Max(0, ownershipPct) / 100

	out := ProjectNAV{
		Name:               p.Name,
		Stage:              p.Stage,
		AnnualProductionOz: p.AnnualProductionOz,
		AISCPerOz:          p.AISCPerOz,
		StartYear:          startYear,
		MineLifeYears:      mineLife,
		CapexUsed:          capex,
		OwnershipPct:       ownershipPct,
		StageProbability:   m.stageProbability(p.Stage),
	}

	if p.AnnualProductionOz <= 0 || p.AISCPerOz <= 0 || mineLife <= 0 {
		out.Reason = "missing required production/cost/life inputs"
		return out
	}

	npv, _, err := m.calc.CalculateProjectNPV(dcf.ProjectInputs{
		GoldPrice:          goldPrice,
		AnnualProductionOz: p.AnnualProductionOz,
		AISCPerOz:          p.AISCPerOz,
		DiscountRate:       discountRate,
		InitialCapex:       capex,
		StartYear:          startYear,
		MineLifeYears:      mineLife,
	})
	if err != nil {
		out.Reason = err.Error()
		return out
	}

	out.Modeled = true
	out.MarginPerOz = goldPrice - p.AISCPerOz
	out.UnriskedNAV = npv * ownershipFactor

	if risking {
		base := out.UnriskedNAV
		if m.assumptions.PositiveNPVOnly() {
			base = math.Max(0, base)
		}
		out.RiskedNAV = base * out.StageProbability
	} else {
		out.RiskedNAV = out.UnriskedNAV
	}
	return out
}

// CalculateCompanyNAV builds the full NAV bridge for one company at the
// given gold price.
func (m *Model) CalculateCompanyNAV(c models.Company, goldPrice float64, opts Options) (CorporateNAV, error) {
	if c.Ticker == "" {
		return CorporateNAV{}, &models.MissingDataError{Ticker: c.Ticker, Reason: "empty ticker"}
	}

	discount := m.assumptions.DefaultDiscountRate
	if opts.DiscountRate != nil {
		discount = *opts.DiscountRate
	}
	risking := m.assumptions.StageRisking()
	if opts.StageRisking != nil {
		risking = *opts.StageRisking
	}

	projects := c.Projects
	if len(projects) == 0 && c.Project.AnnualProductionOz > 0 {
		projects = []models.ProjectParameters{c.Project}
	}

	out := CorporateNAV{
		Ticker:            c.Ticker,
		Name:              c.Name,
		GoldPrice:         goldPrice,
		DiscountRate:      discount,
		StageRisking:      risking,
		MarketCap:         c.Market.MarketCap,
		SharesOutstanding: c.Market.SharesOutstanding,
		CurrentPrice:      c.Market.CurrentPrice,
		Cash:              c.Cash.TotalCash,
		Debt:              c.Cash.TotalDebt,
		TotalProjects:     len(projects),
	}
	out.EnterpriseValue = out.MarketCap + out.Debt - out.Cash

	for _, p := range projects {
		pn := m.projectNAV(p, goldPrice, discount, risking)
		out.Projects = append(out.Projects, pn)
		out.ProjectNAVUnrisked += pn.UnriskedNAV
		out.ProjectNAVRisked += pn.RiskedNAV
		if pn.Modeled {
			out.ModeledProjects++
		}
	}

	if risking {
		out.ProjectNAVSelected = out.ProjectNAVRisked
	} else {
		out.ProjectNAVSelected = out.ProjectNAVUnrisked
	}

	adjustment := m.assumptions.CorporateAdjustments[c.Ticker].Net()
	out.CorporateAdjustment = adjustment
	out.CorporateNAV = out.ProjectNAVSelected + out.Cash - out.Debt + adjustment
	out.CorporateNAVUnrisked = out.ProjectNAVUnrisked + out.Cash - out.Debt + adjustment
	out.CorporateNAVRisked = out.ProjectNAVRisked + out.Cash - out.Debt + adjustment

	if out.SharesOutstanding > 0 {
		out.NAVPerShare = out.CorporateNAV / out.SharesOutstanding
	}
	if out.CorporateNAV > 0 {
		pnav := out.MarketCap / out.CorporateNAV
		out.PNAV = &pnav
	}
	if out.ProjectNAVSelected > 0 {
		evnav := out.EnterpriseValue / out.ProjectNAVSelected
		out.EVNAV = &evnav
	}
	if out.MarketCap > 0 {
		out.ImpliedUpsidePct = (out.CorporateNAV/out.MarketCap - 1) * 100
	}

	m.log.Debug().
		Str("ticker", c.Ticker).
		Float64("corporate_nav", out.CorporateNAV).
		Int("modeled_projects", out.ModeledProjects).
		Msg("company nav calculated")
	return out, nil
}
