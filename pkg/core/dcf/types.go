// Package dcf implements discounted-cash-flow valuation of single mining
// projects: NPV with a full yearly schedule, IRR, payback, and breakeven
// gold price search.
package dcf

import "goldval/pkg/models"

// ProjectInputs are the assumptions for one NPV calculation. Dollar figures
// are in dollars (not millions).
type ProjectInputs struct {
	GoldPrice          float64  `json:"gold_price"`
	AnnualProductionOz float64  `json:"annual_production_oz"`
	AISCPerOz          float64  `json:"aisc_per_oz"`
	DiscountRate       float64  `json:"discount_rate"`
	InitialCapex       float64  `json:"initial_capex"`
	StartYear          int      `json:"start_year"`
	MineLifeYears      int      `json:"mine_life_years"`
	TaxRate            *float64 `json:"tax_rate,omitempty"` // overrides the calculator default
}

// CashFlowYear is one row of the yearly cash-flow schedule.
type CashFlowYear struct {
	Year           int     `json:"year"`
	Revenue        float64 `json:"revenue"`
	OperatingCost  float64 `json:"operating_cost"`
	GrossProfit    float64 `json:"gross_profit"`
	TaxExpense     float64 `json:"tax_expense"`
	FreeCashFlow   float64 `json:"free_cash_flow"`
	YearsFromNow   int     `json:"years_from_now"`
	DiscountFactor float64 `json:"discount_factor"`
	PresentValue   float64 `json:"present_value"`
}

// CashFlowSchedule holds the capex row (at start_year-1, negative free cash
// flow) followed by one row per production year, sorted ascending by year.
type CashFlowSchedule []CashFlowYear

// Root-finder result tags. Callers and tests can tell an exact IRR from the
// compound-growth approximation used when the root-finder fails to converge.
const (
	MethodIRR           = "irr"
	MethodApproximation = "approximation"
)

// IRRResult is a tagged internal-rate-of-return value.
type IRRResult struct {
	Rate   float64 `json:"rate"`
	Method string  `json:"method"`
}

// BreakevenSearch bounds the breakeven gold price binary search. The zero
// value selects the defaults: $1,000-$2,500 with $1 tolerance.
type BreakevenSearch struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Tolerance float64 `json:"tolerance"`
}

func (s BreakevenSearch) withDefaults() BreakevenSearch {
	if s.Min == 0 {
		s.Min = 1000
	}
	if s.Max == 0 {
		s.Max = 2500
	}
	if s.Tolerance == 0 {
		s.Tolerance = 1
	}
	return s
}

// Metrics bundles the full metric set for one project at one price.
type Metrics struct {
	NPV                float64          `json:"npv"`
	NPVMillions        float64          `json:"npv_millions"`
	IRR                IRRResult        `json:"irr"`
	PaybackYears       models.Float     `json:"payback_years"`
	BreakevenGoldPrice float64          `json:"breakeven_gold_price"`
	GoldPrice          float64          `json:"gold_price"`
	DiscountRate       float64          `json:"discount_rate"`
	MarginPerOz        float64          `json:"margin_per_oz"`
	AnnualRevenue      float64          `json:"annual_revenue"`
	AnnualFCF          float64          `json:"annual_fcf"`
	TotalProductionOz  float64          `json:"total_production_oz"`
	NPVPerOz           float64          `json:"npv_per_oz"`
	Schedule           CashFlowSchedule `json:"cash_flow_schedule"`
}
