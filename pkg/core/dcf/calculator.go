package dcf

import (
	"math"

	"github.com/rs/zerolog"

	"goldval/pkg/logging"
	"goldval/pkg/models"
)

// Calculator prices a single project under a fixed corporate tax rate and an
// explicit valuation year. All present values are discounted to asOfYear.
type Calculator struct {
	taxRate  float64
	asOfYear int
	log      zerolog.Logger
}

// NewCalculator returns a calculator discounting to asOfYear with the given
// default tax rate. Per-call tax overrides come via ProjectInputs.TaxRate.
func NewCalculator(taxRate float64, asOfYear int) *Calculator {
	return &Calculator{
		taxRate:  taxRate,
		asOfYear: asOfYear,
		log:      logging.ForComponent("dcf"),
	}
}

// AsOfYear reports the year all present values are discounted to.
func (c *Calculator) AsOfYear() int { return c.asOfYear }

func (c *Calculator) effectiveTaxRate(in ProjectInputs) float64 {
	if in.TaxRate != nil {
		return *in.TaxRate
	}
	return c.taxRate
}

// CalculateProjectNPV values a project and returns the NPV alongside the full
// yearly schedule. The schedule opens with the capex row (year start_year-1,
// free cash flow equal to minus the initial capex) followed by one row per
// production year.
//
// Capex incurred in the as-of year or earlier is treated as spent today and
// not discounted.
func (c *Calculator) CalculateProjectNPV(in ProjectInputs) (float64, CashFlowSchedule, error) {
	if in.AnnualProductionOz <= 0 {
		return 0, nil, &models.InvalidParameterError{Param: "annual_production_oz", Value: in.AnnualProductionOz}
	}
	if in.MineLifeYears <= 0 {
		return 0, nil, &models.InvalidParameterError{Param: "mine_life_years", Value: float64(in.MineLifeYears)}
	}
	if in.DiscountRate <= -1 {
		return 0, nil, &models.InvalidParameterError{Param: "discount_rate", Value: in.DiscountRate}
	}

	taxRate := c.effectiveTaxRate(in)

	capexExponent := in.StartYear - c.asOfYear - 1
	if capexExponent < 0 {
		capexExponent = 0
	}
	capexFactor := math.Pow(1+in.DiscountRate, -float64(capexExponent))
	pvCapex := in.InitialCapex * capexFactor

	schedule := make(CashFlowSchedule, 0, in.MineLifeYears+1)
	schedule = append(schedule, CashFlowYear{
		Year:           in.StartYear - 1,
		FreeCashFlow:   -in.InitialCapex,
		YearsFromNow:   capexExponent,
		DiscountFactor: capexFactor,
		PresentValue:   -pvCapex,
	})

	var pvOperations float64
	for i := 0; i < in.MineLifeYears; i++ {
		year := in.StartYear + i
		revenue := in.AnnualProductionOz * in.GoldPrice
		cost := in.AnnualProductionOz * in.AISCPerOz
		gross := revenue - cost

		var tax float64
		if gross > 0 {
			tax = gross * taxRate
		}
		fcf := gross - tax

		yearsOut := year - c.asOfYear
		factor := math.Pow(1+in.DiscountRate, -float64(yearsOut))
		pv := fcf * factor
		pvOperations += pv

		schedule = append(schedule, CashFlowYear{
			Year:           year,
			Revenue:        revenue,
			OperatingCost:  cost,
			GrossProfit:    gross,
			TaxExpense:     tax,
			FreeCashFlow:   fcf,
			YearsFromNow:   yearsOut,
			DiscountFactor: factor,
			PresentValue:   pv,
		})
	}

	npv := pvOperations - pvCapex
	c.log.Debug().
		Str("project", "npv").
		Float64("gold_price", in.GoldPrice).
		Float64("npv", npv).
		Msg("project valued")
	return npv, schedule, nil
}

// FindBreakevenGoldPrice binary-searches for the gold price at which NPV
// crosses zero. If NPV is still negative at the search ceiling, the ceiling
// is returned, meaning the project does not break even inside the band.
func (c *Calculator) FindBreakevenGoldPrice(in ProjectInputs, search BreakevenSearch) (float64, error) {
	search = search.withDefaults()
	lo, hi := search.Min, search.Max

	probe := in
	probe.GoldPrice = hi
	npvAtMax, _, err := c.CalculateProjectNPV(probe)
	if err != nil {
		return 0, err
	}
	if npvAtMax < 0 {
		c.log.Warn().
			Float64("search_max", hi).
			Float64("npv_at_max", npvAtMax).
			Msg("project does not break even inside search band")
		return hi, nil
	}

	for hi-lo > search.Tolerance {
		mid := (lo + hi) / 2
		probe.GoldPrice = mid
		npv, _, err := c.CalculateProjectNPV(probe)
		if err != nil {
			return 0, err
		}
		if npv > 0 {
			hi = mid
		} else {
			lo = mid
		}
	}
	return (lo + hi) / 2, nil
}

// CalculateIRR solves for the internal rate of return of the stream
// [-initialCapex, annualFCF x mineLifeYears]. When no sign change exists or
// the root-finder fails to bracket, it falls back to the compound growth
// approximation (totalReturn^(1/n) - 1) and tags the result accordingly.
func (c *Calculator) CalculateIRR(initialCapex, annualFCF float64, mineLifeYears int) IRRResult {
	if initialCapex <= 0 || mineLifeYears <= 0 {
		return IRRResult{Rate: 0, Method: MethodApproximation}
	}

	// NPV of the level annuity less capex, strictly decreasing in r.
	npvAt := func(r float64) float64 {
		if r == 0 {
			return -initialCapex + annualFCF*float64(mineLifeYears)
		}
		annuity := (1 - math.Pow(1+r, -float64(mineLifeYears))) / r
		return -initialCapex + annualFCF*annuity
	}

	lo, hi := -0.9999, 10.0
	if npvAt(lo) > 0 && npvAt(hi) < 0 {
		for i := 0; i < 200; i++ {
			mid := (lo + hi) / 2
			if npvAt(mid) > 0 {
				lo = mid
			} else {
				hi = mid
			}
			if hi-lo < 1e-9 {
				break
			}
		}
		return IRRResult{Rate: (lo + hi) / 2, Method: MethodIRR}
	}

	totalReturn := annualFCF * float64(mineLifeYears) / initialCapex
	if totalReturn <= 0 {
		return IRRResult{Rate: 0, Method: MethodApproximation}
	}
	approx := math.Pow(totalReturn, 1/float64(mineLifeYears)) - 1
	return IRRResult{Rate: approx, Method: MethodApproximation}
}

// CalculatePaybackPeriod reports initial capex divided by annual free cash
// flow, or +Inf when the project never pays back.
func (c *Calculator) CalculatePaybackPeriod(initialCapex, annualFCF float64) float64 {
	if annualFCF <= 0 {
		return math.Inf(1)
	}
	return initialCapex / annualFCF
}

// ProjectMetrics computes the full metric set for one project at one gold
// price: NPV with schedule, IRR, payback, breakeven, margins and per-ounce
// figures.
func (c *Calculator) ProjectMetrics(in ProjectInputs) (Metrics, error) {
	npv, schedule, err := c.CalculateProjectNPV(in)
	if err != nil {
		return Metrics{}, err
	}

	taxRate := c.effectiveTaxRate(in)
	revenue := in.AnnualProductionOz * in.GoldPrice
	gross := revenue - in.AnnualProductionOz*in.AISCPerOz
	annualFCF := gross * (1 - taxRate)

	breakeven, err := c.FindBreakevenGoldPrice(in, BreakevenSearch{})
	if err != nil {
		return Metrics{}, err
	}

	totalOz := in.AnnualProductionOz * float64(in.MineLifeYears)
	var npvPerOz float64
	if totalOz > 0 {
		npvPerOz = npv / totalOz
	}

	return Metrics{
		NPV:                npv,
		NPVMillions:        npv / 1e6,
		IRR:                c.CalculateIRR(in.InitialCapex, annualFCF, in.MineLifeYears),
		PaybackYears:       models.Float(c.CalculatePaybackPeriod(in.InitialCapex, annualFCF)),
		BreakevenGoldPrice: breakeven,
		GoldPrice:          in.GoldPrice,
		DiscountRate:       in.DiscountRate,
		MarginPerOz:        in.GoldPrice - in.AISCPerOz,
		AnnualRevenue:      revenue,
		AnnualFCF:          annualFCF,
		TotalProductionOz:  totalOz,
		NPVPerOz:           npvPerOz,
		Schedule:           schedule,
	}, nil
}

// InputsFromProject maps a configured project plus live price assumptions to
// calculation inputs.
func InputsFromProject(p models.ProjectParameters, goldPrice, discountRate float64) ProjectInputs {
	return ProjectInputs{
		GoldPrice:          goldPrice,
		AnnualProductionOz: p.AnnualProductionOz,
		AISCPerOz:          p.AISCPerOz,
		DiscountRate:       discountRate,
		InitialCapex:       p.InitialCapex,
		StartYear:          p.StartYear,
		MineLifeYears:      p.MineLifeYears,
	}
}
