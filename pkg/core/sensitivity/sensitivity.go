// Package sensitivity sweeps the DCF engine over two-dimensional parameter
// grids and ranks which inputs move NPV the most.
package sensitivity

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"goldval/pkg/core/dcf"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

// Generator evaluates NPV matrices cell by cell against a shared calculator.
type Generator struct {
	calc *dcf.Calculator
	log  zerolog.Logger
}

// NewGenerator wraps a calculator for grid sweeps.
func NewGenerator(calc *dcf.Calculator) *Generator {
	return &Generator{calc: calc, log: logging.ForComponent("sensitivity")}
}

// Matrix is a row-major NPV grid in millions. Rows[i] and Cols[j] label the
// axis values for CellsMillions[i][j]. BreakevenByRow is populated only by
// the gold price x discount rate sweep, one breakeven price per rate row.
type Matrix struct {
	RowLabel       string      `json:"row_label"`
	ColLabel       string      `json:"col_label"`
	Rows           []float64   `json:"rows"`
	Cols           []float64   `json:"cols"`
	CellsMillions  [][]float64 `json:"cells_millions"`
	MaxNPVMillions float64     `json:"max_npv_millions"`
	MinNPVMillions float64     `json:"min_npv_millions"`
	BreakevenByRow []float64   `json:"breakeven_by_row,omitempty"`
}

func (m *Matrix) summarize() {
	if len(m.CellsMillions) == 0 || len(m.CellsMillions[0]) == 0 {
		return
	}
	m.MaxNPVMillions, m.MinNPVMillions = math.Inf(-1), math.Inf(1)
	for _, row := range m.CellsMillions {
		for _, v := range row {
			m.MaxNPVMillions = math.Max(m.MaxNPVMillions, v)
			m.MinNPVMillions = math.Min(m.MinNPVMillions, v)
		}
	}
}

// Driver is one input's contribution to NPV variance under a symmetric
// perturbation, expressed as a percentage of base NPV.
type Driver struct {
	Variable       string  `json:"variable"`
	NPVUpMillions  float64 `json:"npv_up_millions"`
	NPVDnMillions  float64 `json:"npv_down_millions"`
	SensitivityPct float64 `json:"sensitivity_pct"`
}

// GoldDiscountMatrix computes NPV over discount-rate rows and gold-price
// columns, plus the breakeven price for each rate row.
func (g *Generator) GoldDiscountMatrix(base dcf.ProjectInputs, priceGrid, rateGrid []float64) (Matrix, error) {
	m := Matrix{
		RowLabel:       "discount_rate",
		ColLabel:       "gold_price",
		Rows:           rateGrid,
		Cols:           priceGrid,
		CellsMillions:  make([][]float64, len(rateGrid)),
		BreakevenByRow: make([]float64, len(rateGrid)),
	}
	for i, rate := range rateGrid {
		row := make([]float64, len(priceGrid))
		in := base
		in.DiscountRate = rate
		for j, price := range priceGrid {
			in.GoldPrice = price
			npv, _, err := g.calc.CalculateProjectNPV(in)
			if err != nil {
				return Matrix{}, fmt.Errorf("cell (%v, %v): %w", rate, price, err)
			}
			row[j] = npv / 1e6
		}
		breakeven, err := g.calc.FindBreakevenGoldPrice(in, dcf.BreakevenSearch{})
		if err != nil {
			return Matrix{}, fmt.Errorf("breakeven at rate %v: %w", rate, err)
		}
		m.CellsMillions[i] = row
		m.BreakevenByRow[i] = breakeven
	}
	m.summarize()
	return m, nil
}

// AISCPriceMatrix computes NPV over AISC rows and gold-price columns.
func (g *Generator) AISCPriceMatrix(base dcf.ProjectInputs, aiscGrid, priceGrid []float64) (Matrix, error) {
	m := Matrix{
		RowLabel:      "aisc_per_oz",
		ColLabel:      "gold_price",
		Rows:          aiscGrid,
		Cols:          priceGrid,
		CellsMillions: make([][]float64, len(aiscGrid)),
	}
	for i, aisc := range aiscGrid {
		row := make([]float64, len(priceGrid))
		in := base
		in.AISCPerOz = aisc
		for j, price := range priceGrid {
			in.GoldPrice = price
			npv, _, err := g.calc.CalculateProjectNPV(in)
			if err != nil {
				return Matrix{}, fmt.Errorf("cell (%v, %v): %w", aisc, price, err)
			}
			row[j] = npv / 1e6
		}
		m.CellsMillions[i] = row
	}
	m.summarize()
	return m, nil
}

// ProductionCapexMatrix computes NPV over annual-production rows and initial
// capex columns.
func (g *Generator) ProductionCapexMatrix(base dcf.ProjectInputs, prodGrid, capexGrid []float64) (Matrix, error) {
	m := Matrix{
		RowLabel:      "annual_production_oz",
		ColLabel:      "initial_capex",
		Rows:          prodGrid,
		Cols:          capexGrid,
		CellsMillions: make([][]float64, len(prodGrid)),
	}
	for i, prod := range prodGrid {
		row := make([]float64, len(capexGrid))
		in := base
		in.AnnualProductionOz = prod
		for j, capex := range capexGrid {
			in.InitialCapex = capex
			npv, _, err := g.calc.CalculateProjectNPV(in)
			if err != nil {
				return Matrix{}, fmt.Errorf("cell (%v, %v): %w", prod, capex, err)
			}
			row[j] = npv / 1e6
		}
		m.CellsMillions[i] = row
	}
	m.summarize()
	return m, nil
}

// FindValueDrivers perturbs each tunable input by +/- variationPct percent,
// reprices, and ranks inputs by swing relative to the base NPV, largest
// first. A base NPV at or near zero makes the ratio undefined.
func (g *Generator) FindValueDrivers(base dcf.ProjectInputs, variationPct float64) ([]Driver, error) {
	if variationPct == 0 {
		variationPct = 10
	}
	baseNPV, _, err := g.calc.CalculateProjectNPV(base)
	if err != nil {
		return nil, err
	}
	if math.Abs(baseNPV) < 1 {
		return nil, fmt.Errorf("base npv %.2f too close to zero: %w", baseNPV, models.ErrUndefinedRatio)
	}

	delta := variationPct / 100
	perturb := func(name string, apply func(*dcf.ProjectInputs, float64)) (Driver, error) {
		up, dn := base, base
		apply(&up, 1+delta)
		apply(&dn, 1-delta)
		npvUp, _, err := g.calc.CalculateProjectNPV(up)
		if err != nil {
			return Driver{}, fmt.Errorf("perturb %s up: %w", name, err)
		}
		npvDn, _, err := g.calc.CalculateProjectNPV(dn)
		if err != nil {
			return Driver{}, fmt.Errorf("perturb %s down: %w", name, err)
		}
		return Driver{
			Variable:       name,
			NPVUpMillions:  npvUp / 1e6,
			NPVDnMillions:  npvDn / 1e6,
			SensitivityPct: math.Abs(npvUp-npvDn) / (2 * math.Abs(baseNPV)) * 100,
		}, nil
	}

	specs := []struct {
		name  string
		apply func(*dcf.ProjectInputs, float64)
	}{
		{"gold_price", func(in *dcf.ProjectInputs, f float64) { in.GoldPrice *= f }},
		{"aisc_per_oz", func(in *dcf.ProjectInputs, f float64) { in.AISCPerOz *= f }},
		{"annual_production_oz", func(in *dcf.ProjectInputs, f float64) { in.AnnualProductionOz *= f }},
		{"initial_capex", func(in *dcf.ProjectInputs, f float64) { in.InitialCapex *= f }},
		{"discount_rate", func(in *dcf.ProjectInputs, f float64) { in.DiscountRate *= f }},
	}

	drivers := make([]Driver, 0, len(specs))
	for _, s := range specs {
		d, err := perturb(s.name, s.apply)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	sort.SliceStable(drivers, func(i, j int) bool {
		return drivers[i].SensitivityPct > drivers[j].SensitivityPct
	})
	g.log.Debug().Str("top_driver", drivers[0].Variable).Msg("ranked value drivers")
	return drivers, nil
}
