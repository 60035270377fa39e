package sensitivity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldval/pkg/core/dcf"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

func TestMain(m *testing.M) {
	logging.Initialize("error")
	m.Run()
}

func baseInputs() dcf.ProjectInputs {
	return dcf.ProjectInputs{
		GoldPrice:          2100,
		AnnualProductionOz: 150_000,
		AISCPerOz:          1100,
		DiscountRate:       0.08,
		InitialCapex:       400e6,
		StartYear:          2029,
		MineLifeYears:      17,
	}
}

func TestGoldDiscountMatrix(t *testing.T) {
	gen := NewGenerator(dcf.NewCalculator(0.25, 2025))
	prices := []float64{1800, 2100, 2500}
	rates := []float64{0.05, 0.08, 0.10}

	m, err := gen.GoldDiscountMatrix(baseInputs(), prices, rates)
	require.NoError(t, err)

	require.Len(t, m.CellsMillions, len(rates))
	require.Len(t, m.CellsMillions[0], len(prices))
	require.Len(t, m.BreakevenByRow, len(rates))

	// NPV rises left to right with price, falls top to bottom with rate.
	for i := range rates {
		assert.Less(t, m.CellsMillions[i][0], m.CellsMillions[i][2])
	}
	for j := range prices {
		assert.Greater(t, m.CellsMillions[0][j], m.CellsMillions[2][j])
	}

	for _, be := range m.BreakevenByRow {
		assert.GreaterOrEqual(t, be, 1000.0)
		assert.LessOrEqual(t, be, 2500.0)
	}
	// Higher discount rate needs a higher gold price to break even.
	assert.Less(t, m.BreakevenByRow[0], m.BreakevenByRow[2])

	// Corners carry the extremes.
	assert.InDelta(t, m.CellsMillions[0][2], m.MaxNPVMillions, 1e-9)
	assert.InDelta(t, m.CellsMillions[2][0], m.MinNPVMillions, 1e-9)
}

func TestAISCPriceMatrix(t *testing.T) {
	gen := NewGenerator(dcf.NewCalculator(0.25, 2025))

	m, err := gen.AISCPriceMatrix(baseInputs(), []float64{900, 1100, 1300}, []float64{2000, 2200})
	require.NoError(t, err)
	require.Len(t, m.CellsMillions, 3)

	// Higher cost always worth less at the same price.
	assert.Greater(t, m.CellsMillions[0][0], m.CellsMillions[2][0])
}

func TestProductionCapexMatrix(t *testing.T) {
	gen := NewGenerator(dcf.NewCalculator(0.25, 2025))

	m, err := gen.ProductionCapexMatrix(baseInputs(), []float64{100_000, 200_000}, []float64{300e6, 500e6})
	require.NoError(t, err)

	// More production worth more, more capex worth less.
	assert.Greater(t, m.CellsMillions[1][0], m.CellsMillions[0][0])
	assert.Greater(t, m.CellsMillions[0][0], m.CellsMillions[0][1])
}

func TestFindValueDrivers(t *testing.T) {
	gen := NewGenerator(dcf.NewCalculator(0.25, 2025))

	drivers, err := gen.FindValueDrivers(baseInputs(), 10)
	require.NoError(t, err)
	require.Len(t, drivers, 5)

	for i := 1; i < len(drivers); i++ {
		assert.GreaterOrEqual(t, drivers[i-1].SensitivityPct, drivers[i].SensitivityPct)
	}
	// Price swings revenue on the full production, costs only part of it.
	assert.Equal(t, "gold_price", drivers[0].Variable)
}

func TestFindValueDriversUndefinedAtZeroBase(t *testing.T) {
	gen := NewGenerator(dcf.NewCalculator(0.25, 2025))
	calc := dcf.NewCalculator(0.25, 2025)

	in := baseInputs()
	breakeven, err := calc.FindBreakevenGoldPrice(in, dcf.BreakevenSearch{Tolerance: 1e-9})
	require.NoError(t, err)
	in.GoldPrice = breakeven

	_, err = gen.FindValueDrivers(in, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUndefinedRatio))
}
