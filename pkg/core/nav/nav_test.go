package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldval/pkg/config"
	"goldval/pkg/core/dcf"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

func TestMain(m *testing.M) {
	logging.Initialize("error")
	m.Run()
}

func testAssumptions() config.NAVAssumptions {
	return config.NAVAssumptions{
		DefaultDiscountRate:     0.08,
		SecondaryDiscountRate:   0.05,
		DefaultStageProbability: 0.5,
		StageProbabilities: map[string]float64{
			"exploration":  0.25,
			"pea":          0.35,
			"pfs":          0.50,
			"fs":           0.65,
			"permitting":   0.60,
			"construction": 0.80,
			"production":   1.00,
		},
	}
}

func developer() models.Company {
	return models.Company{
		Ticker: "DEV",
		Name:   "Developer Gold",
		Market: models.MarketData{
			CurrentPrice:      2.00,
			MarketCap:         300e6,
			SharesOutstanding: 150e6,
		},
		Cash: models.CashData{TotalCash: 80e6, TotalDebt: 20e6},
		Projects: []models.ProjectParameters{{
			Name:               "Flagship",
			AnnualProductionOz: 150_000,
			AISCPerOz:          1100,
			InitialCapex:       400e6,
			StartYear:          2029,
			MineLifeYears:      17,
			Stage:              models.StageFS,
			OwnershipPct:       100,
		}},
	}
}

func TestCalculateCompanyNAV(t *testing.T) {
	m := NewModel(dcf.NewCalculator(0.25, 2025), testAssumptions())

	res, err := m.CalculateCompanyNAV(developer(), 2100, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.ModeledProjects)
	require.Len(t, res.Projects, 1)

	p := res.Projects[0]
	assert.True(t, p.Modeled)
	assert.InDelta(t, 0.65, p.StageProbability, 1e-9)
	assert.Greater(t, p.UnriskedNAV, 0.0)
	// Positive NAV risked at the fs stage probability.
	assert.InDelta(t, p.UnriskedNAV*0.65, p.RiskedNAV, 1)

	assert.InDelta(t, res.ProjectNAVRisked, res.ProjectNAVSelected, 1)
	assert.InDelta(t, res.ProjectNAVSelected+80e6-20e6, res.CorporateNAV, 1)
	assert.InDelta(t, 300e6+20e6-80e6, res.EnterpriseValue, 1)

	require.NotNil(t, res.PNAV)
	assert.InDelta(t, 300e6/res.CorporateNAV, *res.PNAV, 1e-9)
	require.NotNil(t, res.EVNAV)
	assert.InDelta(t, res.CorporateNAV/150e6, res.NAVPerShare, 1e-9)
}

func TestOwnershipScalesNAV(t *testing.T) {
	m := NewModel(dcf.NewCalculator(0.25, 2025), testAssumptions())

	full, err := m.CalculateCompanyNAV(developer(), 2100, Options{})
	require.NoError(t, err)

	half := developer()
	half.Projects[0].OwnershipPct = 50
	halfRes, err := m.CalculateCompanyNAV(half, 2100, Options{})
	require.NoError(t, err)

	assert.InDelta(t, full.ProjectNAVUnrisked/2, halfRes.ProjectNAVUnrisked, 1)
}

func TestSunkCapexZeroedForProducers(t *testing.T) {
	m := NewModel(dcf.NewCalculator(0.25, 2025), testAssumptions())

	c := developer()
	c.Projects[0].Stage = models.StageProduction
	c.Projects[0].StartYear = 2020 // pulled forward to the as-of year

	res, err := m.CalculateCompanyNAV(c, 2100, Options{})
	require.NoError(t, err)

	p := res.Projects[0]
	assert.Zero(t, p.CapexUsed)
	assert.Equal(t, 2025, p.StartYear)
	assert.InDelta(t, 1.0, p.StageProbability, 1e-9)
}

func TestNegativeNAVNotRiskWeighted(t *testing.T) {
	m := NewModel(dcf.NewCalculator(0.25, 2025), testAssumptions())

	c := developer()
	c.Projects[0].AISCPerOz = 2500 // underwater at any sane price

	res, err := m.CalculateCompanyNAV(c, 2100, Options{})
	require.NoError(t, err)

	p := res.Projects[0]
	assert.Negative(t, p.UnriskedNAV)
	// Negative NAV passes through the max(0, x) floor as zero risked value.
	assert.Zero(t, p.RiskedNAV)
}

func TestPNAVUndefinedWhenCorporateNAVNonPositive(t *testing.T) {
	m := NewModel(dcf.NewCalculator(0.25, 2025), testAssumptions())

	c := developer()
	c.Projects = nil
	c.Cash.TotalCash = 10e6
	c.Cash.TotalDebt = 500e6

	res, err := m.CalculateCompanyNAV(c, 2100, Options{})
	require.NoError(t, err)
	assert.Less(t, res.CorporateNAV, 0.0)
	assert.Nil(t, res.PNAV)
	assert.Nil(t, res.EVNAV)
}

func TestMineLifeInference(t *testing.T) {
	assert.Equal(t, 17, inferMineLife(models.ProjectParameters{MineLifeYears: 17}))
	assert.Equal(t, 13, inferMineLife(models.ProjectParameters{
		AnnualProductionOz: 150_000,
		LifeOfMineGoldOz:   2_000_000,
	}))
	assert.Equal(t, 10, inferMineLife(models.ProjectParameters{}))
}

func TestUnmodeledProjectKeepsBridgeIntact(t *testing.T) {
	m := NewModel(dcf.NewCalculator(0.25, 2025), testAssumptions())

	c := developer()
	c.Projects = append(c.Projects, models.ProjectParameters{
		Name:  "Early Target",
		Stage: models.StageExploration,
	})

	res, err := m.CalculateCompanyNAV(c, 2100, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalProjects)
	assert.Equal(t, 1, res.ModeledProjects)
	assert.False(t, res.Projects[1].Modeled)
	assert.NotEmpty(t, res.Projects[1].Reason)
}

func TestCompareCompanies(t *testing.T) {
	m := NewModel(dcf.NewCalculator(0.25, 2025), testAssumptions())

	cheap := developer()
	rich := developer()
	rich.Ticker = "RICH"
	rich.Name = "Richly Priced Gold"
	rich.Market.MarketCap = 3e9
	broken := models.Company{} // empty ticker

	cmp := m.CompareCompanies([]models.Company{cheap, rich, broken}, 2100, Options{})

	require.Len(t, cmp.Rows, 2)
	require.Len(t, cmp.Failures, 1)
	assert.Equal(t, 2, cmp.Stats.CountPositiveNAV)
	require.NotNil(t, cmp.Stats.MedianPNAV)
	require.NotNil(t, cmp.Stats.MeanPNAV)

	var cheapRow, richRow *PeerRow
	for i := range cmp.Rows {
		switch cmp.Rows[i].Ticker {
		case "DEV":
			cheapRow = &cmp.Rows[i]
		case "RICH":
			richRow = &cmp.Rows[i]
		}
	}
	require.NotNil(t, cheapRow)
	require.NotNil(t, richRow)

	// Lower P/NAV ranks at the lower percentile (cheaper against NAV).
	require.NotNil(t, cheapRow.PNAVPercentile)
	require.NotNil(t, richRow.PNAVPercentile)
	assert.Less(t, *cheapRow.PNAVPercentile, *richRow.PNAVPercentile)
	assert.InDelta(t, 50, *cheapRow.PNAVPercentile, 1e-9)
	assert.InDelta(t, 100, *richRow.PNAVPercentile, 1e-9)

	// Secondary rate discounts less, so secondary NAV is higher.
	assert.Greater(t, cheapRow.SecondaryNAVMillions, cheapRow.CorporateNAVMillions)

	assert.NotEmpty(t, cmp.ProjectRows)
}
