package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldval/pkg/core/capital"
	"goldval/pkg/core/dcf"
	"goldval/pkg/core/dilution"
	"goldval/pkg/core/marketdata"
	"goldval/pkg/core/metrics"
	"goldval/pkg/core/nav"
	"goldval/pkg/core/risk"
	"goldval/pkg/logging"
)

func TestMain(m *testing.M) {
	logging.Initialize("error")
	m.Run()
}

func sampleInput() Input {
	m := metrics.CompanyMetrics{
		Ticker: "DEV",
		Name:   "Developer Gold",
		Market: metrics.MarketMetrics{
			CurrentPrice:            2.50,
			MarketCapMillions:       250,
			EnterpriseValueMillions: 200,
			From52wHighPct:          -19.35,
		},
		Cash: metrics.CashMetrics{
			TotalCashMillions:     60,
			QuarterlyBurnMillions: 8,
			RunwayMonths:          22.5,
			RunwayBand:            capital.RunwayBand{Level: "low", Score: 4},
			BurnTrend:             "decreasing",
		},
		Project: metrics.ProjectMetrics{
			Name:      "Flagship",
			Stage:     "fs",
			AISCPerOz: 1100,
			StartYear: 2029,
		},
		Funding: metrics.FundingMetrics{FundingGapMillions: 340, CapexCoveragePct: 15},
		Dilution: metrics.DilutionMetrics{
			ExpectedDilutionPct: 37,
			ExpectedOwnership:   73,
			Bands:               dilution.DefaultBands(),
		},
		Gold: metrics.GoldContext{Price: 2100},
	}
	valuation := &dcf.Metrics{
		NPVMillions:        512,
		GoldPrice:          2100,
		DiscountRate:       0.08,
		IRR:                dcf.IRRResult{Rate: 0.27, Method: dcf.MethodIRR},
		PaybackYears:       3.6,
		BreakevenGoldPrice: 1460,
		MarginPerOz:        1000,
	}
	riskScore := risk.CompositeScore{
		Ticker:          "DEV",
		Name:            "Developer Gold",
		Composite:       2.85,
		Interpretation:  risk.Interpretation{Level: "Moderate Risk", Description: "Typical developer risk profile"},
		WeakestCategory: "funding",
		WeakestScore:    2,
		Categories: []risk.CategoryScore{
			{Category: "funding", Score: 2, Description: "Needs financing within a year"},
		},
	}

	pnav := 0.49
	pctile := 50.0
	navCmp := nav.Comparison{
		Rows: []nav.PeerRow{{
			Ticker:               "DEV",
			Company:              "Developer Gold",
			Price:                2.50,
			MarketCapMillions:    250,
			ProjectNAVMillions:   460,
			CorporateNAVMillions: 510,
			NAVPerShare:          5.10,
			PNAV:                 &pnav,
			ImpliedUpsidePct:     104,
			ModeledProjects:      1,
			TotalProjects:        1,
			PNAVPercentile:       &pctile,
		}},
		Stats: nav.PeerStats{MedianPNAV: &pnav, CountPositiveNAV: 1},
	}

	return Input{
		GeneratedAt: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		Gold:        marketdata.GoldPrice{Price: 2100, DailyChangePct: 0.5, Source: "yahoo_api"},
		Companies: []CompanySection{
			{Metrics: m, Risk: riskScore, Valuation: valuation},
		},
		NAV:         navCmp,
		RiskRanking: []risk.RankEntry{{Rank: 1, Ticker: "DEV", Score: 2.85}},
	}
}

func TestMarkdownMemoSections(t *testing.T) {
	md := NewBuilder().Markdown(sampleInput())

	assert.Contains(t, md, "# Junior Gold Portfolio Memo")
	assert.Contains(t, md, "Generated August 24, 2026")
	assert.Contains(t, md, "## Portfolio Summary")
	assert.Contains(t, md, "Combined market cap: $250M")
	assert.Contains(t, md, "## Comparison")
	assert.Contains(t, md, "| DEV | $250M |")
	assert.Contains(t, md, "## NAV Peer Comparison")
	assert.Contains(t, md, "| DEV | $510M | $5.10 | 0.49x | +104% | P50 |")
	assert.Contains(t, md, "Peer median 0.49x NAV across 1 names")
	assert.Contains(t, md, "## Risk Ranking")
	assert.Contains(t, md, "1. DEV at 2.85 / 5.00")
	assert.Contains(t, md, "## Developer Gold (DEV)")
	assert.Contains(t, md, "NPV $512M at $2100 gold, 8% discount rate")
	assert.Contains(t, md, "IRR 27.0% (irr), payback 3.6 years")
	assert.Contains(t, md, "Weakest category: funding (2/5)")
	assert.Contains(t, md, "Expected dilution 37%")
}

func TestMarkdownEmptyRun(t *testing.T) {
	md := NewBuilder().Markdown(Input{GeneratedAt: time.Now()})
	assert.Contains(t, md, "No companies in scope")
	assert.NotContains(t, md, "## Comparison")
	assert.NotContains(t, md, "## NAV Peer Comparison")
	assert.NotContains(t, md, "## Risk Ranking")
}

func TestHTMLRendersTables(t *testing.T) {
	html, err := NewBuilder().HTML(sampleInput())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "Developer Gold")
}

func TestWorkbookLayout(t *testing.T) {
	f, err := NewBuilder().Workbook(sampleInput())
	require.NoError(t, err)
	defer f.Close()

	head, err := f.GetCellValue("Comparison", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Ticker", head)

	ticker, err := f.GetCellValue("Comparison", "A2")
	require.NoError(t, err)
	assert.Equal(t, "DEV", ticker)

	riskLevel, err := f.GetCellValue("Comparison", "P2")
	require.NoError(t, err)
	assert.Equal(t, "Moderate Risk", riskLevel)
}

func TestWorkbookNAVAndRiskSheets(t *testing.T) {
	f, err := NewBuilder().Workbook(sampleInput())
	require.NoError(t, err)
	defer f.Close()

	head, err := f.GetCellValue("NAV Peers", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Ticker", head)

	corporateNAV, err := f.GetCellValue("NAV Peers", "F2")
	require.NoError(t, err)
	assert.Equal(t, "510", corporateNAV)

	pnav, err := f.GetCellValue("NAV Peers", "H2")
	require.NoError(t, err)
	assert.Equal(t, "0.49", pnav)

	// EV/NAV is undefined in the sample and must stay blank, not zero.
	evnav, err := f.GetCellValue("NAV Peers", "I2")
	require.NoError(t, err)
	assert.Empty(t, evnav)

	rank, err := f.GetCellValue("Risk Ranking", "A2")
	require.NoError(t, err)
	assert.Equal(t, "1", rank)

	ticker, err := f.GetCellValue("Risk Ranking", "B2")
	require.NoError(t, err)
	assert.Equal(t, "DEV", ticker)
}
