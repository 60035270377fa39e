package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	comparisonSheet  = "Comparison"
	navPeerSheet     = "NAV Peers"
	riskRankingSheet = "Risk Ranking"
)

var comparisonHeaders = []string{
	"Ticker", "Company", "Price", "Mkt Cap ($M)", "EV ($M)", "Cash ($M)",
	"Runway (mo)", "Stage", "AISC ($/oz)", "Margin ($/oz)", "Start Year",
	"Exp. Dilution (%)", "Funding Gap ($M)", "NPV ($M)", "Risk Score", "Risk Level",
}

var navPeerHeaders = []string{
	"Ticker", "Company", "Price", "Mkt Cap ($M)", "Project NAV ($M)",
	"Corporate NAV ($M)", "NAV/Share", "P/NAV", "EV/NAV", "Alt-Rate NAV ($M)",
	"Implied Upside (%)", "P/NAV Percentile", "Modeled Projects",
}

var riskRankingHeaders = []string{"Rank", "Ticker", "Risk Score"}

// Workbook builds the XLSX workbook for one run: the comparison table, the
// NAV peer table, and the risk ranking, each on its own sheet.
func (b *Builder) Workbook(in Input) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", comparisonSheet); err != nil {
		return nil, fmt.Errorf("failed to name comparison sheet: %w", err)
	}
	if err := b.comparisonTab(f, in); err != nil {
		return nil, err
	}
	if err := b.navPeerTab(f, in); err != nil {
		return nil, err
	}
	if err := b.riskRankingTab(f, in); err != nil {
		return nil, err
	}
	return f, nil
}

func (b *Builder) comparisonTab(f *excelize.File, in Input) error {
	if err := setRow(f, comparisonSheet, 1, headerRow(comparisonHeaders)); err != nil {
		return err
	}
	for row, c := range in.Companies {
		m := c.Metrics
		npv := ""
		if c.Valuation != nil {
			npv = fmt.Sprintf("%.0f", c.Valuation.NPVMillions)
		}
		values := []interface{}{
			m.Ticker, m.Name, m.Market.CurrentPrice,
			m.Market.MarketCapMillions, m.Market.EnterpriseValueMillions,
			m.Cash.TotalCashMillions, m.Cash.RunwayMonths,
			m.Project.Stage, m.Project.AISCPerOz, m.Project.MarginPerOz,
			m.Project.StartYear, m.Dilution.ExpectedDilutionPct,
			m.Funding.FundingGapMillions, npv,
			c.Risk.Composite, c.Risk.Interpretation.Level,
		}
		if err := setRow(f, comparisonSheet, row+2, values); err != nil {
			return err
		}
	}
	return f.SetColWidth(comparisonSheet, "A", "B", 18)
}

func (b *Builder) navPeerTab(f *excelize.File, in Input) error {
	if _, err := f.NewSheet(navPeerSheet); err != nil {
		return fmt.Errorf("failed to add nav peer sheet: %w", err)
	}
	if err := setRow(f, navPeerSheet, 1, headerRow(navPeerHeaders)); err != nil {
		return err
	}
	for row, r := range in.NAV.Rows {
		values := []interface{}{
			r.Ticker, r.Company, r.Price, r.MarketCapMillions,
			r.ProjectNAVMillions, r.CorporateNAVMillions, r.NAVPerShare,
			floatOrBlank(r.PNAV), floatOrBlank(r.EVNAV),
			r.SecondaryNAVMillions, r.ImpliedUpsidePct,
			floatOrBlank(r.PNAVPercentile),
			fmt.Sprintf("%d/%d", r.ModeledProjects, r.TotalProjects),
		}
		if err := setRow(f, navPeerSheet, row+2, values); err != nil {
			return err
		}
	}
	return f.SetColWidth(navPeerSheet, "A", "B", 18)
}

func (b *Builder) riskRankingTab(f *excelize.File, in Input) error {
	if _, err := f.NewSheet(riskRankingSheet); err != nil {
		return fmt.Errorf("failed to add risk ranking sheet: %w", err)
	}
	if err := setRow(f, riskRankingSheet, 1, headerRow(riskRankingHeaders)); err != nil {
		return err
	}
	for row, e := range in.RiskRanking {
		values := []interface{}{e.Rank, e.Ticker, e.Score}
		if err := setRow(f, riskRankingSheet, row+2, values); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func headerRow(headers []string) []interface{} {
	out := make([]interface{}, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}

// floatOrBlank keeps undefined multiples as empty cells instead of zeros.
func floatOrBlank(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

// SaveWorkbook writes the workbook to path.
func (b *Builder) SaveWorkbook(in Input, path string) error {
	f, err := b.Workbook(in)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	b.log.Info().Str("path", path).Msg("workbook saved")
	return nil
}
