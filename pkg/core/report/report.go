// Package report renders the portfolio investment memo: a markdown document
// per run, an HTML rendering of it, and an XLSX comparison workbook.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"goldval/pkg/core/benchmark"
	"goldval/pkg/core/dcf"
	"goldval/pkg/core/marketdata"
	"goldval/pkg/core/metrics"
	"goldval/pkg/core/nav"
	"goldval/pkg/core/risk"
	"goldval/pkg/logging"
)

// CompanySection is everything the memo prints for one ticker. Valuation,
// NAV, and Return are nil when the underlying model could not run.
type CompanySection struct {
	Metrics   metrics.CompanyMetrics    `json:"metrics"`
	Risk      risk.CompositeScore       `json:"risk"`
	Valuation *dcf.Metrics              `json:"valuation,omitempty"`
	Return    *benchmark.AdjustedReturn `json:"return,omitempty"`
}

// Input is one report run's worth of data. NAV and RiskRanking cover the
// whole universe; each is skipped in the output when empty.
type Input struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Gold        marketdata.GoldPrice `json:"gold"`
	Companies   []CompanySection     `json:"companies"`
	NAV         nav.Comparison       `json:"nav"`
	RiskRanking []risk.RankEntry     `json:"risk_ranking,omitempty"`
}

// Builder renders report documents.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder returns a report builder.
func NewBuilder() *Builder {
	return &Builder{log: logging.ForComponent("report")}
}

// Markdown renders the full investment memo as a markdown document.
func (b *Builder) Markdown(in Input) string {
	var sb strings.Builder

	date := in.GeneratedAt.Format("January 2, 2006")
	fmt.Fprintf(&sb, "# Junior Gold Portfolio Memo\n\n")
	fmt.Fprintf(&sb, "_Generated %s. Gold %s/oz (%+.2f%%, %s)._\n\n",
		date, money(in.Gold.Price), in.Gold.DailyChangePct, in.Gold.Source)

	b.portfolioSummary(&sb, in)
	b.comparisonTable(&sb, in)
	b.navPeerTable(&sb, in)
	b.riskRanking(&sb, in)

	for _, c := range in.Companies {
		b.companySection(&sb, c)
	}

	b.log.Info().Int("companies", len(in.Companies)).Msg("memo rendered")
	return sb.String()
}

func (b *Builder) portfolioSummary(sb *strings.Builder, in Input) {
	var totalCap, riskSum float64
	for _, c := range in.Companies {
		totalCap += c.Metrics.Market.MarketCapMillions
		riskSum += c.Risk.Composite
	}
	n := len(in.Companies)
	if n == 0 {
		sb.WriteString("No companies in scope for this run.\n\n")
		return
	}

	sb.WriteString("## Portfolio Summary\n\n")
	fmt.Fprintf(sb, "- Companies tracked: %d\n", n)
	fmt.Fprintf(sb, "- Combined market cap: $%.0fM\n", totalCap)
	fmt.Fprintf(sb, "- Average risk score: %.2f / 5.00\n\n", riskSum/float64(n))
}

func (b *Builder) comparisonTable(sb *strings.Builder, in Input) {
	if len(in.Companies) == 0 {
		return
	}
	sb.WriteString("## Comparison\n\n")
	sb.WriteString("| Ticker | Mkt Cap | Cash | Runway | Stage | AISC | NPV @ spot | Risk |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, c := range in.Companies {
		npv := "n/a"
		if c.Valuation != nil {
			npv = fmt.Sprintf("$%.0fM", c.Valuation.NPVMillions)
		}
		fmt.Fprintf(sb, "| %s | $%.0fM | $%.1fM | %s | %s | $%.0f | %s | %.2f (%s) |\n",
			c.Metrics.Ticker,
			c.Metrics.Market.MarketCapMillions,
			c.Metrics.Cash.TotalCashMillions,
			runway(c.Metrics.Cash.RunwayMonths),
			c.Metrics.Project.Stage,
			c.Metrics.Project.AISCPerOz,
			npv,
			c.Risk.Composite,
			c.Risk.Interpretation.Level)
	}
	sb.WriteString("\n")
}

func (b *Builder) navPeerTable(sb *strings.Builder, in Input) {
	if len(in.NAV.Rows) == 0 {
		return
	}
	sb.WriteString("## NAV Peer Comparison\n\n")
	sb.WriteString("| Ticker | NAV ($M) | NAV/Share | P/NAV | Upside | Percentile |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for _, r := range in.NAV.Rows {
		fmt.Fprintf(sb, "| %s | $%.0fM | %s | %s | %+.0f%% | %s |\n",
			r.Ticker, r.CorporateNAVMillions, money(r.NAVPerShare),
			multiple(r.PNAV), r.ImpliedUpsidePct, percentile(r.PNAVPercentile))
	}
	sb.WriteString("\n")
	if in.NAV.Stats.MedianPNAV != nil {
		fmt.Fprintf(sb, "Peer median %s NAV across %d names with a positive multiple.\n\n",
			multiple(in.NAV.Stats.MedianPNAV), in.NAV.Stats.CountPositiveNAV)
	}
	for _, f := range in.NAV.Failures {
		fmt.Fprintf(sb, "- %s excluded: %s\n", f.Ticker, f.Err)
	}
	if len(in.NAV.Failures) > 0 {
		sb.WriteString("\n")
	}
}

func (b *Builder) riskRanking(sb *strings.Builder, in Input) {
	if len(in.RiskRanking) == 0 {
		return
	}
	sb.WriteString("## Risk Ranking\n\n")
	for _, e := range in.RiskRanking {
		fmt.Fprintf(sb, "%d. %s at %.2f / 5.00\n", e.Rank, e.Ticker, e.Score)
	}
	sb.WriteString("\n")
}

func (b *Builder) companySection(sb *strings.Builder, c CompanySection) {
	m := c.Metrics
	fmt.Fprintf(sb, "## %s (%s)\n\n", m.Name, m.Ticker)

	fmt.Fprintf(sb, "**%s** | %s stage | production %s\n\n",
		m.Project.Name, m.Project.Stage, startYear(m.Project.StartYear))

	sb.WriteString("### Market & Liquidity\n\n")
	fmt.Fprintf(sb, "- Price %s (%+.1f%% on the day, %.1f%% off the 52-week high)\n",
		money(m.Market.CurrentPrice), m.Market.DailyChangePct, -m.Market.From52wHighPct)
	fmt.Fprintf(sb, "- Market cap $%.0fM, EV $%.0fM\n",
		m.Market.MarketCapMillions, m.Market.EnterpriseValueMillions)
	fmt.Fprintf(sb, "- Cash $%.1fM against $%.1fM quarterly burn: %s runway (%s risk, trend %s)\n",
		m.Cash.TotalCashMillions, m.Cash.QuarterlyBurnMillions,
		runway(m.Cash.RunwayMonths), m.Cash.RunwayBand.Level, m.Cash.BurnTrend)
	fmt.Fprintf(sb, "- Funding gap $%.0fM, cash covers %.0f%% of capex\n\n",
		m.Funding.FundingGapMillions, m.Funding.CapexCoveragePct)

	if c.Valuation != nil {
		v := c.Valuation
		sb.WriteString("### Valuation\n\n")
		fmt.Fprintf(sb, "- NPV $%.0fM at %s gold, %.0f%% discount rate\n",
			v.NPVMillions, money(v.GoldPrice), v.DiscountRate*100)
		fmt.Fprintf(sb, "- IRR %.1f%% (%s), payback %.1f years\n",
			v.IRR.Rate*100, v.IRR.Method, v.PaybackYears)
		fmt.Fprintf(sb, "- Breakeven gold %s, margin $%.0f/oz\n\n",
			money(v.BreakevenGoldPrice), v.MarginPerOz)
	}

	sb.WriteString("### Risk\n\n")
	fmt.Fprintf(sb, "- Composite %.2f / 5.00: %s\n",
		c.Risk.Composite, c.Risk.Interpretation.Description)
	fmt.Fprintf(sb, "- Weakest category: %s (%d/5)\n", c.Risk.WeakestCategory, c.Risk.WeakestScore)
	for _, cat := range c.Risk.Categories {
		fmt.Fprintf(sb, "- %s %d/5: %s\n", cat.Category, cat.Score, cat.Description)
	}
	sb.WriteString("\n")

	sb.WriteString("### Dilution\n\n")
	fmt.Fprintf(sb, "- Expected dilution %.0f%%, retaining %.0f%% ownership\n",
		m.Dilution.ExpectedDilutionPct, m.Dilution.ExpectedOwnership)
	for _, band := range m.Dilution.Bands {
		fmt.Fprintf(sb, "- %s: %.0f%% dilution at %.0f%% probability\n",
			band.Name, band.DilutionPct, band.Probability*100)
	}
	sb.WriteString("\n")

	if c.Return != nil {
		r := c.Return
		sb.WriteString("### Versus the Control Benchmark\n\n")
		fmt.Fprintf(sb, "- Expected annual return %.1f%%, %.1f%% after the control penalty\n",
			r.Mining.AnnualizedReturn*100, r.Adjustment.AdjustedReturn*100)
		verdict := "Does not clear"
		if r.MeetsHurdle {
			verdict = "Clears"
		}
		fmt.Fprintf(sb, "- %s the hurdle at a %.0f%% control factor\n\n",
			verdict, r.Adjustment.ControlFactor*100)
	}
}

func money(v float64) string {
	if v >= 100 {
		return fmt.Sprintf("$%.0f", v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func runway(months float64) string {
	if months <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.0fmo", months)
}

func multiple(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2fx", *v)
}

func percentile(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("P%.0f", *v)
}

func startYear(year int) string {
	if year <= 0 {
		return "unscheduled"
	}
	return fmt.Sprintf("%d", year)
}
