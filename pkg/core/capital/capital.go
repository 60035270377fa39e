// Package capital derives balance-sheet health metrics: cash runway with
// risk banding, burn trend, leverage, funding gap, and the share-count
// impact of a discounted equity offering.
package capital

import (
	"github.com/rs/zerolog"

	"goldval/pkg/config"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

// RunwayBand is the risk band a cash runway falls into.
type RunwayBand struct {
	Level string `json:"level"` // critical, high, moderate, low, minimal
	Score int    `json:"score"` // 1 (critical) to 5 (minimal)
}

// CashAnalysis summarizes liquidity for one company.
type CashAnalysis struct {
	TotalCash     float64    `json:"total_cash"`
	QuarterlyBurn float64    `json:"quarterly_burn"`
	RunwayMonths  float64    `json:"runway_months"`
	Band          RunwayBand `json:"band"`
	BurnTrend     string     `json:"burn_trend"` // decreasing, increasing, stable
	FundingGap    float64    `json:"funding_gap"`
}

// StructureAnalysis summarizes leverage for one company.
type StructureAnalysis struct {
	MarketCap       float64 `json:"market_cap"`
	TotalCash       float64 `json:"total_cash"`
	TotalDebt       float64 `json:"total_debt"`
	NetCash         float64 `json:"net_cash"`
	EnterpriseValue float64 `json:"enterprise_value"`
	DebtToEquity    float64 `json:"debt_to_equity"`
	CashPctOfCap    float64 `json:"cash_pct_of_cap"`
}

// OfferingImpact is the dilution arithmetic of one discounted equity raise.
type OfferingImpact struct {
	RaiseAmount   float64 `json:"raise_amount"`
	IssuePrice    float64 `json:"issue_price"`
	NewShares     float64 `json:"new_shares"`
	PostShares    float64 `json:"post_shares"`
	DilutionPct   float64 `json:"dilution_pct"`
	OwnershipPost float64 `json:"ownership_post"`
}

// Analyzer applies configured runway thresholds to raw balance-sheet data.
type Analyzer struct {
	thresholds config.BandThresholds
	log        zerolog.Logger
}

// NewAnalyzer builds an analyzer with the configured runway bands.
func NewAnalyzer(thresholds config.BandThresholds) *Analyzer {
	return &Analyzer{thresholds: thresholds, log: logging.ForComponent("capital")}
}

// RunwayMonths converts cash and quarterly burn to months of runway. A
// non-positive burn means the company is not consuming cash; runway is
// reported as zero rather than infinite.
func (a *Analyzer) RunwayMonths(totalCash, quarterlyBurn float64) float64 {
	if quarterlyBurn <= 0 {
		return 0
	}
	return totalCash / quarterlyBurn * 3
}

// BandForRunway buckets a runway into the configured risk bands.
func (a *Analyzer) BandForRunway(runwayMonths float64) RunwayBand {
	t := a.thresholds
	switch {
	case runwayMonths < t.Critical:
		return RunwayBand{Level: "critical", Score: 1}
	case runwayMonths < t.High:
		return RunwayBand{Level: "high", Score: 2}
	case runwayMonths < t.Moderate:
		return RunwayBand{Level: "moderate", Score: 3}
	case runwayMonths < t.Low:
		return RunwayBand{Level: "low", Score: 4}
	default:
		return RunwayBand{Level: "minimal", Score: 5}
	}
}

// BurnTrend classifies the direction of sequential cash balances, most
// recent first. Cash falling on average is a burn (decreasing); rising
// means raises outpaced spend.
func (a *Analyzer) BurnTrend(historical []float64) string {
	if len(historical) < 2 {
		return "stable"
	}
	var sum float64
	for i := 0; i < len(historical)-1; i++ {
		sum += historical[i] - historical[i+1]
	}
	avg := sum / float64(len(historical)-1)
	switch {
	case avg < 0:
		return "decreasing"
	case avg > 0:
		return "increasing"
	default:
		return "stable"
	}
}

// AnalyzeCashPosition derives the full liquidity picture for one company
// against its remaining capex requirement.
func (a *Analyzer) AnalyzeCashPosition(cash models.CashData, capexRequired float64) CashAnalysis {
	runway := a.RunwayMonths(cash.TotalCash, cash.QuarterlyBurn)
	gap := capexRequired - cash.TotalCash
	if gap < 0 {
		gap = 0
	}
	analysis := CashAnalysis{
		TotalCash:     cash.TotalCash,
		QuarterlyBurn: cash.QuarterlyBurn,
		RunwayMonths:  runway,
		Band:          a.BandForRunway(runway),
		BurnTrend:     a.BurnTrend(cash.HistoricalCash),
		FundingGap:    gap,
	}
	a.log.Debug().
		Float64("runway_months", runway).
		Str("band", analysis.Band.Level).
		Msg("cash position analyzed")
	return analysis
}

// AnalyzeStructure derives leverage metrics from a market snapshot.
func (a *Analyzer) AnalyzeStructure(market models.MarketData, cash models.CashData) StructureAnalysis {
	s := StructureAnalysis{
		MarketCap:       market.MarketCap,
		TotalCash:       cash.TotalCash,
		TotalDebt:       cash.TotalDebt,
		NetCash:         cash.TotalCash - cash.TotalDebt,
		EnterpriseValue: market.MarketCap + cash.TotalDebt - cash.TotalCash,
	}
	if market.MarketCap > 0 {
		s.DebtToEquity = cash.TotalDebt / market.MarketCap
		s.CashPctOfCap = cash.TotalCash / market.MarketCap * 100
	}
	return s
}

// ModelOffering computes the share-count impact of raising raiseAmount at a
// discount to the current market price. A zero discount selects the standard
// 10 percent placement discount.
func (a *Analyzer) ModelOffering(raiseAmount, currentShares, currentPrice, discountPct float64) (OfferingImpact, error) {
	if currentShares <= 0 {
		return OfferingImpact{}, &models.InvalidParameterError{Param: "current_shares", Value: currentShares}
	}
	if discountPct == 0 {
		discountPct = 10
	}
	issuePrice := currentPrice * (1 - discountPct/100)
	if issuePrice <= 0 {
		return OfferingImpact{}, &models.InvalidParameterError{Param: "issue_price", Value: issuePrice}
	}
	newShares := raiseAmount / issuePrice
	postShares := currentShares + newShares
	return OfferingImpact{
		RaiseAmount:   raiseAmount,
		IssuePrice:    issuePrice,
		NewShares:     newShares,
		PostShares:    postShares,
		DilutionPct:   newShares / currentShares * 100,
		OwnershipPost: currentShares / postShares * 100,
	}, nil
}
