package marketdata

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"goldval/pkg/config"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

// Normalizer merges static configuration with live market data into the
// standard company record every engine consumes.
type Normalizer struct {
	cfg      *config.Config
	client   *Client
	asOfYear int
	log      zerolog.Logger
}

// NewNormalizer builds a normalizer. asOfYear anchors years-to-production so
// derived records are reproducible in tests.
func NewNormalizer(cfg *config.Config, client *Client, asOfYear int) *Normalizer {
	return &Normalizer{
		cfg:      cfg,
		client:   client,
		asOfYear: asOfYear,
		log:      logging.ForComponent("normalizer"),
	}
}

// projectFromConfig converts a configured project (millions-denominated) to
// engine parameters in dollars.
func projectFromConfig(p config.ProjectConfig) models.ProjectParameters {
	ownership := p.OwnershipPct
	if ownership == 0 {
		ownership = 100
	}
	return models.ProjectParameters{
		Name:               p.Name,
		AnnualProductionOz: p.AnnualProductionOz,
		AISCPerOz:          p.AISCPerOz,
		InitialCapex:       p.InitialCapexMillions * 1e6,
		StartYear:          p.ProductionStartYear,
		MineLifeYears:      p.MineLifeYears,
		LifeOfMineGoldOz:   p.LifeOfMineGoldOz,
		Stage:              models.Stage(p.Stage),
		OwnershipPct:       ownership,
		Jurisdiction:       p.Jurisdiction,
		GradeGramsPerTonne: p.GradeGPerT,
		RecoveryRatePct:    p.RecoveryRate,
	}
}

// Company builds the normalized record for one ticker. An unconfigured
// ticker is a MissingDataError so batch callers can degrade gracefully.
func (n *Normalizer) Company(ctx context.Context, ticker string) (models.Company, error) {
	cc, ok := n.cfg.Companies.Companies[ticker]
	if !ok {
		return models.Company{}, &models.MissingDataError{Ticker: ticker, Reason: "no configuration found"}
	}

	quote, err := n.client.GetQuote(ctx, ticker)
	if err != nil {
		return models.Company{}, &models.MissingDataError{Ticker: ticker, Reason: err.Error()}
	}
	cash, err := n.client.GetCashPosition(ctx, ticker)
	if err != nil {
		n.log.Warn().Str("ticker", ticker).Err(err).Msg("cash position unavailable, proceeding without")
	}

	// Deterministic primary project: first configured key in sorted order.
	keys := make([]string, 0, len(cc.Projects))
	for k := range cc.Projects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var primary models.ProjectParameters
	projects := make([]models.ProjectParameters, 0, len(keys))
	for i, k := range keys {
		p := projectFromConfig(cc.Projects[k])
		projects = append(projects, p)
		if i == 0 {
			primary = p
		}
	}

	name := cc.Name
	if name == "" {
		name = quote.Name
	}
	exchange := cc.Exchange
	if exchange == "" {
		exchange = quote.Exchange
	}

	c := models.Company{
		Ticker:   ticker,
		Name:     name,
		Exchange: exchange,
		Project:  primary,
		Projects: projects,
		Market: models.MarketData{
			CurrentPrice:      quote.CurrentPrice,
			PreviousClose:     quote.PreviousClose,
			DailyChangePct:    quote.DailyChangePct,
			MarketCap:         quote.MarketCap,
			SharesOutstanding: quote.SharesOutstanding,
			FloatShares:       quote.FloatShares,
			FiftyTwoWeekHigh:  quote.FiftyTwoWeekHigh,
			FiftyTwoWeekLow:   quote.FiftyTwoWeekLow,
			Volume:            quote.Volume,
			Beta:              quote.Beta,
		},
		Cash: models.CashData{
			CashAndEquivalents:   cash.CashAndEquivalents,
			ShortTermInvestments: cash.ShortTermInvestments,
			TotalCash:            cash.TotalCash,
			TotalDebt:            cash.TotalDebt,
			NetCash:              cash.NetCash,
			QuarterlyBurn:        cash.QuarterlyBurn,
			RunwayMonths:         cash.RunwayMonths,
			HistoricalCash:       cash.HistoricalCash,
		},
		ControlFactor: cc.ControlFactor,
		Notes:         cc.Notes,
	}

	for _, r := range cc.KnownRaises {
		c.KnownRaises = append(c.KnownRaises, models.KnownRaise{
			Date:     r.Date,
			Type:     r.Type,
			Proceeds: r.ProceedsMillions * 1e6,
			Status:   r.Status,
		})
	}
	for _, f := range cc.StrategicFinancing {
		c.Financing = append(c.Financing, models.StrategicFinancing{
			Partner:         f.Partner,
			CommittedAmount: f.CommittedMillions * 1e6,
			Kind:            f.Kind,
		})
	}

	c.Calculated = n.derive(c)
	n.log.Debug().Str("ticker", ticker).Msg("company normalized")
	return c, nil
}

// derive computes the shared figures every engine reads, once.
func (n *Normalizer) derive(c models.Company) models.CalculatedData {
	d := models.CalculatedData{
		EnterpriseValue: c.Market.MarketCap + c.Cash.TotalDebt - c.Cash.TotalCash,
	}
	if years := c.Project.StartYear - n.asOfYear; years > 0 {
		d.YearsToProduction = years
	}
	totalCash := c.Cash.TotalCash
	if totalCash < 1 {
		totalCash = 1
	}
	d.CapexVsCash = c.Project.InitialCapex / totalCash
	if gap := c.Project.InitialCapex - c.Cash.TotalCash; gap > 0 {
		d.FundingGap = gap
	}
	return d
}

// AllCompanies normalizes every configured ticker, collecting per-ticker
// failures instead of aborting the batch.
func (n *Normalizer) AllCompanies(ctx context.Context) ([]models.Company, []models.TickerError) {
	tickers := n.cfg.Companies.Tickers()
	sort.Strings(tickers)

	companies := make([]models.Company, 0, len(tickers))
	var failures []models.TickerError
	for _, t := range tickers {
		c, err := n.Company(ctx, t)
		if err != nil {
			failures = append(failures, models.TickerError{Ticker: t, Err: err.Error()})
			continue
		}
		companies = append(companies, c)
	}
	n.log.Info().Int("companies", len(companies)).Int("failures", len(failures)).Msg("universe normalized")
	return companies, failures
}
