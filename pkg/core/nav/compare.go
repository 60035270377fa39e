package nav

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"goldval/pkg/models"
)

// PeerRow is one flat record of the peer comparison table, dollar columns in
// millions.
type PeerRow struct {
	Ticker               string   `json:"ticker"`
	Company              string   `json:"company"`
	Price                float64  `json:"price"`
	SharesMillions       float64  `json:"shares_millions"`
	MarketCapMillions    float64  `json:"market_cap_millions"`
	ProjectNAVMillions   float64  `json:"project_nav_millions"`
	CorporateNAVMillions float64  `json:"corporate_nav_millions"`
	NAVPerShare          float64  `json:"nav_per_share"`
	PNAV                 *float64 `json:"p_nav"`
	EVNAV                *float64 `json:"ev_nav"`
	SecondaryNAVMillions float64  `json:"secondary_corporate_nav_millions"`
	SecondaryNAVPerShare float64  `json:"secondary_nav_per_share"`
	SecondaryPNAV        *float64 `json:"secondary_p_nav"`
	ImpliedUpsidePct     float64  `json:"implied_upside_pct"`
	CashMillions         float64  `json:"cash_millions"`
	DebtMillions         float64  `json:"debt_millions"`
	AdjustmentMillions   float64  `json:"adjustment_millions"`
	ModeledProjects      int      `json:"modeled_projects"`
	TotalProjects        int      `json:"total_projects"`
	PNAVPercentile       *float64 `json:"p_nav_percentile,omitempty"`
}

// ProjectRow is one flat record of the project-level drilldown.
type ProjectRow struct {
	Ticker             string  `json:"ticker"`
	Project            string  `json:"project"`
	Stage              string  `json:"stage"`
	Modeled            bool    `json:"modeled"`
	OwnershipPct       float64 `json:"ownership_pct"`
	AnnualProductionOz float64 `json:"annual_production_oz"`
	AISCPerOz          float64 `json:"aisc_per_oz"`
	StartYear          int     `json:"start_year"`
	MineLifeYears      int     `json:"mine_life_years"`
	CapexUsedMillions  float64 `json:"capex_used_millions"`
	StageProbability   float64 `json:"stage_probability"`
	UnriskedMillions   float64 `json:"unrisked_nav_millions"`
	RiskedMillions     float64 `json:"risked_nav_millions"`
}

// PeerStats summarizes the P/NAV distribution over peers with a defined,
// positive multiple.
type PeerStats struct {
	MedianPNAV       *float64 `json:"median_p_nav"`
	MeanPNAV         *float64 `json:"mean_p_nav"`
	CountPositiveNAV int      `json:"count_positive_nav"`
}

// Comparison is the full peer NAV comparison output.
type Comparison struct {
	Rows        []PeerRow               `json:"rows"`
	ProjectRows []ProjectRow            `json:"project_rows"`
	Primary     map[string]CorporateNAV `json:"primary"`
	Secondary   map[string]CorporateNAV `json:"secondary"`
	Stats       PeerStats               `json:"stats"`
	Failures    []models.TickerError    `json:"failures,omitempty"`
}

// CompareCompanies builds the peer comparison at a primary and secondary
// discount rate. A company that cannot be valued is recorded as a failure
// and skipped; the table still covers the rest.
func (m *Model) CompareCompanies(companies []models.Company, goldPrice float64, opts Options) Comparison {
	primaryRate := m.assumptions.DefaultDiscountRate
	if opts.DiscountRate != nil {
		primaryRate = *opts.DiscountRate
	}
	secondaryRate := m.assumptions.SecondaryDiscountRate

	cmp := Comparison{
		Primary:   make(map[string]CorporateNAV, len(companies)),
		Secondary: make(map[string]CorporateNAV, len(companies)),
	}

	for _, c := range companies {
		primary, err := m.CalculateCompanyNAV(c, goldPrice, Options{DiscountRate: &primaryRate, StageRisking: opts.StageRisking})
		if err != nil {
			m.log.Warn().Str("ticker", c.Ticker).Err(err).Msg("nav comparison skipped")
			cmp.Failures = append(cmp.Failures, models.TickerError{Ticker: c.Ticker, Err: err.Error()})
			continue
		}
		secondary, err := m.CalculateCompanyNAV(c, goldPrice, Options{DiscountRate: &secondaryRate, StageRisking: opts.StageRisking})
		if err != nil {
			cmp.Failures = append(cmp.Failures, models.TickerError{Ticker: c.Ticker, Err: err.Error()})
			continue
		}

		cmp.Primary[c.Ticker] = primary
		cmp.Secondary[c.Ticker] = secondary

		cmp.Rows = append(cmp.Rows, PeerRow{
			Ticker:               c.Ticker,
			Company:              primary.Name,
			Price:                primary.CurrentPrice,
			SharesMillions:       primary.SharesOutstanding / 1e6,
			MarketCapMillions:    primary.MarketCap / 1e6,
			ProjectNAVMillions:   primary.ProjectNAVSelected / 1e6,
			CorporateNAVMillions: primary.CorporateNAV / 1e6,
			NAVPerShare:          primary.NAVPerShare,
			PNAV:                 primary.PNAV,
			EVNAV:                primary.EVNAV,
			SecondaryNAVMillions: secondary.CorporateNAV / 1e6,
			SecondaryNAVPerShare: secondary.NAVPerShare,
			SecondaryPNAV:        secondary.PNAV,
			ImpliedUpsidePct:     primary.ImpliedUpsidePct,
			CashMillions:         primary.Cash / 1e6,
			DebtMillions:         primary.Debt / 1e6,
			AdjustmentMillions:   primary.CorporateAdjustment / 1e6,
			ModeledProjects:      primary.ModeledProjects,
			TotalProjects:        primary.TotalProjects,
		})

		for _, p := range primary.Projects {
			cmp.ProjectRows = append(cmp.ProjectRows, ProjectRow{
				Ticker:             c.Ticker,
				Project:            p.Name,
				Stage:              string(p.Stage),
				Modeled:            p.Modeled,
				OwnershipPct:       p.OwnershipPct,
				AnnualProductionOz: p.AnnualProductionOz,
				AISCPerOz:          p.AISCPerOz,
				StartYear:          p.StartYear,
				MineLifeYears:      p.MineLifeYears,
				CapexUsedMillions:  p.CapexUsed / 1e6,
				StageProbability:   p.StageProbability,
				UnriskedMillions:   p.UnriskedNAV / 1e6,
				RiskedMillions:     p.RiskedNAV / 1e6,
			})
		}
	}

	cmp.Stats = m.peerStats(cmp.Rows)
	return cmp
}

// peerStats computes median/mean P/NAV over defined positive multiples and
// annotates each qualifying row with a min-rank percentile, lower meaning
// cheaper against NAV.
func (m *Model) peerStats(rows []PeerRow) PeerStats {
	var valid []float64
	for _, r := range rows {
		if r.PNAV != nil && *r.PNAV > 0 {
			valid = append(valid, *r.PNAV)
		}
	}
	stats := PeerStats{CountPositiveNAV: len(valid)}
	if len(valid) == 0 {
		return stats
	}

	sorted := append([]float64(nil), valid...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	mean := stat.Mean(valid, nil)
	stats.MedianPNAV = &median
	stats.MeanPNAV = &mean

	n := float64(len(valid))
	for i := range rows {
		r := &rows[i]
		if r.PNAV == nil || *r.PNAV <= 0 {
			continue
		}
		below := 0
		for _, v := range valid {
			if v < *r.PNAV {
				below++
			}
		}
		pct := float64(below+1) / n * 100
		r.PNAVPercentile = &pct
	}
	return stats
}
