// Package models defines the plain data records exchanged between the
// ingestion layer and the valuation/risk engines.
package models

// Stage identifies where a project sits on the development curve.
type Stage string

const (
	StageExploration  Stage = "exploration"
	StagePEA          Stage = "pea"
	StagePFS          Stage = "pfs"
	StageFS           Stage = "fs"
	StagePermitting   Stage = "permitting"
	StageConstruction Stage = "construction"
	StageProduction   Stage = "production"
)

// Valid reports whether the stage is one of the known development stages.
func (s Stage) Valid() bool {
	switch s {
	case StageExploration, StagePEA, StagePFS, StageFS,
		StagePermitting, StageConstruction, StageProduction:
		return true
	}
	return false
}

// ProjectParameters is the immutable per-calculation input for a single
// mining project. Constructed fresh for each valuation call, never mutated.
type ProjectParameters struct {
	Name               string  `json:"name"`
	AnnualProductionOz float64 `json:"annual_production_oz"`
	AISCPerOz          float64 `json:"aisc_per_oz"`
	InitialCapex       float64 `json:"initial_capex"`
	StartYear          int     `json:"start_year"`
	MineLifeYears      int     `json:"mine_life_years"`
	LifeOfMineGoldOz   float64 `json:"life_of_mine_gold_oz"`
	Stage              Stage   `json:"stage"`
	OwnershipPct       float64 `json:"ownership_pct"`
	Jurisdiction       string  `json:"jurisdiction"`
	GradeGramsPerTonne float64 `json:"grade_g_per_t"`
	RecoveryRatePct    float64 `json:"recovery_rate"`
}

// MarketData is the live market slice of a company record.
type MarketData struct {
	CurrentPrice      float64 `json:"current_price"`
	PreviousClose     float64 `json:"previous_close"`
	DailyChangePct    float64 `json:"daily_change_pct"`
	MarketCap         float64 `json:"market_cap"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	FloatShares       float64 `json:"float_shares"`
	FiftyTwoWeekHigh  float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow   float64 `json:"fifty_two_week_low"`
	Volume            float64 `json:"volume"`
	Beta              float64 `json:"beta"`
}

// CashData is the balance-sheet slice of a company record.
type CashData struct {
	CashAndEquivalents   float64   `json:"cash_and_equivalents"`
	ShortTermInvestments float64   `json:"short_term_investments"`
	TotalCash            float64   `json:"total_cash"`
	TotalDebt            float64   `json:"total_debt"`
	NetCash              float64   `json:"net_cash"`
	QuarterlyBurn        float64   `json:"quarterly_burn"`
	RunwayMonths         float64   `json:"runway_months"`
	HistoricalCash       []float64 `json:"historical_cash,omitempty"` // most recent first
}

// CalculatedData holds derived figures the normalizer computes once so every
// engine sees the same numbers.
type CalculatedData struct {
	EnterpriseValue   float64 `json:"enterprise_value"`
	YearsToProduction int     `json:"years_to_production"`
	FundingGap        float64 `json:"funding_gap"`
	CapexVsCash       float64 `json:"capex_vs_cash"`
}

// KnownRaise records a completed or announced financing.
type KnownRaise struct {
	Date     string  `json:"date"`
	Type     string  `json:"type"` // equity, debt, stream, royalty
	Proceeds float64 `json:"proceeds"`
	Status   string  `json:"status"` // completed, closed, announced
}

// Completed reports whether the raise proceeds are already in hand.
func (r KnownRaise) Completed() bool {
	return r.Status == "completed" || r.Status == "closed"
}

// StrategicFinancing describes a committed non-dilutive funding backstop.
type StrategicFinancing struct {
	Partner         string  `json:"partner"`
	CommittedAmount float64 `json:"committed_amount"`
	Kind            string  `json:"kind"` // debt, stream, offtake
}

// Company is the normalized per-company record every engine consumes:
// static config merged with a point-in-time market snapshot.
type Company struct {
	Ticker        string               `json:"ticker"`
	Name          string               `json:"name"`
	Exchange      string               `json:"exchange"`
	Project       ProjectParameters    `json:"project"` // primary project
	Projects      []ProjectParameters  `json:"projects,omitempty"`
	Market        MarketData           `json:"market"`
	Cash          CashData             `json:"cash"`
	Calculated    CalculatedData       `json:"calculated"`
	ControlFactor float64              `json:"control_factor"`
	KnownRaises   []KnownRaise         `json:"known_raises,omitempty"`
	Financing     []StrategicFinancing `json:"strategic_financing,omitempty"`
	Notes         string               `json:"notes,omitempty"`
}

// TickerError is the partial-failure record batch comparisons emit instead of
// aborting when one ticker cannot be resolved.
type TickerError struct {
	Ticker string `json:"ticker"`
	Err    string `json:"error"`
}
