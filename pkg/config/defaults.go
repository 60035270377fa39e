package config

// Default values mirror the institutional reference assumptions the model
// shipped with; config files override them field by field.

func (c *Config) applyDefaults() {
	a := &c.Assumptions
	if a.TaxRate == 0 {
		a.TaxRate = 0.25
	}
	if a.RiskAversion == 0 {
		a.RiskAversion = 0.5
	}
	if a.FallbackGoldPrice == 0 {
		a.FallbackGoldPrice = 2100
	}
	if len(a.GoldPriceScenarios) == 0 {
		a.GoldPriceScenarios = map[string]ScenarioDef{
			"bear":       {Price: 1800, Probability: 0.20, Label: "Bear"},
			"base":       {Price: 2100, Probability: 0.50, Label: "Base"},
			"bull":       {Price: 2500, Probability: 0.25, Label: "Bull"},
			"super_bull": {Price: 3000, Probability: 0.05, Label: "Super Bull"},
		}
	}

	n := &a.NAVModel
	if n.DefaultDiscountRate == 0 {
		n.DefaultDiscountRate = 0.08
	}
	if n.SecondaryDiscountRate == 0 {
		n.SecondaryDiscountRate = 0.05
	}
	if n.DefaultStageProbability == 0 {
		n.DefaultStageProbability = 0.5
	}
	if len(n.StageProbabilities) == 0 {
		n.StageProbabilities = map[string]float64{
			"exploration":  0.25,
			"pea":          0.35,
			"pfs":          0.50,
			"fs":           0.65,
			"permitting":   0.60,
			"construction": 0.80,
			"production":   1.00,
		}
	}

	r := &c.Risk
	if r.WeightSum() == 0 {
		r.Categories.Funding.Weight = 0.25
		r.Categories.Execution.Weight = 0.25
		r.Categories.Commodity.Weight = 0.20
		r.Categories.Control.Weight = 0.15
		r.Categories.Timing.Weight = 0.15
	}
	if r.Categories.Funding.Thresholds.RunwayMonths == (BandThresholds{}) {
		r.Categories.Funding.Thresholds.RunwayMonths = BandThresholds{
			Critical: 6, High: 12, Moderate: 18, Low: 24,
		}
	}
	if len(r.Categories.Execution.StageScores) == 0 {
		r.Categories.Execution.StageScores = map[string]int{
			"exploration":  1,
			"pea":          2,
			"pfs":          3,
			"fs":           3,
			"permitting":   3,
			"construction": 4,
			"production":   5,
		}
	}
	if r.Categories.Commodity.Thresholds.AISC == (BandThresholds{}) {
		r.Categories.Commodity.Thresholds.AISC = BandThresholds{
			Critical: 1600, High: 1400, Moderate: 1200, Low: 1000,
		}
	}
	if r.Categories.Timing.Thresholds.YearsToProduction == (BandThresholds{}) {
		r.Categories.Timing.Thresholds.YearsToProduction = BandThresholds{
			Critical: 5, High: 4, Moderate: 3, Low: 2,
		}
	}

	b := &c.Benchmarks
	if b.SelfStorage.Name == "" {
		b.SelfStorage.Name = "Self-Storage Development"
	}
	if b.SelfStorage.Returns.IRR == 0 {
		b.SelfStorage.Returns.IRR = 0.18
	}
	if b.SelfStorage.Returns.CashOnCashYear1 == 0 {
		b.SelfStorage.Returns.CashOnCashYear1 = 0.08
	}
	if b.SelfStorage.Returns.StabilizedYield == 0 {
		b.SelfStorage.Returns.StabilizedYield = 0.12
	}
	if b.SelfStorage.Timeline.DevelopmentMonths == 0 {
		b.SelfStorage.Timeline.DevelopmentMonths = 18
	}
	if b.SelfStorage.Timeline.LeaseUpMonths == 0 {
		b.SelfStorage.Timeline.LeaseUpMonths = 12
	}
	if b.SelfStorage.Timeline.TotalToStabilization == 0 {
		b.SelfStorage.Timeline.TotalToStabilization = 30
	}
	if b.SelfStorage.Timeline.HoldPeriodYears == 0 {
		b.SelfStorage.Timeline.HoldPeriodYears = 5
	}
	if b.ControlFactors.Base == 0 {
		b.ControlFactors.Base = 0.25
	}
	if b.HurdleRates.MinimumAdjustedReturn == 0 {
		b.HurdleRates.MinimumAdjustedReturn = 0.15
	}
	if b.HurdleRates.MinimumRawReturn == 0 {
		b.HurdleRates.MinimumRawReturn = 0.25
	}
	if b.HurdleRates.MaximumAcceptableRiskScore == 0 {
		b.HurdleRates.MaximumAcceptableRiskScore = 2.0
	}
}
