// Package config loads the YAML configuration the engines are constructed
// with: the company universe, valuation assumptions, risk weights, and the
// control benchmark. Components never read config ambiently; everything is
// injected through constructors.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Settings holds runtime settings sourced from the environment.
type Settings struct {
	Addr            string `envconfig:"ADDR" default:":8080"`
	ConfigDir       string `envconfig:"CONFIG_DIR" default:"config"`
	CacheDir        string `envconfig:"CACHE_DIR" default:".cache/marketdata"`
	CacheTTLMinutes int    `envconfig:"CACHE_TTL_MINUTES" default:"15"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	ReportDir       string `envconfig:"REPORT_DIR" default:"reports"`
}

// LoadSettings reads runtime settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return s, fmt.Errorf("failed to process environment settings: %w", err)
	}
	return s, nil
}

// ProjectConfig describes one mining project as configured per company.
// Dollar figures are in millions, matching how technical reports quote them.
type ProjectConfig struct {
	Name                 string  `yaml:"name"`
	Type                 string  `yaml:"type"`
	AnnualProductionOz   float64 `yaml:"annual_production_oz" validate:"gte=0"`
	AISCPerOz            float64 `yaml:"aisc_per_oz" validate:"gte=0"`
	MineLifeYears        int     `yaml:"mine_life_years" validate:"gte=0"`
	LifeOfMineGoldOz     float64 `yaml:"life_of_mine_gold_oz" validate:"gte=0"`
	InitialCapexMillions float64 `yaml:"initial_capex_millions" validate:"gte=0"`
	ProductionStartYear  int     `yaml:"production_start_year"`
	Stage                string  `yaml:"stage"`
	OwnershipPct         float64 `yaml:"ownership_pct" validate:"gte=0,lte=100"`
	Jurisdiction         string  `yaml:"jurisdiction"`
	GradeGPerT           float64 `yaml:"grade_g_per_t"`
	RecoveryRate         float64 `yaml:"recovery_rate"`
}

// RaiseConfig records a known financing event.
type RaiseConfig struct {
	Date             string  `yaml:"date"`
	Type             string  `yaml:"type"`
	ProceedsMillions float64 `yaml:"proceeds_millions"`
	Status           string  `yaml:"status"`
}

// FinancingConfig records a committed strategic financing backstop.
type FinancingConfig struct {
	Partner           string  `yaml:"partner"`
	CommittedMillions float64 `yaml:"committed_millions"`
	Kind              string  `yaml:"kind"`
}

// CompanyConfig is the static configuration of one ticker.
type CompanyConfig struct {
	Name               string                   `yaml:"name"`
	Exchange           string                   `yaml:"exchange"`
	Description        string                   `yaml:"description"`
	ControlFactor      float64                  `yaml:"control_factor"`
	Projects           map[string]ProjectConfig `yaml:"projects"`
	KnownRaises        []RaiseConfig            `yaml:"known_raises"`
	StrategicFinancing []FinancingConfig        `yaml:"strategic_financing"`
	Notes              string                   `yaml:"notes"`
}

// Companies is the configured ticker universe.
type Companies struct {
	Companies map[string]CompanyConfig `yaml:"companies"`
}

// Tickers returns the configured tickers in map order; callers sort when
// ordering matters.
func (c Companies) Tickers() []string {
	out := make([]string, 0, len(c.Companies))
	for t := range c.Companies {
		out = append(out, t)
	}
	return out
}

// ScenarioDef is one gold price scenario in a probability distribution.
type ScenarioDef struct {
	Price       float64 `yaml:"price" validate:"gt=0"`
	Probability float64 `yaml:"probability" validate:"gte=0,lte=1"`
	Label       string  `yaml:"label"`
}

// CorporateAdjustment is the per-ticker NAV bridge adjustment, in millions.
type CorporateAdjustment struct {
	NonOperatingAssetsMillions       float64 `yaml:"non_operating_assets_millions"`
	OtherLiabilitiesMillions         float64 `yaml:"other_liabilities_millions"`
	EnvironmentalLiabilitiesMillions float64 `yaml:"environmental_liabilities_millions"`
	StreamRoyaltyBurdenMillions      float64 `yaml:"stream_royalty_burden_millions"`
}

// Net returns the signed bridge adjustment in dollars.
func (a CorporateAdjustment) Net() float64 {
	return (a.NonOperatingAssetsMillions -
		a.OtherLiabilitiesMillions -
		a.EnvironmentalLiabilitiesMillions -
		a.StreamRoyaltyBurdenMillions) * 1e6
}

// NAVAssumptions configures the corporate NAV model. The three booleans are
// pointers so an absent key defaults to true while an explicit false sticks.
type NAVAssumptions struct {
	DefaultDiscountRate          float64                        `yaml:"default_discount_rate"`
	SecondaryDiscountRate        float64                        `yaml:"secondary_discount_rate"`
	UseStageRisking              *bool                          `yaml:"use_stage_risking"`
	RiskPositiveNPVOnly          *bool                          `yaml:"risk_positive_npv_only"`
	ExcludeSunkCapexForProducers *bool                          `yaml:"exclude_sunk_capex_for_producers"`
	DefaultStageProbability      float64                        `yaml:"default_stage_probability"`
	StageProbabilities           map[string]float64             `yaml:"stage_probabilities"`
	CorporateAdjustments         map[string]CorporateAdjustment `yaml:"corporate_adjustments"`
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// StageRisking reports whether project NAVs are probability-weighted by stage.
func (n NAVAssumptions) StageRisking() bool { return boolOr(n.UseStageRisking, true) }

// PositiveNPVOnly reports whether only positive NAV is risk-weighted.
func (n NAVAssumptions) PositiveNPVOnly() bool { return boolOr(n.RiskPositiveNPVOnly, true) }

// ExcludeSunkCapex reports whether producers get their capex zeroed out.
func (n NAVAssumptions) ExcludeSunkCapex() bool {
	return boolOr(n.ExcludeSunkCapexForProducers, true)
}

// Assumptions is the valuation assumption set.
type Assumptions struct {
	TaxRate            float64                `yaml:"tax_rate"`
	RiskAversion       float64                `yaml:"risk_aversion"`
	FallbackGoldPrice  float64                `yaml:"fallback_gold_price"`
	GoldPriceScenarios map[string]ScenarioDef `yaml:"gold_price_scenarios"`
	NAVModel           NAVAssumptions         `yaml:"nav_model"`
}

// BandThresholds are descending risk-band cutoffs for a numeric input.
type BandThresholds struct {
	Critical float64 `yaml:"critical"`
	High     float64 `yaml:"high"`
	Moderate float64 `yaml:"moderate"`
	Low      float64 `yaml:"low"`
}

// RiskConfig configures the composite risk scorer.
type RiskConfig struct {
	Categories struct {
		Funding struct {
			Weight     float64 `yaml:"weight"`
			Thresholds struct {
				RunwayMonths BandThresholds `yaml:"runway_months"`
			} `yaml:"thresholds"`
		} `yaml:"funding"`
		Execution struct {
			Weight      float64        `yaml:"weight"`
			StageScores map[string]int `yaml:"stage_scores"`
		} `yaml:"execution"`
		Commodity struct {
			Weight     float64 `yaml:"weight"`
			Thresholds struct {
				AISC BandThresholds `yaml:"aisc"`
			} `yaml:"thresholds"`
		} `yaml:"commodity"`
		Control struct {
			Weight float64 `yaml:"weight"`
		} `yaml:"control"`
		Timing struct {
			Weight     float64 `yaml:"weight"`
			Thresholds struct {
				YearsToProduction BandThresholds `yaml:"years_to_production"`
			} `yaml:"thresholds"`
		} `yaml:"timing"`
	} `yaml:"categories"`
	CompanyOverrides map[string]struct {
		Control int `yaml:"control"`
	} `yaml:"company_overrides"`
}

// WeightSum returns the sum of the five category weights.
func (r RiskConfig) WeightSum() float64 {
	c := r.Categories
	return c.Funding.Weight + c.Execution.Weight + c.Commodity.Weight +
		c.Control.Weight + c.Timing.Weight
}

// AltBenchmark describes an alternative investment benchmark.
type AltBenchmark struct {
	Name           string  `yaml:"name"`
	ExpectedReturn float64 `yaml:"expected_return"`
	Volatility     float64 `yaml:"volatility"`
	LeverageToGold float64 `yaml:"leverage_to_gold"`
}

// BenchmarksConfig configures the control-investment benchmark model.
type BenchmarksConfig struct {
	SelfStorage struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Returns     struct {
			IRR             float64 `yaml:"irr"`
			CashOnCashYear1 float64 `yaml:"cash_on_cash_year1"`
			StabilizedYield float64 `yaml:"stabilized_yield"`
		} `yaml:"returns"`
		Timeline struct {
			DevelopmentMonths    int `yaml:"development_months"`
			LeaseUpMonths        int `yaml:"lease_up_months"`
			TotalToStabilization int `yaml:"total_to_stabilization"`
			HoldPeriodYears      int `yaml:"hold_period_years"`
		} `yaml:"timeline"`
	} `yaml:"self_storage"`
	ControlFactors struct {
		Base float64 `yaml:"base"`
	} `yaml:"control_factors"`
	HurdleRates struct {
		MinimumAdjustedReturn      float64 `yaml:"minimum_adjusted_return"`
		MinimumRawReturn           float64 `yaml:"minimum_raw_return"`
		MaximumAcceptableRiskScore float64 `yaml:"maximum_acceptable_risk_score"`
	} `yaml:"hurdle_rates"`
	AlternativeBenchmarks map[string]AltBenchmark `yaml:"alternative_benchmarks"`
}

// Config bundles everything loaded from the config directory.
type Config struct {
	Companies   Companies
	Assumptions Assumptions
	Risk        RiskConfig
	Benchmarks  BenchmarksConfig
}

const weightTolerance = 1e-9

// Load reads and validates all configuration files under dir.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	if err := readYAML(filepath.Join(dir, "companies.yaml"), &cfg.Companies); err != nil {
		return nil, err
	}
	if err := readYAML(filepath.Join(dir, "assumptions.yaml"), &cfg.Assumptions); err != nil {
		return nil, err
	}
	if err := readYAML(filepath.Join(dir, "risk_weights.yaml"), &cfg.Risk); err != nil {
		return nil, err
	}
	if err := readYAML(filepath.Join(dir, "benchmarks.yaml"), &cfg.Benchmarks); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Validate checks structural constraints: weights summing to 1.0, scenario
// fields in range, project fields non-negative.
func (c *Config) Validate() error {
	v := validator.New()

	for ticker, company := range c.Companies.Companies {
		for key, project := range company.Projects {
			if err := v.Struct(project); err != nil {
				return fmt.Errorf("invalid project %s/%s: %w", ticker, key, err)
			}
		}
	}
	for name, def := range c.Assumptions.GoldPriceScenarios {
		if err := v.Struct(def); err != nil {
			return fmt.Errorf("invalid scenario %q: %w", name, err)
		}
	}

	if sum := c.Risk.WeightSum(); math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("risk category weights must sum to 1.0, got %.4f", sum)
	}
	return nil
}
