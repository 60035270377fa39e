// The screener runs the full valuation and risk stack over the configured
// universe in one shot and writes the investment memo to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"goldval/pkg/config"
	"goldval/pkg/core/benchmark"
	"goldval/pkg/core/capital"
	"goldval/pkg/core/dcf"
	"goldval/pkg/core/dilution"
	"goldval/pkg/core/marketdata"
	"goldval/pkg/core/metrics"
	"goldval/pkg/core/nav"
	"goldval/pkg/core/report"
	"goldval/pkg/core/risk"
	"goldval/pkg/core/scenario"
	"goldval/pkg/core/store"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

func main() {
	godotenv.Load()

	var (
		configDir = flag.String("config", "config", "configuration directory")
		outDir    = flag.String("out", "reports", "report output directory")
		rate      = flag.Float64("rate", 0, "discount rate override (0 uses the configured default)")
		tickers   = flag.String("tickers", "", "comma-separated ticker subset (default: all configured)")
		saveRuns  = flag.Bool("save", false, "persist valuation snapshots to the configured database")
		logLevel  = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logging.Initialize(*logLevel)
	log := logging.ForComponent("screener")

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *configDir).Msg("failed to load configuration")
	}

	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load settings")
	}

	discountRate := *rate
	if discountRate == 0 {
		discountRate = cfg.Assumptions.NAVModel.DefaultDiscountRate
	}

	ctx := context.Background()
	cache := marketdata.NewCache(settings.CacheDir, time.Duration(settings.CacheTTLMinutes)*time.Minute)
	client := marketdata.NewClient(cache)
	normalizer := marketdata.NewNormalizer(cfg, client, time.Now().Year())

	companies, failures := loadCompanies(ctx, normalizer, *tickers)
	for _, f := range failures {
		log.Warn().Str("ticker", f.Ticker).Str("error", f.Err).Msg("ticker skipped")
	}
	if len(companies) == 0 {
		log.Fatal().Msg("no companies resolved, nothing to screen")
	}

	gold := client.GetGoldPrice(ctx, cfg.Assumptions.FallbackGoldPrice)
	log.Info().Float64("gold", gold.Price).Int("companies", len(companies)).Msg("screening universe")

	calc := dcf.NewCalculator(cfg.Assumptions.TaxRate, time.Now().Year())
	analyzer := scenario.NewAnalyzer(calc, cfg.Assumptions.RiskAversion)
	set := scenario.SetFromConfig(cfg.Assumptions.GoldPriceScenarios)
	scorer := risk.NewScorer(cfg.Risk)
	navModel := nav.NewModel(calc, cfg.Assumptions.NAVModel)
	benchCalc := benchmark.NewCalculator(analyzer, set, cfg.Benchmarks)
	metricsCalc := metrics.NewCalculator(
		capital.NewAnalyzer(cfg.Risk.Categories.Funding.Thresholds.RunwayMonths),
		dilution.NewModeler(),
	)

	var snapshots *store.SnapshotRepo
	if *saveRuns {
		if err := store.InitDB(ctx, settings.DatabaseURL); err != nil {
			log.Warn().Err(err).Msg("database unavailable, snapshots disabled")
		} else {
			snapshots = store.NewSnapshotRepo()
			defer store.Close()
		}
	}

	in := report.Input{GeneratedAt: time.Now(), Gold: gold}
	navOpts := nav.Options{}
	if *rate > 0 {
		navOpts.DiscountRate = rate
	}
	in.NAV = navModel.CompareCompanies(companies, gold.Price, navOpts)
	for _, f := range in.NAV.Failures {
		log.Warn().Str("ticker", f.Ticker).Str("error", f.Err).Msg("nav comparison skipped ticker")
	}
	_, in.RiskRanking = scorer.CompareCompanies(companies)
	for _, c := range companies {
		section := report.CompanySection{Risk: scorer.CalculateComposite(c)}

		bundle, err := metricsCalc.AllMetrics(c, gold)
		if err != nil {
			log.Warn().Str("ticker", c.Ticker).Err(err).Msg("company skipped")
			continue
		}
		section.Metrics = bundle

		if m, err := calc.ProjectMetrics(dcf.InputsFromProject(c.Project, gold.Price, discountRate)); err == nil {
			section.Valuation = &m
		}
		if ret, err := benchCalc.CalculateAdjustedReturn(c, discountRate, nil); err == nil {
			section.Return = &ret
		}
		in.Companies = append(in.Companies, section)

		if snapshots != nil {
			if _, err := snapshots.Save(ctx, c.Ticker, gold.Price, section); err != nil {
				log.Warn().Str("ticker", c.Ticker).Err(err).Msg("snapshot not persisted")
			}
		}

		fmt.Printf("%-6s %-24s risk %.2f (%s)", c.Ticker, bundle.Name, section.Risk.Composite, section.Risk.Interpretation.Level)
		if section.Valuation != nil {
			fmt.Printf("  NPV $%.0fM", section.Valuation.NPVMillions)
		}
		fmt.Println()
	}

	if err := writeReports(in, *outDir); err != nil {
		log.Fatal().Err(err).Msg("failed to write reports")
	}
	log.Info().Str("dir", *outDir).Msg("reports written")
}

func loadCompanies(ctx context.Context, normalizer *marketdata.Normalizer, subset string) ([]models.Company, []models.TickerError) {
	if subset == "" {
		return normalizer.AllCompanies(ctx)
	}
	var companies []models.Company
	var failures []models.TickerError
	for _, t := range strings.Split(subset, ",") {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		c, err := normalizer.Company(ctx, t)
		if err != nil {
			failures = append(failures, models.TickerError{Ticker: t, Err: err.Error()})
			continue
		}
		companies = append(companies, c)
	}
	return companies, failures
}

func writeReports(in report.Input, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	builder := report.NewBuilder()
	stamp := in.GeneratedAt.Format("2006-01-02")

	md := builder.Markdown(in)
	if err := os.WriteFile(filepath.Join(dir, "memo_"+stamp+".md"), []byte(md), 0644); err != nil {
		return err
	}

	html, err := builder.HTML(in)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "memo_"+stamp+".html"), []byte(html), 0644); err != nil {
		return err
	}

	return builder.SaveWorkbook(in, filepath.Join(dir, "comparison_"+stamp+".xlsx"))
}
