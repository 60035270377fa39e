// The api server exposes the valuation engines over HTTP and keeps the
// gold price cache warm on a schedule.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"goldval/pkg/api"
	"goldval/pkg/config"
	"goldval/pkg/core/marketdata"
	"goldval/pkg/core/store"
	"goldval/pkg/logging"
)

func main() {
	godotenv.Load()

	settings, err := config.LoadSettings()
	if err != nil {
		logging.Initialize("info")
		l := logging.ForComponent("main")
		l.Fatal().Err(err).Msg("failed to load settings")
	}
	logging.Initialize(settings.LogLevel)
	log := logging.ForComponent("main")

	cfg, err := config.Load(settings.ConfigDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", settings.ConfigDir).Msg("failed to load configuration")
	}
	log.Info().Int("companies", len(cfg.Companies.Companies)).Msg("configuration loaded")

	cache := marketdata.NewCache(settings.CacheDir, time.Duration(settings.CacheTTLMinutes)*time.Minute)
	client := marketdata.NewClient(cache)
	normalizer := marketdata.NewNormalizer(cfg, client, time.Now().Year())

	var snapshots *store.SnapshotRepo
	if settings.DatabaseURL != "" {
		if err := store.InitDB(context.Background(), settings.DatabaseURL); err != nil {
			log.Warn().Err(err).Msg("database unavailable, snapshots disabled")
		} else {
			snapshots = store.NewSnapshotRepo()
			defer store.Close()
		}
	}

	server := api.NewServer(cfg, normalizer, client, time.Now().Year(), snapshots)

	// Keep the gold price fresh so request paths hit the cache.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 15m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		g := client.GetGoldPrice(ctx, cfg.Assumptions.FallbackGoldPrice)
		log.Debug().Float64("price", g.Price).Str("source", g.Source).Msg("gold price refreshed")
	}); err != nil {
		log.Warn().Err(err).Msg("gold refresh schedule not registered")
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Info().Str("addr", settings.Addr).Msg("api server starting")
	if err := http.ListenAndServe(settings.Addr, server.Router()); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}
