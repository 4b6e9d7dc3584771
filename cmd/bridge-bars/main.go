// Fetches historical bars for a symbol and prints them in the host's
// close-time convention. Exercises the data gateway and, when a cache dir
// is configured, the Parquet bar cache.
//
// Usage:
//
//	go run cmd/bridge-bars/main.go -symbol AAPL -days 5 -width 1440
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"zorrobridge/internal/bridge"
	"zorrobridge/internal/config"
	"zorrobridge/internal/domain"
	"zorrobridge/internal/marketdata"
	"zorrobridge/internal/util"
)

func main() {
	symbol := flag.String("symbol", "AAPL", "symbol to query")
	days := flag.Int("days", 5, "lookback in calendar days")
	width := flag.Int("width", 1440, "bar width in minutes (1, 5, 15, 1440)")
	limit := flag.Int("limit", 0, "max bars (0 = no cap)")
	cached := flag.Bool("cached", false, "read from the local bar cache, no broker session")
	flag.Parse()

	cfgPath := "config/zorrobridge.yaml"
	if p := os.Getenv("ZORROBRIDGE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	end := time.Now()
	start := end.AddDate(0, 0, -*days)

	if *cached {
		if cfg.Data.CacheDir == "" {
			log.Fatal("no cache_dir configured")
		}
		bars, err := marketdata.NewBarCache(cfg.Data.CacheDir).Read(*symbol, start, end)
		if err != nil {
			log.Fatalf("cache read failed: %v", err)
		}
		for _, bar := range bars {
			fmt.Printf("%s  O %.2f  H %.2f  L %.2f  C %.2f  V %d\n",
				bar.Timestamp.Format("2006-01-02 15:04"),
				bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
		}
		fmt.Printf("%d cached bars\n", len(bars))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	b := bridge.New(cfg, nil, nil)
	if _, err := b.Login(ctx, bridge.Credentials{
		APIKey:     cfg.Alpaca.APIKey,
		APISecret:  cfg.Alpaca.APISecret,
		Paper:      cfg.Alpaca.Paper,
		DataKey:    cfg.Alpaca.DataKey,
		DataSecret: cfg.Alpaca.DataSecret,
		DataURL:    cfg.Alpaca.DataURL,
	}); err != nil {
		log.Fatalf("login failed: %v", err)
	}
	defer b.Logout()

	bars, err := b.History(ctx, *symbol, start, end, domain.BarWidth(*width), *limit)
	if err != nil {
		log.Fatalf("history query failed: %v", err)
	}

	for _, bar := range bars {
		fmt.Printf("%s  O %.2f  H %.2f  L %.2f  C %.2f  V %d\n",
			bar.Time.Time().Format("2006-01-02 15:04"),
			bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}
	fmt.Printf("%d bars\n", len(bars))
}
