// Exports the broker's active asset list to a CSV file, the same export the
// host triggers through the command surface.
//
// Usage:
//
//	go run cmd/bridge-assets/main.go -out assets.csv
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
	"zorrobridge/internal/util"
)

func main() {
	out := flag.String("out", "assets.csv", "output CSV path")
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

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	b := bridge.New(cfg, nil, nil)
	if _, err := b.Login(ctx, bridge.Credentials{
		APIKey:    cfg.Alpaca.APIKey,
		APISecret: cfg.Alpaca.APISecret,
		Paper:     cfg.Alpaca.Paper,
		BaseURL:   cfg.Alpaca.BaseURL,
	}); err != nil {
		log.Fatalf("login failed: %v", err)
	}
	defer b.Logout()

	n, err := b.ExportAssets(ctx, *out)
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}
	fmt.Printf("wrote %d assets to %s\n", n, *out)
}
