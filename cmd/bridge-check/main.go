// Smoke test for a configured brokerage session: log in, query the server
// clock and account balances, and print what the host would see.
//
// Usage:
//
//	go run cmd/bridge-check/main.go [-symbol AAPL]
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
	"zorrobridge/internal/journal"
	"zorrobridge/internal/util"
)

type stdoutNotifier struct{}

func (stdoutNotifier) Message(text string) { fmt.Println(text) }
func (stdoutNotifier) Progress(int) {}

func main() {
	symbol := flag.String("symbol", "", "also query asset info and position for this symbol")
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var jnl *journal.Journal
	if cfg.Journal.Path != "" {
		if jnl, err = journal.Open(cfg.Journal.Path); err != nil {
			log.Fatalf("failed to open journal: %v", err)
		}
		defer jnl.Close()
	}

	b := bridge.New(cfg, stdoutNotifier{}, jnl)
	acct, err := b.Login(ctx, bridge.Credentials{
		APIKey:     cfg.Alpaca.APIKey,
		APISecret:  cfg.Alpaca.APISecret,
		Paper:      cfg.Alpaca.Paper,
		DataKey:    cfg.Alpaca.DataKey,
		DataSecret: cfg.Alpaca.DataSecret,
		BaseURL:    cfg.Alpaca.BaseURL,
		DataURL:    cfg.Alpaca.DataURL,
	})
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	defer b.Logout()

	date, open, err := b.Time(ctx)
	if err != nil {
		log.Fatalf("clock query failed: %v", err)
	}
	fmt.Printf("account:  %s\n", acct)
	fmt.Printf("server:   %s (market open: %v)\n", date.Time().Format(time.RFC3339), open)

	equity, available, err := b.Balance(ctx)
	if err != nil {
		log.Fatalf("balance query failed: %v", err)
	}
	fmt.Printf("equity:   %.2f\n", equity)
	fmt.Printf("buying:   %.2f\n", available)

	if *symbol != "" {
		info, err := b.AssetInfo(ctx, *symbol)
		if err != nil {
			log.Fatalf("asset query failed: %v", err)
		}
		fmt.Printf("%s: tradable=%v shortable=%v price=%.2f spread=%.4f\n",
			info.Symbol, info.Tradable, info.Shortable, info.Price, info.Spread)

		pos, err := b.Position(ctx, *symbol)
		if err != nil {
			log.Fatalf("position query failed: %v", err)
		}
		fmt.Printf("position: %d\n", pos)
	}
}
