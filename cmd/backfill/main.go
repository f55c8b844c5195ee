// Command backfill copies daily history from Alpha Vantage into Kafka or
// ClickHouse, depending on backend.type.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"FinNarrative/internal/di"
	"FinNarrative/pkg/config"
	"FinNarrative/pkg/util"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	symbols := flag.String("symbols", "", "comma-separated symbols (default: backfill.symbols)")
	days := flag.Int("days", 0, "bars per symbol (default: backfill.days)")
	backend := flag.String("backend", "", "kafka or clickhouse (default: backend.type)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *symbols != "" {
		cfg.Backfill.Symbols = util.SplitCSV(*symbols)
	}
	if *days > 0 {
		cfg.Backfill.Days = *days
	}
	if *backend != "" {
		cfg.Backend.Type = *backend
	}
	if len(cfg.Backfill.Symbols) == 0 {
		log.Fatalf("no symbols: pass -symbols or set backfill.symbols / SYMBOLS")
	}

	uc, cleanup, err := di.InitializeBackfill(cfg)
	if err != nil {
		log.Fatalf("backfill initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	results, runErr := uc.Run(ctx, cfg.Backfill.Symbols)
	stop()
	cleanup()

	_ = json.NewEncoder(os.Stdout).Encode(results)
	if runErr != nil {
		log.Printf("backfill finished with errors: %v", runErr)
		os.Exit(1)
	}
}
