// Command narrate prints the narrative or risk assessment for one symbol as
// JSON. Exit codes: 2 invalid input, 3 no data for the symbol, 4 market data
// provider unavailable, 1 anything else.
//
//	narrate -symbol AAPL -type aggressive -horizon long-term -goal growth
//	narrate -symbol AAPL -risk
//	narrate -features '{"volatility":0.45,"drawdown":0.3,"trend_strength":0.6,"volume_spike":0.5}'
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"FinNarrative/internal/di"
	"FinNarrative/internal/domain/models"
	"FinNarrative/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	symbol := flag.String("symbol", "", "ticker symbol")
	investor := flag.String("type", "Balanced", "investor type: conservative, balanced, aggressive")
	horizon := flag.String("horizon", "Medium-term", "time horizon: short-term, medium-term, long-term")
	goal := flag.String("goal", "Growth", "primary goal: growth, income, capital preservation, speculative")
	riskOnly := flag.Bool("risk", false, "print the symbol's risk assessment instead of the narrative")
	rawFeatures := flag.String("features", "", "score a JSON feature map without market data")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if cfg.Log.Level == "info" {
		cfg.Log.Level = "warn"
	}

	engine, cleanup, err := di.InitializeEngine(cfg)
	if err != nil {
		log.Fatalf("engine initialization failed: %v", err)
	}
	defer cleanup()

	out, err := run(context.Background(), engine, *symbol, *rawFeatures, *riskOnly,
		models.ProfileRequest{Type: *investor, TimeHorizon: *horizon, PrimaryGoal: *goal})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		cleanup()
		os.Exit(exitCode(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

func run(ctx context.Context, engine *di.Engine, symbol, rawFeatures string, riskOnly bool, pr models.ProfileRequest) (any, error) {
	if rawFeatures != "" {
		dec := json.NewDecoder(strings.NewReader(rawFeatures))
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, &models.ValidationError{Field: "features", Message: "invalid JSON object: " + err.Error()}
		}
		return engine.Risk.PredictRiskRaw(ctx, raw)
	}
	if symbol == "" {
		return nil, &models.ValidationError{Field: "symbol", Message: "-symbol or -features is required"}
	}
	if riskOnly {
		return engine.Risk.PredictRiskForSymbol(ctx, symbol)
	}
	profile, replaced := pr.Profile()
	if len(replaced) > 0 {
		fmt.Fprintf(os.Stderr, "unrecognised %s, using defaults\n", strings.Join(replaced, ", "))
	}
	return engine.Narrative.Generate(ctx, symbol, profile)
}

func exitCode(err error) int {
	var ve *models.ValidationError
	var ves models.ValidationErrors
	switch {
	case errors.As(err, &ve), errors.As(err, &ves):
		return 2
	case errors.Is(err, models.ErrDataUnavailable):
		return 3
	case errors.Is(err, models.ErrProviderUnavailable):
		return 4
	}
	return 1
}
