//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FinNarrative/internal/usecase"
	"FinNarrative/pkg/config"
	"FinNarrative/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		InfraSet,
		EngineSet,

		// HTTP surface
		ProvideNarrativeHandler,
		ProvideHTTPServer,

		// Bar ingestion
		ProvideKafkaConsumer,
		ProvideBarIngestHandler,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeEngine wires the engine without any transport.
func InitializeEngine(cfg *config.Config) (*Engine, func(), error) {
	wire.Build(InfraSet, EngineSet)
	return nil, nil, nil
}

// InitializeBackfill wires the history backfill.
func InitializeBackfill(cfg *config.Config) (*usecase.BackfillUseCase, func(), error) {
	wire.Build(
		InfraSet,
		ProvideBackfillSource,
		ProvideBarRouter,
		ProvideBackfillUseCase,
	)
	return nil, nil, nil
}
