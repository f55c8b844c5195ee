package di

import "github.com/google/wire"

// InfraSet provides the logger, metrics and storage clients.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideEndpointMetrics,
	ProvideClickHouseClient,
	ProvideBarStore,
)

// EngineSet provides the narrative and risk pipelines.
var EngineSet = wire.NewSet(
	ProvideRedisCache,
	ProvideBytesCache,
	ProvidePriceSource,
	ProvideExtractor,
	ProvideScorer,
	ProvideSentiment,
	ProvideAggregator,
	ProvideComposer,
	ProvideNarrativeUseCase,
	ProvideRiskUseCase,
	ProvideEngine,
)
