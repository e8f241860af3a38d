//go:build wireinject
// +build wireinject

package di

import (
	"MarketMood/pkg/config"
	"MarketMood/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideClosers,
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideHotCache,
		ProvideReadingRepository,
		ProvideSubscriptionStore,
		ProvideOutbound,

		// Fetch path
		ProvideProviders,
		ProvideOrchestrator,

		// Dispatch path
		ProvidePacer,
		ProvideNotifier,
		ProvideHub,
		ProvideRefresher,

		// Surfaces
		ProvideHandlers,
		ProvideApp,
	)
	return &server.App{}, nil
}
