//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"deckd/internal"
	"deckd/internal/clock"
	"deckd/internal/controllers"
	"deckd/internal/persistence"
	"deckd/internal/persistence/interfaces"
	"deckd/internal/playback"
	"deckd/internal/providers"
	"deckd/internal/services"
	"deckd/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		clock.New,
		persistence.NewZstdCompressor,
		persistence.NewStorageCollaborator,
		persistence.NewPersister,
		persistence.NewColdStorageProvider,
		services.NewDeckService,
		wire.Bind(new(services.DeckServiceInterface), new(*services.DeckService)),
		wire.Bind(new(interfaces.SessionRegistry), new(*services.DeckService)),
		persistence.NewFileManager,
		persistence.NewScheduler,

		playback.NewRenderer,
		playback.NewRasterizer,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
