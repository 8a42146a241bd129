package db_fx

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"certean-billing/internal/config"
	"certean-billing/internal/infra"
	"certean-billing/internal/repositories"
)

var Module = fx.Provide(provideStore)

// provideStore builds the store selected by STORE_DRIVER and closes it when
// the app stops.
func provideStore(lc fx.Lifecycle, s *config.Settings, log *zap.Logger) (repositories.Store, error) {
	ctx := context.Background()

	var store repositories.Store
	switch s.StoreDriver {
	case config.DriverMongo:
		client, err := infra.InitMongo(ctx, s.MongoURI, s.StoreTimeout, log)
		if err != nil {
			return nil, err
		}
		mongoStore := repositories.NewMongoStore(client, repositories.MongoConfig{
			DBName:            s.MongoDBName,
			ProductDBPrefix:   s.ProductDBPrefix,
			ProductCollection: s.ProductCollection,
			Timeout:           s.StoreTimeout,
		})
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Warn("could not ensure indexes", zap.Error(err))
		}
		store = mongoStore

	case config.DriverPostgres:
		db, err := infra.InitPostgresql(ctx, s.PostgresURL, s.StoreTimeout, log)
		if err != nil {
			return nil, err
		}
		pgStore := repositories.NewPostgresStore(db, s.StoreTimeout)
		if err := pgStore.Migrate(ctx); err != nil {
			return nil, err
		}
		store = pgStore

	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		store = repositories.NewMemoryStore()

	default:
		return nil, fmt.Errorf("unknown store driver %q", s.StoreDriver)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing store", zap.String("driver", s.StoreDriver))
			return store.Close(ctx)
		},
	})
	return store, nil
}
