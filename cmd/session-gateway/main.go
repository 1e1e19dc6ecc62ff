package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/medisur/hmis-go/internal/gateway"
	"github.com/medisur/hmis-go/internal/migrations"
	"github.com/medisur/hmis-go/internal/storage/postgres"
	redisstore "github.com/medisur/hmis-go/internal/storage/redis"
	"github.com/medisur/hmis-go/internal/util"

	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()

	db, dbCleanup, err := util.NewDBConnection(logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	if err := migrations.RunMigrations(db, logger); err != nil {
		logger.Fatal(zap.Error(err))
	}

	redisClient, redisCleanup, err := util.NewRedisClient(logger, util.NewRedisConfig())
	if err != nil {
		logger.Fatal(zap.Error(err))
	}

	sessions := postgres.NewStorage(db)
	revocations := redisstore.NewRevocationStore(redisClient)
	cleanupFuncs := []func(){dbCleanup, redisCleanup}

	gw := gateway.New(util.NewServerConfig(), util.NewGatewayConfig(), sessions, revocations, logger, cleanupFuncs)
	gw.Run(ctx)
}
