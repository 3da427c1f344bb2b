package main

import (
	"context"

	"github.com/cristianortiz/benefitauction/internal/auction/application"
	"github.com/cristianortiz/benefitauction/internal/auction/infra/httpapi"
	auctionpg "github.com/cristianortiz/benefitauction/internal/auction/infra/repository/postgres"
	auctionws "github.com/cristianortiz/benefitauction/internal/auction/infra/websocket"
	identitypg "github.com/cristianortiz/benefitauction/internal/identity/infra/repository/postgres"
	"github.com/cristianortiz/benefitauction/internal/shared/db"
	"github.com/cristianortiz/benefitauction/internal/shared/db/migrations"
	"github.com/cristianortiz/benefitauction/internal/shared/httpserver"
	"github.com/cristianortiz/benefitauction/internal/shared/logger"
	sharedws "github.com/cristianortiz/benefitauction/internal/shared/websocket"
	"go.uber.org/zap"
)

func main() {
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting benefit auction engine...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ejecuta migraciones de base de datos
	log.Info("Running database migrations...")
	if err := migrations.RunMigrations(); err != nil {
		log.Fatal("Database migration failed", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")

	pool, err := db.GetPostgresDBPool(ctx)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	defer pool.Close()

	// shared websocket hub for spectator fanout
	hub := sharedws.NewHub()
	go hub.Run(ctx)

	// repositories and collaborators
	lotRepo := auctionpg.NewLotRepository(pool)
	bidRepo := auctionpg.NewBidRepository(pool)
	auctionRepo := auctionpg.NewAuctionRepository(pool)
	txRunner := auctionpg.NewTxRunner(pool)
	identity := identitypg.NewUserRepository(pool)
	publisher := auctionws.NewHubPublisher(hub)
	locks := application.NewLotLocker()

	// use cases
	revenueUC := application.NewRecomputeRevenueUseCase(lotRepo, auctionRepo, txRunner, publisher)
	submitBidUC := application.NewSubmitBidUseCase(lotRepo, bidRepo, auctionRepo, identity, txRunner, publisher, locks)
	setupUC := application.NewAuctionSetupUseCase(lotRepo, auctionRepo, identity)
	lotLifecycleUC := application.NewLotLifecycleUseCase(lotRepo, bidRepo, auctionRepo, identity, txRunner, publisher, revenueUC, locks)
	auctionLifecycleUC := application.NewAuctionLifecycleUseCase(auctionRepo, identity, txRunner, revenueUC)
	getLotStateUC := application.NewGetLotStateUseCase(lotRepo, bidRepo, auctionRepo, identity, revenueUC)

	service := application.NewAuctionService(submitBidUC, setupUC, lotLifecycleUC, auctionLifecycleUC, getLotStateUC)

	// ws inbound handler listening the hub channel
	wsHandler := auctionws.NewAuctionWSHandler(service, hub)
	go wsHandler.ListenForMessages(ctx)

	// HTTP server and routes
	server := httpserver.NewServer()
	apiHandler := httpapi.NewHandler(service, wsHandler)
	apiHandler.RegisterRoutes(ctx, server.App())

	if err := server.Start(":9000"); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}
