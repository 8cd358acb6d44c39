package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/api-sage/account-transaction-processor/src/internal/adapter/http/controller"
	"github.com/api-sage/account-transaction-processor/src/internal/adapter/http/middleware"
	"github.com/api-sage/account-transaction-processor/src/internal/adapter/http/router"
	"github.com/api-sage/account-transaction-processor/src/internal/adapter/repository/postgres"
	"github.com/api-sage/account-transaction-processor/src/internal/config"
	"github.com/api-sage/account-transaction-processor/src/internal/events/kafka"
	"github.com/api-sage/account-transaction-processor/src/internal/usecase/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := postgres.RunMigrations(startupCtx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	db, err := postgres.Open(startupCtx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	store := postgres.NewAccountStore(db)

	var publisher services.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	transactionService := services.NewTransactionService(store, publisher)
	accountService := services.NewAccountService(store)

	authMiddleware := middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKey, cfg.ChannelKeyHash)
	mux := router.New(
		controller.NewTransactionController(transactionService),
		controller.NewAccountController(accountService),
		authMiddleware,
	)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve http: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown http server: %v", err)
	}
}
