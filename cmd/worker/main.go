package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Project-FinanceHUB/financehub/internal/broker"
	"github.com/Project-FinanceHUB/financehub/internal/config"
	"github.com/Project-FinanceHUB/financehub/internal/db"
	"github.com/Project-FinanceHUB/financehub/internal/handlers"
	"github.com/Project-FinanceHUB/financehub/internal/repository"
	"github.com/Project-FinanceHUB/financehub/internal/service"
)

// Worker do histórico: consome os eventos da fila e grava como acao_sistema.
func main() {
	wcfg := config.LoadWorkerConfig()

	_ = config.InitLogger(wcfg.LogLevel)
	log := slog.Default().With("svc", "worker")

	client, err := db.NewMongoClient(wcfg.MongoURI)
	if err != nil {
		log.Error("mongo_connect_error", "err", err)
		os.Exit(1)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	historico := repository.NewHistoricoRepository(client.Database(wcfg.MongoDB))
	if err := historico.EnsureIndexes(context.Background()); err != nil {
		log.Error("ensure_indexes_failed", "err", err)
		os.Exit(1)
	}
	ledger := service.NewLedger(historico, log)

	// Conecta no Rabbit e começa a consumir
	consumer, err := broker.NewConsumer(wcfg.RabbitURI, wcfg.RabbitQueue, "ledger-worker", wcfg.ConsumerPrefetch, log)
	if err != nil {
		log.Error("rabbit_consumer_start_error", "err", err)
		os.Exit(1)
	}
	defer func() { _ = consumer.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx, ledger.Handle) }()

	// HTTP: só /healthz
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handlers.Health)
	srv := &http.Server{
		Addr:              wcfg.Addr,
		Handler:           handlers.LogRequests(log, mux),
		ReadHeaderTimeout: wcfg.ReadHeaderTimeout,
	}
	go func() {
		log.Info("worker_listen", "addr", wcfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", "err", err)
			cancel()
		}
	}()

	// graceful shutdown
	exit := 0
	select {
	case <-ctx.Done():
	case err := <-done:
		if err != nil {
			log.Error("consumer_stopped", "err", err)
			exit = 1
		}
	}

	sctx, scancel := context.WithTimeout(context.Background(), wcfg.ShutdownTimeout)
	defer scancel()
	_ = srv.Shutdown(sctx)

	log.Info("stopped")
	if exit != 0 {
		os.Exit(exit)
	}
}
