package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"

	"github.com/Project-FinanceHUB/financehub/internal/admin"
	"github.com/Project-FinanceHUB/financehub/internal/auth"
	"github.com/Project-FinanceHUB/financehub/internal/broker"
	"github.com/Project-FinanceHUB/financehub/internal/clock"
	"github.com/Project-FinanceHUB/financehub/internal/config"
	"github.com/Project-FinanceHUB/financehub/internal/db"
	"github.com/Project-FinanceHUB/financehub/internal/handlers"
	"github.com/Project-FinanceHUB/financehub/internal/inflight"
	"github.com/Project-FinanceHUB/financehub/internal/repository"
	"github.com/Project-FinanceHUB/financehub/internal/service"
	"github.com/Project-FinanceHUB/financehub/internal/storage"
)

// cmd/api/main.go
func main() {
	cfg, err := config.Load() // .env
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	// Logger JSON "global" - permite usar slog.Info/slog.Error/Warn em qualquer lugar
	log := config.InitLogger(cfg.LogLevel)
	log.Info("starting", "port", cfg.Port, "mongo_db", cfg.MongoDB, "tz", cfg.Location.String())

	// HOOK: admin job (one-off)
	task := flag.String("task", "", "admin task: seed")
	flag.Parse()
	if *task != "" {
		os.Exit(runTask(*task, cfg, log))
	}

	if err := run(cfg, log); err != nil {
		log.Error("api_failed", "err", err)
		os.Exit(1)
	}
}

func runTask(task string, cfg *config.Config, log *slog.Logger) int {
	switch task {
	case "seed":
		// conecta somente o necessário para o seed
		client, err := db.NewMongoClient(cfg.MongoURI)
		if err != nil {
			log.Error("mongo_connect_error", "err", err)
			return 1
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		ctx := context.Background()
		database := client.Database(cfg.MongoDB)
		companies := repository.NewCompanyRepository(database)
		users := repository.NewUserRepository(database)
		if err := companies.EnsureIndexes(ctx); err != nil {
			log.Error("ensure_indexes_failed", "err", err)
			return 1
		}
		if err := users.EnsureIndexes(ctx); err != nil {
			log.Error("ensure_indexes_failed", "err", err)
			return 1
		}
		if err := admin.SeedCompanies(ctx, companies, log); err != nil {
			log.Error("seed_failed", "err", err)
			return 1
		}
		u, err := admin.SeedAdmin(ctx, users, cfg.SeedAdminEmail, cfg.SeedAdminPassword, log)
		if err != nil {
			log.Error("seed_failed", "err", err)
			return 1
		}
		if u != nil {
			token, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL).Issue(*u)
			if err != nil {
				log.Error("seed_token_failed", "err", err)
				return 1
			}
			fmt.Println(token)
		}
		log.Info("seed_done")
		return 0 // encerra o processo sem subir HTTP
	default:
		log.Error("unknown_admin_task", "task", task)
		return 2
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	// conecta Mongo
	client, err := db.NewMongoClient(cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	database := client.Database(cfg.MongoDB)

	companies := repository.NewCompanyRepository(database)
	users := repository.NewUserRepository(database)
	solicitacoes := repository.NewSolicitacaoRepository(database)
	historico := repository.NewHistoricoRepository(database)
	if err := ensureIndexes(ctx, companies, users, solicitacoes, historico); err != nil {
		return err
	}

	// publisher (Rabbit)
	pub, err := broker.NewPublisher(cfg.RabbitURI, cfg.RabbitQueue)
	if err != nil {
		return fmt.Errorf("rabbitmq connect: %w", err)
	}
	defer pub.Close()

	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return fmt.Errorf("snowflake node: %w", err)
	}

	deps := service.Deps{
		Repo:      solicitacoes,
		Companies: companies,
		Historico: historico,
		Pub:       pub,
		Clock:     clock.System{Loc: cfg.Location},
		Location:  cfg.Location,
		Policy:    cfg.MonthPolicy,
		Timeout:   cfg.MutationTimeout,
		Node:      node,
		Log:       log,
	}

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis url: %w", err)
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		deps.Locks = inflight.NewRedis(rdb, "", 2*cfg.MutationTimeout, log)
		log.Info("inflight_guard", "backend", "redis")
	}

	if cfg.Minio.Endpoint != "" {
		files, err := storage.NewMinio(ctx, storage.Options{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("minio: %w", err)
		}
		deps.Files = files
		log.Info("attachment_storage", "backend", "minio", "bucket", cfg.Minio.Bucket)
	} else {
		log.Warn("attachment_storage", "backend", "none", "hint", "set MINIO_ENDPOINT to keep files")
	}

	svc, err := service.NewSolicitacoes(deps)
	if err != nil {
		return err
	}
	if err := svc.Reload(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	wctx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go svc.Watch(wctx, cfg.SnapshotRefresh)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	ch := handlers.NewCompanyHandler(companies, pub)
	sh := handlers.NewSolicitacaoHandler(svc)
	uh := handlers.NewUserHandler(users)

	api := http.NewServeMux()
	api.HandleFunc("/api/me", handlers.Me)
	api.HandleFunc("/api/solicitacoes", sh.Solicitacoes)
	api.HandleFunc("/api/solicitacoes/", sh.SolicitacaoByID)
	api.HandleFunc("/api/historico", sh.Historico)
	api.HandleFunc("/api/historico/", sh.HistoricoRow)
	api.HandleFunc("/api/dashboard/mensal", sh.Mensal)
	api.HandleFunc("/api/companies", ch.Companies)
	api.HandleFunc("/api/companies/", ch.CompanyByID)
	api.HandleFunc("/api/usuarios", uh.Usuarios)
	api.HandleFunc("/api/usuarios/", uh.UsuarioByID)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handlers.Health)
	mux.Handle("/api/", tokens.Middleware(api))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.LogRequests(log, mux),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	// start server
	errCh := make(chan error, 1)
	go func() {
		log.Info("api_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown error", "err", err)
	}
	log.Info("api_stopped")
	return nil
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexes(ctx context.Context, repos ...indexer) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}
	return nil
}
