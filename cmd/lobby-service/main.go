package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/quickmatch/lobby-service/config"
	"github.com/quickmatch/lobby-service/internal/feed"
	"github.com/quickmatch/lobby-service/internal/pg"
	"github.com/quickmatch/lobby-service/internal/repository/postgres"
	"github.com/quickmatch/lobby-service/internal/security"
	"github.com/quickmatch/lobby-service/internal/service"
	httpx "github.com/quickmatch/lobby-service/internal/transport/http"
	"github.com/quickmatch/lobby-service/internal/transport/ws"
	"github.com/quickmatch/lobby-service/pkg/logger"
)

func main() {
	// --- config ---
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting lobby-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pg.NewPool(ctx, cfg.Postgres.ToPGConfig())
	if err != nil {
		slog.Error("failed to init postgres", slog.Any("err", err))
		os.Exit(1)
	}
	defer pool.Close()
	slog.Info("connected to postgres")

	// --- change feed ---
	bus := feed.NewBus()
	defer bus.Close()

	listener := pg.NewListener(cfg.Postgres.DSN, bus)
	go func() {
		if err := listener.Run(ctx); err != nil && !pg.IsCancel(err) {
			slog.Error("feed listener stopped", slog.Any("err", err))
		}
	}()

	// --- repos ---
	roomRepo := postgres.NewRoomRepo(pool)
	partRepo := postgres.NewParticipantRepo(pool)
	usersRepo := postgres.NewUserRepoFromPool(pool)
	sessionsRepo := postgres.NewSessionRepoFromPool(pool)

	// --- security ---
	private, err := security.LoadRSAPrivateKeyFromPEM(cfg.Security.JWT.PrivateKeyPath)
	if err != nil {
		slog.Error("failed to read private key", slog.Any("err", err))
		os.Exit(1)
	}
	public, err := security.LoadRSAPublicKeyFromPEM(cfg.Security.JWT.PublicKeyPath)
	if err != nil {
		slog.Error("failed to read public key", slog.Any("err", err))
		os.Exit(1)
	}
	jwtSigner := security.NewJWTSigner(
		private,
		public,
		cfg.Security.JWT.Issuer,
		cfg.Security.JWT.Audience,
		cfg.Security.JWT.AccessTTL,
		cfg.Security.JWT.ClockSkew,
	)

	// --- services ---
	roomSvc := service.NewRoomService(roomRepo)
	memberSvc := service.NewMemberService(roomRepo, partRepo)
	authSvc := service.NewAuthService(
		usersRepo,
		sessionsRepo,
		jwtSigner,
		bus,
		cfg.Security.JWT.RefreshTTL,
		*cfg.Security.Password.ToBcryptConfig(),
		time.Now,
	)

	// --- session sweeper ---
	// протухшие refresh-сессии чистятся фоном, TTL сам по себе их не удаляет
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := authSvc.PurgeExpiredSessions(ctx)
				if err != nil {
					slog.Error("session sweep failed", slog.Any("err", err))
					continue
				}
				if n > 0 {
					slog.Info("session sweep", "deleted", n)
				}
			}
		}
	}()

	// --- WS hub & server ---
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, bus, roomSvc, memberSvc, authSvc)
	go wsServer.Run(ctx)

	// --- HTTP ---
	handler := httpx.NewHandler(roomSvc, memberSvc)
	authHandler := httpx.NewAuthHandler(authSvc)
	router := httpx.NewRouter(handler, authHandler, authSvc, wsServer, cfg.HTTP.AllowedOrigins)

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig.String())
	case err := <-errCh:
		slog.Error("server error", slog.Any("err", err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	_ = httpSrv.Shutdown(shutdownCtx)
	cancel()
	slog.Info("lobby-service stopped")
}
