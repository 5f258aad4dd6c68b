package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/orbitdine/internal/broadcast"
	"github.com/Skotchmaster/orbitdine/internal/cart"
	"github.com/Skotchmaster/orbitdine/internal/config"
	"github.com/Skotchmaster/orbitdine/internal/httpserver"
	"github.com/Skotchmaster/orbitdine/internal/models"
	"github.com/Skotchmaster/orbitdine/internal/mykafka"
	"github.com/Skotchmaster/orbitdine/internal/repo"
	"github.com/Skotchmaster/orbitdine/internal/service"
	"github.com/Skotchmaster/orbitdine/pkg/db"
	"github.com/Skotchmaster/orbitdine/pkg/logging"
	auth "github.com/Skotchmaster/orbitdine/pkg/middleware/auth"
	"github.com/Skotchmaster/orbitdine/pkg/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	initCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		cancel()
		log.Fatalf("db migrate error: %v", err)
	}
	if err := db.Seed(initCtx, gdb); err != nil {
		cancel()
		log.Fatalf("db seed error: %v", err)
	}

	cartStore := cart.NewRedisStore(cfg.RedisURL, cfg.CartTTL)
	if err := cartStore.Init(initCtx); err != nil {
		cancel()
		log.Fatalf("cart store init error: %v", err)
	}

	Repo := &repo.GormRepo{DB: gdb}
	codec := tokens.NewCodec(cfg.JWTSecret, cfg.TokenTTL)

	authService := &service.AuthService{Users: Repo, Tokens: codec}
	created, err := authService.Bootstrap(initCtx, cfg.BootstrapUsername, cfg.BootstrapPassword, models.Role(cfg.BootstrapRole))
	cancel()
	if err != nil {
		log.Fatalf("bootstrap user error: %v", err)
	}
	if created {
		logger.Info("bootstrap_user_created", "username", cfg.BootstrapUsername, "role", cfg.BootstrapRole)
	}

	hub := broadcast.NewHub(cfg.EventBuffer, logger)

	var prod *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod, err = mykafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			log.Fatalf("kafka producer error: %v", err)
		}
		hub.SetMirror(prod)
		logger.Info("event_mirror_enabled", "topic", cfg.KafkaTopic)
	}

	cartService := &service.CartService{Store: cartStore}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(httpserver.Common(logger, cfg.AllowedOrigins)...)

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler: &httpserver.OrderHTTP{
			Svc:  &service.OrderService{Store: Repo, Notifier: hub},
			Cart: cartService,
		},
		CartHandler:     &httpserver.CartHTTP{Svc: cartService},
		AuthHandler:     &httpserver.AuthHTTP{Svc: authService},
		RealtimeHandler: httpserver.NewRealtimeHTTP(hub, cfg.AllowedOrigins),
		Gate:            auth.NewRoleGate(codec),
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			return cartStore.Ping(ctx)
		},
	})

	addr := ":" + strconv.Itoa(cfg.ServerPort)
	go func() {
		logger.Info("server_starting", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown_error", "error", err)
	}
	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if err := cartStore.Close(); err != nil {
		logger.Error("redis_close_error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}
