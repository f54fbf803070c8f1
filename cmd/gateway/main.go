package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/paysim/gateway/internal/config"
	"github.com/paysim/gateway/internal/events"
	"github.com/paysim/gateway/internal/httpserver"
	"github.com/paysim/gateway/internal/logging"
	"github.com/paysim/gateway/internal/models"
	"github.com/paysim/gateway/internal/repo"
	"github.com/paysim/gateway/internal/service"
	"github.com/paysim/gateway/internal/tokens"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	cfg.MustValidate()

	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := repo.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Transaction{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}
	store := repo.New(db)

	tokenSvc, err := tokens.New(tokens.Config{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	if err != nil {
		log.Fatalf("token service init error: %v", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)

	authSvc := &service.AuthService{
		Store:      store,
		Tokens:     tokenSvc,
		Events:     producer,
		BcryptCost: cfg.BcryptCost,
	}
	txSvc := &service.TransactionService{
		Store:       store,
		Events:      producer,
		MaxAmount:   cfg.MaxAmount,
		DeclineRate: cfg.DeclineRate,
	}
	userSvc := &service.UserService{Store: store, Events: producer}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	httpserver.Register(e, &httpserver.Deps{
		Auth: &httpserver.AuthHTTP{
			Svc: authSvc,
			Cookies: httpserver.CookieConfig{
				Secure:   cfg.CookieSecure,
				SameSite: cfg.SameSite(),
				MaxAge:   cfg.RefreshTTL,
			},
		},
		Tx:     &httpserver.TransactionHTTP{Svc: txSvc},
		Users:  &httpserver.UserHTTP{Svc: userSvc},
		Tokens: tokenSvc,
		Redis:  rdb,
		Log:    logger,
	})

	go func() {
		addr := ":" + strconv.Itoa(cfg.Port)
		logger.Info("gateway listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
	if err := producer.Close(); err != nil {
		logger.Error("kafka close", "error", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close", "error", err)
		}
	}
	if err := repo.Close(db); err != nil {
		logger.Error("db close", "error", err)
	}
}
