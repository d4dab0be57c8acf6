package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatwire/internal/app"
	"chatwire/internal/config"
	"chatwire/internal/presence"
	"chatwire/internal/push"
	"chatwire/internal/ratelimit"
	"chatwire/internal/server"
	"chatwire/internal/util"
	"chatwire/pkg/storage"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	util.InitLogger(cfg.LogLevel)

	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		util.Fatal("failed to parse session ttl", "err", err)
	}

	var uploader storage.ImageUploader
	if cfg.MinioEndpoint != "" {
		minioStore, err := storage.NewMinioStore(
			cfg.MinioEndpoint,
			cfg.MinioAccessKey,
			cfg.MinioSecretKey,
			cfg.MinioBucket,
			cfg.MinioPublicBaseURL,
			cfg.MinioUseSSL,
		)
		if err != nil {
			util.Fatal("failed to init object storage", "err", err)
		}
		uploader = minioStore
	}

	registry := presence.NewRegistry()
	dispatcher := push.NewDispatcher(registry)

	appCore, err := app.New(app.Config{
		DatabaseURL:   cfg.DatabaseURL,
		JWTSecret:     cfg.JWTSecret,
		SessionTTL:    sessionTTL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		Uploader:      uploader,
		Delivery:      dispatcher,
	})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}

	var signupLimiter, loginLimiter *ratelimit.FixedWindowLimiter
	if cfg.RedisAddr != "" {
		if cfg.SignupRateLimitPerMinute > 0 {
			signupLimiter, err = ratelimit.NewRedisFixedWindowLimiter(
				cfg.RedisAddr, cfg.RedisPassword, "chatwire:ratelimit:signup",
				cfg.SignupRateLimitPerMinute, time.Minute,
			)
			if err != nil {
				util.Fatal("failed to init signup rate limiter", "err", err)
			}
		}
		if cfg.LoginRateLimitPerMinute > 0 {
			loginLimiter, err = ratelimit.NewRedisFixedWindowLimiter(
				cfg.RedisAddr, cfg.RedisPassword, "chatwire:ratelimit:login",
				cfg.LoginRateLimitPerMinute, time.Minute,
			)
			if err != nil {
				util.Fatal("failed to init login rate limiter", "err", err)
			}
		}
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		util.Fatal("failed to parse trusted proxies", "err", err)
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		Registry:       registry,
		Dispatcher:     dispatcher,
		SignupLimiter:  signupLimiter,
		LoginLimiter:   loginLimiter,
		TrustedProxies: trusted,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("chat server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Fatal("server error", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	registry.CloseAll()
}
