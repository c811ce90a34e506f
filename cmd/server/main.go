package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillpost/internal/auth"
	"github.com/quillpost/internal/config"
	"github.com/quillpost/internal/db"
	"github.com/quillpost/internal/handler"
	"github.com/quillpost/internal/logger"
	"github.com/quillpost/internal/router"
	"github.com/quillpost/internal/service"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.AppEnv, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	if err := db.EnsureAdmin(db.DB, cfg.SuperRootEmail, cfg.SuperRootPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure admin account")
	}

	notifier := service.NewNotifier(service.MailSettings{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		SiteURL:  cfg.SiteBaseURL,
	})

	api := handler.NewAPI(db.DB, handler.Options{
		Tokens:    auth.NewManager(cfg.JWTSecret, cfg.TokenTTL),
		Notifier:  notifier,
		UploadDir: cfg.UploadDir,
		UploadURL: cfg.UploadURLPath,
	})

	r := router.SetupRouter(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		UploadDir:     cfg.UploadDir,
		UploadURLPath: cfg.UploadURLPath,
		SecureCookies: strings.HasPrefix(cfg.SiteBaseURL, "https://"),
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("env", cfg.AppEnv).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to run server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	if sqlDB, err := db.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}
