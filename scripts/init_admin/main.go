package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/quillpost/internal/config"
	"github.com/quillpost/internal/db"
	"github.com/quillpost/internal/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.AppEnv, cfg.LogLevel)

	email := flag.String("email", cfg.SuperRootEmail, "admin email (defaults to SUPER_ROOT_EMAIL)")
	password := flag.String("password", cfg.SuperRootPassword, "admin password (defaults to SUPER_ROOT_PASSWORD)")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: init_admin -email admin@example.com -password secret")
		os.Exit(2)
	}

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}

	if err := db.EnsureAdmin(db.DB, *email, *password); err != nil {
		log.Fatal().Err(err).Msg("failed to create admin")
	}

	fmt.Printf("admin account ready: %s\n", *email)
}
