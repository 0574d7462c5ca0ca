package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/config"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/logger"
)

func main() {
	username := flag.String("username", "", "account to reset")
	password := flag.String("password", "", "new password (min 6 characters)")
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	// 1. Load Env
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	if cfg.DB.Driver != "postgres" {
		log.Fatal().Str("driver", cfg.DB.Driver).Msg("password reset needs a persistent store")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DB.ConnectionString(), log.Component("gorm"))
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer database.Close(db)

	// 3. Reset
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL(), cfg.JWT.Issuer)
	auth := service.NewAuthService(repository.NewUserRepo(db), repository.NewTxRunner(db), tokens, log.Zerolog())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := auth.ResetPassword(ctx, *username, *password); err != nil {
		log.Error().Err(err).Str("username", *username).Msg("password reset failed")
		database.Close(db)
		os.Exit(1)
	}

	log.Info().Str("username", *username).Msg("password reset")
}
