package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/GM-Alex/user-access-manager-sub006/internal/app"
	"github.com/GM-Alex/user-access-manager-sub006/internal/config"
	internaldb "github.com/GM-Alex/user-access-manager-sub006/internal/db"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.DBPath, cfg.DBReadMaxOpen)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer writeDB.Close()
	defer readDB.Close()

	if err := internaldb.RunMigrations(writeDB); err != nil {
		logger.Error("migrations", "error", err)
		os.Exit(1)
	}

	a, err := app.New(app.Deps{
		Cfg:     cfg,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("wire application", "error", err)
		os.Exit(1)
	}

	logger.Info("listening", "addr", cfg.ListenAddr, "cache", cfg.CacheProvider)
	if err := http.ListenAndServe(cfg.ListenAddr, a.Router()); err != nil {
		logger.Error("server", "error", err)
		os.Exit(1)
	}
}
