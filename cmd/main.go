package main

import (
	"flag"
	"fmt"
	"gravatarlib/internal/config"
	"gravatarlib/internal/metrics"
	"gravatarlib/internal/models"
	"gravatarlib/internal/web"
	"log"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	db, err := connectDb(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	err = db.AutoMigrate(&models.Preset{})
	if err != nil {
		log.Fatal(err)
	}

	store := sessions.NewCookieStore([]byte(cfg.Session.HashKey), []byte(cfg.Session.BlockKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	if cfg.Session.UsesDefaultKeys() {
		slog.Warn("Session keys are the built-in defaults, set SESSION_HASH_KEY and SESSION_BLOCK_KEY")
	}
	if cfg.Admin.PasswordHash == "" {
		slog.Warn("No admin password hash configured, preset writes are disabled")
	}

	app := &web.App{
		DB:       db,
		Store:    store,
		Pages:    web.LoadPages(),
		Defaults: cfg.Gravatar.Options(),
		Admin:    cfg.Admin,
		Metrics:  metrics.New(),
	}

	r := app.NewRouter()

	slog.Info("Starting server", "addr", cfg.HTTP.Addr(), "env", cfg.Env, "db_driver", cfg.Database.Driver)
	err = http.ListenAndServe(cfg.HTTP.Addr(), r)
	if err != nil {
		log.Fatal(err)
	}
}

func connectDb(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{})
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}
