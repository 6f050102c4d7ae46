package web

import (
	"gravatarlib/internal/config"
	"gravatarlib/internal/gravatar"
	"gravatarlib/internal/metrics"
	"html/template"

	"github.com/gorilla/sessions"
	"gorm.io/gorm"
)

type App struct {
	DB       *gorm.DB
	Store    *sessions.CookieStore
	Pages    map[string]*template.Template
	Defaults gravatar.Options
	Admin    config.AdminConfig
	Metrics  *metrics.Metrics
}
