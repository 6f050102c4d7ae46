package web

import (
	"context"
	"gravatarlib/internal/utils"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const presetKey ctxKey = "preset"

func (app *App) NewRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.presetMiddleware)

	r.Get("/", app.PreviewHandler)

	r.Get("/avatar", app.AvatarURLHandler)
	r.Get("/avatar/redirect", app.AvatarRedirectHandler)

	r.Get("/presets", app.ListPresetsHandler)
	r.Get("/presets/{name}", app.GetPresetHandler)
	r.Post("/presets/{name}/use", app.UsePresetHandler)
	r.Delete("/session/preset", app.ClearPresetHandler)

	r.Group(func(r chi.Router) {
		r.Use(app.adminMiddleware)
		r.Put("/presets/{name}", app.PutPresetHandler)
		r.Delete("/presets/{name}", app.DeletePresetHandler)
	})

	r.Get("/healthz", app.HealthHandler)
	r.Handle("/metrics", app.Metrics.Handler())

	return r
}

// presetMiddleware puts the session's active preset, if it still exists
// and is valid, into the request context.
func (app *App) presetMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := app.getSessionPreset(r)

		if name != "" {
			preset, err := app.getPreset(name)
			switch {
			case err != nil:
				slog.Error("Failed to load session preset", "preset", name, "error", err)
			case preset == nil:
			default:
				if _, err := preset.Config(app.Defaults.Endpoints); err != nil {
					slog.Error("Skipping invalid session preset", "preset", name, "error", err)
					break
				}
				r = r.WithContext(context.WithValue(r.Context(), presetKey, preset))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (app *App) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.Admin.PasswordHash == "" {
			writeError(w, http.StatusForbidden, "preset writes are disabled", "")
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok || user != app.Admin.Username || !utils.CheckPasswordHash(app.Admin.PasswordHash, pass) {
			slog.Info("Rejected admin request", "method", r.Method, "path", r.URL.Path, "user", user)
			w.Header().Set("WWW-Authenticate", `Basic realm="presets"`)
			writeError(w, http.StatusUnauthorized, "invalid credentials", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (app *App) getSessionPreset(r *http.Request) string {
	session, _ := app.Store.Get(r, "session")

	name, ok := session.Values["preset"].(string)
	if !ok {
		return ""
	}
	return name
}
