package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"gravatarlib/internal/gravatar"
	"gravatarlib/internal/models"
	"gravatarlib/internal/utils"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type avatarResponse struct {
	URL    string `json:"url"`
	Preset string `json:"preset,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, field string) {
	writeJSON(w, status, errorResponse{Error: msg, Field: field})
}

// rejectConfig answers 400 for invalid display options and 500 otherwise.
func (app *App) rejectConfig(w http.ResponseWriter, err error) {
	var cfgErr *gravatar.ConfigError
	if !errors.As(err, &cfgErr) {
		slog.Error("Failed to build gravatar config", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}
	app.Metrics.Rejected(err)
	writeError(w, http.StatusBadRequest, cfgErr.Error(), cfgErr.Field)
}

func (app *App) presetFromContext(r *http.Request) *models.Preset {
	preset, ok := r.Context().Value(presetKey).(*models.Preset)
	if !ok {
		return nil
	}
	return preset
}

func (app *App) baseOptions(r *http.Request) gravatar.Options {
	if preset := app.presetFromContext(r); preset != nil {
		return preset.Options(app.Defaults.Endpoints)
	}
	return app.Defaults
}

func parseFlag(v string, field string) (bool, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &gravatar.ConfigError{Field: field, Reason: fmt.Sprintf("%q is not a boolean", v)}
	}
	return b, nil
}

// requestOptions overlays the query parameters s, r, d, f and secure on
// base. hashed=true marks email as an identifier that must not be hashed.
func requestOptions(r *http.Request, base gravatar.Options) (opts gravatar.Options, hashEmail bool, err error) {
	q := r.URL.Query()
	opts = base
	hashEmail = true

	if v := q.Get("s"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			return opts, false, &gravatar.ConfigError{Field: "size", Reason: fmt.Sprintf("%q is not an integer", v)}
		}
		opts.Size = n
	}
	if q.Has("r") {
		opts.MaxRating = q.Get("r")
	}
	if q.Has("d") {
		opts.DefaultImage = q.Get("d")
	}
	if v := q.Get("f"); v != "" {
		if opts.ForceDefaultImage, err = parseFlag(v, "force_default_image"); err != nil {
			return opts, false, err
		}
	}
	if v := q.Get("secure"); v != "" {
		if opts.UseSecureTransport, err = parseFlag(v, "secure"); err != nil {
			return opts, false, err
		}
	}
	if v := q.Get("hashed"); v != "" {
		hashed, flagErr := parseFlag(v, "hashed")
		if flagErr != nil {
			return opts, false, flagErr
		}
		hashEmail = !hashed
	}
	return opts, hashEmail, nil
}

func (app *App) requestConfig(r *http.Request) (*gravatar.Config, bool, error) {
	opts, hashEmail, err := requestOptions(r, app.baseOptions(r))
	if err != nil {
		return nil, false, err
	}
	cfg, err := gravatar.New(opts)
	if err != nil {
		return nil, false, err
	}
	return cfg, hashEmail, nil
}

func (app *App) buildURL(r *http.Request) (string, error) {
	cfg, hashEmail, err := app.requestConfig(r)
	if err != nil {
		return "", err
	}
	app.Metrics.URLBuilt(cfg.UseSecureTransport())
	return cfg.BuildURL(r.URL.Query().Get("email"), hashEmail), nil
}

func (app *App) AvatarURLHandler(w http.ResponseWriter, r *http.Request) {
	url, err := app.buildURL(r)
	if err != nil {
		app.rejectConfig(w, err)
		return
	}

	resp := avatarResponse{URL: url}
	if preset := app.presetFromContext(r); preset != nil {
		resp.Preset = preset.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

func (app *App) AvatarRedirectHandler(w http.ResponseWriter, r *http.Request) {
	url, err := app.buildURL(r)
	if err != nil {
		app.rejectConfig(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

type PreviewPageData struct {
	Email        string
	Options      gravatar.Options
	URL          string
	Error        string
	ActivePreset string
	Presets      []models.Preset
}

func (app *App) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	slog.Info("Received request for preview", "method", r.Method, "path", r.URL.Path)
	page := PreviewPageData{
		Email:   r.URL.Query().Get("email"),
		Options: app.baseOptions(r),
	}
	if preset := app.presetFromContext(r); preset != nil {
		page.ActivePreset = preset.Name
	}

	// The preview always hashes; hashed identifiers go through /avatar.
	cfg, _, err := app.requestConfig(r)
	if err != nil {
		var cfgErr *gravatar.ConfigError
		if !errors.As(err, &cfgErr) {
			slog.Error("Failed to build preview config", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		app.Metrics.Rejected(err)
		page.Error = cfgErr.Error()

		// Templates still need a config; no URL is built from rejected options.
		cfg, err = gravatar.New(app.baseOptions(r))
		if err != nil {
			slog.Error("Failed to build preview config", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	} else {
		page.Options = cfg.Options()
	}

	if page.Email != "" && page.Error == "" {
		app.Metrics.URLBuilt(cfg.UseSecureTransport())
		page.URL = cfg.URL(page.Email)
	}

	presets, err := app.listPresets()
	if err != nil {
		slog.Error("Failed to load presets", "error", err)
		http.Error(w, "Failed to load presets", http.StatusInternalServerError)
		return
	}
	page.Presets = presets

	tmpl, err := app.Pages["preview"].Clone()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	err = tmpl.Funcs(utils.AvatarFuncs(cfg)).ExecuteTemplate(w, "layout", page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (app *App) ListPresetsHandler(w http.ResponseWriter, r *http.Request) {
	presets, err := app.listPresets()
	if err != nil {
		slog.Error("Failed to list presets", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}
	if presets == nil {
		presets = []models.Preset{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"presets": presets})
}

func (app *App) GetPresetHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	preset, err := app.getPreset(name)
	if err != nil {
		slog.Error("Failed to load preset", "preset", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}
	if preset == nil {
		writeError(w, http.StatusNotFound, "preset not found", "")
		return
	}
	writeJSON(w, http.StatusOK, preset)
}

func (app *App) PutPresetHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	// Omitted fields keep the construction defaults.
	opts := gravatar.DefaultOptions()
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}
	opts.Endpoints = app.Defaults.Endpoints

	cfg, err := gravatar.New(opts)
	if err != nil {
		app.rejectConfig(w, err)
		return
	}

	preset := models.PresetFromConfig(name, cfg)
	if err := app.savePreset(&preset); err != nil {
		slog.Error("Failed to save preset", "preset", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}

	slog.Info("Saved preset", "preset", name, "size", preset.Size, "max_rating", preset.MaxRating)
	writeJSON(w, http.StatusOK, preset)
}

func (app *App) DeletePresetHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	deleted, err := app.deletePreset(name)
	if err != nil {
		slog.Error("Failed to delete preset", "preset", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "preset not found", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) UsePresetHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	preset, err := app.getPreset(name)
	if err != nil {
		slog.Error("Failed to load preset", "preset", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}
	if preset == nil {
		writeError(w, http.StatusNotFound, "preset not found", "")
		return
	}

	session, _ := app.Store.Get(r, "session")
	session.Values["preset"] = preset.Name
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) ClearPresetHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := app.Store.Get(r, "session")
	delete(session.Values, "preset")
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type healthResponse struct {
	Status            string  `json:"status"`
	Database          string  `json:"database"`
	MemoryUsedPercent float64 `json:"memory_used_percent,omitempty"`
	Load1             float64 `json:"load1,omitempty"`
}

func (app *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok"}
	status := http.StatusOK

	if err := app.pingDB(); err != nil {
		slog.Error("Database ping failed", "error", err)
		resp.Status, resp.Database = "degraded", "unreachable"
		status = http.StatusServiceUnavailable
	}

	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		resp.MemoryUsedPercent = vm.UsedPercent
	} else {
		slog.Warn("Failed to read memory stats", "error", err)
	}
	if avg, err := load.AvgWithContext(r.Context()); err == nil {
		resp.Load1 = avg.Load1
	} else {
		slog.Warn("Failed to read load average", "error", err)
	}

	writeJSON(w, status, resp)
}
