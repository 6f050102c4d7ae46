package web

import (
	"embed"
	"gravatarlib/internal/gravatar"
	"gravatarlib/internal/utils"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages are parsed once against a default config; render swaps in the
// request's config on a clone.
func LoadPages() map[string]*template.Template {
	funcs := utils.AvatarFuncs(gravatar.NewDefault())
	load := func(files ...string) *template.Template {
		return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, files...))
	}

	return map[string]*template.Template{
		"preview": load("templates/layout.html", "templates/preview.html"),
	}
}
