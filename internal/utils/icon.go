package utils

import (
	"gravatarlib/internal/gravatar"
	"html/template"
)

// AvatarFuncs exposes c to templates as {{ gravatar .Email }}.
func AvatarFuncs(c *gravatar.Config) template.FuncMap {
	return template.FuncMap{
		"gravatar":     c.URL,
		"gravatarHash": gravatar.HashEmail,
		"datetime":     FormatDate,
	}
}
