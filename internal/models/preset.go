package models

import (
	"gravatarlib/internal/gravatar"
	"time"
)

// Preset is a named set of display options. DefaultImage keeps the raw
// input so URL fallbacks are re-validated, not double encoded, on load.
type Preset struct {
	Name               string    `gorm:"column:name;primaryKey"         json:"name"`
	Size               int       `gorm:"column:size"                    json:"size"`
	DefaultImage       string    `gorm:"column:default_image"           json:"default_image"`
	ForceDefaultImage  bool      `gorm:"column:force_default"           json:"force_default_image"`
	MaxRating          string    `gorm:"column:max_rating"              json:"max_rating"`
	UseSecureTransport bool      `gorm:"column:secure"                  json:"secure"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Preset) TableName() string { return "preset" }

func PresetFromConfig(name string, c *gravatar.Config) Preset {
	opts := c.Options()
	return Preset{
		Name:               name,
		Size:               opts.Size,
		DefaultImage:       opts.DefaultImage,
		ForceDefaultImage:  opts.ForceDefaultImage,
		MaxRating:          opts.MaxRating,
		UseSecureTransport: opts.UseSecureTransport,
	}
}

func (p Preset) Options(endpoints gravatar.Endpoints) gravatar.Options {
	return gravatar.Options{
		Size:               p.Size,
		DefaultImage:       p.DefaultImage,
		ForceDefaultImage:  p.ForceDefaultImage,
		MaxRating:          p.MaxRating,
		UseSecureTransport: p.UseSecureTransport,
		Endpoints:          endpoints,
	}
}

func (p Preset) Config(endpoints gravatar.Endpoints) (*gravatar.Config, error) {
	return gravatar.New(p.Options(endpoints))
}
