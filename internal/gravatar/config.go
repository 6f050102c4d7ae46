// Package gravatar builds avatar URLs for the Gravatar service.
//
// A Config holds validated display options. Every setter checks its value
// and leaves the config untouched when it rejects one, so a Config can never
// hold an invalid combination. Configs carry no locks; share one across
// goroutines only if nobody mutates it.
package gravatar

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	MinSize     = 0
	MaxSize     = 2048
	DefaultSize = 80
)

type Endpoints struct {
	Secure   string `json:"secure"`
	Insecure string `json:"insecure"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Secure:   "https://www.gravatar.com/avatar/",
		Insecure: "http://www.gravatar.com/avatar/",
	}
}

func (e Endpoints) Validate() error {
	if !isAbsoluteURL(e.Secure) {
		return &ConfigError{Field: "endpoints.secure", Reason: fmt.Sprintf("%q is not an absolute URL", e.Secure)}
	}
	if !isAbsoluteURL(e.Insecure) {
		return &ConfigError{Field: "endpoints.insecure", Reason: fmt.Sprintf("%q is not an absolute URL", e.Insecure)}
	}
	return nil
}

// Options are the raw inputs a Config is built from.
type Options struct {
	Size               int       `json:"size"`
	DefaultImage       string    `json:"default_image"`
	ForceDefaultImage  bool      `json:"force_default_image"`
	MaxRating          string    `json:"max_rating"`
	UseSecureTransport bool      `json:"secure"`
	Endpoints          Endpoints `json:"-"`
}

func DefaultOptions() Options {
	return Options{
		Size:      DefaultSize,
		MaxRating: string(RatingG),
		Endpoints: DefaultEndpoints(),
	}
}

type Config struct {
	size               int
	defaultImage       string
	defaultImageInput  string
	forceDefaultImage  bool
	maxRating          string
	useSecureTransport bool
	endpoints          Endpoints
}

// New runs every option through its setter. A zero Endpoints falls back to
// DefaultEndpoints.
func New(opts Options) (*Config, error) {
	c := &Config{}

	endpoints := opts.Endpoints
	if endpoints == (Endpoints{}) {
		endpoints = DefaultEndpoints()
	}
	if err := c.SetEndpoints(endpoints); err != nil {
		return nil, err
	}
	if err := c.SetSize(opts.Size); err != nil {
		return nil, err
	}
	if err := c.SetDefaultImage(opts.DefaultImage); err != nil {
		return nil, err
	}
	if err := c.SetMaxRating(opts.MaxRating); err != nil {
		return nil, err
	}
	c.SetForceDefaultImage(opts.ForceDefaultImage)
	c.SetUseSecureTransport(opts.UseSecureTransport)

	return c, nil
}

func NewDefault() *Config {
	c, err := New(DefaultOptions())
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Config) Size() int { return c.size }

func (c *Config) SetSize(size int) error {
	if size < MinSize || size > MaxSize {
		return &ConfigError{
			Field:  "size",
			Reason: fmt.Sprintf("size must be within %d and %d, got %d", MinSize, MaxSize, size),
		}
	}
	c.size = size
	return nil
}

// DefaultImage returns the keyword as given, or the percent-encoded URL.
func (c *Config) DefaultImage() string { return c.defaultImage }

// SetDefaultImage accepts an absolute URL, a fallback keyword in any case,
// or the empty string for no fallback. URLs are lower-cased and then
// percent-encoded as a whole.
func (c *Config) SetDefaultImage(image string) error {
	lower := strings.ToLower(image)

	switch {
	case isAbsoluteURL(lower):
		c.defaultImage = rawURLEncode(lower)
	case image == "":
		c.defaultImage = ""
	default:
		if _, ok := ParseKeyword(image); !ok {
			return &ConfigError{
				Field:  "default_image",
				Reason: fmt.Sprintf("%q is not a valid URL or a Gravatar default keyword", image),
			}
		}
		c.defaultImage = image
	}
	c.defaultImageInput = image
	return nil
}

func (c *Config) ForceDefaultImage() bool { return c.forceDefaultImage }

func (c *Config) SetForceDefaultImage(force bool) { c.forceDefaultImage = force }

func (c *Config) MaxRating() string { return c.maxRating }

// SetMaxRating stores the rating with the caller's casing.
func (c *Config) SetMaxRating(rating string) error {
	if _, err := ParseRating(rating); err != nil {
		return err
	}
	c.maxRating = rating
	return nil
}

func (c *Config) UseSecureTransport() bool { return c.useSecureTransport }

func (c *Config) SetUseSecureTransport(secure bool) { c.useSecureTransport = secure }

func (c *Config) Endpoints() Endpoints { return c.endpoints }

func (c *Config) SetEndpoints(e Endpoints) error {
	if err := e.Validate(); err != nil {
		return err
	}
	c.endpoints = e
	return nil
}

// Options returns inputs that rebuild an identical Config through New.
func (c *Config) Options() Options {
	return Options{
		Size:               c.size,
		DefaultImage:       c.defaultImageInput,
		ForceDefaultImage:  c.forceDefaultImage,
		MaxRating:          c.maxRating,
		UseSecureTransport: c.useSecureTransport,
		Endpoints:          c.endpoints,
	}
}

func isAbsoluteURL(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// rawURLEncode escapes everything outside the RFC 3986 unreserved set.
func rawURLEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
