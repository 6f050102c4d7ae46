package gravatar

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
)

// placeholder is sent instead of an identifier when no email is given.
var placeholder = strings.Repeat("0", 32)

func HashEmail(email string) string {
	clean := strings.ToLower(strings.TrimSpace(email))
	hash := md5.Sum([]byte(clean))
	return hex.EncodeToString(hash[:])
}

// BuildURL returns the avatar URL for email. When hashEmail is false the
// email is used verbatim, which lets callers pass an identifier they
// hashed themselves.
func (c *Config) BuildURL(email string, hashEmail bool) string {
	var b strings.Builder

	if c.useSecureTransport {
		b.WriteString(c.endpoints.Secure)
	} else {
		b.WriteString(c.endpoints.Insecure)
	}

	switch {
	case hashEmail && email != "":
		b.WriteString(HashEmail(email))
	case email != "":
		b.WriteString(email)
	default:
		b.WriteString(placeholder)
	}

	params := []string{
		"s=" + strconv.Itoa(c.size),
		"r=" + c.maxRating,
	}
	if c.defaultImage != "" {
		params = append(params, "d="+c.defaultImage)
	}
	if c.forceDefaultImage {
		params = append(params, "f=y")
	}
	if len(params) > 0 {
		b.WriteString("?")
		b.WriteString(strings.Join(params, ";"))
	}

	return b.String()
}

// URL hashes email and builds its avatar URL. It is the form bound into
// template FuncMaps.
func (c *Config) URL(email string) string {
	return c.BuildURL(email, true)
}
