package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const saltChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const keyLen = 64

type scryptParams struct {
	N, R, P int
}

var defaultParams = scryptParams{N: 32768, R: 8, P: 1}

func genSalt(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("salt length must be at least 1")
	}

	limit := 256 - (256 % len(saltChars))
	out := make([]byte, 0, length)
	var b [1]byte
	for len(out) < length {
		if _, err := rand.Read(b[:]); err != nil {
			return "", fmt.Errorf("rand: %w", err)
		}
		if int(b[0]) < limit {
			out = append(out, saltChars[int(b[0])%len(saltChars)])
		}
	}
	return string(out), nil
}

// GeneratePasswordHash returns "scrypt:N:r:p$salt$hex", the format the
// admin.password_hash setting expects.
func GeneratePasswordHash(password string) (string, error) {
	return generateWith(password, defaultParams)
}

func generateWith(password string, p scryptParams) (string, error) {
	salt, err := genSalt(16)
	if err != nil {
		return "", err
	}

	dk, err := scrypt.Key([]byte(password), []byte(salt), p.N, p.R, p.P, keyLen)
	if err != nil {
		return "", fmt.Errorf("scrypt: %w", err)
	}

	return fmt.Sprintf("scrypt:%d:%d:%d$%s$%s", p.N, p.R, p.P, salt, hex.EncodeToString(dk)), nil
}

func parseMethod(method string) (scryptParams, bool) {
	m := strings.Split(method, ":")
	if len(m) != 4 || m[0] != "scrypt" {
		return scryptParams{}, false
	}
	var vals [3]int
	for i, s := range m[1:] {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return scryptParams{}, false
		}
		vals[i] = v
	}
	if vals[0] <= 1 {
		return scryptParams{}, false
	}
	return scryptParams{N: vals[0], R: vals[1], P: vals[2]}, true
}

func CheckPasswordHash(hash string, password string) bool {
	parts := strings.SplitN(hash, "$", 3)
	if len(parts) != 3 {
		return false
	}

	p, ok := parseMethod(parts[0])
	if !ok {
		return false
	}
	salt, want := parts[1], parts[2]

	dk, err := scrypt.Key([]byte(password), []byte(salt), p.N, p.R, p.P, keyLen)
	if err != nil {
		return false
	}
	got := hex.EncodeToString(dk)

	if len(got) != len(want) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
