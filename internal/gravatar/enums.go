package gravatar

import (
	"fmt"
	"strings"
)

// Keyword selects an image generated by Gravatar when the address has no avatar.
type Keyword string

const (
	Keyword404        Keyword = "404"
	KeywordMysteryMan Keyword = "mm"
	KeywordIdenticon  Keyword = "identicon"
	KeywordMonsterID  Keyword = "monsterid"
	KeywordWavatar    Keyword = "wavatar"
	KeywordRetro      Keyword = "retro"
	KeywordBlank      Keyword = "blank"
)

func Keywords() []Keyword {
	return []Keyword{
		Keyword404,
		KeywordMysteryMan,
		KeywordIdenticon,
		KeywordMonsterID,
		KeywordWavatar,
		KeywordRetro,
		KeywordBlank,
	}
}

// ParseKeyword matches s case-insensitively against the fallback keywords.
func ParseKeyword(s string) (Keyword, bool) {
	switch k := Keyword(strings.ToLower(s)); k {
	case Keyword404, KeywordMysteryMan, KeywordIdenticon, KeywordMonsterID,
		KeywordWavatar, KeywordRetro, KeywordBlank:
		return k, true
	}
	return "", false
}

// Rating is the maximum content rating Gravatar may serve.
type Rating string

const (
	RatingG  Rating = "g"
	RatingPG Rating = "pg"
	RatingR  Rating = "r"
	RatingX  Rating = "x"
)

func Ratings() []Rating {
	return []Rating{RatingG, RatingPG, RatingR, RatingX}
}

func ParseRating(s string) (Rating, error) {
	switch r := Rating(strings.ToLower(s)); r {
	case RatingG, RatingPG, RatingR, RatingX:
		return r, nil
	}
	return "", &ConfigError{
		Field:  "max_rating",
		Reason: fmt.Sprintf("rating %q is invalid, use only \"g\", \"pg\", \"r\" or \"x\"", s),
	}
}
