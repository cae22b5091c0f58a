package carriers

import (
	"strings"
	"unicode"
)

const (
	UnknownName = "Unknown"
	UnknownKey  = "unknown"
)

type Result struct {
	Carrier     string `json:"provider"`
	Key         string `json:"providerKey"`
	TrackingURL string `json:"trackingUrl,omitempty"`
}

func (r Result) Known() bool {
	return r.Key != UnknownKey
}

// Normalize trims the input, drops whitespace and hyphens and upper-cases it.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ToUpper(s)
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Detect returns the first catalog rule whose pattern matches the whole normalized number.
func Detect(raw string) Result {
	n := Normalize(raw)
	for _, r := range catalog {
		for _, p := range r.Patterns {
			if p.MatchString(n) {
				return Result{
					Carrier:     r.Name,
					Key:         strings.ToLower(r.Key),
					TrackingURL: r.TrackingURL + n,
				}
			}
		}
	}
	return Result{Carrier: UnknownName, Key: UnknownKey}
}
