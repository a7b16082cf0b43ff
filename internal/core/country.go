package core

import (
	"strings"
	"sync"

	"github.com/biter777/countries"
)

// ResolveISO3 returns the ISO 3166 alpha-3 code for a known alpha-2 code.
// Matching is case-insensitive. Anything else is returned unchanged.
func ResolveISO3(code string) string {
	alpha2 := strings.ToUpper(strings.TrimSpace(code))
	if len(alpha2) != 2 {
		return code
	}
	c := countries.ByName(alpha2)
	if c == countries.Unknown || c.Alpha2() != alpha2 {
		return code
	}
	return c.Alpha3()
}

// CountryName returns the English name of an ISO3 code, or the code itself
// when it is unknown.
func CountryName(iso3 string) string {
	c := countries.ByName(strings.ToUpper(strings.TrimSpace(iso3)))
	if c == countries.Unknown {
		return iso3
	}
	return c.String()
}

// CountryResolver memoizes ResolveISO3. The zero value is ready to use.
type CountryResolver struct {
	mu    sync.RWMutex
	cache map[string]string
}

func NewCountryResolver() *CountryResolver {
	return &CountryResolver{cache: make(map[string]string)}
}

// ISO3 resolves code, consulting the memo first.
func (r *CountryResolver) ISO3(code string) string {
	r.mu.RLock()
	v, ok := r.cache[code]
	r.mu.RUnlock()
	if ok {
		return v
	}

	v = ResolveISO3(code)

	r.mu.Lock()
	if r.cache == nil {
		r.cache = make(map[string]string)
	}
	r.cache[code] = v
	r.mu.Unlock()
	return v
}
