package core

import (
	"sync"
	"testing"
)

func TestResolveISO3(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"US", "USA"},
		{"BR", "BRA"},
		{"DE", "DEU"},
		{"gb", "GBR"},
		{"ZZ", "ZZ"},
		{"", ""},
		{"USA", "USA"},
		{"Brazil", "Brazil"},
	}
	for _, tc := range cases {
		if got := ResolveISO3(tc.in); got != tc.out {
			t.Fatalf("%q expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestCountryResolverConcurrentUse(t *testing.T) {
	var r CountryResolver
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, code := range []string{"US", "BR", "ZZ", "PT"} {
				_ = r.ISO3(code)
			}
		}()
	}
	wg.Wait()

	if got := r.ISO3("PT"); got != "PRT" {
		t.Fatalf("expected PRT, got %q", got)
	}
	if got := r.ISO3("ZZ"); got != "ZZ" {
		t.Fatalf("expected pass-through, got %q", got)
	}
}

func TestCountryName(t *testing.T) {
	if got := CountryName("BRA"); got != "Brazil" {
		t.Fatalf("expected Brazil, got %q", got)
	}
	if got := CountryName("QQQ"); got != "QQQ" {
		t.Fatalf("unknown code should pass through, got %q", got)
	}
}
