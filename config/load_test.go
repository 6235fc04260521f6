package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheTTL(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{"plain duration", "2m", 2 * time.Minute},
		{"explicit zero disables the cache", "0", 0},
		{"explicit zero seconds disables the cache", "0s", 0},
		{"garbage falls back", "soon", 30 * time.Second},
		{"empty falls back", "", 30 * time.Second},
		{"negative falls back", "-5s", 30 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := App{StatsCacheTTL: tc.raw}
			require.Equal(t, tc.want, a.CacheTTL())
		})
	}
}
