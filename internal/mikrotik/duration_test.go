package mikrotik

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"45s", 45},
		{"4m5s", 245},
		{"2d3h4m5s", 2*86400 + 3*3600 + 4*60 + 5},
		{"1w", 7 * 86400},
		{"1w6h", 7*86400 + 6*3600},
		{"  10s ", 10},
		{"100", 0},     // trailing number without unit
		{"2d3h4m5", 0}, // ditto
		{"abc", 0},
		{"5x", 0},
		{"d", 0}, // unit without number
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseDuration(tc.in))
		})
	}
}

func TestParseBytes(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"0", 0},
		{"123456", 123456},
		{"1KiB", 1024},
		{"1.5MiB", 1536 * 1024},
		{"2GB", 2 << 30},
		{"1TiB", 1 << 40},
		{"10 MB", 10 << 20},
		{"garbage", 0},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseBytes(tc.in))
		})
	}
}
