package ota

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestExpand checks substitution of every placeholder occurrence.
func TestExpand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		template string
		model    string
		want     string
	}{
		{"single", "https://u.example.com/[DEVICE]/test.txt", "PB626", "https://u.example.com/PB626/test.txt"},
		{"repeated", "https://u.example.com/[DEVICE]/[DEVICE].zip", "PB740", "https://u.example.com/PB740/PB740.zip"},
		{"none", "https://u.example.com/version.txt", "PB626", "https://u.example.com/version.txt"},
		{"empty model", "https://u.example.com/[DEVICE]", "", "https://u.example.com/"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Expand(tc.template, tc.model)
			require.Equal(t, tc.want, got)
			require.Equal(t, got, Expand(got, tc.model))
		})
	}
}
