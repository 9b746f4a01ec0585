package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "secret1", hash)

	require.True(t, CheckPassword("secret1", hash))
	require.False(t, CheckPassword("secret2", hash))
}

func TestValidEmail(t *testing.T) {
	cases := map[string]bool{
		"jane@example.com":        true,
		"j.doe+tag@mail.co.uk":    true,
		"":                        false,
		"jane":                    false,
		"jane@localhost":          false,
		"Jane <jane@example.com>": false,
		"@example.com":            false,
	}
	for in, want := range cases {
		require.Equal(t, want, ValidEmail(in), in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}
