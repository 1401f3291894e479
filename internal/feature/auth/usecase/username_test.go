package usecase

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsernameBase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"simple local part", "reader@example.com", "reader"},
		{"dots and plus", "jane.doe+books@example.com", "jane-doe-books"},
		{"unicode is transliterated", "émile@example.com", "emile"},
		{"empty local part falls back", "@example.com", "reader"},
		{"symbols only falls back", "+++@example.com", "reader"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, usernameBase(tt.email))
		})
	}
}

func TestUsernameBase_Truncates(t *testing.T) {
	t.Parallel()

	base := usernameBase(strings.Repeat("a", 200) + "@example.com")
	assert.Len(t, base, usernameMaxBase)
}

func TestDeriveUsername(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000123)

	t.Run("first attempt has no random suffix", func(t *testing.T) {
		t.Parallel()

		name, err := deriveUsername("a@example.com", now, 0)
		require.NoError(t, err)
		assert.Equal(t, "a_1700000000123", name)
	})

	t.Run("retries append a random suffix", func(t *testing.T) {
		t.Parallel()

		first, err := deriveUsername("a@example.com", now, 1)
		require.NoError(t, err)
		second, err := deriveUsername("a@example.com", now, 2)
		require.NoError(t, err)

		pattern := regexp.MustCompile(`^a_1700000000123_[0-9a-z]{6}$`)
		assert.Regexp(t, pattern, first)
		assert.Regexp(t, pattern, second)
		assert.NotEqual(t, first, second)
	})
}
