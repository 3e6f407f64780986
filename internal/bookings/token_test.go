package bookings

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenPattern = regexp.MustCompile(`^CD26-[23456789ABCDEFGHJKMNPQRSTUVWXYZ]{10}$`)

func fixedNow() time.Time {
	return time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
}

func TestTokenGenerator_Format(t *testing.T) {
	g := NewTokenGenerator("CD", fixedNow)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		token, err := g.Generate(context.Background(), func(context.Context, string) (bool, error) { return false, nil })
		require.NoError(t, err)
		assert.Regexp(t, tokenPattern, token)
		assert.False(t, seen[token], "duplicate token %s", token)
		seen[token] = true
	}
}

func TestRandomSuffix(t *testing.T) {
	suffixPattern := regexp.MustCompile(`^[23456789ABCDEFGHJKMNPQRSTUVWXYZ]{10}$`)

	seen := make(map[string]bool)
	used := make(map[rune]bool)
	for i := 0; i < 500; i++ {
		suffix := randomSuffix()
		require.Regexp(t, suffixPattern, suffix)
		assert.False(t, seen[suffix], "duplicate suffix %s", suffix)
		seen[suffix] = true
		for _, r := range suffix {
			used[r] = true
		}
	}
	// 5000 draws over 31 symbols reach every one of them.
	assert.Len(t, used, len(tokenAlphabet))
}

func TestNewTokenGenerator_UsesRandomSuffix(t *testing.T) {
	g := NewTokenGenerator("CD", fixedNow)
	assert.Regexp(t, tokenPattern, g.candidate())
}

func TestTokenGenerator_RetriesOnCollision(t *testing.T) {
	g := NewTokenGenerator("CD", fixedNow)
	suffixes := []string{"AAAAAAAAAA", "AAAAAAAAAA", "BBBBBBBBBB"}
	g.random = func() string {
		s := suffixes[0]
		suffixes = suffixes[1:]
		return s
	}

	taken := map[string]bool{"CD26-AAAAAAAAAA": true}
	token, err := g.Generate(context.Background(), func(_ context.Context, tok string) (bool, error) {
		return taken[tok], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "CD26-BBBBBBBBBB", token)
}

func TestTokenGenerator_Exhausted(t *testing.T) {
	g := NewTokenGenerator("CD", fixedNow)
	_, err := g.Generate(context.Background(), func(context.Context, string) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, errTokenExhausted)
}

func TestContactHash(t *testing.T) {
	a := ContactHash("  Ada@Example.com ", "+234 (803) 555-0100")
	b := ContactHash("ada@example.com", "2348035550100")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, ContactHash("ada@example.com", "2348035550101"))
}
