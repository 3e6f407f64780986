package bookings

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"
)

// tokenAlphabet drops 0/O and 1/I/L so tokens survive being read aloud.
const tokenAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const (
	tokenRandomLength = 10
	maxTokenAttempts  = 5
)

var errTokenExhausted = errors.New("could not generate a unique booking token")

// TokenGenerator builds booking tokens of the form <prefix><yy>-<10 chars>.
type TokenGenerator struct {
	prefix string
	now    func() time.Time
	random func() string
}

func NewTokenGenerator(prefix string, now func() time.Time) *TokenGenerator {
	if now == nil {
		now = time.Now
	}
	return &TokenGenerator{
		prefix: prefix,
		now:    now,
		random: randomSuffix,
	}
}

// randomSuffix draws tokenRandomLength characters uniformly from
// tokenAlphabet.
func randomSuffix() string {
	max := big.NewInt(int64(len(tokenAlphabet)))
	buf := make([]byte, tokenRandomLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is gone
			panic(fmt.Sprintf("booking token: %v", err))
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf)
}

func (g *TokenGenerator) candidate() string {
	return fmt.Sprintf("%s%02d-%s", g.prefix, g.now().Year()%100, g.random())
}

// Generate returns a token that exists reports as unused, retrying on
// collision.
func (g *TokenGenerator) Generate(ctx context.Context, exists func(ctx context.Context, token string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token := g.candidate()
		taken, err := exists(ctx, token)
		if err != nil {
			return "", fmt.Errorf("failed to check booking token: %w", err)
		}
		if !taken {
			return token, nil
		}
	}
	return "", errTokenExhausted
}

// ContactHash is the SHA-256 of the normalised email and the digits of the
// mobile number.
func ContactHash(email, mobile string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, mobile)

	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email)) + "|" + digits))
	return hex.EncodeToString(sum[:])
}
