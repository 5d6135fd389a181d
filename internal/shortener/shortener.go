package shortener

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"math/big"
	"net/url"
	"regexp"
	"strings"
)

// Alphabet is the base62 alphabet in character-code order: digits,
// uppercase, lowercase.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	// DefaultMaxLength bounds generated codes when no explicit limit is
	// configured.
	DefaultMaxLength = 10

	// hashPrefixBytes is how much of the SHA-256 digest feeds the code.
	hashPrefixBytes = 12

	// DefaultSuffixLength is the size of a collision-breaking random salt.
	DefaultSuffixLength = 4
)

var base = big.NewInt(int64(len(Alphabet)))

var customNameRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)

var ErrInvalidCharacter = errors.New("invalid base62 character")

// Generator derives deterministic short codes from URLs.
type Generator struct {
	maxLen int
}

func New(maxLen int) *Generator {
	if maxLen < 1 {
		maxLen = DefaultMaxLength
	}
	return &Generator{maxLen: maxLen}
}

// Generate hashes url+salt and encodes the leading 12 digest bytes as a
// big-endian integer in base62, truncated to the configured length. Same
// (url, salt) always yields the same code.
func (g *Generator) Generate(url, salt string) string {
	sum := sha256.Sum256([]byte(url + salt))
	n := new(big.Int).SetBytes(sum[:hashPrefixBytes])
	code := EncodeBase62(n)
	if len(code) > g.maxLen {
		code = code[:g.maxLen]
	}
	return code
}

// RandomSuffix draws n characters uniformly from the alphabet using a
// non-deterministic source. Used as a fresh salt after a code collision.
func (g *Generator) RandomSuffix(n int) (string, error) {
	if n < 1 {
		n = DefaultSuffixLength
	}
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		b[i] = Alphabet[idx.Int64()]
	}
	return string(b), nil
}

// EncodeBase62 renders n most-significant-digit first. Zero encodes to the
// first alphabet character.
func EncodeBase62(n *big.Int) string {
	if n.Sign() == 0 {
		return string(Alphabet[0])
	}
	num := new(big.Int).Set(n)
	rem := new(big.Int)
	buf := make([]byte, 0, 16)
	for num.Sign() > 0 {
		num.DivMod(num, base, rem)
		buf = append(buf, Alphabet[rem.Int64()])
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// DecodeBase62 recovers the integer encoded by EncodeBase62.
func DecodeBase62(s string) (*big.Int, error) {
	n := new(big.Int)
	for _, ch := range s {
		idx := strings.IndexRune(Alphabet, ch)
		if idx == -1 {
			return nil, ErrInvalidCharacter
		}
		n.Mul(n, base)
		n.Add(n, big.NewInt(int64(idx)))
	}
	return n, nil
}

// ValidateURL accepts absolute http/https URLs only.
func ValidateURL(raw string) bool {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// NormalizeURL strips surrounding whitespace and trailing slashes so that
// equivalent submissions dedupe to one mapping.
func NormalizeURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// ValidateCustomName permits alphanumeric names only.
func ValidateCustomName(name string) bool {
	return customNameRe.MatchString(name)
}
