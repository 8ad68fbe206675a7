package cli

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const (
	uppercaseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowercaseChars = "abcdefghijklmnopqrstuvwxyz"
	digitChars     = "0123456789"
	symbolChars    = "!@#$%^&*()_+-=[]{}|;:,.<>?"

	// characters easy to confuse with each other: 0/O and l/1
	lookAlikeChars = "0Ol1"
)

// ErrEmptyCharset is returned when the selected options leave no characters
// to draw from.
var ErrEmptyCharset = errors.New("password generator: empty character set")

// GeneratorOptions controls the composition of generated passwords.
type GeneratorOptions struct {
	Length            int
	Uppercase         bool
	Lowercase         bool
	Digits            bool
	Symbols           bool
	ExcludeLookAlikes bool
}

// DefaultGeneratorOptions returns the options used by the "generate" command
// when the user does not override the length: 16 characters drawn from all
// four classes, with look-alike characters excluded.
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		Length:            16,
		Uppercase:         true,
		Lowercase:         true,
		Digits:            true,
		Symbols:           true,
		ExcludeLookAlikes: true,
	}
}

// GeneratePassword produces a random password according to opts, using
// crypto/rand as the entropy source.
func GeneratePassword(opts GeneratorOptions) (string, error) {
	if opts.Length < 1 {
		return "", errors.New("password generator: length must be positive")
	}

	var chars string
	if opts.Uppercase {
		chars += uppercaseChars
	}
	if opts.Lowercase {
		chars += lowercaseChars
	}
	if opts.Digits {
		chars += digitChars
	}
	if opts.Symbols {
		chars += symbolChars
	}

	if opts.ExcludeLookAlikes {
		for _, c := range lookAlikeChars {
			chars = strings.ReplaceAll(chars, string(c), "")
		}
	}

	if chars == "" {
		return "", ErrEmptyCharset
	}

	max := big.NewInt(int64(len(chars)))
	var b strings.Builder
	b.Grow(opts.Length)
	for i := 0; i < opts.Length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(chars[n.Int64()])
	}
	return b.String(), nil
}
