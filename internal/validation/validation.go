package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrBitsEmpty is returned when the bit string is empty or whitespace-only after trim.
var ErrBitsEmpty = errors.New("bits are required")

// ErrBitsTooShort is returned when the bit string length is below the minimum.
var ErrBitsTooShort = errors.New("bit string too short")

// ErrBitsTooLong is returned when the bit string length exceeds the maximum.
var ErrBitsTooLong = errors.New("bit string too long")

// ErrBitsInvalidChar is returned when the bit string contains characters other than 0 and 1.
var ErrBitsInvalidChar = errors.New("bit string contains characters other than 0 and 1")

// ErrNameEmpty is returned when a fingerprint name is empty or whitespace-only after trim.
var ErrNameEmpty = errors.New("name is required")

// ErrNameTooLong is returned when a fingerprint name exceeds MaxNameLength runes.
var ErrNameTooLong = errors.New("name too long")

// ErrNameInvalidChars is returned when a fingerprint name contains disallowed characters.
var ErrNameInvalidChars = errors.New("name contains invalid characters")

// ErrLengthMismatch is returned when two bit strings in one request differ in length.
var ErrLengthMismatch = errors.New("bit strings must have equal length")

// MaxNameLength is the default bound on fingerprint names in runes.
const MaxNameLength = 128

// ValidateBitString trims the input, enforces length bounds (minLen, maxLen in bits),
// and restricts characters to 0 and 1. Returns the trimmed string or an error
// suitable for 400 INVALID_BITS responses.
func ValidateBitString(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	n := len(s)
	if n == 0 {
		return "", ErrBitsEmpty
	}
	if minLen > 0 && n < minLen {
		return "", ErrBitsTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrBitsTooLong
	}
	for i := 0; i < n; i++ {
		if s[i] != '0' && s[i] != '1' {
			return "", ErrBitsInvalidChar
		}
	}
	return s, nil
}

// ValidateName trims the input, enforces a non-empty name of at most maxLen runes
// (MaxNameLength when maxLen <= 0), and restricts to allowed characters: letters
// (Unicode), digits, hyphen, underscore, period, colon. Returns the trimmed string
// or an error suitable for 400 INVALID_NAME responses.
func ValidateName(input string, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = MaxNameLength
	}
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrNameEmpty
	}
	if n > maxLen {
		return "", ErrNameTooLong
	}
	for _, c := range r {
		if !isAllowedNameRune(c) {
			return "", ErrNameInvalidChars
		}
	}
	return s, nil
}

// ValidatePair checks that two already-validated bit strings agree in length.
// The mask, when present, is held to the same length as the vectors.
func ValidatePair(x, y string) error {
	if len(x) != len(y) {
		return ErrLengthMismatch
	}
	return nil
}

// isAllowedNameRune returns true for letters (Unicode), digits, hyphen, underscore,
// period, colon.
func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case '-', '_', '.', ':':
		return true
	}
	return false
}
