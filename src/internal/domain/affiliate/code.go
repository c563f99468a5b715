package affiliate

import (
	"crypto/rand"
	"regexp"
	"strings"
)

// ===========================
// Affiliate codes
// ===========================

const (
	// CodePrefix starts every generated code.
	CodePrefix = "MR-"

	// codeAlphabet has 32 symbols: A-Z and 2-9 without 0, O, 1 and I.
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

var (
	generatedCodePattern = regexp.MustCompile(`^MR-[A-Z0-9]{6}$`)
	customCodePattern    = regexp.MustCompile(`^[A-Z0-9-]{3,20}$`)
)

// GenerateCode returns a random MR-XXXXXX code. Uniqueness is not guaranteed;
// the storage layer enforces it and callers retry on collision.
//
// 256 is a multiple of the 32-symbol alphabet, so byte % 32 is unbiased.
func GenerateCode() string {
	var buf [codeLength]byte
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(buf[:])

	var b strings.Builder
	b.Grow(len(CodePrefix) + codeLength)
	b.WriteString(CodePrefix)
	for _, v := range buf {
		b.WriteByte(codeAlphabet[int(v)%len(codeAlphabet)])
	}
	return b.String()
}

// NormalizeCode uppercases and trims whitespace. Idempotent.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode checks the generated-code format after uppercasing. It does not
// check existence.
func ValidateCode(code string) bool {
	return generatedCodePattern.MatchString(strings.ToUpper(code))
}

// ValidateCustomCode checks a vanity code: 3-20 characters of A-Z, 0-9 and '-'.
// Custom codes may not use the generated prefix so the two namespaces never
// collide by construction.
func ValidateCustomCode(code string) error {
	normalized := NormalizeCode(code)
	if !customCodePattern.MatchString(normalized) {
		return ErrInvalidCode.WithContext("code", code, "reason", "must be 3-20 characters of A-Z, 0-9 or '-'")
	}
	if strings.HasPrefix(normalized, CodePrefix) {
		return ErrInvalidCode.WithContext("code", code, "reason", "prefix MR- is reserved")
	}
	return nil
}
