package affiliate_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/stretchr/testify/assert"
)

var generatedFormat = regexp.MustCompile(`^MR-[A-Z0-9]{6}$`)

func TestGenerateCode_MatchesFormatWithoutAmbiguousGlyphs(t *testing.T) {
	for i := 0; i < 2000; i++ {
		code := affiliate.GenerateCode()

		assert.Regexp(t, generatedFormat, code)
		assert.False(t, strings.ContainsAny(code[3:], "0O1I"), "ambiguous glyph in %s", code)
	}
}

func TestGenerateCode_ValidatesAfterNormalize(t *testing.T) {
	for i := 0; i < 500; i++ {
		code := affiliate.GenerateCode()

		assert.True(t, affiliate.ValidateCode(affiliate.NormalizeCode(code)))
		assert.True(t, affiliate.ValidateCode(affiliate.NormalizeCode("  "+strings.ToLower(code)+"\n")))
	}
}

func TestGenerateCode_ProducesDistinctCodes(t *testing.T) {
	seen := make(map[string]struct{}, 200)
	for i := 0; i < 200; i++ {
		seen[affiliate.GenerateCode()] = struct{}{}
	}
	// 32^6 combinations; a handful of collisions in 200 draws would point at a broken reader.
	assert.Greater(t, len(seen), 195)
}

func TestNormalizeCode_Idempotent(t *testing.T) {
	once := affiliate.NormalizeCode("  mr-abc234 ")
	twice := affiliate.NormalizeCode(once)

	assert.Equal(t, "MR-ABC234", once)
	assert.Equal(t, once, twice)
}

func TestValidateCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"generated", "MR-ABCDEF", true},
		{"lowercase accepted after uppercasing", "mr-abcdef", true},
		{"too short", "MR-ABCDE", false},
		{"too long", "MR-ABCDEFG", false},
		{"wrong prefix", "XX-ABCDEF", false},
		{"symbol", "MR-ABC_EF", false},
		{"surrounding spaces are not trimmed", " MR-ABCDEF", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, affiliate.ValidateCode(tt.code))
		})
	}
}

func TestValidateCustomCode(t *testing.T) {
	assert.NoError(t, affiliate.ValidateCustomCode("summer-2026"))
	assert.NoError(t, affiliate.ValidateCustomCode("ABC"))

	assert.ErrorIs(t, affiliate.ValidateCustomCode("ab"), affiliate.ErrInvalidCode)
	assert.ErrorIs(t, affiliate.ValidateCustomCode(strings.Repeat("A", 21)), affiliate.ErrInvalidCode)
	assert.ErrorIs(t, affiliate.ValidateCustomCode("hello world"), affiliate.ErrInvalidCode)
	assert.ErrorIs(t, affiliate.ValidateCustomCode("mr-custom"), affiliate.ErrInvalidCode)
}
