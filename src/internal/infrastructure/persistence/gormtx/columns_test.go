package gormtx

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCents_RoundTrip(t *testing.T) {
	for _, s := range []string{"0", "0.01", "2500", "2500.5", "19.99", "123456789.12"} {
		d := decimal.RequireFromString(s)

		cents, err := ToCents(d)
		require.NoError(t, err, s)
		assert.True(t, d.Equal(FromCents(cents)), s)
	}

	cents, err := ToCents(decimal.NewFromInt(2500))
	require.NoError(t, err)
	assert.Equal(t, int64(250000), cents)
	assert.Equal(t, "25.03", FromCents(2503).String())
}

func TestToCents_RefusesValuesOutsideInt64(t *testing.T) {
	largest := FromCents(math.MaxInt64)
	cents, err := ToCents(largest)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), cents)

	for _, s := range []string{"92233720368547758.08", "20000000000000000000.00", "-92233720368547758.09"} {
		_, err := ToCents(decimal.RequireFromString(s))
		assert.ErrorIs(t, err, ErrCentsOutOfRange, s)
	}
}
