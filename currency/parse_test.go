package currency

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input     string
		expect    Amount
		expectErr string
	}{
		{"2.75", 275, ""},
		{" 2,75 ", 275, ""},
		{"100", 10000, ""},
		{"0.05", 5, ""},
		{"1.9", 190, ""},
		{"0", 0, ""},
		{"", 0, "amount empty"},
		{"-1", 0, "negative"},
		{"0.375", 0, "finer than minor unit"},
		{"abc", 0, "amount=abc"},
		{"99999999999", 0, "too large"},
		{"42949672.95", MaxAmount, ""},
		{"42949672.96", 0, "too large"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.input, func(t *testing.T) {
			a, err := ParseAmount(c.input)
			if c.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.expect, a)
		})
	}
}

func TestParseNominal(t *testing.T) {
	t.Parallel()
	n, err := ParseNominal("0.25", CanteenNominals)
	require.NoError(t, err)
	assert.Equal(t, Nominal(25), n)

	_, err = ParseNominal("0.37", CanteenNominals)
	assert.Equal(t, ErrNominalInvalid, errors.Cause(err))

	_, err = ParseAmount("abc")
	assert.True(t, errors.IsNotValid(err))
}

func TestAmountDecimal(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "2.75", Amount(275).Decimal().StringFixed(2))
}
