package currency

import (
	"math"
	"strings"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

// ParseAmount reads decimal text like "2.75" or "2,75" into exact minor units.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.NotValidf("amount empty")
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return 0, errors.NewNotValid(err, "amount="+s)
	}
	if d.IsNegative() {
		return 0, errors.NotValidf("amount=%s negative", s)
	}
	cents := d.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, errors.NotValidf("amount=%s finer than minor unit", s)
	}
	if cents.GreaterThan(decimal.NewFromInt(math.MaxUint32)) {
		return 0, errors.NotValidf("amount=%s too large", s)
	}
	return Amount(cents.IntPart()), nil
}

func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic("code error MustParseAmount: " + err.Error())
	}
	return a
}

// ParseNominal reads decimal text and checks it is one of valid.
func ParseNominal(s string, valid []Nominal) (Nominal, error) {
	a, err := ParseAmount(s)
	if err != nil {
		return 0, err
	}
	for _, n := range valid {
		if Nominal(a) == n {
			return n, nil
		}
	}
	return 0, errors.Annotatef(ErrNominalInvalid, "nominal=%s", s)
}

func (self Amount) Decimal() decimal.Decimal { return decimal.New(int64(self), -2) }
