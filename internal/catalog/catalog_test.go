package catalog

import (
	"testing"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)

func newTestCatalog(t testing.TB) *Catalog {
	c := New(log2.NewTest(t, log2.LDebug))
	c.now = func() time.Time { return testToday }
	require.NoError(t, c.Register(Product{Code: 1, Name: "coxinha", Kind: "snack", Price: 650}))
	require.NoError(t, c.Register(Product{Code: 2, Name: "suco", Kind: "drink", Price: 500}))
	require.NoError(t, c.AddStock(1, 10))
	require.NoError(t, c.AddStock(2, 3))
	return c
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		check func(testing.TB, *Catalog)
	}{
		{"register-duplicate", func(t testing.TB, c *Catalog) {
			err := c.Register(Product{Code: 1, Name: "other", Price: 1})
			assert.Equal(t, ErrDuplicate, errors.Cause(err))
		}},
		{"register-invalid", func(t testing.TB, c *Catalog) {
			err := c.Register(Product{Code: 0, Name: "", Price: 0})
			require.Error(t, err)
			assert.True(t, errors.IsNotValid(err), "err=%v", err)
			_, ok := c.Get(0)
			assert.False(t, ok)
		}},
		{"register-past-validity", func(t testing.TB, c *Catalog) {
			yesterday := testToday.AddDate(0, 0, -1)
			err := c.Register(Product{Code: 5, Name: "bolo", Price: 425, ValidUntil: &yesterday})
			assert.Equal(t, ErrExpired, errors.Cause(err), "err=%v", err)
			_, ok := c.Get(5)
			assert.False(t, ok)
			today := time.Date(2026, 10, 19, 0, 0, 0, 0, time.Local)
			require.NoError(t, c.Register(Product{Code: 5, Name: "bolo", Price: 425, ValidUntil: &today}))
		}},
		{"delete", func(t testing.TB, c *Catalog) {
			require.NoError(t, c.Delete(2))
			assert.Equal(t, 0, c.Available(2))
			assert.Equal(t, ErrNotFound, errors.Cause(c.Delete(2)))
		}},
		{"stock-quantity", func(t testing.TB, c *Catalog) {
			assert.Equal(t, ErrInvalidQuantity, errors.Cause(c.AddStock(1, 0)))
			assert.Equal(t, ErrInvalidQuantity, errors.Cause(c.RemoveStock(1, -2)))
			assert.Equal(t, ErrNotFound, errors.Cause(c.AddStock(99, 1)))
			assert.Equal(t, ErrInsufficientStock, errors.Cause(c.RemoveStock(2, 4)))
			require.NoError(t, c.RemoveStock(2, 3))
			assert.Equal(t, 0, c.Available(2))
		}},
		{"queries", func(t testing.TB, c *Catalog) {
			name, ok := c.Name(1)
			assert.True(t, ok)
			assert.Equal(t, "coxinha", name)
			_, ok = c.Name(42)
			assert.False(t, ok)
			assert.Equal(t, 0, c.Available(42))
			list := c.List()
			require.Len(t, list, 2)
			assert.Equal(t, 1, list[0].Code)
			assert.Equal(t, 10, list[0].Stock)
		}},
		{"price", func(t testing.TB, c *Catalog) {
			total, err := c.Price(Cart{1: 2, 2: 1})
			require.NoError(t, err)
			assert.Equal(t, currency.Amount(1800), total)
			lines, total, err := c.Quote(Cart{2: 1, 1: 2})
			require.NoError(t, err)
			assert.Equal(t, currency.Amount(1800), total)
			assert.Equal(t, []Line{
				{Code: 1, Name: "coxinha", Qty: 2, UnitPrice: 650},
				{Code: 2, Name: "suco", Qty: 1, UnitPrice: 500},
			}, lines)
			_, err = c.Price(Cart{2: 4})
			assert.Equal(t, ErrInsufficientStock, errors.Cause(err))
			_, err = c.Price(Cart{7: 1})
			assert.Equal(t, ErrNotFound, errors.Cause(err))
		}},
		{"take-all-or-nothing", func(t testing.TB, c *Catalog) {
			_, err := c.Take(Cart{1: 2, 2: 5})
			assert.Equal(t, ErrInsufficientStock, errors.Cause(err))
			assert.Equal(t, 10, c.Available(1))
			assert.Equal(t, 3, c.Available(2))

			total, err := c.Take(Cart{1: 2, 2: 3})
			require.NoError(t, err)
			assert.Equal(t, currency.Amount(2800), total)
			assert.Equal(t, 8, c.Available(1))
			assert.Equal(t, 0, c.Available(2))

			c.PutBack(Cart{1: 2, 2: 3})
			assert.Equal(t, 10, c.Available(1))
			assert.Equal(t, 3, c.Available(2))
		}},
		{"price-overflow", func(t testing.TB, c *Catalog) {
			require.NoError(t, c.Register(Product{Code: 9, Name: "ouro", Price: currency.MaxAmount}))
			require.NoError(t, c.AddStock(9, 2))
			total, err := c.Price(Cart{9: 1})
			require.NoError(t, err)
			assert.Equal(t, currency.MaxAmount, total)
			_, err = c.Take(Cart{9: 2})
			assert.Equal(t, currency.ErrAmountOverflow, errors.Cause(err), "err=%v", err)
			_, err = c.Price(Cart{9: 1, 1: 1})
			assert.Equal(t, currency.ErrAmountOverflow, errors.Cause(err), "err=%v", err)
			assert.Equal(t, 2, c.Available(9))
		}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			c.check(t, newTestCatalog(t))
		})
	}
}

func TestExpired(t *testing.T) {
	t.Parallel()
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	p := Product{ValidUntil: &day}
	assert.False(t, p.Expired(day.Add(23*time.Hour)))
	assert.True(t, p.Expired(day.AddDate(0, 0, 1)))
	assert.False(t, (&Product{}).Expired(day))
}

func TestPersist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	log := log2.NewTest(t, log2.LDebug)
	c := newTestCatalog(t)
	day := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.Register(Product{Code: 3, Name: "bolo", Price: 425, ValidUntil: &day}))
	require.NoError(t, c.Init(dir, true, log))
	require.NoError(t, c.Store())

	c2 := New(log)
	require.NoError(t, c2.Init(dir, true, log))
	assert.Equal(t, c.List(), c2.List())
}

func TestExpiryReport(t *testing.T) {
	t.Parallel()

	c := newTestCatalog(t)
	day := func(d int) *time.Time {
		v := time.Date(2026, 10, 19+d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	require.NoError(t, c.Register(Product{Code: 3, Name: "bolo", Price: 425, ValidUntil: day(10)}))
	require.NoError(t, c.Register(Product{Code: 4, Name: "iogurte", Price: 300, ValidUntil: day(0)}))
	require.NoError(t, c.Register(Product{Code: 5, Name: "sanduiche", Price: 900, ValidUntil: day(2)}))
	require.NoError(t, c.Register(Product{Code: 6, Name: "salada", Price: 1100, ValidUntil: day(9)}))

	rows := c.ExpiryReport(testToday.AddDate(0, 0, 2))
	require.Len(t, rows, 4)
	assert.Equal(t, ExpiryRow{Code: 4, Name: "iogurte", ValidUntil: *day(0), Days: -2, Status: ExpiryExpired}, rows[0])
	assert.Equal(t, 5, rows[1].Code)
	assert.Equal(t, ExpiryToday, rows[1].Status)
	assert.Equal(t, 6, rows[2].Code)
	assert.Equal(t, ExpirySoon, rows[2].Status)
	assert.Equal(t, 7, rows[2].Days)
	assert.Equal(t, 3, rows[3].Code)
	assert.Equal(t, ExpiryValid, rows[3].Status)
	assert.Equal(t, 8, rows[3].Days)

	assert.Len(t, New(log2.NewTest(t, log2.LDebug)).ExpiryReport(testToday), 0)
}
