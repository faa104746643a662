package till

import (
	"math/rand"
	"sync"
	"testing"
	"testing/quick"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/helpers"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTill(t testing.TB, counts map[currency.Nominal]int) *Till {
	tl := New(log2.NewTest(t, log2.LDebug), currency.CanteenNominals)
	for n, c := range counts {
		require.NoError(t, tl.Deposit(n, c))
	}
	return tl
}

func assertCounts(t testing.TB, tl *Till, expect map[currency.Nominal]int) {
	for _, n := range currency.CanteenNominals {
		assert.Equal(t, expect[n], tl.Count(n), "nominal=%s", currency.Amount(n).Format100I())
	}
}

func TestScenarios(t *testing.T) {
	t.Parallel()

	type Case struct {
		name   string
		before map[currency.Nominal]int
		check  func(testing.TB, *Till)
		after  map[currency.Nominal]int
	}
	cases := []Case{
		{"exact-greedy", map[currency.Nominal]int{100: 5, 50: 2, 25: 4},
			func(t testing.TB, tl *Till) {
				change, err := tl.MakeChange(275)
				require.NoError(t, err)
				assert.Equal(t, map[currency.Nominal]uint{100: 2, 50: 1, 25: 1}, change.ToMap())
				assert.Equal(t, currency.Amount(275), change.Total())
			},
			map[currency.Nominal]int{100: 3, 50: 1, 25: 3}},

		{"rounding-up", map[currency.Nominal]int{100: 5},
			func(t testing.TB, tl *Till) {
				change, err := tl.MakeChange(197)
				require.NoError(t, err)
				assert.Equal(t, map[currency.Nominal]uint{100: 2}, change.ToMap())
			},
			map[currency.Nominal]int{100: 3}},

		{"infeasible-rollback", map[currency.Nominal]int{50: 1},
			func(t testing.TB, tl *Till) {
				change, err := tl.MakeChange(100)
				assert.Nil(t, change)
				assert.Equal(t, ErrInsufficientChange, errors.Cause(err))
			},
			map[currency.Nominal]int{50: 1}},

		{"greedy-dead-end", map[currency.Nominal]int{25: 1, 10: 3},
			func(t testing.TB, tl *Till) {
				// 3x0.10 would do, greedy takes 0.25 first and must not backtrack
				_, err := tl.MakeChange(30)
				assert.Equal(t, ErrInsufficientChange, errors.Cause(err))
			},
			map[currency.Nominal]int{25: 1, 10: 3}},

		{"zero-change", map[currency.Nominal]int{5: 1},
			func(t testing.TB, tl *Till) {
				change, err := tl.MakeChange(0)
				require.NoError(t, err)
				assert.Equal(t, currency.Amount(0), change.Total())
			},
			map[currency.Nominal]int{5: 1}},

		{"unrecognized-denomination", map[currency.Nominal]int{},
			func(t testing.TB, tl *Till) {
				err := tl.Deposit(37, 5)
				assert.Equal(t, ErrUnrecognizedDenomination, errors.Cause(err))
				err = tl.Withdraw(37, 0)
				assert.Equal(t, ErrUnrecognizedDenomination, errors.Cause(err))
				assert.Equal(t, 0, tl.Count(37))
			},
			map[currency.Nominal]int{}},

		{"insufficient-withdraw", map[currency.Nominal]int{500: 2},
			func(t testing.TB, tl *Till) {
				err := tl.Withdraw(500, 3)
				assert.Equal(t, ErrInsufficientStock, errors.Cause(err))
			},
			map[currency.Nominal]int{500: 2}},

		{"negative-count", map[currency.Nominal]int{200: 1},
			func(t testing.TB, tl *Till) {
				assert.Equal(t, ErrNegativeCount, errors.Cause(tl.Deposit(200, -1)))
				assert.Equal(t, ErrNegativeCount, errors.Cause(tl.Withdraw(200, -1)))
			},
			map[currency.Nominal]int{200: 1}},

		{"deposit-zero", map[currency.Nominal]int{10: 1},
			func(t testing.TB, tl *Till) {
				require.NoError(t, tl.Deposit(10, 0))
			},
			map[currency.Nominal]int{10: 1}},

		{"deposit-group", map[currency.Nominal]int{},
			func(t testing.TB, tl *Till) {
				bad := &currency.NominalGroup{}
				require.NoError(t, bad.AddFrom(currency.NewNominalGroup([]currency.Nominal{37})))
				require.NoError(t, bad.Add(37, 1))
				require.NoError(t, bad.Add(37, 0))
				assert.Equal(t, ErrUnrecognizedDenomination, errors.Cause(tl.DepositGroup(bad)))
				good := currency.NewNominalGroup(currency.CanteenNominals)
				require.NoError(t, good.Add(2000, 2))
				require.NoError(t, good.Add(25, 1))
				require.NoError(t, tl.DepositGroup(good))
			},
			map[currency.Nominal]int{2000: 2, 25: 1}},

		{"reset-idempotent", map[currency.Nominal]int{10000: 1, 5: 7},
			func(t testing.TB, tl *Till) {
				tl.Reset()
				once := tl.Snapshot().ToMap()
				tl.Reset()
				assert.Equal(t, once, tl.Snapshot().ToMap())
				assert.Len(t, once, len(currency.CanteenNominals))
				assert.Equal(t, currency.Amount(0), tl.Total())
			},
			map[currency.Nominal]int{}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			tl := newTestTill(t, c.before)
			c.check(t, tl)
			assertCounts(t, tl, c.after)
		})
	}
}

func TestTotal(t *testing.T) {
	t.Parallel()
	tl := newTestTill(t, map[currency.Nominal]int{10000: 1, 2000: 2, 25: 3, 5: 1})
	assert.Equal(t, currency.Amount(10000+4000+75+5), tl.Total())
	assert.Equal(t, "100.00:1,20.00:2,0.25:3,0.05:1,total:140.80", tl.Snapshot().String())
}

func TestSnapshotIsCopy(t *testing.T) {
	t.Parallel()
	tl := newTestTill(t, map[currency.Nominal]int{100: 1})
	snap := tl.Snapshot()
	require.NoError(t, snap.Add(100, 10))
	assert.Equal(t, 1, tl.Count(100))
}

// Random operation sequences keep invariants: fixed key set, rollback on
// failed change, exact decrement on successful change.
func TestInvariants(t *testing.T) {
	t.Parallel()

	rnd := helpers.RandUnix()
	ns := currency.CanteenNominals
	f := func(seed int64) bool {
		r := rand.New(rand.NewSource(seed))
		tl := New(log2.NewTest(t, log2.LError), ns)
		for i := 0; i < 64; i++ {
			n := ns[r.Intn(len(ns))]
			switch r.Intn(4) {
			case 0:
				_ = tl.Deposit(n, r.Intn(5))
			case 1:
				before := tl.Count(n)
				err := tl.Withdraw(n, r.Intn(5))
				if err != nil && tl.Count(n) != before {
					t.Logf("withdraw failed but count changed")
					return false
				}
			case 2:
				before := tl.Snapshot()
				amount := currency.Amount(r.Intn(30000))
				change, err := tl.MakeChange(amount)
				after := tl.Snapshot()
				if err != nil {
					if before.String() != after.String() {
						t.Logf("rollback failed before=%s after=%s", before, after)
						return false
					}
					continue
				}
				if change.Total() < currency.CeilTo(amount, 5) {
					t.Logf("change=%s < amount=%s", change, amount.Format100I())
					return false
				}
				for _, n := range ns {
					c, _ := change.Get(n)
					b, _ := before.Get(n)
					a, _ := after.Get(n)
					if a != b-c {
						return false
					}
				}
			case 3:
				if r.Intn(8) == 0 {
					tl.Reset()
				}
			}
			if len(tl.Snapshot().ToMap()) != len(ns) {
				t.Logf("key set changed")
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 200, Rand: rnd}))
}

func TestRoundTripDepositWithdraw(t *testing.T) {
	t.Parallel()

	f := func(idx uint8, count uint8) bool {
		n := currency.CanteenNominals[int(idx)%len(currency.CanteenNominals)]
		tl := newTestTill(t, map[currency.Nominal]int{10000: 1, 5: 3})
		before := tl.Snapshot().String()
		if err := tl.Deposit(n, int(count)); err != nil {
			return false
		}
		if err := tl.Withdraw(n, int(count)); err != nil {
			return false
		}
		return before == tl.Snapshot().String()
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestConcurrentChange(t *testing.T) {
	t.Parallel()

	tl := New(log2.NewTest(t, log2.LError), currency.CanteenNominals)
	const workers = 8
	const rounds = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	given := currency.Amount(0)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				assert.NoError(t, tl.Deposit(100, 1))
				assert.NoError(t, tl.Deposit(25, 4))
				change, err := tl.MakeChange(75)
				if assert.NoError(t, err) {
					mu.Lock()
					given += change.Total()
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, currency.Amount(workers*rounds*75), given)
	assert.Equal(t, currency.Amount(workers*rounds*200)-given, tl.Total())
}

func TestPersist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	log := log2.NewTest(t, log2.LDebug)
	tl := New(log, currency.CanteenNominals)
	require.NoError(t, tl.Init(dir, true, log))
	require.NoError(t, tl.Deposit(5000, 2))
	require.NoError(t, tl.Deposit(10, 9))
	require.NoError(t, tl.Store())

	tl2 := New(log, currency.CanteenNominals)
	require.NoError(t, tl2.Init(dir, true, log))
	assert.Equal(t, tl.Snapshot().ToMap(), tl2.Snapshot().ToMap())
}

func TestUnmarshalRejectsUnknown(t *testing.T) {
	t.Parallel()

	small := New(log2.NewTest(t, log2.LDebug), []currency.Nominal{100, 3})
	require.NoError(t, small.Deposit(3, 1))
	b, err := small.MarshalBinary()
	require.NoError(t, err)

	tl := newTestTill(t, map[currency.Nominal]int{100: 4})
	err = tl.UnmarshalBinary(b)
	assert.Equal(t, ErrUnrecognizedDenomination, errors.Cause(err))
	assert.Equal(t, 4, tl.Count(100))
}

func TestRestore(t *testing.T) {
	t.Parallel()

	tl := newTestTill(t, map[currency.Nominal]int{100: 4, 5: 1})
	g := currency.NewNominalGroup([]currency.Nominal{2000, 25})
	require.NoError(t, g.Add(2000, 1))
	require.NoError(t, g.Add(25, 2))
	require.NoError(t, tl.Restore(g))
	assertCounts(t, tl, map[currency.Nominal]int{2000: 1, 25: 2})

	bad := currency.NewNominalGroup([]currency.Nominal{100, 30})
	require.NoError(t, bad.Add(30, 1))
	err := tl.Restore(bad)
	assert.Equal(t, ErrUnrecognizedDenomination, errors.Cause(err))
	assert.Equal(t, currency.Amount(2050), tl.Total())
}

func TestDepositOverflow(t *testing.T) {
	t.Parallel()

	tl := newTestTill(t, nil)
	err := tl.Deposit(10000, 500000)
	assert.Equal(t, currency.ErrAmountOverflow, errors.Cause(err), "err=%v", err)
	assert.Equal(t, 0, tl.Count(10000))
	assert.Equal(t, currency.Amount(0), tl.Total())

	require.NoError(t, tl.Deposit(10000, 429496))
	require.NoError(t, tl.Deposit(5, 1459))
	assert.Equal(t, currency.MaxAmount, tl.Total())

	assert.Equal(t, currency.ErrAmountOverflow, errors.Cause(tl.Deposit(5, 1)))
	g := currency.NewNominalGroup(currency.CanteenNominals)
	require.NoError(t, g.Add(25, 1))
	require.NoError(t, g.Add(5, 1))
	assert.Equal(t, currency.ErrAmountOverflow, errors.Cause(tl.DepositGroup(g)))
	assert.Equal(t, 0, tl.Count(25))
	assert.Equal(t, 1459, tl.Count(5))
	assert.Equal(t, currency.MaxAmount, tl.Total())
}
