package currency

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/juju/errors"
)

// Amount is integer counting lowest currency unit, e.g. R$1.20 = 120
type Amount uint32

// MaxAmount is the largest representable sum, 42949672.95
const MaxAmount = Amount(math.MaxUint32)

func (self Amount) Format100I() string { return fmt.Sprintf("%d.%02d", self/100, self%100) }

// Nominal is value of one coin or bill
type Nominal Amount

// CanteenNominals is the closed set of bills and coins accepted by the canteen till, largest first.
var CanteenNominals = []Nominal{10000, 5000, 2000, 1000, 500, 200, 100, 50, 25, 10, 5}

var (
	ErrNominalInvalid = errors.New("nominal is not valid for this group")
	ErrNominalCount   = errors.New("not enough nominals for this amount")
	ErrAmountOverflow = errors.New("amount out of range")
)

// AddAmount sums without wrapping, result above MaxAmount is ErrAmountOverflow.
func AddAmount(a, b Amount) (Amount, error) {
	if b > MaxAmount-a {
		return 0, errors.Annotatef(ErrAmountOverflow, "%s+%s", a.Format100I(), b.Format100I())
	}
	return a + b, nil
}

// MulAmount multiplies without wrapping, result above MaxAmount is ErrAmountOverflow.
func MulAmount(a Amount, n uint64) (Amount, error) {
	if a != 0 && n > uint64(MaxAmount/a) {
		return 0, errors.Annotatef(ErrAmountOverflow, "%s*%d", a.Format100I(), n)
	}
	return a * Amount(n), nil
}

// CeilTo rounds amount up to the nearest multiple of step.
func CeilTo(a Amount, step Nominal) Amount {
	if step == 0 {
		return a
	}
	rem := a % Amount(step)
	if rem == 0 {
		return a
	}
	return a + Amount(step) - rem
}

// NominalGroup operates money comprised of multiple nominals, like coins or bills.
// 1.00 : 3
// 0.50 : 1
// 0.10 : 4
// total: 3.90
type NominalGroup struct {
	values map[Nominal]uint
}

func NewNominalGroup(valid []Nominal) *NominalGroup {
	ng := &NominalGroup{}
	ng.SetValid(valid)
	return ng
}

func (self *NominalGroup) Copy() *NominalGroup {
	ng2 := &NominalGroup{
		values: make(map[Nominal]uint, len(self.values)),
	}
	for k, v := range self.values {
		ng2.values[k] = v
	}
	return ng2
}

func (self *NominalGroup) SetValid(valid []Nominal) {
	self.values = make(map[Nominal]uint, len(valid))
	for _, n := range valid {
		if n != 0 {
			self.values[n] = 0
		}
	}
}

func (self *NominalGroup) Valid(n Nominal) bool {
	_, ok := self.values[n]
	return ok
}

// Add keeps Total within MaxAmount, overflow leaves group unchanged.
func (self *NominalGroup) Add(n Nominal, count uint) error {
	if _, ok := self.values[n]; !ok {
		return errors.Annotatef(ErrNominalInvalid, "Add(n=%s, c=%d)", Amount(n).Format100I(), count)
	}
	value, err := MulAmount(Amount(n), uint64(count))
	if err == nil {
		_, err = AddAmount(self.Total(), value)
	}
	if err != nil {
		return errors.Annotatef(err, "Add(n=%s, c=%d)", Amount(n).Format100I(), count)
	}
	self.values[n] += count
	return nil
}

// Remove subtracts count of nominal n, never below zero.
func (self *NominalGroup) Remove(n Nominal, count uint) error {
	stored, ok := self.values[n]
	if !ok {
		return errors.Annotatef(ErrNominalInvalid, "Remove(n=%s, c=%d)", Amount(n).Format100I(), count)
	}
	if stored < count {
		return errors.Annotatef(ErrNominalCount, "Remove(n=%s, c=%d) stored=%d", Amount(n).Format100I(), count, stored)
	}
	self.values[n] = stored - count
	return nil
}

// AddFrom merges counts from source, extending the valid set when needed.
// Sum above MaxAmount is rejected whole.
func (self *NominalGroup) AddFrom(source *NominalGroup) error {
	if _, err := AddAmount(self.Total(), source.Total()); err != nil {
		return errors.Annotate(err, "AddFrom")
	}
	if self.values == nil {
		self.values = make(map[Nominal]uint, len(source.values))
	}
	for k, v := range source.values {
		self.values[k] += v
	}
	return nil
}

func (self *NominalGroup) Clear() {
	for n := range self.values {
		self.values[n] = 0
	}
}

func (self *NominalGroup) Get(n Nominal) (uint, error) {
	if stored, ok := self.values[n]; !ok {
		return 0, ErrNominalInvalid
	} else {
		return stored, nil
	}
}

// Nominals returns valid nominals sorted by value, largest first.
func (self *NominalGroup) Nominals() []Nominal {
	return self.order(ngOrderSortElemNominal)
}

// Iter walks nominals largest first, zero counts included.
func (self *NominalGroup) Iter(f func(nominal Nominal, count uint) error) error {
	for _, nominal := range self.Nominals() {
		if err := f(nominal, self.values[nominal]); err != nil {
			return err
		}
	}
	return nil
}

// ToMap returns a copy of nominal counts.
func (self *NominalGroup) ToMap() map[Nominal]uint {
	m := make(map[Nominal]uint, len(self.values))
	for k, v := range self.values {
		m[k] = v
	}
	return m
}

func (self *NominalGroup) Count() uint {
	sum := uint(0)
	for _, count := range self.values {
		sum += count
	}
	return sum
}

// Total never wraps: Add and AddFrom keep it within MaxAmount.
func (self *NominalGroup) Total() Amount {
	sum := uint64(0)
	for nominal, count := range self.values {
		sum += uint64(nominal) * uint64(count)
	}
	return Amount(sum)
}

// Withdraw moves exactly amount from self into `to` (may be nil), one nominal at a time as strategy decides.
// Self is left partially spent on error, work on a Copy() when rollback is needed.
func (self *NominalGroup) Withdraw(to *NominalGroup, a Amount, strategy ExpendStrategy) error {
	if to != nil && to.values == nil {
		to.values = make(map[Nominal]uint)
	}
	return self.expendLoop(to, a, strategy)
}

func (self *NominalGroup) String() string {
	parts := make([]string, 0, len(self.values)+1)
	for _, nominal := range self.Nominals() {
		count := self.values[nominal]
		if count > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", Amount(nominal).Format100I(), count))
		}
	}
	parts = append(parts, fmt.Sprintf("total:%s", self.Total().Format100I()))
	return strings.Join(parts, ",")
}

func (self *NominalGroup) expendLoop(to *NominalGroup, amount Amount, strategy ExpendStrategy) error {
	strategy.Reset(self)
	for amount > 0 {
		nominal, err := strategy.ExpendOne(self, amount)
		if err != nil {
			return errors.Annotatef(err, "remain=%s", amount.Format100I())
		}
		if nominal == 0 {
			panic("code error ExpendStrategy returned Nominal 0 without error")
		}
		amount -= Amount(nominal)
		if to != nil {
			to.values[nominal] += 1
		}
	}
	return nil
}

// common code from strategies
func expendOneOrdered(from *NominalGroup, order []Nominal, max Amount) (Nominal, error) {
	if len(order) < len(from.values) {
		panic("code error expendOneOrdered order must include all nominals")
	}
	if max == 0 {
		return 0, nil
	}
	for _, n := range order {
		if Amount(n) <= max && from.values[n] > 0 {
			from.values[n] -= 1
			return n, nil
		}
	}
	return 0, ErrNominalCount
}

type ngOrderSortElemFunc func(Nominal, uint) Nominal

func (self *NominalGroup) order(sortElemFunc ngOrderSortElemFunc) []Nominal {
	order := make([]Nominal, 0, len(self.values))
	for n := range self.values {
		order = append(order, n)
	}
	sort.Slice(order, func(i, j int) bool {
		ni, nj := order[i], order[j]
		ei, ej := sortElemFunc(ni, self.values[ni]), sortElemFunc(nj, self.values[nj])
		if ei == ej {
			return ni > nj
		}
		return ei > ej
	})
	return order
}
func ngOrderSortElemNominal(n Nominal, c uint) Nominal { return n }

// NominalGroup.Withdraw = strategy.Reset + loop strategy.ExpendOne
type ExpendStrategy interface {
	Reset(from *NominalGroup)
	ExpendOne(from *NominalGroup, max Amount) (Nominal, error)
}

type ExpendGenericOrder struct {
	order        []Nominal
	SortElemFunc ngOrderSortElemFunc
}

func (self *ExpendGenericOrder) Reset(from *NominalGroup) {
	self.order = from.order(self.SortElemFunc)
}
func (self *ExpendGenericOrder) ExpendOne(from *NominalGroup, max Amount) (Nominal, error) {
	return expendOneOrdered(from, self.order, max)
}

// NewExpendLeastCount is greedy: always spend the largest nominal that still fits.
// Never backtracks, so some amounts payable by other combinations are rejected.
func NewExpendLeastCount() ExpendStrategy {
	return &ExpendGenericOrder{SortElemFunc: ngOrderSortElemNominal}
}
