// Package till is the canteen cash drawer: counts of bills and coins per nominal
// and the change maker working on them.
package till

import (
	"sync"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/state/persist"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	"github.com/juju/errors"
)

var (
	ErrUnrecognizedDenomination = errors.New("unrecognized denomination")
	ErrInsufficientStock        = errors.New("insufficient denomination stock")
	ErrInsufficientChange       = errors.New("insufficient change")
	ErrNegativeCount            = errors.New("negative count")
)

// Till keeps one count per nominal of a fixed set.
// Key set never changes after New, counts never go below zero,
// total never exceeds currency.MaxAmount.
// Every operation holds the single lock for its whole duration.
type Till struct {
	Persist persist.Persist

	log      *log2.Log
	mu       sync.Mutex
	group    *currency.NominalGroup
	nominals []currency.Nominal
	smallest currency.Nominal
}

func New(log *log2.Log, nominals []currency.Nominal) *Till {
	if len(nominals) == 0 {
		panic("code error till.New without nominals")
	}
	self := &Till{
		log:   log,
		group: currency.NewNominalGroup(nominals),
	}
	self.nominals = self.group.Nominals()
	self.smallest = self.nominals[len(self.nominals)-1]
	return self
}

// Nominals returns accepted nominals, largest first.
func (self *Till) Nominals() []currency.Nominal {
	ns := make([]currency.Nominal, len(self.nominals))
	copy(ns, self.nominals)
	return ns
}

func (self *Till) Smallest() currency.Nominal { return self.smallest }

func (self *Till) Deposit(n currency.Nominal, count int) error {
	const tag = "till.deposit"
	if count < 0 {
		return errors.Annotatef(ErrNegativeCount, "%s n=%s count=%d", tag, currency.Amount(n).Format100I(), count)
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	if !self.group.Valid(n) {
		return errors.Annotatef(ErrUnrecognizedDenomination, "%s n=%s", tag, currency.Amount(n).Format100I())
	}
	if err := self.group.Add(n, uint(count)); err != nil {
		return errors.Annotate(err, tag)
	}
	self.log.Debugf("%s n=%s count=%d total=%s", tag, currency.Amount(n).Format100I(), count, self.group.Total().Format100I())
	return nil
}

// DepositGroup adds all counts of g or nothing at all.
func (self *Till) DepositGroup(g *currency.NominalGroup) error {
	const tag = "till.deposit-group"
	self.mu.Lock()
	defer self.mu.Unlock()
	for n, c := range g.ToMap() {
		if c != 0 && !self.group.Valid(n) {
			return errors.Annotatef(ErrUnrecognizedDenomination, "%s n=%s", tag, currency.Amount(n).Format100I())
		}
	}
	next := self.group.Copy()
	for n, c := range g.ToMap() {
		if c == 0 {
			continue
		}
		if err := next.Add(n, c); err != nil {
			return errors.Annotatef(err, "%s total=%s", tag, self.group.Total().Format100I())
		}
	}
	self.group = next
	self.log.Debugf("%s in=%s total=%s", tag, g.String(), self.group.Total().Format100I())
	return nil
}

func (self *Till) Withdraw(n currency.Nominal, count int) error {
	const tag = "till.withdraw"
	if count < 0 {
		return errors.Annotatef(ErrNegativeCount, "%s n=%s count=%d", tag, currency.Amount(n).Format100I(), count)
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	stored, err := self.group.Get(n)
	if err != nil {
		return errors.Annotatef(ErrUnrecognizedDenomination, "%s n=%s", tag, currency.Amount(n).Format100I())
	}
	if stored < uint(count) {
		return errors.Annotatef(ErrInsufficientStock, "%s n=%s count=%d stored=%d", tag, currency.Amount(n).Format100I(), count, stored)
	}
	if err := self.group.Remove(n, uint(count)); err != nil {
		return errors.Annotate(err, tag)
	}
	self.log.Debugf("%s n=%s count=%d total=%s", tag, currency.Amount(n).Format100I(), count, self.group.Total().Format100I())
	return nil
}

// Count returns 0 for unknown nominal.
func (self *Till) Count(n currency.Nominal) int {
	self.mu.Lock()
	defer self.mu.Unlock()
	c, _ := self.group.Get(n)
	return int(c)
}

func (self *Till) Total() currency.Amount {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.group.Total()
}

func (self *Till) Reset() {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.group.Clear()
	self.log.Debugf("till.reset")
}

// Snapshot returns a copy, safe to keep and modify.
func (self *Till) Snapshot() *currency.NominalGroup {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.group.Copy()
}

// MakeChange rounds amount up to the smallest nominal, then greedily takes
// largest nominals first. On success used nominals leave the till and are
// returned. On failure the till is untouched.
func (self *Till) MakeChange(amount currency.Amount) (*currency.NominalGroup, error) {
	const tag = "till.change"
	rounded := currency.CeilTo(amount, self.smallest)

	self.mu.Lock()
	defer self.mu.Unlock()
	change := &currency.NominalGroup{}
	work := self.group.Copy()
	if err := work.Withdraw(change, rounded, currency.NewExpendLeastCount()); err != nil {
		self.log.Debugf("%s amount=%s rounded=%s till=%s err=%v", tag, amount.Format100I(), rounded.Format100I(), self.group.String(), err)
		return nil, errors.Annotatef(ErrInsufficientChange, "%s amount=%s rounded=%s", tag, amount.Format100I(), rounded.Format100I())
	}
	self.group = work
	self.log.Debugf("%s amount=%s rounded=%s change=%s", tag, amount.Format100I(), rounded.Format100I(), change.String())
	return change, nil
}

// Store persists current counts when persistence is enabled.
// Must not be called with the lock held.
func (self *Till) Store() error { return self.Persist.Store() }
