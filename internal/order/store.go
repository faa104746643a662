package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/juju/errors"
)

// MemoryStore keeps orders for process lifetime only.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[uint32]Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[uint32]Order)}
}

var _ Store = (*MemoryStore)(nil)

func (self *MemoryStore) Save(ctx context.Context, o *Order) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if _, ok := self.orders[o.Number]; ok {
		return errors.AlreadyExistsf("order number=%d", o.Number)
	}
	self.orders[o.Number] = copyOrder(o)
	return nil
}

func (self *MemoryStore) Get(ctx context.Context, number uint32) (*Order, error) {
	self.mu.RLock()
	defer self.mu.RUnlock()
	o, ok := self.orders[number]
	if !ok {
		return nil, errors.Annotatef(ErrNotFound, "number=%d", number)
	}
	o = copyOrder(&o)
	return &o, nil
}

func (self *MemoryStore) List(ctx context.Context) ([]Order, error) {
	return self.filter(func(*Order) bool { return true }), nil
}

func (self *MemoryStore) Between(ctx context.Context, from, to time.Time) ([]Order, error) {
	return self.filter(func(o *Order) bool {
		return !o.Time.Before(from) && o.Time.Before(to)
	}), nil
}

func (self *MemoryStore) filter(f func(*Order) bool) []Order {
	self.mu.RLock()
	defer self.mu.RUnlock()
	list := make([]Order, 0, len(self.orders))
	for _, o := range self.orders {
		if f(&o) {
			list = append(list, copyOrder(&o))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Number < list[j].Number })
	return list
}

func copyOrder(o *Order) Order {
	c := *o
	c.Lines = append([]Line(nil), o.Lines...)
	if o.Change != nil {
		c.Change = make(map[currency.Nominal]uint, len(o.Change))
		for n, k := range o.Change {
			c.Change[n] = k
		}
	}
	return c
}
