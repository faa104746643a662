// Package order is the canteen order ledger: numbering, storage and reports.
package order

import (
	"context"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	"github.com/juju/errors"
)

type Method string

const (
	MethodCash Method = "cash"
	MethodCard Method = "card"
	MethodPix  Method = "pix"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodCash, MethodCard, MethodPix:
		return m, nil
	}
	return "", errors.NotValidf("payment method=%s", s)
}

type Line struct {
	Code      int             `json:"code"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	UnitPrice currency.Amount `json:"unit_price"`
}

func (l Line) Total() currency.Amount { return l.UnitPrice * currency.Amount(l.Qty) }

type Order struct {
	Number   uint32                    `json:"number"`
	Time     time.Time                 `json:"time"`
	Method   Method                    `json:"method"`
	Lines    []Line                    `json:"lines"`
	Total    currency.Amount           `json:"total"`
	Tendered currency.Amount           `json:"tendered"`
	Change   map[currency.Nominal]uint `json:"change,omitempty"`
}

func (o *Order) ChangeTotal() currency.Amount {
	sum := currency.Amount(0)
	for n, c := range o.Change {
		sum += currency.Amount(n) * currency.Amount(c)
	}
	return sum
}

type Store interface {
	Save(ctx context.Context, o *Order) error
	Get(ctx context.Context, number uint32) (*Order, error)
	// Between returns orders with from <= Time < to, ordered by number.
	Between(ctx context.Context, from, to time.Time) ([]Order, error)
	List(ctx context.Context) ([]Order, error)
}

var ErrNotFound = errors.New("order not found")

type Ledger struct {
	log   *log2.Log
	seq   Sequence
	store Store
	now   func() time.Time
}

func NewLedger(log *log2.Log, seq Sequence, store Store) *Ledger {
	return &Ledger{log: log, seq: seq, store: store, now: time.Now}
}

// Begin reserves next order number. Numbers are never given back,
// an abandoned order leaves a gap.
func (self *Ledger) Begin(ctx context.Context) (uint32, error) {
	n, err := self.seq.Next(ctx)
	if err != nil {
		return 0, errors.Annotate(err, "order number")
	}
	return n, nil
}

// Record stores completed order. Zero Time is set to now.
func (self *Ledger) Record(ctx context.Context, o *Order) error {
	if o.Number == 0 {
		panic("code error order.Record without number, call Begin first")
	}
	if o.Time.IsZero() {
		o.Time = self.now()
	}
	if err := self.store.Save(ctx, o); err != nil {
		return errors.Annotatef(err, "order record number=%d", o.Number)
	}
	self.log.Debugf("order.record number=%d method=%s total=%s", o.Number, o.Method, o.Total.Format100I())
	return nil
}

func (self *Ledger) Get(ctx context.Context, number uint32) (*Order, error) {
	return self.store.Get(ctx, number)
}

func (self *Ledger) Orders(ctx context.Context) ([]Order, error) {
	return self.store.List(ctx)
}
