// Package payment runs checkout: stock, change, ledger and notifications as one unit.
package payment

import (
	"context"
	"sync"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/catalog"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/events"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/order"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/till"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	tele_api "github.com/MatheusdoNAm/AutoAtendimento/tele"
	"github.com/juju/errors"
)

var (
	ErrNeedMoreMoney = errors.New("tendered amount less than due")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrUnknownMethod = errors.New("unknown payment method")
	ErrPriceChanged  = errors.New("catalog changed during payment")
)

// DefaultPublishTimeout bounds order event delivery after payment is done.
const DefaultPublishTimeout = 3 * time.Second

type Request struct {
	Cart   catalog.Cart
	Method order.Method
	// cash only, nominal -> count
	Tendered map[currency.Nominal]uint
}

type Receipt struct {
	Number       uint32                    `json:"number"`
	Time         time.Time                 `json:"time"`
	Method       order.Method              `json:"method"`
	Lines        []order.Line              `json:"lines"`
	Total        currency.Amount           `json:"total"`
	Tendered     currency.Amount           `json:"tendered"`
	ChangeAmount currency.Amount           `json:"change_amount"`
	Change       map[currency.Nominal]uint `json:"change,omitempty"`
}

type Checkout struct {
	PublishTimeout time.Duration

	log     *log2.Log
	till    *till.Till
	catalog *catalog.Catalog
	ledger  *order.Ledger
	events  events.Publisher
	tele    tele_api.Teler

	mu sync.Mutex
}

func New(log *log2.Log, t *till.Till, c *catalog.Catalog, l *order.Ledger, pub events.Publisher, teler tele_api.Teler) *Checkout {
	if pub == nil {
		pub = events.Noop{}
	}
	if teler == nil {
		teler = tele_api.Noop{}
	}
	return &Checkout{
		PublishTimeout: DefaultPublishTimeout,
		log:            log,
		till:           t,
		catalog:        c,
		ledger:         l,
		events:         pub,
		tele:           teler,
	}
}

// Pay either completes the order or leaves till, stock and ledger as they were.
// Order event and telemetry go out after the payment lock is released.
func (self *Checkout) Pay(ctx context.Context, req Request) (*Receipt, error) {
	o, err := self.pay(ctx, req)
	if err != nil {
		return nil, err
	}
	self.notify(ctx, o)

	return &Receipt{
		Number:       o.Number,
		Time:         o.Time,
		Method:       o.Method,
		Lines:        o.Lines,
		Total:        o.Total,
		Tendered:     o.Tendered,
		ChangeAmount: o.ChangeTotal(),
		Change:       o.Change,
	}, nil
}

func (self *Checkout) pay(ctx context.Context, req Request) (*order.Order, error) {
	const tag = "payment.pay"
	self.mu.Lock()
	defer self.mu.Unlock()

	if len(req.Cart) == 0 {
		return nil, ErrEmptyCart
	}
	cash := false
	switch req.Method {
	case order.MethodCash:
		cash = true
	case order.MethodCard, order.MethodPix:
	default:
		return nil, errors.Annotatef(ErrUnknownMethod, "method=%q", req.Method)
	}

	quote, due, err := self.catalog.Quote(req.Cart)
	if err != nil {
		return nil, errors.Annotate(err, tag)
	}

	var tendered *currency.NominalGroup
	tenderedTotal := due
	if cash {
		if tendered, err = self.tenderedGroup(req.Tendered); err != nil {
			return nil, err
		}
		tenderedTotal = tendered.Total()
		if tenderedTotal < due {
			self.tele.StatModify(func(s *tele_api.Stat) { s.NeedMoreMoney++ })
			return nil, errors.Annotatef(ErrNeedMoreMoney, "%s due=%s tendered=%s", tag, due.Format100I(), tenderedTotal.Format100I())
		}
	}

	number, err := self.ledger.Begin(ctx)
	if err != nil {
		return nil, errors.Annotate(err, tag)
	}

	taken, err := self.catalog.Take(req.Cart)
	if err != nil {
		return nil, errors.Annotate(err, tag)
	}
	if taken != due {
		self.catalog.PutBack(req.Cart)
		return nil, errors.Annotatef(ErrPriceChanged, "%s order=%d quoted=%s taken=%s", tag, number, due.Format100I(), taken.Format100I())
	}

	var change *currency.NominalGroup
	if cash {
		change, err = self.till.MakeChange(tenderedTotal - due)
		if err != nil {
			self.catalog.PutBack(req.Cart)
			self.tele.StatModify(func(s *tele_api.Stat) { s.ChangeFailed++ })
			self.log.Infof("%s order=%d change failed due=%s tendered=%s", tag, number, due.Format100I(), tenderedTotal.Format100I())
			return nil, err
		}
		if err = self.till.DepositGroup(tendered); err != nil {
			self.undoChange(change)
			self.catalog.PutBack(req.Cart)
			return nil, errors.Annotate(err, tag)
		}
	}

	lines := make([]order.Line, 0, len(quote))
	for _, l := range quote {
		lines = append(lines, order.Line{Code: l.Code, Name: l.Name, Qty: l.Qty, UnitPrice: l.UnitPrice})
	}
	o := &order.Order{
		Number:   number,
		Method:   req.Method,
		Lines:    lines,
		Total:    due,
		Tendered: tenderedTotal,
	}
	if change != nil {
		o.Change = nonZero(change.ToMap())
	}
	if err = self.ledger.Record(ctx, o); err != nil {
		if cash {
			self.undoDeposit(tendered)
			self.undoChange(change)
		}
		self.catalog.PutBack(req.Cart)
		return nil, errors.Annotate(err, tag)
	}
	self.log.Infof("%s order=%d method=%s total=%s tendered=%s change=%s",
		tag, number, req.Method, due.Format100I(), tenderedTotal.Format100I(), o.ChangeTotal().Format100I())

	self.store()
	return o, nil
}

func (self *Checkout) tenderedGroup(m map[currency.Nominal]uint) (*currency.NominalGroup, error) {
	g := currency.NewNominalGroup(self.till.Nominals())
	for n, c := range m {
		if c == 0 {
			continue
		}
		if err := g.Add(n, c); err != nil {
			if errors.Cause(err) == currency.ErrAmountOverflow {
				return nil, errors.NewNotValid(err, "tendered total")
			}
			self.tele.StatModify(func(s *tele_api.Stat) { s.CashRejected[uint32(n)] += uint32(c) })
			return nil, errors.Annotatef(till.ErrUnrecognizedDenomination, "tendered n=%s", currency.Amount(n).Format100I())
		}
	}
	return g, nil
}

func (self *Checkout) undoChange(change *currency.NominalGroup) {
	if err := self.till.DepositGroup(change); err != nil {
		self.log.Errorf("CRITICAL payment undo change=%s err=%v", change.String(), err)
	}
}

func (self *Checkout) undoDeposit(tendered *currency.NominalGroup) {
	for n, c := range tendered.ToMap() {
		if c == 0 {
			continue
		}
		if err := self.till.Withdraw(n, int(c)); err != nil {
			self.log.Errorf("CRITICAL payment undo deposit n=%s err=%v", currency.Amount(n).Format100I(), err)
		}
	}
}

// Order is already recorded, delivery problems are only logged.
func (self *Checkout) notify(ctx context.Context, o *order.Order) {
	ctx, cancel := context.WithTimeout(ctx, self.PublishTimeout)
	defer cancel()
	if err := self.events.PublishOrder(ctx, o); err != nil {
		self.log.Errorf("payment publish order=%d err=%v", o.Number, err)
	}
	tx := &tele_api.Transaction{
		Number:   o.Number,
		Method:   string(o.Method),
		Total:    uint32(o.Total),
		Tendered: uint32(o.Tendered),
		Change:   uint32(o.ChangeTotal()),
		Lines:    make([]tele_api.TransactionLine, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		tx.Lines = append(tx.Lines, tele_api.TransactionLine{Code: l.Code, Qty: l.Qty, Price: uint32(l.UnitPrice)})
	}
	self.tele.Transaction(tx)
	self.tele.StatModify(func(s *tele_api.Stat) { s.Orders++ })
}

func (self *Checkout) store() {
	if err := self.till.Store(); err != nil {
		self.log.Errorf("payment store till err=%v", err)
	}
	if err := self.catalog.Store(); err != nil {
		self.log.Errorf("payment store catalog err=%v", err)
	}
}

func nonZero(m map[currency.Nominal]uint) map[currency.Nominal]uint {
	for n, c := range m {
		if c == 0 {
			delete(m, n)
		}
	}
	return m
}
