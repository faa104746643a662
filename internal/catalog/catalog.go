// Package catalog keeps canteen products and their stock.
package catalog

import (
	"sort"
	"sync"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/state/persist"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrDuplicate         = errors.New("product code already registered")
	ErrInsufficientStock = errors.New("insufficient product stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrExpired           = errors.New("valid_until is in the past")
)

type Product struct {
	Code       int             `json:"code" validate:"gt=0"`
	Name       string          `json:"name" validate:"required"`
	Kind       string          `json:"kind"`
	Price      currency.Amount `json:"price" validate:"gt=0"`
	ValidUntil *time.Time      `json:"valid_until,omitempty"`
}

// Expired reports whether product validity date is before `now` day.
func (p *Product) Expired(now time.Time) bool {
	return p.ValidUntil != nil && daysUntil(*p.ValidUntil, now) < 0
}

// daysUntil counts calendar days from `now` day to `until` day, negative when passed.
func daysUntil(until, now time.Time) int {
	y, m, d := until.Date()
	u := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = now.Date()
	n := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(u.Sub(n).Hours() / 24)
}

type Item struct {
	Product
	Stock int `json:"stock"`
}

// Line is one cart line priced from the catalog.
type Line struct {
	Code      int
	Name      string
	Qty       int
	UnitPrice currency.Amount
}

// Cart maps product code to quantity.
type Cart map[int]int

func (c Cart) codes() []int {
	codes := make([]int, 0, len(c))
	for code := range c {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

type Catalog struct {
	Persist persist.Persist

	log      *log2.Log
	mu       sync.RWMutex
	items    map[int]*Item
	validate *validator.Validate
	now      func() time.Time
}

func New(log *log2.Log) *Catalog {
	return &Catalog{
		log:      log,
		items:    make(map[int]*Item),
		validate: validator.New(),
		now:      time.Now,
	}
}

// Register rejects validity date before today.
func (self *Catalog) Register(p Product) error {
	if err := self.validate.Struct(p); err != nil {
		return errors.NewNotValid(err, "catalog register")
	}
	if p.Expired(self.now()) {
		return errors.Annotatef(ErrExpired, "code=%d valid_until=%s", p.Code, p.ValidUntil.Format(DateLayout))
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	if _, ok := self.items[p.Code]; ok {
		return errors.Annotatef(ErrDuplicate, "code=%d", p.Code)
	}
	self.items[p.Code] = &Item{Product: p}
	self.log.Debugf("catalog.register code=%d name=%s price=%s", p.Code, p.Name, p.Price.Format100I())
	return nil
}

func (self *Catalog) Delete(code int) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if _, ok := self.items[code]; !ok {
		return errors.Annotatef(ErrNotFound, "code=%d", code)
	}
	delete(self.items, code)
	self.log.Debugf("catalog.delete code=%d", code)
	return nil
}

func (self *Catalog) AddStock(code, qty int) error {
	if qty <= 0 {
		return errors.Annotatef(ErrInvalidQuantity, "code=%d qty=%d", code, qty)
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	item, ok := self.items[code]
	if !ok {
		return errors.Annotatef(ErrNotFound, "code=%d", code)
	}
	item.Stock += qty
	return nil
}

func (self *Catalog) RemoveStock(code, qty int) error {
	if qty <= 0 {
		return errors.Annotatef(ErrInvalidQuantity, "code=%d qty=%d", code, qty)
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	item, ok := self.items[code]
	if !ok {
		return errors.Annotatef(ErrNotFound, "code=%d", code)
	}
	if item.Stock < qty {
		return errors.Annotatef(ErrInsufficientStock, "code=%d qty=%d stock=%d", code, qty, item.Stock)
	}
	item.Stock -= qty
	return nil
}

// Available returns 0 for unknown product.
func (self *Catalog) Available(code int) int {
	self.mu.RLock()
	defer self.mu.RUnlock()
	if item, ok := self.items[code]; ok {
		return item.Stock
	}
	return 0
}

func (self *Catalog) Name(code int) (string, bool) {
	self.mu.RLock()
	defer self.mu.RUnlock()
	if item, ok := self.items[code]; ok {
		return item.Name, true
	}
	return "", false
}

func (self *Catalog) Get(code int) (Item, bool) {
	self.mu.RLock()
	defer self.mu.RUnlock()
	if item, ok := self.items[code]; ok {
		return *item, true
	}
	return Item{}, false
}

// List returns copies sorted by code.
func (self *Catalog) List() []Item {
	self.mu.RLock()
	defer self.mu.RUnlock()
	list := make([]Item, 0, len(self.items))
	for _, item := range self.items {
		list = append(list, *item)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}

// Price sums cart lines, checking every product exists and has enough stock.
func (self *Catalog) Price(cart Cart) (currency.Amount, error) {
	_, total, err := self.Quote(cart)
	return total, err
}

// Quote prices cart. Lines, sorted by code, and total come from one read.
func (self *Catalog) Quote(cart Cart) ([]Line, currency.Amount, error) {
	self.mu.RLock()
	defer self.mu.RUnlock()
	return self.locked_quote(cart)
}

func (self *Catalog) locked_quote(cart Cart) ([]Line, currency.Amount, error) {
	lines := make([]Line, 0, len(cart))
	total := currency.Amount(0)
	for _, code := range cart.codes() {
		qty := cart[code]
		if qty <= 0 {
			return nil, 0, errors.Annotatef(ErrInvalidQuantity, "code=%d qty=%d", code, qty)
		}
		item, ok := self.items[code]
		if !ok {
			return nil, 0, errors.Annotatef(ErrNotFound, "code=%d", code)
		}
		if item.Stock < qty {
			return nil, 0, errors.Annotatef(ErrInsufficientStock, "code=%d qty=%d stock=%d", code, qty, item.Stock)
		}
		sum, err := currency.MulAmount(item.Price, uint64(qty))
		if err == nil {
			total, err = currency.AddAmount(total, sum)
		}
		if err != nil {
			return nil, 0, errors.Annotatef(err, "code=%d qty=%d", code, qty)
		}
		lines = append(lines, Line{Code: code, Name: item.Name, Qty: qty, UnitPrice: item.Price})
	}
	return lines, total, nil
}

// Take deducts every cart line or nothing. Returns total at current prices.
func (self *Catalog) Take(cart Cart) (currency.Amount, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	_, total, err := self.locked_quote(cart)
	if err != nil {
		return 0, err
	}
	for code, qty := range cart {
		self.items[code].Stock -= qty
	}
	return total, nil
}

// PutBack reverts Take. Lines for products deleted in between are dropped.
func (self *Catalog) PutBack(cart Cart) {
	self.mu.Lock()
	defer self.mu.Unlock()
	for code, qty := range cart {
		if item, ok := self.items[code]; ok && qty > 0 {
			item.Stock += qty
		} else if !ok {
			self.log.Errorf("catalog.putback code=%d qty=%d product gone", code, qty)
		}
	}
}

func (self *Catalog) Store() error { return self.Persist.Store() }
