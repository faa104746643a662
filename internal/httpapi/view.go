package httpapi

import (
	"sort"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/catalog"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/order"
)

// Amounts leave the API as decimal text, "6.50".

type nominalCount struct {
	Nominal string `json:"nominal"`
	Count   uint   `json:"count"`
}

// groupView lists non-zero counts, largest nominal first.
func groupView(m map[currency.Nominal]uint) []nominalCount {
	list := make([]nominalCount, 0, len(m))
	ns := make([]currency.Nominal, 0, len(m))
	for n, c := range m {
		if c != 0 {
			ns = append(ns, n)
		}
	}
	sort.Slice(ns, func(i, j int) bool { return ns[i] > ns[j] })
	for _, n := range ns {
		list = append(list, nominalCount{Nominal: currency.Amount(n).Format100I(), Count: m[n]})
	}
	return list
}

type tillView struct {
	Total  string         `json:"total"`
	Counts []nominalCount `json:"counts"`
}

type productView struct {
	Code       int    `json:"code"`
	Name       string `json:"name"`
	Kind       string `json:"kind,omitempty"`
	Price      string `json:"price"`
	ValidUntil string `json:"valid_until,omitempty"`
	Expired    bool   `json:"expired,omitempty"`
	Stock      int    `json:"stock"`
}

func newProductView(item *catalog.Item, now time.Time) productView {
	v := productView{
		Code:    item.Code,
		Name:    item.Name,
		Kind:    item.Kind,
		Price:   item.Price.Format100I(),
		Expired: item.Expired(now),
		Stock:   item.Stock,
	}
	if item.ValidUntil != nil {
		v.ValidUntil = item.ValidUntil.Format(catalog.DateLayout)
	}
	return v
}

type lineView struct {
	Code      int    `json:"code"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

type receiptView struct {
	Number         uint32         `json:"number"`
	Time           time.Time      `json:"time"`
	Method         order.Method   `json:"method"`
	Lines          []lineView     `json:"lines"`
	Total          string         `json:"total"`
	Tendered       string         `json:"tendered"`
	Change         string         `json:"change"`
	ChangeNominals []nominalCount `json:"change_nominals,omitempty"`
	QR             string         `json:"qr"`
}

func newReceiptView(o *order.Order) receiptView {
	v := receiptView{
		Number:         o.Number,
		Time:           o.Time,
		Method:         o.Method,
		Lines:          make([]lineView, 0, len(o.Lines)),
		Total:          o.Total.Format100I(),
		Tendered:       o.Tendered.Format100I(),
		Change:         o.ChangeTotal().Format100I(),
		ChangeNominals: groupView(o.Change),
		QR:             qrPath(o.Number),
	}
	for _, l := range o.Lines {
		v.Lines = append(v.Lines, lineView{
			Code:      l.Code,
			Name:      l.Name,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice.Format100I(),
			Total:     l.Total().Format100I(),
		})
	}
	return v
}
