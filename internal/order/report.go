package order

import (
	"context"
	"sort"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/juju/errors"
)

type TxRow struct {
	Number uint32          `json:"number"`
	Time   time.Time       `json:"time"`
	Method Method          `json:"method"`
	Total  currency.Amount `json:"total"`
}

type TxReport struct {
	Rows  []TxRow         `json:"rows"`
	Total currency.Amount `json:"total"`
}

type SalesRow struct {
	Code    int             `json:"code"`
	Name    string          `json:"name"`
	Qty     int             `json:"qty"`
	Revenue currency.Amount `json:"revenue"`
}

type SalesReport struct {
	Rows  []SalesRow      `json:"rows"`
	Total currency.Amount `json:"total"`
}

// DayRange converts inclusive calendar days into [start of from, start of day after to).
func DayRange(from, to time.Time) (time.Time, time.Time, error) {
	y, m, d := from.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, from.Location())
	y, m, d = to.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1)
	if !start.Before(end) {
		return start, end, errors.NotValidf("report range from=%s after to=%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return start, end, nil
}

func (self *Ledger) between(ctx context.Context, from, to time.Time) ([]Order, error) {
	start, end, err := DayRange(from, to)
	if err != nil {
		return nil, err
	}
	orders, err := self.store.Between(ctx, start, end)
	return orders, errors.Annotate(err, "report")
}

func (self *Ledger) Transactions(ctx context.Context, from, to time.Time) (*TxReport, error) {
	orders, err := self.between(ctx, from, to)
	if err != nil {
		return nil, err
	}
	r := &TxReport{Rows: make([]TxRow, 0, len(orders))}
	for _, o := range orders {
		r.Rows = append(r.Rows, TxRow{Number: o.Number, Time: o.Time, Method: o.Method, Total: o.Total})
		r.Total += o.Total
	}
	return r, nil
}

func (self *Ledger) ProductSales(ctx context.Context, from, to time.Time) (*SalesReport, error) {
	orders, err := self.between(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byCode := make(map[int]*SalesRow)
	for _, o := range orders {
		for _, l := range o.Lines {
			row, ok := byCode[l.Code]
			if !ok {
				row = &SalesRow{Code: l.Code, Name: l.Name}
				byCode[l.Code] = row
			}
			row.Qty += l.Qty
			row.Revenue += l.Total()
		}
	}
	r := &SalesReport{Rows: make([]SalesRow, 0, len(byCode))}
	for _, row := range byCode {
		r.Rows = append(r.Rows, *row)
		r.Total += row.Revenue
	}
	sort.Slice(r.Rows, func(i, j int) bool { return r.Rows[i].Code < r.Rows[j].Code })
	return r, nil
}
