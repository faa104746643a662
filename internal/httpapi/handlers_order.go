package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/catalog"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/order"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/payment"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/till"
	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

type cartLine struct {
	Code int `json:"code" binding:"required"`
	Qty  int `json:"qty" binding:"required"`
}

type checkoutRequest struct {
	Method string     `json:"method" binding:"required"`
	Items  []cartLine `json:"items" binding:"dive"`
	// cash only, nominal text -> count
	Tendered map[string]uint `json:"tendered"`
}

func (r *checkoutRequest) request() (payment.Request, error) {
	req := payment.Request{
		Cart:   make(catalog.Cart, len(r.Items)),
		Method: order.Method(r.Method),
	}
	for _, l := range r.Items {
		req.Cart[l.Code] += l.Qty
	}
	if len(r.Tendered) != 0 {
		req.Tendered = make(map[currency.Nominal]uint, len(r.Tendered))
		for s, count := range r.Tendered {
			a, err := currency.ParseAmount(s)
			if err != nil {
				return req, errors.Annotate(err, "tendered")
			}
			req.Tendered[currency.Nominal(a)] += count
		}
	}
	return req, nil
}

func qrPath(number uint32) string { return fmt.Sprintf("/api/v1/orders/%d/qr.png", number) }

func (self *Server) qrText(o *order.Order) string {
	return fmt.Sprintf("%s:order:%d:%s:%s", self.g.Config.Tele.TopicPrefix(), o.Number, o.Method, o.Total.Format100I())
}

func (self *Server) checkout(c *gin.Context) {
	var body checkoutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		self.fail(c, errors.NewNotValid(err, "request"))
		return
	}
	req, err := body.request()
	if err != nil {
		self.fail(c, err)
		return
	}
	receipt, err := self.g.Checkout.Pay(c.Request.Context(), req)
	self.metrics.checkout.WithLabelValues(body.Method, checkoutResult(err)).Inc()
	if err != nil {
		self.fail(c, err)
		return
	}
	self.metrics.revenue.WithLabelValues(string(receipt.Method)).Add(float64(receipt.Total))
	o := order.Order{
		Number:   receipt.Number,
		Time:     receipt.Time,
		Method:   receipt.Method,
		Lines:    receipt.Lines,
		Total:    receipt.Total,
		Tendered: receipt.Tendered,
		Change:   receipt.Change,
	}
	c.JSON(http.StatusCreated, newReceiptView(&o))
}

func checkoutResult(err error) string {
	switch errors.Cause(err) {
	case nil:
		return "ok"
	case payment.ErrNeedMoreMoney:
		return "need_more_money"
	case till.ErrInsufficientChange:
		return "insufficient_change"
	case catalog.ErrInsufficientStock:
		return "insufficient_stock"
	case payment.ErrPriceChanged:
		return "price_changed"
	}
	if errorStatus(err) < http.StatusInternalServerError {
		return "rejected"
	}
	return "error"
}

func (self *Server) paramOrder(c *gin.Context) (*order.Order, bool) {
	n, err := strconv.ParseUint(c.Param("number"), 10, 32)
	if err != nil || n == 0 {
		self.fail(c, errors.NotValidf("order number=%q", c.Param("number")))
		return nil, false
	}
	o, err := self.g.Ledger.Get(c.Request.Context(), uint32(n))
	if err != nil {
		self.fail(c, err)
		return nil, false
	}
	return o, true
}

func (self *Server) orderGet(c *gin.Context) {
	if o, ok := self.paramOrder(c); ok {
		c.JSON(http.StatusOK, newReceiptView(o))
	}
}

func (self *Server) orderQR(c *gin.Context) {
	o, ok := self.paramOrder(c)
	if !ok {
		return
	}
	png, err := qrcode.Encode(self.qrText(o), qrcode.Medium, qrSize)
	if err != nil {
		self.fail(c, errors.Annotate(err, "qrcode"))
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// reportRange reads inclusive `from` and `to` days, both default to today.
func reportRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	parse := func(key string) (time.Time, error) {
		s := c.Query(key)
		if s == "" {
			return now, nil
		}
		t, err := time.ParseInLocation(catalog.DateLayout, s, time.Local)
		if err != nil {
			return t, errors.NewNotValid(err, key)
		}
		return t, nil
	}
	from, err := parse("from")
	if err != nil {
		return from, from, err
	}
	to, err := parse("to")
	return from, to, err
}

type txRowView struct {
	Number uint32       `json:"number"`
	Time   time.Time    `json:"time"`
	Method order.Method `json:"method"`
	Total  string       `json:"total"`
}

type salesRowView struct {
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Qty     int    `json:"qty"`
	Revenue string `json:"revenue"`
}

type reportView struct {
	From  string      `json:"from"`
	To    string      `json:"to"`
	Rows  interface{} `json:"rows"`
	Total string      `json:"total"`
}

func (self *Server) reportTransactions(c *gin.Context) {
	from, to, err := reportRange(c)
	if err != nil {
		self.fail(c, err)
		return
	}
	r, err := self.g.Ledger.Transactions(c.Request.Context(), from, to)
	if err != nil {
		self.fail(c, err)
		return
	}
	rows := make([]txRowView, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, txRowView{Number: row.Number, Time: row.Time, Method: row.Method, Total: row.Total.Format100I()})
	}
	c.JSON(http.StatusOK, reportView{
		From:  from.Format(catalog.DateLayout),
		To:    to.Format(catalog.DateLayout),
		Rows:  rows,
		Total: r.Total.Format100I(),
	})
}

func (self *Server) reportSales(c *gin.Context) {
	from, to, err := reportRange(c)
	if err != nil {
		self.fail(c, err)
		return
	}
	r, err := self.g.Ledger.ProductSales(c.Request.Context(), from, to)
	if err != nil {
		self.fail(c, err)
		return
	}
	rows := make([]salesRowView, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, salesRowView{Code: row.Code, Name: row.Name, Qty: row.Qty, Revenue: row.Revenue.Format100I()})
	}
	c.JSON(http.StatusOK, reportView{
		From:  from.Format(catalog.DateLayout),
		To:    to.Format(catalog.DateLayout),
		Rows:  rows,
		Total: r.Total.Format100I(),
	})
}

type expiryRowView struct {
	Code       int                  `json:"code"`
	Name       string               `json:"name"`
	ValidUntil string               `json:"valid_until"`
	Days       int                  `json:"days"`
	Status     catalog.ExpiryStatus `json:"status"`
	Stock      int                  `json:"stock"`
}

// reportExpiry lists dated products as of `date`, default today.
func (self *Server) reportExpiry(c *gin.Context) {
	now := time.Now()
	if s := c.Query("date"); s != "" {
		t, err := time.ParseInLocation(catalog.DateLayout, s, time.Local)
		if err != nil {
			self.fail(c, errors.NewNotValid(err, "date"))
			return
		}
		now = t
	}
	report := self.g.Catalog.ExpiryReport(now)
	rows := make([]expiryRowView, 0, len(report))
	for _, row := range report {
		rows = append(rows, expiryRowView{
			Code:       row.Code,
			Name:       row.Name,
			ValidUntil: row.ValidUntil.Format(catalog.DateLayout),
			Days:       row.Days,
			Status:     row.Status,
			Stock:      row.Stock,
		})
	}
	c.JSON(http.StatusOK, gin.H{"date": now.Format(catalog.DateLayout), "rows": rows})
}
