package httpapi

import (
	"net/http"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
)

type nominalRequest struct {
	Nominal string `json:"nominal" binding:"required"`
	Count   int    `json:"count"`
}

type changeRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type changeResponse struct {
	Amount string         `json:"amount"`
	Change string         `json:"change"`
	Counts []nominalCount `json:"counts"`
	Till   tillView       `json:"till"`
}

func (self *Server) tillView() tillView {
	snap := self.g.Till.Snapshot()
	v := tillView{Total: snap.Total().Format100I(), Counts: make([]nominalCount, 0, 16)}
	for _, n := range self.g.Till.Nominals() {
		c, _ := snap.Get(n)
		v.Counts = append(v.Counts, nominalCount{Nominal: currency.Amount(n).Format100I(), Count: c})
	}
	return v
}

func (self *Server) storeTill() {
	if err := self.g.Till.Store(); err != nil {
		self.log.Errorf("http store till err=%v", err)
	}
}

func (self *Server) tillGet(c *gin.Context) { c.JSON(http.StatusOK, self.tillView()) }

func (self *Server) bindNominal(c *gin.Context) (currency.Nominal, int, bool) {
	var req nominalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		self.fail(c, errors.NewNotValid(err, "request"))
		return 0, 0, false
	}
	n, err := currency.ParseNominal(req.Nominal, self.g.Till.Nominals())
	if err != nil {
		self.fail(c, err)
		return 0, 0, false
	}
	return n, req.Count, true
}

func (self *Server) tillDeposit(c *gin.Context) {
	n, count, ok := self.bindNominal(c)
	if !ok {
		return
	}
	if err := self.g.Till.Deposit(n, count); err != nil {
		self.fail(c, err)
		return
	}
	self.storeTill()
	c.JSON(http.StatusOK, self.tillView())
}

func (self *Server) tillWithdraw(c *gin.Context) {
	n, count, ok := self.bindNominal(c)
	if !ok {
		return
	}
	if err := self.g.Till.Withdraw(n, count); err != nil {
		self.fail(c, err)
		return
	}
	self.storeTill()
	c.JSON(http.StatusOK, self.tillView())
}

func (self *Server) tillReset(c *gin.Context) {
	self.g.Till.Reset()
	self.storeTill()
	self.log.Infof("http till reset request_id=%s", c.GetString(keyRequestID))
	c.JSON(http.StatusOK, self.tillView())
}

// tillChange dispenses change for an amount outside of checkout.
func (self *Server) tillChange(c *gin.Context) {
	var req changeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		self.fail(c, errors.NewNotValid(err, "request"))
		return
	}
	amount, err := currency.ParseAmount(req.Amount)
	if err != nil {
		self.fail(c, err)
		return
	}
	change, err := self.g.Till.MakeChange(amount)
	if err != nil {
		self.fail(c, err)
		return
	}
	self.storeTill()
	c.JSON(http.StatusOK, changeResponse{
		Amount: amount.Format100I(),
		Change: change.Total().Format100I(),
		Counts: groupView(change.ToMap()),
		Till:   self.tillView(),
	})
}
