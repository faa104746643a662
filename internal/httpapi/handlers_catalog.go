package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/catalog"
	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
)

type productRequest struct {
	Code       int    `json:"code" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Kind       string `json:"kind"`
	Price      string `json:"price" binding:"required"`
	ValidUntil string `json:"valid_until"`
	Stock      int    `json:"stock" binding:"min=0"`
}

func (r *productRequest) product() (catalog.Product, error) {
	price, err := currency.ParseAmount(r.Price)
	if err != nil {
		return catalog.Product{}, err
	}
	p := catalog.Product{Code: r.Code, Name: r.Name, Kind: r.Kind, Price: price}
	if r.ValidUntil != "" {
		t, err := time.ParseInLocation(catalog.DateLayout, r.ValidUntil, time.Local)
		if err != nil {
			return p, errors.NewNotValid(err, "valid_until")
		}
		p.ValidUntil = &t
	}
	return p, nil
}

type stockRequest struct {
	// negative removes
	Qty int `json:"qty"`
}

func (self *Server) storeCatalog() {
	if err := self.g.Catalog.Store(); err != nil {
		self.log.Errorf("http store catalog err=%v", err)
	}
}

func (self *Server) catalogList(c *gin.Context) {
	now := time.Now()
	items := self.g.Catalog.List()
	list := make([]productView, 0, len(items))
	for i := range items {
		list = append(list, newProductView(&items[i], now))
	}
	c.JSON(http.StatusOK, list)
}

func (self *Server) catalogAdd(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		self.fail(c, errors.NewNotValid(err, "request"))
		return
	}
	p, err := req.product()
	if err == nil {
		err = self.g.Catalog.Register(p)
	}
	if err == nil && req.Stock > 0 {
		err = self.g.Catalog.AddStock(p.Code, req.Stock)
	}
	if err != nil {
		self.fail(c, err)
		return
	}
	self.storeCatalog()
	item, _ := self.g.Catalog.Get(p.Code)
	c.JSON(http.StatusCreated, newProductView(&item, time.Now()))
}

func (self *Server) paramCode(c *gin.Context) (int, bool) {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil {
		self.fail(c, errors.NotValidf("product code=%q", c.Param("code")))
		return 0, false
	}
	return code, true
}

func (self *Server) catalogDelete(c *gin.Context) {
	code, ok := self.paramCode(c)
	if !ok {
		return
	}
	if err := self.g.Catalog.Delete(code); err != nil {
		self.fail(c, err)
		return
	}
	self.storeCatalog()
	c.Status(http.StatusNoContent)
}

func (self *Server) catalogStock(c *gin.Context) {
	code, ok := self.paramCode(c)
	if !ok {
		return
	}
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		self.fail(c, errors.NewNotValid(err, "request"))
		return
	}
	var err error
	if req.Qty < 0 {
		err = self.g.Catalog.RemoveStock(code, -req.Qty)
	} else {
		err = self.g.Catalog.AddStock(code, req.Qty)
	}
	if err != nil {
		self.fail(c, err)
		return
	}
	self.storeCatalog()
	item, _ := self.g.Catalog.Get(code)
	c.JSON(http.StatusOK, newProductView(&item, time.Now()))
}
