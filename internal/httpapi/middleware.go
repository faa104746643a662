package httpapi

import (
	"net/http"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/catalog"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/order"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/payment"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/till"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/juju/errors"
)

const (
	headerRequestID = "X-Request-ID"
	keyRequestID    = "request_id"
)

func (self *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(keyRequestID, id)
		c.Header(headerRequestID, id)

		c.Next()

		self.log.Debugf("http request_id=%s %s %s status=%d latency=%s",
			id, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (self *Server) fail(c *gin.Context, err error) {
	status := errorStatus(err)
	id := c.GetString(keyRequestID)
	if status >= http.StatusInternalServerError {
		self.log.Errorf("http request_id=%s %s %s err=%v", id, c.Request.Method, c.Request.URL.Path, errors.ErrorStack(err))
	} else {
		self.log.Debugf("http request_id=%s status=%d err=%v", id, status, err)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error(), RequestID: id})
}

func errorStatus(err error) int {
	switch errors.Cause(err) {
	case payment.ErrEmptyCart, payment.ErrUnknownMethod,
		catalog.ErrInvalidQuantity,
		till.ErrUnrecognizedDenomination, till.ErrNegativeCount,
		currency.ErrNominalInvalid, currency.ErrAmountOverflow,
		catalog.ErrExpired:
		return http.StatusBadRequest
	case payment.ErrNeedMoreMoney:
		return http.StatusPaymentRequired
	case catalog.ErrNotFound, order.ErrNotFound:
		return http.StatusNotFound
	case catalog.ErrDuplicate, catalog.ErrInsufficientStock,
		till.ErrInsufficientStock, till.ErrInsufficientChange,
		payment.ErrPriceChanged:
		return http.StatusConflict
	}
	switch {
	case errors.IsNotValid(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsAlreadyExists(err):
		return http.StatusConflict
	case errors.IsUnauthorized(err):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
