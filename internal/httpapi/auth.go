package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/errors"
	"golang.org/x/crypto/bcrypt"
)

const adminSubject = "service"

var errUnauthorized = errors.Unauthorizedf("invalid credentials")

type authenticator struct {
	secret []byte
	hashes []string
	ttl    time.Duration
	issuer string
}

// check compares password with every configured bcrypt hash.
func (self *authenticator) check(password string) bool {
	for _, h := range self.hashes {
		if bcrypt.CompareHashAndPassword([]byte(h), []byte(password)) == nil {
			return true
		}
	}
	return false
}

func (self *authenticator) issue(now time.Time) (string, time.Time, error) {
	exp := now.Add(self.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    self.issuer,
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(self.secret)
	return s, exp, errors.Annotate(err, "jwt sign")
}

func (self *authenticator) verify(token string) error {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method=%v", t.Header["alg"])
		}
		return self.secret, nil
	}, jwt.WithIssuer(self.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return errors.NewUnauthorized(err, "token")
	}
	if claims.Subject != adminSubject {
		return errors.Unauthorizedf("token subject=%q", claims.Subject)
	}
	return nil
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (self *Server) login(c *gin.Context) {
	if self.auth == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: "authentication disabled"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		self.fail(c, errors.NewNotValid(err, "login"))
		return
	}
	if !self.auth.check(req.Password) {
		self.log.Infof("http login rejected request_id=%s remote=%s", c.GetString(keyRequestID), c.ClientIP())
		self.fail(c, errUnauthorized)
		return
	}
	token, exp, err := self.auth.issue(time.Now())
	if err != nil {
		self.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: exp})
}

// requireAdmin passes everything when authentication is disabled.
func (self *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if self.auth == nil {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			self.fail(c, errors.Unauthorizedf("Authorization header must be Bearer token"))
			return
		}
		if err := self.auth.verify(parts[1]); err != nil {
			self.fail(c, err)
			return
		}
		c.Next()
	}
}
