// Package httpapi is the terminal HTTP surface: sale screen, admin till and catalog, reports.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/internal/state"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultListen = "127.0.0.1:8080"

type Server struct {
	g       *state.Global
	log     *log2.Log
	router  *gin.Engine
	metrics *metrics
	auth    *authenticator
	listen  string
}

func NewServer(g *state.Global) (*Server, error) {
	if g.Checkout == nil {
		panic("code error httpapi.NewServer before Global.Init")
	}
	cfg := g.Config
	self := &Server{
		g:      g,
		log:    g.Log,
		router: gin.New(),
		listen: cfg.HTTP.Listen,
	}
	if self.listen == "" {
		self.listen = DefaultListen
	}
	if cfg.UI.Service.Auth.Enable {
		if cfg.HTTP.JwtSecret == "" {
			return nil, errors.NotValidf("http.jwt_secret empty with ui.service.auth.enable")
		}
		self.auth = &authenticator{
			secret: []byte(cfg.HTTP.JwtSecret),
			hashes: cfg.UI.Service.Auth.Passwords,
			ttl:    cfg.TokenTTL(),
			issuer: cfg.Tele.TopicPrefix(),
		}
	} else {
		g.Log.Errorf("http admin routes without authentication, set ui.service.auth.enable")
	}
	self.metrics = newMetrics(prometheus.NewRegistry(), g.Till)
	self.setupRoutes()
	return self, nil
}

func (self *Server) setupRoutes() {
	r := self.router
	r.Use(gin.Recovery(), self.requestLog(), self.metrics.middleware())

	r.GET("/health", self.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(self.metrics.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	v1.POST("/login", self.login)
	v1.GET("/catalog", self.catalogList)
	v1.POST("/checkout", self.checkout)
	v1.GET("/orders/:number/qr.png", self.orderQR)

	admin := v1.Group("")
	admin.Use(self.requireAdmin())
	admin.GET("/orders/:number", self.orderGet)
	admin.GET("/till", self.tillGet)
	admin.POST("/till/deposit", self.tillDeposit)
	admin.POST("/till/withdraw", self.tillWithdraw)
	admin.POST("/till/reset", self.tillReset)
	admin.POST("/till/change", self.tillChange)
	admin.POST("/catalog", self.catalogAdd)
	admin.DELETE("/catalog/:code", self.catalogDelete)
	admin.POST("/catalog/:code/stock", self.catalogStock)
	admin.GET("/reports/transactions", self.reportTransactions)
	admin.GET("/reports/sales", self.reportSales)
	admin.GET("/reports/expiry", self.reportExpiry)
}

func (self *Server) Handler() http.Handler { return self.router }

// Run serves until ctx is done or Global is stopped.
func (self *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              self.listen,
		Handler:           self.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	self.log.Infof("http listen=%s", self.listen)

	select {
	case err := <-errCh:
		return errors.Annotatef(err, "http listen=%s", self.listen)
	case <-ctx.Done():
	case <-self.g.Alive.StopChan():
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return errors.Annotate(err, "http shutdown")
	}
	return nil
}

func (self *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"build_version": self.g.BuildVersion,
		"terminal_id":   self.g.Config.Tele.TerminalId,
	})
}
