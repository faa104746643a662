package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/helpers"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/catalog"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/events"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/order"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/payment"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/till"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	tele_api "github.com/MatheusdoNAm/AutoAtendimento/tele"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"github.com/temoto/alive/v2"
)

type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Config       *Config
	Log          *log2.Log
	Tele         tele_api.Teler

	Till     *till.Till
	Catalog  *catalog.Catalog
	Ledger   *order.Ledger
	Events   events.Publisher
	Checkout *payment.Checkout

	closers []func()

	_copy_guard sync.Mutex //nolint:unused
}

const ContextKey = "run/state-global"

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg

	g.Log.Infof("build version=%s", g.BuildVersion)

	if g.Config.Persist.Root == "" {
		g.Config.Persist.Root = "./tmp-canteen-db"
		if g.Config.Till.Persist || g.Config.Catalog.Persist || g.Config.Tele.Enabled {
			g.Log.Errorf("config: persist.root=empty changed=%s", g.Config.Persist.Root)
		}
	}
	g.Log.Debugf("config: persist.root=%s", g.Config.Persist.Root)

	// Since tele is remote error reporting mechanism, it must be inited before anything else
	g.Config.Tele.BuildVersion = g.BuildVersion
	if g.Config.Tele.PersistPath == "" {
		g.Config.Tele.PersistPath = filepath.Join(g.Config.Persist.Root, "tele")
	}
	// Tele.Init gets g.Log clone before SetErrorFunc, so Tele.Log.Error doesn't recurse on itself
	if err := g.Tele.Init(ctx, g.Log.Clone(log2.LInfo), g.Config.Tele); err != nil {
		g.Tele = tele_api.Noop{}
		return errors.Annotate(err, "tele init")
	}
	g.Log.SetErrorFunc(g.Tele.Error)
	g.closers = append(g.closers, g.Tele.Close)

	if g.BuildVersion == "unknown" {
		g.Error(fmt.Errorf("build version is not set, please use script/build"))
	} else if g.Config.Tele.TerminalId > 0 && strings.HasSuffix(g.BuildVersion, "-dirty") { // terminal<=0 is staging
		g.Error(fmt.Errorf("running development build with uncommited changes, bad idea for production"))
	}

	errs := make([]error, 0)
	errs = append(errs, g.initTill())
	errs = append(errs, g.initCatalog())
	errs = append(errs, g.initLedger(ctx))
	errs = append(errs, g.initEvents())
	if err := helpers.FoldErrors(errs); err != nil {
		return err
	}

	g.Checkout = payment.New(g.Log, g.Till, g.Catalog, g.Ledger, g.Events, g.Tele)
	g.Tele.State(tele_api.State_Nominal)
	return nil
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	err := g.Init(ctx, cfg)
	if err != nil {
		g.Fatal(err)
	}
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Tele.Error(err)
		g.Log.Infof("error: %v", err)
	}
}

func (g *Global) Fatal(err error, args ...interface{}) {
	if err != nil {
		g.Error(err, args...)
		g.StopWait(5 * time.Second)
		g.Log.Fatal(errors.ErrorStack(err))
		os.Exit(1)
	}
}

func (g *Global) Stop() {
	g.Alive.Stop()
}

func (g *Global) StopWait(timeout time.Duration) bool {
	g.Alive.Stop()
	select {
	case <-g.Alive.WaitChan():
		return true
	case <-time.After(timeout):
		return false
	}
}

// Close releases network clients and storage, last opened first.
func (g *Global) Close() {
	for i := len(g.closers) - 1; i >= 0; i-- {
		g.closers[i]()
	}
	g.closers = nil
}

func (g *Global) initTill() error {
	g.Till = till.New(g.Log, currency.CanteenNominals)
	initial, err := g.Config.TillInitial(g.Till.Nominals())
	if err != nil {
		return errors.Annotate(err, "initTill")
	}
	if err = g.Till.DepositGroup(initial); err != nil {
		return errors.Annotate(err, "initTill")
	}
	// stored counts replace initial ones
	err = g.Till.Init(g.Config.Persist.Root, g.Config.Till.Persist, g.Log)
	return errors.Annotate(err, "initTill")
}

func (g *Global) initCatalog() error {
	g.Catalog = catalog.New(g.Log)
	errs := make([]error, 0)
	for _, pc := range g.Config.Products() {
		p, err := pc.Product()
		if err == nil {
			err = g.Catalog.Register(p)
		}
		if err == nil && pc.Stock != 0 {
			err = g.Catalog.AddStock(p.Code, pc.Stock)
		}
		if err != nil {
			errs = append(errs, errors.Annotatef(err, "config catalog product=%s", pc.Code))
		}
	}
	if err := helpers.FoldErrors(errs); err != nil {
		return errors.Annotate(err, "initCatalog")
	}
	err := g.Catalog.Init(g.Config.Persist.Root, g.Config.Catalog.Persist, g.Log)
	return errors.Annotate(err, "initCatalog")
}

func (g *Global) initLedger(ctx context.Context) error {
	var store order.Store
	var last uint32
	if dsn := g.Config.Ledger.DatabaseURL; dsn != "" {
		pg, err := order.NewPgStore(ctx, dsn)
		if err != nil {
			return errors.Annotate(err, "initLedger")
		}
		g.closers = append(g.closers, pg.Close)
		if last, err = pg.LastNumber(ctx); err != nil {
			return errors.Annotate(err, "initLedger")
		}
		store = pg
	} else {
		store = order.NewMemoryStore()
	}

	var seq order.Sequence
	if addr := g.Config.Ledger.RedisAddr; addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		g.closers = append(g.closers, func() { _ = rdb.Close() })
		rseq := order.NewRedisSequence(rdb, g.Config.Ledger.RedisKey)
		if err := rseq.Floor(ctx, last); err != nil {
			return errors.Annotate(err, "initLedger")
		}
		seq = rseq
	} else {
		seq = order.NewAtomicSequence(last)
	}
	g.Ledger = order.NewLedger(g.Log, seq, store)
	return nil
}

func (g *Global) initEvents() error {
	cfg := &g.Config.Events
	if len(cfg.KafkaBrokers) == 0 {
		g.Events = events.Noop{}
		return nil
	}
	p, err := events.NewKafkaPublisher(g.Log, cfg.KafkaBrokers, cfg.KafkaTopic, g.Config.Tele.TerminalId)
	if err != nil {
		g.Events = events.Noop{}
		return errors.Annotate(err, "initEvents")
	}
	g.Events = p
	g.closers = append(g.closers, func() {
		if err := p.Close(); err != nil {
			g.Log.Errorf("events close err=%v", err)
		}
	})
	return nil
}
