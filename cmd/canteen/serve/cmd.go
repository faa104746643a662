// Terminal service: HTTP API, telemetry and periodic till reports.
package serve

import (
	"context"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/cmd/canteen/subcmd"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/httpapi"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/state"
	"github.com/coreos/go-systemd/daemon"
	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
)

var Mod = subcmd.Mod{Name: "serve", Usage: "run terminal service", Main: Main}

const reportInterval = time.Hour

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	defer g.Close()

	gin.SetMode(gin.ReleaseMode)
	srv, err := httpapi.NewServer(g)
	if err != nil {
		return errors.Annotate(err, "serve")
	}

	g.Alive.Add(1)
	go func() {
		defer g.Alive.Done()
		reportLoop(ctx, g)
	}()

	subcmd.SdNotify(daemon.SdNotifyReady)
	g.Log.Debugf("serve init complete, running")
	err = srv.Run(ctx)
	g.Stop()
	g.Alive.Wait()
	if err := g.Till.Store(); err != nil {
		g.Log.Errorf("serve store till err=%v", err)
	}
	if err := g.Catalog.Store(); err != nil {
		g.Log.Errorf("serve store catalog err=%v", err)
	}
	return err
}

func reportLoop(ctx context.Context, g *state.Global) {
	tmr := time.NewTicker(reportInterval)
	defer tmr.Stop()
	stopCh := g.Alive.StopChan()
	for {
		select {
		case <-tmr.C:
			if err := g.Tele.Report(ctx, false); err != nil {
				g.Log.Errorf("serve tele report err=%v", err)
			}
		case <-stopCh:
			return
		}
	}
}
