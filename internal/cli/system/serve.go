package system

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/ibadah/internal/cli"
	"github.com/julianstephens/ibadah/internal/server"
)

type ServeCmd struct {
	Addr string `help:"Listen address. Defaults to IBADAH_SERVE_ADDR."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	opts := server.Options{
		Today:   ctx.TodayKey,
		Metrics: ctx.Metrics,
	}
	addr := c.Addr
	if ctx.Config != nil {
		opts.RequestsPerSecond = ctx.Config.ServeRequestsPerSec
		opts.AllowedOrigins = ctx.Config.CORSOrigins
		if addr == "" {
			addr = ctx.Config.ServeAddr
		}
	}
	if addr == "" {
		addr = "127.0.0.1:8085"
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(ctx.Journal(), opts).Run(runCtx, addr)
}
