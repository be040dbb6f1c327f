package system

import (
	"fmt"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/server"
)

type ServeCmd struct {
	Addr string `help:"Listen address. Defaults to server.addr from the config file."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	addr := c.Addr
	if addr == "" {
		addr = ctx.Config.Server.Addr
	}
	fmt.Printf("Serving cadence API on http://%s\n", addr)
	return server.New(ctx.Store, ctx.Engine).Start(ctx.Context(), addr)
}
