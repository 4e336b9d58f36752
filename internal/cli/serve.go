package cli

import (
	"github.com/spf13/cobra"

	"github.com/usetrmnl/inkpipe/pkg/server"
)

// serveCommand starts the HTTP server devices poll for bitmaps.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recipe bitmaps, previews and mixups over HTTP",
		Long: `Serve starts the inkpipe HTTP server.

Devices fetch /api/bitmap/{slug}.bmp and /api/mixup/{id}; designers use
/api/recipes/{slug}.png and .svg to preview recipes in a browser.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			c.Logger.Info("starting server", "addr", addr, "config", a.cfg.String(), "recipes", a.registry.Len())

			srv := server.New(a.runner, a.compositor, a.store, a.cfg.Display, c.Logger)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
