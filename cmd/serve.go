package main

import (
	"context"

	"github.com/desertthunder/raff/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the JSON API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	r.openStores()

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = int(port)
	}

	api := server.NewAPI(server.APIOpts{
		Catalog:   r.catalog,
		Assistant: r.assistant,
		Favorites: r.favorites,
		Reviews:   r.reviews,
		Downloads: r.downloads,
		Logger:    r.logger,
	})

	srv := server.NewServer(cfg.Addr(), server.NewRouter(api, r.logger), r.logger)
	r.writePlain("Serving the raff API on http://%s\n", srv.Addr())
	return srv.ListenAndServe(ctx)
}
