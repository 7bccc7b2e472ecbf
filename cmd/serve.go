package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"spotgrab/internal/repositories"
	"spotgrab/internal/server"
)

// Serve runs the HTTP variant of the downloader: queued runs over POST
// /downloads, polled over GET /downloads/{id}.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := int(cmd.Int("port")); port != 0 {
		r.config.Server.Port = port
	}

	catalog, err := r.spotifyCatalog(ctx)
	if err != nil {
		return err
	}

	var repo repositories.DownloadRepository
	if opened, cleanup, err := r.openRepository(); err != nil {
		r.logger.Warn("archive unavailable, runs will not be recorded", "error", err)
	} else {
		repo = opened
		defer cleanup()
	}

	api := server.NewAPI(catalog, r.engine, repo, r.config, r.logger)
	srv := server.New(r.config.Server, api, r.logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	r.logger.Info("server listening", "host", r.config.Server.Host, "port", r.config.Server.Port)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// serveCommand handles the HTTP server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the download HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}
