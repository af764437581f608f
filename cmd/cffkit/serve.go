package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cffkit/internal/api"
	"github.com/samcharles93/cffkit/internal/reload"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		watch       bool
		debounce    time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve a data file over a REST API",
		Flags: dataCommandFlags(
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.BoolFlag{
				Name:        "watch",
				Usage:       "reload the file when it changes on disk",
				Destination: &watch,
			},
			&cli.DurationFlag{
				Name:        "debounce",
				Usage:       "quiet period before a changed file is reloaded",
				Value:       reload.DefaultDebounce,
				Destination: &debounce,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyServeConfig(cmd, cfg, &addr, &watch)
			ctx, log, err := setup(ctx, cmd, cfg)
			if err != nil {
				return err
			}
			path, err := resolveDataFile(dataFile, os.Stdin, os.Stderr)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			cats, err := loadCatalogs(catalogFile)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load catalog: %v", err), 1)
			}

			holder, err := reload.Open(path, newLoader(cats, gameVersion, log), log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open %s: %v", path, err), 1)
			}
			if watch {
				w, err := holder.StartWatching(debounce)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: watch %s: %v", path, err), 1)
				}
				defer func() { _ = w.Close() }()
				log.Info("watching data file", "path", path)
			}

			server := api.NewServer(holder, api.NewEditLog(), log)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "data", path)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
