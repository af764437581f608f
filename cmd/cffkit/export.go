package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cffkit/internal/logger"
	"github.com/samcharles93/cffkit/internal/sqlexport"
)

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Copy every table into a SQLite database",
		ArgsUsage: "OUT.db",
		Flags:     dataCommandFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, _, g, err := openFromFlags(ctx, cmd, LoadConfig())
			if err != nil {
				return err
			}
			if cmd.Args().Len() != 1 {
				return cli.Exit("error: expected an OUT.db argument", 2)
			}
			out := cmd.Args().First()
			stats, err := sqlexport.Export(ctx, g, out)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: export %s: %v", out, err), 1)
			}
			logger.FromContext(ctx).Info("exported data file", "path", out, "tables", stats.Tables, "rows", stats.Rows)
			return nil
		},
	}
}
