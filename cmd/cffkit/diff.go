package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/cffkit/pkg/cff"
)

func diffCmd() *cli.Command {
	var summary bool

	return &cli.Command{
		Name:      "diff",
		Usage:     "Compare two data files field by field",
		ArgsUsage: "OLD NEW",
		Flags: append(append(catalogFlags(), loggingFlags()...),
			&cli.BoolFlag{
				Name:        "summary",
				Usage:       "print one line per changed table",
				Destination: &summary,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, _, err := setup(ctx, cmd, LoadConfig())
			if err != nil {
				return err
			}
			if cmd.Args().Len() != 2 {
				return cli.Exit("error: expected OLD and NEW file arguments", 2)
			}

			var files [2]*cff.GameData
			eg, egCtx := errgroup.WithContext(ctx)
			for i, path := range cmd.Args().Slice() {
				eg.Go(func() error {
					g, err := openDataFile(egCtx, path)
					if err != nil {
						return fmt.Errorf("open %s: %w", path, err)
					}
					files[i] = g
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			diffs := cff.Diff(files[0], files[1])
			for _, d := range diffs {
				if summary || d.OldRows != d.NewRows {
					_, _ = fmt.Fprintf(stdout, "%s: rows %d -> %d, %d changed fields\n", d.Table, d.OldRows, d.NewRows, len(d.Fields))
				}
				if summary {
					continue
				}
				for _, f := range d.Fields {
					_, _ = fmt.Fprintf(stdout, "%s[%d].%s: %s -> %s\n", f.Table, f.Row, f.Field, formatValue(f.Old), formatValue(f.New))
				}
			}
			if len(diffs) == 0 {
				_, _ = fmt.Fprintln(stdout, "no differences")
			}
			return nil
		},
	}
}
