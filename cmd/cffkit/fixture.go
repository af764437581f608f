package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cffkit/internal/logger"
	"github.com/samcharles93/cffkit/internal/toy"
	"github.com/samcharles93/cffkit/pkg/cff"
)

func fixtureCmd() *cli.Command {
	var (
		seed       int64
		extraItems int64
	)

	return &cli.Command{
		Name:      "fixture",
		Usage:     "Write a small synthetic data file for experiments and tests",
		ArgsUsage: "OUT.cff",
		Flags: append(append(catalogFlags(), loggingFlags()...),
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "seed for the filler rows",
				Value:       1,
				Destination: &seed,
			},
			&cli.Int64Flag{
				Name:        "extra-items",
				Usage:       "number of filler items to append",
				Destination: &extraItems,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, _, err := setup(ctx, cmd, LoadConfig())
			if err != nil {
				return err
			}
			if cmd.Args().Len() != 1 {
				return cli.Exit("error: expected an OUT.cff argument", 2)
			}
			out := cmd.Args().First()

			cat, err := fixtureCatalog()
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			data, err := toy.Build(cat, toy.Options{Seed: uint64(seed), ExtraItems: int(max(extraItems, 0))})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: build fixture: %v", err), 1)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return cli.Exit(fmt.Sprintf("error: write %s: %v", out, err), 1)
			}
			logger.FromContext(ctx).Info("wrote fixture", "path", out, "version", cat.Version, "bytes", len(data), "checksum", cff.Checksum(data))
			return nil
		},
	}
}

// fixtureCatalog picks the catalog named by --game-version, or the first one.
func fixtureCatalog() (*cff.Catalog, error) {
	cats, err := loadCatalogs(catalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if gameVersion == "" {
		return cats[0], nil
	}
	for _, c := range cats {
		if c.Version == gameVersion {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unknown game version %q", gameVersion)
}
