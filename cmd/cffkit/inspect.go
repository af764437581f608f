package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cffkit/pkg/cff"
)

func inspectCmd() *cli.Command {
	var showUnknown bool

	return &cli.Command{
		Name:  "inspect",
		Usage: "Summarise a data file: version, tables and unknown enum values",
		Flags: dataCommandFlags(
			&cli.BoolFlag{
				Name:        "unknown",
				Usage:       "list every unknown enum value, not just the summary",
				Destination: &showUnknown,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, path, g, err := openFromFlags(ctx, cmd, LoadConfig())
			if err != nil {
				return err
			}
			raw, err := g.Bytes()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: encode: %v", err), 1)
			}

			cat := g.Catalog()
			_, _ = fmt.Fprintf(stdout, "CFF Inspect: %s\n", path)
			_, _ = fmt.Fprintf(stdout, "File: %s (%s)\n", filepath.Base(path), formatBytes(uint64(len(raw))))
			_, _ = fmt.Fprintf(stdout, "Version: %s checksum=%s\n", cat.Version, cff.Checksum(raw))
			_, _ = fmt.Fprintf(stdout, "Header: %s\n", hex.EncodeToString(g.Header()))
			_, _ = fmt.Fprintln(stdout)

			_, _ = fmt.Fprintf(stdout, "%-22s %-22s %8s %6s %10s %s\n", "TABLE", "SCHEMA", "ROWS", "RECORD", "OFFSET", "SIZE")
			for _, t := range g.Tables() {
				_, _ = fmt.Fprintf(stdout, "%-22s %-22s %8d %6d %10d %s\n",
					t.Name(), t.Schema().Name(), t.Len(), t.Schema().Length(), t.Offset(), formatBytes(uint64(t.Size())))
			}

			diag := g.Diagnostics()
			_, _ = fmt.Fprintln(stdout)
			_, _ = fmt.Fprintf(stdout, "Unknown enum values: %d\n", diag.Len())
			for _, c := range diag.Summary() {
				_, _ = fmt.Fprintf(stdout, "  %-22s count=%d distinct=%d\n", c.Type, c.Count, c.Distinct)
			}
			if showUnknown {
				for _, u := range diag.UnknownEnums() {
					_, _ = fmt.Fprintf(stdout, "  %s[%d].%s %s=0x%s\n", u.Table, u.Row, u.Field, u.Type, hex.EncodeToString(u.Raw))
				}
			}
			return nil
		},
	}
}
