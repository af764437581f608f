package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func queryCmd() *cli.Command {
	var (
		scan  bool
		first bool
	)

	return &cli.Command{
		Name:      "query",
		Usage:     "Print the rows of a table matching field=value constraints",
		ArgsUsage: "TABLE [FIELD=VALUE...]",
		Flags: dataCommandFlags(
			&cli.BoolFlag{
				Name:        "scan",
				Usage:       "compare every row instead of using the primary key index",
				Destination: &scan,
			},
			&cli.BoolFlag{
				Name:        "first",
				Usage:       "print only the first match and fail when there is none",
				Destination: &first,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, _, g, err := openFromFlags(ctx, cmd, LoadConfig())
			if err != nil {
				return err
			}
			args := cmd.Args().Slice()
			if len(args) == 0 {
				return cli.Exit("error: expected a TABLE argument", 2)
			}
			t, err := g.Lookup(args[0])
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			pairs, _, err := parseAssignments(args[1:])
			if err != nil {
				return cli.Exit("error: "+err.Error(), 2)
			}
			where, err := constraintsOf(t, pairs)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 2)
			}

			if first {
				e, err := t.First(where)
				if err != nil {
					return cli.Exit("error: "+err.Error(), 1)
				}
				if e == nil {
					return cli.Exit(fmt.Sprintf("no %s row matches", t.Name()), 1)
				}
				printRow(t.RowIndex(e), e)
				return nil
			}

			find := t.Where
			if scan {
				find = t.Scan
			}
			rows, err := find(where)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			for _, e := range rows {
				printRow(t.RowIndex(e), e)
			}
			return nil
		},
	}
}
