package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func getCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print one row, or selected fields, aliases and relations of it",
		ArgsUsage: "TABLE ROW [NAME...]",
		Flags:     dataCommandFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, _, g, err := openFromFlags(ctx, cmd, LoadConfig())
			if err != nil {
				return err
			}
			_, idx, e, err := tableRow(cmd, g, 0)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			names := cmd.Args().Slice()[2:]
			if len(names) == 0 {
				printRow(idx, e)
				return nil
			}
			for _, name := range names {
				v, err := e.Attr(name)
				if err != nil {
					return cli.Exit("error: "+err.Error(), 1)
				}
				_, _ = fmt.Fprintf(stdout, "%s=%s\n", name, formatValue(v))
			}
			return nil
		},
	}
}
