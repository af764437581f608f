package main

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cffkit/pkg/cff"
)

func dumpCmd() *cli.Command {
	var (
		showHex  bool
		asJSON   bool
		offset   int64
		rowLimit int64
	)

	return &cli.Command{
		Name:      "dump",
		Usage:     "Print the rows of a table",
		ArgsUsage: "TABLE",
		Flags: dataCommandFlags(
			&cli.BoolFlag{
				Name:        "hex",
				Usage:       "print a hex dump of every record",
				Destination: &showHex,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print one JSON object per row",
				Destination: &asJSON,
			},
			&cli.Int64Flag{
				Name:        "offset",
				Usage:       "first row to print",
				Destination: &offset,
			},
			&cli.Int64Flag{
				Name:        "limit",
				Usage:       "max rows to print (0 = all)",
				Destination: &rowLimit,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, _, g, err := openFromFlags(ctx, cmd, LoadConfig())
			if err != nil {
				return err
			}
			if cmd.Args().Len() != 1 {
				return cli.Exit("error: expected a TABLE argument", 2)
			}
			t, err := g.Lookup(cmd.Args().First())
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			rows := t.Rows()
			start := int(min(max(offset, 0), int64(len(rows))))
			end := len(rows)
			if rowLimit > 0 {
				end = min(end, start+int(rowLimit))
			}
			for i := start; i < end; i++ {
				if err := dumpRow(t, i, rows[i], asJSON, showHex); err != nil {
					return cli.Exit(fmt.Sprintf("error: %s[%d]: %v", t.Name(), i, err), 1)
				}
			}
			return nil
		},
	}
}

func dumpRow(t *cff.Table, i int, e *cff.Entity, asJSON, showHex bool) error {
	if asJSON {
		b, err := json.Marshal(rowJSON(i, e))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, string(b))
	} else {
		printRow(i, e)
	}
	if !showHex {
		return nil
	}
	raw, err := e.Bytes()
	if err != nil {
		return err
	}
	base := t.Offset() + cff.TableHeaderSize + int64(i*t.Schema().Length())
	_, _ = fmt.Fprint(stdout, cff.HexDump(raw, base))
	return nil
}

// rowJSON renders a row for --json output. Enums and flags marshal as text.
func rowJSON(i int, e *cff.Entity) map[string]any {
	values := make(map[string]any, len(e.Values()))
	for _, fv := range e.Values() {
		values[fv.Field.Name] = fv.Value
	}
	return map[string]any{"row": i, "values": values}
}
