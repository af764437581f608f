package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cffkit/pkg/cff"
)

// openFromFlags runs the shared prelude of data commands: config, logging, path
// resolution and decoding.
func openFromFlags(ctx context.Context, cmd *cli.Command, cfg Config) (context.Context, string, *cff.GameData, error) {
	ctx, _, err := setup(ctx, cmd, cfg)
	if err != nil {
		return ctx, "", nil, err
	}
	path, err := resolveDataFile(dataFile, os.Stdin, os.Stderr)
	if err != nil {
		return ctx, "", nil, cli.Exit("error: "+err.Error(), 1)
	}
	g, err := openDataFile(ctx, path)
	if err != nil {
		return ctx, path, nil, cli.Exit(fmt.Sprintf("error: open %s: %v", path, err), 1)
	}
	return ctx, path, g, nil
}

// tableRow reads the table and row index arguments at position first.
func tableRow(cmd *cli.Command, g *cff.GameData, first int) (*cff.Table, int, *cff.Entity, error) {
	args := cmd.Args()
	if args.Len() < first+2 {
		return nil, 0, nil, cli.Exit("error: expected TABLE ROW arguments", 2)
	}
	t, err := g.Lookup(args.Get(first))
	if err != nil {
		return nil, 0, nil, err
	}
	idx, err := strconv.Atoi(args.Get(first + 1))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("row %q is not an index", args.Get(first+1))
	}
	e, err := t.Row(idx)
	if err != nil {
		return nil, 0, nil, err
	}
	return t, idx, e, nil
}

// parseAssignments splits field=value arguments.
func parseAssignments(args []string) (map[string]string, []string, error) {
	out := make(map[string]string, len(args))
	order := make([]string, 0, len(args))
	for _, a := range args {
		name, value, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("%q is not a field=value pair", a)
		}
		if _, dup := out[name]; !dup {
			order = append(order, name)
		}
		out[name] = value
	}
	return out, order, nil
}

// constraintsOf parses field=value text against a table schema. Decided enums
// stay in text form and are parsed per row.
func constraintsOf(t *cff.Table, pairs map[string]string) (cff.Constraints, error) {
	where := make(cff.Constraints, len(pairs))
	names := make([]string, 0, len(pairs))
	for name := range pairs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f, ok := t.Schema().Resolve(name)
		if !ok {
			return nil, fmt.Errorf("%s has no field %q", t.Name(), name)
		}
		if f.Kind == cff.KindDecidedEnum {
			where[name] = pairs[name]
			continue
		}
		v, err := f.ParseValue(pairs[name])
		if err != nil {
			return nil, err
		}
		where[name] = v
	}
	return where, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case *cff.Entity:
		return formatEntityRef(x)
	case []*cff.Entity:
		refs := make([]string, len(x))
		for i, e := range x {
			refs[i] = formatEntityRef(e)
		}
		return "[" + strings.Join(refs, " ") + "]"
	case nil:
		return "<none>"
	default:
		return fmt.Sprint(x)
	}
}

func formatEntityRef(e *cff.Entity) string {
	if t := e.Table(); t != nil {
		return fmt.Sprintf("%s[%d]", t.Name(), t.RowIndex(e))
	}
	return e.Schema().Name()
}

func printRow(idx int, e *cff.Entity) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d]", idx)
	for _, fv := range e.Values() {
		fmt.Fprintf(&sb, " %s=%s", fv.Field.Name, formatValue(fv.Value))
	}
	_, _ = fmt.Fprintln(stdout, sb.String())
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
