package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cffkit/internal/logger"
	"github.com/samcharles93/cffkit/pkg/cff"
)

// editFlags are shared by the commands that write the data file back.
func editFlags(noBackup *bool, dryRun *bool, out *string) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "no-backup",
			Usage:       "do not copy the file to FILE.bak before overwriting it",
			Destination: noBackup,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "print the changes without saving",
			Destination: dryRun,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "write the edited file here instead of overwriting the input",
			Destination: out,
		},
	}
}

func setCmd() *cli.Command {
	var (
		noBackup bool
		dryRun   bool
		outPath  string
	)

	return &cli.Command{
		Name:      "set",
		Usage:     "Change fields of one row and save the file",
		ArgsUsage: "TABLE ROW FIELD=VALUE...",
		Flags:     dataCommandFlags(editFlags(&noBackup, &dryRun, &outPath)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applySetConfig(cmd, cfg, &noBackup)
			ctx, path, g, err := openFromFlags(ctx, cmd, cfg)
			if err != nil {
				return err
			}
			t, idx, e, err := tableRow(cmd, g, 0)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			pairs, order, err := parseAssignments(cmd.Args().Slice()[2:])
			if err != nil {
				return cli.Exit("error: "+err.Error(), 2)
			}
			if len(pairs) == 0 {
				return cli.Exit("error: expected at least one FIELD=VALUE argument", 2)
			}

			for _, name := range order {
				if _, ok := t.Schema().Field(name); !ok {
					return cli.Exit(fmt.Sprintf("error: %s has no field %q", t.Name(), name), 2)
				}
			}

			// Field order puts a decider before the enum it selects.
			for _, f := range t.Schema().Fields() {
				text, ok := pairs[f.Name]
				if !ok {
					continue
				}
				before, _ := e.Get(f.Name)
				if err := e.ParseSet(f.Name, text); err != nil {
					return cli.Exit("error: "+err.Error(), 1)
				}
				after, _ := e.Get(f.Name)
				_, _ = fmt.Fprintf(stdout, "%s[%d].%s: %s -> %s\n", t.Name(), idx, f.Name, formatValue(before), formatValue(after))
			}
			return saveEdited(ctx, g, path, outPath, noBackup, dryRun)
		},
	}
}

func relationCmd() *cli.Command {
	var (
		value    string
		noBackup bool
		dryRun   bool
		outPath  string
	)

	return &cli.Command{
		Name:      "relation",
		Usage:     "Follow a relation of one row, or write through it with --set",
		ArgsUsage: "TABLE ROW RELATION",
		Flags: dataCommandFlags(append(editFlags(&noBackup, &dryRun, &outPath),
			&cli.StringFlag{
				Name:        "set",
				Usage:       "value to write through the relation",
				Destination: &value,
			},
		)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applySetConfig(cmd, cfg, &noBackup)
			ctx, path, g, err := openFromFlags(ctx, cmd, cfg)
			if err != nil {
				return err
			}
			t, idx, e, err := tableRow(cmd, g, 0)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			if cmd.Args().Len() != 3 {
				return cli.Exit("error: expected TABLE ROW RELATION arguments", 2)
			}
			name := cmd.Args().Get(2)
			rel, ok := t.Schema().Relation(name)
			if !ok {
				return cli.Exit(fmt.Sprintf("error: %s has no relation %q", t.Name(), name), 2)
			}
			if rel.Uncertain != "" {
				logger.FromContext(ctx).Warn("relation mapping is uncertain", "relation", name, "note", rel.Uncertain)
			}

			before, err := e.Relation(name)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			if !cmd.IsSet("set") {
				_, _ = fmt.Fprintf(stdout, "%s=%s\n", name, formatValue(before))
				return nil
			}

			if err := e.SetRelation(name, relationValue(value)); err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			after, err := e.Relation(name)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			_, _ = fmt.Fprintf(stdout, "%s[%d].%s: %s -> %s\n", t.Name(), idx, name, formatValue(before), formatValue(after))
			return saveEdited(ctx, g, path, outPath, noBackup, dryRun)
		},
	}
}

// relationValue reads integers as numbers and anything else as text.
func relationValue(text string) any {
	if n, err := strconv.ParseInt(text, 0, 64); err == nil {
		return n
	}
	return text
}

func saveEdited(ctx context.Context, g *cff.GameData, path, outPath string, noBackup, dryRun bool) error {
	log := logger.FromContext(ctx)
	if dryRun {
		log.Info("dry run, file not written", "path", path)
		return nil
	}
	target := path
	if outPath != "" {
		target = outPath
	}
	if target == path && !noBackup {
		backup, err := writeBackup(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("error: backup %s: %v", path, err), 1)
		}
		log.Info("wrote backup", "path", backup)
	}
	if err := g.Save(target); err != nil {
		return cli.Exit(fmt.Sprintf("error: save %s: %v", target, err), 1)
	}
	log.Info("saved data file", "path", target, "bytes", g.Size())
	return nil
}
