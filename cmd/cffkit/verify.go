package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cffkit/pkg/cff"
)

func verifyCmd() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Check that decoding and re-encoding reproduces the file byte for byte",
		Flags: dataCommandFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, path, g, err := openFromFlags(ctx, cmd, LoadConfig())
			if err != nil {
				return err
			}
			orig, err := cff.ReadFile(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read %s: %v", path, err), 1)
			}
			out, err := g.Bytes()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: encode: %v", err), 1)
			}
			if !bytes.Equal(orig, out) {
				return cli.Exit(fmt.Sprintf("round trip differs at byte %d of %d", firstDifference(orig, out), len(orig)), 1)
			}
			_, _ = fmt.Fprintf(stdout, "ok %s version=%s bytes=%d checksum=%s\n", path, g.Catalog().Version, len(out), cff.Checksum(out))
			return nil
		},
	}
}

func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
