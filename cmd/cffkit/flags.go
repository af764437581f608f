package main

import "github.com/urfave/cli/v3"

var (
	dataFile    string
	catalogFile string
	gameVersion string
	logLevel    string
	logFormat   string
	debug       bool
)

func commonDataFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:        "data",
			Aliases:     []string{"d"},
			Usage:       "path to GameData.cff",
			Destination: &dataFile,
		},
	}, catalogFlags()...)
}

func catalogFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "catalog",
			Usage:       "YAML catalog replacing the built-in version list",
			Destination: &catalogFile,
		},
		&cli.StringFlag{
			Name:        "game-version",
			Usage:       "catalog version to decode with (detected from the file when empty)",
			Destination: &gameVersion,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// dataCommandFlags is the flag set shared by every command reading a data file.
func dataCommandFlags(extra ...cli.Flag) []cli.Flag {
	flags := append(commonDataFlags(), loggingFlags()...)
	return append(flags, extra...)
}
