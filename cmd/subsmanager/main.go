package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

const (
	verboseKey    = "verbose"
	formatKey     = "format"
	iterationsKey = "iterations"
	sizesKey      = "sizes"
)

func main() {
	cmd := &cli.Command{
		Name:  "subsmanager",
		Usage: "Simulate and benchmark the subscription cache",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  verboseKey,
				Usage: "Log transport and cache activity",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "simulate",
				Usage:     "Run a scenario file and print what happened",
				ArgsUsage: "<scenario.yaml>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  formatKey,
						Usage: "Output format: report or table",
						Value: "report",
					},
				},
				Action: simulate,
			},
			{
				Name:  "bench",
				Usage: "Measure reconciliation passes for several cache sizes",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  iterationsKey,
						Usage: "Measured requests per cache size",
						Value: 100,
					},
					&cli.StringFlag{
						Name:  sizesKey,
						Usage: "Comma separated cache sizes",
						Value: "10,100,1000",
					},
				},
				Action: bench,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(cmd *cli.Command) *slog.Logger {
	level := slog.LevelWarn
	if cmd.Bool(verboseKey) {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
