package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/delaneyj/subsmanager/subs"
	"github.com/delaneyj/subsmanager/tracker"
	"github.com/delaneyj/subsmanager/transport"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

func parseSizes(s string) ([]int, error) {
	var sizes []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bench: bad size %q", part)
		}
		sizes = append(sizes, n)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("bench: no sizes")
	}
	return sizes, nil
}

func bench(ctx context.Context, cmd *cli.Command) error {
	sizes, err := parseSizes(cmd.String(sizesKey))
	if err != nil {
		return err
	}
	iters := int(cmd.Uint(iterationsKey))
	if iters <= 0 {
		return fmt.Errorf("bench: iterations must be positive")
	}
	logger := newLogger(cmd)

	tbl := table.NewWriter()
	tbl.SetTitle("Subscription cache")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, size := range sizes {
		if err := ctx.Err(); err != nil {
			return err
		}

		rt := tracker.New(tracker.WithLogger(logger))
		lb := transport.NewLoopback(rt, transport.WithAutoReady(), transport.WithLogger(logger))
		m, err := subs.New(rt, lb, subs.Config{CacheLimit: size}, subs.WithLogger(logger))
		if err != nil {
			return err
		}

		// fill the cache so every measured request evicts one entry
		for i := 0; i < size; i++ {
			if _, err := m.Subscribe("item", i); err != nil {
				return err
			}
		}

		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		for i := 0; i < iters; i++ {
			start := time.Now()
			if _, err := m.Subscribe("item", size+i); err != nil {
				return err
			}
			tach.AddTime(time.Since(start))
		}
		m.Stop()

		calc := tach.Calc()
		tbl.AppendRows([]table.Row{
			{
				fmt.Sprintf("new request: %s cached", humanize.Comma(int64(size))),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
			},
		})
	}

	tbl.Render()
	return nil
}
