package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/delaneyj/subsmanager/scenario"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

var errFailed = errors.New("scenario expectations failed")

func simulate(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("simulate: missing scenario file")
	}

	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	res, err := scenario.Run(ctx, sc, scenario.WithLogger(newLogger(cmd)))
	if err != nil {
		return err
	}

	switch format := cmd.String(formatKey); format {
	case "report":
		fmt.Print(res.Report())
	case "table":
		printTable(res)
	default:
		return fmt.Errorf("simulate: unknown format %q", format)
	}

	if !res.Passed() {
		return errFailed
	}
	return nil
}

func printTable(res *scenario.Result) {
	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{"#", "key", "digest", "last requested", "ready"})
	for i, e := range res.Final {
		tbl.Append([]string{
			humanize.Comma(int64(i + 1)),
			string(e.Key),
			e.Key.Short(),
			humanize.RelTime(e.LastAccessed, res.Now, "ago", "from now"),
			fmt.Sprint(e.Ready),
		})
	}
	tbl.Render()

	fmt.Printf("ready=%t passes=%s expired=%s trimmed=%s resets=%s\n",
		res.Ready,
		humanize.Comma(int64(res.Stats.Passes)),
		humanize.Comma(int64(res.Stats.Expired)),
		humanize.Comma(int64(res.Stats.Trimmed)),
		humanize.Comma(int64(res.Stats.Resets)),
	)
	for _, f := range res.Failures {
		fmt.Println("FAIL", f)
	}
}
