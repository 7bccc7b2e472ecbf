package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"spotgrab/internal/formatter"
)

// History lists archived download outcomes, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	repo, cleanup, err := r.openRepository()
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := repo.ListRecent(ctx, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to list downloads: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, cmd.Bool("pretty"))
	}

	return r.writePlain("%s", formatter.HistoryText(records))
}

// historyCommand handles archive queries
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show past download outcomes",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of records to show",
				Value: 25,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.History,
	}
}
