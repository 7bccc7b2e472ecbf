package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"spotgrab/internal/shared"
	"spotgrab/internal/tasks"
)

// Retry re-runs the tracks recorded in the failure ledger. The ledger is
// rewritten with whatever still fails, so repeated retries converge.
func (r *Runner) Retry(ctx context.Context, cmd *cli.Command) error {
	ledgerPath := cmd.String("ledger")

	failed, err := tasks.LoadLedger(ledgerPath)
	if err != nil {
		if errors.Is(err, shared.ErrLedgerNotFound) {
			r.writePlain("Nothing to retry.\n")
			return nil
		}
		return err
	}

	tracks := tasks.TracksForRetry(failed)
	if len(tracks) == 0 {
		r.writePlain("Nothing to retry.\n")
		return nil
	}

	targetDir := cmd.String("dir")
	if targetDir == "" {
		targetDir = r.config.Download.OutputDir
	}

	r.writePlain("Retrying %d failed tracks to %s\n\n", len(tracks), targetDir)

	config := r.engineConfig()
	config.LedgerPath = ledgerPath
	engine := tasks.NewEngine(r.searcher, r.fetcher, r.artwork, r.tagger, config, r.logger)

	outcomes, runErr := r.runWithProgress(ctx, engine, tracks, targetDir)
	return r.finishRun(ctx, cmd, nil, outcomes, runErr)
}

// retryCommand handles retrying ledgered failures
func retryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "retry",
		Usage: "Retry the tracks recorded in the failure ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ledger",
				Usage: "Path to the failure ledger",
				Value: tasks.DefaultLedgerPath,
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Target directory for retried downloads",
			},
			&cli.StringFlag{
				Name:    "export",
				Aliases: []string{"e"},
				Usage:   "Base path for CSV report and JSON summary files",
			},
		},
		Action: r.Retry,
	}
}
