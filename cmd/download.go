package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"spotgrab/internal/formatter"
	"spotgrab/internal/models"
	"spotgrab/internal/services"
	"spotgrab/internal/shared"
	"spotgrab/internal/tasks"
	"spotgrab/internal/ui"
)

// Download fetches a playlist's tracks and downloads each as a tagged
// audio file.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	locator := cmd.StringArg("playlist")
	if locator == "" {
		return fmt.Errorf("%w: playlist argument required", shared.ErrInvalidLocator)
	}

	playlistID, err := services.ParsePlaylistLocator(locator)
	if err != nil {
		return err
	}

	catalog, err := r.spotifyCatalog(ctx)
	if err != nil {
		return err
	}

	playlist, err := catalog.Playlist(ctx, playlistID)
	if err != nil {
		return err
	}

	tracks, err := catalog.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		r.writePlain("Playlist '%s' has no tracks.\n", playlist.Name)
		return nil
	}

	targetDir := cmd.String("dir")
	if targetDir == "" {
		targetDir = filepath.Join(r.config.Download.OutputDir,
			shared.SanitizeFilename(playlist.Name, r.config.Download.MaxNameLength))
	}

	r.logger.Info("starting download run", "playlist", playlist.Name, "tracks", len(tracks), "dir", targetDir)

	var outcomes []models.DownloadOutcome
	var runErr error
	if cmd.Bool("tui") {
		outcomes, runErr = r.downloadTUI(ctx, playlist, tracks, targetDir)
	} else {
		r.writePlain("Downloading '%s' (%d tracks) to %s\n\n", playlist.Name, len(tracks), targetDir)
		outcomes, runErr = r.runWithProgress(ctx, r.engine, tracks, targetDir)
	}

	return r.finishRun(ctx, cmd, playlist, outcomes, runErr)
}

// downloadTUI runs the pipeline behind an interactive progress view. Logs
// are redirected to a file so they do not clobber the rendering.
func (r *Runner) downloadTUI(ctx context.Context, playlist *models.Playlist, tracks []models.TrackDescriptor, targetDir string) ([]models.DownloadOutcome, error) {
	fileLogger, err := shared.NewFileLogger("./tmp/spotgrab-tui.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}

	engine := tasks.NewEngine(r.searcher, r.fetcher, r.artwork, r.tagger, r.engineConfig(), fileLogger)
	model := ui.NewModel(ctx, engine, playlist, tracks, targetDir)

	if _, err := tea.NewProgram(model).Run(); err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	return model.Outcomes()
}

// finishRun prints the report, exports it when asked, archives the
// outcomes, and translates an interruption into a clean exit.
func (r *Runner) finishRun(ctx context.Context, cmd *cli.Command, playlist *models.Playlist, outcomes []models.DownloadOutcome, runErr error) error {
	if len(outcomes) > 0 {
		summary := tasks.Summarize(outcomes)
		r.writePlain("\n%s", formatter.ReportText(playlist, outcomes, summary))

		if base := cmd.String("export"); base != "" {
			result, err := formatter.WriteReportFiles(playlist, outcomes, summary, base)
			if err != nil {
				return err
			}
			r.writePlain("\nReport written to %s and %s\n", result.ReportFile, result.SummaryFile)
		}

		playlistID := ""
		if playlist != nil {
			playlistID = playlist.ID
		}
		r.archiveRun(context.WithoutCancel(ctx), playlistID, outcomes)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			r.writePlain("\nRun interrupted; unfinished tracks recorded in %s\n", tasks.DefaultLedgerPath)
			return nil
		}
		return runErr
	}
	return nil
}

// downloadCommand handles playlist download operations
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Download a Spotify playlist as tagged audio files",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "playlist",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Target directory (default: output dir + playlist name)",
			},
			&cli.StringFlag{
				Name:    "export",
				Aliases: []string{"e"},
				Usage:   "Base path for CSV report and JSON summary files",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show interactive progress view",
			},
		},
		Action: r.Download,
	}
}
