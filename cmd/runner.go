package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"spotgrab/internal/models"
	"spotgrab/internal/repositories"
	"spotgrab/internal/services"
	"spotgrab/internal/shared"
	"spotgrab/internal/tagging"
	"spotgrab/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	catalog  services.Catalog
	youtube  *services.YouTubeService
	searcher services.Searcher
	fetcher  services.Fetcher
	artwork  services.ArtworkFetcher
	tagger   tagging.Tagger
	engine   tasks.DownloadEngine
	logger   *log.Logger
	output   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Catalog  services.Catalog
	Searcher services.Searcher
	Fetcher  services.Fetcher
	Artwork  services.ArtworkFetcher
	Tagger   tagging.Tagger
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	youtube := services.NewYouTubeService(opts.Config.Download.FormatPreference, opts.Logger)
	if opts.Searcher == nil {
		opts.Searcher = youtube
	}
	if opts.Fetcher == nil {
		opts.Fetcher = youtube
	}
	if opts.Artwork == nil {
		opts.Artwork = services.NewArtworkService(opts.Logger)
	}
	if opts.Tagger == nil {
		opts.Tagger = tagging.NewService(opts.Logger)
	}

	r := &Runner{
		config:   opts.Config,
		catalog:  opts.Catalog,
		youtube:  youtube,
		searcher: opts.Searcher,
		fetcher:  opts.Fetcher,
		artwork:  opts.Artwork,
		tagger:   opts.Tagger,
		logger:   opts.Logger,
		output:   opts.Output,
	}
	r.engine = tasks.NewEngine(r.searcher, r.fetcher, r.artwork, r.tagger, r.engineConfig(), r.logger)
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		downloadCommand, retryCommand, historyCommand, serveCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// engineConfig maps the download section of the config onto engine knobs.
func (r *Runner) engineConfig() tasks.EngineConfig {
	return tasks.EngineConfig{
		SearchResults: r.config.Download.SearchResults,
		MaxNameLength: r.config.Download.MaxNameLength,
		PacingSeconds: r.config.Download.PacingSeconds,
		TempDir:       r.config.Download.TempDir,
		LedgerPath:    tasks.DefaultLedgerPath,
	}
}

// spotifyCatalog lazily builds the Spotify client so commands that never
// touch the catalog work without credentials.
func (r *Runner) spotifyCatalog(ctx context.Context) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	if err := r.config.LoadCredentials(); err != nil {
		return nil, err
	}

	creds := r.config.Credentials.Spotify
	r.catalog = services.NewSpotifyService(ctx, creds.ClientID, creds.ClientSecret, r.logger)
	return r.catalog, nil
}

// openRepository opens the archive database and runs pending migrations.
// The returned cleanup closes the connection.
func (r *Runner) openRepository() (repositories.DownloadRepository, func(), error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repositories.NewDownloadRepository(db), func() { db.Close() }, nil
}

// archiveRun records a finished run in the archive database. Archiving is
// best effort; a missing or broken database never fails the run.
func (r *Runner) archiveRun(ctx context.Context, playlistID string, outcomes []models.DownloadOutcome) {
	if len(outcomes) == 0 {
		return
	}

	repo, cleanup, err := r.openRepository()
	if err != nil {
		r.logger.Warn("archive unavailable", "error", err)
		return
	}
	defer cleanup()

	runID := shared.GenerateID()
	if err := repo.RecordRun(ctx, runID, playlistID, outcomes); err != nil {
		r.logger.Warn("failed to archive run", "run_id", runID, "error", err)
	}
}

// runWithProgress drives an engine run while streaming progress lines to
// the runner's output.
func (r *Runner) runWithProgress(ctx context.Context, engine tasks.DownloadEngine, tracks []models.TrackDescriptor, targetDir string) ([]models.DownloadOutcome, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.SearchSource:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.FetchAudio:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.TrackDone:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	outcomes, err := engine.Run(ctx, tracks, targetDir, progressCh)
	close(progressCh)
	return outcomes, err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
