// package tasks implements the download pipeline that turns catalog
// tracks into tagged audio files.
//
// The core abstraction is DownloadEngine, which walks a track list through
// search, fetch, and tagging with per-track fault isolation. Operations
// emit progress updates via channels for non-blocking status reporting to
// CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"spotgrab/internal/models"
	"spotgrab/internal/services"
	"spotgrab/internal/shared"
	"spotgrab/internal/tagging"
)

// EngineConfig carries the tunable behavior of a download run.
type EngineConfig struct {
	SearchResults int     // Candidates requested per search
	MaxNameLength int     // Filename cap applied before sanitizing
	PacingSeconds float64 // Minimum spacing between track attempts
	TempDir       string  // Working directory for in-flight fetches
	LedgerPath    string  // Retry ledger location
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.SearchResults <= 0 {
		c.SearchResults = 5
	}
	if c.MaxNameLength <= 0 {
		c.MaxNameLength = 150
	}
	if c.PacingSeconds <= 0 {
		c.PacingSeconds = 1.0
	}
	if c.TempDir == "" {
		c.TempDir = filepath.Join(os.TempDir(), "spotgrab")
	}
	if c.LedgerPath == "" {
		c.LedgerPath = DefaultLedgerPath
	}
	return c
}

// DownloadEngine defines the download pipeline operation.
type DownloadEngine interface {
	// Run processes every track in order and returns one terminal outcome
	// per track. The failures are persisted to the retry ledger before
	// returning, including tracks left unattempted by a cancellation.
	Run(ctx context.Context, tracks []models.TrackDescriptor, targetDir string, progress chan<- ProgressUpdate) ([]models.DownloadOutcome, error)
}

// Engine implements DownloadEngine against the search, fetch, artwork,
// and tagging services.
type Engine struct {
	searcher services.Searcher
	fetcher  services.Fetcher
	artwork  services.ArtworkFetcher
	tagger   tagging.Tagger
	limiter  *rate.Limiter
	config   EngineConfig
	logger   *log.Logger
}

var _ DownloadEngine = (*Engine)(nil)

// NewEngine creates a download engine with the provided services.
func NewEngine(searcher services.Searcher, fetcher services.Fetcher, artwork services.ArtworkFetcher, tagger tagging.Tagger, config EngineConfig, logger *log.Logger) *Engine {
	config = config.withDefaults()

	return &Engine{
		searcher: searcher,
		fetcher:  fetcher,
		artwork:  artwork,
		tagger:   tagger,
		limiter:  rate.NewLimiter(rate.Limit(1/config.PacingSeconds), 1),
		config:   config,
		logger:   logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run walks the track list through the pipeline. A failure in one track
// never stops the run; only context cancellation does, and even then the
// ledger records both the failed and the unattempted tracks.
func (e *Engine) Run(ctx context.Context, tracks []models.TrackDescriptor, targetDir string, progress chan<- ProgressUpdate) ([]models.DownloadOutcome, error) {
	if e.searcher == nil || e.fetcher == nil || e.tagger == nil {
		return nil, fmt.Errorf("%w: download engine not fully initialized", shared.ErrServiceUnavailable)
	}
	if err := shared.EnsureDir(targetDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := shared.EnsureDir(e.config.TempDir); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	total := len(tracks)
	outcomes := make([]models.DownloadOutcome, 0, total)

	for i, track := range tracks {
		if ctx.Err() != nil {
			outcomes = append(outcomes, interruptedOutcomes(tracks[i:])...)
			e.persist(outcomes)
			return outcomes, ctx.Err()
		}

		if i > 0 {
			if err := e.limiter.Wait(ctx); err != nil {
				outcomes = append(outcomes, interruptedOutcomes(tracks[i:])...)
				e.persist(outcomes)
				return outcomes, err
			}
		}

		outcome := e.processTrack(ctx, track, targetDir, i+1, total, progress)
		outcomes = append(outcomes, outcome)
		e.sendProgress(progress, trackDoneUpdate(i+1, total, outcome))
	}

	e.persist(outcomes)
	e.sendProgress(progress, runDoneUpdate(total, Summarize(outcomes)))
	return outcomes, nil
}

// processTrack runs the per-track pipeline: existing-file check, search,
// select, fetch, tag, move. Each stage failure maps to its reason.
func (e *Engine) processTrack(ctx context.Context, track models.TrackDescriptor, targetDir string, step, total int, progress chan<- ProgressUpdate) models.DownloadOutcome {
	outcome := models.DownloadOutcome{Track: track}

	base := shared.SanitizeFilename(track.DisplayName(), e.config.MaxNameLength)

	if existing, ok := shared.FindByBaseName(targetDir, base); ok {
		e.logger.Info("already downloaded", "track", track.DisplayName(), "path", existing)
		outcome.Result = models.ResultSkipped
		outcome.OutputPath = existing
		outcome.CompletedAt = time.Now()
		return outcome
	}

	e.sendProgress(progress, searchUpdate(step, total, track))

	candidates, err := e.searcher.Search(ctx, track.SearchQuery(), e.config.SearchResults)
	if err != nil {
		return e.fail(outcome, models.ReasonNoMatch, err)
	}

	match, confident, err := SelectBest(track, candidates)
	if err != nil {
		return e.fail(outcome, models.ReasonNoMatch, err)
	}
	if !confident {
		e.logger.Warn("duration mismatch, downloading anyway",
			"track", track.DisplayName(),
			"expected_s", track.DurationSeconds(),
			"candidate_s", match.DurationSeconds)
	}

	e.sendProgress(progress, fetchUpdate(step, total, match))

	fetchedPath, err := e.fetcher.Fetch(ctx, match, e.config.TempDir, base)
	if err != nil {
		return e.fail(outcome, models.ReasonFetchError, err)
	}

	e.sendProgress(progress, tagUpdate(step, total, track))

	var artwork []byte
	if e.artwork != nil && track.CoverArtURL != "" {
		artwork, err = e.artwork.FetchArtwork(ctx, track.CoverArtURL)
		if err != nil {
			// Cover art is best effort: the file ships without it.
			e.logger.Warn("artwork unavailable", "track", track.DisplayName(), "error", err)
			artwork = nil
		}
	}

	taggedPath, err := e.tagger.Embed(ctx, fetchedPath, track, artwork)
	if err != nil {
		// The fetched file stays in the temp dir for inspection.
		return e.fail(outcome, models.ReasonTagError, err)
	}

	finalPath := filepath.Join(targetDir, filepath.Base(taggedPath))
	if err := shared.MoveFile(taggedPath, finalPath); err != nil {
		return e.fail(outcome, models.ReasonTagError, fmt.Errorf("failed to move into place: %w", err))
	}

	outcome.Result = models.ResultSuccess
	outcome.OutputPath = finalPath
	outcome.CompletedAt = time.Now()
	return outcome
}

func (e *Engine) fail(outcome models.DownloadOutcome, reason models.FailureReason, err error) models.DownloadOutcome {
	e.logger.Error("download failed", "track", outcome.Track.DisplayName(), "reason", reason, "error", err)
	outcome.Result = models.ResultFailed
	outcome.Reason = reason
	outcome.Detail = err.Error()
	outcome.CompletedAt = time.Now()
	return outcome
}

func (e *Engine) persist(outcomes []models.DownloadOutcome) {
	if err := PersistLedger(e.config.LedgerPath, outcomes); err != nil {
		e.logger.Warn("failed to persist retry ledger", "error", err)
	}
}

// interruptedOutcomes marks tracks the run never reached so the ledger
// carries them into the next retry.
func interruptedOutcomes(tracks []models.TrackDescriptor) []models.DownloadOutcome {
	outcomes := make([]models.DownloadOutcome, 0, len(tracks))
	now := time.Now()
	for _, track := range tracks {
		outcomes = append(outcomes, models.DownloadOutcome{
			Track:       track,
			Result:      models.ResultFailed,
			Reason:      models.ReasonInterrupted,
			Detail:      "run interrupted before attempt",
			CompletedAt: now,
		})
	}
	return outcomes
}
