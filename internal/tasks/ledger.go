package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"spotgrab/internal/models"
	"spotgrab/internal/shared"
)

// DefaultLedgerPath is the retry ledger written next to wherever the tool
// is run from, mirroring where users expect to find it.
const DefaultLedgerPath = "failed_downloads.json"

// Summary aggregates the terminal states of a download run.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Summarize counts outcomes by result.
func Summarize(outcomes []models.DownloadOutcome) Summary {
	summary := Summary{Total: len(outcomes)}
	for _, outcome := range outcomes {
		switch outcome.Result {
		case models.ResultSuccess:
			summary.Succeeded++
		case models.ResultSkipped:
			summary.Skipped++
		case models.ResultFailed:
			summary.Failed++
		}
	}
	return summary
}

// FailedOutcomes filters a run down to its failures, preserving order.
func FailedOutcomes(outcomes []models.DownloadOutcome) []models.DownloadOutcome {
	failed := make([]models.DownloadOutcome, 0)
	for _, outcome := range outcomes {
		if outcome.Failed() {
			failed = append(failed, outcome)
		}
	}
	return failed
}

// PersistLedger overwrites the retry ledger with the run's failures. A
// clean run writes an empty array so a stale ledger never survives.
func PersistLedger(path string, outcomes []models.DownloadOutcome) error {
	data, err := shared.MarshalJSON(FailedOutcomes(outcomes), true)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

// LoadLedger reads the retry ledger. A missing file is reported as
// ErrLedgerNotFound so callers can treat it as nothing to retry.
func LoadLedger(path string) ([]models.DownloadOutcome, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", shared.ErrLedgerNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	var outcomes []models.DownloadOutcome
	if err := json.Unmarshal(data, &outcomes); err != nil {
		return nil, fmt.Errorf("failed to parse ledger: %w", err)
	}
	return outcomes, nil
}

// TracksForRetry extracts the descriptors recorded in ledger entries,
// preserving the order they failed in.
func TracksForRetry(outcomes []models.DownloadOutcome) []models.TrackDescriptor {
	tracks := make([]models.TrackDescriptor, 0, len(outcomes))
	for _, outcome := range outcomes {
		tracks = append(tracks, outcome.Track)
	}
	return tracks
}
