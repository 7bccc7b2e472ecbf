package tasks

import (
	"fmt"

	"spotgrab/internal/models"
)

// ProgressUpdate represents a progress event during a download run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current track number within the run
	Total   int    // Total tracks in the run
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	CheckExisting
	SearchSource
	FetchAudio
	TagAudio
	TrackDone
	RunDone
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case CheckExisting:
		return "check_existing"
	case SearchSource:
		return "search"
	case FetchAudio:
		return "fetch"
	case TagAudio:
		return "tag"
	case TrackDone:
		return "track_done"
	case RunDone:
		return "run_done"
	default:
		return ""
	}
}

func searchUpdate(step, total int, track models.TrackDescriptor) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching: %s", step, total, track.DisplayName()),
	}
}

func fetchUpdate(step, total int, match models.CandidateMatch) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAudio,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching: %s", step, total, match.Title),
	}
}

func tagUpdate(step, total int, track models.TrackDescriptor) ProgressUpdate {
	return ProgressUpdate{
		Phase:   TagAudio,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Tagging: %s", step, total, track.DisplayName()),
	}
}

func trackDoneUpdate(step, total int, outcome models.DownloadOutcome) ProgressUpdate {
	var message string
	switch outcome.Result {
	case models.ResultSuccess:
		message = fmt.Sprintf("[%d/%d] ✓ %s", step, total, outcome.Track.DisplayName())
	case models.ResultSkipped:
		message = fmt.Sprintf("[%d/%d] ∙ %s (already downloaded)", step, total, outcome.Track.DisplayName())
	default:
		message = fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, outcome.Track.DisplayName(), outcome.Reason)
	}

	return ProgressUpdate{
		Phase:   TrackDone,
		Step:    step,
		Total:   total,
		Message: message,
		Data:    outcome,
	}
}

func runDoneUpdate(total int, summary Summary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RunDone,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Done: %d downloaded, %d skipped, %d failed", summary.Succeeded, summary.Skipped, summary.Failed),
		Data:    summary,
	}
}
