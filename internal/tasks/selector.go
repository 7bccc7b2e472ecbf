package tasks

import (
	"fmt"

	"spotgrab/internal/models"
	"spotgrab/internal/shared"
)

// maxDurationDriftSeconds is how far a candidate's duration may drift from
// the catalog duration before the match is flagged as unconfident.
const maxDurationDriftSeconds = 30

// SelectBest picks the candidate to download for a track. The top-ranked
// result is always taken; a large duration drift only lowers confidence,
// it never rejects the match. Candidates without a known duration are
// taken on faith.
func SelectBest(track models.TrackDescriptor, candidates []models.CandidateMatch) (models.CandidateMatch, bool, error) {
	if len(candidates) == 0 {
		return models.CandidateMatch{}, false, fmt.Errorf("%w: %s", shared.ErrNoMatch, track.DisplayName())
	}

	best := candidates[0]
	if best.DurationSeconds == 0 || track.DurationMS == 0 {
		return best, true, nil
	}

	drift := best.DurationSeconds - track.DurationSeconds()
	if drift < 0 {
		drift = -drift
	}

	return best, drift <= maxDurationDriftSeconds, nil
}
