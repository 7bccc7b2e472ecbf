package models

import (
	"strings"
	"time"
)

// ResultTag classifies the terminal state of a track's download attempt.
type ResultTag string

const (
	ResultSuccess ResultTag = "success"
	ResultSkipped ResultTag = "skipped"
	ResultFailed  ResultTag = "failed"
)

// FailureReason identifies which stage a failed download died in.
type FailureReason string

const (
	ReasonNone        FailureReason = ""
	ReasonNoMatch     FailureReason = "no_match"
	ReasonFetchError  FailureReason = "fetch_error"
	ReasonTagError    FailureReason = "tag_error"
	ReasonInterrupted FailureReason = "interrupted"
)

// TrackDescriptor is the normalized representation of a catalog track.
type TrackDescriptor struct {
	CatalogID   string   `json:"catalog_id"`
	CatalogURL  string   `json:"catalog_url,omitempty"`
	Title       string   `json:"title"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	AlbumArtist string   `json:"album_artist,omitempty"`
	TrackNumber int      `json:"track_number,omitempty"`
	DiscNumber  int      `json:"disc_number,omitempty"`
	DurationMS  int      `json:"duration_ms"`
	ReleaseYear int      `json:"release_year,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	ISRC        string   `json:"isrc,omitempty"`
	CoverArtURL string   `json:"cover_art_url,omitempty"`
}

// SearchQuery builds the query string used to look the track up on the
// download source: all artists comma-joined, a dash, then the title.
func (t TrackDescriptor) SearchQuery() string {
	return strings.Join(t.Artists, ", ") + " - " + t.Title
}

// DisplayName renders the track for logs and progress output.
func (t TrackDescriptor) DisplayName() string {
	return strings.Join(t.Artists, ", ") + " - " + t.Title
}

// PrimaryArtist returns the first credited artist, or an empty string for
// a descriptor with no artists.
func (t TrackDescriptor) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// DurationSeconds converts the catalog duration to whole seconds.
func (t TrackDescriptor) DurationSeconds() int {
	return t.DurationMS / 1000
}

// CandidateMatch is a single search result from the download source.
type CandidateMatch struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	Uploader        string `json:"uploader,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
}

// DownloadOutcome records the terminal state of one track's pass through
// the pipeline.
type DownloadOutcome struct {
	Track       TrackDescriptor `json:"track"`
	Result      ResultTag       `json:"result"`
	Reason      FailureReason   `json:"reason,omitempty"`
	Detail      string          `json:"detail,omitempty"`
	OutputPath  string          `json:"output_path,omitempty"`
	CompletedAt time.Time       `json:"completed_at"`
}

// Failed reports whether the outcome is a failure of any kind.
func (o DownloadOutcome) Failed() bool {
	return o.Result == ResultFailed
}

// Playlist holds catalog playlist metadata.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Owner       string `json:"owner,omitempty"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
	URL         string `json:"url,omitempty"`
}

// DownloadRecord is a persisted download archive row.
type DownloadRecord struct {
	ID          string    `json:"id"`
	RunID       string    `json:"run_id"`
	PlaylistID  string    `json:"playlist_id"`
	CatalogID   string    `json:"catalog_id"`
	Title       string    `json:"title"`
	Artists     string    `json:"artists"`
	Album       string    `json:"album"`
	SearchQuery string    `json:"search_query"`
	Result      string    `json:"result"`
	Reason      string    `json:"reason"`
	OutputPath  string    `json:"output_path"`
	CreatedAt   time.Time `json:"created_at"`
}
