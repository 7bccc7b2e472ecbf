// Package services implements the external integrations: the Spotify
// catalog client, the yt-dlp search and fetch wrapper, and cover art
// retrieval. Each integration is exposed through a small interface so the
// download engine can be exercised against mocks.
package services

import (
	"context"

	"spotgrab/internal/models"
)

// Catalog resolves playlists and their tracks from a music catalog.
type Catalog interface {
	// Playlist fetches playlist metadata by catalog ID.
	Playlist(ctx context.Context, id string) (*models.Playlist, error)

	// PlaylistTracks fetches every track of a playlist, following
	// pagination, and returns them normalized in playlist order. Entries
	// that are not plain tracks (episodes, local files) are dropped.
	PlaylistTracks(ctx context.Context, id string) ([]models.TrackDescriptor, error)
}

// Searcher looks a query up on the download source and returns candidate
// matches in source ranking order.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.CandidateMatch, error)
}

// Fetcher downloads the audio of a candidate match into destDir using
// baseName for the output filename (extension chosen by the source), and
// returns the path of the file it produced.
type Fetcher interface {
	Fetch(ctx context.Context, match models.CandidateMatch, destDir, baseName string) (string, error)
}

// ArtworkFetcher retrieves cover art, normalized to a bounded JPEG.
type ArtworkFetcher interface {
	FetchArtwork(ctx context.Context, url string) ([]byte, error)
}

var (
	_ Catalog        = (*SpotifyService)(nil)
	_ Searcher       = (*YouTubeService)(nil)
	_ Fetcher        = (*YouTubeService)(nil)
	_ ArtworkFetcher = (*ArtworkService)(nil)
)
