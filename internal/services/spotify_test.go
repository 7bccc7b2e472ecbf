package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"spotgrab/internal/shared"
)

func newTestSpotifyService(t *testing.T, handler http.Handler) *SpotifyService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &SpotifyService{
		client:     server.Client(),
		baseURL:    server.URL,
		logger:     shared.NewLogger(io.Discard),
		genreCache: make(map[string][]string),
	}
}

func TestParsePlaylistLocator(t *testing.T) {
	const id = "37i9dQZF1DXcBWIGoYBM5M"

	tc := []struct {
		name    string
		locator string
		want    string
		wantErr bool
	}{
		{
			name:    "bare ID",
			locator: id,
			want:    id,
		},
		{
			name:    "open.spotify.com URL",
			locator: "https://open.spotify.com/playlist/" + id,
			want:    id,
		},
		{
			name:    "URL with query parameters",
			locator: "https://open.spotify.com/playlist/" + id + "?si=abc123",
			want:    id,
		},
		{
			name:    "spotify URI",
			locator: "spotify:playlist:" + id,
			want:    id,
		},
		{
			name:    "surrounding whitespace",
			locator: "  " + id + "  ",
			want:    id,
		},
		{
			name:    "empty locator",
			locator: "",
			wantErr: true,
		},
		{
			name:    "album URL rejected",
			locator: "https://open.spotify.com/album/" + id,
			wantErr: true,
		},
		{
			name:    "malformed URI",
			locator: "spotify:playlist:short",
			wantErr: true,
		},
		{
			name:    "random text",
			locator: "not a playlist at all",
			wantErr: true,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlaylistLocator(tt.locator)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidLocator) {
					t.Errorf("expected ErrInvalidLocator, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParsePlaylistLocator() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpotifyPlaylist(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/playlists/pl1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "pl1",
			"name": "Road Trip",
			"description": "Songs for the drive",
			"owner": {"display_name": "alice"},
			"tracks": {"total": 42},
			"external_urls": {"spotify": "https://open.spotify.com/playlist/pl1"}
		}`))
	})

	service := newTestSpotifyService(t, mux)

	playlist, err := service.Playlist(context.Background(), "pl1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if playlist.Name != "Road Trip" {
		t.Errorf("expected name 'Road Trip', got %q", playlist.Name)
	}
	if playlist.Owner != "alice" {
		t.Errorf("expected owner 'alice', got %q", playlist.Owner)
	}
	if playlist.TrackCount != 42 {
		t.Errorf("expected 42 tracks, got %d", playlist.TrackCount)
	}
}

func TestSpotifyPlaylistNotFound(t *testing.T) {
	service := newTestSpotifyService(t, http.NotFoundHandler())

	_, err := service.Playlist(context.Background(), "missing")
	if !errors.Is(err, shared.ErrPlaylistNotFound) {
		t.Errorf("expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestSpotifyPlaylistTracks(t *testing.T) {
	var server *httptest.Server

	mux := http.NewServeMux()
	mux.HandleFunc("/playlists/pl1/tracks", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.Write([]byte(`{
				"items": [
					{"track": {
						"id": "t2",
						"name": "Second Song",
						"type": "track",
						"duration_ms": 180000,
						"track_number": 2,
						"artists": [{"id": "a2", "name": "Other Artist"}],
						"album": {"name": "Singles", "release_date": "1999"}
					}},
					{"track": {
						"id": "ep1",
						"name": "Some Podcast",
						"type": "episode",
						"duration_ms": 3600000
					}},
					{"track": null}
				],
				"next": ""
			}`))
			return
		}

		fmt.Fprintf(w, `{
			"items": [
				{"track": {
					"id": "t1",
					"name": "First Song",
					"type": "track",
					"duration_ms": 215000,
					"track_number": 1,
					"disc_number": 1,
					"is_local": false,
					"artists": [{"id": "a1", "name": "Main Artist"}, {"id": "a3", "name": "Guest"}],
					"album": {
						"name": "Great Album",
						"release_date": "2019-06-14",
						"artists": [{"id": "a1", "name": "Main Artist"}],
						"images": [
							{"url": "https://img/small", "width": 64, "height": 64},
							{"url": "https://img/large", "width": 640, "height": 640}
						]
					},
					"external_ids": {"isrc": "USRC11900000"},
					"external_urls": {"spotify": "https://open.spotify.com/track/t1"}
				}}
			],
			"next": "%s/playlists/pl1/tracks?page=2"
		}`, server.URL)
	})
	mux.HandleFunc("/artists/a1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "a1", "name": "Main Artist", "genres": ["indie rock", "shoegaze", "dream pop", "noise pop"]}`))
	})
	mux.HandleFunc("/artists/a2", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server error", http.StatusInternalServerError)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	service := &SpotifyService{
		client:     server.Client(),
		baseURL:    server.URL,
		logger:     shared.NewLogger(io.Discard),
		genreCache: make(map[string][]string),
	}

	tracks, err := service.PlaylistTracks(context.Background(), "pl1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks (episode and null dropped), got %d", len(tracks))
	}

	first := tracks[0]
	if first.Title != "First Song" {
		t.Errorf("expected title 'First Song', got %q", first.Title)
	}
	if len(first.Artists) != 2 || first.Artists[0] != "Main Artist" {
		t.Errorf("unexpected artists: %v", first.Artists)
	}
	if first.AlbumArtist != "Main Artist" {
		t.Errorf("expected album artist 'Main Artist', got %q", first.AlbumArtist)
	}
	if first.ReleaseYear != 2019 {
		t.Errorf("expected release year 2019, got %d", first.ReleaseYear)
	}
	if first.CoverArtURL != "https://img/large" {
		t.Errorf("expected largest image, got %q", first.CoverArtURL)
	}
	if first.ISRC != "USRC11900000" {
		t.Errorf("expected ISRC, got %q", first.ISRC)
	}
	if len(first.Genres) != 3 {
		t.Errorf("expected genres capped at 3, got %v", first.Genres)
	}

	second := tracks[1]
	if second.Title != "Second Song" {
		t.Errorf("expected title 'Second Song', got %q", second.Title)
	}
	if second.ReleaseYear != 1999 {
		t.Errorf("expected release year 1999, got %d", second.ReleaseYear)
	}
	if second.DiscNumber != 1 {
		t.Errorf("expected disc number defaulted to 1, got %d", second.DiscNumber)
	}
	if len(second.Genres) != 0 {
		t.Errorf("expected no genres on lookup failure, got %v", second.Genres)
	}
	if second.AlbumArtist != "Other Artist" {
		t.Errorf("expected album artist fallback to primary artist, got %q", second.AlbumArtist)
	}
}

func TestNormalizeTrackRejectsNonTracks(t *testing.T) {
	service := &SpotifyService{
		logger:     shared.NewLogger(io.Discard),
		genreCache: make(map[string][]string),
	}

	tc := []struct {
		name  string
		track spotifyTrack
	}{
		{
			name:  "episode",
			track: spotifyTrack{ID: "e1", Name: "Episode", Type: "episode"},
		},
		{
			name:  "local file",
			track: spotifyTrack{ID: "l1", Name: "Local", Type: "track", IsLocal: true, Artists: []spotifyArtist{{Name: "X"}}},
		},
		{
			name:  "missing artists",
			track: spotifyTrack{ID: "t1", Name: "Orphan", Type: "track"},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.normalizeTrack(context.Background(), tt.track)
			if !errors.Is(err, shared.ErrInvalidTrackKind) {
				t.Errorf("expected ErrInvalidTrackKind, got %v", err)
			}
		})
	}
}

func TestParseReleaseYear(t *testing.T) {
	tc := []struct {
		date string
		want int
	}{
		{"2019-06-14", 2019},
		{"1999", 1999},
		{"2005-03", 2005},
		{"", 0},
		{"abc", 0},
	}

	for _, tt := range tc {
		if got := parseReleaseYear(tt.date); got != tt.want {
			t.Errorf("parseReleaseYear(%q) = %d, want %d", tt.date, got, tt.want)
		}
	}
}
