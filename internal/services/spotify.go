package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2/clientcredentials"

	"spotgrab/internal/models"
	"spotgrab/internal/shared"
)

const (
	spotifyAPIBase    = "https://api.spotify.com/v1"
	spotifyTokenURL   = "https://accounts.spotify.com/api/token"
	trackPageLimit    = 100
	maxGenresPerTrack = 3
)

var playlistIDPattern = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)

// ParsePlaylistLocator extracts a playlist ID from any of the accepted
// locator forms: an open.spotify.com URL, a spotify:playlist: URI, or a
// bare 22-character ID.
func ParsePlaylistLocator(locator string) (string, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", fmt.Errorf("%w: empty locator", shared.ErrInvalidLocator)
	}

	if playlistIDPattern.MatchString(locator) {
		return locator, nil
	}

	if id, ok := strings.CutPrefix(locator, "spotify:playlist:"); ok {
		if playlistIDPattern.MatchString(id) {
			return id, nil
		}
		return "", fmt.Errorf("%w: malformed URI %q", shared.ErrInvalidLocator, locator)
	}

	if strings.Contains(locator, "open.spotify.com") {
		u, err := url.Parse(locator)
		if err != nil {
			return "", fmt.Errorf("%w: %q", shared.ErrInvalidLocator, locator)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i, part := range parts {
			if part == "playlist" && i+1 < len(parts) && playlistIDPattern.MatchString(parts[i+1]) {
				return parts[i+1], nil
			}
		}
		return "", fmt.Errorf("%w: no playlist ID in %q", shared.ErrInvalidLocator, locator)
	}

	return "", fmt.Errorf("%w: %q", shared.ErrInvalidLocator, locator)
}

// SpotifyService talks to the Spotify Web API using the client credentials
// flow. Playlist reads only need an app token, never a user login.
type SpotifyService struct {
	client  *http.Client
	baseURL string
	logger  *log.Logger

	genreCache map[string][]string
}

// NewSpotifyService builds a catalog client from app credentials. The
// returned client fetches and refreshes its token transparently.
func NewSpotifyService(ctx context.Context, clientID, clientSecret string, logger *log.Logger) *SpotifyService {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	return &SpotifyService{
		client:     cfg.Client(ctx),
		baseURL:    spotifyAPIBase,
		logger:     logger,
		genreCache: make(map[string][]string),
	}
}

type spotifyImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type spotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

type spotifyAlbum struct {
	Name        string          `json:"name"`
	ReleaseDate string          `json:"release_date"`
	Artists     []spotifyArtist `json:"artists"`
	Images      []spotifyImage  `json:"images"`
}

type spotifyTrack struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	DurationMS   int               `json:"duration_ms"`
	TrackNumber  int               `json:"track_number"`
	DiscNumber   int               `json:"disc_number"`
	IsLocal      bool              `json:"is_local"`
	Artists      []spotifyArtist   `json:"artists"`
	Album        spotifyAlbum      `json:"album"`
	ExternalIDs  map[string]string `json:"external_ids"`
	ExternalURLs map[string]string `json:"external_urls"`
}

type spotifyPlaylistItem struct {
	Track *spotifyTrack `json:"track"`
}

type spotifyTrackPage struct {
	Items []spotifyPlaylistItem `json:"items"`
	Next  string                `json:"next"`
}

type spotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       struct {
		DisplayName string `json:"display_name"`
	} `json:"owner"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// Playlist fetches playlist metadata by ID.
func (s *SpotifyService) Playlist(ctx context.Context, id string) (*models.Playlist, error) {
	var resp spotifyPlaylist
	if err := s.get(ctx, s.baseURL+"/playlists/"+id, &resp); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          resp.ID,
		Name:        resp.Name,
		Owner:       resp.Owner.DisplayName,
		Description: resp.Description,
		TrackCount:  resp.Tracks.Total,
		URL:         resp.ExternalURLs["spotify"],
	}, nil
}

// PlaylistTracks walks every page of a playlist's tracks and normalizes
// each entry. Episodes and local files are logged and dropped.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, id string) ([]models.TrackDescriptor, error) {
	next := fmt.Sprintf("%s/playlists/%s/tracks?limit=%d", s.baseURL, id, trackPageLimit)

	var tracks []models.TrackDescriptor
	for next != "" {
		var page spotifyTrackPage
		if err := s.get(ctx, next, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil {
				continue
			}

			descriptor, err := s.normalizeTrack(ctx, *item.Track)
			if err != nil {
				s.logger.Warn("skipping playlist entry", "title", item.Track.Name, "error", err)
				continue
			}
			tracks = append(tracks, descriptor)
		}

		next = page.Next
	}

	return tracks, nil
}

// normalizeTrack converts a raw API track into a TrackDescriptor, rejecting
// entries that are not downloadable tracks.
func (s *SpotifyService) normalizeTrack(ctx context.Context, raw spotifyTrack) (models.TrackDescriptor, error) {
	if raw.Type != "" && raw.Type != "track" {
		return models.TrackDescriptor{}, fmt.Errorf("%w: %s", shared.ErrInvalidTrackKind, raw.Type)
	}
	if raw.IsLocal {
		return models.TrackDescriptor{}, fmt.Errorf("%w: local file", shared.ErrInvalidTrackKind)
	}
	if raw.Name == "" || len(raw.Artists) == 0 {
		return models.TrackDescriptor{}, fmt.Errorf("%w: missing title or artists", shared.ErrInvalidTrackKind)
	}

	artists := make([]string, 0, len(raw.Artists))
	for _, artist := range raw.Artists {
		artists = append(artists, artist.Name)
	}

	albumArtist := artists[0]
	if len(raw.Album.Artists) > 0 {
		albumArtist = raw.Album.Artists[0].Name
	}

	descriptor := models.TrackDescriptor{
		CatalogID:   raw.ID,
		CatalogURL:  raw.ExternalURLs["spotify"],
		Title:       raw.Name,
		Artists:     artists,
		Album:       raw.Album.Name,
		AlbumArtist: albumArtist,
		TrackNumber: raw.TrackNumber,
		DiscNumber:  raw.DiscNumber,
		DurationMS:  raw.DurationMS,
		ReleaseYear: parseReleaseYear(raw.Album.ReleaseDate),
		ISRC:        raw.ExternalIDs["isrc"],
		CoverArtURL: largestImageURL(raw.Album.Images),
		Genres:      s.artistGenres(ctx, raw.Artists[0].ID),
	}
	if descriptor.DiscNumber == 0 {
		descriptor.DiscNumber = 1
	}

	return descriptor, nil
}

// artistGenres fetches an artist's genre list, memoized per service. Genre
// lookup is best effort: a failed request yields no genres, not an error.
func (s *SpotifyService) artistGenres(ctx context.Context, artistID string) []string {
	if artistID == "" {
		return nil
	}
	if genres, ok := s.genreCache[artistID]; ok {
		return genres
	}

	var artist spotifyArtist
	if err := s.get(ctx, s.baseURL+"/artists/"+artistID, &artist); err != nil {
		s.logger.Debug("genre lookup failed", "artist_id", artistID, "error", err)
		s.genreCache[artistID] = nil
		return nil
	}

	genres := artist.Genres
	if len(genres) > maxGenresPerTrack {
		genres = genres[:maxGenresPerTrack]
	}
	s.genreCache[artistID] = genres
	return genres
}

// get performs an authenticated GET and decodes the JSON response into out.
func (s *SpotifyService) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// parseReleaseYear extracts the year from a release date, which the API
// reports as YYYY, YYYY-MM, or YYYY-MM-DD depending on precision.
func parseReleaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// largestImageURL picks the biggest cover art variant. The API sorts
// images largest first, but sort order is not guaranteed.
func largestImageURL(images []spotifyImage) string {
	best := ""
	bestArea := -1
	for _, img := range images {
		area := img.Width * img.Height
		if area > bestArea {
			best = img.URL
			bestArea = area
		}
	}
	return best
}
