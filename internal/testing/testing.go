// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"spotgrab/internal/models"
)

// MockCatalog is a test double for [services.Catalog]
type MockCatalog struct {
	PlaylistFunc       func(ctx context.Context, id string) (*models.Playlist, error)
	PlaylistTracksFunc func(ctx context.Context, id string) ([]models.TrackDescriptor, error)
}

func (m *MockCatalog) Playlist(ctx context.Context, id string) (*models.Playlist, error) {
	if m.PlaylistFunc != nil {
		return m.PlaylistFunc(ctx, id)
	}
	return &models.Playlist{ID: id, Name: "mock"}, nil
}

func (m *MockCatalog) PlaylistTracks(ctx context.Context, id string) ([]models.TrackDescriptor, error) {
	if m.PlaylistTracksFunc != nil {
		return m.PlaylistTracksFunc(ctx, id)
	}
	return []models.TrackDescriptor{}, nil
}

// MockSearcher is a test double for [services.Searcher]
type MockSearcher struct {
	SearchFunc func(ctx context.Context, query string, limit int) ([]models.CandidateMatch, error)
	Queries    []string
}

func (m *MockSearcher) Search(ctx context.Context, query string, limit int) ([]models.CandidateMatch, error) {
	m.Queries = append(m.Queries, query)
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit)
	}
	return nil, nil
}

// MockFetcher is a test double for [services.Fetcher]. The default
// behavior writes a placeholder mp3 into destDir the way a real fetch
// would.
type MockFetcher struct {
	FetchFunc func(ctx context.Context, match models.CandidateMatch, destDir, baseName string) (string, error)
	Fetched   []string
}

func (m *MockFetcher) Fetch(ctx context.Context, match models.CandidateMatch, destDir, baseName string) (string, error) {
	m.Fetched = append(m.Fetched, match.URL)
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, match, destDir, baseName)
	}

	path := filepath.Join(destDir, baseName+".mp3")
	if err := os.WriteFile(path, []byte{0xFF, 0xFB, 0x90, 0x00}, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// MockArtworkFetcher is a test double for [services.ArtworkFetcher]
type MockArtworkFetcher struct {
	FetchArtworkFunc func(ctx context.Context, url string) ([]byte, error)
}

func (m *MockArtworkFetcher) FetchArtwork(ctx context.Context, url string) ([]byte, error) {
	if m.FetchArtworkFunc != nil {
		return m.FetchArtworkFunc(ctx, url)
	}
	return []byte{0xFF, 0xD8, 0xFF}, nil
}

// MockTagger is a test double for [tagging.Tagger]. The default behavior
// leaves the file untouched and reports it tagged in place.
type MockTagger struct {
	EmbedFunc func(ctx context.Context, path string, track models.TrackDescriptor, artwork []byte) (string, error)
	Tagged    []string
}

func (m *MockTagger) Embed(ctx context.Context, path string, track models.TrackDescriptor, artwork []byte) (string, error) {
	m.Tagged = append(m.Tagged, path)
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, path, track, artwork)
	}
	return path, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

var _ io.Writer = (*FWriter)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileAbsent(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}
