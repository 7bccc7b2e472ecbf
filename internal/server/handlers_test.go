package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spotgrab/internal/models"
	"spotgrab/internal/shared"
	"spotgrab/internal/tasks"
	mock "spotgrab/internal/testing"
)

// stubEngine returns canned outcomes without touching the network.
type stubEngine struct {
	outcomes []models.DownloadOutcome
	err      error
}

func (s *stubEngine) Run(ctx context.Context, tracks []models.TrackDescriptor, targetDir string, progress chan<- tasks.ProgressUpdate) ([]models.DownloadOutcome, error) {
	return s.outcomes, s.err
}

const testPlaylistID = "37i9dQZF1DXcBWIGoYBM5M"

func testAPI(t *testing.T, engine tasks.DownloadEngine) (*API, *httptest.Server) {
	t.Helper()

	catalog := &mock.MockCatalog{
		PlaylistFunc: func(ctx context.Context, id string) (*models.Playlist, error) {
			return &models.Playlist{ID: id, Name: "Road Trip", TrackCount: 2}, nil
		},
		PlaylistTracksFunc: func(ctx context.Context, id string) ([]models.TrackDescriptor, error) {
			return []models.TrackDescriptor{
				{CatalogID: "t1", Title: "One", Artists: []string{"A"}},
				{CatalogID: "t2", Title: "Two", Artists: []string{"B"}},
			}, nil
		},
	}

	config := shared.DefaultConfig()
	config.Download.OutputDir = t.TempDir()

	api := NewAPI(catalog, engine, nil, config, shared.NewLogger(io.Discard))
	router := NewRouter()
	api.Register(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return api, server
}

func postDownload(t *testing.T, server *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(server.URL+"/downloads", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	_, server := testAPI(t, &stubEngine{})

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCreateDownloadRun(t *testing.T) {
	engine := &stubEngine{
		outcomes: []models.DownloadOutcome{
			{Track: models.TrackDescriptor{CatalogID: "t1"}, Result: models.ResultSuccess},
			{Track: models.TrackDescriptor{CatalogID: "t2"}, Result: models.ResultFailed, Reason: models.ReasonNoMatch},
		},
	}
	_, server := testAPI(t, engine)

	resp := postDownload(t, server, `{"playlist": "`+testPlaylistID+`"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	var created createResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected run ID")
	}
	if created.TrackCount != 2 {
		t.Errorf("expected 2 tracks, got %d", created.TrackCount)
	}

	// Poll until the background run completes.
	deadline := time.Now().Add(2 * time.Second)
	var state RunState
	for {
		statusResp, err := http.Get(server.URL + "/downloads/" + created.ID)
		if err != nil {
			t.Fatalf("status request failed: %v", err)
		}
		err = json.NewDecoder(statusResp.Body).Decode(&state)
		statusResp.Body.Close()
		if err != nil {
			t.Fatalf("failed to decode status: %v", err)
		}

		if state.Status != StatusRunning {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run did not finish, state %+v", state)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if state.Status != StatusCompleted {
		t.Errorf("expected completed, got %s (%s)", state.Status, state.Error)
	}
	if state.Summary == nil || state.Summary.Succeeded != 1 || state.Summary.Failed != 1 {
		t.Errorf("unexpected summary %+v", state.Summary)
	}
	if len(state.Outcomes) != 2 {
		t.Errorf("expected 2 outcomes, got %d", len(state.Outcomes))
	}
}

func TestCreateDownloadInvalidLocator(t *testing.T) {
	_, server := testAPI(t, &stubEngine{})

	resp := postDownload(t, server, `{"playlist": "not a playlist"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateDownloadBadBody(t *testing.T) {
	_, server := testAPI(t, &stubEngine{})

	resp := postDownload(t, server, `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestStatusUnknownRun(t *testing.T) {
	_, server := testAPI(t, &stubEngine{})

	resp, err := http.Get(server.URL + "/downloads/does-not-exist")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, server := testAPI(t, &stubEngine{})

	resp, err := http.Get(server.URL + "/downloads")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}

func TestMaxTracksCap(t *testing.T) {
	catalog := &mock.MockCatalog{
		PlaylistFunc: func(ctx context.Context, id string) (*models.Playlist, error) {
			return &models.Playlist{ID: id, Name: "Huge"}, nil
		},
		PlaylistTracksFunc: func(ctx context.Context, id string) ([]models.TrackDescriptor, error) {
			tracks := make([]models.TrackDescriptor, 10)
			for i := range tracks {
				tracks[i] = models.TrackDescriptor{CatalogID: shared.GenerateID(), Title: "T", Artists: []string{"A"}}
			}
			return tracks, nil
		},
	}

	config := shared.DefaultConfig()
	config.Download.OutputDir = t.TempDir()
	config.Server.MaxTracks = 3

	api := NewAPI(catalog, &stubEngine{}, nil, config, shared.NewLogger(io.Discard))
	router := NewRouter()
	api.Register(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	resp := postDownload(t, server, `{"playlist": "`+testPlaylistID+`"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	var created createResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.TrackCount != 3 {
		t.Errorf("expected cap at 3 tracks, got %d", created.TrackCount)
	}
}
