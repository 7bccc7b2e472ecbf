package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"spotgrab/internal/models"
	"spotgrab/internal/repositories"
	"spotgrab/internal/services"
	"spotgrab/internal/shared"
	"spotgrab/internal/tasks"
)

const defaultMaxTracks = 300

// API wires the catalog and download engine into HTTP handlers.
type API struct {
	catalog       services.Catalog
	engine        tasks.DownloadEngine
	repo          repositories.DownloadRepository
	store         *RunStore
	logger        *log.Logger
	outputDir     string
	maxNameLength int
	maxTracks     int
}

// NewAPI builds the handler set. repo may be nil to skip archiving.
func NewAPI(catalog services.Catalog, engine tasks.DownloadEngine, repo repositories.DownloadRepository, config *shared.Config, logger *log.Logger) *API {
	maxTracks := config.Server.MaxTracks
	if maxTracks <= 0 {
		maxTracks = defaultMaxTracks
	}

	return &API{
		catalog:       catalog,
		engine:        engine,
		repo:          repo,
		store:         NewRunStore(),
		logger:        logger,
		outputDir:     config.Download.OutputDir,
		maxNameLength: config.Download.MaxNameLength,
		maxTracks:     maxTracks,
	}
}

// Register attaches the API's routes to a router.
func (a *API) Register(router *Router) {
	router.Handle(http.MethodGet, "/health", a.handleHealth)
	router.Handle(http.MethodPost, "/downloads", a.handleCreate)
	router.Handle(http.MethodGet, "/downloads/", a.handleStatus)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRequest struct {
	Playlist string `json:"playlist"`
}

type createResponse struct {
	ID         string `json:"id"`
	TrackCount int    `json:"track_count"`
}

// handleCreate resolves the playlist, registers a run, and kicks off the
// download in the background. The response carries the run ID to poll.
func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	playlistID, err := services.ParsePlaylistLocator(req.Playlist)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	playlist, err := a.catalog.Playlist(r.Context(), playlistID)
	if err != nil {
		if errors.Is(err, shared.ErrPlaylistNotFound) {
			writeError(w, http.StatusNotFound, "playlist not found")
			return
		}
		a.logger.Error("playlist lookup failed", "error", err)
		writeError(w, http.StatusBadGateway, "catalog unavailable")
		return
	}

	tracks, err := a.catalog.PlaylistTracks(r.Context(), playlistID)
	if err != nil {
		a.logger.Error("track listing failed", "error", err)
		writeError(w, http.StatusBadGateway, "catalog unavailable")
		return
	}
	if len(tracks) > a.maxTracks {
		a.logger.Warn("playlist capped", "playlist", playlist.Name, "tracks", len(tracks), "cap", a.maxTracks)
		tracks = tracks[:a.maxTracks]
	}

	id := a.store.Create(playlist, len(tracks))
	go a.runDownload(id, playlist, tracks)

	writeJSON(w, http.StatusAccepted, createResponse{ID: id, TrackCount: len(tracks)})
}

// handleStatus returns the snapshot for /downloads/{id}.
func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/downloads/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	state, ok := a.store.Snapshot(id)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// runDownload drives one run to completion, mirroring progress into the
// store and archiving the outcomes when a repository is attached.
func (a *API) runDownload(id string, playlist *models.Playlist, tracks []models.TrackDescriptor) {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			a.store.Update(id, func(state *RunState) {
				state.Message = update.Message
				state.Step = update.Step
			})
		}
	}()

	targetDir := filepath.Join(a.outputDir, shared.SanitizeFilename(playlist.Name, a.maxNameLength))
	outcomes, err := a.engine.Run(context.Background(), tracks, targetDir, progress)
	close(progress)
	<-done

	summary := tasks.Summarize(outcomes)
	now := time.Now()
	a.store.Update(id, func(state *RunState) {
		state.Summary = &summary
		state.Outcomes = outcomes
		state.FinishedAt = &now
		state.Step = state.Total
		if err != nil {
			state.Status = StatusFailed
			state.Error = err.Error()
		} else {
			state.Status = StatusCompleted
		}
	})

	if a.repo != nil {
		if err := a.repo.RecordRun(context.Background(), id, playlist.ID, outcomes); err != nil {
			a.logger.Warn("failed to archive run", "run_id", id, "error", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
