package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lrstanley/go-ytdlp"

	"spotgrab/internal/models"
	"spotgrab/internal/shared"
)

// audioFormatSelector prefers lossless, then opus, then high-bitrate mp3,
// falling back to whatever best audio the source offers.
const audioFormatSelector = "bestaudio[ext=flac]/bestaudio[acodec=opus]/bestaudio[abr>=320][ext=mp3]/bestaudio/best"

// YouTubeService searches and fetches audio through yt-dlp.
type YouTubeService struct {
	format string
	logger *log.Logger
}

// NewYouTubeService builds a yt-dlp backed search and fetch service. An
// empty format falls back to the default preference order.
func NewYouTubeService(format string, logger *log.Logger) *YouTubeService {
	if format == "" {
		format = audioFormatSelector
	}
	return &YouTubeService{format: format, logger: logger}
}

// EnsureBinary downloads a yt-dlp binary if none is available on the host.
func (s *YouTubeService) EnsureBinary(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("%w: yt-dlp install: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}

// searchEntry is one JSON line of flat-playlist search output.
type searchEntry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Uploader string  `json:"uploader"`
	Channel  string  `json:"channel"`
	Duration float64 `json:"duration"`
}

// Search runs a ytsearch query and returns candidates in ranking order.
func (s *YouTubeService) Search(ctx context.Context, query string, limit int) ([]models.CandidateMatch, error) {
	if limit <= 0 {
		limit = 1
	}

	cmd := ytdlp.New().
		SkipDownload().
		FlatPlaylist().
		DumpJSON().
		NoWarnings()

	result, err := cmd.Run(ctx, fmt.Sprintf("ytsearch%d:%s", limit, query))
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", shared.ErrAPIRequest, query, err)
	}

	return parseSearchOutput(result.Stdout), nil
}

// parseSearchOutput decodes JSON-lines search output into candidates.
// Malformed lines and entries without an ID are dropped.
func parseSearchOutput(output string) []models.CandidateMatch {
	var matches []models.CandidateMatch
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var entry searchEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.ID == "" {
			continue
		}

		url := entry.URL
		if url == "" {
			url = "https://www.youtube.com/watch?v=" + entry.ID
		}
		uploader := entry.Uploader
		if uploader == "" {
			uploader = entry.Channel
		}

		matches = append(matches, models.CandidateMatch{
			ID:              entry.ID,
			Title:           entry.Title,
			URL:             url,
			Uploader:        uploader,
			DurationSeconds: int(entry.Duration),
		})
	}
	return matches
}

// Fetch downloads a match's audio into destDir as baseName plus whatever
// extension the selected format carries, and returns the produced path.
func (s *YouTubeService) Fetch(ctx context.Context, match models.CandidateMatch, destDir, baseName string) (string, error) {
	if err := shared.EnsureDir(destDir); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
	}

	dl := ytdlp.New().
		Format(s.format).
		Output(filepath.Join(destDir, baseName+".%(ext)s")).
		NoPlaylist().
		NoWarnings().
		ForceOverwrites()

	dl.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
		if update.TotalBytes > 0 {
			percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
			s.logger.Debug("fetching", "title", match.Title, "percent", int(percent))
		}
	})

	if _, err := dl.Run(ctx, match.URL); err != nil {
		return "", fmt.Errorf("%w: %s: %v", shared.ErrFetchFailed, match.URL, err)
	}

	path, ok := shared.FindByBaseName(destDir, baseName)
	if !ok {
		return "", fmt.Errorf("%w: no output file produced for %q", shared.ErrFetchFailed, baseName)
	}
	return path, nil
}
