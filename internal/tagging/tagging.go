// Package tagging embeds track metadata and cover art into downloaded
// audio files. MP3 and FLAC are tagged in place; any other container is
// transcoded to MP3 first.
package tagging

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"spotgrab/internal/models"
	"spotgrab/internal/shared"
)

// Tagger writes metadata into a fetched audio file and returns the path
// of the tagged file, which may differ from the input when a transcode
// was required.
type Tagger interface {
	Embed(ctx context.Context, path string, track models.TrackDescriptor, artwork []byte) (string, error)
}

// Service dispatches tagging by container format.
type Service struct {
	logger *log.Logger
}

var _ Tagger = (*Service)(nil)

// NewService builds a tagging service.
func NewService(logger *log.Logger) *Service {
	return &Service{logger: logger}
}

// Embed writes the track's metadata into the file at path. Containers
// without native tag support are transcoded to MP3 and tagged there; the
// original file is removed on success.
func (s *Service) Embed(ctx context.Context, path string, track models.TrackDescriptor, artwork []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return path, embedMP3(path, track, artwork)
	case ".flac":
		return path, embedFLAC(path, track, artwork)
	default:
		s.logger.Debug("transcoding before tagging", "path", path)
		mp3Path, err := transcodeToMP3(ctx, path)
		if err != nil {
			return "", err
		}
		return mp3Path, embedMP3(mp3Path, track, artwork)
	}
}

// comment renders the provenance note written into every tagged file.
func comment(track models.TrackDescriptor) string {
	text := "Downloaded from YouTube"
	if track.CatalogURL != "" {
		text += " | Spotify: " + track.CatalogURL
	}
	return text
}

func tagError(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", shared.ErrTagFailed, filepath.Base(path), err)
}
