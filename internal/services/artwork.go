package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nfnt/resize"

	"spotgrab/internal/shared"
)

const (
	maxArtworkDimension = 800
	artworkJPEGQuality  = 90
)

// ArtworkService fetches cover art and normalizes it to a JPEG bounded to
// 800x800, the size embedded into tagged files.
type ArtworkService struct {
	client *http.Client
	logger *log.Logger
}

// NewArtworkService builds an artwork fetcher with a bounded HTTP client.
func NewArtworkService(logger *log.Logger) *ArtworkService {
	return &ArtworkService{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// FetchArtwork downloads, bounds, and re-encodes cover art. Any failure is
// reported as ErrArtworkUnavailable so callers can treat it as non-fatal.
func (s *ArtworkService) FetchArtwork(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: no cover art URL", shared.ErrArtworkUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrArtworkUnavailable, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrArtworkUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", shared.ErrArtworkUnavailable, resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", shared.ErrArtworkUnavailable, err)
	}

	bounded := resize.Thumbnail(maxArtworkDimension, maxArtworkDimension, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, bounded, &jpeg.Options{Quality: artworkJPEGQuality}); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", shared.ErrArtworkUnavailable, err)
	}

	return buf.Bytes(), nil
}
