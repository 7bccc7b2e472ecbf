package tagging

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"

	"spotgrab/internal/models"
	"spotgrab/internal/shared"
)

func writeDummyMP3(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Artist - Title.mp3")
	// A bare MPEG frame header is enough for the tag writer, which only
	// prepends an ID3 block.
	if err := os.WriteFile(path, []byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, 0644); err != nil {
		t.Fatalf("failed to write dummy mp3: %v", err)
	}
	return path
}

func testTrack() models.TrackDescriptor {
	return models.TrackDescriptor{
		CatalogID:   "t1",
		CatalogURL:  "https://open.spotify.com/track/t1",
		Title:       "First Song",
		Artists:     []string{"Main Artist", "Guest"},
		Album:       "Great Album",
		AlbumArtist: "Main Artist",
		TrackNumber: 3,
		DiscNumber:  1,
		DurationMS:  215000,
		ReleaseYear: 2019,
		Genres:      []string{"indie rock"},
		ISRC:        "USRC11900000",
	}
}

func TestEmbedMP3(t *testing.T) {
	path := writeDummyMP3(t)
	track := testTrack()
	artwork := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}

	if err := embedMP3(path, track, artwork); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("failed to reopen tagged file: %v", err)
	}
	defer tag.Close()

	if tag.Title() != "First Song" {
		t.Errorf("expected title 'First Song', got %q", tag.Title())
	}
	if tag.Artist() != "Main Artist, Guest" {
		t.Errorf("expected joined artists, got %q", tag.Artist())
	}
	if tag.Album() != "Great Album" {
		t.Errorf("expected album 'Great Album', got %q", tag.Album())
	}
	if got := tag.GetTextFrame("TPE2").Text; got != "Main Artist" {
		t.Errorf("expected album artist frame, got %q", got)
	}
	if got := tag.GetTextFrame("TRCK").Text; got != "3" {
		t.Errorf("expected track number '3', got %q", got)
	}
	if got := tag.GetTextFrame("TDRC").Text; got != "2019" {
		t.Errorf("expected year '2019', got %q", got)
	}
	if got := tag.GetTextFrame("TSRC").Text; got != "USRC11900000" {
		t.Errorf("expected ISRC frame, got %q", got)
	}
	if tag.Genre() != "indie rock" {
		t.Errorf("expected genre 'indie rock', got %q", tag.Genre())
	}

	pictures := tag.GetFrames(tag.CommonID("Attached picture"))
	if len(pictures) != 1 {
		t.Errorf("expected 1 picture frame, got %d", len(pictures))
	}
}

func TestEmbedMP3WithoutArtwork(t *testing.T) {
	path := writeDummyMP3(t)

	if err := embedMP3(path, testTrack(), nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("failed to reopen tagged file: %v", err)
	}
	defer tag.Close()

	if pictures := tag.GetFrames(tag.CommonID("Attached picture")); len(pictures) != 0 {
		t.Errorf("expected no picture frames, got %d", len(pictures))
	}
}

func TestEmbedFLACRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.flac")
	if err := os.WriteFile(path, []byte("not a flac file"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	err := embedFLAC(path, testTrack(), nil)
	if !errors.Is(err, shared.ErrTagFailed) {
		t.Errorf("expected ErrTagFailed, got %v", err)
	}
}

func TestServiceEmbedDispatch(t *testing.T) {
	service := NewService(shared.NewLogger(io.Discard))

	path := writeDummyMP3(t)
	got, err := service.Embed(context.Background(), path, testTrack(), nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != path {
		t.Errorf("expected mp3 tagged in place, got %q", got)
	}
}

func TestComment(t *testing.T) {
	withURL := comment(testTrack())
	if withURL != "Downloaded from YouTube | Spotify: https://open.spotify.com/track/t1" {
		t.Errorf("unexpected comment %q", withURL)
	}

	bare := comment(models.TrackDescriptor{Title: "X"})
	if bare != "Downloaded from YouTube" {
		t.Errorf("unexpected comment %q", bare)
	}
}

func TestLastLine(t *testing.T) {
	tc := []struct {
		name   string
		output string
		want   string
	}{
		{"multi line", "first\nsecond\nthird", "third"},
		{"trailing blanks", "error here\n\n\n", "error here"},
		{"empty", "", ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := lastLine(tt.output); got != tt.want {
				t.Errorf("lastLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
