package tagging

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"spotgrab/internal/shared"
)

const transcodeBitrate = "320k"

// transcodeToMP3 converts an audio file into a 320 kbps MP3 beside the
// source and removes the source on success.
func transcodeToMP3(ctx context.Context, path string) (string, error) {
	outPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".mp3"

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", path,
		"-vn",
		"-codec:a", "libmp3lame",
		"-b:a", transcodeBitrate,
		outPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("%w: ffmpeg: %v: %s", shared.ErrTagFailed, err, lastLine(stderr.String()))
	}

	os.Remove(path)
	return outPath, nil
}

// lastLine returns the final non-empty line of command output, which is
// where ffmpeg reports its actual failure.
func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
