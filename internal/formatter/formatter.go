// package formatter renders download run reports for the console and
// exports them to CSV and JSON files.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"spotgrab/internal/models"
	"spotgrab/internal/shared"
	"spotgrab/internal/tasks"
)

// resultMark maps a result to its one-character console marker.
func resultMark(outcome models.DownloadOutcome) string {
	switch outcome.Result {
	case models.ResultSuccess:
		return "✓"
	case models.ResultSkipped:
		return "∙"
	default:
		return "✗"
	}
}

// ReportText renders a run report: playlist header, one line per track,
// and the summary footer.
func ReportText(playlist *models.Playlist, outcomes []models.DownloadOutcome, summary tasks.Summary) []byte {
	var buf bytes.Buffer

	if playlist != nil {
		buf.WriteString(fmt.Sprintf("Playlist: %s", playlist.Name))
		if playlist.Owner != "" {
			buf.WriteString(fmt.Sprintf(" (by %s)", playlist.Owner))
		}
		buf.WriteString("\n")
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(outcomes)))

	for i, outcome := range outcomes {
		buf.WriteString(fmt.Sprintf("%d. %s %s", i+1, resultMark(outcome), outcome.Track.DisplayName()))
		if outcome.Result == models.ResultFailed {
			buf.WriteString(fmt.Sprintf(" [%s]", outcome.Reason))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(fmt.Sprintf("\nDownloaded: %d  Skipped: %d  Failed: %d\n",
		summary.Succeeded, summary.Skipped, summary.Failed))

	if summary.Failed > 0 {
		buf.WriteString(fmt.Sprintf("Failures recorded for retry (%d)\n", summary.Failed))
	}

	return buf.Bytes()
}

// ReportCSV converts outcomes to CSV with columns: ID, Title, Artists,
// Album, Duration, Result, Reason, Path
func ReportCSV(outcomes []models.DownloadOutcome) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artists", "Album", "Duration", "Result", "Reason", "Path"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, outcome := range outcomes {
		record := []string{
			outcome.Track.CatalogID,
			outcome.Track.Title,
			strings.Join(outcome.Track.Artists, ", "),
			outcome.Track.Album,
			FormatDuration(outcome.Track.DurationSeconds()),
			string(outcome.Result),
			string(outcome.Reason),
			outcome.OutputPath,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportExportResult contains the paths of files created by WriteReportFiles
type ReportExportResult struct {
	ReportFile  string
	SummaryFile string
}

// WriteReportFiles exports a run to CSV with an accompanying summary JSON
// file.
//
// Defaults to the playlist ID as the base filename & creates
// {base}_report.csv and {base}_summary.json
func WriteReportFiles(playlist *models.Playlist, outcomes []models.DownloadOutcome, summary tasks.Summary, baseFilepath string) (*ReportExportResult, error) {
	if baseFilepath == "" && playlist != nil {
		baseFilepath = playlist.ID
	}
	if baseFilepath == "" {
		baseFilepath = "download"
	}

	csvData, err := ReportCSV(outcomes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	reportFile := baseFilepath + "_report.csv"
	if err := os.WriteFile(reportFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	summaryJSON, err := shared.MarshalJSON(summary, true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary JSON: %w", err)
	}

	summaryFile := baseFilepath + "_summary.json"
	if err := os.WriteFile(summaryFile, summaryJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write summary file: %w", err)
	}

	return &ReportExportResult{
		ReportFile:  reportFile,
		SummaryFile: summaryFile,
	}, nil
}

// HistoryText renders archive rows for the history command, newest first.
func HistoryText(records []models.DownloadRecord) []byte {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No downloads recorded.\n")
		return buf.Bytes()
	}

	for _, record := range records {
		buf.WriteString(fmt.Sprintf("%s  %-7s  %s - %s",
			record.CreatedAt.Format("2006-01-02 15:04"),
			record.Result,
			record.Artists,
			record.Title))
		if record.Reason != "" {
			buf.WriteString(fmt.Sprintf(" [%s]", record.Reason))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// FormatDuration renders whole seconds as M:SS.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
