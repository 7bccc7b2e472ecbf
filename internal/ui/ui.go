// package ui renders a download run as an interactive terminal session.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"spotgrab/internal/models"
	"spotgrab/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DownloadView ViewState = iota
	ResultView
)

// Model represents the TUI application state for one download run.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	engine       tasks.DownloadEngine
	playlist     *models.Playlist
	tracks       []models.TrackDescriptor
	targetDir    string
	spinner      spinner.Model
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	outcomes     []models.DownloadOutcome
	err          error
	cancelled    bool
	help         help.Model
	keys         keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	cancel key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		cancel: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "cancel"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.cancel, k.quit}}
}

type progressUpdateMsg tasks.ProgressUpdate

type runCompleteMsg struct {
	outcomes []models.DownloadOutcome
	err      error
}

// NewModel creates a TUI model that will drive engine over the given tracks.
func NewModel(ctx context.Context, engine tasks.DownloadEngine, playlist *models.Playlist, tracks []models.TrackDescriptor, targetDir string) *Model {
	runCtx, cancel := context.WithCancel(ctx)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	return &Model{
		ctx:       runCtx,
		cancel:    cancel,
		view:      DownloadView,
		engine:    engine,
		playlist:  playlist,
		tracks:    tracks,
		targetDir: targetDir,
		spinner:   sp,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Outcomes returns the finished run's outcomes for reporting after the
// program exits.
func (m *Model) Outcomes() ([]models.DownloadOutcome, error) {
	return m.outcomes, m.err
}

// Init starts the download run and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startRun(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.view {
		case DownloadView:
			return m.handleDownloadKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.outcomes = msg.outcomes
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case DownloadView:
		return m.renderDownload()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleDownloadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		// Stop the engine and wait for it to record the remainder.
		m.cancelled = true
		m.cancel()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		outcomes, err := m.engine.Run(m.ctx, m.tracks, m.targetDir, m.progressChan)
		m.outcomes = outcomes
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			return runCompleteMsg{outcomes: m.outcomes, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderDownload() string {
	name := "playlist"
	if m.playlist != nil {
		name = m.playlist.Name
	}
	title := styles.title.Render(fmt.Sprintf("Downloading '%s'", name))

	var phase string
	switch m.progress.Phase {
	case tasks.SearchSource:
		phase = fmt.Sprintf("Searching (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.FetchAudio:
		phase = fmt.Sprintf("Fetching audio (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.TagAudio:
		phase = fmt.Sprintf("Tagging (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.TrackDone:
		phase = fmt.Sprintf("Finished track %d/%d", m.progress.Step, m.progress.Total)
	default:
		phase = "Working..."
	}

	status := fmt.Sprintf("%s %s", m.spinner.View(), phase)
	if m.cancelled {
		status = styles.warn.Render("Stopping after current track...")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.cancel})
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, status, styles.dim.Render(m.progress.Message), helpView)
}

func (m *Model) renderResult() string {
	if m.err != nil && len(m.outcomes) == 0 {
		return styles.err.Render(fmt.Sprintf("Run failed: %v\n\nPress q to quit", m.err))
	}

	summary := tasks.Summarize(m.outcomes)

	title := styles.ok.Render("✓ Run complete")
	if m.cancelled || summary.Failed > 0 {
		title = styles.warn.Render("Run finished with failures")
	}

	info := fmt.Sprintf(
		"\nDownloaded: %d  Skipped: %d  Failed: %d\n",
		summary.Succeeded, summary.Skipped, summary.Failed,
	)

	var failed string
	if summary.Failed > 0 {
		failed = styles.warn.Render(fmt.Sprintf("\nFailed tracks (%d):", summary.Failed))
		for _, outcome := range m.outcomes {
			if outcome.Failed() {
				failed += fmt.Sprintf("\n  • %s [%s]", outcome.Track.DisplayName(), outcome.Reason)
			}
		}
		failed += "\n"
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n%s", title, info, failed, helpView)
}
