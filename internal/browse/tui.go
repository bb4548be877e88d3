// Package browse is the interactive terminal view over stored jobs: a
// scrollable list with a detail view, plus a shortcut to mark a posting as
// applied.
package browse

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"jobscout/internal/model"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	descDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	descBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// Tracker records an application against a stored job.
type Tracker interface {
	TrackApplication(ctx context.Context, jobID int64, notes string) (int64, error)
}

// appliedMsg is sent when an async application-tracking call completes.
type appliedMsg struct {
	jobID int64
	err   error
}

type browseModel struct {
	jobs    []model.Job
	tracker Tracker

	listViewport   viewport.Model
	detailViewport viewport.Model
	cursor         int
	width          int
	height         int
	ready          bool

	view      viewState
	detailJob model.Job

	applied map[int64]bool // job ids marked applied during this session
	notice  string
	errText string
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case appliedMsg:
		if msg.err != nil {
			m.errText = fmt.Sprintf("tracking application failed: %v", msg.err)
			m.notice = ""
		} else {
			m.applied[msg.jobID] = true
			m.notice = "marked as applied"
			m.errText = ""
		}
		if m.view == viewDetail {
			m.detailViewport.SetContent(m.renderDetail())
		}
		m.recalcContent()
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "a":
		return m.trackCurrent()
	case "o":
		if len(m.jobs) > 0 {
			openURL(m.jobs[m.cursor].URL)
		}
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the viewport.
	var cmd tea.Cmd
	m.listViewport, cmd = m.listViewport.Update(msg)
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		m.notice = ""
		m.errText = ""
		return m, nil
	case "o":
		openURL(m.detailJob.URL)
		return m, nil
	case "a":
		return m.trackJob(m.detailJob)
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m browseModel) trackCurrent() (tea.Model, tea.Cmd) {
	if len(m.jobs) == 0 {
		return m, nil
	}
	return m.trackJob(m.jobs[m.cursor])
}

func (m browseModel) trackJob(job model.Job) (tea.Model, tea.Cmd) {
	if m.tracker == nil || m.applied[job.ID] {
		return m, nil
	}
	tracker := m.tracker
	return m, func() tea.Msg {
		_, err := tracker.TrackApplication(context.Background(), job.ID, "")
		return appliedMsg{jobID: job.ID, err: err}
	}
}

func (m *browseModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.jobs)-1, 0))
}

func (m *browseModel) ensureCursorVisible() {
	cursorTop := m.cursor * jobItemHeight
	cursorBottom := cursorTop + jobItemHeight - 1

	if cursorTop < m.listViewport.YOffset {
		m.listViewport.SetYOffset(cursorTop)
	} else if cursorBottom >= m.listViewport.YOffset+m.listViewport.Height {
		m.listViewport.SetYOffset(cursorBottom - m.listViewport.Height + 1)
	}
}

func (m browseModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.jobs) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detailJob = m.jobs[m.cursor]
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *browseModel) recalcLayout() {
	// Border top/bottom (2) + header (1) + status bar (1) = 4 lines overhead.
	paneWidth := max(m.width-2, 20)
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.listViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.listViewport.Width = paneWidth
		m.listViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	m.listViewport.SetContent(m.renderJobs())
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m browseModel) viewList() string {
	header := headerStyle.Render(fmt.Sprintf(" Jobs (%d)", len(m.jobs)))
	pane := borderStyle.Width(m.listViewport.Width).Render(m.listViewport.View())

	statusText := " ↑/↓ cursor  Enter detail  a apply  o open URL  q quit"
	if m.notice != "" {
		statusText = " " + m.notice + "   " + strings.TrimLeft(statusText, " ")
	}
	if m.errText != "" {
		statusText = " " + m.errText
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return header + "\n" + pane + "\n" + statusBar
}

func (m browseModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")
	content := borderStyle.Width(m.width - 2).Render(m.detailViewport.View())

	statusText := " a apply  o open URL  esc/backspace back  ↑/↓ scroll  q quit"
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m browseModel) renderDetail() string {
	j := m.detailJob
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", j.Title)
	addField("Company", j.Company)
	addField("Location", j.Location)
	addField("Type", j.JobType)
	addField("Experience", j.Experience)
	addField("Salary", formatSalary(j))

	b.WriteByte('\n')
	if j.PostedAt != nil {
		addField("Posted", j.PostedAt.Format("2006-01-02"))
	}
	addField("Scraped", j.ScrapedAt.Format("2006-01-02 15:04"))
	addField("URL", j.URL)

	if m.applied[j.ID] {
		b.WriteByte('\n')
		b.WriteString(noticeStyle.Render("  ✓ applied") + "\n")
	}
	if m.errText != "" {
		b.WriteByte('\n')
		b.WriteString(errorStyle.Render("⚠ "+m.errText) + "\n")
	}

	if j.Description != "" {
		wrapWidth := max(m.width-8, 20)
		fill := strings.Repeat("─", max(wrapWidth-len("── Description "), 3))
		b.WriteByte('\n')
		b.WriteString(descDividerStyle.Render("── Description "+fill) + "\n\n")
		b.WriteString(descBodyStyle.Render(wordWrap(j.Description, wrapWidth)) + "\n")
	}

	return b.String()
}

func (m browseModel) renderJobs() string {
	if len(m.jobs) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, j := range m.jobs {
		titleSt := jobTitleStyle
		subtitleSt := jobSubtitleStyle
		prefix := "  "
		if i == m.cursor {
			titleSt = selectedJobTitleStyle
			subtitleSt = selectedJobSubtitleStyle
			prefix = "> "
		}

		title := j.Title
		if m.applied[j.ID] {
			title += " ✓"
		}
		b.WriteString(prefix)
		b.WriteString(titleSt.Render(title))
		b.WriteByte('\n')

		posted := "n/a"
		if j.PostedAt != nil {
			posted = j.PostedAt.Format("2006-01-02")
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s", j.Company, j.Location, posted)))
		b.WriteByte('\n')

		if i < len(m.jobs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func formatSalary(j model.Job) string {
	if j.SalaryMin == nil && j.SalaryMax == nil {
		return ""
	}
	currency := j.SalaryCurrency
	if currency == "" {
		currency = "USD"
	}
	switch {
	case j.SalaryMin != nil && j.SalaryMax != nil:
		return fmt.Sprintf("%s %.0f - %.0f", currency, *j.SalaryMin, *j.SalaryMax)
	case j.SalaryMin != nil:
		return fmt.Sprintf("%s %.0f+", currency, *j.SalaryMin)
	default:
		return fmt.Sprintf("up to %s %.0f", currency, *j.SalaryMax)
	}
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the interactive job browser over the given jobs. tracker may
// be nil, which disables the apply shortcut.
func Run(jobs []model.Job, tracker Tracker) error {
	m := browseModel{
		jobs:    jobs,
		tracker: tracker,
		applied: make(map[int64]bool),
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
