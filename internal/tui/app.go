package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/executionlog"
	"github.com/waabox/testdeck/internal/query"
)

// Backend is the server surface the dashboard reads from and acts on.
type Backend interface {
	ListPipelines(ctx context.Context, crit query.PipelineCriteria) ([]domain.Pipeline, error)
	ListExecutions(ctx context.Context, crit query.ExecutionCriteria) ([]domain.Execution, error)
	Dashboard(ctx context.Context) (query.Dashboard, error)
	RunPipeline(ctx context.Context, id, triggeredBy string) (domain.Execution, error)
	CancelExecution(ctx context.Context, id string) (domain.Execution, error)
}

// PipelinesLoadedMsg is sent when pipelines have been fetched from the backend.
// It is exported so that tests can inject it directly into AppModel.Update.
type PipelinesLoadedMsg struct {
	Pipelines []domain.Pipeline
	Err       error
}

// ExecutionsLoadedMsg is sent when the execution history has been fetched.
type ExecutionsLoadedMsg struct {
	Executions []domain.Execution
	Err        error
}

// DashboardLoadedMsg is sent when the dashboard counts have been fetched.
type DashboardLoadedMsg struct {
	Dashboard query.Dashboard
	Err       error
}

// tickMsg is sent by the auto-refresh ticker.
type tickMsg struct{}

// actionResultMsg is sent when a run or cancel request completes.
type actionResultMsg struct {
	action string
	err    error
}

// viewState indicates the current navigation level.
type viewState int

const (
	viewPipelines viewState = iota
	viewHistory
	viewDashboard
	viewExecution
	viewLogs
)

var tabs = []struct {
	view  viewState
	label string
}{
	{viewPipelines, "Pipelines"},
	{viewHistory, "History"},
	{viewDashboard, "Dashboard"},
}

const requestTimeout = 10 * time.Second

// AppModel is the root Bubbletea model for the testdeck dashboard.
// The backend is always queried unfiltered; filters are applied locally so
// typing in the search box never waits on the network.
type AppModel struct {
	backend Backend
	user    string
	now     func() time.Time
	// Navigation
	view viewState
	// Data as last loaded
	pipelines  []domain.Pipeline
	executions []domain.Execution
	dashboard  query.Dashboard
	// Filters
	pipelineCriteria query.PipelineCriteria
	historyCriteria  query.ExecutionCriteria
	search           textinput.Model
	searching        bool
	// Lists
	list              PipelineListModel
	history           ExecutionListModel
	selectedExecution domain.Execution
	assertions        AssertionListModel
	// General state
	loading       bool
	err           error
	notice        string
	width         int
	height        int
	confirmAction string
	logOffset     int
}

// NewAppModel creates the root application model. user is recorded as triggeredBy on runs.
func NewAppModel(backend Backend, user string) AppModel {
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search"
	return AppModel{
		backend:         backend,
		user:            user,
		now:             time.Now,
		historyCriteria: query.ExecutionCriteria{Range: query.RangeSevenDays},
		search:          search,
		list:            NewPipelineListModel(nil),
		history:         NewExecutionListModel(nil),
		loading:         true,
	}
}

// Init triggers the initial load.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.loadAll(), tickEvery(5*time.Second))
}

func (m AppModel) loadAll() tea.Cmd {
	return tea.Batch(m.loadPipelines(), m.loadExecutions(), m.loadDashboard())
}

func (m AppModel) loadPipelines() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		pipelines, err := m.backend.ListPipelines(ctx, query.PipelineCriteria{})
		return PipelinesLoadedMsg{Pipelines: pipelines, Err: err}
	}
}

func (m AppModel) loadExecutions() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		execs, err := m.backend.ListExecutions(ctx, query.ExecutionCriteria{})
		return ExecutionsLoadedMsg{Executions: execs, Err: err}
	}
}

func (m AppModel) loadDashboard() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		d, err := m.backend.Dashboard(ctx)
		return DashboardLoadedMsg{Dashboard: d, Err: err}
	}
}

func (m AppModel) runPipeline(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := m.backend.RunPipeline(ctx, id, m.user)
		return actionResultMsg{action: "run", err: err}
	}
}

func (m AppModel) cancelExecution(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := m.backend.CancelExecution(ctx, id)
		return actionResultMsg{action: "cancel", err: err}
	}
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

// anyRunning reports whether any pipeline in the list has StatusRunning.
func anyRunning(pipelines []domain.Pipeline) bool {
	for _, p := range pipelines {
		if p.Status == domain.StatusRunning {
			return true
		}
	}
	return false
}

// applyFilters recomputes both lists from the loaded data and the current criteria.
func (m AppModel) applyFilters() AppModel {
	m.list = m.list.UpdatePipelines(m.pipelineCriteria.Apply(m.pipelines))
	m.history = m.history.UpdateExecutions(m.historyCriteria.Apply(m.executions, m.now()))
	return m
}

// cancelTarget returns the open execution the cancel key applies to in the current view.
func (m AppModel) cancelTarget() string {
	switch m.view {
	case viewPipelines:
		p := m.list.SelectedPipeline()
		for _, e := range m.executions {
			if e.PipelineID == p.ID && e.IsOpen() {
				return e.ID
			}
		}
	case viewHistory:
		if e := m.history.SelectedExecution(); e.IsOpen() {
			return e.ID
		}
	case viewExecution:
		if m.selectedExecution.IsOpen() {
			return m.selectedExecution.ID
		}
	}
	return ""
}

// Update handles all incoming messages and key events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case PipelinesLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.pipelines = msg.Pipelines
		return m.applyFilters(), nil

	case ExecutionsLoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.executions = msg.Executions
		for _, e := range msg.Executions {
			if e.ID == m.selectedExecution.ID {
				m.selectedExecution = e
				break
			}
		}
		return m.applyFilters(), nil

	case DashboardLoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.dashboard = msg.Dashboard

	case tickMsg:
		interval := 30 * time.Second
		if anyRunning(m.pipelines) {
			interval = 5 * time.Second
		}
		return m, tea.Batch(m.loadAll(), tickEvery(interval))

	case actionResultMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("%s failed: %w", msg.action, msg.err)
			return m, nil
		}
		m.loading = true
		return m, m.loadAll()

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.confirmAction != "" {
			switch msg.String() {
			case "y":
				action := m.confirmAction
				m.confirmAction = ""
				if action == "run" {
					if p := m.list.SelectedPipeline(); p.ID != "" {
						return m, m.runPipeline(p.ID)
					}
					return m, nil
				}
				if id := m.cancelTarget(); id != "" {
					return m, m.cancelExecution(id)
				}
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			default:
				m.confirmAction = ""
				return m, nil
			}
		}
		m.notice = ""
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "ctrl+r":
			m.loading = true
			m.err = nil
			return m, m.loadAll()
		case "tab":
			return m.nextTab(), nil
		}
		switch m.view {
		case viewPipelines:
			return m.updatePipelines(msg)
		case viewHistory:
			return m.updateHistory(msg)
		case viewExecution:
			return m.updateExecution(msg)
		case viewLogs:
			return m.updateLogs(msg)
		}
	}
	return m, nil
}

func (m AppModel) nextTab() AppModel {
	for i, t := range tabs {
		if t.view == m.view {
			m.view = tabs[(i+1)%len(tabs)].view
			return m
		}
	}
	return m
}

func (m AppModel) startSearch(current string) (tea.Model, tea.Cmd) {
	m.searching = true
	m.search.SetValue(current)
	m.search.CursorEnd()
	return m, m.search.Focus()
}

// setSearch writes the search text into the criteria of the active list.
func (m AppModel) setSearch(text string) AppModel {
	if m.view == viewHistory {
		m.historyCriteria.Search = text
	} else {
		m.pipelineCriteria.Search = text
	}
	return m.applyFilters()
}

func (m AppModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		return m.setSearch(""), nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m.setSearch(m.search.Value()), cmd
}

func (m AppModel) updatePipelines(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		m.list = m.list.MoveDown()
	case "up":
		m.list = m.list.MoveUp()
	case "/":
		return m.startSearch(m.pipelineCriteria.Search)
	case "t":
		m.pipelineCriteria.Type = cycle(typeOptions, orAll(m.pipelineCriteria.Type))
		return m.applyFilters(), nil
	case "s":
		m.pipelineCriteria.Status = cycle(statusOptions, orAll(m.pipelineCriteria.Status))
		return m.applyFilters(), nil
	case "enter":
		if p := m.list.SelectedPipeline(); p.ID != "" {
			m.historyCriteria.Search = p.Name
			m.view = viewHistory
			return m.applyFilters(), nil
		}
	case "r":
		if m.list.SelectedPipeline().ID != "" {
			m.confirmAction = "run"
		}
	case "x":
		return m.askCancel(), nil
	}
	return m, nil
}

func (m AppModel) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		m.history = m.history.MoveDown()
	case "up":
		m.history = m.history.MoveUp()
	case "/":
		return m.startSearch(m.historyCriteria.Search)
	case "s":
		m.historyCriteria.Status = cycle(statusOptions, orAll(m.historyCriteria.Status))
		return m.applyFilters(), nil
	case "d":
		m.historyCriteria.Range = cycleRange(m.historyCriteria.Range)
		return m.applyFilters(), nil
	case "enter":
		if e := m.history.SelectedExecution(); e.ID != "" {
			m.selectedExecution = e
			if e.Result != nil {
				m.assertions = NewAssertionListModel(e.Result.Assertions)
			} else {
				m.assertions = NewAssertionListModel(nil)
			}
			m.view = viewExecution
		}
	case "x":
		return m.askCancel(), nil
	}
	return m, nil
}

func (m AppModel) updateExecution(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		m.assertions = m.assertions.MoveDown()
	case "up":
		m.assertions = m.assertions.MoveUp()
	case "l":
		if len(m.selectedExecution.Logs) > 0 {
			m.logOffset = 0
			m.view = viewLogs
		} else {
			m.notice = "No logs for this execution."
		}
	case "x":
		return m.askCancel(), nil
	case "esc":
		m.view = viewHistory
	}
	return m, nil
}

// askCancel shows the cancel prompt, or a notice when nothing is running.
func (m AppModel) askCancel() AppModel {
	if m.cancelTarget() == "" {
		m.notice = "No running execution to cancel."
		return m
	}
	m.confirmAction = "cancel"
	return m
}

func (m AppModel) updateLogs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	maxOffset := len(m.selectedExecution.Logs) - 1
	if maxOffset < 0 {
		maxOffset = 0
	}
	switch msg.String() {
	case "down":
		if m.logOffset < maxOffset {
			m.logOffset++
		}
	case "up":
		if m.logOffset > 0 {
			m.logOffset--
		}
	case "pgup":
		m.logOffset -= m.visibleLogLines()
		if m.logOffset < 0 {
			m.logOffset = 0
		}
	case "pgdown":
		m.logOffset += m.visibleLogLines()
		if m.logOffset > maxOffset {
			m.logOffset = maxOffset
		}
	case "g":
		m.logOffset = 0
	case "G":
		m.logOffset = maxOffset
	case "esc":
		m.view = viewExecution
		m.logOffset = 0
	}
	return m, nil
}

// View renders the full TUI.
func (m AppModel) View() string {
	if m.view == viewLogs {
		return m.renderLogView()
	}
	if m.loading && m.confirmAction == "" {
		return "Loading pipelines...\n"
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress 'ctrl+r' to retry or 'q' to quit.\n", m.err)
	}

	header := m.renderHeader()
	switch m.view {
	case viewPipelines:
		return m.renderPipelinesView(header)
	case viewHistory:
		return m.renderHistoryView(header)
	case viewDashboard:
		return m.renderDashboardView(header)
	case viewExecution:
		return m.renderExecutionView(header)
	default:
		return header
	}
}

func (m AppModel) renderHeader() string {
	labels := make([]string, len(tabs))
	for i, t := range tabs {
		if t.view == m.view || (t.view == viewHistory && m.view == viewExecution) {
			labels[i] = activeTabStyle.Render(t.label)
		} else {
			labels[i] = mutedStyle.Render(t.label)
		}
	}
	return " " + titleStyle.Render("testdeck") + " | " + strings.Join(labels, "  ") + "\n" + separator
}

func (m AppModel) searchLine() string {
	if !m.searching {
		return ""
	}
	return " " + m.search.View() + "\n"
}

func (m AppModel) statusLine(fallback string) string {
	if m.notice != "" {
		return " " + m.notice + "\n"
	}
	return fallback
}

func (m AppModel) renderPipelinesView(header string) string {
	title := fmt.Sprintf(" Pipelines (%d of %d)\n", len(m.list.Pipelines()), len(m.pipelines))
	filters := mutedStyle.Render(pipelineFilterBar(m.pipelineCriteria))
	p := m.list.SelectedPipeline()
	status := ""
	if p.ID != "" {
		status = fmt.Sprintf(" %s · %s · created by %s\n", p.Name, typeLabel(p.Type), p.CreatedBy)
	}
	footer := " ↑/↓: navigate   /: search   t: type   s: status   enter: history   r: run   x: cancel   tab: view   q: quit\n"
	switch m.confirmAction {
	case "run":
		footer = fmt.Sprintf(" Run pipeline %s? [y/N] \n", p.Name)
	case "cancel":
		footer = fmt.Sprintf(" Cancel the running execution of %s? [y/N] \n", p.Name)
	}
	return header + title + filters + m.searchLine() + m.list.View() + "\n" + separator + m.statusLine(status) + separator + footer
}

func (m AppModel) renderHistoryView(header string) string {
	execs := m.history.Executions()
	title := fmt.Sprintf(" History (%d executions)\n", len(execs))
	filters := mutedStyle.Render(historyFilterBar(m.historyCriteria))
	s := executionlog.Summarize(execs)
	summary := fmt.Sprintf(" success rate %.0f%%   avg %s   passed %d   failed %d   skipped %d   running %d\n",
		s.SuccessRate*100,
		domain.FormatSeconds(int64(s.AverageDuration.Round(time.Second)/time.Second)),
		s.Passed, s.Failed, s.Skipped, s.RunningCount)
	footer := " ↑/↓: navigate   /: search   s: status   d: range   enter: details   x: cancel   tab: view   q: quit\n"
	if m.confirmAction == "cancel" {
		footer = fmt.Sprintf(" Cancel execution of %s? [y/N] \n", m.history.SelectedExecution().PipelineName)
	}
	return header + title + filters + m.searchLine() + m.history.View() + "\n" + separator + m.statusLine(summary) + separator + footer
}

func (m AppModel) renderDashboardView(header string) string {
	d := m.dashboard
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString(" Dashboard\n\n")
	sb.WriteString(fmt.Sprintf("   Pipelines         %d\n", d.Pipelines))
	sb.WriteString(fmt.Sprintf("   Executions today  %d\n", d.ExecutionsToday))
	sb.WriteString(fmt.Sprintf("   Success           %d\n", d.Success))
	sb.WriteString(fmt.Sprintf("   Failures          %d\n", d.Failures))
	sb.WriteString(fmt.Sprintf("   Running           %d\n\n", d.Running))
	sb.WriteString(" Recent executions\n")
	if len(d.Recent) == 0 {
		sb.WriteString("   none yet\n")
	}
	for _, e := range d.Recent {
		sb.WriteString(fmt.Sprintf("   %s %-28s %s\n", statusIcon(e.Status), truncate(e.PipelineName, 28), formatAge(e.StartedAt)))
	}
	sb.WriteString(separator)
	sb.WriteString(" tab: view   ctrl+r: refresh   q: quit\n")
	return sb.String()
}

func (m AppModel) renderExecutionView(header string) string {
	e := m.selectedExecution
	duration := "--"
	if e.Duration != nil {
		duration = domain.FormatSeconds(*e.Duration)
	}
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString(fmt.Sprintf(" %s %s  #%s\n", statusIcon(e.Status), titleStyle.Render(e.PipelineName), e.ID))
	sb.WriteString(fmt.Sprintf(" started %s by %s   duration %s\n", e.StartedAt.Local().Format("2006-01-02 15:04:05"), e.TriggeredBy, duration))
	sb.WriteString(" " + resultLine(e) + "\n")
	if e.Result != nil {
		for _, msg := range e.Result.Errors {
			sb.WriteString(" " + errorStyle.Render(msg) + "\n")
		}
	}
	sb.WriteString(separator)
	sb.WriteString(m.assertions.View())
	sb.WriteString("\n")
	sb.WriteString(separator)
	footer := " ↑/↓: navigate   l: logs   x: cancel   esc: back   q: quit\n"
	if m.confirmAction == "cancel" {
		footer = fmt.Sprintf(" Cancel execution of %s? [y/N] \n", e.PipelineName)
	}
	sb.WriteString(m.statusLine(""))
	sb.WriteString(footer)
	return sb.String()
}

// Run starts the Bubbletea program and blocks until the user quits.
func Run(backend Backend, user string) error {
	p := tea.NewProgram(NewAppModel(backend, user), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// visibleLogLines returns the number of log lines visible in the current terminal height.
func (m AppModel) visibleLogLines() int {
	lines := m.height - 4 // account for header, separator, and footer
	if lines < 10 {
		return 10
	}
	return lines
}

// renderLogView renders the fullscreen log viewer.
func (m AppModel) renderLogView() string {
	header := fmt.Sprintf(" testdeck  %s  [logs] #%s\n", m.selectedExecution.PipelineName, m.selectedExecution.ID)
	footer := " ↑/↓: scroll   PgUp/PgDn: page   g/G: top/bottom   esc: back\n"

	lines := m.selectedExecution.Logs
	start := m.logOffset
	if start >= len(lines) {
		start = len(lines) - 1
	}
	if start < 0 {
		start = 0
	}
	end := start + m.visibleLogLines()
	if end > len(lines) {
		end = len(lines)
	}

	body := strings.Join(lines[start:end], "\n")
	return header + separator + body + "\n" + separator + footer
}
