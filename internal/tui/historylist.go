package tui

import (
	"fmt"
	"strings"

	"github.com/waabox/testdeck/internal/domain"
)

// ExecutionListModel is an immutable model for the history panel.
type ExecutionListModel struct {
	executions []domain.Execution
	cursor     int
}

// NewExecutionListModel creates a history list model.
func NewExecutionListModel(executions []domain.Execution) ExecutionListModel {
	return ExecutionListModel{executions: executions, cursor: 0}
}

// UpdateExecutions replaces the list contents, keeping the cursor on the same execution when it is still listed.
func (m ExecutionListModel) UpdateExecutions(executions []domain.Execution) ExecutionListModel {
	selected := m.SelectedExecution().ID
	m.executions = executions
	m.cursor = 0
	for i, e := range executions {
		if e.ID == selected {
			m.cursor = i
			break
		}
	}
	return m
}

// MoveDown returns a new model with the cursor moved down by one.
func (m ExecutionListModel) MoveDown() ExecutionListModel {
	if m.cursor < len(m.executions)-1 {
		m.cursor++
	}
	return m
}

// MoveUp returns a new model with the cursor moved up by one.
func (m ExecutionListModel) MoveUp() ExecutionListModel {
	if m.cursor > 0 {
		m.cursor--
	}
	return m
}

// Executions returns the listed executions.
func (m ExecutionListModel) Executions() []domain.Execution {
	return m.executions
}

// SelectedExecution returns the highlighted execution, or the zero value for an empty list.
func (m ExecutionListModel) SelectedExecution() domain.Execution {
	if len(m.executions) == 0 {
		return domain.Execution{}
	}
	return m.executions[m.cursor]
}

// View renders the history list with cursor indicators.
func (m ExecutionListModel) View() string {
	if len(m.executions) == 0 {
		return "No executions found."
	}
	var sb strings.Builder
	for i, e := range m.executions {
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		duration := "--"
		if e.Duration != nil {
			duration = domain.FormatSeconds(*e.Duration)
		}
		sb.WriteString(fmt.Sprintf("%s%s %-28s %-8s %-10s %s\n",
			prefix,
			statusIcon(e.Status),
			truncate(e.PipelineName, 28),
			duration,
			formatAge(e.StartedAt),
			truncate(e.TriggeredBy, 24),
		))
	}
	return sb.String()
}
