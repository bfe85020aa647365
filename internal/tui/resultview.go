package tui

import (
	"fmt"
	"strings"

	"github.com/waabox/testdeck/internal/domain"
)

// AssertionListModel is an immutable model for the assertions of one execution.
type AssertionListModel struct {
	assertions []domain.AssertionResult
	cursor     int
}

// NewAssertionListModel creates an assertion list model.
func NewAssertionListModel(assertions []domain.AssertionResult) AssertionListModel {
	return AssertionListModel{assertions: assertions, cursor: 0}
}

// MoveDown returns a new model with the cursor moved down by one.
func (m AssertionListModel) MoveDown() AssertionListModel {
	if m.cursor < len(m.assertions)-1 {
		m.cursor++
	}
	return m
}

// MoveUp returns a new model with the cursor moved up by one.
func (m AssertionListModel) MoveUp() AssertionListModel {
	if m.cursor > 0 {
		m.cursor--
	}
	return m
}

// Cursor returns the current cursor position.
func (m AssertionListModel) Cursor() int {
	return m.cursor
}

// View renders the assertions; failed ones show their error underneath.
func (m AssertionListModel) View() string {
	if len(m.assertions) == 0 {
		return "No assertions recorded."
	}
	var sb strings.Builder
	for i, a := range m.assertions {
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		status := domain.StatusSuccess
		if !a.Passed {
			status = domain.StatusFailed
		}
		sb.WriteString(fmt.Sprintf("%s%s %s\n", prefix, statusIcon(status), truncate(a.Name, 50)))
		if !a.Passed && a.Error != "" {
			sb.WriteString("      " + errorStyle.Render(truncate(a.Error, 60)) + "\n")
		}
	}
	return sb.String()
}

// resultLine summarizes the counts of a result, or explains why there is none.
func resultLine(e domain.Execution) string {
	if e.Result == nil {
		if e.Status == domain.StatusRunning {
			return "running..."
		}
		return "no result"
	}
	r := e.Result
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)", r.Passed, r.Failed, r.Skipped, r.Total)
}
