package tui_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/tui"
)

func executionWithLogs(lines int) domain.Execution {
	d := int64(120)
	logs := make([]string, lines)
	for i := range logs {
		logs[i] = fmt.Sprintf("log line %03d", i)
	}
	completed := time.Now()
	return domain.Execution{
		ID:           "e-1",
		PipelineID:   "p-1",
		PipelineName: "Payments API",
		Status:       domain.StatusFailed,
		StartedAt:    completed.Add(-2 * time.Minute),
		CompletedAt:  &completed,
		Duration:     &d,
		Logs:         logs,
		TriggeredBy:  "john@testflow.com",
		Result: &domain.ExecutionResult{
			Passed: 44, Failed: 1, Total: 45,
			Errors:     []string{"1 assertion failed"},
			Assertions: []domain.AssertionResult{{Name: "Status code is 200", Passed: false, Error: "got 500"}},
		},
	}
}

func openExecution(t *testing.T, e domain.Execution) tui.AppModel {
	t.Helper()
	m := loaded(t, &fakeBackend{pipelines: samplePipelines(), executions: []domain.Execution{e}})
	return send(t, m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestApp_ExecutionDetail_ShowsResult(t *testing.T) {
	view := openExecution(t, executionWithLogs(3)).View()

	for _, want := range []string{"Payments API", "44 passed, 1 failed, 0 skipped (45 total)", "1 assertion failed", "got 500", "duration 2m 0s"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in detail view, got:\n%s", want, view)
		}
	}

	back := send(t, openExecution(t, executionWithLogs(3)), tea.KeyMsg{Type: tea.KeyEsc})
	if !strings.Contains(back.View(), "History (1 executions)") {
		t.Errorf("expected esc to return to history, got:\n%s", back.View())
	}
}

func TestApp_LogKey_RendersLogContent(t *testing.T) {
	m := openExecution(t, executionWithLogs(3))

	view := send(t, m, key("l")).View()

	if !strings.Contains(view, "[logs]") || !strings.Contains(view, "log line 000") || !strings.Contains(view, "log line 002") {
		t.Errorf("expected log content in view, got:\n%s", view)
	}
}

func TestApp_LogKey_WithoutLogs_ShowsNotice(t *testing.T) {
	e := executionWithLogs(0)
	e.Logs = nil
	view := send(t, openExecution(t, e), key("l")).View()

	if !strings.Contains(view, "No logs for this execution.") {
		t.Errorf("expected notice, got:\n%s", view)
	}
}

func TestApp_LogView_Scrolls(t *testing.T) {
	m := send(t, openExecution(t, executionWithLogs(50)), key("l"))

	bottom := send(t, m, key("G")).View()
	if !strings.Contains(bottom, "log line 049") || strings.Contains(bottom, "log line 000") {
		t.Errorf("expected G to jump to the last line, got:\n%s", bottom)
	}

	top := send(t, m, key("G"), key("g")).View()
	if !strings.Contains(top, "log line 000") {
		t.Errorf("expected g to return to the top, got:\n%s", top)
	}

	down := send(t, m, tea.KeyMsg{Type: tea.KeyDown}).View()
	if strings.Contains(down, "log line 000") || !strings.Contains(down, "log line 001") {
		t.Errorf("expected down to scroll by one line, got:\n%s", down)
	}

	exit := send(t, m, tea.KeyMsg{Type: tea.KeyEsc}).View()
	if strings.Contains(exit, "[logs]") {
		t.Errorf("expected esc to leave the log view, got:\n%s", exit)
	}
}
