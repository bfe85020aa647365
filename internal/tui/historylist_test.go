package tui_test

import (
	"strings"
	"testing"
	"time"

	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/tui"
)

func TestExecutionListModel_RendersDurations(t *testing.T) {
	d := int64(150)
	m := tui.NewExecutionListModel([]domain.Execution{
		{ID: "e-1", PipelineName: "Payments API", Status: domain.StatusFailed, StartedAt: time.Now().Add(-time.Hour), Duration: &d, TriggeredBy: "john@testflow.com"},
		{ID: "e-2", PipelineName: "Android smoke", Status: domain.StatusRunning, StartedAt: time.Now()},
	})
	view := m.View()

	if !strings.Contains(view, "2m 30s") || !strings.Contains(view, "john@testflow.com") {
		t.Errorf("expected duration and trigger, got:\n%s", view)
	}
	if !strings.Contains(view, "--") {
		t.Errorf("expected placeholder duration for running execution, got:\n%s", view)
	}
	if !strings.HasPrefix(view, "> ") {
		t.Errorf("expected cursor on first row, got:\n%s", view)
	}
}

func TestExecutionListModel_Navigation(t *testing.T) {
	m := tui.NewExecutionListModel([]domain.Execution{{ID: "e-1"}, {ID: "e-2"}})

	m = m.MoveDown()
	if m.SelectedExecution().ID != "e-2" {
		t.Errorf("expected e-2, got %s", m.SelectedExecution().ID)
	}
	m = m.MoveDown()
	if m.SelectedExecution().ID != "e-2" {
		t.Errorf("expected cursor to stop at the last row, got %s", m.SelectedExecution().ID)
	}
	m = m.UpdateExecutions([]domain.Execution{{ID: "e-0"}, {ID: "e-1"}, {ID: "e-2"}})
	if m.SelectedExecution().ID != "e-2" {
		t.Errorf("expected selection to follow e-2, got %s", m.SelectedExecution().ID)
	}
}

func TestExecutionListModel_Empty(t *testing.T) {
	if got := tui.NewExecutionListModel(nil).View(); got != "No executions found." {
		t.Errorf("unexpected empty view %q", got)
	}
}
