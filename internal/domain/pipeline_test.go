package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/waabox/testdeck/internal/domain"
)

func TestPipelineDefinition_ValidAPICollectionDefaultsIterations(t *testing.T) {
	def := domain.PipelineDefinition{
		Name:   "API Tests",
		Type:   domain.TypeAPICollection,
		Config: domain.PipelineConfig{APICollection: &domain.APICollectionConfig{Collection: "c.json"}},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Config.APICollection.Iterations != 1 {
		t.Errorf("expected default iterations 1, got %d", def.Config.APICollection.Iterations)
	}
}

func TestPipelineDefinition_RejectsInvalidInput(t *testing.T) {
	mobile := &domain.MobileSuiteConfig{ArtifactPath: "/apps/app.apk", TestSuite: "regression", Device: "Pixel_5", Platform: domain.PlatformAndroid}
	cases := map[string]domain.PipelineDefinition{
		"empty name":         {Name: "  ", Type: domain.TypeAPICollection, Config: domain.PipelineConfig{APICollection: &domain.APICollectionConfig{Collection: "c.json"}}},
		"unknown type":       {Name: "x", Type: "newman"},
		"missing collection": {Name: "x", Type: domain.TypeAPICollection, Config: domain.PipelineConfig{APICollection: &domain.APICollectionConfig{}}},
		"no payload":         {Name: "x", Type: domain.TypeAPICollection},
		"mismatched payload": {Name: "x", Type: domain.TypeAPICollection, Config: domain.PipelineConfig{MobileSuite: mobile}},
		"negative iteration": {Name: "x", Type: domain.TypeAPICollection, Config: domain.PipelineConfig{APICollection: &domain.APICollectionConfig{Collection: "c.json", Iterations: -1}}},
		"bad platform":       {Name: "x", Type: domain.TypeMobileSuite, Config: domain.PipelineConfig{MobileSuite: &domain.MobileSuiteConfig{ArtifactPath: "a", TestSuite: "s", Device: "d", Platform: "windows"}}},
		"missing device":     {Name: "x", Type: domain.TypeMobileSuite, Config: domain.PipelineConfig{MobileSuite: &domain.MobileSuiteConfig{ArtifactPath: "a", TestSuite: "s", Platform: domain.PlatformIOS}}},
	}
	for name, def := range cases {
		err := def.Validate()
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestPipelinePatch_ApplyDoesNotModifyOriginal(t *testing.T) {
	p := domain.Pipeline{
		ID:     "1",
		Name:   "API Tests",
		Type:   domain.TypeAPICollection,
		Config: domain.PipelineConfig{APICollection: &domain.APICollectionConfig{Collection: "c.json", Iterations: 1, Variables: map[string]string{"env": "prod"}}},
	}
	name := "Renamed"
	cfg := domain.PipelineConfig{APICollection: &domain.APICollectionConfig{Collection: "d.json"}}
	out, err := domain.PipelinePatch{Name: &name, Config: &cfg}.Apply(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name != "Renamed" || out.Config.APICollection.Collection != "d.json" {
		t.Errorf("patch not applied: %+v", out)
	}
	if p.Name != "API Tests" || p.Config.APICollection.Collection != "c.json" {
		t.Errorf("original pipeline modified: %+v", p)
	}
}

func TestPipelinePatch_TypeChangeWithoutConfigFails(t *testing.T) {
	p := domain.Pipeline{
		Name:   "API Tests",
		Type:   domain.TypeAPICollection,
		Config: domain.PipelineConfig{APICollection: &domain.APICollectionConfig{Collection: "c.json"}},
	}
	typ := domain.TypeMobileSuite
	if _, err := (domain.PipelinePatch{Type: &typ}).Apply(p); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestExecutionResult_TotalMustMatch(t *testing.T) {
	ok := domain.ExecutionResult{Passed: 45, Skipped: 2, Total: 47}
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if ok.Status() != domain.StatusSuccess {
		t.Errorf("expected success, got %s", ok.Status())
	}
	bad := domain.ExecutionResult{Passed: 1, Failed: 1, Total: 3}
	if err := bad.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	failed := domain.ExecutionResult{Passed: 28, Failed: 5, Total: 33}
	if failed.Status() != domain.StatusFailed {
		t.Errorf("expected failed, got %s", failed.Status())
	}
}

func TestOutcome_RequiresResultUnlessCancelled(t *testing.T) {
	if err := (domain.Outcome{}).Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	cancel := domain.Outcome{Cancelled: true}
	if err := cancel.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if cancel.Status() != domain.StatusCancelled {
		t.Errorf("expected cancelled, got %s", cancel.Status())
	}
}

func TestDurationSeconds_RoundsToWholeSeconds(t *testing.T) {
	start := time.Date(2024, 1, 20, 10, 30, 0, 0, time.UTC)
	if got := domain.DurationSeconds(start, start.Add(120*time.Second+600*time.Millisecond)); got != 121 {
		t.Errorf("expected 121, got %d", got)
	}
	if got := domain.DurationSeconds(start, start.Add(-time.Second)); got != 0 {
		t.Errorf("expected 0 for clock skew, got %d", got)
	}
}

func TestNotificationSettings_SlackNeedsWebhook(t *testing.T) {
	s := domain.DefaultNotificationSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}
	s.SlackEnabled = true
	if err := s.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	s.SlackWebhookURL = "https://hooks.slack.com/services/T000/B000/XXX"
	if err := s.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
