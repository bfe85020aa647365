package query_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/query"
)

var now = time.Date(2024, 1, 20, 15, 0, 0, 0, time.UTC)

func ts(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func samplePipelines() []domain.Pipeline {
	return []domain.Pipeline{
		{ID: "1", Name: "API Tests Production", Description: "Complete API test suite", Type: domain.TypeAPICollection, Status: domain.StatusSuccess, LastRun: ts(-5 * time.Minute)},
		{ID: "2", Name: "Mobile App Regression", Description: "Full regression test suite", Type: domain.TypeMobileSuite, Status: domain.StatusRunning, LastRun: ts(-time.Hour)},
		{ID: "3", Name: "Payment Gateway Tests", Type: domain.TypeAPICollection, Status: domain.StatusFailed, LastRun: ts(-10 * 24 * time.Hour)},
		{ID: "4", Name: "iOS App Smoke Test", Type: domain.TypeMobileSuite},
	}
}

func sampleExecutions() []domain.Execution {
	return []domain.Execution{
		{ID: "1", PipelineName: "API Tests Production", Status: domain.StatusSuccess, StartedAt: now.Add(-4 * time.Hour)},
		{ID: "2", PipelineName: "Mobile App Regression", Status: domain.StatusFailed, StartedAt: now.Add(-20 * time.Hour)},
		{ID: "3", PipelineName: "API Tests Production", Status: domain.StatusSuccess, StartedAt: now.Add(-3 * 24 * time.Hour)},
		{ID: "4", PipelineName: "Payment Gateway Tests", Status: domain.StatusCancelled, StartedAt: now.Add(-12 * 24 * time.Hour)},
		{ID: "5", PipelineName: "Imported", Status: domain.StatusFailed},
	}
}

func pipelineIDs(ps []domain.Pipeline) []string {
	out := []string{}
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func executionIDs(es []domain.Execution) []string {
	out := []string{}
	for _, e := range es {
		out = append(out, e.ID)
	}
	return out
}

func TestSearch_IsCaseInsensitiveOverFields(t *testing.T) {
	got := query.Search(samplePipelines(), "REGRESSION", query.PipelineSearchFields)
	if !reflect.DeepEqual(pipelineIDs(got), []string{"2"}) {
		t.Errorf("unexpected match: %v", pipelineIDs(got))
	}
	got = query.Search(samplePipelines(), "suite", query.PipelineSearchFields)
	if !reflect.DeepEqual(pipelineIDs(got), []string{"1", "2"}) {
		t.Errorf("expected description match, got %v", pipelineIDs(got))
	}
}

func TestSearch_EmptyTextMatchesEverything(t *testing.T) {
	got := query.Search(samplePipelines(), "", query.PipelineSearchFields)
	if len(got) != 4 {
		t.Errorf("expected all pipelines, got %v", pipelineIDs(got))
	}
}

func TestByStatus_AllIsPassThrough(t *testing.T) {
	all := query.ByStatus(sampleExecutions(), query.All, query.ExecutionStatusOf)
	if len(all) != 5 {
		t.Errorf("expected pass-through, got %v", executionIDs(all))
	}
	failed := query.ByStatus(sampleExecutions(), "failed", query.ExecutionStatusOf)
	if !reflect.DeepEqual(executionIDs(failed), []string{"2", "5"}) {
		t.Errorf("unexpected failed set: %v", executionIDs(failed))
	}
}

func TestByStatus_NeverRunPipelineOnlyMatchesAll(t *testing.T) {
	for _, s := range []string{"idle", "running", "success", "failed", "cancelled"} {
		for _, p := range query.ByStatus(samplePipelines(), s, query.PipelineStatusOf) {
			if p.ID == "4" {
				t.Errorf("never-run pipeline matched status %s", s)
			}
		}
	}
}

func TestByType_FiltersPipelines(t *testing.T) {
	got := query.ByType(samplePipelines(), string(domain.TypeMobileSuite))
	if !reflect.DeepEqual(pipelineIDs(got), []string{"2", "4"}) {
		t.Errorf("unexpected match: %v", pipelineIDs(got))
	}
	if len(query.ByType(samplePipelines(), query.All)) != 4 {
		t.Error("expected all to pass through")
	}
}

func TestByDateRange_ExcludesUntimedItems(t *testing.T) {
	cases := map[query.DateRange][]string{
		query.RangeToday:      {"1"},
		query.RangeSevenDays:  {"1", "2", "3"},
		query.RangeThirtyDays: {"1", "2", "3", "4"},
		query.RangeAll:        {"1", "2", "3", "4", "5"},
	}
	for r, want := range cases {
		got := query.ByDateRange(sampleExecutions(), r, now, query.ExecutionStartedAt)
		if !reflect.DeepEqual(executionIDs(got), want) {
			t.Errorf("%s: expected %v, got %v", r, want, executionIDs(got))
		}
	}
	pipelines := query.ByDateRange(samplePipelines(), query.RangeSevenDays, now, query.PipelineLastRun)
	if !reflect.DeepEqual(pipelineIDs(pipelines), []string{"1", "2"}) {
		t.Errorf("expected never-run pipeline to be excluded, got %v", pipelineIDs(pipelines))
	}
}

func TestParseDateRange(t *testing.T) {
	if r, err := query.ParseDateRange(""); err != nil || r != query.RangeAll {
		t.Errorf("expected empty to mean all, got %q %v", r, err)
	}
	if r, err := query.ParseDateRange("7days"); err != nil || r != query.RangeSevenDays {
		t.Errorf("unexpected parse: %q %v", r, err)
	}
	if _, err := query.ParseDateRange("yesterday"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestFilters_Commute(t *testing.T) {
	execs := sampleExecutions()
	searches := []string{"", "api", "mobile", "zzz"}
	statuses := []string{query.All, "success", "failed", "cancelled", "running"}
	ranges := []query.DateRange{query.RangeToday, query.RangeSevenDays, query.RangeAll}

	for _, s := range searches {
		for _, st := range statuses {
			a := query.ByStatus(query.Search(execs, s, query.ExecutionSearchFields), st, query.ExecutionStatusOf)
			b := query.Search(query.ByStatus(execs, st, query.ExecutionStatusOf), s, query.ExecutionSearchFields)
			if !reflect.DeepEqual(executionIDs(a), executionIDs(b)) {
				t.Errorf("search %q / status %q do not commute: %v vs %v", s, st, executionIDs(a), executionIDs(b))
			}
			for _, r := range ranges {
				c := query.ByDateRange(a, r, now, query.ExecutionStartedAt)
				d := query.ByStatus(query.Search(query.ByDateRange(execs, r, now, query.ExecutionStartedAt), s, query.ExecutionSearchFields), st, query.ExecutionStatusOf)
				if !reflect.DeepEqual(executionIDs(c), executionIDs(d)) {
					t.Errorf("range %q does not commute with %q/%q: %v vs %v", r, s, st, executionIDs(c), executionIDs(d))
				}
			}
		}
	}

	pipelines := samplePipelines()
	for _, s := range searches {
		for _, typ := range []string{query.All, string(domain.TypeAPICollection), string(domain.TypeMobileSuite)} {
			a := query.ByType(query.Search(pipelines, s, query.PipelineSearchFields), typ)
			b := query.Search(query.ByType(pipelines, typ), s, query.PipelineSearchFields)
			if !reflect.DeepEqual(pipelineIDs(a), pipelineIDs(b)) {
				t.Errorf("search %q / type %q do not commute", s, typ)
			}
		}
	}
}
