package query_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/query"
)

func TestPipelineCriteria_CombinesWithAnd(t *testing.T) {
	c := query.PipelineCriteria{Search: "tests", Type: string(domain.TypeAPICollection), Status: "failed"}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := c.Apply(samplePipelines())
	if !reflect.DeepEqual(pipelineIDs(got), []string{"3"}) {
		t.Errorf("unexpected match: %v", pipelineIDs(got))
	}
}

func TestPipelineCriteria_RejectsUnknownValues(t *testing.T) {
	if err := (query.PipelineCriteria{Type: "newman"}).Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for type, got %v", err)
	}
	if err := (query.PipelineCriteria{Status: "queued"}).Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for status, got %v", err)
	}
}

func TestExecutionCriteria_SortsNewestFirst(t *testing.T) {
	execs := sampleExecutions()
	execs[0], execs[2] = execs[2], execs[0]
	c := query.ExecutionCriteria{Search: "api", Status: query.All, Range: query.RangeSevenDays}
	got := c.Apply(execs, now)
	if !reflect.DeepEqual(executionIDs(got), []string{"1", "3"}) {
		t.Errorf("unexpected result: %v", executionIDs(got))
	}
	if err := (query.ExecutionCriteria{Range: "forever"}).Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
