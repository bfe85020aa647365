package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/waabox/testdeck/internal/domain"
)

func TestTypedErrors_CanBeDetectedWithErrorsIs(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{&domain.ValidationError{Field: "name", Reason: "must not be empty"}, domain.ErrValidation},
		{&domain.NotFoundError{Kind: "pipeline", ID: "42"}, domain.ErrNotFound},
		{&domain.ConflictError{Kind: "pipeline", ID: "42", Reason: "already running"}, domain.ErrConflict},
	}
	for _, c := range cases {
		wrapped := fmt.Errorf("registry: %w", c.err)
		if !errors.Is(wrapped, c.sentinel) {
			t.Errorf("expected errors.Is to detect %v in %v", c.sentinel, wrapped)
		}
	}
}

func TestTypedErrors_DoNotMatchOtherKinds(t *testing.T) {
	err := &domain.NotFoundError{Kind: "execution", ID: "x"}
	if errors.Is(err, domain.ErrConflict) {
		t.Error("not found error must not match ErrConflict")
	}
	var nf *domain.NotFoundError
	if !errors.As(fmt.Errorf("wrap: %w", err), &nf) || nf.ID != "x" {
		t.Error("expected errors.As to recover the NotFoundError")
	}
}
