package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(New(KindNotFound, "gone")); got != KindNotFound {
		t.Errorf("KindOf = %v, want not_found", got)
	}

	// Kind survives wrapping by callers further up.
	wrapped := fmt.Errorf("loading entry: %w", New(KindValidation, "bad date"))
	if got := KindOf(wrapped); got != KindValidation {
		t.Errorf("KindOf(wrapped) = %v, want validation", got)
	}

	if got := KindOf(errors.New("raw")); got != KindInternal {
		t.Errorf("KindOf(raw) = %v, want internal", got)
	}
}

func TestMessageOfMasksUnclassified(t *testing.T) {
	if got := MessageOf(New(KindDuplicate, "already there")); got != "already there" {
		t.Errorf("MessageOf = %q", got)
	}
	if got := MessageOf(errors.New("pq: connection refused")); got != "Something went wrong. Please try again." {
		t.Errorf("raw error leaked: %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindInternal, "save failed", cause)
	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	if err.Error() != "save failed: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindAuthRequired, http.StatusUnauthorized},
		{KindValidation, http.StatusBadRequest},
		{KindDuplicate, http.StatusConflict},
		{KindNotFound, http.StatusNotFound},
		{KindUploadFailed, http.StatusInternalServerError},
		{KindDeleteFailed, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(New(tt.kind, "x")); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
	if got := HTTPStatus(errors.New("raw")); got != http.StatusInternalServerError {
		t.Errorf("HTTPStatus(raw) = %d", got)
	}
}
