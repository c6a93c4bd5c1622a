package errors

import (
	stderrs "errors"
	"testing"
)

func TestErrorTypeAndMethods(t *testing.T) {
	// nil *Error should render "<nil>"
	var e *Error
	if e.Error() != "<nil>" {
		t.Fatalf("nil *Error render = %q, want <nil>", e.Error())
	}

	// New / Newf
	e1 := New(ErrorCodeInvalidArgument, "bad stuff")
	if CodeOf(e1) != ErrorCodeInvalidArgument {
		t.Fatalf("CodeOf(New) = %v", CodeOf(e1))
	}
	e2 := Newf(ErrorCodeNotFound, "missing %d", 12)
	if got := e2.Error(); got != "missing 12" {
		t.Fatalf("Newf().Error = %q", got)
	}

	// Wrapf / Unwrap
	src := stderrs.New("root")
	e3 := Wrapf(src, ErrorCodeUnavailable, "unavailable %s", "here")
	if u := stderrs.Unwrap(e3); u == nil || u.Error() != "root" {
		t.Fatalf("Wrapf did not keep orig")
	}
	if want := "unavailable here: root"; e3.Error() != want {
		t.Fatalf("Wrapf().Error = %q, want %q", e3.Error(), want)
	}
	if CodeOf(e3) != ErrorCodeUnavailable {
		t.Fatalf("CodeOf(Wrapf) = %v", CodeOf(e3))
	}

	// As
	if got, ok := As(e3); !ok || got.Code() != ErrorCodeUnavailable {
		t.Fatalf("As() failed for our error")
	}
	if _, ok := As(src); ok {
		t.Fatalf("As() true for foreign error")
	}

	// Sugar and IsCode
	if !IsCode(NotFoundf("x"), ErrorCodeNotFound) ||
		!IsCode(InvalidArgf("x"), ErrorCodeInvalidArgument) ||
		!IsCode(Retryablef("x"), ErrorCodeRetryable) {
		t.Fatalf("sugar helpers code mismatch")
	}

	// Retryable
	if !Retryable(Retryablef("x")) {
		t.Fatalf("Retryable(Retryablef(...)) = false")
	}
	if Retryable(NotFoundf("x")) {
		t.Fatalf("Retryable(NotFoundf(...)) = true")
	}

	// Foreign error defaults to Unknown
	if CodeOf(src) != ErrorCodeUnknown {
		t.Fatalf("CodeOf(foreign) = %v, want Unknown", CodeOf(src))
	}
}
