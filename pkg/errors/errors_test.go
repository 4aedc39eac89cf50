package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInvalidGraph, cause, "failed to load")

	if err.Code != ErrCodeInvalidGraph {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidGraph)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	want := "INVALID_GRAPH: failed to load: underlying error"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeInfeasible, "x"), ErrCodeInfeasible, true},
		{"different code", New(ErrCodeInfeasible, "x"), ErrCodeInvalidInput, false},
		{"plain error", errors.New("x"), ErrCodeInfeasible, false},
		{"nil", nil, ErrCodeInfeasible, false},
		{
			name:     "wrapped twice",
			err:      Wrap(ErrCodeInternal, New(ErrCodeInvalidGraph, "inner"), "outer"),
			code:     ErrCodeInternal,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCodeAndUserMessage(t *testing.T) {
	err := New(ErrCodeGraphLookupMiss, "no IPIN at (3,4)")
	if got := GetCode(err); got != ErrCodeGraphLookupMiss {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeGraphLookupMiss)
	}
	if got := UserMessage(err); got != "no IPIN at (3,4)" {
		t.Errorf("UserMessage() = %v", got)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %v, want plain", got)
	}
}

func TestInvariantRecover(t *testing.T) {
	run := func() (err error) {
		defer RecoverInvariant(&err)
		Invariant("node %d broken", 7)
		return nil
	}
	err := run()
	if !Is(err, ErrCodeInternalInvariant) {
		t.Fatalf("err = %v, want INTERNAL_INVARIANT", err)
	}
	if UserMessage(err) != "node 7 broken" {
		t.Errorf("UserMessage() = %q", UserMessage(err))
	}
}

func TestRecoverInvariantRepanics(t *testing.T) {
	defer func() {
		if r := recover(); r != "boom" {
			t.Errorf("recover() = %v, want boom", r)
		}
	}()
	func() {
		var err error
		defer RecoverInvariant(&err)
		panic("boom")
	}()
}

func TestSinkErrorCode(t *testing.T) {
	tests := []struct {
		reason string
		want   Code
	}{
		{"unreachable", ErrCodeUnreachableSink},
		{"budget", ErrCodeBudgetExhausted},
		{"lookup", ErrCodeGraphLookupMiss},
		{"congested", ErrCodeInfeasible},
	}
	for _, tt := range tests {
		e := &SinkError{Net: "n1", Sink: 2, Reason: tt.reason}
		if got := e.Code(); got != tt.want {
			t.Errorf("Code(%s) = %v, want %v", tt.reason, got, tt.want)
		}
	}
	e := &SinkError{Net: "n1", Sink: 2, Reason: "unreachable"}
	if e.Error() != "net n1: sink 2 unreachable" {
		t.Errorf("Error() = %q", e.Error())
	}
}
