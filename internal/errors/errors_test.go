package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("underlying error")

	err := New(SecurityViolation, "forbidden call: eval", cause)

	if err.Code != SecurityViolation {
		t.Errorf("Code = %v, want %v", err.Code, SecurityViolation)
	}
	if err.Message != "forbidden call: eval" {
		t.Errorf("Message = %q, want %q", err.Message, "forbidden call: eval")
	}
	if len(err.SuggestedFixes) != 1 {
		t.Errorf("len(SuggestedFixes) = %d, want 1", len(err.SuggestedFixes))
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      ExecutionError,
			message:   "runtime error",
			cause:     errors.New("ZeroDivisionError: division by zero"),
			wantParts: []string{"EXECUTION_ERROR", "runtime error", "ZeroDivisionError"},
		},
		{
			name:      "without cause",
			code:      TimeoutExceeded,
			message:   "execution timed out after 2s",
			cause:     nil,
			wantParts: []string{"TIMEOUT_EXCEEDED", "timed out after 2s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}

	errNoCause := Newf(RecursionOverflow, "maximum recursion depth %d exceeded", 1000)
	if errNoCause.Unwrap() != nil {
		t.Errorf("Unwrap() on error without cause should return nil")
	}
}

func TestCode(t *testing.T) {
	wrapped := fmt.Errorf("run failed: %w", Newf(TimeoutExceeded, "too slow"))

	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), InternalError},
		{"direct", Newf(SecurityViolation, "import"), SecurityViolation},
		{"wrapped", wrapped, TimeoutExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFrom(t *testing.T) {
	inner := Newf(RecursionOverflow, "deep").AtLine(4)
	if got := From(fmt.Errorf("ctx: %w", inner)); got != inner {
		t.Errorf("From(wrapped) = %v, want %v", got, inner)
	}
	if got := From(errors.New("plain")); got != nil {
		t.Errorf("From(plain) = %v, want nil", got)
	}
	if got := From(nil); got != nil {
		t.Errorf("From(nil) = %v, want nil", got)
	}
}

func TestIsUserVisible(t *testing.T) {
	visible := []ErrorCode{SecurityViolation, TimeoutExceeded, RecursionOverflow}
	absorbed := []ErrorCode{ExecutionError, TracingUnavailable, ClassifierUnavailable, ExplainerUnavailable, InternalError}

	for _, code := range visible {
		if !IsUserVisible(Newf(code, "x")) {
			t.Errorf("%s should be user visible", code)
		}
	}
	for _, code := range absorbed {
		if IsUserVisible(Newf(code, "x")) {
			t.Errorf("%s should be absorbed", code)
		}
	}
	if IsUserVisible(nil) {
		t.Error("nil error should not be user visible")
	}
}

func TestWithDetailsAndLine(t *testing.T) {
	err := Newf(SecurityViolation, "forbidden import").AtLine(3).WithDetails(map[string]string{"module": "os"})

	if err.Line != 3 {
		t.Errorf("Line = %d, want 3", err.Line)
	}
	if err.Details == nil {
		t.Error("Details should be set")
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		ParseFailure,
		SecurityViolation,
		TimeoutExceeded,
		RecursionOverflow,
		ExecutionError,
		TracingUnavailable,
		ClassifierUnavailable,
		ExplainerUnavailable,
		ConfigInvalid,
		InternalError,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %v", code)
		}
		seen[code] = true
		if string(code) == "" {
			t.Error("Error code should not be empty")
		}
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	tests := []struct {
		code    ErrorCode
		wantLen int
	}{
		{SecurityViolation, 1},
		{TimeoutExceeded, 2},
		{RecursionOverflow, 1},
		{ConfigInvalid, 1},
		{ExecutionError, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := len(GetSuggestedFixes(tt.code)); got != tt.wantLen {
				t.Errorf("GetSuggestedFixes(%v) len = %d, want %d", tt.code, got, tt.wantLen)
			}
		})
	}
}
