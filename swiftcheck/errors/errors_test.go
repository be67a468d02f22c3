package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *CheckError
		wantStr string
	}{
		{
			name: "basic error",
			err: &CheckError{
				Code:    "TEST_ERROR",
				Message: "test message",
			},
			wantStr: "[TEST_ERROR] test message",
		},
		{
			name: "error with cause",
			err: &CheckError{
				Code:    "TEST_ERROR",
				Message: "test message",
				Cause:   errors.New("underlying error"),
			},
			wantStr: "[TEST_ERROR] test message: underlying error",
		},
		{
			name: "error with details",
			err: &CheckError{
				Code:    "TEST_ERROR",
				Message: "test message",
				Details: map[string]interface{}{"key": "value"},
			},
			wantStr: "details",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if !strings.Contains(got, tt.wantStr) {
				t.Errorf("Error() = %q, want to contain %q", got, tt.wantStr)
			}
		})
	}
}

func TestCheckError_WithCause(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrStatEmpty.WithCause(cause)

	if err.Cause != cause {
		t.Errorf("WithCause() cause = %v, want %v", err.Cause, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("WithCause() should allow errors.Is to work")
	}
}

func TestCheckError_WithDetail(t *testing.T) {
	err := ErrSegmentETagMissing.WithDetail("segment", "files_segments/data.bin/0/00000001")

	if err.Details["segment"] != "files_segments/data.bin/0/00000001" {
		t.Errorf("WithDetail() detail = %v, want segment name", err.Details["segment"])
	}

	// The sentinel must stay untouched.
	if len(ErrSegmentETagMissing.Details) != 0 {
		t.Error("WithDetail() mutated the sentinel error")
	}
}

func TestGetErrorCode(t *testing.T) {
	if code := GetErrorCode(ErrSegmentSizeUnknown); code != "SEGMENT_SIZE_UNKNOWN" {
		t.Errorf("GetErrorCode() = %q, want SEGMENT_SIZE_UNKNOWN", code)
	}
	if code := GetErrorCode(errors.New("plain")); code != "" {
		t.Errorf("GetErrorCode() = %q for a plain error, want empty", code)
	}
	if IsCheckError(errors.New("plain")) {
		t.Error("IsCheckError() = true for a plain error")
	}
	if !IsCheckError(ErrETagMissing) {
		t.Error("IsCheckError() = false for a CheckError")
	}
}
