package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNewCarriesCodeAndDefaultMessage(t *testing.T) {
	err := New(SubmissionNotFound)
	if err.Code != SubmissionNotFound {
		t.Fatalf("code: got %d, want %d", err.Code, SubmissionNotFound)
	}
	if err.Error() != SubmissionNotFound.Message() {
		t.Errorf("message: got %q, want default %q", err.Error(), SubmissionNotFound.Message())
	}
	if err.Stack == "" {
		t.Error("expected a captured stack")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(cause, TransportFailed)
	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if GetCode(err) != TransportFailed {
		t.Errorf("code: got %d, want %d", GetCode(err), TransportFailed)
	}
}

func TestWrapNilIsNil(t *testing.T) {
	if err := Wrap(nil, InternalError); err != nil {
		t.Errorf("wrapping nil should stay nil, got %v", err)
	}
}

func TestWrapRecodesExistingError(t *testing.T) {
	err := Wrap(New(ServerError), SubmissionCreateFailed)
	if GetCode(err) != SubmissionCreateFailed {
		t.Errorf("code: got %d, want %d", GetCode(err), SubmissionCreateFailed)
	}
}

func TestWithDetailAccumulates(t *testing.T) {
	err := New(StreamExhausted).
		WithDetail("submission_id", "sub-1").
		WithDetail("attempts", 9)
	if err.Details["submission_id"] != "sub-1" {
		t.Errorf("detail submission_id: got %v", err.Details["submission_id"])
	}
	if err.Details["attempts"] != 9 {
		t.Errorf("detail attempts: got %v", err.Details["attempts"])
	}
}

func TestGetCodeOnForeignError(t *testing.T) {
	if got := GetCode(fmt.Errorf("plain")); got != InternalError {
		t.Errorf("foreign error code: got %d, want %d", got, InternalError)
	}
	if got := GetCode(nil); got != Success {
		t.Errorf("nil error code: got %d, want %d", got, Success)
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := New(SubmissionNotCancelable)
	if !Is(err, SubmissionNotCancelable) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, SubmissionNotFound) {
		t.Error("Is should not match a different code")
	}
	if Is(nil, SubmissionNotFound) {
		t.Error("Is on nil should be false")
	}
}

func TestRetryable(t *testing.T) {
	retryable := []ErrorCode{TransportFailed, ConnectionClosed, Timeout, ServerError}
	for _, code := range retryable {
		if !code.Retryable() {
			t.Errorf("code %d should be retryable", code)
		}
	}
	fatal := []ErrorCode{ValidationFailed, Unauthorized, NotFound, SubmissionNotFound, DecodeFailed}
	for _, code := range fatal {
		if code.Retryable() {
			t.Errorf("code %d should not be retryable", code)
		}
	}
}

func TestFromHTTPStatus(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorCode
	}{
		{200, Success},
		{202, Success},
		{400, ValidationFailed},
		{422, ValidationFailed},
		{401, Unauthorized},
		{403, Forbidden},
		{404, NotFound},
		{408, Timeout},
		{500, ServerError},
		{503, ServerError},
	}
	for _, tc := range cases {
		if got := FromHTTPStatus(tc.status); got != tc.want {
			t.Errorf("status %d: got %d, want %d", tc.status, got, tc.want)
		}
	}
}
