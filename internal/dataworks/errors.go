package dataworks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alibabacloud-go/tea/tea"
)

// ErrAlreadyExists reports that a node or task with the same name is
// already registered in the workspace. Callers treat it as a skip, not
// a failure.
var ErrAlreadyExists = errors.New("already exists in workspace")

// apiError carries the vendor operation name alongside the cause so
// per-table failure logs say which call broke.
type apiError struct {
	op  string
	err error
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *apiError) Unwrap() error {
	return e.err
}

// wrapAPIError normalizes a raw SDK error. Duplicate-name vendor codes
// collapse into ErrAlreadyExists so the orchestrator can skip them.
func wrapAPIError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isAlreadyExists(err) {
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	return &apiError{op: op, err: err}
}

// isAlreadyExists matches the duplicate-name responses DataWorks
// returns for nodes and files. The vendor is not consistent about the
// code, so the message is checked too.
func isAlreadyExists(err error) bool {
	var sdkErr *tea.SDKError
	if errors.As(err, &sdkErr) {
		code := tea.StringValue(sdkErr.Code)
		if strings.Contains(code, "AlreadyExists") || strings.Contains(code, "Duplicate") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// isRetryable reports whether an error is worth retrying: server-side
// 5xx responses and throttling. Business rejections are permanent.
func isRetryable(err error) bool {
	var sdkErr *tea.SDKError
	if !errors.As(err, &sdkErr) {
		return false
	}
	if code := tea.StringValue(sdkErr.Code); strings.Contains(code, "Throttling") {
		return true
	}
	return tea.IntValue(sdkErr.StatusCode) >= 500
}
