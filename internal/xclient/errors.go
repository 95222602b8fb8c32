package xclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Platform error codes the bot cares about. These are the only place
// numeric codes appear; everything else goes through outcome
// classification on the typed error.
const (
	CodeAlreadyRetweeted  = 327
	CodeAlreadyFavorited  = 139
	CodeAlreadyRequested  = 160 // follow request already sent
	CodeRateLimitExceeded = 88
)

// ErrStreamAuth is returned when the streaming connection is rejected
// for authentication or abuse reasons. It is the only stream error the
// daemon treats as fatal.
var ErrStreamAuth = errors.New("stream connection rejected")

// APIError is a failed X API call. Code is the platform-defined numeric
// error code when the response carried one, and zero otherwise; callers
// classify outcomes on that optionality.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("x api status %d code %d: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("x api status %d: %s", e.StatusCode, e.Message)
}

// HasCode reports whether the error carried a structured platform code.
func (e *APIError) HasCode() bool { return e.Code != 0 }

// RateLimited reports an explicit platform rate-limit signal.
func (e *APIError) RateLimited() bool {
	return e.Code == CodeRateLimitExceeded ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == 420
}

// newAPIError builds an APIError from a non-2xx response, pulling the
// first structured code out of the v1.1 error body when present.
func newAPIError(resp *http.Response) *APIError {
	e := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(body) == 0 {
		return e
	}
	var raw struct {
		Errors []struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &raw); err != nil || len(raw.Errors) == 0 {
		e.Message = string(body)
		return e
	}
	e.Code = raw.Errors[0].Code
	e.Message = raw.Errors[0].Message
	return e
}
