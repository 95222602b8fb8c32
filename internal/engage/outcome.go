package engage

import (
	"errors"

	"twitbot/internal/xclient"
)

// Outcome is the classified result of a remote action attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeAlreadyDone
	OutcomeRateLimited
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeAlreadyDone:
		return "already_done"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "failed"
	}
}

var duplicateCodes = map[int]bool{
	xclient.CodeAlreadyRetweeted: true,
	xclient.CodeAlreadyFavorited: true,
	xclient.CodeAlreadyRequested: true,
}

// Classify maps a failed remote call into an Outcome. This is the single
// place platform error codes are interpreted.
//
// An error without a structured per-action code usually means the
// platform rejected the call at the transport level, which in practice
// signals rate exhaustion. strict flips that default and treats such
// errors as plain failures instead.
func Classify(err error, strict bool) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	var apiErr *xclient.APIError
	if !errors.As(err, &apiErr) {
		if strict {
			return OutcomeFailed
		}
		return OutcomeRateLimited
	}
	if apiErr.RateLimited() {
		return OutcomeRateLimited
	}
	if duplicateCodes[apiErr.Code] {
		return OutcomeAlreadyDone
	}
	if !apiErr.HasCode() {
		if strict {
			return OutcomeFailed
		}
		return OutcomeRateLimited
	}
	return OutcomeFailed
}
