package services

import (
	"context"
	"errors"

	"cyberguard/models"
)

const (
	msgTimeout   = "Request timed out. Please try again."
	msgNetwork   = "Could not reach the analysis service. Check your connection and try again."
	msgMalformed = "The analysis service returned an unreadable response."
	msgCancelled = "Analysis cancelled."
)

// NoticeFor maps a submission error onto a toast. Superseded requests get no
// notice at all (ok is false).
func NoticeFor(ctx context.Context, err error) (n models.Notice, ok bool) {
	if err == nil {
		return models.Notice{}, false
	}
	if (ctx != nil && Superseded(ctx)) || errors.Is(err, ErrSuperseded) {
		return models.Notice{}, false
	}

	var ve *ValidationError
	var ae *APIError
	switch {
	case errors.As(err, &ve):
		return models.Notice{Level: models.NoticeWarning, Message: ve.Message}, true
	case errors.As(err, &ae):
		return models.Notice{Level: models.NoticeError, Message: ae.Error()}, true
	case errors.Is(err, ErrMalformedPayload):
		return models.Notice{Level: models.NoticeError, Message: msgMalformed}, true
	case errors.Is(err, context.DeadlineExceeded):
		return models.Notice{Level: models.NoticeError, Message: msgTimeout}, true
	case errors.Is(err, ErrCancelled) || (ctx != nil && errors.Is(context.Cause(ctx), ErrCancelled)):
		return models.Notice{Level: models.NoticeInfo, Message: msgCancelled}, true
	default:
		return models.Notice{Level: models.NoticeError, Message: msgNetwork}, true
	}
}

// Outcome classifies an error for the submissions metric.
func Outcome(ctx context.Context, err error) string {
	var ve *ValidationError
	var ae *APIError
	switch {
	case err == nil:
		return OutcomeSuccess
	case (ctx != nil && Superseded(ctx)) || errors.Is(err, ErrSuperseded):
		return OutcomeSuperseded
	case errors.As(err, &ve):
		return OutcomeValidation
	case errors.As(err, &ae):
		return OutcomeAPIError
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeNetwork
	}
}

// StatusLabel is the short connection indicator shown in page headers.
func StatusLabel(st *models.Status, err error) string {
	var ae *APIError
	switch {
	case err == nil && st != nil:
		return "✅ API Ready"
	case errors.As(err, &ae):
		return "⚠️ API Connection Issues"
	default:
		return "❌ API Unavailable"
	}
}
