package models

import (
	"fmt"
	"strings"
	"time"
)

// Reason values are stable, machine readable error codes
const (
	ReasonValidationFailed         = "validation_failed"
	ReasonInvalidID                = "invalid_id"
	ReasonUnauthorized             = "unauthorized"
	ReasonUnauthorizedOrigin       = "unauthorized_origin"
	ReasonForbidden                = "forbidden"
	ReasonNotFound                 = "not_found"
	ReasonRateLimited              = "rate_limited"
	ReasonBumpCooldown             = "bump_cooldown"
	ReasonInvalidInvite            = "invalid_invite"
	ReasonInviteVerificationFailed = "invite_verification_failed"
	ReasonTimeout                  = "timeout"
	ReasonInternal                 = "internal_error"
)

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Error MessageError `json:"error"`
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Reason  string       `json:"reason"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// BumpCooldownResponse is returned when a clan is bumped before its cooldown elapsed
type BumpCooldownResponse struct {
	Error             MessageError `json:"error"`
	HoursRemaining    int64        `json:"hoursRemaining"`
	NextBumpAvailable time.Time    `json:"nextBumpAvailable"`
}

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ValidationError collects every field error found in a request
type ValidationError []FieldError

func (v ValidationError) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "invalid request: " + strings.Join(parts, "; ")
}
