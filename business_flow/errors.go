// Package businessflow contains the core business logic and use cases for click tracking workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Post-related errors
	ErrPostNotFound          = errors.New("post not found")
	ErrPostNotConfirmed      = errors.New("post is not confirmed yet")
	ErrPostUpdateRequired    = errors.New("at least one field must be provided for update")
	ErrPostURLRequired       = errors.New("post url is required")
	ErrTrackingIDRequired    = errors.New("tracking id is required")
	ErrTrackingIDExhausted   = errors.New("tracking id space exhausted")
	ErrInvalidReferralCode   = errors.New("referral code must be a valid UUID")
	ErrReferralCodeNeedsUser = errors.New("referral code requires a platform user id")

	// Report errors
	ErrInvalidReportLimit = errors.New("report limit must be between 1 and 1000")

	// Cache errors
	ErrCacheNotAvailable = errors.New("cache not available")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsPostNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound)
}

func IsPostNotConfirmed(err error) bool {
	return errors.Is(err, ErrPostNotConfirmed)
}

func IsPostUpdateRequired(err error) bool {
	return errors.Is(err, ErrPostUpdateRequired)
}

func IsPostURLRequired(err error) bool {
	return errors.Is(err, ErrPostURLRequired)
}

func IsTrackingIDRequired(err error) bool {
	return errors.Is(err, ErrTrackingIDRequired)
}

func IsTrackingIDExhausted(err error) bool {
	return errors.Is(err, ErrTrackingIDExhausted)
}

func IsInvalidReferralCode(err error) bool {
	return errors.Is(err, ErrInvalidReferralCode)
}

func IsReferralCodeNeedsUser(err error) bool {
	return errors.Is(err, ErrReferralCodeNeedsUser)
}

func IsInvalidReportLimit(err error) bool {
	return errors.Is(err, ErrInvalidReportLimit)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}
