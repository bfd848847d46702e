package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrStorageFailure       = errors.New("storage failure")
	ErrDeliveryFailure      = errors.New("email delivery failed")
	ErrInvalidOrExpired     = errors.New("invalid or expired code")
	ErrRateLimited          = errors.New("rate limited")
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrGenerationFailed     = errors.New("generation failed")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrProfileNotFound      = errors.New("profile not found")
)

func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}

// RateLimitError indica cuanto falta para poder pedir otro codigo.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry in %s", ErrRateLimited, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
