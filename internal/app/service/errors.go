package service

import "errors"

var (
	// ErrInvalidInput signals missing or malformed caller-supplied fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrLinkExpired signals that a TTL link was visited after expires_at.
	ErrLinkExpired = errors.New("link expired")
	// ErrVerificationFailed signals a payment signature mismatch.
	ErrVerificationFailed = errors.New("payment verification failed")
)
