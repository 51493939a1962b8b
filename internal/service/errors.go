package service

import "errors"

// Error taxonomy for the checkout/enrollment flow. Handlers map these to
// status codes: the first three are client errors, the rest are 5xx and
// logged server-side.
var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrVerificationFailed = errors.New("payment verification failed")
	ErrIntentConflict     = errors.New("payment intent already exists for this provider order")
	ErrProvider           = errors.New("payment provider error")
	ErrStore              = errors.New("storage error")
)
