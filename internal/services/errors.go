// Package services defines the business logic for archive import, insight
// generation, and insight feedback. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrEmptyQuery is returned when an insight request contains an empty
	// question.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrQueryTooLong is returned when a question exceeds the maximum
	// configured length limit.
	ErrQueryTooLong = errors.New("query too long")

	// ErrEmptyArchive is returned when an import payload contains no usable
	// conversations at all.
	ErrEmptyArchive = errors.New("archive contains no conversations")

	// ErrInsightNotFound indicates that the requested insight does not exist
	// or is not accessible to the current user.
	ErrInsightNotFound = errors.New("insight not found")

	// ErrInvalidFeedback is returned when a feedback value is outside the
	// allowed set (currently -1 or 1).
	ErrInvalidFeedback = errors.New("feedback value must be -1 or 1")

	// ErrDuplicateFeedback is returned when a user attempts to rate an
	// insight they have already rated.
	ErrDuplicateFeedback = errors.New("feedback already exists")
)
