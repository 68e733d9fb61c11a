package domain

import "errors"

var (
	// ErrUserNotFound is returned when a user id cannot be resolved.
	ErrUserNotFound = errors.New("user not found")
	// ErrCourseNotFound indicates the course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrProgressNotFound indicates no progress record exists yet for a
	// (user, question) pair.
	ErrProgressNotFound = errors.New("progress record not found")
	// ErrLeaderboardEntryNotFound is returned by league lookups before the
	// user has scored anything in the course.
	ErrLeaderboardEntryNotFound = errors.New("leaderboard entry not found")
	// ErrDuplicateProgress signals a uniqueness violation on first-time
	// insert of a progress record. The recorder resolves it by falling back
	// to an update; it never reaches callers on the happy path.
	ErrDuplicateProgress = errors.New("progress record already exists")
	// ErrProgressConflict means the fallback update after a duplicate insert
	// failed too. The pair-uniqueness invariant cannot be restored
	// automatically; this must not be swallowed.
	ErrProgressConflict = errors.New("unresolvable progress record conflict")
)
