package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrWorkerPanic     = fmt.Errorf("worker panic")
	ErrSweepInProgress = fmt.Errorf("sweep already in progress")
	ErrEmptyWords      = fmt.Errorf("no words have been found")

	ErrInvalidParticipant       = fmt.Errorf("invalid participant")
	ErrInvalidMessage           = fmt.Errorf("invalid message")
	ErrParticipantAlreadyExists = fmt.Errorf("participant already exists")
	ErrParticipantNotFound      = fmt.Errorf("participant not found")
	ErrUnknownSender            = fmt.Errorf("sender is not a registered participant")
)

// Is mirrors the standard library so callers importing this package
// do not need a second, aliased errors import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
