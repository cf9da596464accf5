package errors

import "net/http"

// MapToHTTPStatus translates a service error into the status code returned
// to the caller. Anything unknown is a store or runtime failure.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case Is(err, ErrInvalidParticipant), Is(err, ErrInvalidMessage), Is(err, ErrUnknownSender):
		return http.StatusUnprocessableEntity
	case Is(err, ErrParticipantAlreadyExists):
		return http.StatusConflict
	case Is(err, ErrParticipantNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
