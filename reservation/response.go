package reservation

import (
	"errors"
	"net/http"
)

// Status is the outcome class a caller maps onto its own transport.
type Status int

const (
	StatusOK Status = iota
	StatusBadRequest
	StatusNotFound
	StatusConflict
	StatusFatal
)

func (s Status) HTTP() int {
	switch s {
	case StatusOK:
		return http.StatusOK
	case StatusBadRequest:
		return http.StatusBadRequest
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Classify turns an engine error into a status and a response body of the
// form {error, code, ...detail}. Raw backend detail only appears on the
// fatal kinds.
func Classify(err error) (Status, map[string]any) {
	body := map[string]any{
		"error": err.Error(),
		"code":  KindOf(err).String(),
	}

	var (
		verr   *ValidationError
		merr   *MissingAvailabilityError
		ierr   *InsufficientAvailabilityError
		cerr   *ConflictError
		dfault *DataIntegrityFault
		bfault *BackendFault
	)
	switch {
	case errors.As(err, &verr):
		body["reason"] = verr.Code
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		return StatusBadRequest, body
	case errors.As(err, &merr):
		body["error"] = "No availability record for some dates"
		body["missingDates"] = merr.Dates
		return StatusNotFound, body
	case errors.As(err, &ierr):
		body["error"] = "Insufficient availability"
		body["details"] = ierr.Details
		return StatusNotFound, body
	case errors.As(err, &cerr):
		body["retryable"] = true
		return StatusConflict, body
	case errors.As(err, &dfault):
		body["date"] = dfault.Date
		return StatusFatal, body
	case errors.As(err, &bfault):
		body["error"] = "Transaction failed"
		body["details"] = bfault.Error()
		body["timeout"] = bfault.Timeout
		return StatusFatal, body
	}
	body["error"] = "Transaction failed"
	body["details"] = err.Error()
	return StatusFatal, body
}
