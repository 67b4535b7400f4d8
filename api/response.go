package api

import (
	"net/http"

	"github.com/starnotary/notary/errors"
	"github.com/starnotary/notary/jsonx"
	"github.com/starnotary/notary/logx"
)

const (
	StatusRetrievalFailed    = "Failed retrieving Resource"
	StatusStarRetrieval      = "Star Info Retrieval Failed."
	StatusInputValidation    = "Input Validation Failed"
	StatusSignatureFailed    = "Signature Validation Failed"
	StatusRegistrationFailed = "Star Registration Failed"
	StatusInternal           = "Internal Server Error."
	StatusTooManyRequests    = "Too Many Requests"

	badRequestPrefix = "Bad Request. "
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := jsonx.NewEncoder(w).Encode(v); err != nil {
		logx.Error("API", "Failed to encode response: ", err)
	}
}

func writeFailure(w http.ResponseWriter, code int, status, reason string) {
	writeJSON(w, code, ErrorResponse{
		StatusCode: code,
		Status:     status,
		Reason:     reason,
	})
}

// httpStatusOf maps an error code to the HTTP status returned to clients.
func httpStatusOf(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeIO, errors.ErrCodeAppend, errors.ErrCodeInternal:
		return http.StatusInternalServerError
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}

// writeError renders err with the given status label. Server side failures
// hide their cause from the client.
func writeError(w http.ResponseWriter, status string, err error) {
	code := httpStatusOf(errors.CodeOf(err))
	switch code {
	case http.StatusInternalServerError:
		logx.Error("API", "Request failed: ", err)
		writeFailure(w, code, StatusInternal, errors.ErrMsgInternal)
	case http.StatusBadRequest:
		writeFailure(w, code, status, badRequestPrefix+errors.MessageOf(err))
	default:
		writeFailure(w, code, status, errors.MessageOf(err))
	}
}
