package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/and161185/recipen/internal/errs"
	"go.uber.org/zap"
)

// ExpiredMessage is the body message clients recognize as "refresh and retry".
const ExpiredMessage = "Access token expired"

// errorBody is the JSON error envelope. Reason is filled only in debug mode.
type errorBody struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// statusOf maps a sentinel to its HTTP status and client-facing message.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrTokenExpired):
		return http.StatusForbidden, ExpiredMessage
	case errors.Is(err, errs.ErrAccountDisabled):
		return http.StatusForbidden, "Account terminated"
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, errs.ErrIncomplete):
		return http.StatusUnprocessableEntity, "Insufficient data"
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict, "Already exists"
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many attempts, try again later"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// validationMessage strips the sentinel prefix: "validation failed: email is required" -> "email is required".
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, errs.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(errs.ErrValidation.Error())+2:]
	}
	return msg
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError renders err. Unknown errors are logged and answered with a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := statusOf(err)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFromCtx(r.Context())),
			zap.Error(err),
		)
	}
	body := errorBody{Message: msg}
	if s.opt.Debug {
		body.Reason = err.Error()
	}
	writeJSON(w, code, body)
}

// decode reads a JSON body into v. Malformed bodies are validation errors.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return errRequestTooLarge
		}
		return errBadJSON
	}
	return nil
}

var (
	errBadJSON         = fmt.Errorf("%w: malformed JSON body", errs.ErrValidation)
	errRequestTooLarge = fmt.Errorf("%w: request body too large", errs.ErrValidation)
)
