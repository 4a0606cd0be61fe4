package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/campus-auth/internal/domain"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const internalErrorMessage = "An error occurred while processing your request."

// httpError maps a service error onto a status code and body.
// Anything not recognised is logged and hidden behind a generic 500.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	if kind, ok := domain.CodeErrorKindOf(err); ok {
		writeJSON(w, http.StatusBadRequest, CodeErrorEnvelope{Error: err.Error(), Kind: kind})
		return
	}
	switch {
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrSchoolNotFound),
		errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"err", err,
		)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}
