package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ericfisherdev/coviddash/internal/adapter/driving/params"
	"github.com/ericfisherdev/coviddash/internal/application"
	"github.com/ericfisherdev/coviddash/internal/domain/flatten"
	"github.com/ericfisherdev/coviddash/internal/domain/port/driven"
)

// StatusFor maps an error to the HTTP status it is reported with.
func StatusFor(err error) int {
	var verr *params.ValidationError
	var upstream driven.UpstreamStatusError

	switch {
	case errors.As(err, &verr),
		errors.Is(err, application.ErrMissingSymbol):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrUnknownState),
		errors.Is(err, application.ErrUnknownMetric),
		errors.Is(err, application.ErrUnknownService):
		return http.StatusNotFound
	case errors.Is(err, driven.ErrMissingCredential),
		errors.Is(err, driven.ErrSourceDisabled),
		errors.Is(err, driven.ErrEncryptionKeyNotSet),
		errors.Is(err, application.ErrNoSnapshot),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.As(err, &upstream),
		errors.Is(err, flatten.ErrMissingField),
		errors.Is(err, flatten.ErrShape),
		errors.Is(err, flatten.ErrIndexRange),
		errors.Is(err, flatten.ErrBadValue),
		errors.Is(err, flatten.ErrNoData):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status StatusFor assigns. Server errors
// are logged and replaced by a generic message.
func respondError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	status := StatusFor(err)

	var verr *params.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, status, errorResponse{Error: "invalid request parameters", Fields: verr.Fields})
		return
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed", "op", op, "error", err)
		writeError(w, status, "internal server error")
		return
	}

	logger.Warn("request failed", "op", op, "status", status, "error", err)
	writeError(w, status, err.Error())
}
