package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/predictvip/pkg/logger"
	"github.com/dmitrymomot/predictvip/pkg/validator"
)

// NewErrorHandler renders errors as JSON error envelopes. classify picks the
// status and code; validation errors always carry per-field details.
// Server errors are logged at error level and their text is not exposed.
func NewErrorHandler(log *slog.Logger, classify Classifier) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	if classify == nil {
		classify = DefaultClassifier
	}
	log = log.With(logger.Component("error_handler"))

	return func(ctx Context, err error) {
		httpErr := classify(err)
		if httpErr.Status == 0 {
			httpErr = ErrInternal
		}

		detail := &ErrorDetail{Code: httpErr.Code, Message: httpErr.Error()}
		if httpErr.Status >= http.StatusInternalServerError {
			detail.Message = http.StatusText(httpErr.Status)
		}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			detail.Details = ve.Fields()
		}

		r := ctx.Request()
		level := slog.LevelWarn
		if httpErr.Status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(r.Context(), level, "request failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Int("status", httpErr.Status),
			slog.String("code", httpErr.Code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)

		if werr := writeJSON(ctx.ResponseWriter(), httpErr.Status, JSONResponse{Error: detail}); werr != nil {
			log.WarnContext(r.Context(), "failed to write error response", logger.Error(werr))
		}
	}
}
