package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/otherus/otherus/pkg/binder"
	"github.com/otherus/otherus/pkg/logger"
	"github.com/otherus/otherus/pkg/requestid"
	"github.com/otherus/otherus/pkg/validator"
)

// ErrorInfo is the classified form of an error.
type ErrorInfo struct {
	Status   int
	Code     string
	Message  string
	Fields   map[string]string
	LogLevel slog.Level
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Classifier maps domain errors to an HTTPError. It returns false for
// errors it does not recognize.
type Classifier func(err error) (HTTPError, bool)

const internalMessage = "Internal server error"

func determineLogLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status == http.StatusUnauthorized, status == http.StatusNotFound:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

func classifyError(err error, classifiers []Classifier) ErrorInfo {
	info := ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: internalMessage,
	}

	var httpErr HTTPError
	var matched bool
	for _, classify := range classifiers {
		if httpErr, matched = classify(err); matched {
			break
		}
	}
	if !matched {
		matched = errors.As(err, &httpErr)
	}

	if matched {
		info.Status = httpErr.Status
		info.Code = httpErr.Code
		info.Message = httpErr.Error()
	} else if verrs, ok := validator.As(err); ok {
		info.Status = http.StatusUnprocessableEntity
		info.Code = "validation_error"
		info.Message = err.Error()
		info.Fields = verrs.Map()
	} else if binder.IsBindingError(err) {
		info.Status = http.StatusUnprocessableEntity
		info.Code = "invalid_request"
		info.Message = err.Error()
	}

	info.LogLevel = determineLogLevel(info.Status)
	return info
}

func writeError(w http.ResponseWriter, info ErrorInfo) {
	if info.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(info.Status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Detail: info.Message, Code: info.Code, Fields: info.Fields})
}

// NewErrorHandler returns an ErrorHandler that classifies errors with
// classifiers, then HTTPError, validation and binding errors, and renders
// the JSON envelope. Unclassified errors become 500 and their text is
// logged but never sent to the client.
func NewErrorHandler(log *slog.Logger, classifiers ...Classifier) ErrorHandler[Context] {
	if log == nil {
		log = logger.Discard()
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		info := classifyError(err, classifiers)

		log.LogAttrs(r.Context(), info.LogLevel, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", info.Status),
			slog.String("code", info.Code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		writeError(ctx.ResponseWriter(), info)
	}
}

// HTTPErrorHandler adapts an ErrorHandler to middleware that only has the
// writer and request, such as auth.Guard.
func HTTPErrorHandler(h ErrorHandler[Context]) func(w http.ResponseWriter, r *http.Request, err error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		h(NewContext(w, r), err)
	}
}
