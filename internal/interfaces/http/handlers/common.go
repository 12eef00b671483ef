// Package handlers maps the chemenv HTTP API onto the environment service.
// Every response uses the common.APIResponse envelope.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	appenv "github.com/turtacn/chemenv/internal/application/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeData wraps data in a success envelope.
func writeData[T any](w http.ResponseWriter, r *http.Request, statusCode int, data T) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = logging.RequestIDFromContext(r.Context())
	writeJSON(w, statusCode, resp)
}

// writeAppError maps err to its HTTP status through its error code. Errors
// without a code become an opaque 500.
func writeAppError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	detail := appenv.ErrorDetail(err)
	status := errors.HTTPStatusForCode(errors.ErrorCode(detail.Code))

	l := logger.WithContext(r.Context())
	fields := []logging.Field{
		logging.String(logging.FieldErrorCode, detail.Code),
		logging.String("method", r.Method),
		logging.String("path", r.URL.Path),
	}
	if status >= http.StatusInternalServerError {
		l.WithError(err).Error("Request failed", fields...)
	} else {
		l.Debug("Request rejected", append(fields, logging.Err(err))...)
	}

	resp := common.NewErrorResponse(detail.Code, detail.Message, detail.Detail)
	resp.RequestID = logging.RequestIDFromContext(r.Context())
	writeJSON(w, status, resp)
}

// decodeJSON reads one JSON document of at most maxBytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.InvalidParam("request body too large").WithDetail(strconv.FormatInt(maxBytes, 10) + " bytes max")
		case stderrors.Is(err, io.EOF):
			return errors.InvalidParam("request body is empty")
		default:
			return errors.InvalidParam("invalid request body").WithDetail(err.Error())
		}
	}
	return nil
}

// parsePagination reads page and page_size. Missing values are zero so the
// service applies its defaults.
func parsePagination(r *http.Request) (page, pageSize int, err error) {
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.InvalidParam("page must be an integer").WithDetail(v)
		}
	}
	if v := q.Get("page_size"); v != "" {
		if pageSize, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.InvalidParam("page_size must be an integer").WithDetail(v)
		}
	}
	return page, pageSize, nil
}

//Personal.AI order the ending
