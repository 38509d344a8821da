// Package httpx holds the HTTP plumbing shared by every resource package:
// JSON responses, error responses, request decoding with validation, and
// request logging.
package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/user/softdesk-go/apperror"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ImmutableFields are set by the server at creation time and may never
// appear in a request payload.
var ImmutableFields = []string{
	"id", "author", "author_id", "project", "project_id", "issue", "issue_id", "created_time",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// WriteJSON serializes data to JSON and writes it with the given status.
// A nil data writes no body, which is what 204 responses need.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

// WriteError converts any error into a standardized apperror.ErrorResponse.
// Errors that are not *apperror.AppError become 500s; all 5xx are logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred", err)
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     status,
		}).WithError(err).Error("request failed")
	}
	WriteJSON(w, status, appErr.ToResponse())
}

// Decode reads a JSON object from the request body into dst and validates
// it. Immutable keys and unknown keys are rejected, and a body over
// maxBodyBytes is refused outright rather than truncated.
func Decode(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.NewPayloadTooLargeError(fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes), err)
		}
		return apperror.NewBadRequestError("failed to read request body", err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return apperror.NewBadRequestError("request body is required", nil)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return apperror.NewBadRequestError("request body must be a JSON object", err)
	}
	var locked []string
	for _, key := range ImmutableFields {
		if _, ok := raw[key]; ok {
			locked = append(locked, key)
		}
	}
	if len(locked) > 0 {
		sort.Strings(locked)
		return apperror.NewValidationError(fmt.Sprintf("read-only fields cannot be set: %s", strings.Join(locked, ", ")), nil)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return apperror.NewValidationError(fmt.Sprintf("field '%s' has the wrong type", typeErr.Field), err)
		}
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			return apperror.NewValidationError(strings.TrimPrefix(err.Error(), "json: "), err)
		}
		var ae *apperror.AppError
		if errors.As(err, &ae) {
			return ae
		}
		return apperror.NewBadRequestError("invalid request body", err)
	}
	return Validate(dst)
}

// Validate runs struct-tag validation and turns failures into a ValidationError.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewValidationError("invalid request", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperror.NewValidationError(strings.Join(msgs, "; "), err)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed the '%s' rule", fe.Field(), fe.Tag())
	}
}

// IDParam parses a positive integer URL parameter. A malformed id cannot
// match any row, so it is reported as not found.
func IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewNotFoundError(fmt.Sprintf("%s '%s' not found", strings.TrimSuffix(name, "ID"), raw), nil)
	}
	return id, nil
}

// RequestLogger logs one structured line per request with logrus.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			entry := logrus.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"remote":     r.RemoteAddr,
			})
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("request completed")
				return
			}
			entry.Info("request completed")
		}()
		next.ServeHTTP(ww, r)
	})
}
