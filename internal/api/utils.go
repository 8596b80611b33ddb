package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"ecg-pomodoro/pkg/api"

	"github.com/gorilla/schema"
	"github.com/tidwall/gjson"
)

const maxRequestBytes = 32 << 20

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(code int, err error) error {
	return &codedError{err: err, code: code}
}

func CodedErrorf(code int, format string, args ...any) error {
	return &codedError{err: fmt.Errorf(format, args...), code: code}
}

// Request types can opt into the validation stages below by implementing
// these interfaces.
type (
	requiredFielder interface{ RequiredFields() []string }
	defaulter       interface{ SetDefaults() }
	crossValidator  interface{ Validate() []api.FieldError }
)

// ParseRequest decodes a JSON body into T and validates it. Every problem
// found is reported together as a *ValidationError.
func ParseRequest[T any](r *http.Request) (T, error) {
	var data T

	// nil writer: the 413 is produced by RestHandler
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxRequestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return data, CodedError(http.StatusRequestEntityTooLarge, err)
		}
		slog.Error("error reading request body", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to read request body")
	}

	if !gjson.ValidBytes(body) {
		return data, newValidationError(api.FieldError{Loc: []any{"body"}, Msg: "request body is not valid JSON", Type: "value_error.jsondecode"})
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return data, newValidationError(api.FieldError{Loc: []any{"body"}, Msg: "request body must be a JSON object", Type: "type_error.dict"})
	}

	var errs []api.FieldError
	if req, ok := any(&data).(requiredFielder); ok {
		for _, path := range req.RequiredFields() {
			errs = append(errs, missingFields(doc, path)...)
		}
	}
	// one member at a time so every mistyped field is reported
	doc.ForEach(func(key, value gjson.Result) bool {
		if err := json.Unmarshal(memberObject(key, value), &data); err != nil {
			errs = append(errs, decodeFieldError(err))
		}
		return true
	})

	if d, ok := any(&data).(defaulter); ok {
		d.SetDefaults()
	}

	errs = appendUncovered(errs, structFieldErrors("body", validate.Struct(data)))
	if v, ok := any(&data).(crossValidator); ok {
		errs = appendUncovered(errs, v.Validate())
	}
	if len(errs) > 0 {
		return data, newValidationError(errs...)
	}

	return data, nil
}

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

func ParseRequestQueryParams[T any](r *http.Request) (T, error) {
	var data T
	if err := r.ParseForm(); err != nil {
		slog.Error("error parsing form", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request query params")
	}

	if err := queryDecoder.Decode(&data, r.Form); err != nil {
		var multi schema.MultiError
		if errors.As(err, &multi) {
			var errs []api.FieldError
			for key, kerr := range multi {
				errs = append(errs, api.FieldError{Loc: []any{"query", key}, Msg: kerr.Error(), Type: "type_error"})
			}
			return data, newValidationError(errs...)
		}
		slog.Error("error decoding query params", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request query params")
	}

	if errs := structFieldErrors("query", validate.Struct(data)); len(errs) > 0 {
		return data, newValidationError(errs...)
	}

	return data, nil
}

func RestHandler(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			var verr *ValidationError
			var cerr *codedError
			if errors.As(err, &verr) {
				writeJson(w, http.StatusUnprocessableEntity, api.ValidationErrorResponse{Detail: verr.Errors})
			} else if errors.As(err, &cerr) {
				http.Error(w, err.Error(), cerr.code)
				if cerr.code == http.StatusInternalServerError {
					slog.Error("internal server error received in endpoint", "error", err)
				}
			} else {
				slog.Error("recieved non coded error from endpoint", "error", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}

		if res == nil {
			res = struct{}{}
		}

		WriteJsonResponse(w, res)
	}
}

func WriteJsonResponse(w http.ResponseWriter, data interface{}) {
	writeJson(w, http.StatusOK, data)
}

func writeJson(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("error serializing response body", "error", err)
		http.Error(w, fmt.Sprintf("error serializing response body: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("error writing response body", "error", err)
	}
}
