package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/middleware"
	"competency-assessment/internal/profilegate"
	"competency-assessment/internal/repository"
	"competency-assessment/internal/service"
	"competency-assessment/pkg/validator"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error       string            `json:"error"`
	Fields      map[string]string `json:"fields,omitempty"`
	LockedUntil *time.Time        `json:"locked_until,omitempty"`
	Remaining   string            `json:"remaining,omitempty"`
}

// JSONResponse writes data as JSON with the given status code. Nil slices are
// written as [] rather than null.
func JSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(normalizeSlices(data)); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// normalizeSlices recursively replaces nil slices with empty ones, descending into
// pointers, slices, map values and structs. Structs with unexported fields (time.Time
// and friends) are left untouched.
func normalizeSlices(data any) any {
	if data == nil {
		return nil
	}

	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return data
		}
		normalized := normalizeSlices(v.Elem().Interface())
		if normalized == nil {
			return data
		}
		out := reflect.New(v.Elem().Type())
		out.Elem().Set(reflect.ValueOf(normalized))
		return out.Interface()

	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0).Interface()
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return data
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			setNormalized(out.Index(i), v.Index(i))
		}
		return out.Interface()

	case reflect.Map:
		if v.IsNil() {
			return data
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			value := iter.Value()
			if value.Kind() == reflect.Interface && value.IsNil() {
				out.SetMapIndex(iter.Key(), value)
				continue
			}
			out.SetMapIndex(iter.Key(), reflect.ValueOf(normalizeSlices(value.Interface())))
		}
		return out.Interface()

	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				return data
			}
		}
		out := reflect.New(t).Elem()
		for i := 0; i < v.NumField(); i++ {
			setNormalized(out.Field(i), v.Field(i))
		}
		return out.Interface()
	}

	return data
}

func setNormalized(dst, src reflect.Value) {
	if src.Kind() == reflect.Interface && src.IsNil() {
		return
	}
	dst.Set(reflect.ValueOf(normalizeSlices(src.Interface())))
}

func respondError(w http.ResponseWriter, status int, message string) {
	JSONResponse(w, status, ErrorResponse{Error: message})
}

// decodeJSON reads a JSON body into v and validates it
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		msg := ErrMsgInvalidRequestBody
		if errors.Is(err, io.EOF) {
			msg = "Request body is empty"
		}
		respondError(w, http.StatusBadRequest, msg)
		return false
	}

	if err := validator.ValidateStruct(v); err != nil {
		var fields validator.FieldErrors
		if errors.As(err, &fields) {
			JSONResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Fields: fields})
			return false
		}
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return false
	}
	return true
}

// pathID parses a numeric path parameter
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 32)
	if err != nil || id == 0 {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return 0, false
	}
	return uint(id), true
}

// queryID parses an optional numeric query parameter
func queryID(r *http.Request, name string) (*uint, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	v := uint(id)
	return &v, nil
}

// identity returns the authenticated caller or answers 401
func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := middleware.GetIdentity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
	}
	return id, ok
}

// writeServiceError maps service and repository errors onto status codes
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var locked *service.ProfileLockedError
	switch {
	case errors.As(err, &locked):
		until := locked.Until
		JSONResponse(w, http.StatusLocked, ErrorResponse{
			Error:       locked.Error(),
			LockedUntil: &until,
			Remaining:   profilegate.FormatRemaining(locked.Remaining),
		})
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidTransition):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrUserInactive):
		respondError(w, http.StatusForbidden, "User account is inactive")
	case errors.Is(err, service.ErrForbidden):
		respondError(w, http.StatusForbidden, ErrMsgPermissionDenied)
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, http.StatusNotFound, ErrMsgNotFound)
	case errors.Is(err, service.ErrNoConsensus):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrRatingsFrozen):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrConflict):
		respondError(w, http.StatusConflict, ErrMsgConflict)
	case errors.Is(err, service.ErrPhotosDisabled):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("Failed to "+action, "error", err, "request_id", middleware.GetRequestID(r))
		respondError(w, http.StatusInternalServerError, ErrMsgInternal)
	}
}
