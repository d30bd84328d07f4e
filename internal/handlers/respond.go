// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON HTTP API of the stockroom: session
// login and the category tree endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stockroom/internal/catalog"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Constraint string `json:"constraint,omitempty"`
	ChildCount *int   `json:"child_count,omitempty"`
	ItemCount  *int   `json:"item_count,omitempty"`
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// writeRaw sends an already encoded JSON payload.
func writeRaw(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// statusFor maps a catalog error kind to its HTTP status.
func statusFor(k catalog.Kind) int {
	switch k {
	case catalog.KindNotFound:
		return http.StatusNotFound
	case catalog.KindInvalid,
		catalog.KindDuplicateName,
		catalog.KindParentNotFound,
		catalog.KindSelfParent,
		catalog.KindCycleDetected,
		catalog.KindBusinessRule:
		return http.StatusBadRequest
	case catalog.KindConstraintViolation:
		return http.StatusConflict
	case catalog.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err in the error envelope. Details of internal and
// storage failures are logged, never sent.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ce, ok := catalog.AsError(err)
	if !ok {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
			Kind:    string(catalog.KindInternal),
			Message: "internal error",
		}})
		return
	}

	status := statusFor(ce.Kind)
	detail := errorDetail{Kind: string(ce.Kind), Message: ce.Message, Constraint: ce.Constraint}
	switch {
	case status >= http.StatusInternalServerError:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "kind", ce.Kind, "error", err)
		if ce.Kind == catalog.KindStorageUnavailable {
			detail.Message = "storage unavailable"
		}
	case ce.Kind == catalog.KindBusinessRule:
		detail.ChildCount = &ce.ChildCount
		detail.ItemCount = &ce.ItemCount
	}
	writeJSON(w, status, errorBody{Error: detail})
}

// writeFailure sends a non-catalog error envelope.
func writeFailure(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return catalog.Invalid("request body is empty")
		}
		return catalog.Invalid(fmt.Sprintf("malformed request body: %v", err))
	}
	return nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, catalog.Invalid(fmt.Sprintf("invalid category id %q", raw))
	}
	return id, nil
}
