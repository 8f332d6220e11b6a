// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"taxonomy/internal/hierarchy"
)

// errorResponse is the JSON body of every failed request. Updated is set
// when a move, recompute or delete stopped after writing some categories.
type errorResponse struct {
	Error   string      `json:"error"`
	Updated []uuid.UUID `json:"updated,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeBadRequest reports a malformed request.
func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// writeError maps an engine error to a status code and logs server faults.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), Updated: hierarchy.PartialUpdates(err)}
	if status >= http.StatusInternalServerError {
		slog.Error("category request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"updated", len(resp.Updated),
			"error", err,
		)
		if resp.Updated == nil {
			resp.Error = "Internal Server Error"
		}
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, hierarchy.ErrNodeNotFound),
		errors.Is(err, hierarchy.ErrNodeNotFoundForRecompute):
		return http.StatusNotFound
	case errors.Is(err, hierarchy.ErrCircularHierarchy),
		errors.Is(err, hierarchy.ErrNodeHasDependents):
		return http.StatusConflict
	case hierarchy.IsValidation(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeInvalid reports a well-formed request that failed validation.
func writeInvalid(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
}
