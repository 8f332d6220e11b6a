// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

var validate = validator.New()

// createRequest is the body of POST /api/categories.
type createRequest struct {
	Name         string            `json:"name" validate:"required,max=200"`
	ParentID     *uuid.UUID        `json:"parent_id"`
	Slug         string            `json:"slug" validate:"omitempty,max=200"`
	Description  string            `json:"description" validate:"max=2000"`
	Translations map[string]string `json:"translations" validate:"omitempty,dive,keys,min=2,max=10,endkeys,required,max=200"`
	SortOrder    *int              `json:"sort_order" validate:"omitempty,gte=0"`
	State        string            `json:"lifecycle_state" validate:"omitempty,oneof=draft pending approved rejected suspended archived"`
	IsActive     *bool             `json:"is_active"`
}

// moveRequest is the body of POST /api/categories/{id}/move. Exactly one
// of parent_id and to_root must be given so an empty body never silently
// turns a category into a root.
type moveRequest struct {
	ParentID *uuid.UUID `json:"parent_id" validate:"required_without=ToRoot"`
	ToRoot   bool       `json:"to_root" validate:"excluded_with=ParentID"`
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// validateRequest runs the validation tags of a decoded request.
func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError turns validator errors into one readable message.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_without":
		return fmt.Sprintf("%s is required unless %s is set", field, strings.ToLower(e.Param()))
	case "excluded_with":
		return fmt.Sprintf("%s cannot be combined with %s", field, strings.ToLower(e.Param()))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or greater", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid category id %q", raw)
	}
	return id, nil
}
