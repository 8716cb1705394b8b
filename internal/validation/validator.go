// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator instance. Struct metadata is
// cached inside the validator after first use, so one instance serves all
// request types.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// FieldError describes one failed validation rule on one field.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   interface{}
	Message string
}

// Error returns the translated message for this field.
func (e FieldError) Error() string {
	return e.Message
}

// RequestValidationError carries all field errors for one request body or
// query struct.
type RequestValidationError struct {
	fields []FieldError
}

// Errors returns the individual field errors.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.fields
}

// Error joins the field messages into one line.
func (ve *RequestValidationError) Error() string {
	if len(ve.fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.fields))
	for i, fe := range ve.fields {
		messages[i] = fe.Message
	}
	return strings.Join(messages, "; ")
}

// APIError mirrors the api package's error body shape to avoid an
// import cycle.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError converts the field errors to the VALIDATION_ERROR wire format.
// A single failure carries field-level details; multiple failures carry a
// fields list.
func (ve *RequestValidationError) ToAPIError() *APIError {
	switch len(ve.fields) {
	case 0:
		return &APIError{Code: "VALIDATION_ERROR", Message: "Validation failed"}
	case 1:
		fe := ve.fields[0]
		return &APIError{
			Code:    "VALIDATION_ERROR",
			Message: fe.Message,
			Details: map[string]interface{}{
				"field": fe.Field,
				"tag":   fe.Tag,
				"value": fe.Value,
			},
		}
	}

	fields := make([]map[string]interface{}, len(ve.fields))
	messages := make([]string, len(ve.fields))
	for i, fe := range ve.fields {
		fields[i] = map[string]interface{}{
			"field":   fe.Field,
			"tag":     fe.Tag,
			"message": fe.Message,
		}
		messages[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return &APIError{
		Code:    "VALIDATION_ERROR",
		Message: strings.Join(messages, "; "),
		Details: map[string]interface{}{"fields": fields},
	}
}

// ValidateStruct runs the shared validator over s. It returns nil when the
// struct passes, otherwise a RequestValidationError with translated
// per-field messages.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{fields: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: messageFor(fe),
		}
	}
	return &RequestValidationError{fields: fields}
}

// messageFor translates a validator failure into a client-facing message.
// Only the tags used by the API request structs get dedicated wording.
func messageFor(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "uuid":
		return field + " must be a valid UUID"
	case "datetime":
		return field + " must be a valid date/time in RFC3339 format"
	case "boolean":
		return field + " must be true or false"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
