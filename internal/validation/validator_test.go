// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package validation

import (
	"strings"
	"testing"
)

type contentQuery struct {
	ContentType string `validate:"required,oneof=movie series"`
	Limit       int    `validate:"min=0,max=50"`
}

type preferencesBody struct {
	Segment       string   `validate:"omitempty,max=64"`
	TopCategories []string `validate:"max=10,dive,min=1"`
}

func TestValidateStructPasses(t *testing.T) {
	t.Parallel()

	q := contentQuery{ContentType: "movie", Limit: 10}
	if err := ValidateStruct(&q); err != nil {
		t.Fatalf("ValidateStruct: %v", err)
	}
}

func TestValidateStructSingleError(t *testing.T) {
	t.Parallel()

	q := contentQuery{ContentType: "podcast", Limit: 10}
	err := ValidateStruct(&q)
	if err == nil {
		t.Fatal("invalid content type accepted")
	}

	errs := err.Errors()
	if len(errs) != 1 {
		t.Fatalf("errors = %d, want 1", len(errs))
	}
	if errs[0].Field != "ContentType" {
		t.Errorf("field = %q, want ContentType", errs[0].Field)
	}
	if errs[0].Tag != "oneof" {
		t.Errorf("tag = %q, want oneof", errs[0].Tag)
	}
	if !strings.Contains(errs[0].Error(), "must be one of") {
		t.Errorf("message = %q, want oneof translation", errs[0].Error())
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	t.Parallel()

	q := contentQuery{ContentType: "", Limit: 500}
	err := ValidateStruct(&q)
	if err == nil {
		t.Fatal("invalid query accepted")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("errors = %d, want 2", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Errorf("details fields = %v, want 2 entries", apiErr.Details["fields"])
	}
}

func TestToAPIErrorSingleIncludesFieldDetails(t *testing.T) {
	t.Parallel()

	q := contentQuery{ContentType: "movie", Limit: 100}
	err := ValidateStruct(&q)
	if err == nil {
		t.Fatal("limit over maximum accepted")
	}

	apiErr := err.ToAPIError()
	if apiErr.Details["field"] != "Limit" {
		t.Errorf("details field = %v, want Limit", apiErr.Details["field"])
	}
	if apiErr.Details["tag"] != "max" {
		t.Errorf("details tag = %v, want max", apiErr.Details["tag"])
	}
	if !strings.Contains(apiErr.Message, "at most 50") {
		t.Errorf("message = %q, want max translation", apiErr.Message)
	}
}

func TestValidateStructDiveRules(t *testing.T) {
	t.Parallel()

	ok := preferencesBody{Segment: "news_enthusiast", TopCategories: []string{"news", "sports"}}
	if err := ValidateStruct(&ok); err != nil {
		t.Fatalf("ValidateStruct: %v", err)
	}

	bad := preferencesBody{TopCategories: []string{"news", ""}}
	if err := ValidateStruct(&bad); err == nil {
		t.Fatal("empty category accepted")
	}
}

func TestGetValidatorReturnsSameInstance(t *testing.T) {
	t.Parallel()

	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator did not return the singleton instance")
	}
}
