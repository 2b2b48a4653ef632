// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package validation

import (
	"strings"
	"testing"
)

type rangeRequest struct {
	Limit  int    `validate:"min=1,max=100"`
	Sort   string `validate:"omitempty,oneof=xp level messages"`
	UserID string `validate:"required"`
}

func TestValidateStruct_Passes(t *testing.T) {
	req := rangeRequest{Limit: 10, Sort: "xp", UserID: "123"}
	if err := ValidateStruct(&req); err != nil {
		t.Fatalf("ValidateStruct() = %v, want nil", err)
	}
}

func TestValidateStruct_CollectsFieldErrors(t *testing.T) {
	req := rangeRequest{Limit: 500, Sort: "alphabetical"}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want errors")
	}

	if len(err.Errors()) != 3 {
		t.Fatalf("errors = %d, want 3: %v", len(err.Errors()), err)
	}

	msg := err.Error()
	for _, want := range []string{
		"Limit must be at most 100",
		"Sort must be one of: xp level messages",
		"UserID is required",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestValidateStruct_FieldMetadata(t *testing.T) {
	req := rangeRequest{Limit: 0, UserID: "123"}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}

	fe := err.Errors()[0]
	if fe.Field() != "Limit" || fe.Tag() != "min" || fe.Param() != "1" {
		t.Errorf("field error = %s/%s/%s", fe.Field(), fe.Tag(), fe.Param())
	}
	if fe.Value() != 0 {
		t.Errorf("value = %v, want 0", fe.Value())
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator returned different instances")
	}
}
