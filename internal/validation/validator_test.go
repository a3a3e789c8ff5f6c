// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package validation

import (
	"strings"
	"testing"
)

type ingestRequest struct {
	UserID    string  `validate:"required,min=1,max=128"`
	Latitude  float64 `validate:"omitempty,latitude"`
	Longitude float64 `validate:"omitempty,longitude"`
	PageSize  int     `validate:"min=1,max=1000"`
	Kind      string  `validate:"omitempty,oneof=age_based year_based"`
}

func TestStruct_Valid(t *testing.T) {
	req := ingestRequest{UserID: "u1", Latitude: 40.7, Longitude: -74.0, PageSize: 50}
	if err := Struct(&req); err != nil {
		t.Errorf("Struct() = %v, want nil", err)
	}
}

func TestStruct_RequiredField(t *testing.T) {
	req := ingestRequest{PageSize: 10}
	err := Struct(&req)
	if err == nil {
		t.Fatal("Struct() = nil, want error for missing UserID")
	}
	fields := err.Fields()
	if len(fields) != 1 {
		t.Fatalf("Fields() = %d errors, want 1", len(fields))
	}
	if fields[0].Field != "UserID" || fields[0].Tag != "required" {
		t.Errorf("field error = %+v, want UserID/required", fields[0])
	}
	if want := "UserID is required"; fields[0].Message != want {
		t.Errorf("message = %q, want %q", fields[0].Message, want)
	}
}

func TestStruct_MultipleErrors(t *testing.T) {
	req := ingestRequest{UserID: "u1", Latitude: 123, PageSize: 0, Kind: "weekly"}
	err := Struct(&req)
	if err == nil {
		t.Fatal("Struct() = nil, want errors")
	}
	if got := len(err.Fields()); got != 3 {
		t.Fatalf("Fields() = %d errors, want 3: %v", got, err)
	}
	msg := err.Error()
	for _, want := range []string{
		"Latitude must be a valid latitude",
		"PageSize must be at least 1",
		"Kind must be one of: age_based year_based",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestStruct_MaxStringMessage(t *testing.T) {
	req := ingestRequest{UserID: strings.Repeat("x", 200), PageSize: 10}
	err := Struct(&req)
	if err == nil {
		t.Fatal("Struct() = nil, want error for oversized UserID")
	}
	if want := "UserID must be at most 128 characters"; err.Fields()[0].Message != want {
		t.Errorf("message = %q, want %q", err.Fields()[0].Message, want)
	}
}
