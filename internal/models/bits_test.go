package models

import (
	"encoding/json"
	"testing"
)

func TestBitsField_StringForm(t *testing.T) {
	var payload struct {
		Bits BitsField `json:"bits"`
	}
	if err := json.Unmarshal([]byte(`{"bits":"01101"}`), &payload); err != nil {
		t.Fatalf("Unmarshal() err = %v", err)
	}
	if payload.Bits.String() != "01101" {
		t.Errorf("Bits = %q, want %q", payload.Bits, "01101")
	}
}

func TestBitsField_ArrayForm(t *testing.T) {
	var payload struct {
		Bits BitsField `json:"bits"`
	}
	if err := json.Unmarshal([]byte(`{"bits":[0,1,1,0,1]}`), &payload); err != nil {
		t.Fatalf("Unmarshal() err = %v", err)
	}
	if payload.Bits.String() != "01101" {
		t.Errorf("Bits = %q, want %q", payload.Bits, "01101")
	}
}

func TestBitsField_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"array with 2", `{"bits":[0,1,2]}`},
		{"number", `{"bits":42}`},
		{"object", `{"bits":{}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var payload struct {
				Bits BitsField `json:"bits"`
			}
			if err := json.Unmarshal([]byte(tc.in), &payload); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestBitsField_Null(t *testing.T) {
	var payload struct {
		Mask BitsField `json:"mask"`
	}
	if err := json.Unmarshal([]byte(`{"mask":null}`), &payload); err != nil {
		t.Fatalf("Unmarshal() err = %v", err)
	}
	if payload.Mask != "" {
		t.Errorf("Mask = %q, want empty", payload.Mask)
	}
}
