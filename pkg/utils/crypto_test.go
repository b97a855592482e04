package utils

import (
	"strings"
	"testing"
)

func TestGeneratePairCode_Format(t *testing.T) {
	code, err := GeneratePairCode()
	if err != nil {
		t.Fatalf("GeneratePairCode() failed: %v", err)
	}

	if len(code) != 9 {
		t.Errorf("Expected 9-character code (8 chars + dash), got %q (%d chars)", code, len(code))
	}
	if code[4] != '-' {
		t.Errorf("Expected dash at position 4, got %q", code)
	}
	if !IsValidPairCode(code) {
		t.Errorf("Generated code %q does not pass validation", code)
	}

	for _, c := range strings.ReplaceAll(code, "-", "") {
		if !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", c) {
			t.Errorf("Code %q contains character outside the allowed alphabet: %q", code, c)
		}
	}
}

func TestGeneratePairCode_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := GeneratePairCode()
		if err != nil {
			t.Fatalf("GeneratePairCode() failed: %v", err)
		}
		if seen[code] {
			t.Fatalf("Duplicate code generated after %d iterations: %s", i, code)
		}
		seen[code] = true
	}
}
