package validation

import (
	"testing"

	"github.com/google/uuid"
)

func TestValidate(t *testing.T) {
	errs := Validate(
		Required("name", ""),
		Required("recipient", "x"),
		PositiveAmount("amount", -1),
	)
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
	}
	if errs[0].Field != "name" || errs[1].Field != "amount" {
		t.Errorf("unexpected fields: %v", errs)
	}
}

func TestValidUUID(t *testing.T) {
	if err := ValidUUID("id", uuid.NewString())(); err != nil {
		t.Errorf("valid UUID rejected: %v", err)
	}
	if err := ValidUUID("id", "nope")(); err == nil {
		t.Error("invalid UUID accepted")
	}
	// Empty values are Required's job
	if err := ValidUUID("id", "")(); err != nil {
		t.Error("empty value should be skipped")
	}
}

func TestSanitizeString(t *testing.T) {
	// Trim, then cap at 8 bytes, then strip the null
	got := SanitizeString("  hello\x00world  ", 8)
	if got != "hellowo" {
		t.Errorf("SanitizeString = %q, want %q", got, "hellowo")
	}
}
