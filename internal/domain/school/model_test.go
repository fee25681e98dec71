package school

import (
	"errors"
	"strings"
	"testing"
)

// TestSchool_Validate tests School validation rules.
func TestSchool_Validate(t *testing.T) {
	valid := School{ID: "s1", Name: "EREM Professor Barros", City: "Caruaru"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid school, got: %v", err)
	}

	tests := []struct {
		name    string
		modify  func(s *School)
		wantErr error
	}{
		{"empty name", func(s *School) { s.Name = "  " }, ErrEmptyName},
		{"empty city", func(s *School) { s.City = "" }, ErrEmptyCity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.modify(&s)
			if err := s.Validate(); !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}

	long := valid
	long.Name = strings.Repeat("a", MaxNameLength+1)
	if err := long.Validate(); err == nil {
		t.Error("expected error for name over the length cap")
	}
}
