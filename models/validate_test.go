package models

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantField string
	}{
		{
			name:  "valid item",
			input: ItemRequest{Name: "Poha", MealType: MealBreakfast},
		},
		{
			name:      "missing name",
			input:     ItemRequest{MealType: MealBreakfast},
			wantField: "name",
		},
		{
			name:      "bad meal type",
			input:     ItemRequest{Name: "Poha", MealType: "brunch"},
			wantField: "meal_type",
		},
		{
			name:      "room out of range",
			input:     ComplaintRequest{Name: "A", RoomNumber: 201, Category: "food", Text: "cold", Urgency: "low"},
			wantField: "room_number",
		},
		{
			name:      "student id with letters",
			input:     RegisterStudentRequest{StudentID: "12ab", Name: "Asha"},
			wantField: "student_id",
		},
		{
			name:      "student id too long",
			input:     RegisterStudentRequest{StudentID: "12345678901", Name: "Asha"},
			wantField: "student_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestIsMealType(t *testing.T) {
	for _, m := range MealTypes {
		if !IsMealType(m) {
			t.Errorf("IsMealType(%q) = false", m)
		}
	}
	if IsMealType(SkipItemID) || IsMealType("") {
		t.Error("skip and empty are not meal types")
	}
}
