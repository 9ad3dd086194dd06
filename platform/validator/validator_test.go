package validator

import "testing"

type dateHolder struct {
	Start string `validate:"required,isodate"`
	End   string `validate:"omitempty,isodate"`
}

func TestISODateTag(t *testing.T) {
	v := New()
	if err := v.Struct(dateHolder{Start: "2024-01-01"}); err != nil {
		t.Fatalf("expected valid date, got %v", err)
	}
	if err := v.Struct(dateHolder{Start: "01/02/2024"}); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
	if err := v.Struct(dateHolder{Start: "2024-01-01", End: "2024-13-40"}); err == nil {
		t.Fatalf("expected error for impossible end date")
	}
}
