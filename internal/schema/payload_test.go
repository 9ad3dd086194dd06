package schema

import "testing"

var depositChain = []string{"deposit_amount", "security_deposit", "deposit"}

func TestBuildWritePayloadDropsAbsentColumns(t *testing.T) {
	cols := NewColumnSet("id", "unit_id", "rent_amount")
	payload, skipped := BuildWritePayload([]Field{
		Plain("unit_id", "u1"),
		Plain("rent_amount", 1200.0),
		Plain("notes", "corner unit"),
	}, cols)

	if _, ok := payload["notes"]; ok {
		t.Fatalf("notes is not a column and must not be written")
	}
	if len(payload) != 2 {
		t.Fatalf("expected 2 columns, got %v", payload)
	}
	if len(skipped) != 1 || skipped[0] != "notes" {
		t.Fatalf("expected notes to be skipped, got %v", skipped)
	}
}

func TestBuildWritePayloadFollowsDepositChain(t *testing.T) {
	cases := []struct {
		name string
		cols ColumnSet
		want string
	}{
		{"security deposit only", NewColumnSet("id", "security_deposit"), "security_deposit"},
		{"legacy deposit", NewColumnSet("id", "deposit"), "deposit"},
		{"prefers deposit_amount", NewColumnSet("deposit", "deposit_amount", "security_deposit"), "deposit_amount"},
		{"unknown schema", Unknown(), "deposit_amount"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, skipped := BuildWritePayload([]Field{Chain("deposit", 750.0, depositChain...)}, tc.cols)
			if len(skipped) != 0 {
				t.Fatalf("unexpected skipped fields %v", skipped)
			}
			if len(payload) != 1 || payload[tc.want] != 750.0 {
				t.Fatalf("expected deposit under %s, got %v", tc.want, payload)
			}
		})
	}
}

func TestBuildWritePayloadSkipsUnmatchedChain(t *testing.T) {
	payload, skipped := BuildWritePayload([]Field{Chain("deposit", 750.0, depositChain...)}, NewColumnSet("id"))
	if len(payload) != 0 {
		t.Fatalf("expected empty payload, got %v", payload)
	}
	if len(skipped) != 1 || skipped[0] != "deposit" {
		t.Fatalf("expected deposit to be skipped, got %v", skipped)
	}
}

func TestBuildWritePayloadUnknownWritesEverything(t *testing.T) {
	payload, skipped := BuildWritePayload([]Field{Plain("a", 1), Plain("b", nil)}, Unknown())
	if len(skipped) != 0 || len(payload) != 2 {
		t.Fatalf("unknown schema must keep every candidate, got %v skipped %v", payload, skipped)
	}
	if _, ok := payload["b"]; !ok {
		t.Fatalf("explicit nil candidates are still written")
	}
}

func TestFirstPresent(t *testing.T) {
	row := map[string]any{"deposit_amount": nil, "security_deposit": 300.0}
	value, column, ok := FirstPresent(row, depositChain...)
	if !ok || column != "security_deposit" || value != 300.0 {
		t.Fatalf("unexpected result %v %s %v", value, column, ok)
	}
}
