package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in, region, want string
	}{
		{"(201) 555-0123", "US", "+12015550123"},
		{"  +31 10 123 4567 ", "US", "+31101234567"},
		{"not a number", "US", "not a number"},
		{"", "US", ""},
	}
	for _, tc := range cases {
		if got := NormalizeE164(tc.in, tc.region); got != tc.want {
			t.Fatalf("NormalizeE164(%q, %q) = %q, want %q", tc.in, tc.region, got, tc.want)
		}
	}
}
