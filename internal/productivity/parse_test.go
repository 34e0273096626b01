package productivity

import "testing"

func TestParseHours(t *testing.T) {
	cases := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"", 0, false},
		{"   ", 0, false},
		{".", 0, false},
		{"3.25", 3.25, false},
		{" 7 ", 7, false},
		{"0", 0, false},
		{"abc", 0, true},
		{"1,5", 0, true},
		{"-2", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseHours(tc.input)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseHours(%q) err = %v, wantErr %v", tc.input, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseHours(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestCoerceHoursSwallowsJunk(t *testing.T) {
	if got := CoerceHours("garbage"); got != 0 {
		t.Fatalf("CoerceHours(garbage) = %v, want 0", got)
	}
	if got := CoerceHours("2.5"); got != 2.5 {
		t.Fatalf("CoerceHours(2.5) = %v", got)
	}
}

func TestFormatHours(t *testing.T) {
	cases := map[float64]string{
		3.25: "3.25",
		7:    "7",
		0.5:  "0.5",
	}
	for value, want := range cases {
		if got := formatHours(value); got != want {
			t.Errorf("formatHours(%v) = %q, want %q", value, got, want)
		}
	}
}
