package aprs

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	hint := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		hint  time.Time
		want  *time.Time
	}{
		{
			name:  "day hour minute zulu",
			input: "092345z",
			hint:  hint,
			want:  timep(time.Date(2024, time.June, 9, 23, 45, 0, 0, time.UTC)),
		},
		{
			name:  "day hour minute local form",
			input: "092345/",
			hint:  hint,
			want:  timep(time.Date(2024, time.June, 9, 23, 45, 0, 0, time.UTC)),
		},
		{
			name:  "tomorrow stays in current month",
			input: "110430z",
			hint:  hint,
			want:  timep(time.Date(2024, time.June, 11, 4, 30, 0, 0, time.UTC)),
		},
		{
			name:  "day far ahead rolls month back",
			input: "280430z",
			hint:  hint,
			want:  timep(time.Date(2024, time.May, 28, 4, 30, 0, 0, time.UTC)),
		},
		{
			name:  "month rollback wraps year",
			input: "310900z",
			hint:  time.Date(2024, time.January, 2, 8, 0, 0, 0, time.UTC),
			want:  timep(time.Date(2023, time.December, 31, 9, 0, 0, 0, time.UTC)),
		},
		{
			name:  "hour minute second",
			input: "234517h",
			hint:  hint,
			want:  timep(time.Date(2024, time.June, 10, 23, 45, 17, 0, time.UTC)),
		},
		{
			name:  "month day hour minute",
			input: "01151230",
			hint:  hint,
			want:  timep(time.Date(2024, time.January, 15, 12, 30, 0, 0, time.UTC)),
		},
		{
			name:  "future month rolls year back",
			input: "12241800",
			hint:  time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			want:  timep(time.Date(2023, time.December, 24, 18, 0, 0, 0, time.UTC)),
		},
		{
			name:  "next month allowed without rollback",
			input: "04021800",
			hint:  time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC),
			want:  timep(time.Date(2024, time.April, 2, 18, 0, 0, 0, time.UTC)),
		},
		{name: "unknown suffix", input: "092345x", hint: hint, want: nil},
		{name: "too short", input: "0923z", hint: hint, want: nil},
		{name: "non-numeric", input: "09a345z", hint: hint, want: nil},
		{name: "hour out of range", input: "092545z", hint: hint, want: nil},
		{name: "minute out of range", input: "092361z", hint: hint, want: nil},
		{name: "second out of range", input: "234561h", hint: hint, want: nil},
		{name: "day zero", input: "000000z", hint: hint, want: nil},
		{name: "month out of range", input: "13011200", hint: hint, want: nil},
		{name: "day not in month", input: "02301200", hint: hint, want: nil},
		{name: "eight chars with letter", input: "0115123x", hint: hint, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTimestamp(tt.input, tt.hint)
			if tt.want == nil {
				if got != nil {
					t.Errorf("parseTimestamp(%q) = %v, expected nil", tt.input, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("parseTimestamp(%q) = nil, expected %v", tt.input, *tt.want)
			}
			if !got.Equal(*tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, expected %v", tt.input, *got, *tt.want)
			}
		})
	}
}

func timep(t time.Time) *time.Time { return &t }
