package limiter

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want []Limit
	}{
		{
			name: "flask style list",
			spec: "200 per day; 50 per hour",
			want: []Limit{
				{Count: 200, Period: 24 * time.Hour, Scope: "s"},
				{Count: 50, Period: time.Hour, Scope: "s"},
			},
		},
		{
			name: "comma separated",
			spec: "10 per minute, 1 per second",
			want: []Limit{
				{Count: 10, Period: time.Minute, Scope: "s"},
				{Count: 1, Period: time.Second, Scope: "s"},
			},
		},
		{
			name: "slash form",
			spec: "5/second",
			want: []Limit{{Count: 5, Period: time.Second, Scope: "s"}},
		},
		{
			name: "multiplier and plural",
			spec: "100 per 2 hours",
			want: []Limit{{Count: 100, Period: 2 * time.Hour, Scope: "s"}},
		},
		{
			name: "case and spaces",
			spec: "  7 per MINUTE ; ",
			want: []Limit{{Count: 7, Period: time.Minute, Scope: "s"}},
		},
		{
			name: "empty",
			spec: "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse("s", tt.spec)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.spec, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("limit %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, spec := range []string{
		"ten per minute",
		"0 per minute",
		"10 per fortnight",
		"10 every minute",
		"10 per 0 minutes",
		"10 per 1 2 minutes",
	} {
		if _, err := Parse("s", spec); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", spec)
		}
	}
}

func TestLimitString(t *testing.T) {
	tests := []struct {
		l    Limit
		want string
	}{
		{Limit{Count: 10, Period: time.Minute}, "10 per 1 minute"},
		{Limit{Count: 200, Period: 24 * time.Hour}, "200 per 1 day"},
		{Limit{Count: 100, Period: 2 * time.Hour}, "100 per 2 hours"},
		{Limit{Count: 3, Period: 90 * time.Second}, "3 per 90 seconds"},
	}
	for _, tt := range tests {
		if got := tt.l.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
