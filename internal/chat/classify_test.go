package chat

import "testing"

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "exact livestock", raw: "livestock", want: QueryLivestock},
		{name: "exact general", raw: "general", want: QueryGeneral},
		{name: "uppercase", raw: "LIVESTOCK", want: QueryLivestock},
		{name: "quoted", raw: `"livestock"`, want: QueryLivestock},
		{name: "trailing period", raw: "livestock.", want: QueryLivestock},
		{name: "whitespace", raw: "  livestock\n", want: QueryLivestock},
		{name: "wrapped in sentence", raw: "The question is livestock-related.", want: QueryLivestock},
		{name: "unrecognized output", raw: "farming", want: QueryGeneral},
		{name: "empty", raw: "", want: QueryGeneral},
		{name: "refusal", raw: "I cannot classify this question.", want: QueryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseClassification(tt.raw); got != tt.want {
				t.Errorf("ParseClassification(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
