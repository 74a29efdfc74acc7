package ai

import "testing"

func TestCleanJSONString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain json", `{"decision":"accepted"}`, `{"decision":"accepted"}`},
		{"json fence", "```json\n{\"decision\":\"accepted\"}\n```", `{"decision":"accepted"}`},
		{"bare fence", "```\n{\"decision\":\"rejected\"}\n```", `{"decision":"rejected"}`},
		{"surrounding whitespace", "  \n{\"a\":1}\n  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONString(tt.input); got != tt.want {
				t.Errorf("cleanJSONString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
