package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"object in prose", `Here you go: {"a":1} enjoy`, `{"a":1}`, true},
		{"fenced object", "```json\n{\"a\":1}\n```", "{\"a\":1}", true},
		{"array", `[1,2,3]`, `[1,2,3]`, true},
		{"nested braces", `{"a":{"b":"}"}}`, `{"a":{"b":"}"}}`, true},
		{"escaped quote in string", `{"a":"say \"hi\""}`, `{"a":"say \"hi\""}`, true},
		{"no json", "just words", "", false},
		{"unbalanced", `{"a":1`, "", false},
		{"invalid inside braces", `{a:1}`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
