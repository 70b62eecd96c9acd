package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestInScope(t *testing.T) {
	snap := testSnapshot(t)
	classifier := NewClassifier(zap.NewNop())

	cases := []struct {
		name string
		text string
		want bool
	}{
		{"plain greeting", "hello", false},
		{"casual greeting", "hey what s up", false},
		{"thanks", "thanks", false},
		{"discount keyword", "do you have a discount code", true},
		{"sent me phrase", "casey sent me", true},
		{"story keyword", "saw it on your story", true},
		{"mention", "@mkbhd told me about you", true},
		{"from handle", "i come from petermckinnon24", true},
		{"greeting rescued by mention", "hello from @casey_neistat", true},
		{"greeting rescued by alias", "hi lily sent me here", true},
		{"misspelled creator with promo", "marqes brwnli promo", true},
		{"unrelated question", "what is the weather today", false},
		{"unrelated statement", "my order has not arrived yet", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifier.InScope(Normalize(tc.text), snap)
			assert.Equal(t, tc.want, got, "text: %q", tc.text)
		})
	}
}
