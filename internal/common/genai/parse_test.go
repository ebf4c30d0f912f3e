// internal/common/genai/parse_test.go
package genai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
		check   func(t *testing.T, needs DataNeeds)
	}{
		{
			name: "plain JSON",
			text: `{"needsPrecedentSearch": true, "needsPolicyRegistry": false, "needsConstraintRegistry": true, "additionalQueries": ["flood zone 3"]}`,
			check: func(t *testing.T, needs DataNeeds) {
				assert.True(t, needs.NeedsPrecedentSearch)
				assert.False(t, needs.NeedsPolicyRegistry)
				assert.Equal(t, []string{"flood zone 3"}, needs.AdditionalQueries)
			},
		},
		{
			name: "markdown fenced",
			text: "```json\n{\"needsPrecedentSearch\": false, \"needsPolicyRegistry\": true}\n```",
			check: func(t *testing.T, needs DataNeeds) {
				assert.False(t, needs.NeedsPrecedentSearch)
				assert.True(t, needs.NeedsPolicyRegistry)
			},
		},
		{
			name: "JSON wrapped in prose",
			text: `Here is my assessment: {"needsPrecedentSearch": true} I hope that helps.`,
			check: func(t *testing.T, needs DataNeeds) {
				assert.True(t, needs.NeedsPrecedentSearch)
			},
		},
		{
			name:    "no JSON at all",
			text:    "I cannot answer that question.",
			wantErr: true,
		},
		{
			name:    "broken JSON",
			text:    `{"needsPrecedentSearch": tru`,
			wantErr: true,
		},
		{
			name:    "empty",
			text:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var needs DataNeeds
			err := ExtractJSON(tt.text, &needs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, needs)
		})
	}
}

func TestConservativeDataNeeds(t *testing.T) {
	needs := ConservativeDataNeeds()

	assert.True(t, needs.NeedsPrecedentSearch)
	assert.True(t, needs.NeedsPolicyRegistry)
	assert.True(t, needs.NeedsConstraintRegistry)
	assert.Empty(t, needs.AdditionalQueries)
}
