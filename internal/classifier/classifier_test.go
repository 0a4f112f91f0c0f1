package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
	}{
		{name: "plain object", content: `{"a":["x"]}`, want: `{"a":["x"]}`},
		{name: "surrounding space", content: "\n {\"a\":[]} \n", want: `{"a":[]}`},
		{name: "code fence", content: "```json\n{\"a\":[\"x\"]}\n```", want: `{"a":["x"]}`},
		{name: "prose", content: `Here you go: {"a":["x"]} done`, want: `{"a":["x"]}`},
		{name: "empty", content: "  ", wantErr: ErrEmptyResponse},
		{name: "no object", content: "sorry", wantErr: ErrMalformedResult},
		{name: "broken object", content: `{"a":[}`, wantErr: ErrMalformedResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractObject(tt.content)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewResult(t *testing.T) {
	r, err := newResult(`{"blocked":["a"],"do_next":[]}`)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Fields())
	assert.Equal(t, []string{"a"}, r.Data.Lookup("blocked").Items())
	assert.False(t, r.Cached)

	_, err = newResult(`["a"]`)
	assert.ErrorIs(t, err, ErrMalformedResult)
}
