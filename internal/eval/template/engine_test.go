package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Render(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name string
		tmpl string
		data map[string]interface{}
		want string
	}{
		{
			name: "join string slice",
			tmpl: `{{join fields ", "}}`,
			data: map[string]interface{}{"fields": []string{"blocked", "do_next"}},
			want: "blocked, do_next",
		},
		{
			name: "join non slice",
			tmpl: `[{{join fields ", "}}]`,
			data: map[string]interface{}{"fields": "x"},
			want: "[]",
		},
		{
			name: "trim",
			tmpl: `{{trim text}}`,
			data: map[string]interface{}{"text": "  hi  "},
			want: "hi",
		},
		{
			name: "default",
			tmpl: `{{default model "gpt-4o-mini"}}`,
			data: map[string]interface{}{"model": ""},
			want: "gpt-4o-mini",
		},
		{
			name: "triple stash keeps quotes",
			tmpl: `{{{schema}}}`,
			data: map[string]interface{}{"schema": `{"type":"object"}`},
			want: `{"type":"object"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Render(tt.tmpl, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_NewEngineTwice(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = NewEngine()
		_ = NewEngine()
	})
}

func TestEngine_CacheAndValidate(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Render("{{a}}", map[string]interface{}{"a": 1})
	require.NoError(t, err)
	_, err = engine.Render("{{a}}", map[string]interface{}{"a": 2})
	require.NoError(t, err)
	assert.Len(t, engine.cache, 1)

	engine.ClearCache()
	assert.Empty(t, engine.cache)

	assert.NoError(t, engine.ValidateTemplate("{{#if a}}x{{/if}}"))
	assert.Error(t, engine.ValidateTemplate("{{#if a}}x"))

	_, err = engine.Render("{{#if a}}x", nil)
	assert.Error(t, err)
}
