package llmjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: ` {"a":1} `, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n[1,2]\n```", want: `[1,2]`},
		{name: "inline fence", in: "```{\"a\":1}```", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestDecodeWithSurroundingProse(t *testing.T) {
	t.Parallel()

	var out struct {
		Items []string `json:"items"`
	}
	err := Decode("Here you go:\n```json\n{\"items\":[\"a\",\"b\"]}\n```\nThanks", &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Items)
}

func TestDecodeRejectsProse(t *testing.T) {
	t.Parallel()

	var out map[string]any
	err := Decode("sorry, I cannot help", &out)
	require.ErrorIs(t, err, ErrNoPayload)

	err = Decode("{not json}", &out)
	require.Error(t, err)
}

func TestDecodeIgnoresTrailingBraces(t *testing.T) {
	t.Parallel()

	var out struct {
		Items []string `json:"items"`
	}
	err := Decode("Claro! Aqui está:\n{\"items\":[]}\nEspero ter ajudado {:}", &out)
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	var tags []string
	require.NoError(t, Decode(`["economia","inflação"] (ver também [outras])`, &tags))
	assert.Equal(t, []string{"economia", "inflação"}, tags)
}

func TestExtractReturnsFirstValue(t *testing.T) {
	t.Parallel()

	got, err := Extract(`antes {"a":{"b":"}"}} depois {"c":2}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"b":"}"}}`, got)

	_, err = Extract(`{"a":`)
	require.Error(t, err)
}

func TestExtractSkipsBracesInLeadingProse(t *testing.T) {
	t.Parallel()

	got, err := Extract(`Segue a lista [resumida]: {"items":["a"]}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":["a"]}`, got)
}
