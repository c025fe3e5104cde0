package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{title: "Eleições 2026: o que muda?", want: "eleicoes-2026-o-que-muda"},
		{title: "  --Ação & Reação--  ", want: "acao-reacao"},
		{title: "São Paulo   registra   chuva", want: "sao-paulo-registra-chuva"},
		{title: "!!!", want: ""},
		{title: "Crème brûlée", want: "creme-brulee"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.title))
		})
	}
}

func TestWithSuffix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "base", WithSuffix("base", 0))
	assert.Equal(t, "base-3", WithSuffix("base", 3))
}
