package usecase

import (
	"math/rand/v2"

	"Newsroom/internal/domain"
)

var personas = []domain.Persona{
	{Name: "repórter", Voice: "objetivo e factual, frases curtas, sem adjetivos desnecessários"},
	{Name: "analista", Voice: "analítico, contextualiza números e consequências para o leitor"},
	{Name: "cronista", Voice: "leve e próximo do leitor, sem perder a precisão dos fatos"},
	{Name: "editor", Voice: "sóbrio e direto, prioriza o que mudou e por que importa"},
}

// Personas returns the available editorial voices.
func Personas() []domain.Persona {
	out := make([]domain.Persona, len(personas))
	copy(out, personas)
	return out
}

// PickPersona draws a voice from rng. A nil rng always yields the first persona.
func PickPersona(rng *rand.Rand) domain.Persona {
	if rng == nil {
		return personas[0]
	}
	return personas[rng.IntN(len(personas))]
}
