package usecase

import (
	"regexp"
	"strings"

	"Newsroom/internal/domain"
)

// Brief kinds, also used as metric labels.
const (
	KindFeedItem = "feed"
	KindPauta    = "pauta"
	KindPrompt   = "prompt"
)

// Outline is everything the orchestrator needs to know about a brief.
type Outline struct {
	Kind       string
	OwnerID    string
	Subject    string
	Summary    string
	Prompt     string
	ImageHint  string
	References []domain.Reference
}

// Brief is a topic to be turned into a draft article.
type Brief interface {
	Outline() Outline
}

// FeedItemBrief converts a stored feed item.
type FeedItemBrief struct {
	OwnerID string
	Item    domain.FeedItem
}

// Outline references the item page and hints its extracted image.
func (b FeedItemBrief) Outline() Outline {
	return Outline{
		Kind:       KindFeedItem,
		OwnerID:    b.OwnerID,
		Subject:    b.Item.Title,
		Summary:    b.Item.Summary,
		ImageHint:  b.Item.ImageURL,
		References: []domain.Reference{{Name: b.Item.Title, URL: b.Item.URL}},
	}
}

// PautaBrief converts a curated pauta.
type PautaBrief struct {
	Pauta domain.Pauta
}

// Outline references every pauta source with a URL.
func (b PautaBrief) Outline() Outline {
	refs := make([]domain.Reference, 0, len(b.Pauta.Sources))
	for _, src := range b.Pauta.Sources {
		if strings.TrimSpace(src.URL) != "" {
			refs = append(refs, src)
		}
	}
	return Outline{
		Kind:       KindPauta,
		OwnerID:    b.Pauta.OwnerID,
		Subject:    b.Pauta.Subject,
		Summary:    b.Pauta.Summary,
		References: refs,
	}
}

// PromptBrief converts free text written by an editor.
type PromptBrief struct {
	OwnerID string
	Prompt  string
}

var promptURL = regexp.MustCompile(`https?://[^\s<>"'()\[\]]+`)

// Outline treats every URL in the prompt as a reference.
func (b PromptBrief) Outline() Outline {
	var refs []domain.Reference
	seen := make(map[string]bool)
	for _, u := range promptURL.FindAllString(b.Prompt, -1) {
		u = strings.TrimRight(u, ".,;:!?")
		if seen[u] {
			continue
		}
		seen[u] = true
		refs = append(refs, domain.Reference{URL: u})
	}

	return Outline{
		Kind:       KindPrompt,
		OwnerID:    b.OwnerID,
		Subject:    firstLine(b.Prompt),
		Prompt:     strings.TrimSpace(b.Prompt),
		References: refs,
	}
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
