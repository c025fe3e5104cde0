package domain

import "time"

// ArticleStatus enumerates editorial states of an article.
type ArticleStatus string

// StatusDraft marks articles produced by the orchestrator.
const StatusDraft ArticleStatus = "RASCUNHO"

// Reference is a named link backing a brief.
type Reference struct {
	Name string
	URL  string
}

// Pauta is a curated topic proposal awaiting conversion into an article.
type Pauta struct {
	ID        string
	OwnerID   string
	Subject   string
	Summary   string
	Sources   []Reference
	Read      bool
	CreatedAt time.Time
}

// Article is the orchestrator output. Slug is globally unique.
type Article struct {
	ID         string
	OwnerID    string
	Title      string
	Chamada    string
	Body       string
	Slug       string
	Status     ArticleStatus
	CategoryID *int64
	TagIDs     []int64
	Images     []string
	PublishAt  time.Time
	CreatedAt  time.Time
}

// Category is an owner-scoped flat classification.
type Category struct {
	ID      int64
	OwnerID string
	Name    string
}

// Tag is an owner-scoped label created lazily by name.
type Tag struct {
	ID      int64
	OwnerID string
	Name    string
}

// Persona is the editorial voice used when writing an article.
type Persona struct {
	Name  string
	Voice string
}
