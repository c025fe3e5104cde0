package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"Newsroom/internal/domain"
	"Newsroom/internal/extractor"
	"Newsroom/internal/metrics"
	"Newsroom/internal/ports"
	"Newsroom/pkg/llmjson"
	"Newsroom/pkg/slug"
)

const (
	defaultTagLimit       = 5
	defaultContentChars   = 30000
	referenceConcurrency  = 4
	maxSlugRestarts       = 5
	fallbackSlug          = "rascunho"
	articleTokens         = 4096
	classificationTokens  = 64
	tagTokens             = 256
	articleTemperature    = 0.7
	classifierTemperature = 0.0
	tagTemperature        = 0.2
)

// OrchestratorDeps wires all driven adapters into the draft pipeline.
type OrchestratorDeps struct {
	Fetcher    ports.ContentFetcher
	Generator  ports.TextGenerator
	Images     ports.ImageResolver
	Articles   ports.ArticleRepository
	Categories ports.CategoryRepository
	Tags       ports.TagRepository
	FeedItems  ports.FeedItemRepository
	Pautas     ports.PautaRepository
	Notifier   ports.Notifier
	Logger     *slog.Logger

	// Rand picks personas; nil always selects the first one.
	Rand *rand.Rand
	// Now stamps PublishAt; defaults to time.Now.
	Now  func() time.Time

	TagLimit        int
	MaxContentChars int
}

// Orchestrator turns a Brief into a persisted draft article.
type Orchestrator struct {
	fetcher    ports.ContentFetcher
	generator  ports.TextGenerator
	images     ports.ImageResolver
	articles   ports.ArticleRepository
	categories ports.CategoryRepository
	tags       ports.TagRepository
	feedItems  ports.FeedItemRepository
	pautas     ports.PautaRepository
	notifier   ports.Notifier
	logger     *slog.Logger

	rngMu    sync.Mutex
	rng      *rand.Rand
	now      func() time.Time
	policy   *bluemonday.Policy
	tagLimit int
	maxChars int
}

// NewOrchestrator constructs the draft use case.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	o := &Orchestrator{
		fetcher:    deps.Fetcher,
		generator:  deps.Generator,
		images:     deps.Images,
		articles:   deps.Articles,
		categories: deps.Categories,
		tags:       deps.Tags,
		feedItems:  deps.FeedItems,
		pautas:     deps.Pautas,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
		rng:        deps.Rand,
		now:        deps.Now,
		policy:     bluemonday.UGCPolicy(),
		tagLimit:   deps.TagLimit,
		maxChars:   deps.MaxContentChars,
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.tagLimit <= 0 {
		o.tagLimit = defaultTagLimit
	}
	if o.maxChars <= 0 {
		o.maxChars = defaultContentChars
	}
	return o
}

type fetchedSource struct {
	ref  domain.Reference
	text string
}

type generatedArticle struct {
	Titulo   string `json:"titulo"`
	Chamada  string `json:"chamada"`
	Conteudo string `json:"conteudo"`
}

// GenerateDraft runs content assembly, article generation, image resolution, categorization,
// tagging and slug resolution, then persists the draft. Only missing content, generation
// failures and storage failures abort.
func (o *Orchestrator) GenerateDraft(ctx context.Context, brief Brief) (*domain.Article, error) {
	if o.generator == nil || o.articles == nil || o.images == nil {
		return nil, errors.New("orchestrator: text generator, image resolver and article repository are required")
	}

	outline := brief.Outline()

	sources := o.assemble(ctx, outline.References)
	if len(sources) == 0 && (len(outline.References) > 0 || outline.Prompt == "") {
		o.record(outline.Kind, "error")
		return nil, domain.ErrNoContent
	}

	generated, err := o.writeArticle(ctx, outline, sources)
	if err != nil {
		o.record(outline.Kind, "error")
		return nil, err
	}

	article := &domain.Article{
		OwnerID: outline.OwnerID,
		Title:   generated.Titulo,
		Chamada: generated.Chamada,
		Body:    generated.Conteudo,
		Status:  domain.StatusDraft,
	}

	article.Images = []string{o.coverImage(ctx, outline, sources)}
	article.CategoryID = o.categorize(ctx, outline.OwnerID, article)
	article.TagIDs = o.assignTags(ctx, outline.OwnerID, article)
	article.PublishAt = o.now().UTC()

	if err := o.persist(ctx, article); err != nil {
		o.record(outline.Kind, "error")
		return nil, err
	}

	o.record(outline.Kind, "ok")
	o.log(slog.LevelInfo, "draft created", "kind", outline.Kind, "slug", article.Slug, "tags", len(article.TagIDs))
	o.notify(ctx, article)
	return article, nil
}

// assemble fetches every reference concurrently. Failed references are dropped.
func (o *Orchestrator) assemble(ctx context.Context, refs []domain.Reference) []fetchedSource {
	if len(refs) == 0 || o.fetcher == nil {
		return nil
	}

	results := make([]*fetchedSource, len(refs))

	var g errgroup.Group
	g.SetLimit(referenceConcurrency)
	for i, ref := range refs {
		g.Go(func() error {
			text, err := o.fetcher.Fetch(ctx, ref.URL)
			if err != nil {
				o.log(slog.LevelWarn, "reference fetch failed", "url", ref.URL, "error", err)
				return nil
			}
			if strings.TrimSpace(text) == "" {
				return nil
			}
			results[i] = &fetchedSource{ref: ref, text: text}
			return nil
		})
	}
	_ = g.Wait()

	sources := make([]fetchedSource, 0, len(results))
	for _, r := range results {
		if r != nil {
			sources = append(sources, *r)
		}
	}
	return sources
}

func (o *Orchestrator) writeArticle(ctx context.Context, outline Outline, sources []fetchedSource) (generatedArticle, error) {
	persona := o.pickPersona()

	system := fmt.Sprintf(`Você é um jornalista (%s) de um portal de notícias brasileiro. Tom de voz: %s.
Escreva uma matéria original em português do Brasil com base no material fornecido.
Responda SOMENTE com um objeto JSON: {"titulo":"...","chamada":"...","conteudo":"..."}
"chamada" é um subtítulo de uma frase. "conteudo" é o corpo em HTML usando apenas <p>, <h2>, <ul>, <li>, <strong>, <em> e <a>.`,
		persona.Name, persona.Voice)

	var user strings.Builder
	if outline.Subject != "" {
		fmt.Fprintf(&user, "Assunto: %s\n", outline.Subject)
	}
	if outline.Summary != "" {
		fmt.Fprintf(&user, "Resumo: %s\n", outline.Summary)
	}
	user.WriteString("\nMATERIAL:\n")
	user.WriteString(o.content(outline, sources))

	answer, err := o.generator.Generate(ctx, ports.Prompt{
		System:      system,
		User:        user.String(),
		Temperature: articleTemperature,
		MaxTokens:   articleTokens,
	})
	if err != nil {
		return generatedArticle{}, fmt.Errorf("generate article: %w", err)
	}

	var out generatedArticle
	if err := llmjson.Decode(answer, &out); err != nil {
		return generatedArticle{}, fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}

	out.Titulo = strings.TrimSpace(out.Titulo)
	out.Chamada = strings.TrimSpace(out.Chamada)
	out.Conteudo = strings.TrimSpace(o.policy.Sanitize(out.Conteudo))

	var missing []string
	if out.Titulo == "" {
		missing = append(missing, "titulo")
	}
	if out.Chamada == "" {
		missing = append(missing, "chamada")
	}
	if out.Conteudo == "" {
		missing = append(missing, "conteudo")
	}
	if len(missing) > 0 {
		return generatedArticle{}, fmt.Errorf("%w: missing %s", domain.ErrInvalidResponse, strings.Join(missing, ", "))
	}
	return out, nil
}

// content joins fetched sources, or falls back to the raw prompt when the brief had no references.
func (o *Orchestrator) content(outline Outline, sources []fetchedSource) string {
	if len(sources) == 0 {
		return extractor.Truncate(outline.Prompt, o.maxChars)
	}

	budget := o.maxChars / len(sources)
	var b strings.Builder
	if outline.Prompt != "" {
		fmt.Fprintf(&b, "Pedido do editor: %s\n\n", outline.Prompt)
	}
	for _, src := range sources {
		name := src.ref.Name
		if name == "" {
			name = src.ref.URL
		}
		fmt.Fprintf(&b, "FONTE: %s (%s)\n%s\n\n", name, src.ref.URL, extractor.Truncate(src.text, budget))
	}
	return b.String()
}

func (o *Orchestrator) coverImage(ctx context.Context, outline Outline, sources []fetchedSource) string {
	var pageURL, markdown string
	if len(sources) > 0 {
		pageURL, markdown = sources[0].ref.URL, sources[0].text
	}
	return o.images.ResolveCoverImage(ctx, pageURL, markdown, outline.ImageHint)
}

// categorize returns a category id only when the model names one of the owner's categories.
func (o *Orchestrator) categorize(ctx context.Context, ownerID string, article *domain.Article) *int64 {
	if o.categories == nil {
		return nil
	}

	categories, err := o.categories.ListCategories(ctx, ownerID)
	if err != nil {
		o.degrade("category", "list categories failed", err)
		return nil
	}
	if len(categories) == 0 {
		return nil
	}

	valid := make(map[int64]bool, len(categories))
	var list strings.Builder
	for _, c := range categories {
		valid[c.ID] = true
		fmt.Fprintf(&list, "%d: %s\n", c.ID, c.Name)
	}

	answer, err := o.generator.Generate(ctx, ports.Prompt{
		System: `Classifique a matéria em uma das categorias listadas.
Responda SOMENTE com o número da categoria ou com a palavra null se nenhuma servir.`,
		User:        fmt.Sprintf("Categorias:\n%s\nTítulo: %s\nChamada: %s", list.String(), article.Title, article.Chamada),
		Temperature: classifierTemperature,
		MaxTokens:   classificationTokens,
	})
	if err != nil {
		o.degrade("category", "categorization failed", err)
		return nil
	}

	id, ok := ParseCategoryID(answer)
	if !ok || !valid[id] {
		o.log(slog.LevelDebug, "no category assigned", "answer", answer)
		return nil
	}
	return &id
}

// ParseCategoryID accepts a bare integer, optionally fenced or quoted. "null" and anything else yield false.
func ParseCategoryID(answer string) (int64, bool) {
	value := strings.TrimSpace(llmjson.StripFences(answer))
	value = strings.Trim(value, "\"'`. ")
	if value == "" || strings.EqualFold(value, "null") {
		return 0, false
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (o *Orchestrator) assignTags(ctx context.Context, ownerID string, article *domain.Article) []int64 {
	ids := []int64{}
	if o.tags == nil {
		return ids
	}

	answer, err := o.generator.Generate(ctx, ports.Prompt{
		System: fmt.Sprintf(`Sugira até %d tags curtas para a matéria.
Responda SOMENTE com um array JSON de strings em minúsculas, por exemplo ["economia","inflação"].`, o.tagLimit),
		User:        fmt.Sprintf("Título: %s\nChamada: %s", article.Title, article.Chamada),
		Temperature: tagTemperature,
		MaxTokens:   tagTokens,
	})
	if err != nil {
		o.degrade("tags", "tag generation failed", err)
		return ids
	}

	var names []string
	if err := llmjson.Decode(answer, &names); err != nil {
		o.degrade("tags", "tag response is not a JSON array", err)
		return ids
	}

	seen := make(map[int64]bool)
	for _, name := range NormalizeTags(names, o.tagLimit) {
		tag, err := o.findOrCreateTag(ctx, ownerID, name)
		if err != nil {
			o.log(slog.LevelWarn, "tag skipped", "tag", name, "error", err)
			continue
		}
		if !seen[tag.ID] {
			seen[tag.ID] = true
			ids = append(ids, tag.ID)
		}
	}
	return ids
}

// NormalizeTags lowercases, trims and dedupes names, keeping at most limit in order.
func NormalizeTags(names []string, limit int) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (o *Orchestrator) findOrCreateTag(ctx context.Context, ownerID, name string) (domain.Tag, error) {
	tag, err := o.tags.FindTagByName(ctx, ownerID, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Tag{}, fmt.Errorf("find tag: %w", err)
	}

	tag, err = o.tags.CreateTag(ctx, ownerID, name)
	if errors.Is(err, domain.ErrDuplicate) {
		return o.tags.FindTagByName(ctx, ownerID, name)
	}
	if err != nil {
		return domain.Tag{}, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

// persist resolves a free slug and inserts the draft, restarting the probe when a concurrent
// writer takes the slug between the check and the insert.
func (o *Orchestrator) persist(ctx context.Context, article *domain.Article) error {
	base := slug.Make(article.Title)
	if base == "" {
		base = fallbackSlug
	}

	for attempt := 0; attempt < maxSlugRestarts; attempt++ {
		free, err := o.ResolveSlug(ctx, base)
		if err != nil {
			return err
		}
		article.Slug = free

		err = o.articles.CreateArticle(ctx, article)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return fmt.Errorf("persist draft: %w", err)
		}
		o.log(slog.LevelDebug, "slug taken at insert, probing again", "slug", free)
	}
	return fmt.Errorf("persist draft: slug %q still colliding after %d attempts: %w", base, maxSlugRestarts, domain.ErrDuplicate)
}

// ResolveSlug returns base, or base-N for the smallest N whose slug is free. Every candidate is checked
// against the store.
func (o *Orchestrator) ResolveSlug(ctx context.Context, base string) (string, error) {
	candidate := base
	for n := 1; ; n++ {
		taken, err := o.articles.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = slug.WithSuffix(base, n)
	}
}

func (o *Orchestrator) pickPersona() domain.Persona {
	o.rngMu.Lock()
	defer o.rngMu.Unlock()
	return PickPersona(o.rng)
}

func (o *Orchestrator) notify(ctx context.Context, article *domain.Article) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.Notify(ctx, fmt.Sprintf("Novo rascunho: %s (/%s)", article.Title, article.Slug)); err != nil {
		o.log(slog.LevelWarn, "draft notification failed", "error", err)
	}
}

func (o *Orchestrator) record(kind, status string) {
	if kind == "" {
		kind = "unknown"
	}
	metrics.RecordDraft(kind, status)
}

func (o *Orchestrator) degrade(stage, msg string, err error) {
	metrics.RecordStageFailure(stage)
	o.log(slog.LevelWarn, msg, "error", err)
}

func (o *Orchestrator) log(level slog.Level, msg string, args ...any) {
	if o.logger != nil {
		o.logger.Log(context.Background(), level, msg, args...)
	}
}
