package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"Newsroom/internal/domain"
	"Newsroom/internal/ports"
)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists sources, feed items, pautas, articles and taxonomy into Postgres.
type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ ports.SourceRepository   = (*PostgresRepository)(nil)
	_ ports.FeedItemRepository = (*PostgresRepository)(nil)
	_ ports.PautaRepository    = (*PostgresRepository)(nil)
	_ ports.ArticleRepository  = (*PostgresRepository)(nil)
	_ ports.CategoryRepository = (*PostgresRepository)(nil)
	_ ports.TagRepository      = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS sources (
    id         TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL,
    title      TEXT NOT NULL,
    url        TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS feed_items (
    id           TEXT PRIMARY KEY,
    source_id    TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    title        TEXT NOT NULL,
    url          TEXT NOT NULL UNIQUE,
    summary      TEXT NOT NULL DEFAULT '',
    image_url    TEXT NOT NULL DEFAULT '',
    published_at TIMESTAMPTZ,
    read         BOOLEAN NOT NULL DEFAULT FALSE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS pautas (
    id           TEXT PRIMARY KEY,
    owner_id     TEXT NOT NULL,
    subject      TEXT NOT NULL,
    summary      TEXT NOT NULL DEFAULT '',
    source_names TEXT[] NOT NULL DEFAULT '{}',
    source_urls  TEXT[] NOT NULL DEFAULT '{}',
    read         BOOLEAN NOT NULL DEFAULT FALSE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS categories (
    id       BIGSERIAL PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tags (
    id       BIGSERIAL PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name     TEXT NOT NULL,
    UNIQUE (owner_id, name)
);
CREATE TABLE IF NOT EXISTS articles (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    title       TEXT NOT NULL,
    chamada     TEXT NOT NULL DEFAULT '',
    body        TEXT NOT NULL,
    slug        TEXT NOT NULL UNIQUE,
    status      TEXT NOT NULL,
    category_id BIGINT REFERENCES categories(id),
    tag_ids     BIGINT[] NOT NULL DEFAULT '{}',
    images      TEXT[] NOT NULL DEFAULT '{}',
    publish_at  TIMESTAMPTZ NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// EnsureSchema creates missing tables.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// ListSources returns sources of one owner, or of every owner when ownerID is empty.
func (r *PostgresRepository) ListSources(ctx context.Context, ownerID string) ([]domain.Source, error) {
	query, args, err := listSourcesQuery(ownerID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sources query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var result []domain.Source
	for rows.Next() {
		var s domain.Source
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Title, &s.URL, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

func listSourcesQuery(ownerID string) sq.SelectBuilder {
	q := psql.Select("id", "owner_id", "title", "url", "created_at").From("sources").OrderBy("created_at", "id")
	if ownerID != "" {
		q = q.Where(sq.Eq{"owner_id": ownerID})
	}
	return q
}

// CreateSource inserts a source, assigning an ID when missing.
func (r *PostgresRepository) CreateSource(ctx context.Context, source *domain.Source) error {
	r.stamp(&source.ID, &source.CreatedAt)

	query, args, err := psql.Insert("sources").
		Columns("id", "owner_id", "title", "url", "created_at").
		Values(source.ID, source.OwnerID, source.Title, source.URL, source.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build source insert: %w", err)
	}
	return r.exec(ctx, "insert source", query, args...)
}

// FeedItemExists reports whether an item with url is already stored.
func (r *PostgresRepository) FeedItemExists(ctx context.Context, url string) (bool, error) {
	query, args, err := psql.Select("1").From("feed_items").Where(sq.Eq{"url": url}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query feed item: %w", err)
	}
	return true, nil
}

// CreateFeedItem inserts item; a url collision yields domain.ErrDuplicate.
func (r *PostgresRepository) CreateFeedItem(ctx context.Context, item *domain.FeedItem) error {
	r.stamp(&item.ID, &item.CreatedAt)

	query, args, err := psql.Insert("feed_items").
		Columns("id", "source_id", "title", "url", "summary", "image_url", "published_at", "read", "created_at").
		Values(item.ID, item.SourceID, item.Title, item.URL, item.Summary, item.ImageURL, item.PublishedAt, item.Read, item.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build feed item insert: %w", err)
	}
	return r.exec(ctx, "insert feed item", query, args...)
}

// GetFeedItem loads one item by id.
func (r *PostgresRepository) GetFeedItem(ctx context.Context, id string) (domain.FeedItem, error) {
	query, args, err := psql.Select("id", "source_id", "title", "url", "summary", "image_url", "published_at", "read", "created_at").
		From("feed_items").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.FeedItem{}, fmt.Errorf("build feed item query: %w", err)
	}

	var (
		item      domain.FeedItem
		published sql.NullTime
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&item.ID, &item.SourceID, &item.Title, &item.URL, &item.Summary, &item.ImageURL, &published, &item.Read, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.FeedItem{}, fmt.Errorf("feed item %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.FeedItem{}, fmt.Errorf("scan feed item: %w", err)
	}
	if published.Valid {
		t := published.Time
		item.PublishedAt = &t
	}
	return item, nil
}

// MarkFeedItemRead sets the read flag.
func (r *PostgresRepository) MarkFeedItemRead(ctx context.Context, id string, read bool) error {
	query, args, err := psql.Update("feed_items").Set("read", read).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build feed item update: %w", err)
	}
	return r.execOne(ctx, "mark feed item", id, query, args...)
}

// DeleteFeedItems removes items by id and returns how many existed.
func (r *PostgresRepository) DeleteFeedItems(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM feed_items WHERE id = ANY($1)`, pq.StringArray(ids))
	if err != nil {
		return 0, fmt.Errorf("delete feed items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// GetPauta loads one pauta with its references.
func (r *PostgresRepository) GetPauta(ctx context.Context, id string) (domain.Pauta, error) {
	query, args, err := psql.Select("id", "owner_id", "subject", "summary", "source_names", "source_urls", "read", "created_at").
		From("pautas").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Pauta{}, fmt.Errorf("build pauta query: %w", err)
	}

	var (
		p           domain.Pauta
		names, urls pq.StringArray
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.OwnerID, &p.Subject, &p.Summary, &names, &urls, &p.Read, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Pauta{}, fmt.Errorf("pauta %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Pauta{}, fmt.Errorf("scan pauta: %w", err)
	}
	p.Sources = zipReferences(names, urls)
	return p, nil
}

// CreatePauta inserts a pauta.
func (r *PostgresRepository) CreatePauta(ctx context.Context, pauta *domain.Pauta) error {
	r.stamp(&pauta.ID, &pauta.CreatedAt)

	names := make(pq.StringArray, 0, len(pauta.Sources))
	urls := make(pq.StringArray, 0, len(pauta.Sources))
	for _, ref := range pauta.Sources {
		names = append(names, ref.Name)
		urls = append(urls, ref.URL)
	}

	query, args, err := psql.Insert("pautas").
		Columns("id", "owner_id", "subject", "summary", "source_names", "source_urls", "read", "created_at").
		Values(pauta.ID, pauta.OwnerID, pauta.Subject, pauta.Summary, names, urls, pauta.Read, pauta.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build pauta insert: %w", err)
	}
	return r.exec(ctx, "insert pauta", query, args...)
}

// MarkPautaRead flags a pauta as consumed.
func (r *PostgresRepository) MarkPautaRead(ctx context.Context, id string) error {
	query, args, err := psql.Update("pautas").Set("read", true).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build pauta update: %w", err)
	}
	return r.execOne(ctx, "mark pauta", id, query, args...)
}

// SlugExists reports whether an article already uses slug.
func (r *PostgresRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	query, args, err := psql.Select("1").From("articles").Where(sq.Eq{"slug": slug}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build slug query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query slug: %w", err)
	}
	return true, nil
}

// CreateArticle inserts a draft; a slug collision yields domain.ErrDuplicate.
func (r *PostgresRepository) CreateArticle(ctx context.Context, article *domain.Article) error {
	r.stamp(&article.ID, &article.CreatedAt)

	// nil arrays encode as NULL
	tagIDs := pq.Int64Array(article.TagIDs)
	if tagIDs == nil {
		tagIDs = pq.Int64Array{}
	}
	images := pq.StringArray(article.Images)
	if images == nil {
		images = pq.StringArray{}
	}

	query, args, err := psql.Insert("articles").
		Columns("id", "owner_id", "title", "chamada", "body", "slug", "status", "category_id", "tag_ids", "images", "publish_at", "created_at").
		Values(article.ID, article.OwnerID, article.Title, article.Chamada, article.Body, article.Slug, string(article.Status),
			article.CategoryID, tagIDs, images, article.PublishAt, article.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build article insert: %w", err)
	}
	return r.exec(ctx, "insert article", query, args...)
}

// ListCategories returns the owner's categories in id order.
func (r *PostgresRepository) ListCategories(ctx context.Context, ownerID string) ([]domain.Category, error) {
	query, args, err := psql.Select("id", "owner_id", "name").From("categories").
		Where(sq.Eq{"owner_id": ownerID}).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build categories query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// CreateCategory inserts a category and returns it with its id.
func (r *PostgresRepository) CreateCategory(ctx context.Context, ownerID, name string) (domain.Category, error) {
	query, args, err := psql.Insert("categories").Columns("owner_id", "name").Values(ownerID, name).Suffix("RETURNING id").ToSql()
	if err != nil {
		return domain.Category{}, fmt.Errorf("build category insert: %w", err)
	}

	c := domain.Category{OwnerID: ownerID, Name: name}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&c.ID); err != nil {
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

// FindTagByName matches the exact name within the owner scope.
func (r *PostgresRepository) FindTagByName(ctx context.Context, ownerID, name string) (domain.Tag, error) {
	query, args, err := psql.Select("id", "owner_id", "name").From("tags").
		Where(sq.Eq{"owner_id": ownerID, "name": name}).ToSql()
	if err != nil {
		return domain.Tag{}, fmt.Errorf("build tag query: %w", err)
	}

	var t domain.Tag
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&t.ID, &t.OwnerID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tag{}, fmt.Errorf("tag %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Tag{}, fmt.Errorf("scan tag: %w", err)
	}
	return t, nil
}

// CreateTag inserts a tag; a concurrent insert of the same name yields domain.ErrDuplicate.
func (r *PostgresRepository) CreateTag(ctx context.Context, ownerID, name string) (domain.Tag, error) {
	query, args, err := psql.Insert("tags").Columns("owner_id", "name").Values(ownerID, name).Suffix("RETURNING id").ToSql()
	if err != nil {
		return domain.Tag{}, fmt.Errorf("build tag insert: %w", err)
	}

	t := domain.Tag{OwnerID: ownerID, Name: name}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&t.ID); err != nil {
		return domain.Tag{}, translate("insert tag", err)
	}
	return t, nil
}

func (r *PostgresRepository) stamp(id *string, created *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if created.IsZero() {
		*created = r.now().UTC()
	}
}

func (r *PostgresRepository) exec(ctx context.Context, op, query string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return translate(op, err)
	}
	return nil
}

func (r *PostgresRepository) execOne(ctx context.Context, op, id, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, domain.ErrNotFound)
	}
	return nil
}

// translate maps unique violations onto domain.ErrDuplicate.
func translate(op string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func zipReferences(names, urls []string) []domain.Reference {
	refs := make([]domain.Reference, 0, len(urls))
	for i, u := range urls {
		ref := domain.Reference{URL: u}
		if i < len(names) {
			ref.Name = names[i]
		}
		refs = append(refs, ref)
	}
	return refs
}
