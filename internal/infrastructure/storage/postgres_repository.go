package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ArticlesDigest/internal/domain"
	"ArticlesDigest/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists fetched items and their tags into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.ItemRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// AlreadyStored returns a map with IDs that already exist in storage.
func (r *PostgresRepository) AlreadyStored(ctx context.Context, ids []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if r.db == nil || len(ids) == 0 {
		return result, nil
	}

	query, args, err := psql.Select("id").
		From("items").
		Where("id = ANY(?)", pq.StringArray(ids)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stored query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stored: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// AddItem inserts the item and its tags in one transaction. Existing rows are left untouched.
func (r *PostgresRepository) AddItem(ctx context.Context, item domain.Item) (err error) {
	if r.db == nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	insertItem := psql.Insert("items").
		Columns("id", "title", "url", "published_at", "source", "body", "author").
		Values(item.ID, item.Title, item.URL, item.PublishedAt.UTC(), item.Source, item.Body, item.Author).
		Suffix("ON CONFLICT (id) DO NOTHING")
	if _, err = insertItem.RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("insert item: %w", err)
	}

	if len(item.Tags) > 0 {
		insertTags := psql.Insert("item_tags").Columns("item_id", "tag")
		for _, tag := range item.Tags {
			insertTags = insertTags.Values(item.ID, tag)
		}
		insertTags = insertTags.Suffix("ON CONFLICT DO NOTHING")
		if _, err = insertTags.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("insert tags: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit item: %w", err)
	}
	return nil
}

// RecentItems returns items published at or after since, newest first.
func (r *PostgresRepository) RecentItems(ctx context.Context, since time.Time) ([]domain.Item, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := psql.Select("id", "title", "url", "published_at", "source", "body", "author").
		From("items").
		Where(sq.GtOrEq{"published_at": since.UTC()}).
		OrderBy("published_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var (
		items []domain.Item
		index = map[string]int{}
	)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Title, &item.URL, &item.PublishedAt, &item.Source, &item.Body, &item.Author); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		index[item.ID] = len(items)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	if len(items) == 0 {
		return items, nil
	}

	if err := r.attachTags(ctx, items, index); err != nil {
		return nil, err
	}
	return items, nil
}

// StoredSummaries returns summaries saved by earlier digest runs, keyed by item id.
func (r *PostgresRepository) StoredSummaries(ctx context.Context, ids []string) (map[string]string, error) {
	result := make(map[string]string)
	if r.db == nil || len(ids) == 0 {
		return result, nil
	}

	query, args, err := psql.Select("id", "summary").
		From("items").
		Where("id = ANY(?)", pq.StringArray(ids)).
		Where(sq.NotEq{"summary": ""}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build summaries query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, summary string
		if err := rows.Scan(&id, &summary); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		result[id] = summary
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// SaveSummary records the generated summary next to the item.
func (r *PostgresRepository) SaveSummary(ctx context.Context, id, summary string) error {
	if r.db == nil {
		return nil
	}

	_, err := psql.Update("items").
		Set("summary", summary).
		Where(sq.Eq{"id": id}).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

func (r *PostgresRepository) attachTags(ctx context.Context, items []domain.Item, index map[string]int) error {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	query, args, err := psql.Select("item_id", "tag").
		From("item_tags").
		Where("item_id = ANY(?)", pq.StringArray(ids)).
		OrderBy("item_id", "tag").
		ToSql()
	if err != nil {
		return fmt.Errorf("build tags query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, tag string
		if err := rows.Scan(&itemID, &tag); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		if i, ok := index[itemID]; ok {
			items[i].Tags = append(items[i].Tags, tag)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration: %w", err)
	}
	return nil
}
