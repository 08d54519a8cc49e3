package storage

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"ArticlesDigest/internal/domain"
)

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestAlreadyStored(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM items WHERE id = ANY($1)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("c"))

	got, err := repo.AlreadyStored(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("AlreadyStored: %v", err)
	}
	if !got["a"] || got["b"] || !got["c"] {
		t.Fatalf("unexpected result: %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAlreadyStoredEmptyInputSkipsQuery(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	got, err := repo.AlreadyStored(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("AlreadyStored(nil) = %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAddItemWritesItemAndTags(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	item := domain.Item{
		ID:          "x1",
		Title:       "Title",
		URL:         "https://example.org/x1",
		Body:        "body",
		Source:      "blog",
		PublishedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Tags:        []string{"ai", "go"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO items (id,title,url,published_at,source,body,author) VALUES ($1,$2,$3,$4,$5,$6,$7) ON CONFLICT (id) DO NOTHING`)).
		WithArgs("x1", "Title", "https://example.org/x1", sqlmock.AnyArg(), "blog", "body", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO item_tags (item_id,tag) VALUES ($1,$2),($3,$4) ON CONFLICT DO NOTHING`)).
		WithArgs("x1", "ai", "x1", "go").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := repo.AddItem(context.Background(), item); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAddItemRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO items`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.AddItem(context.Background(), domain.Item{ID: "x1", Title: "t", Source: "s"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecentItemsAttachesTags(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := since.Add(48 * time.Hour)
	older := since.Add(24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, title, url, published_at, source, body, author FROM items WHERE published_at >= $1 ORDER BY published_at DESC, id`)).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "url", "published_at", "source", "body", "author"}).
			AddRow("b", "B", "https://b", newer, "blog", "bb", "").
			AddRow("a", "A", "https://a", older, "blog", "aa", "Ann"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT item_id, tag FROM item_tags WHERE item_id = ANY($1) ORDER BY item_id, tag`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "tag"}).
			AddRow("a", "go").
			AddRow("b", "ai").
			AddRow("b", "ml"))

	items, err := repo.RecentItems(context.Background(), since)
	if err != nil {
		t.Fatalf("RecentItems: %v", err)
	}
	if len(items) != 2 || items[0].ID != "b" || items[1].Author != "Ann" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if !slices.Equal(items[0].Tags, []string{"ai", "ml"}) || !slices.Equal(items[1].Tags, []string{"go"}) {
		t.Fatalf("unexpected tags: %v / %v", items[0].Tags, items[1].Tags)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecentItemsEmpty(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	mock.ExpectQuery(`SELECT id, title`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "url", "published_at", "source", "body", "author"}))

	items, err := repo.RecentItems(context.Background(), time.Now())
	if err != nil || len(items) != 0 {
		t.Fatalf("RecentItems = %v, %v", items, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveSummary(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET summary = $1 WHERE id = $2`)).
		WithArgs("short version", "x1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveSummary(context.Background(), "x1", "short version"); err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStoredSummaries(t *testing.T) {
	t.Parallel()

	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, summary FROM items WHERE id = ANY($1) AND summary <> $2`)).
		WithArgs(sqlmock.AnyArg(), "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "summary"}).AddRow("a", "cached a"))

	got, err := repo.StoredSummaries(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("StoredSummaries: %v", err)
	}
	if len(got) != 1 || got["a"] != "cached a" {
		t.Fatalf("unexpected summaries: %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	t.Parallel()

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 || len(entries)%2 != 0 {
		t.Fatalf("expected up/down pairs, got %d files", len(entries))
	}
}

func TestMigrateRejectsUnknownDirection(t *testing.T) {
	t.Parallel()

	if err := Migrate("postgres://localhost:1/none?sslmode=disable", "sideways", 0); err == nil {
		t.Fatalf("expected error")
	}
}
