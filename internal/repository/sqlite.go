package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SergeiKhy/sus/internal/models"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteDB is the local-development store (DB_DRIVER=sqlite).
type SQLiteDB struct {
	DB *sql.DB
}

// NewSQLiteDB opens (or creates) the database at path. Use ":memory:" in tests.
func NewSQLiteDB(ctx context.Context, path string) (*SQLiteDB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// One connection serialises writers; it also keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return &SQLiteDB{DB: db}, nil
}

func (db *SQLiteDB) Close() error {
	return db.DB.Close()
}

type sqliteLinkRepository struct {
	db      *SQLiteDB
	nowFunc func() time.Time
}

func NewSQLiteLinkRepository(db *SQLiteDB) LinkRepository {
	return &sqliteLinkRepository{
		db:      db,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func (r *sqliteLinkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (id, short_code, original_url, user_id, external_account_id, clicks, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`

	id := uuid.NewString()
	createdAt := r.nowFunc()

	_, err := r.db.DB.ExecContext(ctx, query,
		id,
		link.ShortCode,
		link.OriginalURL,
		link.OwnerUserID,
		nullString(link.ExternalAccountID),
		createdAt,
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	link.ID = id
	link.Clicks = 0
	link.CreatedAt = createdAt
	link.LastClickedAt = nil

	return nil
}

func (r *sqliteLinkRepository) Exists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM links WHERE short_code = ?)`

	var exists bool
	if err := r.db.DB.QueryRowContext(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}

	return exists, nil
}

func (r *sqliteLinkRepository) IncrementClicks(ctx context.Context, code string) (string, error) {
	query := `
		UPDATE links
		SET clicks = clicks + 1, last_clicked_at = ?
		WHERE short_code = ?
		RETURNING original_url
	`

	var originalURL string
	err := r.db.DB.QueryRowContext(ctx, query, r.nowFunc(), code).Scan(&originalURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to resolve link: %w", err)
	}

	return originalURL, nil
}

func (r *sqliteLinkRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	query := `
		SELECT id, short_code, original_url, user_id, external_account_id,
			clicks, created_at, last_clicked_at
		FROM links
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		var link models.Link
		if err := scanSQLiteLink(rows, &link); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

func (r *sqliteLinkRepository) Get(ctx context.Context, id, ownerID string) (*models.Link, error) {
	query := `
		SELECT id, short_code, original_url, user_id, external_account_id,
			clicks, created_at, last_clicked_at
		FROM links
		WHERE id = ? AND user_id = ?
	`

	link := &models.Link{}
	if err := scanSQLiteLink(r.db.DB.QueryRowContext(ctx, query, id, ownerID), link); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

func (r *sqliteLinkRepository) Delete(ctx context.Context, id, ownerID string) (string, error) {
	query := `DELETE FROM links WHERE id = ? AND user_id = ? RETURNING short_code`

	var code string
	if err := r.db.DB.QueryRowContext(ctx, query, id, ownerID).Scan(&code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to delete link: %w", err)
	}

	return code, nil
}

func (r *sqliteLinkRepository) Ping(ctx context.Context) error {
	return r.db.DB.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteLink(row rowScanner, link *models.Link) error {
	var (
		accountID     sql.NullString
		lastClickedAt sql.NullTime
	)

	err := row.Scan(
		&link.ID,
		&link.ShortCode,
		&link.OriginalURL,
		&link.OwnerUserID,
		&accountID,
		&link.Clicks,
		&link.CreatedAt,
		&lastClickedAt,
	)
	if err != nil {
		return err
	}

	if accountID.Valid {
		link.ExternalAccountID = &accountID.String
	}
	if lastClickedAt.Valid {
		t := lastClickedAt.Time
		link.LastClickedAt = &t
	}

	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isSQLiteUnique(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
