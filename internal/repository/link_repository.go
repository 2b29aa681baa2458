package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/sus/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrCodeExists   = errors.New("short code already exists")
)

// SQLSTATE коды PostgreSQL
const (
	pgUniqueViolation = "23505"
	pgInvalidText     = "22P02"
)

type LinkRepository interface {
	// Create inserts the link and fills ID, Clicks and CreatedAt.
	// Returns ErrCodeExists when the short code is already taken.
	Create(ctx context.Context, link *models.Link) error
	Exists(ctx context.Context, code string) (bool, error)
	// IncrementClicks bumps clicks and last_clicked_at in one statement
	// and returns the destination URL.
	IncrementClicks(ctx context.Context, code string) (string, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Link, error)
	Get(ctx context.Context, id, ownerID string) (*models.Link, error)
	// Delete removes the link only when ownerID matches and returns its short code.
	Delete(ctx context.Context, id, ownerID string) (string, error)
	Ping(ctx context.Context) error
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (short_code, original_url, user_id, external_account_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, clicks, created_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.ShortCode,
		link.OriginalURL,
		link.OwnerUserID,
		link.ExternalAccountID,
	).Scan(&link.ID, &link.Clicks, &link.CreatedAt)

	if err != nil {
		if hasCode(err, pgUniqueViolation) {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

func (r *linkRepository) Exists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM links WHERE short_code = $1)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}

	return exists, nil
}

func (r *linkRepository) IncrementClicks(ctx context.Context, code string) (string, error) {
	query := `
		UPDATE links
		SET clicks = clicks + 1, last_clicked_at = NOW()
		WHERE short_code = $1
		RETURNING original_url
	`

	var originalURL string
	err := r.db.Pool.QueryRow(ctx, query, code).Scan(&originalURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to resolve link: %w", err)
	}

	return originalURL, nil
}

func (r *linkRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	query := `
		SELECT id::text, short_code, original_url, user_id, external_account_id,
			clicks, created_at, last_clicked_at
		FROM links
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		var link models.Link
		if err := scanLink(rows, &link); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

func (r *linkRepository) Get(ctx context.Context, id, ownerID string) (*models.Link, error) {
	query := `
		SELECT id::text, short_code, original_url, user_id, external_account_id,
			clicks, created_at, last_clicked_at
		FROM links
		WHERE id = $1 AND user_id = $2
	`

	link := &models.Link{}
	err := scanLink(r.db.Pool.QueryRow(ctx, query, id, ownerID), link)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || hasCode(err, pgInvalidText) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

func (r *linkRepository) Delete(ctx context.Context, id, ownerID string) (string, error) {
	query := `DELETE FROM links WHERE id = $1 AND user_id = $2 RETURNING short_code`

	var code string
	err := r.db.Pool.QueryRow(ctx, query, id, ownerID).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || hasCode(err, pgInvalidText) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to delete link: %w", err)
	}

	return code, nil
}

func (r *linkRepository) Ping(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

func scanLink(row pgx.Row, link *models.Link) error {
	return row.Scan(
		&link.ID,
		&link.ShortCode,
		&link.OriginalURL,
		&link.OwnerUserID,
		&link.ExternalAccountID,
		&link.Clicks,
		&link.CreatedAt,
		&link.LastClickedAt,
	)
}

// hasCode проверяет SQLSTATE ошибки PostgreSQL
func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
