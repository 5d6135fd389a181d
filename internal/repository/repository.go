package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"shortlink/internal/model"
)

var (
	// ErrNotFound signals an absent mapping.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a uniqueness race on short_code or original_url.
	// The database is the authoritative collision detector.
	ErrConflict = errors.New("conflict")
)

const uniqueViolation = "23505"

const mappingColumns = `id, short_code, original_url, click_count, last_accessed_at, created_at, updated_at`

// Repo is the durable store of code<->URL mappings and their click buckets.
type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) GetByShortCode(ctx context.Context, code string) (*model.URLMapping, error) {
	q := `SELECT ` + mappingColumns + ` FROM url_mappings WHERE short_code = $1`
	var m model.URLMapping
	if err := r.db.GetContext(ctx, &m, q, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repo) GetByOriginalURL(ctx context.Context, original string) (*model.URLMapping, error) {
	q := `SELECT ` + mappingColumns + ` FROM url_mappings WHERE original_url = $1`
	var m model.URLMapping
	if err := r.db.GetContext(ctx, &m, q, original); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create inserts a new mapping. A concurrent insert of the same code or URL
// surfaces as ErrConflict; the caller decides whether to re-read or retry
// with a fresh salt.
func (r *Repo) Create(ctx context.Context, code, original string) (*model.URLMapping, error) {
	q := `INSERT INTO url_mappings (short_code, original_url) VALUES ($1, $2) RETURNING ` + mappingColumns
	var m model.URLMapping
	if err := r.db.GetContext(ctx, &m, q, code, original); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create %q: %w", code, ErrConflict)
		}
		return nil, err
	}
	return &m, nil
}

// ReassignCode swaps the short code on an existing mapping, used when a
// custom name is attached to an already-shortened URL.
func (r *Repo) ReassignCode(ctx context.Context, m *model.URLMapping, newCode string) (*model.URLMapping, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	q := `UPDATE url_mappings SET short_code = $2, updated_at = now() WHERE id = $1 RETURNING ` + mappingColumns
	var updated model.URLMapping
	if err := tx.GetContext(ctx, &updated, q, m.ID, newCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("reassign %q: %w", newCode, ErrConflict)
		}
		return nil, err
	}

	// The reassignment lands in the hourly bucket as an access event.
	// TODO: confirm with product whether attaching a name should count
	// as a click.
	if err := recordClick(ctx, tx, m.ID, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &updated, nil
}

// IncrementClick bumps the mapping counter, stamps last_accessed_at, and
// feeds the hourly bucket, all in one transaction.
func (r *Repo) IncrementClick(ctx context.Context, m *model.URLMapping) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := `UPDATE url_mappings
	      SET click_count = click_count + 1, last_accessed_at = now(), updated_at = now()
	      WHERE id = $1`
	if _, err := tx.ExecContext(ctx, q, m.ID); err != nil {
		return err
	}

	if err := recordClick(ctx, tx, m.ID, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit()
}

// List returns a page of mappings, newest first.
func (r *Repo) List(ctx context.Context, offset, limit int) ([]model.URLMapping, error) {
	q := `SELECT ` + mappingColumns + ` FROM url_mappings ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	res := make([]model.URLMapping, 0, limit)
	if err := r.db.SelectContext(ctx, &res, q, limit, offset); err != nil {
		return nil, err
	}
	return res, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
