package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrLinkNotFound   = errors.New("link not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateShort = errors.New("short token already in use")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repository provides CRUD operations for links, hits and users.
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// isUniqueViolation reports whether err is a sqlite UNIQUE-constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		code == sqlite3.SQLITE_CONSTRAINT
}

// CreateLink inserts a new link. Returns ErrDuplicateShort when the token
// is already taken; in that case nothing is written.
func (r *Repository) CreateLink(ctx context.Context, short, original string) error {
	res, err := r.db.conn.ExecContext(ctx,
		"INSERT INTO links (short, original) VALUES (?, ?)", short, original)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateShort
		}
		return fmt.Errorf("failed to create link: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to create link %q: no rows written", short)
	}
	return nil
}

// GetLink retrieves a link by its short token.
func (r *Repository) GetLink(ctx context.Context, short string) (*Link, error) {
	link := &Link{}
	err := r.db.conn.QueryRowContext(ctx,
		"SELECT id, short, original FROM links WHERE short = ?", short,
	).Scan(&link.ID, &link.Short, &link.Original)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

// DeleteLink removes a link by token and returns the number of rows
// removed. Deleting a token that does not exist reports 0, not an error.
func (r *Repository) DeleteLink(ctx context.Context, short string) (int64, error) {
	res, err := r.db.conn.ExecContext(ctx, "DELETE FROM links WHERE short = ?", short)
	if err != nil {
		return 0, fmt.Errorf("failed to delete link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return affected, nil
}

// RecordHit appends a hit for the given link, stamped with the current
// wall-clock time. userAgent may be nil.
func (r *Repository) RecordHit(ctx context.Context, linkID int64, userAgent *string) error {
	_, err := r.db.conn.ExecContext(ctx,
		"INSERT INTO hits (link_id, time, user_agent) VALUES (?, ?, ?)",
		linkID, time.Now().Unix(), userAgent)
	if err != nil {
		return fmt.Errorf("failed to record hit: %w", err)
	}
	return nil
}

// ListLinks returns all links in insertion order, each with its hit count
// computed from the hits table.
func (r *Repository) ListLinks(ctx context.Context) ([]Link, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT
			l.id, l.short, l.original,
			(SELECT COUNT(h.id) FROM hits h WHERE h.link_id = l.id)
		FROM links l
		ORDER BY l.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ID, &l.Short, &l.Original, &l.HitCount); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// TotalHitCount returns the aggregate hit count across all links.
func (r *Repository) TotalHitCount(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.conn.QueryRowContext(ctx, "SELECT COUNT(id) FROM hits").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count hits: %w", err)
	}
	return total, nil
}

// CreateUser inserts a new user with an already-hashed password and
// returns the freshly created profile. Returns ErrDuplicateEmail when the
// email is taken.
func (r *Repository) CreateUser(ctx context.Context, email, passwordHash string) (*User, error) {
	_, err := r.db.conn.ExecContext(ctx,
		"INSERT INTO users (email, password_hash) VALUES (?, ?)", email, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return r.GetUserByEmail(ctx, email)
}

// GetUserByID retrieves a user profile by id.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return r.getUser(ctx, "SELECT id, email, password_hash FROM users WHERE id = ?", id)
}

// GetUserByEmail retrieves a user profile by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, "SELECT id, email, password_hash FROM users WHERE email = ?", email)
}

func (r *Repository) getUser(ctx context.Context, query string, arg any) (*User, error) {
	user := &User{}
	err := r.db.conn.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Email, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
