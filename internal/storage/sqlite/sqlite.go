// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a SQLite uniqueness violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateSession persists a new session. Codes are stored uppercase so the
// UNIQUE index doubles as the case-insensitive uniqueness guarantee.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt == 0 {
		session.CreatedAt = time.Now().Unix()
	}
	if session.Currency == "" {
		session.Currency = "USD"
	}
	session.Code = strings.ToUpper(session.Code)

	var hostID any
	if session.HostID != "" {
		hostID = session.HostID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, code, host_id, currency, subtotal_cents, tax_cents, tip_cents, total_cents, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.Code, hostID, session.Currency,
		session.Totals.SubtotalCents, session.Totals.TaxCents, session.Totals.TipCents, session.Totals.TotalCents,
		session.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("session code %s: %w", session.Code, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSessionByCode retrieves a session by join code, case-insensitively.
func (s *SQLiteStore) GetSessionByCode(ctx context.Context, code string) (*models.Session, error) {
	session := &models.Session{}
	var hostID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, host_id, currency, subtotal_cents, tax_cents, tip_cents, total_cents, created_at
		 FROM sessions WHERE code = ?`,
		strings.ToUpper(code),
	).Scan(&session.ID, &session.Code, &hostID, &session.Currency,
		&session.Totals.SubtotalCents, &session.Totals.TaxCents, &session.Totals.TipCents, &session.Totals.TotalCents,
		&session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", code, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	session.HostID = hostID.String
	return session, nil
}

// ListSessions returns recent sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, host_id, currency, subtotal_cents, tax_cents, tip_cents, total_cents, created_at
		 FROM sessions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var sess models.Session
		var hostID sql.NullString
		if err := rows.Scan(&sess.ID, &sess.Code, &hostID, &sess.Currency,
			&sess.Totals.SubtotalCents, &sess.Totals.TaxCents, &sess.Totals.TipCents, &sess.Totals.TotalCents,
			&sess.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.HostID = hostID.String
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReplaceItems swaps a session's item set and totals in one transaction:
// delete old items, insert new ones, then update the totals. Any failure
// rolls the whole operation back, so a reader never observes a partially
// replaced item set.
func (s *SQLiteStore) ReplaceItems(ctx context.Context, sessionID string, items []models.Item, totals models.Totals, currency string) (*models.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, "DELETE FROM items WHERE session_id = ?", sessionID); err != nil {
		return nil, fmt.Errorf("failed to delete old items: %w", err)
	}

	now := time.Now().Unix()
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.SessionID = sessionID
		if item.CreatedAt == 0 {
			item.CreatedAt = now
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO items (id, session_id, name, quantity, unit_price_cents, total_cents, tax_included, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, sessionID, item.Name, item.Quantity, item.UnitPriceCents, item.TotalCents, item.TaxIncluded, item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert item: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET subtotal_cents = ?, tax_cents = ?, tip_cents = ?, total_cents = ?, currency = ? WHERE id = ?`,
		totals.SubtotalCents, totals.TaxCents, totals.TipCents, totals.TotalCents, currency, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update session totals: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	session := &models.Session{}
	var hostID sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT id, code, host_id, currency, subtotal_cents, tax_cents, tip_cents, total_cents, created_at
		 FROM sessions WHERE id = ?`, sessionID,
	).Scan(&session.ID, &session.Code, &hostID, &session.Currency,
		&session.Totals.SubtotalCents, &session.Totals.TaxCents, &session.Totals.TipCents, &session.Totals.TotalCents,
		&session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read session: %w", err)
	}
	session.HostID = hostID.String
	return session, nil
}

// ListItems returns a session's items in insertion order.
func (s *SQLiteStore) ListItems(ctx context.Context, sessionID string) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, name, quantity, unit_price_cents, total_cents, tax_included, created_at
		 FROM items WHERE session_id = ? ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.SessionID, &item.Name, &item.Quantity,
			&item.UnitPriceCents, &item.TotalCents, &item.TaxIncluded, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}
