package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// CreateParticipant adds a participant to a session.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, p *models.Participant) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	var name any
	if p.Name != "" {
		name = p.Name
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO participants (id, session_id, name, paid, created_at) VALUES (?, ?, ?, ?, ?)",
		p.ID, p.SessionID, name, p.Paid, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

// GetParticipant retrieves a participant by id.
func (s *SQLiteStore) GetParticipant(ctx context.Context, id string) (*models.Participant, error) {
	p := &models.Participant{}
	var name sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, session_id, name, paid, created_at FROM participants WHERE id = ?", id,
	).Scan(&p.ID, &p.SessionID, &name, &p.Paid, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("participant %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	p.Name = name.String
	return p, nil
}

// ListParticipants returns a session's participants in join order.
func (s *SQLiteStore) ListParticipants(ctx context.Context, sessionID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, name, paid, created_at FROM participants WHERE session_id = ? ORDER BY created_at, id",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		var name sql.NullString
		if err := rows.Scan(&p.ID, &p.SessionID, &name, &p.Paid, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.Name = name.String
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

// SetParticipantPaid flips the paid flag.
func (s *SQLiteStore) SetParticipantPaid(ctx context.Context, id string, paid bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE participants SET paid = ? WHERE id = ?", paid, id)
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("participant %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ToggleClaim inserts or deletes the claim for (itemID, participantID) in a
// single transaction. The item must belong to sessionID; cross-session item
// ids are a NotFound condition. A concurrent duplicate insert trips the
// UNIQUE(item_id, participant_id) constraint and surfaces as ErrConflict.
func (s *SQLiteStore) ToggleClaim(ctx context.Context, sessionID, itemID, participantID string, share float64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx, "SELECT session_id FROM items WHERE id = ?", itemID).Scan(&owner)
	if err == sql.ErrNoRows || (err == nil && owner != sessionID) {
		return false, fmt.Errorf("item %s in session %s: %w", itemID, sessionID, storage.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up item: %w", err)
	}

	var existingID string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM claims WHERE item_id = ? AND participant_id = ?", itemID, participantID,
	).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			"INSERT INTO claims (id, item_id, participant_id, share, created_at) VALUES (?, ?, ?, ?, ?)",
			uuid.New().String(), itemID, participantID, share, time.Now().Unix(),
		)
		if isUniqueViolation(err) {
			return false, fmt.Errorf("claim for item %s: %w", itemID, storage.ErrConflict)
		}
		if err != nil {
			return false, fmt.Errorf("failed to insert claim: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to look up claim: %w", err)
	default:
		if _, err = tx.ExecContext(ctx, "DELETE FROM claims WHERE id = ?", existingID); err != nil {
			return false, fmt.Errorf("failed to delete claim: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return false, nil
	}
}

// ListClaims returns every claim whose item belongs to the session.
func (s *SQLiteStore) ListClaims(ctx context.Context, sessionID string) ([]models.Claim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.item_id, c.participant_id, c.share, c.created_at
		 FROM claims c JOIN items i ON i.id = c.item_id
		 WHERE i.session_id = ?
		 ORDER BY c.created_at, c.id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claims: %w", err)
	}
	defer rows.Close()

	var claims []models.Claim
	for rows.Next() {
		var c models.Claim
		if err := rows.Scan(&c.ID, &c.ItemID, &c.ParticipantID, &c.Share, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}
	return claims, nil
}

// FindParticipantIDsByName returns participant ids across all sessions whose
// display name matches case-insensitively.
func (s *SQLiteStore) FindParticipantIDsByName(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM participants WHERE name IS NOT NULL AND lower(name) = lower(?)", name)
	if err != nil {
		return nil, fmt.Errorf("failed to find participants by name: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participant ids: %w", err)
	}
	return ids, nil
}

// ClaimHistory returns the given participants' claims joined with item
// names, most recent first, capped at limit.
func (s *SQLiteStore) ClaimHistory(ctx context.Context, participantIDs []string, limit int) ([]models.ClaimHistoryEntry, error) {
	if len(participantIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(participantIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(participantIDs)+1)
	for _, id := range participantIDs {
		args = append(args, id)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT i.name, c.created_at
		 FROM claims c JOIN items i ON i.id = c.item_id
		 WHERE c.participant_id IN (`+placeholders+`)
		 ORDER BY c.created_at DESC
		 LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim history: %w", err)
	}
	defer rows.Close()

	var entries []models.ClaimHistoryEntry
	for rows.Next() {
		var e models.ClaimHistoryEntry
		if err := rows.Scan(&e.ItemName, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return entries, nil
}
