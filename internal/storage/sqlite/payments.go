package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// CreateHost persists a host record.
func (s *SQLiteStore) CreateHost(ctx context.Context, h *models.Host) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.CreatedAt == 0 {
		h.CreatedAt = time.Now().Unix()
	}
	var name, email any
	if h.Name != "" {
		name = h.Name
	}
	if h.Email != "" {
		email = h.Email
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO hosts (id, name, email, created_at) VALUES (?, ?, ?, ?)",
		h.ID, name, email, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert host: %w", err)
	}
	return nil
}

// GetHost retrieves a host by id.
func (s *SQLiteStore) GetHost(ctx context.Context, id string) (*models.Host, error) {
	h := &models.Host{}
	var name, email sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, created_at FROM hosts WHERE id = ?", id,
	).Scan(&h.ID, &name, &email, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("host %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get host: %w", err)
	}
	h.Name = name.String
	h.Email = email.String
	return h, nil
}

// UpdateHost overwrites a host's name and email.
func (s *SQLiteStore) UpdateHost(ctx context.Context, h *models.Host) error {
	var name, email any
	if h.Name != "" {
		name = h.Name
	}
	if h.Email != "" {
		email = h.Email
	}
	res, err := s.db.ExecContext(ctx, "UPDATE hosts SET name = ?, email = ? WHERE id = ?", name, email, h.ID)
	if err != nil {
		return fmt.Errorf("failed to update host: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("host %s: %w", h.ID, storage.ErrNotFound)
	}
	return nil
}

// LinkSessionHost attaches a host to a session.
func (s *SQLiteStore) LinkSessionHost(ctx context.Context, sessionID, hostID string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE sessions SET host_id = ? WHERE id = ?", hostID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to link host: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", sessionID, storage.ErrNotFound)
	}
	return nil
}

// CreatePayment persists a pending payment.
func (s *SQLiteStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	if p.Status == "" {
		p.Status = models.PaymentPending
	}
	var hostID any
	if p.HostID != "" {
		hostID = p.HostID
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO payments (id, session_id, participant_id, host_id, amount_cents, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.SessionID, p.ParticipantID, hostID, p.AmountCents, p.Status, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment by id.
func (s *SQLiteStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	p := &models.Payment{}
	var hostID sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, session_id, participant_id, host_id, amount_cents, status, created_at FROM payments WHERE id = ?", id,
	).Scan(&p.ID, &p.SessionID, &p.ParticipantID, &hostID, &p.AmountCents, &p.Status, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	p.HostID = hostID.String
	return p, nil
}

// MarkPaymentPaid transitions a payment to paid. The WHERE status clause
// makes repeated callback delivery a no-op rather than a double credit.
func (s *SQLiteStore) MarkPaymentPaid(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE payments SET status = ? WHERE id = ? AND status != ?",
		models.PaymentPaid, id, models.PaymentPaid,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// CreditHostOnce writes a host ledger credit unless one already exists for
// the payment id. The UNIQUE(payment_id, type) index backs the existence
// check, so even two racing callbacks credit the host exactly once.
func (s *SQLiteStore) CreditHostOnce(ctx context.Context, entry *models.HostLedgerEntry) (bool, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}
	if entry.Type == "" {
		entry.Type = models.LedgerEntryHostCredit
	}

	var existing string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM host_ledger_entries WHERE payment_id = ? AND type = ?",
		entry.PaymentID, entry.Type,
	).Scan(&existing)
	if err == nil {
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check ledger entry: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO host_ledger_entries (id, host_id, type, amount_cents, payment_id, notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		entry.ID, entry.HostID, entry.Type, entry.AmountCents, entry.PaymentID, entry.Notes, entry.CreatedAt,
	)
	if isUniqueViolation(err) {
		// Lost the race to another callback; the credit already exists.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return true, nil
}
