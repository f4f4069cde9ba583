// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/splitsmart/splitsmart/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist or does not belong
	// to the expected parent. Callers must report it, never treat it as an
	// empty result.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on a uniqueness violation from a concurrent
	// write. It means "someone else already did this": safe to retry by
	// re-reading current state.
	ErrConflict = errors.New("conflict")
)

// Store defines the interface for session storage operations. The
// abstraction allows swapping backends (SQLite, PostgreSQL, etc.) without
// changing the service layer, and keeps the one multi-step operation —
// wholesale item replacement — behind a transactional boundary.
type Store interface {
	// CreateSession persists a new session. The session.ID field is
	// populated by the store. Returns ErrConflict if the code is taken.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSessionByCode retrieves a session by its join code,
	// case-insensitively. Returns ErrNotFound if no session has the code.
	GetSessionByCode(ctx context.Context, code string) (*models.Session, error)

	// ListSessions returns the most recently created sessions, newest first.
	ListSessions(ctx context.Context, limit int) ([]models.Session, error)

	// ReplaceItems atomically swaps a session's entire item set and
	// overwrites its totals and currency. Executed as delete, then insert,
	// then update, inside one transaction: a concurrent reader sees either
	// the old set or the new set, never a mix, and any step's failure
	// aborts the whole operation.
	ReplaceItems(ctx context.Context, sessionID string, items []models.Item, totals models.Totals, currency string) (*models.Session, error)

	// ListItems returns a session's items in insertion order.
	ListItems(ctx context.Context, sessionID string) ([]models.Item, error)

	// CreateParticipant adds a participant to a session. The ID field is
	// populated by the store.
	CreateParticipant(ctx context.Context, p *models.Participant) error

	// GetParticipant retrieves a participant by id.
	GetParticipant(ctx context.Context, id string) (*models.Participant, error)

	// ListParticipants returns a session's participants in join order.
	ListParticipants(ctx context.Context, sessionID string) ([]models.Participant, error)

	// SetParticipantPaid flips the paid flag. Best-effort callers may
	// swallow its error; it never guards money-relevant state.
	SetParticipantPaid(ctx context.Context, id string, paid bool) error

	// ToggleClaim inserts a claim for (itemID, participantID) if absent,
	// or deletes the existing one. Returns added=true on insert. The item
	// must belong to sessionID, otherwise ErrNotFound — cross-session item
	// ids are rejected, never silently accepted.
	ToggleClaim(ctx context.Context, sessionID, itemID, participantID string, share float64) (added bool, err error)

	// ListClaims returns every claim whose item belongs to the session.
	ListClaims(ctx context.Context, sessionID string) ([]models.Claim, error)

	// FindParticipantIDsByName returns ids of all participants across all
	// sessions whose display name matches case-insensitively. This is the
	// suggestion engine's cross-session identity proxy.
	FindParticipantIDsByName(ctx context.Context, name string) ([]string, error)

	// ClaimHistory returns the claims made by the given participants,
	// joined with their item names, most recent first, capped at limit.
	ClaimHistory(ctx context.Context, participantIDs []string, limit int) ([]models.ClaimHistoryEntry, error)

	// CreateHost persists a host record, populating ID.
	CreateHost(ctx context.Context, h *models.Host) error

	// GetHost retrieves a host by id.
	GetHost(ctx context.Context, id string) (*models.Host, error)

	// UpdateHost overwrites a host's name and email.
	UpdateHost(ctx context.Context, h *models.Host) error

	// LinkSessionHost attaches a host to a session.
	LinkSessionHost(ctx context.Context, sessionID, hostID string) error

	// CreatePayment persists a pending payment, populating ID.
	CreatePayment(ctx context.Context, p *models.Payment) error

	// GetPayment retrieves a payment by id.
	GetPayment(ctx context.Context, id string) (*models.Payment, error)

	// MarkPaymentPaid transitions a payment to paid. Returns updated=false
	// if it was already paid, which makes repeated callbacks harmless.
	MarkPaymentPaid(ctx context.Context, id string) (updated bool, err error)

	// CreditHostOnce writes a host ledger credit for a payment unless an
	// entry for that payment id already exists. Returns created=false on
	// the duplicate path. This is the exactly-once guard for host credits.
	CreditHostOnce(ctx context.Context, entry *models.HostLedgerEntry) (created bool, err error)

	// Close releases any resources held by the store.
	Close() error
}
