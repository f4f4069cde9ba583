package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/splitsmart/splitsmart/internal/allocator"
	"github.com/splitsmart/splitsmart/internal/ledger"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/realtime"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// SessionService owns session lifecycle: creation, joining by code, and
// receipt (item list) replacement.
type SessionService struct {
	store  storage.Store
	hub    *realtime.Hub
	codeFn func() string
}

func NewSessionService(store storage.Store, hub *realtime.Hub) *SessionService {
	return &SessionService{
		store:  store,
		hub:    hub,
		codeFn: RandomCode,
	}
}

// SessionView is a session together with its current item list.
type SessionView struct {
	Session *models.Session
	Items   []models.Item
}

// ParticipantView is a participant annotated with their computed share.
type ParticipantView struct {
	Participant models.Participant
	Share       allocator.Share
}

// CreateSession creates a new empty session with a fresh join code. When a
// host name is given, a host record is created and linked so payments can be
// credited later.
func (s *SessionService) CreateSession(ctx context.Context, currency, hostName, hostEmail string) (*models.Session, error) {
	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		Code:      code,
		Currency:  ledger.NormalizeCurrency(currency),
		CreatedAt: time.Now().Unix(),
	}

	if hostName = strings.TrimSpace(hostName); hostName != "" {
		host := &models.Host{
			ID:        uuid.NewString(),
			Name:      hostName,
			Email:     strings.TrimSpace(hostEmail),
			CreatedAt: time.Now().Unix(),
		}
		if err := s.store.CreateHost(ctx, host); err != nil {
			return nil, wrapStoreErr(err)
		}
		session.HostID = host.ID
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, wrapStoreErr(err)
	}
	return session, nil
}

// GetSession looks up a session by its join code and returns it with items.
func (s *SessionService) GetSession(ctx context.Context, code string) (*SessionView, error) {
	session, err := s.store.GetSessionByCode(ctx, code)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	items, err := s.store.ListItems(ctx, session.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return &SessionView{Session: session, Items: items}, nil
}

// ListSessions returns recently created sessions, newest first.
func (s *SessionService) ListSessions(ctx context.Context, limit int) ([]models.Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	sessions, err := s.store.ListSessions(ctx, limit)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return sessions, nil
}

// Join adds a participant to the session identified by code. The display
// name is optional: a blank name is an anonymous participant, who simply gets
// no cross-session suggestions. A join against an unknown code creates the
// session on the fly with that code, so a shared link never dead-ends for the
// first arrival.
func (s *SessionService) Join(ctx context.Context, code, name string) (*models.Participant, error) {
	name = strings.TrimSpace(name)

	session, err := s.ensureSession(ctx, code)
	if err != nil {
		return nil, err
	}

	participant := &models.Participant{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Name:      name,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.store.CreateParticipant(ctx, participant); err != nil {
		return nil, wrapStoreErr(err)
	}

	s.hub.Publish(session.ID, realtime.TableParticipants)
	return participant, nil
}

// Participants returns every participant in the session along with their
// current computed share.
func (s *SessionService) Participants(ctx context.Context, code string) ([]ParticipantView, error) {
	session, err := s.store.GetSessionByCode(ctx, code)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	participants, err := s.store.ListParticipants(ctx, session.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	items, err := s.store.ListItems(ctx, session.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	claims, err := s.store.ListClaims(ctx, session.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	shares := allocator.ComputeAll(participants, items, claims, session.Totals)
	views := make([]ParticipantView, 0, len(participants))
	for _, p := range participants {
		views = append(views, ParticipantView{
			Participant: p,
			Share:       shares[p.ID],
		})
	}
	return views, nil
}

// ReplaceReceipt swaps the session's entire item list for the parsed receipt
// contents and updates the stored totals. When the code is unknown the
// session is created first, so a parse can seed a brand-new session.
func (s *SessionService) ReplaceReceipt(ctx context.Context, code string, parsed models.ParsedReceipt) (*SessionView, error) {
	session, err := s.ensureSession(ctx, code)
	if err != nil {
		return nil, err
	}

	items, totals := ledger.Normalize(parsed)
	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].SessionID = session.ID
		items[i].CreatedAt = time.Now().Unix()
	}

	currency := ledger.NormalizeCurrency(parsed.Currency)
	updated, err := s.store.ReplaceItems(ctx, session.ID, items, totals, currency)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.hub.Publish(session.ID, realtime.TableItems)
	s.hub.Publish(session.ID, realtime.TableClaims)

	stored, err := s.store.ListItems(ctx, session.ID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return &SessionView{Session: updated, Items: stored}, nil
}

// Host returns the host linked to the session, or NotFound when none is set.
func (s *SessionService) Host(ctx context.Context, code string) (*models.Host, error) {
	session, err := s.store.GetSessionByCode(ctx, code)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if session.HostID == "" {
		return nil, fmt.Errorf("%w: session has no host", ErrNotFound)
	}
	host, err := s.store.GetHost(ctx, session.HostID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return host, nil
}

// SetHost creates or updates the session's host record.
func (s *SessionService) SetHost(ctx context.Context, code, name, email string) (*models.Host, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("host name is required")
	}

	session, err := s.store.GetSessionByCode(ctx, code)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if session.HostID != "" {
		host, err := s.store.GetHost(ctx, session.HostID)
		if err != nil {
			return nil, wrapStoreErr(err)
		}
		host.Name = name
		host.Email = strings.TrimSpace(email)
		if err := s.store.UpdateHost(ctx, host); err != nil {
			return nil, wrapStoreErr(err)
		}
		return host, nil
	}

	host := &models.Host{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     strings.TrimSpace(email),
		CreatedAt: time.Now().Unix(),
	}
	if err := s.store.CreateHost(ctx, host); err != nil {
		return nil, wrapStoreErr(err)
	}
	if err := s.store.LinkSessionHost(ctx, session.ID, host.ID); err != nil {
		return nil, wrapStoreErr(err)
	}
	return host, nil
}

// ensureSession returns the session for code, creating it when absent. The
// created session gets an anonymous host record up front so payments made in
// it can credit a host ledger; SetHost later fills in the name. A concurrent
// creator winning the race is fine: the conflicting insert is followed by a
// fresh lookup, and the loser's unreferenced host row is harmless.
func (s *SessionService) ensureSession(ctx context.Context, code string) (*models.Session, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, validationf("session code is required")
	}

	session, err := s.store.GetSessionByCode(ctx, code)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, wrapStoreErr(err)
	}

	host := &models.Host{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().Unix(),
	}
	if err := s.store.CreateHost(ctx, host); err != nil {
		return nil, wrapStoreErr(err)
	}

	session = &models.Session{
		ID:        uuid.NewString(),
		Code:      code,
		HostID:    host.ID,
		Currency:  "USD",
		CreatedAt: time.Now().Unix(),
	}
	err = s.store.CreateSession(ctx, session)
	if errors.Is(err, storage.ErrConflict) {
		session, err = s.store.GetSessionByCode(ctx, code)
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return session, nil
}
