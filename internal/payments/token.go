package payments

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidState reports a missing, tampered, or expired callback
	// state token.
	ErrInvalidState = errors.New("invalid or expired callback state")
)

// StateManager signs and validates the state token round-tripped through
// the hosted checkout's success URL. The token binds the callback to a
// specific session code and payment id so a forged callback cannot credit
// an arbitrary payment.
type StateManager struct {
	secretKey []byte
	tokenTTL  time.Duration
}

// StateClaims are the callback token claims.
type StateClaims struct {
	SessionCode string `json:"session_code"`
	PaymentID   string `json:"payment_id"`
	jwt.RegisteredClaims
}

// NewStateManager creates a state manager. secretKey should be a strong
// random string; tokenTTL bounds how long an unfinished checkout stays
// redeemable (e.g. 24 hours).
func NewStateManager(secretKey string, tokenTTL time.Duration) *StateManager {
	return &StateManager{
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
	}
}

// Sign creates a state token for the given session code and payment id.
func (m *StateManager) Sign(sessionCode, paymentID string) (string, error) {
	claims := &StateClaims{
		SessionCode: sessionCode,
		PaymentID:   paymentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign state token: %w", err)
	}
	return signed, nil
}

// Validate parses and validates a state token, returning its claims.
func (m *StateManager) Validate(tokenString string) (*StateClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&StateClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	claims, ok := token.Claims.(*StateClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidState
	}
	if claims.SessionCode == "" || claims.PaymentID == "" {
		return nil, ErrInvalidState
	}
	return claims, nil
}
