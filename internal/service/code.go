package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/splitsmart/splitsmart/internal/storage"
)

// codeAlphabet excludes visually ambiguous characters (no 0/O/1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// codeLength is the join code length.
const codeLength = 6

// maxCodeAttempts bounds collision retries. Persistent collision is a
// generation failure, never a silently accepted duplicate code.
const maxCodeAttempts = 5

// ErrCodeExhausted reports that code generation collided on every attempt.
var ErrCodeExhausted = errors.New("could not generate a unique session code")

// RandomCode returns one candidate join code.
func RandomCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// generateCode produces a join code not currently in use, retrying up to
// maxCodeAttempts times on collision.
func (s *SessionService) generateCode(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := s.codeFn()
		_, err := s.store.GetSessionByCode(ctx, code)
		if errors.Is(err, storage.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", wrapStoreErr(err)
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrCodeExhausted, maxCodeAttempts)
}
