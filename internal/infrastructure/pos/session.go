package pos

import (
	"context"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// authenticateFunc signs in and returns a token plus the cashier identity
type authenticateFunc func(ctx context.Context) (token, cashierID string, err error)

// Session holds the process-wide POS token and the signed-in cashier.
// Concurrent refreshes collapse into one sign-in.
type Session struct {
	mu        sync.RWMutex
	token     string
	cashierID string

	flight       singleflight.Group
	authenticate authenticateFunc
}

func newSession(authenticate authenticateFunc) *Session {
	return &Session{authenticate: authenticate}
}

// Token returns the current token, signing in when there is none
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token != "" {
		return token, nil
	}
	return s.Refresh(ctx, "")
}

// Refresh signs in again unless the token already moved past stale
func (s *Session) Refresh(ctx context.Context, stale string) (string, error) {
	s.mu.RLock()
	current := s.token
	s.mu.RUnlock()
	if current != "" && current != stale {
		return current, nil
	}

	v, err, _ := s.flight.Do("signin", func() (any, error) {
		token, cashierID, err := s.authenticate(ctx)
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		s.token = token
		if cashierID != "" {
			s.cashierID = cashierID
		}
		s.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// CashierID returns the signed-in cashier, or "" before the first sign-in
func (s *Session) CashierID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cashierID
}

// Reset drops the token and the cashier identity
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.cashierID = ""
}

// cashierFromToken reads the sub claim without verifying the signature; the
// token comes straight from the sign-in response.
func cashierFromToken(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
