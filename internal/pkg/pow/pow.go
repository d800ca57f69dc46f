/*
Package pow implements a proof-of-work gate for abuse-prone endpoints such as
ticket creation.

A client fetches a nonce, searches for a counter such that sha256(nonce+counter)
starts with `difficulty` hex zeros, and trades the solution for a short-lived,
single-use proof token sent in the X-PoW-Token header.
*/
package pow

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ticketdesk/internal/pkg/errs"
	"ticketdesk/internal/pkg/resp"
)

const (
	// TokenHeaderKey is the HTTP header carrying the proof token.
	TokenHeaderKey = "X-PoW-Token"

	// ProofTokenDuration is the validity period of an issued proof token.
	ProofTokenDuration = 30 * time.Second

	// NonceExpiryDuration is the validity period of a challenge nonce.
	NonceExpiryDuration = 5 * time.Minute
)

var (
	// ErrNonceInvalid is returned for unknown, expired or already consumed nonces.
	ErrNonceInvalid = errors.New("nonce expired or invalid")

	// ErrProofInsufficient is returned when the hash misses the difficulty target.
	ErrProofInsufficient = errors.New("proof does not meet difficulty requirement")
)

// Manager tracks outstanding nonces and issued proof tokens. It is safe for concurrent use.
type Manager struct {
	difficulty int

	mu     sync.Mutex
	nonces map[string]time.Time
	tokens map[string]time.Time

	now func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a Manager and starts its expiry sweep. A difficulty of zero
// disables the gate: Middleware lets every request through.
func NewManager(difficulty int) *Manager {
	m := &Manager{
		difficulty: difficulty,
		nonces:     make(map[string]time.Time),
		tokens:     make(map[string]time.Time),
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go m.sweepLoop()

	return m
}

// Difficulty returns the number of leading hex zeros a proof must have.
func (m *Manager) Difficulty() int {
	return m.difficulty
}

// Stop ends the expiry sweep.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// GenerateNonce issues a new challenge nonce.
func (m *Manager) GenerateNonce() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	nonce := uuid.New().String()
	m.nonces[nonce] = m.now().Add(NonceExpiryDuration)
	return nonce
}

// Solves reports whether counter solves nonce at the manager's difficulty.
func (m *Manager) Solves(nonce, counter string) bool {
	hash := sha256.Sum256([]byte(nonce + counter))
	return strings.HasPrefix(hex.EncodeToString(hash[:]), strings.Repeat("0", m.difficulty))
}

// ValidateProof consumes nonce if counter solves it and returns a proof token.
func (m *Manager) ValidateProof(nonce, counter string) (string, error) {
	if !m.Solves(nonce, counter) {
		return "", ErrProofInsufficient
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.nonces[nonce]
	if !ok || m.now().After(expiry) {
		return "", ErrNonceInvalid
	}
	delete(m.nonces, nonce)

	token := uuid.New().String()
	m.tokens[token] = m.now().Add(ProofTokenDuration)
	return token, nil
}

// ConsumeToken reports whether token is a live proof token and invalidates it.
func (m *Manager) ConsumeToken(token string) bool {
	if token == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.tokens[token]
	if !ok {
		return false
	}
	delete(m.tokens, token)

	return !m.now().After(expiry)
}

// Middleware requires a valid proof token (header or pow_token query parameter)
// whenever the difficulty is above zero.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.difficulty > 0 {
			token := r.Header.Get(TokenHeaderKey)
			if token == "" {
				token = r.URL.Query().Get("pow_token")
			}

			if token == "" {
				resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeRequired))
				return
			}
			if !m.ConsumeToken(token) {
				resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeInvalid))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for nonce, expiry := range m.nonces {
		if now.After(expiry) {
			delete(m.nonces, nonce)
		}
	}
	for token, expiry := range m.tokens {
		if now.After(expiry) {
			delete(m.tokens, token)
		}
	}
}
