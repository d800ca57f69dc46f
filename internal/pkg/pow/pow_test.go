package pow

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

// solve brute-forces a counter; difficulty 1 needs ~16 attempts on average.
func solve(t *testing.T, m *Manager, nonce string) string {
	t.Helper()
	for i := 0; i < 1_000_000; i++ {
		counter := strconv.Itoa(i)
		if m.Solves(nonce, counter) {
			return counter
		}
	}
	t.Fatal("no solution found")
	return ""
}

func TestValidateProofIssuesSingleUseToken(t *testing.T) {
	m := NewManager(1)
	defer m.Stop()

	nonce := m.GenerateNonce()
	token, err := m.ValidateProof(nonce, solve(t, m, nonce))
	if err != nil {
		t.Fatalf("ValidateProof: %v", err)
	}

	if !m.ConsumeToken(token) {
		t.Fatal("fresh token rejected")
	}
	if m.ConsumeToken(token) {
		t.Fatal("token accepted twice")
	}
}

func TestValidateProofRejectsReusedNonce(t *testing.T) {
	m := NewManager(1)
	defer m.Stop()

	nonce := m.GenerateNonce()
	counter := solve(t, m, nonce)
	if _, err := m.ValidateProof(nonce, counter); err != nil {
		t.Fatalf("first ValidateProof: %v", err)
	}
	if _, err := m.ValidateProof(nonce, counter); !errors.Is(err, ErrNonceInvalid) {
		t.Fatalf("second ValidateProof error = %v, want %v", err, ErrNonceInvalid)
	}
}

func TestValidateProofRejectsExpiredNonce(t *testing.T) {
	m := NewManager(1)
	defer m.Stop()

	nonce := m.GenerateNonce()
	counter := solve(t, m, nonce)

	m.now = func() time.Time { return time.Now().Add(NonceExpiryDuration + time.Second) }
	if _, err := m.ValidateProof(nonce, counter); !errors.Is(err, ErrNonceInvalid) {
		t.Fatalf("ValidateProof error = %v, want %v", err, ErrNonceInvalid)
	}
}

func TestMiddlewareDisabledAtZeroDifficulty(t *testing.T) {
	m := NewManager(0)
	defer m.Stop()

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tickets", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
}

func TestMiddlewareRequiresToken(t *testing.T) {
	m := NewManager(2)
	defer m.Stop()

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tickets", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
