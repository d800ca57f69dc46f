package jwt

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ticketdesk/internal/app/user"
)

const secret = "test-secret"

func TestParseTokenReturnsIdentity(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u-1", Role: user.RoleSupervisor, DisplayName: "Sam"}, secret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	payload, err := ParseToken(token, secret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	want := user.User{ID: "u-1", Role: user.RoleSupervisor, DisplayName: "Sam"}
	if got := payload.User(); got != want {
		t.Fatalf("User() = %+v, want %+v", got, want)
	}
}

func TestIssueIdentityDefaultsDisplayName(t *testing.T) {
	token, err := IssueIdentity(user.User{ID: "cand-9", Role: user.RoleCandidate}, secret, time.Minute)
	if err != nil {
		t.Fatalf("IssueIdentity: %v", err)
	}

	payload, err := ParseToken(token, secret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if payload.DisplayName != "cand-9" || payload.Subject != "cand-9" || payload.Issuer != TokenIssuer {
		t.Fatalf("payload = %+v, want name and subject cand-9 issued by %s", payload, TokenIssuer)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u-1", Role: user.RoleCandidate}, secret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(token, "other"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("ParseToken error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u-1", Role: user.RoleCandidate}, secret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(token, secret); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("ParseToken error = %v, want ErrTokenExpired", err)
	}
}

func TestParseTokenRejectsUnknownRole(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u-1", Role: user.Role("auditor")}, secret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(token, secret); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("ParseToken error = %v, want ErrTokenInvalid", err)
	}
}

func TestMiddlewareStoresPayloadFromQuery(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u-2", Role: user.RoleCandidate, DisplayName: "Cara"}, secret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var seen *Payload
	handler := IdentityExtractorMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetPayloadFromContext(r)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	if seen == nil || seen.ID != "u-2" {
		t.Fatalf("payload = %+v, want uid u-2", seen)
	}
}

func TestMiddlewareTreatsBadTokenAsAnonymous(t *testing.T) {
	called := false
	handler := IdentityExtractorMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if GetPayloadFromContext(r) != nil {
			t.Fatal("payload present for an invalid token")
		}
	}))

	request := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
	request.Header.Set("Authorization", "Bearer garbage")
	handler.ServeHTTP(httptest.NewRecorder(), request)
	if !called {
		t.Fatal("next handler not called")
	}
}
