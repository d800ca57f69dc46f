package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewErrorFormatsDetails(t *testing.T) {
	err := NewError(ErrMessageContentTooLong, 5000)
	if err.Message != "Message is too long (max 5000 characters)." {
		t.Fatalf("Message = %q", err.Message)
	}
	if err.Status != http.StatusBadRequest {
		t.Fatalf("Status = %d, want %d", err.Status, http.StatusBadRequest)
	}
}

func TestNewErrorUnknownCodeDegrades(t *testing.T) {
	err := NewError(424242)
	if err.Code != ErrUnknown {
		t.Fatalf("Code = %d, want %d", err.Code, ErrUnknown)
	}
}

func TestSessionKickedDefaultsToOK(t *testing.T) {
	if got := NewError(ErrSessionKicked).Status; got != http.StatusOK {
		t.Fatalf("Status = %d, want %d", got, http.StatusOK)
	}
}

func TestFromUnwrapsWrappedCustomError(t *testing.T) {
	wrapped := fmt.Errorf("loading ticket: %w", NewError(ErrTicketNotFound))

	got := From(wrapped)
	if got.Code != ErrTicketNotFound {
		t.Fatalf("From().Code = %d, want %d", got.Code, ErrTicketNotFound)
	}
	if !HasCode(wrapped, ErrTicketNotFound) {
		t.Fatal("HasCode did not see the wrapped code")
	}
	if !errors.Is(wrapped, NewError(ErrTicketNotFound)) {
		t.Fatal("errors.Is did not match on code")
	}
	if errors.Is(wrapped, NewError(ErrAccessDenied)) {
		t.Fatal("errors.Is matched a different code")
	}
}

func TestFromPlainErrorIsUnknown(t *testing.T) {
	if got := From(errors.New("boom")).Code; got != ErrUnknown {
		t.Fatalf("From(plain).Code = %d, want %d", got, ErrUnknown)
	}
	if From(nil) != nil {
		t.Fatal("From(nil) should be nil")
	}
}
