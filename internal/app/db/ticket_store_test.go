package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"ticketdesk/internal/app/ticket"
	"ticketdesk/internal/app/user"
	"ticketdesk/internal/pkg/errs"
	"ticketdesk/internal/pkg/logx"
	"ticketdesk/internal/pkg/randx"
)

func TestMain(m *testing.M) {
	logx.SetOutput(io.Discard, zerolog.Disabled)
	os.Exit(m.Run())
}

func TestStoreErrorMapping(t *testing.T) {
	if err := storeError(nil, "op"); err != nil {
		t.Fatalf("storeError(nil) = %v, want nil", err)
	}
	if err := storeError(pgx.ErrNoRows, "op"); !errs.HasCode(err, errs.ErrTicketNotFound) {
		t.Fatalf("storeError(ErrNoRows) = %v, want ErrTicketNotFound", err)
	}
	if err := storeError(fmt.Errorf("wrapped: %w", errs.NewError(errs.ErrStatusUnchanged, "open")), "op"); !errs.HasCode(err, errs.ErrStatusUnchanged) {
		t.Fatalf("storeError(custom) = %v, want ErrStatusUnchanged", err)
	}
	if err := storeError(errors.New("connection refused"), "op"); !errs.HasCode(err, errs.ErrStoreUnavailable) {
		t.Fatalf("storeError(other) = %v, want ErrStoreUnavailable", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("IsUniqueViolation(23505) = false")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("IsUniqueViolation(23503) = true")
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a", "b", "a", "c", "b"})
	if fmt.Sprint(got) != "[a b c]" {
		t.Fatalf("dedupe = %v, want [a b c]", got)
	}
}

// newTestStore connects to TEST_DATABASE_URL or skips.
func newTestStore(t *testing.T) *TicketStore {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := NewPool(context.Background(), dsn)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	return NewTicketStore(pool)
}

func TestTicketStoreLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := randx.TicketID()
	if err := s.Create(ctx, &ticket.Ticket{ID: id, OwnerUserID: "cand", Subject: "Login broken"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	update, err := s.AppendMessage(ctx, id, ticket.Message{
		ID: randx.MessageID(), SenderUserID: "staff", SenderRole: user.RoleSupervisor, Body: "Looking", Kind: ticket.KindText,
	})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if update.Change == nil || update.Ticket.Status != ticket.StatusInProgress {
		t.Fatalf("status = %s change = %+v, want in_progress", update.Ticket.Status, update.Change)
	}

	reply, err := s.AppendMessage(ctx, id, ticket.Message{
		ID: randx.MessageID(), SenderUserID: "cand", SenderRole: user.RoleCandidate, Body: "Thanks", Kind: ticket.KindText,
	})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if reply.Ticket.Status != ticket.StatusWaitingResponse {
		t.Fatalf("status = %s, want waiting_response", reply.Ticket.Status)
	}

	resolved, err := s.UpdateStatus(ctx, id, ticket.StatusResolved, "fixed")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if resolved.Ticket.ResolvedAt == nil {
		t.Fatal("ResolvedAt not stamped")
	}
	if _, err := s.UpdateStatus(ctx, id, ticket.StatusResolved, ""); !errs.HasCode(err, errs.ErrStatusUnchanged) {
		t.Fatalf("UpdateStatus same = %v, want ErrStatusUnchanged", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := s.MarkRead(ctx, id, "staff", []string{reply.Message.ID}); err != nil {
			t.Fatalf("MarkRead: %v", err)
		}
	}
	if _, err := s.MarkRead(ctx, id, "staff", []string{"missing"}); !errs.HasCode(err, errs.ErrMessageNotFound) {
		t.Fatalf("MarkRead missing = %v, want ErrMessageNotFound", err)
	}

	full, err := s.GetWithMessages(ctx, id)
	if err != nil {
		t.Fatalf("GetWithMessages: %v", err)
	}
	if len(full.Messages) != 5 {
		t.Fatalf("len(Messages) = %d, want 5", len(full.Messages))
	}
	if n := len(full.Messages[2].ReadBy); n != 1 {
		t.Fatalf("len(ReadBy) = %d, want 1", n)
	}
	if _, err := s.Get(ctx, randx.TicketID()); !errs.HasCode(err, errs.ErrTicketNotFound) {
		t.Fatalf("Get unknown = %v, want ErrTicketNotFound", err)
	}
}
