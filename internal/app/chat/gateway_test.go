package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ticketdesk/internal/app/storage"
	"ticketdesk/internal/app/ticket"
	"ticketdesk/internal/app/user"
	"ticketdesk/internal/pkg/errs"
)

type fakeObjects map[string]storage.ObjectInfo

func (f fakeObjects) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	if key == "t1/broken.png" {
		return storage.ObjectInfo{}, errors.New("boom")
	}
	info, ok := f[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return info, nil
}

func newGatewayFixture(t *testing.T, opts ...GatewayOption) (*Gateway, *ticket.MemoryStore) {
	t.Helper()

	store := ticket.NewMemoryStore()
	assignee := supervisor.ID
	if err := store.Create(context.Background(), &ticket.Ticket{ID: "t1", OwnerUserID: candidate.ID, AssignedUserID: &assignee}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return NewGateway(store, opts...), store
}

func messageCount(t *testing.T, store *ticket.MemoryStore) int {
	t.Helper()

	full, err := store.GetWithMessages(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GetWithMessages: %v", err)
	}
	return len(full.Messages)
}

func TestGatewaySendDeniesStranger(t *testing.T) {
	g, store := newGatewayFixture(t)

	_, err := g.Send(context.Background(), candidate2, SendRequest{TicketID: "t1", Body: "let me in"})
	if !errs.HasCode(err, errs.ErrAccessDenied) {
		t.Fatalf("Send = %v, want ErrAccessDenied", err)
	}
	if n := messageCount(t, store); n != 0 {
		t.Fatalf("messages = %d, want 0", n)
	}
}

func TestGatewaySendAllowsOwnerAssigneeAndPrivileged(t *testing.T) {
	g, _ := newGatewayFixture(t)

	for _, u := range []user.User{candidate, supervisor, admin} {
		update, err := g.Send(context.Background(), u, SendRequest{TicketID: "t1", Body: "hello"})
		if err != nil {
			t.Fatalf("Send(%s) = %v", u.ID, err)
		}
		if update.Message.SenderUserID != u.ID || update.Message.Kind != ticket.KindText {
			t.Fatalf("message = %+v, want text from %s", update.Message, u.ID)
		}
	}
}

func TestGatewaySendUnknownTicket(t *testing.T) {
	g, _ := newGatewayFixture(t)

	_, err := g.Send(context.Background(), admin, SendRequest{TicketID: "nope", Body: "hi"})
	if !errs.HasCode(err, errs.ErrTicketNotFound) {
		t.Fatalf("Send = %v, want ErrTicketNotFound", err)
	}
}

func TestGatewaySendValidation(t *testing.T) {
	g, store := newGatewayFixture(t, WithLimits(10, 1))
	ctx := context.Background()
	png := ticket.Attachment{FileKey: "t1/a.png", FileName: "a.png", MimeType: "image/png", FileSize: 10}

	cases := []struct {
		name string
		req  SendRequest
		code int
	}{
		{"empty", SendRequest{TicketID: "t1", Body: "   "}, errs.ErrMessageContentEmpty},
		{"too long", SendRequest{TicketID: "t1", Body: strings.Repeat("é", 11)}, errs.ErrMessageContentTooLong},
		{"system kind", SendRequest{TicketID: "t1", Body: "x", Kind: ticket.KindSystem}, errs.ErrMessageKindInvalid},
		{"file without attachments", SendRequest{TicketID: "t1", Body: "x", Kind: ticket.KindFile}, errs.ErrAttachmentCountInvalid},
		{"too many attachments", SendRequest{TicketID: "t1", Body: "x", Kind: ticket.KindFile, Attachments: []ticket.Attachment{png, png}}, errs.ErrAttachmentCountInvalid},
		{"foreign key", SendRequest{TicketID: "t1", Body: "x", Kind: ticket.KindFile, Attachments: []ticket.Attachment{{FileKey: "t2/a.png", FileName: "a.png", MimeType: "image/png", FileSize: 10}}}, errs.ErrAttachmentKeyInvalid},
		{"missing ticket id", SendRequest{Body: "x"}, errs.ErrInvalidParams},
	}

	for _, c := range cases {
		if _, err := g.Send(ctx, candidate, c.req); !errs.HasCode(err, c.code) {
			t.Errorf("%s: Send = %v, want code %d", c.name, err, c.code)
		}
	}
	if n := messageCount(t, store); n != 0 {
		t.Fatalf("messages = %d, want 0", n)
	}

	if _, err := g.Send(ctx, candidate, SendRequest{TicketID: "t1", Body: strings.Repeat("é", 10)}); err != nil {
		t.Fatalf("Send at the limit = %v", err)
	}
}

func TestGatewaySendChecksStoredObjects(t *testing.T) {
	objects := fakeObjects{"t1/a.png": {ContentType: "image/png", Size: 10}}
	g, _ := newGatewayFixture(t, WithObjectStat(objects))
	ctx := context.Background()

	send := func(key string, size int64) error {
		_, err := g.Send(ctx, candidate, SendRequest{
			TicketID:    "t1",
			Body:        "see attached",
			Kind:        ticket.KindFile,
			Attachments: []ticket.Attachment{{FileKey: key, FileName: "a.png", MimeType: "image/png", FileSize: size}},
		})
		return err
	}

	if err := send("t1/a.png", 10); err != nil {
		t.Fatalf("Send(existing) = %v", err)
	}
	if err := send("t1/missing.png", 10); !errs.HasCode(err, errs.ErrAttachmentKeyInvalid) {
		t.Fatalf("Send(missing) = %v, want ErrAttachmentKeyInvalid", err)
	}
	if err := send("t1/a.png", 11); !errs.HasCode(err, errs.ErrAttachmentKeyInvalid) {
		t.Fatalf("Send(size mismatch) = %v, want ErrAttachmentKeyInvalid", err)
	}
	if err := send("t1/broken.png", 10); !errs.HasCode(err, errs.ErrFileStorageFailed) {
		t.Fatalf("Send(storage failure) = %v, want ErrFileStorageFailed", err)
	}
}

func TestGatewayUpdateStatusRequiresPrivilege(t *testing.T) {
	g, _ := newGatewayFixture(t)
	ctx := context.Background()

	if _, err := g.UpdateStatus(ctx, candidate, "t1", ticket.StatusClosed, ""); !errs.HasCode(err, errs.ErrAccessDenied) {
		t.Fatalf("UpdateStatus(candidate) = %v, want ErrAccessDenied", err)
	}
	if _, err := g.UpdateStatus(ctx, admin, "t1", ticket.Status("archived"), ""); !errs.HasCode(err, errs.ErrStatusInvalid) {
		t.Fatalf("UpdateStatus(bogus) = %v, want ErrStatusInvalid", err)
	}
	if _, err := g.UpdateStatus(ctx, admin, "nope", ticket.StatusClosed, ""); !errs.HasCode(err, errs.ErrTicketNotFound) {
		t.Fatalf("UpdateStatus(unknown) = %v, want ErrTicketNotFound", err)
	}

	update, err := g.UpdateStatus(ctx, admin, "t1", ticket.StatusClosed, "  duplicate  ")
	if err != nil {
		t.Fatalf("UpdateStatus = %v", err)
	}
	if !strings.HasSuffix(update.Change.System.Body, "Resolution: duplicate") {
		t.Fatalf("system body = %q", update.Change.System.Body)
	}
}

func TestGatewayMarkRead(t *testing.T) {
	g, _ := newGatewayFixture(t)
	ctx := context.Background()

	update, err := g.Send(ctx, candidate, SendRequest{TicketID: "t1", Body: "hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if _, err := g.MarkRead(ctx, candidate2, "t1", []string{update.Message.ID}); !errs.HasCode(err, errs.ErrAccessDenied) {
		t.Fatalf("MarkRead(stranger) = %v, want ErrAccessDenied", err)
	}
	if _, err := g.MarkRead(ctx, supervisor, "t1", nil); !errs.HasCode(err, errs.ErrInvalidParams) {
		t.Fatalf("MarkRead(empty) = %v, want ErrInvalidParams", err)
	}

	marked, err := g.MarkRead(ctx, supervisor, "t1", []string{update.Message.ID})
	if err != nil || len(marked) != 1 {
		t.Fatalf("MarkRead = %v, %v, want one id", marked, err)
	}
	marked, err = g.MarkRead(ctx, supervisor, "t1", []string{update.Message.ID})
	if err != nil || len(marked) != 0 {
		t.Fatalf("MarkRead again = %v, %v, want none", marked, err)
	}
}

func TestGatewayAssign(t *testing.T) {
	g, _ := newGatewayFixture(t)
	ctx := context.Background()

	if _, err := g.Assign(ctx, candidate, "t1", "someone"); !errs.HasCode(err, errs.ErrAccessDenied) {
		t.Fatalf("Assign(candidate) = %v, want ErrAccessDenied", err)
	}

	tk, err := g.Assign(ctx, admin, "t1", admin.ID)
	if err != nil {
		t.Fatalf("Assign = %v", err)
	}
	if !tk.IsAssignee(admin.ID) {
		t.Fatalf("AssignedUserID = %v, want %s", tk.AssignedUserID, admin.ID)
	}
}
