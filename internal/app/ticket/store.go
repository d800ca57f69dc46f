package ticket

import (
	"context"
)

// Update is the outcome of an atomic write to a single ticket.
type Update struct {
	// Ticket is the ticket header after the write, without messages.
	Ticket *Ticket

	// Message is the appended message, set by AppendMessage only.
	Message *Message

	// Change is the status transition caused by the write, nil when the status held.
	Change *StatusChange
}

// Store persists ticket aggregates. Implementations serialize writes per ticket id
// and allow writes to distinct tickets to proceed in parallel.
//
// Errors are *errs.CustomError values: ErrTicketNotFound for unknown ids,
// ErrStoreUnavailable when the backing store fails.
type Store interface {
	// Create inserts a new ticket. t.ID must be set by the caller.
	Create(ctx context.Context, t *Ticket) error

	// Get returns the ticket header without messages.
	Get(ctx context.Context, id string) (*Ticket, error)

	// GetWithMessages returns the ticket with its ordered message log and receipts.
	GetWithMessages(ctx context.Context, id string) (*Ticket, error)

	// AppendMessage stores msg, stamping TicketID and CreatedAt, and applies the
	// transition Next derives from the sender's role in the same atomic step.
	AppendMessage(ctx context.Context, id string, msg Message) (*Update, error)

	// UpdateStatus sets the status directly and appends the system message.
	// Setting the current status fails with ErrStatusUnchanged.
	UpdateStatus(ctx context.Context, id string, status Status, notes string) (*Update, error)

	// MarkRead records receipts for userID and returns the ids newly marked.
	MarkRead(ctx context.Context, id string, userID string, messageIDs []string) ([]string, error)

	// Assign sets the assigned handler and returns the updated header.
	Assign(ctx context.Context, id string, assigneeID string) (*Ticket, error)
}

// Header returns a copy of t without its message log.
func Header(t *Ticket) *Ticket {
	cp := *t
	cp.Messages = nil
	if t.AssignedUserID != nil {
		id := *t.AssignedUserID
		cp.AssignedUserID = &id
	}
	if t.ResolvedAt != nil {
		at := *t.ResolvedAt
		cp.ResolvedAt = &at
	}
	return &cp
}
