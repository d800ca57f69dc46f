package ticket

import (
	"context"
	"sync"
	"time"

	"ticketdesk/internal/pkg/errs"
)

type memEntry struct {
	mu     sync.Mutex
	ticket *Ticket
}

// MemoryStore is an in-process Store. Each ticket has its own lock, so writes to
// one ticket never wait on another.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]*memEntry

	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets: make(map[string]*memEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) entry(id string) (*memEntry, error) {
	s.mu.RLock()
	e, ok := s.tickets[id]
	s.mu.RUnlock()

	if !ok {
		return nil, errs.NewError(errs.ErrTicketNotFound)
	}
	return e, nil
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, t *Ticket) error {
	if t.ID == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	cp := t.Clone()
	now := s.now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	if cp.LastActivityAt.IsZero() {
		cp.LastActivityAt = cp.CreatedAt
	}
	if cp.Status == "" {
		cp.Status = StatusOpen
	}
	if cp.Priority == "" {
		cp.Priority = PriorityMedium
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tickets[cp.ID]; exists {
		return errs.NewError(errs.ErrTicketExists)
	}
	s.tickets[cp.ID] = &memEntry{ticket: cp}

	*t = *cp.Clone()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Ticket, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return Header(e.ticket), nil
}

// GetWithMessages implements Store.
func (s *MemoryStore) GetWithMessages(ctx context.Context, id string) (*Ticket, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ticket.Clone(), nil
}

// AppendMessage implements Store.
func (s *MemoryStore) AppendMessage(ctx context.Context, id string, msg Message) (*Update, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now()
	msg.TicketID = id
	msg.CreatedAt = now
	if msg.Attachments == nil {
		msg.Attachments = []Attachment{}
	}
	msg.ReadBy = []ReadReceipt{}

	t := e.ticket
	Append(t, msg, now)

	update := &Update{Message: &msg}
	if next := Next(t.Status, msg.SenderRole); next != t.Status {
		update.Change = SetStatus(t, next, "", now)
		Append(t, update.Change.System, now)
	}
	update.Ticket = Header(t)

	return update, nil
}

// UpdateStatus implements Store.
func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status Status, notes string) (*Update, error) {
	if !status.Valid() {
		return nil, errs.NewError(errs.ErrStatusInvalid)
	}

	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now()
	t := e.ticket
	change := SetStatus(t, status, notes, now)
	if change == nil {
		return nil, errs.NewError(errs.ErrStatusUnchanged, status)
	}
	Append(t, change.System, now)

	return &Update{Ticket: Header(t), Change: change}, nil
}

// MarkRead implements Store.
func (s *MemoryStore) MarkRead(ctx context.Context, id string, userID string, messageIDs []string) ([]string, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return MarkRead(e.ticket, userID, messageIDs, s.now())
}

// Assign implements Store.
func (s *MemoryStore) Assign(ctx context.Context, id string, assigneeID string) (*Ticket, error) {
	if assigneeID == "" {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	assignee := assigneeID
	e.ticket.AssignedUserID = &assignee
	e.ticket.LastActivityAt = s.now()

	return Header(e.ticket), nil
}
