/*
Package ticket models the support ticket aggregate, its message log and lifecycle,
and the Store contract used to persist it.
*/
package ticket

import (
	"time"

	"ticketdesk/internal/app/user"
)

// Status enumerates lifecycle states for tickets.
type Status string

const (
	StatusOpen            Status = "open"
	StatusInProgress      Status = "in_progress"
	StatusWaitingResponse Status = "waiting_response"
	StatusResolved        Status = "resolved"
	StatusClosed          Status = "closed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusWaitingResponse, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// IsTerminal reports whether s marks the ticket as resolved or closed.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// Priority enumerates ticket urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Kind differentiates message payloads.
type Kind string

const (
	KindText   Kind = "text"
	KindFile   Kind = "file"
	KindSystem Kind = "system"
)

// Valid reports whether k is a known message kind.
func (k Kind) Valid() bool {
	return k == KindText || k == KindFile || k == KindSystem
}

// SystemSenderID is the sender id stamped on synthetic status-change messages.
const SystemSenderID = "system"

// Attachment is the opaque metadata of an uploaded file referenced by a message.
type Attachment struct {
	FileKey  string `json:"file_key"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// ReadReceipt records that a user has read a message.
type ReadReceipt struct {
	UserID string    `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

// Message is an immutable entry in a ticket's conversation. Only ReadBy grows after creation.
type Message struct {
	ID           string        `json:"message_id"`
	TicketID     string        `json:"ticket_id"`
	SenderUserID string        `json:"sender_user_id"`
	SenderRole   user.Role     `json:"sender_role"`
	Body         string        `json:"body"`
	Kind         Kind          `json:"kind"`
	Attachments  []Attachment  `json:"attachments"`
	CreatedAt    time.Time     `json:"created_at"`
	ReadBy       []ReadReceipt `json:"read_by"`
}

// HasReader reports whether userID already has a receipt on the message.
func (m *Message) HasReader(userID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for a support conversation.
type Ticket struct {
	ID             string     `json:"ticket_id"`
	OwnerUserID    string     `json:"owner_user_id"`
	AssignedUserID *string    `json:"assigned_user_id"`
	Subject        string     `json:"subject"`
	Status         Status     `json:"status"`
	Priority       Priority   `json:"priority"`
	Messages       []Message  `json:"messages,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	ResolvedAt     *time.Time `json:"resolved_at"`
}

// IsAssignee reports whether userID is the assigned handler.
func (t *Ticket) IsAssignee(userID string) bool {
	return t.AssignedUserID != nil && *t.AssignedUserID == userID
}

// CanAccess reports whether u may read and write the ticket: privileged roles always,
// otherwise only the owner or the assigned handler.
func (t *Ticket) CanAccess(u user.User) bool {
	if u.IsPrivileged() {
		return true
	}
	return u.ID != "" && (u.ID == t.OwnerUserID || t.IsAssignee(u.ID))
}

// Participants returns the owner and the assignee, if any.
func (t *Ticket) Participants() []string {
	ids := []string{t.OwnerUserID}
	if t.AssignedUserID != nil && *t.AssignedUserID != t.OwnerUserID {
		ids = append(ids, *t.AssignedUserID)
	}
	return ids
}

// Clone returns a deep copy so callers can hold the ticket without sharing store state.
func (t *Ticket) Clone() *Ticket {
	cp := *t
	if t.AssignedUserID != nil {
		id := *t.AssignedUserID
		cp.AssignedUserID = &id
	}
	if t.ResolvedAt != nil {
		at := *t.ResolvedAt
		cp.ResolvedAt = &at
	}
	if t.Messages != nil {
		cp.Messages = make([]Message, len(t.Messages))
		for i := range t.Messages {
			cp.Messages[i] = t.Messages[i].clone()
		}
	}
	return &cp
}

func (m Message) clone() Message {
	if m.Attachments != nil {
		m.Attachments = append([]Attachment(nil), m.Attachments...)
	}
	if m.ReadBy != nil {
		m.ReadBy = append([]ReadReceipt(nil), m.ReadBy...)
	}
	return m
}
