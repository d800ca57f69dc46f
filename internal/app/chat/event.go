package chat

import (
	"encoding/json"
	"time"

	"ticketdesk/internal/app/ticket"
	"ticketdesk/internal/app/user"
	"ticketdesk/internal/pkg/randx"
)

// EventType names an inbound or outbound event.
type EventType string

// Inbound events.
const (
	EventRegister     EventType = "user:register"
	EventJoin         EventType = "ticket:join"
	EventLeave        EventType = "ticket:leave"
	EventSend         EventType = "message:send"
	EventTypingStart  EventType = "typing:start"
	EventTypingStop   EventType = "typing:stop"
	EventMarkRead     EventType = "messages:mark_read"
	EventUpdateStatus EventType = "ticket:update_status"
)

// Outbound events.
const (
	EventRegistered     EventType = "user:registered"
	EventUserOnline     EventType = "user:online"
	EventUserOffline    EventType = "user:offline"
	EventJoined         EventType = "ticket:joined"
	EventUserJoined     EventType = "ticket:user_joined"
	EventUserLeft       EventType = "ticket:user_left"
	EventStatusUpdated  EventType = "ticket:status_updated"
	EventTicketCreated  EventType = "ticket:created"
	EventTicketAssigned EventType = "ticket:assigned"
	EventSent           EventType = "message:sent"
	EventReceived       EventType = "message:received"
	EventNotifyMessage  EventType = "notification:new_message"
	EventNotifyStatus   EventType = "notification:status_changed"
	EventTypingStarted  EventType = "typing:user_started"
	EventTypingStopped  EventType = "typing:user_stopped"
	EventReadStatus     EventType = "messages:read_status"
	EventAnnouncement   EventType = "announcement"
	EventError          EventType = "error"
)

// Inbound is the envelope of every client event.
type Inbound struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	TempID  string          `json:"temp_id,omitempty"`
}

// Event is the envelope of every server event.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Room      RoomID    `json:"room,omitempty"`
	Payload   any       `json:"payload"`
	Timestamp int64     `json:"timestamp"`
}

// NewEvent builds an outbound event stamped with a fresh id and the current time.
func NewEvent(eventType EventType, room RoomID, payload any) Event {
	return Event{
		ID:        randx.MessageID(),
		Type:      eventType,
		Room:      room,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

// RegisterPayload is the body of user:register.
type RegisterPayload struct {
	UserID      string    `json:"user_id"`
	Role        user.Role `json:"role,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
}

// TicketPayload carries a ticket id (join, leave, typing).
type TicketPayload struct {
	TicketID string `json:"ticket_id"`
}

// SendPayload is the body of message:send.
type SendPayload struct {
	TicketID    string              `json:"ticket_id"`
	Message     string              `json:"message"`
	MessageType ticket.Kind         `json:"message_type,omitempty"`
	Attachments []ticket.Attachment `json:"attachments,omitempty"`
}

// MarkReadPayload is the body of messages:mark_read.
type MarkReadPayload struct {
	TicketID   string   `json:"ticket_id"`
	MessageIDs []string `json:"message_ids"`
}

// UpdateStatusPayload is the body of ticket:update_status.
type UpdateStatusPayload struct {
	TicketID        string        `json:"ticket_id"`
	Status          ticket.Status `json:"status"`
	ResolutionNotes string        `json:"resolution_notes,omitempty"`
}

// ErrorPayload reports a failed action to its originator.
type ErrorPayload struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Event   EventType `json:"event,omitempty"`
}

// RegisteredPayload answers user:register.
type RegisteredPayload struct {
	Success bool      `json:"success"`
	UserID  string    `json:"user_id"`
	User    user.User `json:"user"`
}

// JoinedPayload answers ticket:join.
type JoinedPayload struct {
	TicketID    string        `json:"ticket_id"`
	Status      ticket.Status `json:"status"`
	ActiveUsers []user.User   `json:"active_users"`
	TypingUsers []string      `json:"typing_users"`
}

// PresencePayload announces a user joining, leaving or going online/offline.
type PresencePayload struct {
	TicketID string    `json:"ticket_id,omitempty"`
	User     user.User `json:"user"`
}

// SentPayload acknowledges message:send to the sender only.
type SentPayload struct {
	Success bool            `json:"success"`
	TempID  string          `json:"temp_id,omitempty"`
	Message *ticket.Message `json:"message,omitempty"`
	Error   *ErrorPayload   `json:"error,omitempty"`
}

// ReceivedPayload carries a new message to the ticket room.
type ReceivedPayload struct {
	TicketID string         `json:"ticket_id"`
	Message  ticket.Message `json:"message"`
}

// StatusUpdatedPayload announces a status transition.
type StatusUpdatedPayload struct {
	TicketID      string         `json:"ticket_id"`
	OldStatus     ticket.Status  `json:"old_status"`
	NewStatus     ticket.Status  `json:"new_status"`
	UpdatedBy     string         `json:"updated_by"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
	SystemMessage ticket.Message `json:"system_message"`
}

// NewMessageNotification is sent to routed identities.
type NewMessageNotification struct {
	TicketID  string      `json:"ticket_id"`
	Subject   string      `json:"subject,omitempty"`
	MessageID string      `json:"message_id"`
	Kind      ticket.Kind `json:"kind"`
	Sender    user.User   `json:"sender"`
	Preview   string      `json:"preview"`
}

// StatusNotification is sent to routed identities on an explicit status change.
type StatusNotification struct {
	TicketID  string        `json:"ticket_id"`
	Subject   string        `json:"subject,omitempty"`
	OldStatus ticket.Status `json:"old_status"`
	NewStatus ticket.Status `json:"new_status"`
	UpdatedBy user.User     `json:"updated_by"`
}

// TypingPayload announces a typing change.
type TypingPayload struct {
	TicketID    string `json:"ticket_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// ReadStatusPayload announces new read receipts.
type ReadStatusPayload struct {
	TicketID   string    `json:"ticket_id"`
	UserID     string    `json:"user_id"`
	MessageIDs []string  `json:"message_ids"`
	ReadAt     time.Time `json:"read_at"`
}

// TicketEventPayload carries a ticket header (created, assigned).
type TicketEventPayload struct {
	Ticket *ticket.Ticket `json:"ticket"`
	By     *user.User     `json:"by,omitempty"`
}

// AnnouncementPayload is a message to every connected user.
type AnnouncementPayload struct {
	From    user.User `json:"from"`
	Message string    `json:"message"`
}
