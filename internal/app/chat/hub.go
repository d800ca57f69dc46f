/*
Package chat contains the core logic for the real-time ticket conversation layer.

This file defines the Hub, which coordinates presence, room membership and typing
state for every connection and fans events out to the right subset of them.
*/
package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"ticketdesk/internal/app/ticket"
	"ticketdesk/internal/app/user"
	"ticketdesk/internal/pkg/errs"
	"ticketdesk/internal/pkg/logx"
)

const (
	// previewLength bounds the message excerpt carried by notifications.
	previewLength = 140

	// maxDisplayNameLength bounds a display name chosen at registration, in runes.
	maxDisplayNameLength = 64
)

// HubConfig holds the tunables of a Hub.
type HubConfig struct {
	// TypingTTL expires typing entries that were not refreshed. Zero disables expiry.
	TypingTTL time.Duration
}

// Hub owns the in-memory real-time state. Register, disconnect and room
// membership commits are serialized by sessionMu, which never guards store or
// network calls; deliveries only enqueue onto client buffers.
type Hub struct {
	presence *Presence
	rooms    *Rooms
	typing   *Typing
	gateway  *Gateway

	sessionMu sync.Mutex

	typingTTL time.Duration
	now       func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger zerolog.Logger
}

// NewHub constructs a Hub and starts its typing sweeper.
func NewHub(gateway *Gateway, cfg HubConfig) *Hub {
	h := &Hub{
		presence:  NewPresence(),
		rooms:     NewRooms(),
		typing:    NewTyping(),
		gateway:   gateway,
		typingTTL: cfg.TypingTTL,
		now:       time.Now,
		stop:      make(chan struct{}),
		logger:    logx.Component("Hub"),
	}

	if h.typingTTL > 0 {
		h.wg.Add(1)
		go h.runTypingSweeper()
	}

	return h
}

// Gateway returns the message gateway used by the hub.
func (h *Hub) Gateway() *Gateway {
	return h.gateway
}

// Presence returns the presence registry.
func (h *Hub) Presence() *Presence {
	return h.presence
}

// runTypingSweeper expires stale typing entries until Shutdown.
func (h *Hub) runTypingSweeper() {
	defer h.wg.Done()

	interval := h.typingTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.logger.Info().Dur("ttl", h.typingTTL).Msg("Typing sweeper started.")

	for {
		select {
		case <-ticker.C:
			h.sweepTyping()
		case <-h.stop:
			h.logger.Info().Msg("Typing sweeper stopped.")
			return
		}
	}
}

func (h *Hub) sweepTyping() {
	for _, e := range h.typing.Sweep(h.now(), h.typingTTL) {
		h.broadcast(TicketRoom(e.TicketID), EventTypingStopped, TypingPayload{
			TicketID: e.TicketID,
			UserID:   e.UserID,
		}, e.UserID)
	}
}

// Shutdown stops the sweeper and closes every live connection.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		h.logger.Info().Msg("Shutting down Hub...")

		close(h.stop)
		h.wg.Wait()

		for _, c := range h.presence.Clients() {
			c.Close()
		}

		h.logger.Info().Msg("Hub shutdown complete.")
	})
}

// membersOf returns the members of room that still have a live connection.
func (h *Hub) membersOf(room RoomID) []string {
	members := h.rooms.Members(room)
	live := members[:0]
	for _, id := range members {
		if h.presence.IsOnline(id) {
			live = append(live, id)
		}
	}
	return live
}

// MembersOf returns the live members of room.
func (h *Hub) MembersOf(room RoomID) []string {
	return h.membersOf(room)
}

// broadcast delivers an event to every live member of room except the user exclude.
// Fan-out is process-local; running several instances needs a pub/sub backplane
// keyed by room id at this point.
func (h *Hub) broadcast(room RoomID, eventType EventType, payload any, exclude string) {
	h.deliver(h.membersOf(room), NewEvent(eventType, room, payload), exclude)
}

// deliver encodes ev once and queues it on the live connection of each user.
func (h *Hub) deliver(userIDs []string, ev Event, exclude string) {
	if len(userIDs) == 0 {
		return
	}

	messageBytes, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error().Err(err).Str("event", string(ev.Type)).Msg("Error marshaling event for broadcast.")
		return
	}

	for _, id := range userIDs {
		if id == exclude {
			continue
		}
		c, ok := h.presence.Lookup(id)
		if !ok {
			continue
		}
		if err := c.enqueue(messageBytes); err != nil {
			h.logger.Debug().Err(err).Str("user_id", id).Str("event", string(ev.Type)).Msg("Dropped event for client.")
		}
	}
}

// notify delivers ev once to every routed identity's personal room, adding the
// observers room when requested. Nobody is notified twice and exclude never is.
func (h *Hub) notify(recipients Recipients, eventType EventType, payload any, exclude string) {
	targets := make(map[string]struct{})
	for _, id := range recipients.Users {
		targets[id] = struct{}{}
	}
	if recipients.Observers {
		for _, id := range h.membersOf(RoomObservers) {
			targets[id] = struct{}{}
		}
	}
	delete(targets, exclude)

	for id := range targets {
		room := SelfRoom(id)
		h.deliver(h.membersOf(room), NewEvent(eventType, room, payload), exclude)
	}
}

// Dispatch routes one inbound event from c. Every failure is reported to c only.
func (h *Hub) Dispatch(ctx context.Context, c *Client, in Inbound) {
	if in.Type == EventRegister {
		var payload RegisterPayload
		if err := decodePayload(in.Payload, &payload); err != nil {
			c.SendError(in.Type, err)
			return
		}
		if err := h.Register(c, payload); err != nil {
			c.SendError(in.Type, err)
		}
		return
	}

	u, ok := h.sessionUser(c)
	if !ok {
		if in.Type == EventSend {
			h.nackSend(c, in.TempID, errs.NewError(errs.ErrNotAuthenticated))
			return
		}
		c.SendError(in.Type, errs.NewError(errs.ErrNotAuthenticated))
		return
	}

	var err error
	switch in.Type {
	case EventJoin:
		var payload TicketPayload
		if err = decodePayload(in.Payload, &payload); err == nil {
			err = h.Join(ctx, c, u, payload.TicketID)
		}

	case EventLeave:
		var payload TicketPayload
		if err = decodePayload(in.Payload, &payload); err == nil {
			err = h.Leave(u, payload.TicketID)
		}

	case EventSend:
		var payload SendPayload
		if err = decodePayload(in.Payload, &payload); err != nil {
			h.nackSend(c, in.TempID, err)
			return
		}
		h.SendMessage(ctx, c, u, payload, in.TempID)
		return

	case EventTypingStart:
		var payload TicketPayload
		if err = decodePayload(in.Payload, &payload); err == nil {
			err = h.StartTyping(u, payload.TicketID)
		}

	case EventTypingStop:
		var payload TicketPayload
		if err = decodePayload(in.Payload, &payload); err == nil {
			err = h.StopTyping(u, payload.TicketID)
		}

	case EventMarkRead:
		var payload MarkReadPayload
		if err = decodePayload(in.Payload, &payload); err == nil {
			err = h.MarkRead(ctx, u, payload)
		}

	case EventUpdateStatus:
		var payload UpdateStatusPayload
		if err = decodePayload(in.Payload, &payload); err == nil {
			err = h.UpdateStatus(ctx, c, u, payload)
		}

	default:
		c.logger.Warn().Str("event", string(in.Type)).Msg("Client sent unsupported event type")
		err = errs.NewError(errs.ErrUnsupportedEvent, string(in.Type))
	}

	if err != nil {
		c.SendError(in.Type, err)
	}
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}
	return nil
}

// sessionUser returns the identity bound to c while c is still the user's live connection.
func (h *Hub) sessionUser(c *Client) (user.User, bool) {
	u, ok := c.User()
	if !ok || !h.presence.IsCurrent(u.ID, c) {
		return user.User{}, false
	}
	return u, true
}

// Register binds c to the identity in payload, which must match the connection's
// credential. A live connection of the same user is cleared and kicked first.
func (h *Hub) Register(c *Client, payload RegisterPayload) error {
	identity := c.Identity()
	if payload.UserID == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if payload.UserID != identity.ID || (payload.Role != "" && payload.Role != identity.Role) {
		c.logger.Warn().
			Str("claimed_user_id", payload.UserID).
			Str("claimed_role", string(payload.Role)).
			Msg("Registration does not match credential")
		return errs.NewError(errs.ErrAccessDenied)
	}

	select {
	case <-c.Done():
		return errs.NewError(errs.ErrSessionKicked)
	default:
	}

	u := identity
	if name := payload.DisplayName; name != "" && utf8.RuneCountInString(name) <= maxDisplayNameLength {
		u.DisplayName = name
	}

	h.sessionMu.Lock()

	if bound, ok := c.User(); ok && h.presence.IsCurrent(bound.ID, c) {
		h.sessionMu.Unlock()
		return c.Send(NewEvent(EventRegistered, SelfRoom(bound.ID), RegisteredPayload{Success: true, UserID: bound.ID, User: bound}))
	}

	old, hadOld := h.presence.Lookup(u.ID)
	if hadOld && old != c {
		h.evictLocked(u.ID)
	}

	c.bind(u)
	h.presence.Register(u.ID, c)

	h.rooms.Join(SelfRoom(u.ID), u.ID)
	h.rooms.Join(RoomGlobal, u.ID)
	if u.IsPrivileged() {
		h.rooms.Join(RoomObservers, u.ID)
	}

	h.sessionMu.Unlock()

	if hadOld && old != c {
		old.Kick("Session replaced by new connection. Check other tabs.")
	}

	h.logger.Info().
		Str("user_id", u.ID).
		Str("role", string(u.Role)).
		Str("conn_id", c.ID()).
		Bool("replaced", hadOld && old != c).
		Msg("User registered.")

	if err := c.Send(NewEvent(EventRegistered, SelfRoom(u.ID), RegisteredPayload{Success: true, UserID: u.ID, User: u})); err != nil {
		return err
	}

	h.broadcast(RoomObservers, EventUserOnline, PresencePayload{User: u}, u.ID)
	return nil
}

// evictLocked clears the typing entries and room memberships of userID with the
// usual notices. The caller holds sessionMu.
func (h *Hub) evictLocked(userID string) {
	for _, ticketID := range h.typing.StopAll(userID) {
		h.broadcast(TicketRoom(ticketID), EventTypingStopped, TypingPayload{TicketID: ticketID, UserID: userID}, userID)
	}

	for _, room := range h.rooms.LeaveAll(userID) {
		if ticketID, ok := room.TicketID(); ok {
			h.broadcast(room, EventUserLeft, PresencePayload{TicketID: ticketID, User: user.User{ID: userID}}, userID)
		}
	}
}

// Disconnect runs the cleanup cascade for c. A connection that never registered,
// or was already replaced, leaves no state behind and is ignored. Each step is
// attempted even if an earlier one fails.
func (h *Hub) Disconnect(c *Client) {
	u, ok := c.User()
	if !ok {
		return
	}

	h.sessionMu.Lock()
	defer h.sessionMu.Unlock()

	if !h.presence.Unregister(u.ID, c) {
		c.logger.Info().Msg("Ignoring disconnect for STALE connection.")
		return
	}

	h.cleanupStep("typing", u.ID, func() {
		for _, ticketID := range h.typing.StopAll(u.ID) {
			h.broadcast(TicketRoom(ticketID), EventTypingStopped, TypingPayload{TicketID: ticketID, UserID: u.ID, DisplayName: u.DisplayName}, u.ID)
		}
	})

	h.cleanupStep("rooms", u.ID, func() {
		for _, room := range h.rooms.LeaveAll(u.ID) {
			if ticketID, ok := room.TicketID(); ok {
				h.broadcast(room, EventUserLeft, PresencePayload{TicketID: ticketID, User: u}, u.ID)
			}
		}
	})

	h.cleanupStep("offline", u.ID, func() {
		h.broadcast(RoomObservers, EventUserOffline, PresencePayload{User: u}, u.ID)
	})

	h.logger.Info().Str("user_id", u.ID).Str("conn_id", c.ID()).Msg("User disconnected.")
}

func (h *Hub) cleanupStep(step, userID string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().
				Str("step", step).
				Str("user_id", userID).
				Interface("panic", r).
				Msg("Disconnect cleanup step failed")
		}
	}()
	fn()
}

// Join subscribes u to a ticket room after a fresh access check.
func (h *Hub) Join(ctx context.Context, c *Client, u user.User, ticketID string) error {
	t, err := h.gateway.Authorize(ctx, u, ticketID)
	if err != nil {
		return err
	}

	room := TicketRoom(ticketID)

	h.sessionMu.Lock()
	if !h.presence.IsCurrent(u.ID, c) {
		h.sessionMu.Unlock()
		return errs.NewError(errs.ErrNotAuthenticated)
	}
	joined := h.rooms.Join(room, u.ID)
	members := h.membersOf(room)
	typers := h.typing.Typers(ticketID)
	h.sessionMu.Unlock()

	active := make([]user.User, 0, len(members))
	for _, id := range members {
		if mc, ok := h.presence.Lookup(id); ok {
			if mu, ok := mc.User(); ok {
				active = append(active, mu)
			}
		}
	}

	if err := c.Send(NewEvent(EventJoined, room, JoinedPayload{
		TicketID:    ticketID,
		Status:      t.Status,
		ActiveUsers: active,
		TypingUsers: typers,
	})); err != nil {
		return err
	}

	if joined {
		h.broadcast(room, EventUserJoined, PresencePayload{TicketID: ticketID, User: u}, u.ID)
	}
	return nil
}

// Leave unsubscribes u from a ticket room. Leaving twice is a no-op.
func (h *Hub) Leave(u user.User, ticketID string) error {
	if ticketID == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	room := TicketRoom(ticketID)

	h.sessionMu.Lock()
	stopped := h.typing.Stop(ticketID, u.ID)
	left := h.rooms.Leave(room, u.ID)
	h.sessionMu.Unlock()

	if stopped {
		h.broadcast(room, EventTypingStopped, TypingPayload{TicketID: ticketID, UserID: u.ID, DisplayName: u.DisplayName}, u.ID)
	}
	if left {
		h.broadcast(room, EventUserLeft, PresencePayload{TicketID: ticketID, User: u}, u.ID)
	}
	return nil
}

// nackSend reports a failed message:send to the sender.
func (h *Hub) nackSend(c *Client, tempID string, err error) {
	customErr := errs.From(err)

	if sendErr := c.Send(NewEvent(EventSent, "", SentPayload{
		Success: false,
		TempID:  tempID,
		Error:   &ErrorPayload{Code: customErr.Code, Message: customErr.Message, Event: EventSend},
	})); sendErr != nil {
		c.logger.Debug().Err(sendErr).Msg("Failed to queue send NACK")
	}
}

// SendMessage posts a message for u. The sender gets a private acknowledgment,
// the ticket room gets the message, and routed identities get a notification.
func (h *Hub) SendMessage(ctx context.Context, c *Client, u user.User, payload SendPayload, tempID string) {
	update, err := h.gateway.Send(ctx, u, SendRequest{
		TicketID:    payload.TicketID,
		Body:        payload.Message,
		Kind:        payload.MessageType,
		Attachments: payload.Attachments,
	})
	if err != nil {
		c.logger.Debug().Err(err).Str("ticket_id", payload.TicketID).Msg("Message rejected")
		h.nackSend(c, tempID, err)
		return
	}

	if err := c.Send(NewEvent(EventSent, TicketRoom(payload.TicketID), SentPayload{Success: true, TempID: tempID, Message: update.Message})); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to queue send ACK")
	}

	h.MessagePosted(update, u)
}

// MessagePosted fans out a message stored by author: it clears the author's
// typing entry, broadcasts to the ticket room and routes notifications.
func (h *Hub) MessagePosted(update *ticket.Update, author user.User) {
	msg := *update.Message
	t := update.Ticket
	room := TicketRoom(t.ID)

	if h.typing.Stop(t.ID, author.ID) {
		h.broadcast(room, EventTypingStopped, TypingPayload{TicketID: t.ID, UserID: author.ID, DisplayName: author.DisplayName}, author.ID)
	}

	h.broadcast(room, EventReceived, ReceivedPayload{TicketID: t.ID, Message: msg}, author.ID)

	if change := update.Change; change != nil {
		h.broadcast(room, EventStatusUpdated, statusPayload(t, change, author), "")
	}

	h.notify(Route(t, author), EventNotifyMessage, NewMessageNotification{
		TicketID:  t.ID,
		Subject:   t.Subject,
		MessageID: msg.ID,
		Kind:      msg.Kind,
		Sender:    author,
		Preview:   preview(msg.Body),
	}, author.ID)
}

func statusPayload(t *ticket.Ticket, change *ticket.StatusChange, actor user.User) StatusUpdatedPayload {
	return StatusUpdatedPayload{
		TicketID:      t.ID,
		OldStatus:     change.From,
		NewStatus:     change.To,
		UpdatedBy:     actor.ID,
		ResolvedAt:    t.ResolvedAt,
		SystemMessage: change.System,
	}
}

func preview(body string) string {
	if utf8.RuneCountInString(body) <= previewLength {
		return body
	}
	runes := []rune(body)
	return string(runes[:previewLength]) + "…"
}

// StartTyping records u as typing. Only members of the ticket room may signal.
func (h *Hub) StartTyping(u user.User, ticketID string) error {
	if ticketID == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	room := TicketRoom(ticketID)

	h.sessionMu.Lock()
	if !h.rooms.IsMember(room, u.ID) {
		h.sessionMu.Unlock()
		return errs.NewError(errs.ErrNotInRoom)
	}
	started := h.typing.Start(ticketID, u.ID, h.now())
	h.sessionMu.Unlock()

	if started {
		h.broadcast(room, EventTypingStarted, TypingPayload{TicketID: ticketID, UserID: u.ID, DisplayName: u.DisplayName}, u.ID)
	}
	return nil
}

// StopTyping clears the typing entry of u. Stopping twice is a no-op.
func (h *Hub) StopTyping(u user.User, ticketID string) error {
	if ticketID == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if h.typing.Stop(ticketID, u.ID) {
		h.broadcast(TicketRoom(ticketID), EventTypingStopped, TypingPayload{TicketID: ticketID, UserID: u.ID, DisplayName: u.DisplayName}, u.ID)
	}
	return nil
}

// MarkRead records read receipts and tells the rest of the room.
func (h *Hub) MarkRead(ctx context.Context, u user.User, payload MarkReadPayload) error {
	marked, err := h.gateway.MarkRead(ctx, u, payload.TicketID, payload.MessageIDs)
	if err != nil {
		return err
	}
	if len(marked) == 0 {
		return nil
	}

	h.broadcast(TicketRoom(payload.TicketID), EventReadStatus, ReadStatusPayload{
		TicketID:   payload.TicketID,
		UserID:     u.ID,
		MessageIDs: marked,
		ReadAt:     h.now().UTC(),
	}, u.ID)
	return nil
}

// UpdateStatus applies an explicit status change by a privileged user, announces
// it to the whole ticket room and notifies the owner and assignee.
func (h *Hub) UpdateStatus(ctx context.Context, c *Client, u user.User, payload UpdateStatusPayload) error {
	update, err := h.gateway.UpdateStatus(ctx, u, payload.TicketID, payload.Status, payload.ResolutionNotes)
	if err != nil {
		return err
	}

	room := TicketRoom(payload.TicketID)
	statusEvent := statusPayload(update.Ticket, update.Change, u)

	h.broadcast(room, EventStatusUpdated, statusEvent, u.ID)
	if err := c.Send(NewEvent(EventStatusUpdated, room, statusEvent)); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to queue status update to actor")
	}

	h.notify(Route(update.Ticket, u), EventNotifyStatus, StatusNotification{
		TicketID:  update.Ticket.ID,
		Subject:   update.Ticket.Subject,
		OldStatus: update.Change.From,
		NewStatus: update.Change.To,
		UpdatedBy: u,
	}, u.ID)

	h.logger.Info().
		Str("ticket_id", payload.TicketID).
		Str("from", string(update.Change.From)).
		Str("to", string(update.Change.To)).
		Str("by", u.ID).
		Msg("Ticket status updated.")
	return nil
}

// TicketCreated announces a new ticket to every observer.
func (h *Hub) TicketCreated(t *ticket.Ticket, by user.User) {
	h.broadcast(RoomObservers, EventTicketCreated, TicketEventPayload{Ticket: t, By: &by}, by.ID)
}

// TicketAssigned announces an assignment to the ticket room and the new assignee.
func (h *Hub) TicketAssigned(t *ticket.Ticket, by user.User) {
	payload := TicketEventPayload{Ticket: t, By: &by}
	assignee := ""
	if t.AssignedUserID != nil {
		assignee = *t.AssignedUserID
	}

	room := TicketRoom(t.ID)
	members := h.membersOf(room)
	ev := NewEvent(EventTicketAssigned, room, payload)
	h.deliver(members, ev, assignee)

	if assignee != "" {
		self := SelfRoom(assignee)
		h.deliver(h.membersOf(self), NewEvent(EventTicketAssigned, self, payload), "")
	}
}

// Announce sends a message from a privileged user to everyone connected.
func (h *Hub) Announce(from user.User, message string) error {
	if !from.IsPrivileged() {
		return errs.NewError(errs.ErrAccessDenied)
	}
	if message == "" {
		return errs.NewError(errs.ErrMessageContentEmpty)
	}

	h.broadcast(RoomGlobal, EventAnnouncement, AnnouncementPayload{From: from, Message: message}, "")
	return nil
}
