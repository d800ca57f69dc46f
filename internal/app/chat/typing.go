package chat

import (
	"sync"
	"time"
)

// TypingEntry identifies one user typing in one ticket.
type TypingEntry struct {
	TicketID string
	UserID   string
}

// Typing tracks who is typing in which ticket. Start and Stop are idempotent
// set operations; the reverse index bounds StopAll to the user's own tickets.
type Typing struct {
	mu       sync.Mutex
	byTicket map[string]map[string]time.Time
	byUser   map[string]map[string]struct{}
}

// NewTyping returns an empty tracker.
func NewTyping() *Typing {
	return &Typing{
		byTicket: make(map[string]map[string]time.Time),
		byUser:   make(map[string]map[string]struct{}),
	}
}

// Start records userID as typing in ticketID at now. It reports whether the
// entry is new; a repeated start only refreshes its timestamp.
func (t *Typing) Start(ticketID, userID string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.byTicket[ticketID]
	if !ok {
		users = make(map[string]time.Time)
		t.byTicket[ticketID] = users
	}
	_, existed := users[userID]
	users[userID] = now

	tickets, ok := t.byUser[userID]
	if !ok {
		tickets = make(map[string]struct{})
		t.byUser[userID] = tickets
	}
	tickets[ticketID] = struct{}{}

	return !existed
}

// Stop removes the entry and reports whether it existed.
func (t *Typing) Stop(ticketID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stopLocked(ticketID, userID)
}

func (t *Typing) stopLocked(ticketID, userID string) bool {
	users, ok := t.byTicket[ticketID]
	if !ok {
		return false
	}
	if _, exists := users[userID]; !exists {
		return false
	}

	delete(users, userID)
	if len(users) == 0 {
		delete(t.byTicket, ticketID)
	}

	if tickets, ok := t.byUser[userID]; ok {
		delete(tickets, ticketID)
		if len(tickets) == 0 {
			delete(t.byUser, userID)
		}
	}

	return true
}

// StopAll clears every entry of userID and returns the affected ticket ids.
func (t *Typing) StopAll(userID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	tickets := make([]string, 0, len(t.byUser[userID]))
	for ticketID := range t.byUser[userID] {
		tickets = append(tickets, ticketID)
	}
	for _, ticketID := range tickets {
		t.stopLocked(ticketID, userID)
	}

	return tickets
}

// Typers returns the users currently typing in ticketID.
func (t *Typing) Typers(ticketID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	users := make([]string, 0, len(t.byTicket[ticketID]))
	for userID := range t.byTicket[ticketID] {
		users = append(users, userID)
	}
	return users
}

// Sweep removes entries last refreshed before now-ttl and returns them.
func (t *Typing) Sweep(now time.Time, ttl time.Duration) []TypingEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := now.Add(-ttl)
	var expired []TypingEntry
	for ticketID, users := range t.byTicket {
		for userID, at := range users {
			if at.Before(cutoff) {
				expired = append(expired, TypingEntry{TicketID: ticketID, UserID: userID})
			}
		}
	}
	for _, e := range expired {
		t.stopLocked(e.TicketID, e.UserID)
	}

	return expired
}
