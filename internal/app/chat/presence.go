package chat

import (
	"sync"

	"ticketdesk/internal/app/user"
)

// Presence maps each online user to its single live connection. A later
// registration for the same user replaces the earlier one.
type Presence struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewPresence returns an empty registry.
func NewPresence() *Presence {
	return &Presence{clients: make(map[string]*Client)}
}

// Register binds c to userID and returns the connection it replaced, if any.
func (p *Presence) Register(userID string, c *Client) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	old := p.clients[userID]
	p.clients[userID] = c
	if old == c {
		return nil
	}
	return old
}

// Unregister removes the binding of userID only if it still points at c.
// It reports whether anything was removed; a replaced connection is a no-op.
func (p *Presence) Unregister(userID string, c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if current, ok := p.clients[userID]; ok && current == c {
		delete(p.clients, userID)
		return true
	}
	return false
}

// Lookup returns the live connection of userID.
func (p *Presence) Lookup(userID string) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	c, ok := p.clients[userID]
	return c, ok
}

// IsOnline reports whether userID has a live connection.
func (p *Presence) IsOnline(userID string) bool {
	_, ok := p.Lookup(userID)
	return ok
}

// IsCurrent reports whether c is the live connection of userID.
func (p *Presence) IsCurrent(userID string, c *Client) bool {
	current, ok := p.Lookup(userID)
	return ok && current == c
}

// Online returns the identities of every connected user.
func (p *Presence) Online() []user.User {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]user.User, 0, len(p.clients))
	for _, c := range p.clients {
		if u, ok := c.User(); ok {
			users = append(users, u)
		}
	}
	return users
}

// Clients returns a snapshot of every live connection.
func (p *Presence) Clients() []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()

	clients := make([]*Client, 0, len(p.clients))
	for _, c := range p.clients {
		clients = append(clients, c)
	}
	return clients
}
