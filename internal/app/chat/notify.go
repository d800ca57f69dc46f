package chat

import (
	"ticketdesk/internal/app/ticket"
	"ticketdesk/internal/app/user"
)

// Recipients is the identity set an out-of-band notification is addressed to.
// Translation to live connections happens at delivery, so offline users simply miss it.
type Recipients struct {
	// Users are notified through their personal rooms.
	Users []string

	// Observers is set when every privileged observer must be notified as well.
	Observers bool
}

// Route returns who should hear about a new message or status change on t
// authored by sender: the owner and the assignee unless they are the sender,
// plus every observer when the sender is a candidate.
func Route(t *ticket.Ticket, sender user.User) Recipients {
	var r Recipients

	for _, id := range t.Participants() {
		if id != "" && id != sender.ID {
			r.Users = append(r.Users, id)
		}
	}
	r.Observers = sender.Role == user.RoleCandidate

	return r
}
