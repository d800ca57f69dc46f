package ticket

import (
	"fmt"
	"time"

	"ticketdesk/internal/app/user"
	"ticketdesk/internal/pkg/errs"
	"ticketdesk/internal/pkg/randx"
)

// StatusChange describes a transition applied to a ticket together with the
// system message recording it.
type StatusChange struct {
	From   Status  `json:"old_status"`
	To     Status  `json:"new_status"`
	System Message `json:"system_message"`
}

// Next returns the status a ticket moves to when a message from senderRole arrives.
// Staff replies pick up open or waiting tickets, candidate replies hand an in-progress
// ticket back to staff. Every other pair, including anything on a closed ticket, is unchanged.
func Next(current Status, senderRole user.Role) Status {
	staff := senderRole != user.RoleCandidate

	switch {
	case current == StatusOpen && staff:
		return StatusInProgress
	case current == StatusWaitingResponse && staff:
		return StatusInProgress
	case current == StatusInProgress && !staff:
		return StatusWaitingResponse
	}

	return current
}

// StatusSummary renders the body of the system message for a transition.
func StatusSummary(from, to Status, notes string) string {
	summary := fmt.Sprintf("Status changed from %s to %s.", from, to)
	if notes != "" {
		summary += " Resolution: " + notes
	}
	return summary
}

// SetStatus moves t to status and returns the change, or nil if t already has it.
// Entering resolved or closed stamps ResolvedAt when it is unset; leaving those
// states keeps the last resolution time. The system message is returned, not appended.
func SetStatus(t *Ticket, status Status, notes string, now time.Time) *StatusChange {
	if t.Status == status {
		return nil
	}

	change := &StatusChange{
		From: t.Status,
		To:   status,
		System: Message{
			ID:           randx.MessageID(),
			TicketID:     t.ID,
			SenderUserID: SystemSenderID,
			Body:         StatusSummary(t.Status, status, notes),
			Kind:         KindSystem,
			Attachments:  []Attachment{},
			CreatedAt:    now,
			ReadBy:       []ReadReceipt{},
		},
	}

	t.Status = status
	if status.IsTerminal() && t.ResolvedAt == nil {
		at := now
		t.ResolvedAt = &at
	}
	t.LastActivityAt = now

	return change
}

// Append adds msg to the in-memory message log and bumps the activity time.
func Append(t *Ticket, msg Message, now time.Time) {
	t.Messages = append(t.Messages, msg)
	t.LastActivityAt = now
}

// MarkRead adds a receipt for userID to every listed message that lacks one and
// returns the ids that were newly marked. Unknown ids fail the whole call before
// anything is applied.
func MarkRead(t *Ticket, userID string, messageIDs []string, now time.Time) ([]string, error) {
	index := make(map[string]int, len(t.Messages))
	for i := range t.Messages {
		index[t.Messages[i].ID] = i
	}

	for _, id := range messageIDs {
		if _, ok := index[id]; !ok {
			return nil, errs.NewError(errs.ErrMessageNotFound, id)
		}
	}

	marked := make([]string, 0, len(messageIDs))
	for _, id := range messageIDs {
		msg := &t.Messages[index[id]]
		if msg.HasReader(userID) {
			continue
		}
		msg.ReadBy = append(msg.ReadBy, ReadReceipt{UserID: userID, ReadAt: now})
		marked = append(marked, id)
	}

	return marked, nil
}
