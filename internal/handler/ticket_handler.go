/*
Package handler provides HTTP handler functions for creating, reading and assigning tickets.
*/
package handler

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"ticketdesk/internal/app/chat"
	"ticketdesk/internal/app/ticket"
	"ticketdesk/internal/pkg/errs"
	"ticketdesk/internal/pkg/logx"
	"ticketdesk/internal/pkg/randx"
	"ticketdesk/internal/pkg/req"
	"ticketdesk/internal/pkg/resp"
)

// MaxSubjectLength bounds ticket subjects in characters.
const MaxSubjectLength = 200

// CreateTicketInput defines the JSON input for opening a ticket.
type CreateTicketInput struct {
	Subject  string          `json:"subject"`
	Priority ticket.Priority `json:"priority,omitempty"`

	// Message optionally becomes the first message of the conversation.
	Message string `json:"message,omitempty"`
}

// AssignTicketInput defines the JSON input for assigning a ticket.
type AssignTicketInput struct {
	AssigneeUserID string `json:"assignee_user_id"`
}

// HandleCreateTicket opens a ticket owned by the caller and tells the observers.
func HandleCreateTicket(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		var input CreateTicketInput
		if err := req.BindJSON(w, r, &input); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		subject := strings.TrimSpace(input.Subject)
		if subject == "" || utf8.RuneCountInString(subject) > MaxSubjectLength {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		if input.Priority != "" && !input.Priority.Valid() {
			resp.RespondError(w, r, errs.NewError(errs.ErrPriorityInvalid))
			return
		}

		t := &ticket.Ticket{
			ID:          randx.TicketID(),
			OwnerUserID: u.ID,
			Subject:     subject,
			Priority:    input.Priority,
		}
		if err := deps.Store.Create(r.Context(), t); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if strings.TrimSpace(input.Message) != "" {
			update, err := deps.Hub.Gateway().Send(r.Context(), u, chat.SendRequest{TicketID: t.ID, Body: input.Message})
			if err != nil {
				logx.Warn("Ticket created without its first message", "ticket_id", t.ID, "error", err.Error())
			} else {
				deps.Hub.MessagePosted(update, u)
				if full, err := deps.Store.GetWithMessages(r.Context(), t.ID); err == nil {
					t = full
				}
			}
		}

		logx.Info("Ticket created", "ticket_id", t.ID, "owner", u.ID, "priority", string(t.Priority))

		deps.Hub.TicketCreated(ticket.Header(t), u)

		resp.RespondSuccess(w, r, t)
	}
}

// HandleGetTicket returns a ticket with its messages to anyone allowed to access it.
func HandleGetTicket(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		ticketID := chi.URLParam(r, "ticketID")
		if _, err := deps.Hub.Gateway().Authorize(r.Context(), u, ticketID); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		t, err := deps.Store.GetWithMessages(r.Context(), ticketID)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, t)
	}
}

// HandleAssignTicket sets the handler of a ticket. Privileged callers only.
func HandleAssignTicket(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		var input AssignTicketInput
		if err := req.BindJSON(w, r, &input); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		t, err := deps.Hub.Gateway().Assign(r.Context(), u, chi.URLParam(r, "ticketID"), strings.TrimSpace(input.AssigneeUserID))
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		deps.Hub.TicketAssigned(t, u)

		resp.RespondSuccess(w, r, t)
	}
}
