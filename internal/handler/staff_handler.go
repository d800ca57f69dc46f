package handler

import (
	"net/http"
	"strings"

	"ticketdesk/internal/pkg/errs"
	"ticketdesk/internal/pkg/req"
	"ticketdesk/internal/pkg/resp"
)

// AnnouncementInput is the body of an announcement.
type AnnouncementInput struct {
	Message string `json:"message"`
}

// HandleAnnouncement broadcasts a message to every connected user.
func HandleAnnouncement(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		var input AnnouncementInput
		if err := req.BindJSON(w, r, &input); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := deps.Hub.Announce(u, strings.TrimSpace(input.Message)); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandlePresence lists the users with a live registered connection.
func HandlePresence(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}
		if !u.IsPrivileged() {
			resp.RespondError(w, r, errs.NewError(errs.ErrAccessDenied))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"users": deps.Hub.Presence().Online(),
		})
	}
}
