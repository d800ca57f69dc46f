/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which resolves the caller's identity
token, upgrades the HTTP connection to WebSocket, and starts the client lifecycle. The
connection becomes visible to others only after it sends user:register.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"ticketdesk/internal/app/chat"
	"ticketdesk/internal/pkg/auth/jwt"
	"ticketdesk/internal/pkg/errs"
	"ticketdesk/internal/pkg/logx"
	"ticketdesk/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			logx.Warn("WebSocket request rejected: Missing or invalid identity token")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		identity := payload.User()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, conn, identity)

		go client.WritePump()

		logx.Info("WebSocket connection established", "conn_id", client.ID(), "user_id", identity.ID, "role", string(identity.Role))

		// Event handling keeps the request values but not its cancellation.
		client.ReadPump(context.WithoutCancel(r.Context()))
	}
}
