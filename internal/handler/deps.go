package handler

import (
	"net/http"

	"ticketdesk/internal/app/chat"
	"ticketdesk/internal/app/storage"
	"ticketdesk/internal/app/ticket"
	"ticketdesk/internal/app/user"
	"ticketdesk/internal/configs"
	"ticketdesk/internal/pkg/auth/jwt"
	"ticketdesk/internal/pkg/errs"
	"ticketdesk/internal/pkg/pow"
)

// AppDeps carries the long-lived services shared by every handler.
type AppDeps struct {
	Hub    *chat.Hub
	Store  ticket.Store
	Config *configs.AppConfig

	// StorageService is nil when attachment storage is not configured.
	StorageService storage.StorageService

	Pow *pow.Manager
}

// currentUser returns the identity of the authenticated caller.
func currentUser(r *http.Request) (user.User, error) {
	payload := jwt.GetPayloadFromContext(r)
	if payload == nil {
		return user.User{}, errs.NewError(errs.ErrUnauthorized)
	}
	return payload.User(), nil
}
