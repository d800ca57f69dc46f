package chat

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"ticketdesk/internal/app/storage"
	"ticketdesk/internal/app/ticket"
	"ticketdesk/internal/app/user"
	"ticketdesk/internal/pkg/errs"
	"ticketdesk/internal/pkg/randx"
)

const (
	// DefaultMaxBodyLength bounds message bodies in characters.
	DefaultMaxBodyLength = 5000

	// DefaultMaxAttachments bounds the attachments of a single message.
	DefaultMaxAttachments = 5
)

// ObjectStat reports stored metadata of an attachment object.
type ObjectStat interface {
	Stat(ctx context.Context, key string) (storage.ObjectInfo, error)
}

// SendRequest is a message a user wants to post to a ticket.
type SendRequest struct {
	TicketID    string
	Body        string
	Kind        ticket.Kind
	Attachments []ticket.Attachment
}

// Gateway enforces ticket access and message rules in front of the Store.
// Access is evaluated against the stored ticket on every call.
type Gateway struct {
	store          ticket.Store
	objects        ObjectStat
	maxBodyLength  int
	maxAttachments int
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithObjectStat makes Send confirm that every attachment exists in storage.
func WithObjectStat(objects ObjectStat) GatewayOption {
	return func(g *Gateway) { g.objects = objects }
}

// WithLimits overrides the body length and attachment count bounds. Zero keeps the default.
func WithLimits(maxBodyLength, maxAttachments int) GatewayOption {
	return func(g *Gateway) {
		if maxBodyLength > 0 {
			g.maxBodyLength = maxBodyLength
		}
		if maxAttachments > 0 {
			g.maxAttachments = maxAttachments
		}
	}
}

// NewGateway returns a Gateway over store.
func NewGateway(store ticket.Store, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		store:          store,
		maxBodyLength:  DefaultMaxBodyLength,
		maxAttachments: DefaultMaxAttachments,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store returns the underlying ticket store.
func (g *Gateway) Store() ticket.Store {
	return g.store
}

// Authorize loads the ticket and checks that actor may access it.
func (g *Gateway) Authorize(ctx context.Context, actor user.User, ticketID string) (*ticket.Ticket, error) {
	if ticketID == "" {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	t, err := g.store.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if !t.CanAccess(actor) {
		return nil, errs.NewError(errs.ErrAccessDenied)
	}

	return t, nil
}

// validate checks the request shape without touching the store.
func (g *Gateway) validate(req *SendRequest) error {
	if req.TicketID == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if req.Kind == "" {
		req.Kind = ticket.KindText
	}
	if req.Kind != ticket.KindText && req.Kind != ticket.KindFile {
		return errs.NewError(errs.ErrMessageKindInvalid)
	}

	if strings.TrimSpace(req.Body) == "" {
		return errs.NewError(errs.ErrMessageContentEmpty)
	}
	if utf8.RuneCountInString(req.Body) > g.maxBodyLength {
		return errs.NewError(errs.ErrMessageContentTooLong, g.maxBodyLength)
	}

	count := len(req.Attachments)
	if count > g.maxAttachments || (req.Kind == ticket.KindFile && count == 0) {
		return errs.NewError(errs.ErrAttachmentCountInvalid, g.maxAttachments)
	}

	for _, a := range req.Attachments {
		if err := ticket.ValidateAttachment(req.TicketID, a); err != nil {
			return err
		}
	}

	return nil
}

// checkObjects confirms uploaded attachments exist with the declared size.
func (g *Gateway) checkObjects(ctx context.Context, attachments []ticket.Attachment) error {
	if g.objects == nil {
		return nil
	}

	for _, a := range attachments {
		info, err := g.objects.Stat(ctx, a.FileKey)
		if errors.Is(err, storage.ErrObjectNotFound) {
			return errs.NewError(errs.ErrAttachmentKeyInvalid)
		}
		if err != nil {
			return errs.NewError(errs.ErrFileStorageFailed)
		}
		if info.Size != a.FileSize {
			return errs.NewError(errs.ErrAttachmentKeyInvalid)
		}
	}

	return nil
}

// Send validates and persists a message from actor. The append and any status
// transition it causes are one atomic store write.
func (g *Gateway) Send(ctx context.Context, actor user.User, req SendRequest) (*ticket.Update, error) {
	if err := g.validate(&req); err != nil {
		return nil, err
	}

	if _, err := g.Authorize(ctx, actor, req.TicketID); err != nil {
		return nil, err
	}

	if err := g.checkObjects(ctx, req.Attachments); err != nil {
		return nil, err
	}

	return g.store.AppendMessage(ctx, req.TicketID, ticket.Message{
		ID:           randx.MessageID(),
		SenderUserID: actor.ID,
		SenderRole:   actor.Role,
		Body:         req.Body,
		Kind:         req.Kind,
		Attachments:  req.Attachments,
	})
}

// UpdateStatus sets the ticket status directly. Only privileged roles may call it.
func (g *Gateway) UpdateStatus(ctx context.Context, actor user.User, ticketID string, status ticket.Status, notes string) (*ticket.Update, error) {
	if !actor.IsPrivileged() {
		return nil, errs.NewError(errs.ErrAccessDenied)
	}
	if !status.Valid() {
		return nil, errs.NewError(errs.ErrStatusInvalid)
	}
	if utf8.RuneCountInString(notes) > g.maxBodyLength {
		return nil, errs.NewError(errs.ErrMessageContentTooLong, g.maxBodyLength)
	}

	if _, err := g.Authorize(ctx, actor, ticketID); err != nil {
		return nil, err
	}

	return g.store.UpdateStatus(ctx, ticketID, status, strings.TrimSpace(notes))
}

// MarkRead records read receipts for actor and returns the ids newly marked.
func (g *Gateway) MarkRead(ctx context.Context, actor user.User, ticketID string, messageIDs []string) ([]string, error) {
	if len(messageIDs) == 0 {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	if _, err := g.Authorize(ctx, actor, ticketID); err != nil {
		return nil, err
	}

	return g.store.MarkRead(ctx, ticketID, actor.ID, messageIDs)
}

// Assign sets the handler of a ticket. Only privileged roles may call it.
func (g *Gateway) Assign(ctx context.Context, actor user.User, ticketID string, assigneeID string) (*ticket.Ticket, error) {
	if !actor.IsPrivileged() {
		return nil, errs.NewError(errs.ErrAccessDenied)
	}
	if assigneeID == "" {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	if _, err := g.Authorize(ctx, actor, ticketID); err != nil {
		return nil, err
	}

	return g.store.Assign(ctx, ticketID, assigneeID)
}
