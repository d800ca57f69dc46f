package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"ticketdesk/internal/app/ticket"
	"ticketdesk/internal/pkg/errs"
	"ticketdesk/internal/pkg/logx"
)

const selectTicketSQL = `
SELECT id, owner_user_id, assigned_user_id, subject, status, priority,
       created_at, last_activity_at, resolved_at
FROM tickets
WHERE id = $1`

const insertMessageSQL = `
INSERT INTO ticket_messages (id, ticket_id, sender_user_id, sender_role, body, kind, attachments, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// TicketStore is the PostgreSQL ticket.Store. Writes to one ticket run in a
// transaction holding that ticket's row lock.
type TicketStore struct {
	pool   *pgxpool.Pool
	now    func() time.Time
	logger zerolog.Logger
}

var _ ticket.Store = (*TicketStore)(nil)

// NewTicketStore returns a TicketStore backed by pool.
func NewTicketStore(pool *pgxpool.Pool) *TicketStore {
	return &TicketStore{
		pool:   pool,
		now:    time.Now,
		logger: logx.Component("TicketStore"),
	}
}

// timestamp returns the current time at the precision Postgres stores.
func (s *TicketStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func scanTicket(row pgx.Row) (*ticket.Ticket, error) {
	var t ticket.Ticket
	err := row.Scan(
		&t.ID,
		&t.OwnerUserID,
		&t.AssignedUserID,
		&t.Subject,
		&t.Status,
		&t.Priority,
		&t.CreatedAt,
		&t.LastActivityAt,
		&t.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func insertMessage(ctx context.Context, tx pgx.Tx, msg ticket.Message) error {
	attachments := msg.Attachments
	if attachments == nil {
		attachments = []ticket.Attachment{}
	}
	raw, err := json.Marshal(attachments)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, insertMessageSQL,
		msg.ID,
		msg.TicketID,
		msg.SenderUserID,
		string(msg.SenderRole),
		msg.Body,
		string(msg.Kind),
		raw,
		msg.CreatedAt,
	)
	return err
}

func updateHeader(ctx context.Context, tx pgx.Tx, t *ticket.Ticket) error {
	_, err := tx.Exec(ctx,
		`UPDATE tickets SET status = $2, resolved_at = $3, last_activity_at = $4 WHERE id = $1`,
		t.ID, string(t.Status), t.ResolvedAt, t.LastActivityAt,
	)
	return err
}

// inTicketTx runs fn inside a transaction holding the row lock of ticket id.
func (s *TicketStore) inTicketTx(ctx context.Context, id string, fn func(tx pgx.Tx, t *ticket.Ticket) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Warn().Err(rbErr).Str("ticket_id", id).Msg("Rollback failed")
		}
	}()

	t, err := scanTicket(tx.QueryRow(ctx, selectTicketSQL+" FOR UPDATE", id))
	if err != nil {
		return err
	}

	if err := fn(tx, t); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Create implements ticket.Store.
func (s *TicketStore) Create(ctx context.Context, t *ticket.Ticket) error {
	if t.ID == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	now := s.timestamp()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.LastActivityAt.IsZero() {
		t.LastActivityAt = t.CreatedAt
	}
	if t.Status == "" {
		t.Status = ticket.StatusOpen
	}
	if t.Priority == "" {
		t.Priority = ticket.PriorityMedium
	}

	_, err := s.pool.Exec(ctx, `
INSERT INTO tickets (id, owner_user_id, assigned_user_id, subject, status, priority, created_at, last_activity_at, resolved_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.OwnerUserID, t.AssignedUserID, t.Subject, string(t.Status), string(t.Priority),
		t.CreatedAt, t.LastActivityAt, t.ResolvedAt,
	)
	if IsUniqueViolation(err) {
		return errs.NewError(errs.ErrTicketExists)
	}
	return storeError(err, "create")
}

// Get implements ticket.Store.
func (s *TicketStore) Get(ctx context.Context, id string) (*ticket.Ticket, error) {
	t, err := scanTicket(s.pool.QueryRow(ctx, selectTicketSQL, id))
	if err != nil {
		return nil, storeError(err, "get")
	}
	return t, nil
}

// GetWithMessages implements ticket.Store.
func (s *TicketStore) GetWithMessages(ctx context.Context, id string) (*ticket.Ticket, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
SELECT id, sender_user_id, sender_role, body, kind, attachments, created_at
FROM ticket_messages
WHERE ticket_id = $1
ORDER BY seq`, id)
	if err != nil {
		return nil, storeError(err, "list_messages")
	}

	index := make(map[string]int)
	t.Messages, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (ticket.Message, error) {
		var (
			m   ticket.Message
			raw []byte
		)
		if err := row.Scan(&m.ID, &m.SenderUserID, &m.SenderRole, &m.Body, &m.Kind, &raw, &m.CreatedAt); err != nil {
			return m, err
		}
		if err := json.Unmarshal(raw, &m.Attachments); err != nil {
			return m, err
		}
		m.TicketID = id
		m.ReadBy = []ticket.ReadReceipt{}
		return m, nil
	})
	if err != nil {
		return nil, storeError(err, "list_messages")
	}
	for i := range t.Messages {
		index[t.Messages[i].ID] = i
	}

	rows, err = s.pool.Query(ctx, `
SELECT r.message_id, r.user_id, r.read_at
FROM message_reads r
JOIN ticket_messages m ON m.id = r.message_id
WHERE m.ticket_id = $1
ORDER BY r.read_at`, id)
	if err != nil {
		return nil, storeError(err, "list_reads")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			messageID string
			receipt   ticket.ReadReceipt
		)
		if err := rows.Scan(&messageID, &receipt.UserID, &receipt.ReadAt); err != nil {
			return nil, storeError(err, "list_reads")
		}
		if i, ok := index[messageID]; ok {
			t.Messages[i].ReadBy = append(t.Messages[i].ReadBy, receipt)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "list_reads")
	}

	return t, nil
}

// AppendMessage implements ticket.Store.
func (s *TicketStore) AppendMessage(ctx context.Context, id string, msg ticket.Message) (*ticket.Update, error) {
	var update ticket.Update

	err := s.inTicketTx(ctx, id, func(tx pgx.Tx, t *ticket.Ticket) error {
		now := s.timestamp()

		msg.TicketID = id
		msg.CreatedAt = now
		if msg.Attachments == nil {
			msg.Attachments = []ticket.Attachment{}
		}
		msg.ReadBy = []ticket.ReadReceipt{}

		if err := insertMessage(ctx, tx, msg); err != nil {
			return err
		}
		t.LastActivityAt = now

		if next := ticket.Next(t.Status, msg.SenderRole); next != t.Status {
			update.Change = ticket.SetStatus(t, next, "", now)
			if err := insertMessage(ctx, tx, update.Change.System); err != nil {
				return err
			}
		}

		if err := updateHeader(ctx, tx, t); err != nil {
			return err
		}

		update.Ticket = t
		update.Message = &msg
		return nil
	})
	if err != nil {
		return nil, storeError(err, "append_message")
	}

	return &update, nil
}

// UpdateStatus implements ticket.Store.
func (s *TicketStore) UpdateStatus(ctx context.Context, id string, status ticket.Status, notes string) (*ticket.Update, error) {
	if !status.Valid() {
		return nil, errs.NewError(errs.ErrStatusInvalid)
	}

	var update ticket.Update

	err := s.inTicketTx(ctx, id, func(tx pgx.Tx, t *ticket.Ticket) error {
		change := ticket.SetStatus(t, status, notes, s.timestamp())
		if change == nil {
			return errs.NewError(errs.ErrStatusUnchanged, status)
		}

		if err := insertMessage(ctx, tx, change.System); err != nil {
			return err
		}
		if err := updateHeader(ctx, tx, t); err != nil {
			return err
		}

		update.Ticket = t
		update.Change = change
		return nil
	})
	if err != nil {
		return nil, storeError(err, "update_status")
	}

	return &update, nil
}

// MarkRead implements ticket.Store.
func (s *TicketStore) MarkRead(ctx context.Context, id string, userID string, messageIDs []string) ([]string, error) {
	ids := dedupe(messageIDs)
	var marked []string

	err := s.inTicketTx(ctx, id, func(tx pgx.Tx, _ *ticket.Ticket) error {
		rows, err := tx.Query(ctx, `SELECT id FROM ticket_messages WHERE ticket_id = $1 AND id = ANY($2)`, id, ids)
		if err != nil {
			return err
		}
		found, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return err
		}

		known := make(map[string]struct{}, len(found))
		for _, f := range found {
			known[f] = struct{}{}
		}
		for _, mid := range ids {
			if _, ok := known[mid]; !ok {
				return errs.NewError(errs.ErrMessageNotFound, mid)
			}
		}

		rows, err = tx.Query(ctx, `
INSERT INTO message_reads (message_id, user_id, read_at)
SELECT unnest($1::text[]), $2, $3
ON CONFLICT (message_id, user_id) DO NOTHING
RETURNING message_id`, ids, userID, s.timestamp())
		if err != nil {
			return err
		}
		marked, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	if err != nil {
		return nil, storeError(err, "mark_read")
	}

	if marked == nil {
		marked = []string{}
	}
	return marked, nil
}

// Assign implements ticket.Store.
func (s *TicketStore) Assign(ctx context.Context, id string, assigneeID string) (*ticket.Ticket, error) {
	if assigneeID == "" {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	t, err := scanTicket(s.pool.QueryRow(ctx, `
UPDATE tickets SET assigned_user_id = $2, last_activity_at = $3
WHERE id = $1
RETURNING id, owner_user_id, assigned_user_id, subject, status, priority,
          created_at, last_activity_at, resolved_at`, id, assigneeID, s.timestamp()))
	if err != nil {
		return nil, storeError(err, "assign")
	}

	return t, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
