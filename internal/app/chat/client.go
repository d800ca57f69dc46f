/*
Package chat is the real-time core: presence, room membership, typing state,
the message gateway and the fan-out of events to live connections.

This file defines the Client struct, representing an active WebSocket connection. It manages the
connection's lifecycle and its message communication loops (ReadPump and WritePump).
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ticketdesk/internal/app/user"
	"ticketdesk/internal/pkg/errs"
	"ticketdesk/internal/pkg/logx"
	"ticketdesk/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 64 * 1024

	// capacity of the outbound queue; a client that falls this far behind is dropped.
	sendQueueSize = 256

	// upper bound on the store work triggered by a single inbound event.
	eventTimeout = 10 * time.Second

	// WsCloseCodeSessionKicked is a custom WebSocket Close Code (4000-4999 range)
	// used to signal the client that the session was replaced by a new connection.
	WsCloseCodeSessionKicked = 4001
)

var (
	errClientClosed = errors.New("client closed")
	errQueueFull    = errors.New("client send queue full")
)

// Client struct represents one transport connection. Its identity comes from
// the verified token; it is bound to presence only after user:register.
type Client struct {
	// unique identifier of the connection.
	id string

	hub *Hub

	// underlying WebSocket connection object; nil for in-process clients.
	conn *websocket.Conn

	// identity resolved from the connection's credential.
	identity user.User

	// mu protects bound.
	mu    sync.RWMutex
	bound *user.User

	// a buffered channel used to queue messages waiting to be sent to the client.
	send chan []byte

	// closed once the connection is finished; closeCode and closeReason are set before.
	done        chan struct{}
	closeOnce   sync.Once
	closeCode   int
	closeReason string

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client for wsConn whose credential resolved to identity.
func NewClient(hub *Hub, wsConn *websocket.Conn, identity user.User) *Client {
	connID := randx.ConnectionID()

	return &Client{
		id:       connID,
		hub:      hub,
		conn:     wsConn,
		identity: identity,
		send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
		logger: logx.Logger().With().
			Str("conn_id", connID).
			Str("user_id", identity.ID).
			Logger(),
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// Identity returns the identity resolved from the credential.
func (c *Client) Identity() user.User {
	return c.identity
}

// User returns the registered identity, if the connection has registered.
func (c *Client) User() (user.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.bound == nil {
		return user.User{}, false
	}
	return *c.bound, true
}

func (c *Client) bind(u user.User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bound = &u
}

// Done is closed when the connection is finished.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ReadPump handles reading messages from the WebSocket connection.
// It handles heartbeats (Pong), message parsing, and performs cleanup upon connection closure.
func (c *Client) ReadPump(ctx context.Context) {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, WsCloseCodeSessionKicked) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInboundMessage(ctx, messageBytes)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.hub.Disconnect(c)
	c.Close()
}

// processInboundMessage decodes the envelope and hands it to the hub.
func (c *Client) processInboundMessage(ctx context.Context, messageBytes []byte) {
	var inbound Inbound
	if err := json.Unmarshal(messageBytes, &inbound); err != nil {
		c.logger.Warn().Err(err).Int("message_len", len(messageBytes)).Msg("Client sent invalid JSON")
		c.SendError("", errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	eventCtx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()

	c.hub.Dispatch(eventCtx, c, inbound)
}

// WritePump handles writing messages from the Client.send channel to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message := <-c.send:
			if !c.writeQueuedMessage(message) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}

		case <-c.done:
			c.writeCloseMessage()
			return
		}
	}
}

// writeQueuedMessage writes one queued message. It returns false if the WritePump should terminate.
func (c *Client) writeQueuedMessage(message []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// enqueue queues an encoded event. A client whose queue is full is closed.
func (c *Client) enqueue(messageBytes []byte) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}

	select {
	case c.send <- messageBytes:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, closing slow client")
		c.Close()
		return errQueueFull
	}
}

// Send marshals ev and queues it for this connection only.
func (c *Client) Send(ev Event) error {
	messageBytes, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error().Err(err).Str("event", string(ev.Type)).Msg("Error marshaling event for client")
		return err
	}

	return c.enqueue(messageBytes)
}

// SendError reports err for the given inbound event to this connection only.
func (c *Client) SendError(event EventType, err error) {
	customErr := errs.From(err)

	errEvent := NewEvent(EventError, "", ErrorPayload{
		Code:    customErr.Code,
		Message: customErr.Message,
		Event:   event,
	})

	if sendErr := c.Send(errEvent); sendErr != nil {
		c.logger.Debug().Err(sendErr).Msg("Failed to queue error message")
	}
}

// Close sends a normal close frame and finishes the connection.
func (c *Client) Close() {
	c.closeWith(websocket.CloseNormalClosure, "")
}

// Kick closes the connection with close code 4001, telling the client its
// session was replaced by a newer one.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionKicked).
		Str("reason", reason).
		Msg("Sending WS Kick message and closing connection.")

	c.closeWith(WsCloseCodeSessionKicked, reason)
}

func (c *Client) closeWith(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.done)
	})
}

// writeCloseMessage sends the close frame recorded by closeWith.
func (c *Client) writeCloseMessage() {
	closeMessage := websocket.FormatCloseMessage(c.closeCode, c.closeReason)
	if err := c.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait)); err != nil {
		c.logger.Debug().Err(err).Int("close_code", c.closeCode).Msg("Failed to send WS close message.")
	}
}
