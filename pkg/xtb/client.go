// Package xtb is a client for the XTB trading gateway: synchronous
// request/response JSON commands over a websocket, one connection per
// session.
//
// Every outbound command is serialized through a global rate floor: at least
// MinRequestInterval of wall-clock time separates any two requests, with the
// calling goroutine sleeping as needed. A response with status=false is
// surfaced as a *CommandError, never as a partial result.
package xtb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// DefaultEndpoint is the gateway root; the account mode (demo/real)
	// is appended as the path.
	DefaultEndpoint = "wss://ws.xtb.com"

	// MinRequestInterval is the hard floor between consecutive requests.
	MinRequestInterval = 200 * time.Millisecond

	dialTimeout = 120 * time.Second
)

// socket is the minimal websocket surface the client needs; satisfied by
// *websocket.Conn and fakeable in tests.
type socket interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Client is a session with the trading gateway. Methods are safe for
// concurrent use; commands are serialized by the rate floor's mutex.
type Client struct {
	Endpoint string // defaults to DefaultEndpoint

	// OnCommand, when set, observes every completed command with its
	// round-trip duration (rate-floor wait included) and outcome. Set it
	// before Login; it must not block.
	OnCommand func(command string, d time.Duration, err error)

	log *slog.Logger

	mu          sync.Mutex
	conn        socket
	lastRequest time.Time

	streamSessionID string
	mode            string
}

// NewClient creates a disconnected client.
func NewClient(log *slog.Logger) *Client {
	return &Client{
		Endpoint: DefaultEndpoint,
		log:      log,
		// Allow the first command to go out immediately
		lastRequest: time.Now().Add(-MinRequestInterval),
	}
}

// request is the gateway's command frame.
type request struct {
	Command   string      `json:"command"`
	Arguments interface{} `json:"arguments,omitempty"`
}

// response is the gateway's reply frame. On failure Status is false and the
// error fields are set; ReturnData is only present on success.
type response struct {
	Status          bool            `json:"status"`
	ReturnData      json.RawMessage `json:"returnData"`
	StreamSessionID string          `json:"streamSessionId"`
	ErrorCode       string          `json:"errorCode"`
	ErrorDescr      string          `json:"errorDescr"`
}

// Login dials the gateway for the given account mode ("demo" or "real") and
// authenticates the session.
func (c *Client) Login(ctx context.Context, userID, password, mode string) error {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, c.Endpoint+"/"+mode, nil)
	if err != nil {
		return fmt.Errorf("xtb: dial %s: %w", mode, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mode = mode
	c.mu.Unlock()

	res, err := c.sendCommand(ctx, "login", map[string]interface{}{
		"userId":   userID,
		"password": password,
	})
	if err != nil {
		conn.Close()
		return err
	}
	c.mu.Lock()
	c.streamSessionID = res.StreamSessionID
	c.mu.Unlock()
	c.log.Info("gateway session opened", slog.String("mode", mode))
	return nil
}

// Logout ends the session. The connection is closed regardless of the
// command outcome.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.sendCommand(ctx, "logout", nil)
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()
	return err
}

// Mode returns the account mode of the current session.
func (c *Client) Mode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// sendCommand marshals one command frame, enforces the rate floor, and
// classifies the reply. It never returns a partial result: either the
// command succeeded or err is set.
func (c *Client) sendCommand(ctx context.Context, command string, args interface{}) (res *response, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.OnCommand != nil {
		start := time.Now()
		defer func() { c.OnCommand(command, time.Since(start), err) }()
	}

	if c.conn == nil {
		return nil, ErrNotConnected
	}

	if wait := MinRequestInterval - time.Since(c.lastRequest); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	frame, err := json.Marshal(request{Command: command, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("xtb: marshal %s: %w", command, err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.lastRequest = time.Now()
		return nil, fmt.Errorf("xtb: send %s: %w", command, err)
	}
	_, raw, err := c.conn.ReadMessage()
	c.lastRequest = time.Now()
	if err != nil {
		return nil, fmt.Errorf("xtb: recv %s: %w", command, err)
	}

	var reply response
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("xtb: decode %s: %w", command, err)
	}
	if !reply.Status {
		return nil, &CommandError{Command: command, Code: reply.ErrorCode, Description: reply.ErrorDescr}
	}
	return &reply, nil
}
