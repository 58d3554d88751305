package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Client is one open calendar view, optionally narrowed to a clinician.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte

	mu          sync.RWMutex
	clinicianID string
}

// subscription is the only frame clients send: it replaces the clinician
// filter. An empty clinician_id watches every clinician.
type subscription struct {
	ClinicianID string `json:"clinician_id"`
}

// NewClient creates a Client tied to the given hub and connection.
func NewClient(hub *Hub, conn *ws.Conn, clinicianID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		clinicianID: strings.TrimSpace(clinicianID),
	}
}

func (c *Client) setFilter(clinicianID string) {
	c.mu.Lock()
	c.clinicianID = strings.TrimSpace(clinicianID)
	c.mu.Unlock()
}

func (c *Client) wants(msg Message) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clinicianID == "" || msg.ClinicianID == "" || msg.ClinicianID == c.clinicianID
}

// handleFrame applies a subscription frame. Anything else is ignored.
func (c *Client) handleFrame(data []byte) {
	var sub subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return
	}
	c.setFilter(sub.ClinicianID)
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump applies subscription changes until the connection closes.
func (c *Client) readPump(ctx context.Context) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		if typ == ws.MessageText {
			c.handleFrame(data)
		}
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// unregistered
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
