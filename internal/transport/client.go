package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/ultistats/internal/engine"
	"github.com/roach88/ultistats/internal/event"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// ErrClosed is returned by sends on a closed client.
var ErrClosed = errors.New("transport closed")

// Sink receives inbound messages. *engine.Session implements it.
type Sink interface {
	Deliver(engine.Message) error
}

// Client is a device's connection to the relay for one game.
// It implements engine.Transport.
type Client struct {
	gameID string
	conn   *websocket.Conn

	wmu sync.Mutex // gorilla/websocket allows one concurrent writer

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
	readDone  chan struct{}
}

var _ engine.Transport = (*Client)(nil)

// Dial connects to the relay at baseURL (ws:// or wss://, http(s) is
// rewritten) for gameID. Nothing is read until Start.
func Dial(ctx context.Context, baseURL, gameID string) (*Client, error) {
	u, err := gameURL(baseURL, gameID)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", u, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	return &Client{
		gameID:   gameID,
		conn:     conn,
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}, nil
}

func gameURL(baseURL, gameID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse relay url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("relay url %q: unsupported scheme %q", baseURL, u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/games/" + url.PathEscape(gameID) + "/ws"
	return u.String(), nil
}

// Start begins reading envelopes into sink and keeping the connection alive.
// Calling Start more than once has no effect.
func (c *Client) Start(sink Sink) {
	c.startOnce.Do(func() {
		go c.readPump(sink)
		go c.pingPump()
	})
}

// SendAction forwards an intent for pointID.
func (c *Client) SendAction(ctx context.Context, pointID string, in event.Intent) error {
	return c.write(ctx, Envelope{Kind: KindAction, GameID: c.gameID, PointID: pointID, Intent: &in})
}

// SendUndo asks the relay to remove team's last event in pointID.
func (c *Client) SendUndo(ctx context.Context, pointID string, team event.Team) error {
	return c.write(ctx, Envelope{Kind: KindUndo, GameID: c.gameID, PointID: pointID, Team: team})
}

// SendNextPoint asks the relay to end pointID.
func (c *Client) SendNextPoint(ctx context.Context, pointID string, pulling event.Team) error {
	return c.write(ctx, Envelope{Kind: KindNextPoint, GameID: c.gameID, PointID: pointID, Pulling: pulling})
}

// SendComment attaches a comment to (team, seq) in pointID.
func (c *Client) SendComment(ctx context.Context, pointID string, team event.Team, seq int64, text string) error {
	return c.write(ctx, Envelope{Kind: KindComment, GameID: c.gameID, PointID: pointID, Team: team, Seq: seq, Comment: text})
}

func (c *Client) write(ctx context.Context, env Envelope) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("write %s: %w", env.Kind, err)
	}
	return nil
}

func (c *Client) readPump(sink Sink) {
	defer close(c.readDone)

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn("set read deadline failed", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("relay connection lost", "game", c.gameID, "error", err)
				sink.Deliver(engine.Message{Kind: engine.MessageError, Error: "relay connection lost: " + err.Error()})
			}
			return
		}
		msg, err := env.Message()
		if err != nil {
			slog.Warn("dropping envelope", "game", c.gameID, "kind", env.Kind, "error", err)
			continue
		}
		if err := sink.Deliver(msg); err != nil {
			slog.Warn("sink rejected message", "game", c.gameID, "kind", msg.Kind, "error", err)
		}
	}
}

func (c *Client) pingPump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				slog.Debug("ping failed", "game", c.gameID, "error", err)
				return
			}
		}
	}
}

// Close sends a close frame and releases the connection. It waits for the
// read pump to exit if Start was called.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		err = c.conn.Close()

		started := true
		c.startOnce.Do(func() { started = false })
		if started {
			<-c.readDone
		}
	})
	return err
}
