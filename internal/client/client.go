// Package client implements a hub client over the websocket envelope
// protocol: authenticate, watch history broadcasts, submit decisions.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/avetisov/qrvalidator/internal/models"
	"github.com/avetisov/qrvalidator/internal/server/handler/ws"
	"github.com/avetisov/qrvalidator/internal/service"
)

// ErrAuthFailed is returned when the hub rejects the presented token.
var ErrAuthFailed = errors.New("authentication failed")

// HistoryFunc receives every history broadcast pushed by the hub.
type HistoryFunc func(records []models.ScanRecord)

// Client is a single connection to the hub. Request methods may be called
// from any goroutine; replies are matched by sequence number.
type Client struct {
	conn      *websocket.Conn
	onHistory HistoryFunc
	cancel    context.CancelFunc

	mu      sync.Mutex
	seq     uint64
	pending map[uint64]chan json.RawMessage

	done chan struct{}
}

// Dial connects to the hub at url and starts the read loop. onHistory may
// be nil when the caller does not care about broadcasts.
func Dial(ctx context.Context, url string, onHistory HistoryFunc) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial hub: %w", err)
	}
	// History snapshots grow with the full history; the default 32 KiB
	// read cap would kill the connection on a few hundred records.
	conn.SetReadLimit(8 << 20)

	runCtx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:      conn,
		onHistory: onHistory,
		cancel:    cancel,
		pending:   make(map[uint64]chan json.RawMessage),
		done:      make(chan struct{}),
	}
	go c.readLoop(runCtx)
	return c, nil
}

// Close tears down the connection. Pending requests fail.
func (c *Client) Close() error {
	c.cancel()
	return c.conn.Close(websocket.StatusNormalClosure, "client closed")
}

// Done is closed when the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) readLoop(ctx context.Context) {
	defer close(c.done)
	defer c.failPending()
	for {
		var env ws.Envelope
		if err := wsjson.Read(ctx, c.conn, &env); err != nil {
			return
		}
		switch env.Event {
		case ws.EventAck:
			c.mu.Lock()
			ch, ok := c.pending[env.Seq]
			if ok {
				delete(c.pending, env.Seq)
			}
			c.mu.Unlock()
			if ok {
				ch <- env.Data
			}
		case ws.EventHistoryUpdate:
			if c.onHistory == nil {
				continue
			}
			var records []models.ScanRecord
			if err := json.Unmarshal(env.Data, &records); err != nil {
				continue
			}
			c.onHistory(records)
		}
	}
}

func (c *Client) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for seq, ch := range c.pending {
		close(ch)
		delete(c.pending, seq)
	}
}

// request writes an envelope with a fresh seq and waits for the ack.
func (c *Client) request(ctx context.Context, event string, data any) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	ch := make(chan json.RawMessage, 1)
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.pending[seq] = ch
	c.mu.Unlock()

	if err := wsjson.Write(ctx, c.conn, ws.Envelope{Event: event, Seq: seq, Data: raw}); err != nil {
		c.mu.Lock()
		delete(c.pending, seq)
		c.mu.Unlock()
		return nil, fmt.Errorf("write %s: %w", event, err)
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, seq)
		c.mu.Unlock()
		return nil, ctx.Err()
	case reply, ok := <-ch:
		if !ok {
			return nil, errors.New("connection closed")
		}
		return reply, nil
	}
}

// Authenticate presents a token and returns the attached user on success.
func (c *Client) Authenticate(ctx context.Context, token string) (*models.User, error) {
	reply, err := c.request(ctx, ws.EventAuthenticate, token)
	if err != nil {
		return nil, err
	}
	var resp ws.AuthResponse
	if err := json.Unmarshal(reply, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrAuthFailed, resp.Message)
	}
	return resp.User, nil
}

// SubmitValidation sends a fire-and-forget validation decision.
func (c *Client) SubmitValidation(ctx context.Context, payload string, status models.ScanStatus) error {
	raw, err := json.Marshal(ws.SubmitRequest{Payload: payload, Status: status})
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, c.conn, ws.Envelope{Event: ws.EventValidationSubmit, Data: raw})
}

// DeleteEntry sends a fire-and-forget deletion of a history record.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, c.conn, ws.Envelope{Event: ws.EventDeleteEntry, Data: raw})
}

// DecryptPayload asks the hub to decrypt and validate a scanned payload.
func (c *Client) DecryptPayload(ctx context.Context, token string) (*ws.DecryptResponse, error) {
	reply, err := c.request(ctx, ws.EventUserdataDecryption, token)
	if err != nil {
		return nil, err
	}
	var resp ws.DecryptResponse
	if err := json.Unmarshal(reply, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Dataset fetches the external dataset rows.
func (c *Client) Dataset(ctx context.Context) (*ws.DatasetResponse, error) {
	reply, err := c.request(ctx, ws.EventInitDataset, nil)
	if err != nil {
		return nil, err
	}
	var resp ws.DatasetResponse
	if err := json.Unmarshal(reply, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AttendanceReport fetches the dataset and joins it against the given
// history snapshot, marking each row present or absent.
func (c *Client) AttendanceReport(ctx context.Context, history []models.ScanRecord) ([]service.DatasetRow, error) {
	resp, err := c.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("fetch dataset: %s", resp.Message)
	}
	return service.AttendanceReport(history, resp.Rows, resp.Key), nil
}
