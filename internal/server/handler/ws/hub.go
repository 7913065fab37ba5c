package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avetisov/qrvalidator/internal/crypto"
	"github.com/avetisov/qrvalidator/internal/models"
	"github.com/avetisov/qrvalidator/internal/schema"
	"github.com/avetisov/qrvalidator/internal/service"
)

// Hub owns every live connection and is the only component aware of
// connections as a concept. It composes the auth service (session
// identity), the history service (shared state) and the payload codec.
//
// Connection state machine: anonymous on accept, authenticated after a
// successful authenticate event, gone on disconnect. Nothing is pushed to
// anonymous sessions; post-mutation snapshots fan out to every
// authenticated session in one serialized order.
type Hub struct {
	log     *zap.Logger
	auth    *service.AuthService
	history *service.HistoryService
	payload *crypto.Codec
	dataset *service.DatasetService

	// mutateMu serializes history mutations together with the enqueueing
	// of their broadcast, so all clients observe the same order and every
	// broadcast happens after its mutation is persisted.
	mutateMu sync.Mutex

	// mu guards sessions and each session's user field.
	mu       sync.RWMutex
	sessions map[string]*session
}

// NewHub constructs a Hub. The dataset service may be nil, in which case
// init-dataset requests are answered with an error shape.
func NewHub(auth *service.AuthService, history *service.HistoryService, payload *crypto.Codec, dataset *service.DatasetService, log *zap.Logger) *Hub {
	return &Hub{
		log:      log,
		auth:     auth,
		history:  history,
		payload:  payload,
		dataset:  dataset,
		sessions: make(map[string]*session),
	}
}

// ServeHTTP upgrades the request to a websocket and runs the connection
// until the client goes away. Each connection gets one read loop (this
// goroutine) and one write pump.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
	if err != nil {
		h.log.Debug("websocket accept failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := newSession(uuid.NewString(), conn)
	h.register(sess)
	defer h.unregister(sess)

	h.log.Info("client connected", zap.String("connection", sess.id))
	defer h.log.Info("client disconnected", zap.String("connection", sess.id))

	go sess.writePump(ctx)

	for {
		var env Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		}
		h.dispatch(sess, env)
	}
}

func (h *Hub) register(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.id] = s
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s.id)
}

// userOf returns the authenticated user attached to the session, or nil.
func (h *Hub) userOf(s *session) *models.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return s.user
}

func (h *Hub) dispatch(s *session, env Envelope) {
	switch env.Event {
	case EventAuthenticate:
		h.handleAuthenticate(s, env)
	case EventValidationSubmit:
		h.handleSubmit(s, env)
	case EventDeleteEntry:
		h.handleDelete(s, env)
	case EventUserdataDecryption:
		h.handleDecrypt(s, env)
	case EventInitDataset:
		h.handleInitDataset(s, env)
	default:
		h.log.Debug("unknown event dropped",
			zap.String("connection", s.id),
			zap.String("event", env.Event))
	}
}

// handleAuthenticate runs the session registry and, on success, attaches
// the user and pushes the current snapshot to this connection only.
func (h *Hub) handleAuthenticate(s *session, env Envelope) {
	var token string
	if err := json.Unmarshal(env.Data, &token); err != nil {
		h.reply(s, env.Seq, AuthResponse{Success: false, Message: "malformed authenticate request"})
		return
	}

	user, err := h.auth.Authenticate(token)
	if err != nil {
		h.log.Info("authentication failed", zap.String("connection", s.id))
		h.reply(s, env.Seq, AuthResponse{Success: false, Message: "Authentication failed."})
		return
	}

	// Attaching the user and queueing the initial snapshot under mutateMu
	// orders that snapshot before any broadcast of a later mutation.
	h.mutateMu.Lock()
	h.mu.Lock()
	s.user = user
	h.mu.Unlock()
	h.reply(s, env.Seq, AuthResponse{Success: true, User: user})
	h.send(s, historyUpdate(h.history.Snapshot()))
	h.mutateMu.Unlock()

	h.log.Info("client authenticated",
		zap.String("connection", s.id),
		zap.String("user", user.Name),
		zap.Int("level", user.AuthorizeLevel))
}

// handleSubmit applies an authorized validation submission. Authorization
// failures and duplicates are dropped without a reply; submission is
// fire-and-forget by design.
func (h *Hub) handleSubmit(s *session, env Envelope) {
	user := h.userOf(s)
	if !user.AtLeast(models.LevelValidator) {
		h.log.Warn("unauthorized submit dropped", zap.String("connection", s.id))
		return
	}

	var req SubmitRequest
	if err := json.Unmarshal(env.Data, &req); err != nil || req.Payload == "" || !req.Status.Known() {
		h.log.Warn("malformed submit dropped", zap.String("connection", s.id))
		return
	}

	h.mutateMu.Lock()
	defer h.mutateMu.Unlock()

	record, snapshot, err := h.history.Submit(req.Payload, user.Name, req.Status)
	if err != nil {
		if errors.Is(err, service.ErrDuplicate) {
			h.log.Info("duplicate submission dropped",
				zap.String("connection", s.id),
				zap.String("user", user.Name))
			return
		}
		h.log.Error("submit failed", zap.Error(err))
		return
	}

	h.log.Info("validation recorded",
		zap.String("id", record.ID),
		zap.String("user", user.Name),
		zap.String("status", string(record.Status)))
	h.broadcast(historyUpdate(snapshot))
}

// handleDelete removes a record for an admin. A missing id is a silent
// no-op and triggers no broadcast.
func (h *Hub) handleDelete(s *session, env Envelope) {
	user := h.userOf(s)
	if !user.AtLeast(models.LevelAdmin) {
		h.log.Warn("unauthorized delete dropped", zap.String("connection", s.id))
		return
	}

	var id string
	if err := json.Unmarshal(env.Data, &id); err != nil || id == "" {
		h.log.Warn("malformed delete dropped", zap.String("connection", s.id))
		return
	}

	h.mutateMu.Lock()
	defer h.mutateMu.Unlock()

	snapshot, removed := h.history.Remove(id)
	if !removed {
		return
	}

	h.log.Info("entry deleted", zap.String("id", id), zap.String("user", user.Name))
	h.broadcast(historyUpdate(snapshot))
}

// handleDecrypt previews a scanned payload for any authenticated session:
// decrypt with the payload key, then run the schema validator. On success
// the reply message carries the decrypted plaintext.
func (h *Hub) handleDecrypt(s *session, env Envelope) {
	if h.userOf(s) == nil {
		h.reply(s, env.Seq, DecryptResponse{Success: false, Message: "authentication required"})
		return
	}

	var token string
	if err := json.Unmarshal(env.Data, &token); err != nil {
		h.reply(s, env.Seq, DecryptResponse{Success: false, Message: "malformed decryption request"})
		return
	}

	plaintext, err := h.payload.Decrypt(token)
	if err != nil {
		h.reply(s, env.Seq, DecryptResponse{Success: false, Message: "Could not decrypt payload."})
		return
	}

	value, err := schema.Validate(string(plaintext))
	if err != nil {
		h.reply(s, env.Seq, DecryptResponse{Success: false, Message: err.Error()})
		return
	}

	h.reply(s, env.Seq, DecryptResponse{Success: true, Message: string(plaintext), Data: value})
}

// handleInitDataset answers with the external dataset rows.
func (h *Hub) handleInitDataset(s *session, env Envelope) {
	if h.userOf(s) == nil {
		h.reply(s, env.Seq, DatasetResponse{Success: false, Message: "authentication required"})
		return
	}
	if h.dataset == nil {
		h.reply(s, env.Seq, DatasetResponse{Success: false, Message: "dataset unavailable"})
		return
	}
	h.reply(s, env.Seq, DatasetResponse{Success: true, Key: h.dataset.Key, Rows: h.dataset.Rows()})
}

// reply sends an ack for a request that carried a seq. Requests without a
// seq have no reply channel and are answered with silence.
func (h *Hub) reply(s *session, seq uint64, payload any) {
	if seq == 0 {
		return
	}
	h.send(s, ack(seq, payload))
}

// send queues an envelope for one session, closing it if it cannot keep up.
func (h *Hub) send(s *session, env Envelope) {
	if !s.enqueue(env) {
		h.log.Warn("closing slow consumer", zap.String("connection", s.id))
		_ = s.conn.Close(websocket.StatusPolicyViolation, "slow consumer")
	}
}

// broadcast queues an envelope for every authenticated session.
// Anonymous sessions receive nothing by construction.
func (h *Hub) broadcast(env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		if s.user == nil {
			continue
		}
		if !s.enqueue(env) {
			h.log.Warn("closing slow consumer", zap.String("connection", s.id))
			_ = s.conn.Close(websocket.StatusPolicyViolation, "slow consumer")
		}
	}
}
