// Package ws implements the real-time synchronization hub: websocket
// connection lifecycle, token authentication, role-gated mutations and
// full-history broadcast fan-out.
package ws

import (
	"encoding/json"

	"github.com/avetisov/qrvalidator/internal/models"
	"github.com/avetisov/qrvalidator/internal/schema"
	"github.com/avetisov/qrvalidator/internal/service"
)

// Client-to-server and server-to-client event names.
const (
	// EventAuthenticate carries a token string and expects an AuthResponse ack.
	EventAuthenticate = "authenticate"
	// EventHistoryUpdate pushes the full ordered history to a client.
	EventHistoryUpdate = "history-update"
	// EventValidationSubmit carries a SubmitRequest; fire-and-forget.
	EventValidationSubmit = "validation-submit"
	// EventDeleteEntry carries a record id string; fire-and-forget.
	EventDeleteEntry = "delete-entry"
	// EventInitDataset expects a DatasetResponse ack.
	EventInitDataset = "init-dataset"
	// EventUserdataDecryption carries an encrypted payload string and
	// expects a DecryptResponse ack.
	EventUserdataDecryption = "userdata-decryption"
	// EventAck is the reply envelope for request events carrying a seq.
	EventAck = "ack"
)

// Envelope is the wire frame for every message in both directions.
// Requests that expect a reply carry a non-zero Seq; the matching reply
// is an EventAck envelope with the same Seq.
type Envelope struct {
	Event string          `json:"event"`
	Seq   uint64          `json:"seq,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SubmitRequest is the payload of a validation-submit event.
type SubmitRequest struct {
	// Payload is the exact serialized scan payload; dedup compares it
	// byte-for-byte against stored records.
	Payload string `json:"payload"`
	// Status is the validator's decision.
	Status models.ScanStatus `json:"status"`
}

// AuthResponse is the ack payload for an authenticate request.
type AuthResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

// DecryptResponse is the ack payload for a userdata-decryption request.
// On success Message carries the decrypted plaintext and Data the
// schema-validated value.
type DecryptResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    *schema.Participant `json:"data,omitempty"`
}

// DatasetResponse is the ack payload for an init-dataset request.
// Key names the dataset column history payloads are joined on.
type DatasetResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Key     string               `json:"key,omitempty"`
	Rows    []service.DatasetRow `json:"rows,omitempty"`
}

func mustRaw(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// All ack payload types marshal cleanly; this indicates a
		// programming error, not bad input.
		panic(err)
	}
	return data
}

func ack(seq uint64, v any) Envelope {
	return Envelope{Event: EventAck, Seq: seq, Data: mustRaw(v)}
}

func historyUpdate(snapshot []models.ScanRecord) Envelope {
	return Envelope{Event: EventHistoryUpdate, Data: mustRaw(snapshot)}
}
