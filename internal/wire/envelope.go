// Package wire defines the JSON wire protocol: the inbound/outbound
// message catalogue and the error taxonomy of SPEC_FULL.md §6/§7. Every
// frame is a JSON object with a SCREAMING_SNAKE_CASE "type" discriminator
// and an arbitrary payload; unknown fields are ignored by encoding/json,
// and an unrecognized type is logged and dropped by the dispatcher.
package wire

import (
	"encoding/json"
	"fmt"
)

// MaxFrameBytes is the transport-level size cap for a single frame.
const MaxFrameBytes = 64 * 1024

// Envelope is the raw shape of every inbound frame before it is decoded
// into a concrete message type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"-"`
	Raw     json.RawMessage `json:"-"`
}

// envelopeHeader is used only to peek at the "type" discriminator; the
// full raw payload is kept for a second, type-specific unmarshal.
type envelopeHeader struct {
	Type string `json:"type"`
}

// DecodeEnvelope reads the discriminator from a raw frame without fully
// decoding the payload, so the dispatcher can route before parsing.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var hdr envelopeHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return Envelope{}, fmt.Errorf("wire: malformed frame: %w", err)
	}
	if hdr.Type == "" {
		return Envelope{}, fmt.Errorf("wire: missing type discriminator")
	}
	return Envelope{Type: hdr.Type, Raw: raw}, nil
}

// Unmarshal decodes the envelope's raw payload into v.
func (e Envelope) Unmarshal(v any) error {
	return json.Unmarshal(e.Raw, v)
}

// Outbound is implemented by every outgoing message type; WireType
// supplies the "type" discriminator written onto the frame.
type Outbound interface {
	WireType() string
}

// Frame marshals an Outbound message into a JSON object carrying its
// "type" field alongside the message's own fields.
func Frame(msg Outbound) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("wire: cannot marshal %s: %w", msg.WireType(), err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("wire: cannot flatten %s: %w", msg.WireType(), err)
	}
	typeJSON, _ := json.Marshal(msg.WireType())
	fields["type"] = typeJSON
	return json.Marshal(fields)
}
