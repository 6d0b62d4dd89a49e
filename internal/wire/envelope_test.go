package wire

import (
	"encoding/json"
	"testing"
)

func TestDecodeEnvelopeRejectsMissingType(t *testing.T) {
	if _, err := DecodeEnvelope([]byte(`{"foo":"bar"}`)); err == nil {
		t.Errorf("DecodeEnvelope with no type field succeeded, want an error")
	}
	if _, err := DecodeEnvelope([]byte(`{"type":""}`)); err == nil {
		t.Errorf("DecodeEnvelope with an empty type field succeeded, want an error")
	}
}

func TestDecodeEnvelopeRejectsMalformedJSON(t *testing.T) {
	if _, err := DecodeEnvelope([]byte(`not json`)); err == nil {
		t.Errorf("DecodeEnvelope on malformed JSON succeeded, want an error")
	}
}

func TestDecodeEnvelopeKeepsRawForLaterUnmarshal(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"type":"PING","nonce":"abc"}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if env.Type != "PING" {
		t.Fatalf("Type = %q, want PING", env.Type)
	}
	var out struct {
		Nonce string `json:"nonce"`
	}
	if err := env.Unmarshal(&out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Nonce != "abc" {
		t.Errorf("Nonce = %q, want abc", out.Nonce)
	}
}

func TestFrameFlattensTypeAlongsideMessageFields(t *testing.T) {
	raw, err := Frame(NewError(ErrNotInQueue, ""))
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	var typ string
	if err := json.Unmarshal(fields["type"], &typ); err != nil || typ != "ERROR" {
		t.Errorf("type field = %q, want ERROR", typ)
	}
	var code string
	if err := json.Unmarshal(fields["code"], &code); err != nil || code != string(ErrNotInQueue) {
		t.Errorf("code field = %q, want %q", code, ErrNotInQueue)
	}
}

func TestNewErrorFallsBackToDefaultMessage(t *testing.T) {
	f := NewError(ErrChatDisabled, "")
	if f.Message == "" {
		t.Errorf("NewError with an empty message did not fall back to a default")
	}
	custom := NewError(ErrChatDisabled, "custom text")
	if custom.Message != "custom text" {
		t.Errorf("NewError did not preserve an explicit message")
	}
}
