package salesync

import (
	"bytes"
	"encoding/json"
)

// EnvelopeKind identifies which notification shape carried the receipt
type EnvelopeKind string

const (
	// EnvelopeUnrecognized means no rule matched; the notification is not a receipt
	EnvelopeUnrecognized EnvelopeKind = "unrecognized"
	// EnvelopeReceipt is {"receipt": {...}}
	EnvelopeReceipt EnvelopeKind = "receipt"
	// EnvelopeDataReceipt is {"data": {"receipt": {...}}}
	EnvelopeDataReceipt EnvelopeKind = "data.receipt"
	// EnvelopeData is {"data": {...receipt fields}}
	EnvelopeData EnvelopeKind = "data"
	// EnvelopeBare is the receipt object itself
	EnvelopeBare EnvelopeKind = "bare"
)

// Envelope is the decoded notification. Receipt is nil only for EnvelopeUnrecognized.
type Envelope struct {
	Kind    EnvelopeKind
	Receipt *Receipt
}

// IsReceipt reports whether a receipt was recognized
func (e Envelope) IsReceipt() bool {
	return e.Kind != EnvelopeUnrecognized && e.Receipt != nil
}

type shapeRule struct {
	kind    EnvelopeKind
	extract func(root map[string]json.RawMessage) json.RawMessage
}

// shapeRules are tried in order; the first rule whose candidate looks like a
// receipt wins.
var shapeRules = []shapeRule{
	{kind: EnvelopeReceipt, extract: func(root map[string]json.RawMessage) json.RawMessage {
		return root["receipt"]
	}},
	{kind: EnvelopeDataReceipt, extract: func(root map[string]json.RawMessage) json.RawMessage {
		data := object(root["data"])
		if data == nil {
			return nil
		}
		return data["receipt"]
	}},
	{kind: EnvelopeData, extract: func(root map[string]json.RawMessage) json.RawMessage {
		return root["data"]
	}},
}

// DecodeEnvelope decodes a raw webhook body. Only bodies that are not valid JSON
// return an error; valid JSON of any other shape decodes as EnvelopeUnrecognized.
func DecodeEnvelope(body []byte) (Envelope, error) {
	if !json.Valid(body) {
		return Envelope{Kind: EnvelopeUnrecognized}, ErrMalformedPayload
	}
	root := object(body)
	if root == nil {
		return Envelope{Kind: EnvelopeUnrecognized}, nil
	}

	for _, rule := range shapeRules {
		if receipt, ok := decodeReceipt(rule.extract(root)); ok {
			return Envelope{Kind: rule.kind, Receipt: receipt}, nil
		}
	}
	if receipt, ok := decodeReceipt(body); ok {
		return Envelope{Kind: EnvelopeBare, Receipt: receipt}, nil
	}
	return Envelope{Kind: EnvelopeUnrecognized}, nil
}

// receiptProbe detects the receipt shape without committing to field types
type receiptProbe struct {
	ID    json.RawMessage `json:"id"`
	Type  json.RawMessage `json:"type"`
	Goods json.RawMessage `json:"goods"`
}

func decodeReceipt(raw json.RawMessage) (*Receipt, bool) {
	if object(raw) == nil {
		return nil, false
	}
	var probe receiptProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, false
	}
	if !present(probe.ID) || (!present(probe.Type) && !present(probe.Goods)) {
		return nil, false
	}
	var receipt Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, false
	}
	if receipt.ID == "" {
		return nil, false
	}
	return &receipt, true
}

func object(raw json.RawMessage) map[string]json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}
