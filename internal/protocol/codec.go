package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrMalformedSnapshot marks structurally invalid inbound data.
	// The whole cycle is dropped; nothing is partially applied.
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	// ErrEmptyFrame is returned for zero-length frames.
	ErrEmptyFrame = errors.New("empty frame")
)

// DecodeText decodes a websocket text frame.
//
// Anything that is not valid JSON is a plain text line. A JSON object with
// "pregame" set is a control message. Every other JSON value must be a
// snapshot object.
func DecodeText(data []byte) (Message, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Message{}, ErrEmptyFrame
	}

	if !json.Valid(trimmed) {
		return Message{Kind: KindText, Text: string(data)}, nil
	}

	var head struct {
		Pregame bool `json:"pregame"`
	}
	if err := json.Unmarshal(trimmed, &head); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	if head.Pregame {
		var pg Pregame
		if err := json.Unmarshal(trimmed, &pg); err != nil {
			return Message{}, fmt.Errorf("decode pregame: %w", err)
		}
		return Message{Kind: KindPregame, Pregame: &pg}, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return Message{Kind: KindSnapshot, Snapshot: &snap}, nil
}

// DecodeBinary decodes a websocket binary frame. Binary frames always carry
// a msgpack snapshot keyed with the same field names as the JSON form.
func DecodeBinary(data []byte) (Message, error) {
	if len(data) == 0 {
		return Message{}, ErrEmptyFrame
	}

	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")

	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return Message{Kind: KindSnapshot, Snapshot: &snap}, nil
}

// EncodeBinary encodes a snapshot as a msgpack binary frame.
func EncodeBinary(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
