package session

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"isuclicker-api/internal/model"
)

// ErrProtocolViolation terminates a session.
var ErrProtocolViolation = protocolError("protocol violation")

type protocolError string

func (e protocolError) Error() string { return string(e) }

//go:embed request.schema.json
var requestSchema []byte

// Decoder validates inbound messages against the request schema.
type Decoder struct {
	schema *jsonschema.Schema
}

// NewDecoder compiles the embedded request schema.
func NewDecoder() (*Decoder, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("request.schema.json", bytes.NewReader(requestSchema)); err != nil {
		return nil, err
	}
	s, err := c.Compile("request.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	return &Decoder{schema: s}, nil
}

// Decode parses one inbound message. Any failure is a protocol violation.
func (d *Decoder) Decode(msg []byte) (model.GameRequest, error) {
	var req model.GameRequest

	var doc interface{}
	if err := json.Unmarshal(msg, &doc); err != nil {
		return req, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	if err := d.schema.Validate(doc); err != nil {
		return req, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	if err := json.Unmarshal(msg, &req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	return req, nil
}
