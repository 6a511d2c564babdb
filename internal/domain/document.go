package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrTrailingData is returned by ParseDocument when the input holds more
// than one JSON value.
var ErrTrailingData = errors.New("unexpected data after JSON value")

// Document is an opaque forecast payload: the generic tree decoded from a
// single JSON value (objects, arrays, strings, json.Number, bool, nil).
// The zero Document encodes as JSON null.
type Document struct {
	value any
}

// ParseDocument decodes exactly one JSON value from data. Any well-formed
// value is accepted; its shape is not checked.
func ParseDocument(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Document{}, fmt.Errorf("decode forecast document: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Document{}, fmt.Errorf("decode forecast document: %w", ErrTrailingData)
	}
	return Document{value: v}, nil
}

// Value returns the decoded tree.
func (d Document) Value() any {
	return d.value
}

// MarshalJSON encodes the document compactly, without HTML escaping, so the
// stored text stays close to what the API returned.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d.value); err != nil {
		return nil, fmt.Errorf("encode forecast document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
