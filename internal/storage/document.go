package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is a schemaless record whose keys keep their insertion order
// through decode, merge and encode. Values are held as raw JSON.
//
// A Document held by the store is never modified in place; writers work on clones.
type Document struct {
	keys   []string
	fields map[string]json.RawMessage
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{fields: make(map[string]json.RawMessage)}
}

// DocumentFrom encodes v (a struct or map) into a Document.
// Struct field order becomes key order.
func DocumentFrom(v any) (*Document, error) {
	raw, err := encodeValue(v)
	if err != nil {
		return nil, err
	}
	doc := NewDocument()
	if err := doc.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return doc, nil
}

// ID returns the value of the _id key, or "" if it is absent or not a string.
func (d *Document) ID() string {
	return d.String(KeyID)
}

// Len returns the number of keys.
func (d *Document) Len() int {
	return len(d.keys)
}

// Keys returns the keys in order.
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	_, ok := d.fields[key]
	return ok
}

// Raw returns the raw JSON value stored under key.
func (d *Document) Raw(key string) (json.RawMessage, bool) {
	raw, ok := d.fields[key]
	return raw, ok
}

// String returns the string stored under key, or "" when the key is absent or not a string.
func (d *Document) String(key string) string {
	raw, ok := d.fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Set encodes v and stores it under key. An existing key keeps its position;
// a new key is appended.
func (d *Document) Set(key string, v any) error {
	raw, err := encodeValue(v)
	if err != nil {
		return fmt.Errorf("failed to encode field %q: %w", key, err)
	}
	d.SetRaw(key, raw)
	return nil
}

// SetRaw stores an already-encoded JSON value under key.
func (d *Document) SetRaw(key string, raw json.RawMessage) {
	if d.fields == nil {
		d.fields = make(map[string]json.RawMessage)
	}
	if _, ok := d.fields[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.fields[key] = raw
}

// Delete removes key if present.
func (d *Document) Delete(key string) {
	if _, ok := d.fields[key]; !ok {
		return
	}
	delete(d.fields, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i:i], d.keys[i+1:]...)
			break
		}
	}
}

// Merge copies every key of other into d, in other's order.
func (d *Document) Merge(other *Document) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		d.SetRaw(k, other.fields[k])
	}
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	c := &Document{
		keys:   append([]string(nil), d.keys...),
		fields: make(map[string]json.RawMessage, len(d.fields)),
	}
	for k, v := range d.fields {
		c.fields[k] = append(json.RawMessage(nil), v...)
	}
	return c
}

// Decode unmarshals the document into v.
func (d *Document) Decode(v any) error {
	raw, err := d.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// MarshalJSON encodes the document with keys in order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeValue(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(d.fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, remembering key order.
// A repeated key keeps its first position and its last value.
func (d *Document) UnmarshalJSON(data []byte) error {
	d.keys = nil
	d.fields = make(map[string]json.RawMessage)

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("document key: unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("document field %q: %w", key, err)
		}
		d.SetRaw(key, raw)
	}
	return expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// encodeValue marshals v without HTML escaping, matching what JSON.stringify
// writes for the same values.
func encodeValue(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
