package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot maps collection names to ordered record lists. Collection order is
// the order in which collections first appeared.
//
// Clone is shallow: record slices are shared, so a collection must be replaced
// with SetCollection rather than modified in place.
type Snapshot struct {
	names       []string
	collections map[string][]*Document
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{collections: make(map[string][]*Document)}
}

// Names returns the collection names in order.
func (s *Snapshot) Names() []string {
	return append([]string(nil), s.names...)
}

// Collection returns the records of a collection. The slice must not be modified.
func (s *Snapshot) Collection(name string) []*Document {
	return s.collections[name]
}

// SetCollection replaces the records of a collection, adding it if new.
func (s *Snapshot) SetCollection(name string, docs []*Document) {
	if s.collections == nil {
		s.collections = make(map[string][]*Document)
	}
	if _, ok := s.collections[name]; !ok {
		s.names = append(s.names, name)
	}
	s.collections[name] = docs
}

// Len returns the total number of records across collections.
func (s *Snapshot) Len() int {
	n := 0
	for _, docs := range s.collections {
		n += len(docs)
	}
	return n
}

// Clone returns a snapshot that can be changed with SetCollection without
// affecting s.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		names:       append([]string(nil), s.names...),
		collections: make(map[string][]*Document, len(s.collections)),
	}
	for k, v := range s.collections {
		c.collections[k] = v
	}
	return c
}

// MarshalJSON encodes the snapshot as one object of arrays, collections in order.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeValue(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(":[")
		for j, doc := range s.collections[name] {
			if j > 0 {
				buf.WriteByte(',')
			}
			raw, err := doc.MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("collection %s: %w", name, err)
			}
			buf.Write(raw)
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a snapshot, keeping collection and key order.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	s.names = nil
	s.collections = make(map[string][]*Document)

	var top Document
	if err := top.UnmarshalJSON(data); err != nil {
		return err
	}
	for _, name := range top.keys {
		var docs []*Document
		if err := json.Unmarshal(top.fields[name], &docs); err != nil {
			return fmt.Errorf("collection %s: %w", name, err)
		}
		for i, doc := range docs {
			if doc == nil {
				return fmt.Errorf("collection %s: record %d is null", name, i)
			}
		}
		s.SetCollection(name, docs)
	}
	return nil
}

// Encode renders the snapshot in the on-disk form: two-space indentation,
// no HTML escaping, no trailing newline.
func (s *Snapshot) Encode() ([]byte, error) {
	compact, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DecodeSnapshot parses the on-disk form. Empty input yields an empty snapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	snap := NewSnapshot()
	if len(bytes.TrimSpace(data)) == 0 {
		return snap, nil
	}
	if err := snap.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return snap, nil
}
