package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentKeepsKeyOrder(t *testing.T) {
	var doc Document
	require.NoError(t, doc.UnmarshalJSON([]byte(`{"zeta":1,"_id":"abc","alpha":{"b":2,"a":1}}`)))

	assert.Equal(t, []string{"zeta", "_id", "alpha"}, doc.Keys())
	assert.Equal(t, "abc", doc.ID())

	out, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"_id":"abc","alpha":{"b":2,"a":1}}`, string(out))
}

func TestDocumentFromStruct(t *testing.T) {
	type split struct {
		GroupExpenseID string  `json:"groupExpenseId"`
		UserID         string  `json:"userId"`
		ShareAmount    float64 `json:"shareAmount"`
		IsSettled      bool    `json:"isSettled"`
	}

	doc, err := DocumentFrom(split{GroupExpenseID: "ge1", UserID: "u1", ShareAmount: 3.33})
	require.NoError(t, err)
	assert.Equal(t, []string{"groupExpenseId", "userId", "shareAmount", "isSettled"}, doc.Keys())

	var back split
	require.NoError(t, doc.Decode(&back))
	assert.Equal(t, 3.33, back.ShareAmount)
	assert.False(t, back.IsSettled)
}

func TestDocumentMergeAndDelete(t *testing.T) {
	doc, err := DocumentFrom(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)

	patch := NewDocument()
	require.NoError(t, patch.Set("c", "new"))
	require.NoError(t, patch.Set("a", 10))
	doc.Merge(patch)

	assert.Equal(t, []string{"a", "b", "c"}, doc.Keys())
	raw, ok := doc.Raw("a")
	require.True(t, ok)
	assert.Equal(t, "10", string(raw))

	doc.Delete("b")
	doc.Delete("missing")
	assert.Equal(t, []string{"a", "c"}, doc.Keys())
	assert.False(t, doc.Has("b"))
}

func TestDocumentCloneIsIndependent(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.Set("name", "Trip"))

	clone := doc.Clone()
	require.NoError(t, clone.Set("name", "Flat"))
	require.NoError(t, clone.Set("extra", true))

	assert.Equal(t, "Trip", doc.String("name"))
	assert.Equal(t, 1, doc.Len())
	assert.Equal(t, "Flat", clone.String("name"))
}

func TestDocumentDoesNotEscapeHTML(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.Set("title", "Fish & Chips <2>"))

	out, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Fish & Chips <2>"}`, string(out))
}

func TestSnapshotEncodeMatchesFileLayout(t *testing.T) {
	const file = `{
  "users": [
    {
      "_id": "u1",
      "email": "a@example.com",
      "password": "hash",
      "name": "Alice",
      "createdAt": "2024-03-01T10:00:00.000Z",
      "updatedAt": "2024-03-01T10:00:00.000Z"
    }
  ],
  "groups": []
}`

	snap, err := DecodeSnapshot([]byte(file))
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "groups"}, snap.Names())
	assert.Len(t, snap.Collection("users"), 1)
	assert.Equal(t, 1, snap.Len())

	out, err := snap.Encode()
	require.NoError(t, err)
	assert.Equal(t, file, string(out))
}

func TestDecodeSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		corrupt bool
		records int
	}{
		{name: "empty input", input: "", records: 0},
		{name: "whitespace", input: "  \n", records: 0},
		{name: "empty object", input: "{}", records: 0},
		{name: "truncated", input: `{"users": [{"_id": "u1"`, corrupt: true},
		{name: "not an object", input: `[1,2]`, corrupt: true},
		{name: "collection not array", input: `{"users": 5}`, corrupt: true},
		{name: "null record", input: `{"users": [null]}`, corrupt: true},
		{name: "two collections", input: `{"a":[{"_id":"1"}],"b":[{"_id":"2"},{"_id":"3"}]}`, records: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := DecodeSnapshot([]byte(tt.input))
			if tt.corrupt {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrCorrupt))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.records, snap.Len())
		})
	}
}

func TestSnapshotCloneIsShallowButIsolated(t *testing.T) {
	snap := NewSnapshot()
	snap.SetCollection("users", []*Document{NewDocument()})

	clone := snap.Clone()
	clone.SetCollection("users", nil)
	clone.SetCollection("groups", []*Document{NewDocument()})

	assert.Len(t, snap.Collection("users"), 1)
	assert.Equal(t, []string{"users"}, snap.Names())
	assert.Equal(t, []string{"users", "groups"}, clone.Names())
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("X", 2*3600))
	assert.Equal(t, "2024-05-06T05:08:09.123Z", FormatTime(ts))
}
