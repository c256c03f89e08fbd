package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func chain(as ...Association) Document {
	return Document{ID: "doc", Associations: as}
}

func TestDocumentVisibleTo(t *testing.T) {
	type testCase struct {
		name    string
		doc     Document
		user    string
		visible bool
	}

	tests := []testCase{
		{
			name:    "first in line with pending successor",
			doc:     chain(Association{"u1", Pending, 1}, Association{"u2", Pending, 2}),
			user:    "u1",
			visible: true,
		},
		{
			name:    "second waits for pending predecessor",
			doc:     chain(Association{"u1", Pending, 1}, Association{"u2", Pending, 2}),
			user:    "u2",
			visible: false,
		},
		{
			name:    "second sees document after predecessor approved",
			doc:     chain(Association{"u1", Approved, 1}, Association{"u2", Pending, 2}),
			user:    "u2",
			visible: true,
		},
		{
			name:    "rejected predecessor blocks like pending",
			doc:     chain(Association{"u1", Rejected, 1}, Association{"u2", Pending, 2}),
			user:    "u2",
			visible: false,
		},
		{
			name:    "priority one is never blocked",
			doc:     chain(Association{"u0", Rejected, 0}, Association{"u1", Pending, 1}),
			user:    "u1",
			visible: true,
		},
		{
			name:    "equal priorities do not block each other",
			doc:     chain(Association{"u1", Pending, 5}, Association{"u2", Pending, 5}),
			user:    "u2",
			visible: true,
		},
		{
			name: "tie still blocked by lower priority",
			doc: chain(
				Association{"u0", Pending, 3},
				Association{"u1", Pending, 5},
				Association{"u2", Pending, 5},
			),
			user:    "u1",
			visible: false,
		},
		{
			name: "insertion order is irrelevant",
			doc: chain(
				Association{"u3", Pending, 3},
				Association{"u2", Approved, 2},
				Association{"u1", Approved, 1},
			),
			user:    "u3",
			visible: true,
		},
		{
			name: "gap in priorities",
			doc: chain(
				Association{"u1", Approved, 1},
				Association{"u9", Pending, 9},
				Association{"u4", Pending, 4},
			),
			user:    "u9",
			visible: false,
		},
		{
			name:    "not associated",
			doc:     chain(Association{"u1", Approved, 1}),
			user:    "stranger",
			visible: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, visible := tc.doc.VisibleTo(tc.user)
			assert.Equal(t, tc.visible, visible)
		})
	}
}

func TestDocumentVisibleToReturnsOwnAssociation(t *testing.T) {
	doc := chain(Association{"u1", Approved, 1}, Association{"u2", Rejected, 2})

	own, ok := doc.VisibleTo("u2")
	assert.True(t, ok)
	assert.Equal(t, Rejected, own.ApprovalStatus)
	assert.Equal(t, 2, own.Priority)
}

func TestNextPriority(t *testing.T) {
	assert.Equal(t, 1, chain().NextPriority())
	assert.Equal(t, 8, chain(Association{"a", Pending, 7}, Association{"b", Pending, 2}).NextPriority())
}

func TestWithStatus(t *testing.T) {
	list := []Association{{"u1", Pending, 1}, {"u2", Pending, 2}}

	once := WithStatus(list, "u2", Approved)
	twice := WithStatus(once, "u2", Approved)

	assert.Equal(t, once, twice)
	assert.Equal(t, Approved, once[1].ApprovalStatus)
	assert.Equal(t, Pending, list[1].ApprovalStatus, "input must not be mutated")

	unchanged := WithStatus(list, "nobody", Rejected)
	assert.Equal(t, list, unchanged)
}

func TestWithoutUser(t *testing.T) {
	list := []Association{{"u1", Pending, 1}, {"u2", Pending, 2}, {"u2", Approved, 3}}

	out, removed := WithoutUser(list, "u2")
	assert.True(t, removed)
	assert.Equal(t, []Association{{"u1", Pending, 1}, {"u2", Approved, 3}}, out)
	assert.Len(t, list, 3)

	out, removed = WithoutUser(list, "nobody")
	assert.False(t, removed)
	assert.Equal(t, list, out)
}

func TestAssociationWireShape(t *testing.T) {
	list := []Association{{"u1", Approved, 1}, {"u2", Rejected, 2}, {"u3", Pending, 3}}

	data, err := json.Marshal(list)
	assert.NoError(t, err)
	assert.JSONEq(t, `[
		{"user_id":"u1","approval_status":true,"priority":1},
		{"user_id":"u2","approval_status":false,"priority":2},
		{"user_id":"u3","approval_status":null,"priority":3}
	]`, string(data))

	var decoded []Association
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, list, decoded)
}

func TestApprovalStatusRejectsGarbage(t *testing.T) {
	var s ApprovalStatus
	assert.Error(t, json.Unmarshal([]byte(`"yes"`), &s))
}

func TestNotFoundErrorIs(t *testing.T) {
	err := NotFoundError{Resource: ResourceUser}
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "user not found", err.Error())
}
