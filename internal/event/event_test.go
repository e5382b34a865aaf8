package event

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docgraph/internal/flex"
)

func createEvent(t *testing.T) Event {
	t.Helper()
	groups := []flex.ContentGroup{flex.Group(flex.C("title", flex.Text("v1")))}
	payload, err := flex.MarshalCanonical(groups)
	require.NoError(t, err)
	return Event{
		ID:         NewID(),
		Operation:  OpCreate,
		DocumentID: 1,
		Hash:       flex.MustComputeHash(groups),
		Creator:    "alice",
		Timestamp:  1700000000123456,
		Payload:    payload,
	}
}

func TestNewIDIsUUIDv7(t *testing.T) {
	id, err := uuid.Parse(NewID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.NotEqual(t, NewID(), NewID())
}

func TestMarshalRoundTrip(t *testing.T) {
	e := createEvent(t)
	e.Seq = 42

	data, err := Marshal(e)
	require.NoError(t, err)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, int64(0), back.Seq, "seq is not part of the record")

	back.Seq = e.Seq
	assert.Equal(t, e, back)
}

func TestMarshalDeterministic(t *testing.T) {
	e := createEvent(t)
	first, err := Marshal(e)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Marshal(e)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMarshalForkAndCertify(t *testing.T) {
	parent := flex.MustComputeHash(nil)

	fork := createEvent(t)
	fork.Operation = OpFork
	fork.Parent = &parent
	data, err := Marshal(fork)
	require.NoError(t, err)
	back, err := Unmarshal(data)
	require.NoError(t, err)
	require.NotNil(t, back.Parent)
	assert.Equal(t, parent, *back.Parent)

	certify := Event{
		ID:         NewID(),
		Operation:  OpCertify,
		DocumentID: 1,
		Hash:       parent,
		Creator:    "bob",
		Timestamp:  5,
		Certificate: &flex.Certificate{
			ID:          "01J0000000000000000000000A",
			Certifier:   "bob",
			Notes:       "looks right",
			CertifiedAt: 5,
		},
	}
	data, err = Marshal(certify)
	require.NoError(t, err)
	back, err = Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, certify, back)
}

func TestValidateRejectsIncomplete(t *testing.T) {
	base := createEvent(t)

	noPayload := base
	noPayload.Payload = nil

	forkNoParent := base
	forkNoParent.Operation = OpFork

	certifyNoCert := base
	certifyNoCert.Operation = OpCertify

	unknown := base
	unknown.Operation = "update"

	noDoc := base
	noDoc.DocumentID = 0

	for name, e := range map[string]Event{
		"create without payload":      noPayload,
		"fork without parent":         forkNoParent,
		"certify without certificate": certifyNoCert,
		"unknown operation":           unknown,
		"missing document id":         noDoc,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Marshal(e)
			assert.Error(t, err)
		})
	}
}

func TestVerify(t *testing.T) {
	e := createEvent(t)
	require.NoError(t, e.Verify(flex.Hasher{}))

	groups, err := e.Groups()
	require.NoError(t, err)
	assert.Equal(t, flex.Text("v1"), groups[0][0].Value)

	tampered := e
	tampered.Hash = flex.Digest{}
	assert.Error(t, tampered.Verify(flex.Hasher{}))

	b3, err := flex.NewHasher(flex.BLAKE3)
	require.NoError(t, err)
	assert.Error(t, e.Verify(b3), "hash was computed with sha256")
}

func TestVerifyCertify(t *testing.T) {
	certify := Event{
		ID:         NewID(),
		Operation:  OpCertify,
		DocumentID: 1,
		Hash:       flex.MustComputeHash(nil),
		Creator:    "alice",
		Timestamp:  5,
		Certificate: &flex.Certificate{
			ID:          "01J0000000000000000000000A",
			Certifier:   "auditor",
			CertifiedAt: 5,
		},
	}
	require.NoError(t, certify.Verify(flex.Hasher{}))

	noCert := certify
	noCert.Certificate = nil
	assert.Error(t, noCert.Verify(flex.Hasher{}))

	withPayload := certify
	withPayload.Payload = createEvent(t).Payload
	assert.Error(t, withPayload.Verify(flex.Hasher{}))
}

func TestSinkFunc(t *testing.T) {
	var got []Event
	var sink Sink = SinkFunc(func(_ context.Context, e Event) {
		got = append(got, e)
	})
	sink.Notify(context.Background(), createEvent(t))
	assert.Len(t, got, 1)
}
