package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
)

func clock(ts int64, entries ...uint64) domain.VectorClock {
	vc := domain.NewVectorClock()
	for i := 0; i+1 < len(entries); i += 2 {
		vc.Versions[domain.NodeID(entries[i])] = entries[i+1]
	}
	vc.Timestamp = ts
	return vc
}

func TestVectorClockEncodingIsDeterministic(t *testing.T) {
	a := clock(10, 3, 1, 1, 7, 2, 4)
	b := clock(10, 2, 4, 3, 1, 1, 7)

	assert.True(t, bytes.Equal(AppendVectorClock(nil, a), AppendVectorClock(nil, b)))

	decoded, err := DecodeVectorClock(AppendVectorClock(nil, a))
	require.NoError(t, err)
	assert.True(t, decoded.Equal(a))
	assert.Equal(t, int64(10), decoded.Timestamp)
}

func TestDecodeVersionedList_PreservesSiblings(t *testing.T) {
	siblings := []domain.Versioned{
		domain.NewVersioned([]byte("left"), clock(1, 0, 1)),
		domain.NewVersioned([]byte{}, clock(2, 1, 1)),
	}

	got, err := DecodeVersionedList(EncodeVersionedList(siblings))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []byte("left"), got[0].Value)
	assert.Equal(t, []byte{}, got[1].Value)
	assert.Equal(t, domain.Concurrently, got[0].Version.Compare(got[1].Version))
}

func TestDecodeVersionedList_Empty(t *testing.T) {
	got, err := DecodeVersionedList(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	b := AppendVersioned(nil, domain.NewVersioned([]byte("v"), clock(0, 5, 2)))
	b = protowire.AppendTag(b, 99, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)

	v, err := DecodeVersioned(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v.Value)
	assert.Equal(t, uint64(2), v.Version.Versions[5])
}

func TestDecodeTruncated(t *testing.T) {
	b := EncodeVersionedList([]domain.Versioned{domain.NewVersioned([]byte("value"), clock(0, 1, 1))})

	_, err := DecodeVersionedList(b[:len(b)-3])
	assert.True(t, errors.Is(err, ErrMalformed), "expected ErrMalformed, got %v", err)
}

func TestMessages(t *testing.T) {
	put := &PutRequest{Store: "users", Key: []byte("k1"), Value: domain.NewVersioned([]byte("v1"), clock(7, 0, 3))}
	var gotPut PutRequest
	require.NoError(t, gotPut.Unmarshal(put.Marshal()))
	assert.Equal(t, "users", gotPut.Store)
	assert.Equal(t, []byte("k1"), gotPut.Key)
	assert.Equal(t, []byte("v1"), gotPut.Value.Value)
	assert.Equal(t, uint64(3), gotPut.Value.Version.Versions[0])

	del := &DeleteRequest{Store: "users", Key: []byte("k1"), Version: clock(0, 0, 3)}
	var gotDel DeleteRequest
	require.NoError(t, gotDel.Unmarshal(del.Marshal()))
	assert.True(t, gotDel.Version.Equal(del.Version))

	var gotResp DeleteResponse
	require.NoError(t, gotResp.Unmarshal((&DeleteResponse{Deleted: true}).Marshal()))
	assert.True(t, gotResp.Deleted)
}

func TestCodec(t *testing.T) {
	c := Codec{}
	assert.Equal(t, "kvwire", c.Name())

	_, err := c.Marshal("not a message")
	assert.Error(t, err)

	data, err := c.Marshal(&GetRequest{Store: "s", Key: []byte("k")})
	require.NoError(t, err)

	var req GetRequest
	require.NoError(t, c.Unmarshal(data, &req))
	assert.Equal(t, "s", req.Store)
	assert.Equal(t, []byte("k"), req.Key)
}
