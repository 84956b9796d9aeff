package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/merklekv/merklekv/internal/crypto"
)

func TestRequestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		choice RequestChoice
	}{
		{name: "root", choice: RootRequest{}},
		{name: "get", choice: GetRequest{Key: []byte("some key")}},
		{name: "prefetch", choice: PrefetchRequest{Key: []byte("warm me")}},
		{name: "update", choice: UpdateRequest{Items: []UpdateItem{
			{Key: []byte("a"), Value: []byte("1")},
			{Key: []byte("b"), Value: []byte{}},
			{Key: []byte("c"), Value: []byte("3")},
		}}},
		{name: "update_empty", choice: UpdateRequest{}},
		{name: "close", choice: CloseRequest{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := MarshalRequest(NewRequest(tc.choice))
			require.NoError(t, err)

			decoded, err := UnmarshalRequest(data)
			require.NoError(t, err)

			switch want := tc.choice.(type) {
			case GetRequest:
				got, ok := decoded.Choice().(GetRequest)
				require.True(t, ok)
				assert.Equal(t, want.Key, got.Key)
			case PrefetchRequest:
				got, ok := decoded.Choice().(PrefetchRequest)
				require.True(t, ok)
				assert.Equal(t, want.Key, got.Key)
			case UpdateRequest:
				got, ok := decoded.Choice().(UpdateRequest)
				require.True(t, ok)
				require.Len(t, got.Items, len(want.Items))
				for i := range want.Items {
					assert.Equal(t, want.Items[i].Key, got.Items[i].Key)
					assert.Equal(t, want.Items[i].Value, got.Items[i].Value)
				}
			default:
				assert.IsType(t, tc.choice, decoded.Choice())
			}
		})
	}
}

func TestUnmarshalRequestEmpty(t *testing.T) {
	_, err := UnmarshalRequest(nil)
	assert.ErrorIs(t, err, ErrEmptyRequest)
}

func TestUnmarshalRequestMalformed(t *testing.T) {
	// A tag promising a length-delimited field with a length running past
	// the end of the payload.
	data := protowire.AppendTag(nil, fieldRequestGet, protowire.BytesType)
	data = protowire.AppendVarint(data, 1000)

	_, err := UnmarshalRequest(data)
	assert.Error(t, err)
}

func TestUnmarshalRequestSkipsUnknownFields(t *testing.T) {
	// An unknown varint field ahead of a valid get variant.
	data := protowire.AppendTag(nil, 99, protowire.VarintType)
	data = protowire.AppendVarint(data, 7)
	data = protowire.AppendTag(data, fieldRequestGet, protowire.BytesType)
	inner := protowire.AppendTag(nil, fieldKey, protowire.BytesType)
	inner = protowire.AppendBytes(inner, []byte("k"))
	data = protowire.AppendBytes(data, inner)

	decoded, err := UnmarshalRequest(data)
	require.NoError(t, err)

	got, ok := decoded.Choice().(GetRequest)
	require.True(t, ok)
	assert.Equal(t, []byte("k"), got.Key)
}

func TestResponseRoundTrip(t *testing.T) {
	root := crypto.HashData([]byte("some root"))

	tests := []struct {
		name string
		resp *Response
	}{
		{name: "root", resp: NewResponse(RootResponse{Root: root})},
		{name: "get", resp: NewResponse(GetResponse{Value: []byte("value")})},
		{name: "prefetch", resp: NewResponse(PrefetchResponse{})},
		{name: "update", resp: NewResponse(UpdateResponse{Root: root})},
		{name: "close", resp: NewResponse(CloseResponse{})},
		{name: "not_found", resp: NewErrorResponse(ErrCodeNotFound)},
		{name: "store_error", resp: NewErrorResponse(ErrCodeStore)},
		{name: "duplicate_key", resp: NewErrorResponse(ErrCodeDuplicateKey)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := MarshalResponse(tc.resp)
			require.NoError(t, err)

			decoded, err := UnmarshalResponse(data)
			require.NoError(t, err)

			assert.Equal(t, tc.resp.ErrCode, decoded.ErrCode)
			assert.Equal(t, tc.resp.Choice(), decoded.Choice())
		})
	}
}

func TestResponseErrorHasNoPayload(t *testing.T) {
	data, err := MarshalResponse(NewErrorResponse(ErrCodeNotFound))
	require.NoError(t, err)

	decoded, err := UnmarshalResponse(data)
	require.NoError(t, err)
	assert.Equal(t, ErrCodeNotFound, decoded.ErrCode)
	assert.Nil(t, decoded.Choice())
}

func TestResponseBadRootSize(t *testing.T) {
	inner := protowire.AppendTag(nil, fieldRoot, protowire.BytesType)
	inner = protowire.AppendBytes(inner, []byte("short"))
	data := protowire.AppendTag(nil, fieldResponseRoot, protowire.BytesType)
	data = protowire.AppendBytes(data, inner)

	_, err := UnmarshalResponse(data)
	assert.ErrorIs(t, err, ErrBadRootSize)
}
