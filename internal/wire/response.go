package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/merklekv/merklekv/internal/crypto"
)

// Response field numbers: err_code, then the variant oneof.
const (
	fieldErrCode          protowire.Number = 1
	fieldResponseRoot     protowire.Number = 2
	fieldResponseGet      protowire.Number = 3
	fieldResponsePrefetch protowire.Number = 4
	fieldResponseUpdate   protowire.Number = 5
	fieldResponseClose    protowire.Number = 6
)

// Sub-message field numbers.
const (
	fieldRoot     protowire.Number = 1
	fieldGetValue protowire.Number = 1
)

// Error codes carried in the err_code field. A zero code is accompanied by a
// response variant; a non-zero code never is.
const (
	ErrCodeOK           int32 = 0
	ErrCodeNotFound     int32 = 1
	ErrCodeStore        int32 = 2
	ErrCodeDuplicateKey int32 = 3
)

var ErrBadRootSize = errors.New("wire: root field is not 32 bytes")

// ResponseChoice is one of: RootResponse, GetResponse, PrefetchResponse,
// UpdateResponse, CloseResponse.
type ResponseChoice interface {
	isResponseChoice()
}

type RootResponse struct {
	Root crypto.Hash
}

func (RootResponse) isResponseChoice() {}

type GetResponse struct {
	Value []byte
}

func (GetResponse) isResponseChoice() {}

type PrefetchResponse struct{}

func (PrefetchResponse) isResponseChoice() {}

type UpdateResponse struct {
	Root crypto.Hash
}

func (UpdateResponse) isResponseChoice() {}

type CloseResponse struct{}

func (CloseResponse) isResponseChoice() {}

// Response is the server-to-client envelope.
type Response struct {
	ErrCode int32
	choice  ResponseChoice
}

// NewResponse wraps a success variant.
func NewResponse(choice ResponseChoice) *Response {
	return &Response{ErrCode: ErrCodeOK, choice: choice}
}

// NewErrorResponse builds a failure envelope with no variant.
func NewErrorResponse(code int32) *Response {
	return &Response{ErrCode: code}
}

// Choice returns the inner variant, nil for failure responses.
func (r *Response) Choice() ResponseChoice {
	return r.choice
}

// MarshalResponse encodes the envelope into protobuf wire format.
func MarshalResponse(r *Response) ([]byte, error) {
	var b []byte
	if r.ErrCode != 0 {
		b = protowire.AppendTag(b, fieldErrCode, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(r.ErrCode)))
	}
	switch c := r.choice.(type) {
	case nil:
	case RootResponse:
		b = appendMessage(b, fieldResponseRoot, appendBytesField(nil, fieldRoot, c.Root[:]))
	case GetResponse:
		b = appendMessage(b, fieldResponseGet, appendBytesField(nil, fieldGetValue, c.Value))
	case PrefetchResponse:
		b = appendMessage(b, fieldResponsePrefetch, nil)
	case UpdateResponse:
		b = appendMessage(b, fieldResponseUpdate, appendBytesField(nil, fieldRoot, c.Root[:]))
	case CloseResponse:
		b = appendMessage(b, fieldResponseClose, nil)
	default:
		return nil, fmt.Errorf("wire: unsupported response variant %T", c)
	}
	return b, nil
}

// UnmarshalResponse decodes a protobuf-encoded response envelope.
func UnmarshalResponse(data []byte) (*Response, error) {
	resp := &Response{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("wire: malformed tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldErrCode && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: malformed err_code: %w", protowire.ParseError(n))
			}
			resp.ErrCode = int32(v)
			data = data[n:]
		case typ == protowire.BytesType:
			body, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: malformed field %d: %w", num, protowire.ParseError(n))
			}
			choice, err := unmarshalResponseChoice(num, body)
			if err != nil {
				return nil, err
			}
			if choice != nil {
				resp.choice = choice
			}
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("wire: malformed field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return resp, nil
}

func unmarshalResponseChoice(num protowire.Number, body []byte) (ResponseChoice, error) {
	switch num {
	case fieldResponseRoot:
		root, err := unmarshalRoot(body)
		if err != nil {
			return nil, err
		}
		return RootResponse{Root: root}, nil
	case fieldResponseGet:
		var value []byte
		err := eachField(body, func(num protowire.Number, body []byte) error {
			if num == fieldGetValue {
				value = cloneBytes(body)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return GetResponse{Value: value}, nil
	case fieldResponsePrefetch:
		return PrefetchResponse{}, nil
	case fieldResponseUpdate:
		root, err := unmarshalRoot(body)
		if err != nil {
			return nil, err
		}
		return UpdateResponse{Root: root}, nil
	case fieldResponseClose:
		return CloseResponse{}, nil
	}
	return nil, nil
}

func unmarshalRoot(data []byte) (crypto.Hash, error) {
	var root crypto.Hash
	found := false
	err := eachField(data, func(num protowire.Number, body []byte) error {
		if num != fieldRoot {
			return nil
		}
		if len(body) != crypto.HashSize {
			return ErrBadRootSize
		}
		copy(root[:], body)
		found = true
		return nil
	})
	if err != nil {
		return crypto.Hash{}, err
	}
	if !found {
		return crypto.Hash{}, ErrBadRootSize
	}
	return root, nil
}
