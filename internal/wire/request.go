package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Request field numbers of the envelope oneof.
const (
	fieldRequestRoot     protowire.Number = 1
	fieldRequestGet      protowire.Number = 2
	fieldRequestPrefetch protowire.Number = 3
	fieldRequestUpdate   protowire.Number = 4
	fieldRequestClose    protowire.Number = 5
)

// Sub-message field numbers.
const (
	fieldKey   protowire.Number = 1
	fieldValue protowire.Number = 2
	fieldItems protowire.Number = 1
)

var ErrEmptyRequest = errors.New("wire: request carries no variant")

// RequestChoice is one of: RootRequest, GetRequest, PrefetchRequest,
// UpdateRequest, CloseRequest.
type RequestChoice interface {
	isRequestChoice()
}

type RootRequest struct{}

func (RootRequest) isRequestChoice() {}

type GetRequest struct {
	Key []byte
}

func (GetRequest) isRequestChoice() {}

type PrefetchRequest struct {
	Key []byte
}

func (PrefetchRequest) isRequestChoice() {}

// UpdateItem binds a client key to a value. An empty value is the delete
// sentinel.
type UpdateItem struct {
	Key   []byte
	Value []byte
}

type UpdateRequest struct {
	Items []UpdateItem
}

func (UpdateRequest) isRequestChoice() {}

type CloseRequest struct{}

func (CloseRequest) isRequestChoice() {}

// Request is the client-to-server envelope.
type Request struct {
	choice RequestChoice
}

// NewRequest wraps a choice into an envelope.
func NewRequest(choice RequestChoice) *Request {
	return &Request{choice: choice}
}

// Choice returns the inner variant.
func (r *Request) Choice() RequestChoice {
	return r.choice
}

// MarshalRequest encodes the envelope into protobuf wire format.
func MarshalRequest(r *Request) ([]byte, error) {
	var b []byte
	switch c := r.choice.(type) {
	case RootRequest:
		b = appendMessage(b, fieldRequestRoot, nil)
	case GetRequest:
		b = appendMessage(b, fieldRequestGet, appendBytesField(nil, fieldKey, c.Key))
	case PrefetchRequest:
		b = appendMessage(b, fieldRequestPrefetch, appendBytesField(nil, fieldKey, c.Key))
	case UpdateRequest:
		var inner []byte
		for _, item := range c.Items {
			encoded := appendBytesField(nil, fieldKey, item.Key)
			encoded = appendBytesField(encoded, fieldValue, item.Value)
			inner = appendMessage(inner, fieldItems, encoded)
		}
		b = appendMessage(b, fieldRequestUpdate, inner)
	case CloseRequest:
		b = appendMessage(b, fieldRequestClose, nil)
	default:
		return nil, ErrEmptyRequest
	}
	return b, nil
}

// UnmarshalRequest decodes a protobuf-encoded envelope. Unknown fields are
// skipped; a payload with no recognized variant is rejected.
func UnmarshalRequest(data []byte) (*Request, error) {
	var choice RequestChoice
	err := eachField(data, func(num protowire.Number, body []byte) error {
		switch num {
		case fieldRequestRoot:
			choice = RootRequest{}
		case fieldRequestGet:
			key, err := unmarshalKey(body)
			if err != nil {
				return err
			}
			choice = GetRequest{Key: key}
		case fieldRequestPrefetch:
			key, err := unmarshalKey(body)
			if err != nil {
				return err
			}
			choice = PrefetchRequest{Key: key}
		case fieldRequestUpdate:
			update, err := unmarshalUpdate(body)
			if err != nil {
				return err
			}
			choice = update
		case fieldRequestClose:
			choice = CloseRequest{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if choice == nil {
		return nil, ErrEmptyRequest
	}
	return &Request{choice: choice}, nil
}

func unmarshalKey(data []byte) ([]byte, error) {
	var key []byte
	err := eachField(data, func(num protowire.Number, body []byte) error {
		if num == fieldKey {
			key = cloneBytes(body)
		}
		return nil
	})
	return key, err
}

func unmarshalUpdate(data []byte) (UpdateRequest, error) {
	var update UpdateRequest
	err := eachField(data, func(num protowire.Number, body []byte) error {
		if num != fieldItems {
			return nil
		}
		var item UpdateItem
		err := eachField(body, func(num protowire.Number, body []byte) error {
			switch num {
			case fieldKey:
				item.Key = cloneBytes(body)
			case fieldValue:
				item.Value = cloneBytes(body)
			}
			return nil
		})
		if err != nil {
			return err
		}
		update.Items = append(update.Items, item)
		return nil
	})
	return update, err
}

// eachField walks a protobuf message, invoking fn for every length-delimited
// field and skipping fields of any other wire type.
func eachField(data []byte, fn func(num protowire.Number, body []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("wire: malformed tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		if typ == protowire.BytesType {
			body, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("wire: malformed field %d: %w", num, protowire.ParseError(n))
			}
			if err := fn(num, body); err != nil {
				return err
			}
			data = data[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return fmt.Errorf("wire: malformed field %d: %w", num, protowire.ParseError(n))
		}
		data = data[n:]
	}
	return nil
}

func appendMessage(b []byte, num protowire.Number, body []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

// appendBytesField emits a bytes field, including empty ones: an empty
// Update value is the delete sentinel and must stay visible on the wire.
func appendBytesField(b []byte, num protowire.Number, value []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, value)
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
