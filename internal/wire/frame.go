package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize caps the payload length accepted from a peer. A length header
// beyond this is treated as a framing error rather than an allocation.
const MaxFrameSize = 64 << 20

var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

// ReadFrame reads one length-prefixed frame: a big-endian uint32 payload
// length followed by exactly that many payload bytes. io.EOF is returned
// only for a connection closed cleanly between frames; a connection lost
// mid-frame surfaces as an unexpected-EOF error.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read frame header: %w", err)
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("failed to read frame payload: %w", err)
	}
	return payload, nil
}

// WriteFrame writes one length-prefixed frame.
//
// Framing is symmetric: responses carry the same big-endian length prefix as
// requests. (The protocol's ancestor framed only client-to-server messages;
// a bare protobuf payload is not self-delimiting on a byte stream, so both
// directions are framed here.)
func WriteFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write frame payload: %w", err)
	}
	return nil
}
