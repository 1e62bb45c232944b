package protocol

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// MaxFrameSize bounds a single control-plane frame. Anything larger is
// rejected outright rather than causing an unbounded allocation.
const MaxFrameSize = 1 << 20 // 1 MiB

// frameHeaderSize is [length:4][type:2], mirroring the teacher's PreHead
// fixed-size length prefix ahead of a typed body.
const frameHeaderSize = 6

// ErrFrameTooLarge is returned by ReadFrame when the declared length exceeds
// MaxFrameSize.
var ErrFrameTooLarge = errors.New("protocol: frame exceeds maximum size")

// WriteFrame writes [length][type][body] to w. length covers type+body.
func WriteFrame(w io.Writer, t MsgType, body []byte) error {
	hdr := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(hdr, uint32(2+len(body)))
	binary.BigEndian.PutUint16(hdr[4:], uint16(t))
	if _, err := w.Write(hdr); err != nil {
		return errors.Wrap(err, "write frame header")
	}
	if len(body) > 0 {
		if _, err := w.Write(body); err != nil {
			return errors.Wrap(err, "write frame body")
		}
	}
	return nil
}

// ReadFrame reads one [length][type][body] frame from r. An unrecognized
// type tag is returned as-is (type set, body raw) rather than an error: the
// caller decides whether to ignore it, preserving forward compatibility
// with newer peers that add message types (spec.md §4.1).
func ReadFrame(r io.Reader) (MsgType, []byte, error) {
	hdr := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return 0, nil, err
	}
	length := binary.BigEndian.Uint32(hdr)
	if length < 2 {
		return 0, nil, errors.New("protocol: frame length shorter than type tag")
	}
	if length > MaxFrameSize {
		return 0, nil, ErrFrameTooLarge
	}
	t := MsgType(binary.BigEndian.Uint16(hdr[4:]))
	bodyLen := length - 2
	body := make([]byte, bodyLen)
	if bodyLen > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return 0, nil, errors.Wrap(err, "read frame body")
		}
	}
	return t, body, nil
}

// DecodeControl allocates and decodes the Message for t, or returns
// (nil, nil) for an unrecognized type so callers can skip it silently.
func DecodeControl(t MsgType, body []byte) (Message, error) {
	m := NewMessage(t)
	if m == nil {
		return nil, nil
	}
	if err := m.Decode(body); err != nil {
		return nil, errors.Wrapf(err, "decode %s", t)
	}
	return m, nil
}

// EncodeControl frames a Message ready for WriteFrame's body argument.
func EncodeControl(m Message) (MsgType, []byte) {
	return m.Type(), m.Encode()
}
