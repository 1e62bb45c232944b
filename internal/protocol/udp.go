package protocol

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// udpHeaderSize is [type:2][client_id:4][seq:2] ahead of the datagram body.
const udpHeaderSize = 8

// UDPDatagram is one decoded UDP audio-plane datagram (spec.md §4.4).
type UDPDatagram struct {
	Type     MsgType
	ClientID uint32
	Seq      uint16
	TG       uint32 // only meaningful for Type == MsgUdpAudio
	Payload  []byte // only meaningful for Type == MsgUdpAudio
}

// EncodeUDP serializes a datagram. ClientID is the id of the client the
// datagram belongs to: a client puts its own id on what it sends, and the
// reflector puts the recipient's id on what it sends to each client. Seq is
// the sender's outbound sequence number for that peer.
func EncodeUDP(d UDPDatagram) []byte {
	hdr := make([]byte, udpHeaderSize)
	binary.BigEndian.PutUint16(hdr, uint16(d.Type))
	binary.BigEndian.PutUint32(hdr[2:], d.ClientID)
	binary.BigEndian.PutUint16(hdr[6:], d.Seq)

	switch d.Type {
	case MsgUdpAudio:
		w := newWriter()
		w.u32(d.TG)
		w.rawBytes(d.Payload)
		return append(hdr, w.buf...)
	default:
		return hdr
	}
}

// DecodeUDP parses a raw datagram. An unrecognized type is returned with
// Type set and no further decode attempted, matching the control-frame
// forward-compatibility policy.
func DecodeUDP(raw []byte) (UDPDatagram, error) {
	if len(raw) < udpHeaderSize {
		return UDPDatagram{}, errors.New("protocol: udp datagram shorter than header")
	}
	d := UDPDatagram{
		Type:     MsgType(binary.BigEndian.Uint16(raw)),
		ClientID: binary.BigEndian.Uint32(raw[2:]),
		Seq:      binary.BigEndian.Uint16(raw[6:]),
	}
	body := raw[udpHeaderSize:]
	switch d.Type {
	case MsgUdpAudio:
		r := newReader(body)
		tg, err := r.u32()
		if err != nil {
			return UDPDatagram{}, errors.Wrap(err, "decode udp audio")
		}
		d.TG = tg
		d.Payload = append([]byte(nil), r.rest()...)
	case MsgUdpHeartbeat, MsgUdpFlushSamples, MsgUdpAllSamplesFlushed:
		// no body
	}
	return d, nil
}

// SeqDelta returns the signed wraparound-aware distance recv-expected for
// 16-bit UDP sequence numbers: zero means recv equals expected, a positive
// result means recv is ahead of expected, and a negative result (a 16-bit
// difference > 0x7FFF before sign interpretation) means recv is stale
// (spec.md §4.4 serial-number arithmetic).
func SeqDelta(expected, recv uint16) int32 {
	d := int32(recv) - int32(expected)
	d &= 0xFFFF
	if d > 0x7FFF {
		d -= 0x10000
	}
	return d
}

// IsStaleSeq reports whether recv is older than expected. A recv equal to
// expected is in order, not stale.
func IsStaleSeq(expected, recv uint16) bool {
	return SeqDelta(expected, recv) < 0
}
