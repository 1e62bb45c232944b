// Package protocol implements the reflector's wire codec (spec.md §4.1): a
// stable, length-prefixed binary framing for control messages over TCP and a
// header+body framing for UDP audio-plane datagrams. The wire format is
// custom binary (matching the original SvxReflector protocol this system
// reimplements), not protobuf — there is no generated-message layer to ground
// on here, so encode/decode is hand-written per message type, in the same
// spirit as the teacher's PreHead/TransSendPkg pair (a fixed-size length
// prefix wrapping a typed, self-describing body).
package protocol

import "fmt"

// ProtoVer is a (major, minor) protocol version pair.
type ProtoVer struct {
	Major uint8
	Minor uint8
}

func (v ProtoVer) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less reports whether v sorts before o (major first, then minor).
func (v ProtoVer) Less(o ProtoVer) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

// LessEq reports v <= o.
func (v ProtoVer) LessEq(o ProtoVer) bool {
	return v == o || v.Less(o)
}

// VerRange is an inclusive [Lo, Hi] range used by version-based broadcast
// filters (spec.md §4.5 version_in).
type VerRange struct {
	Lo, Hi ProtoVer
}

func (r VerRange) Contains(v ProtoVer) bool {
	return r.Lo.LessEq(v) && v.LessEq(r.Hi)
}

// IsV1 / IsV2Plus classify a client's protocol-version policy class
// (spec.md §4.3).
func IsV1(v ProtoVer) bool     { return v.Major == 1 }
func IsV2Plus(v ProtoVer) bool { return v.Major >= 2 }

// ServerVersion is the version this reflector implementation advertises.
var ServerVersion = ProtoVer{Major: 2, Minor: 0}
