package protocol

// Message is implemented by every control-plane message body. Encode never
// fails; Decode reports truncated or malformed input via ErrTruncated.
type Message interface {
	Type() MsgType
	Encode() []byte
	Decode(body []byte) error
}

// ProtoVerMsg announces a peer's protocol version. Sent by the server right
// after connect and by the client in response.
type ProtoVerMsg struct {
	Major uint8
	Minor uint8
}

func (m *ProtoVerMsg) Type() MsgType { return MsgProtoVer }

func (m *ProtoVerMsg) Encode() []byte {
	w := newWriter()
	w.u8(m.Major)
	w.u8(m.Minor)
	return w.buf
}

func (m *ProtoVerMsg) Decode(body []byte) error {
	r := newReader(body)
	var err error
	if m.Major, err = r.u8(); err != nil {
		return err
	}
	if m.Minor, err = r.u8(); err != nil {
		return err
	}
	return nil
}

// AuthChallengeMsg carries the server-generated nonce (spec.md §4.3).
type AuthChallengeMsg struct {
	Nonce []byte
}

func (m *AuthChallengeMsg) Type() MsgType { return MsgAuthChallenge }

func (m *AuthChallengeMsg) Encode() []byte {
	w := newWriter()
	w.bytes(m.Nonce)
	return w.buf
}

func (m *AuthChallengeMsg) Decode(body []byte) error {
	r := newReader(body)
	b, err := r.bytesField()
	if err != nil {
		return err
	}
	m.Nonce = append([]byte(nil), b...)
	return nil
}

// AuthResponseMsg carries the callsign and its HMAC digest of the challenge.
type AuthResponseMsg struct {
	Callsign string
	Digest   []byte
}

func (m *AuthResponseMsg) Type() MsgType { return MsgAuthResponse }

func (m *AuthResponseMsg) Encode() []byte {
	w := newWriter()
	w.str(m.Callsign)
	w.bytes(m.Digest)
	return w.buf
}

func (m *AuthResponseMsg) Decode(body []byte) error {
	r := newReader(body)
	var err error
	if m.Callsign, err = r.str(); err != nil {
		return err
	}
	b, err := r.bytesField()
	if err != nil {
		return err
	}
	m.Digest = append([]byte(nil), b...)
	return nil
}

// AuthOkMsg has no fields; its type tag alone is the message.
type AuthOkMsg struct{}

func (m *AuthOkMsg) Type() MsgType           { return MsgAuthOk }
func (m *AuthOkMsg) Encode() []byte          { return nil }
func (m *AuthOkMsg) Decode(body []byte) error { return nil }

// ErrorMsg carries a human-readable reason, sent just before the server
// closes a connection (e.g. "Access denied").
type ErrorMsg struct {
	Text string
}

func (m *ErrorMsg) Type() MsgType { return MsgError }

func (m *ErrorMsg) Encode() []byte {
	w := newWriter()
	w.str(m.Text)
	return w.buf
}

func (m *ErrorMsg) Decode(body []byte) error {
	r := newReader(body)
	var err error
	m.Text, err = r.str()
	return err
}

// ServerInfoMsg lists the callsigns of every currently connected node.
type ServerInfoMsg struct {
	Nodes []string
}

func (m *ServerInfoMsg) Type() MsgType { return MsgServerInfo }

func (m *ServerInfoMsg) Encode() []byte {
	w := newWriter()
	w.u16(uint16(len(m.Nodes)))
	for _, n := range m.Nodes {
		w.str(n)
	}
	return w.buf
}

func (m *ServerInfoMsg) Decode(body []byte) error {
	r := newReader(body)
	n, err := r.u16()
	if err != nil {
		return err
	}
	nodes := make([]string, 0, n)
	for i := 0; i < int(n); i++ {
		s, err := r.str()
		if err != nil {
			return err
		}
		nodes = append(nodes, s)
	}
	m.Nodes = nodes
	return nil
}

// NodeListMsg is the reply to a client's NodeList request; same wire shape
// as ServerInfoMsg but a distinct type tag (spec.md §4.1/§4.3).
type NodeListMsg struct {
	Nodes []string
}

func (m *NodeListMsg) Type() MsgType { return MsgNodeList }

func (m *NodeListMsg) Encode() []byte {
	w := newWriter()
	w.u16(uint16(len(m.Nodes)))
	for _, n := range m.Nodes {
		w.str(n)
	}
	return w.buf
}

func (m *NodeListMsg) Decode(body []byte) error {
	r := newReader(body)
	n, err := r.u16()
	if err != nil {
		return err
	}
	nodes := make([]string, 0, n)
	for i := 0; i < int(n); i++ {
		s, err := r.str()
		if err != nil {
			return err
		}
		nodes = append(nodes, s)
	}
	m.Nodes = nodes
	return nil
}

// NodeJoinedMsg / NodeLeftMsg announce membership changes to every other
// CONNECTED peer.
type NodeJoinedMsg struct {
	Callsign string
}

func (m *NodeJoinedMsg) Type() MsgType { return MsgNodeJoined }
func (m *NodeJoinedMsg) Encode() []byte {
	w := newWriter()
	w.str(m.Callsign)
	return w.buf
}
func (m *NodeJoinedMsg) Decode(body []byte) error {
	r := newReader(body)
	var err error
	m.Callsign, err = r.str()
	return err
}

type NodeLeftMsg struct {
	Callsign string
}

func (m *NodeLeftMsg) Type() MsgType { return MsgNodeLeft }
func (m *NodeLeftMsg) Encode() []byte {
	w := newWriter()
	w.str(m.Callsign)
	return w.buf
}
func (m *NodeLeftMsg) Decode(body []byte) error {
	r := newReader(body)
	var err error
	m.Callsign, err = r.str()
	return err
}

// SelectTGMsg requests that the sender join a talkgroup (v2+ only).
type SelectTGMsg struct {
	TG uint32
}

func (m *SelectTGMsg) Type() MsgType { return MsgSelectTG }
func (m *SelectTGMsg) Encode() []byte {
	w := newWriter()
	w.u32(m.TG)
	return w.buf
}
func (m *SelectTGMsg) Decode(body []byte) error {
	r := newReader(body)
	var err error
	m.TG, err = r.u32()
	return err
}

// TGMonitorMsg replaces the sender's monitor set (v2+ only).
type TGMonitorMsg struct {
	TGs []uint32
}

func (m *TGMonitorMsg) Type() MsgType { return MsgTGMonitor }
func (m *TGMonitorMsg) Encode() []byte {
	w := newWriter()
	w.u32set(m.TGs)
	return w.buf
}
func (m *TGMonitorMsg) Decode(body []byte) error {
	r := newReader(body)
	var err error
	m.TGs, err = r.u32set()
	return err
}

// RequestQsyMsg asks the core to move the sender's current TG to tg (0
// requests a random allocation from the configured pool, spec.md §4.5).
type RequestQsyMsg struct {
	TG uint32
}

func (m *RequestQsyMsg) Type() MsgType { return MsgRequestQsy }
func (m *RequestQsyMsg) Encode() []byte {
	w := newWriter()
	w.u32(m.TG)
	return w.buf
}
func (m *RequestQsyMsg) Decode(body []byte) error {
	r := newReader(body)
	var err error
	m.TG, err = r.u32()
	return err
}

// TalkerStartMsg / TalkerStopMsg are the v2+ talker-change notifications.
type TalkerStartMsg struct {
	TG       uint32
	Callsign string
}

func (m *TalkerStartMsg) Type() MsgType { return MsgTalkerStart }
func (m *TalkerStartMsg) Encode() []byte {
	w := newWriter()
	w.u32(m.TG)
	w.str(m.Callsign)
	return w.buf
}
func (m *TalkerStartMsg) Decode(body []byte) error {
	r := newReader(body)
	var err error
	if m.TG, err = r.u32(); err != nil {
		return err
	}
	m.Callsign, err = r.str()
	return err
}

type TalkerStopMsg struct {
	TG       uint32
	Callsign string
}

func (m *TalkerStopMsg) Type() MsgType { return MsgTalkerStop }
func (m *TalkerStopMsg) Encode() []byte {
	w := newWriter()
	w.u32(m.TG)
	w.str(m.Callsign)
	return w.buf
}
func (m *TalkerStopMsg) Decode(body []byte) error {
	r := newReader(body)
	var err error
	if m.TG, err = r.u32(); err != nil {
		return err
	}
	m.Callsign, err = r.str()
	return err
}

// TalkerStartV1Msg / TalkerStopV1Msg are the legacy variants with no TG
// field: v1 clients have one implicit, fixed TG (spec.md §4.3).
type TalkerStartV1Msg struct {
	Callsign string
}

func (m *TalkerStartV1Msg) Type() MsgType { return MsgTalkerStartV1 }
func (m *TalkerStartV1Msg) Encode() []byte {
	w := newWriter()
	w.str(m.Callsign)
	return w.buf
}
func (m *TalkerStartV1Msg) Decode(body []byte) error {
	r := newReader(body)
	var err error
	m.Callsign, err = r.str()
	return err
}

type TalkerStopV1Msg struct {
	Callsign string
}

func (m *TalkerStopV1Msg) Type() MsgType { return MsgTalkerStopV1 }
func (m *TalkerStopV1Msg) Encode() []byte {
	w := newWriter()
	w.str(m.Callsign)
	return w.buf
}
func (m *TalkerStopV1Msg) Decode(body []byte) error {
	r := newReader(body)
	var err error
	m.Callsign, err = r.str()
	return err
}

// NewMessage allocates a zero-valued Message for the given type, or nil for
// an unrecognized tag. Frame decoding uses this so unknown type tags can be
// skipped for forward compatibility (spec.md §4.1) instead of aborting.
func NewMessage(t MsgType) Message {
	switch t {
	case MsgProtoVer:
		return &ProtoVerMsg{}
	case MsgAuthChallenge:
		return &AuthChallengeMsg{}
	case MsgAuthResponse:
		return &AuthResponseMsg{}
	case MsgAuthOk:
		return &AuthOkMsg{}
	case MsgError:
		return &ErrorMsg{}
	case MsgServerInfo:
		return &ServerInfoMsg{}
	case MsgNodeList:
		return &NodeListMsg{}
	case MsgNodeJoined:
		return &NodeJoinedMsg{}
	case MsgNodeLeft:
		return &NodeLeftMsg{}
	case MsgSelectTG:
		return &SelectTGMsg{}
	case MsgTGMonitor:
		return &TGMonitorMsg{}
	case MsgRequestQsy:
		return &RequestQsyMsg{}
	case MsgTalkerStart:
		return &TalkerStartMsg{}
	case MsgTalkerStop:
		return &TalkerStopMsg{}
	case MsgTalkerStartV1:
		return &TalkerStartV1Msg{}
	case MsgTalkerStopV1:
		return &TalkerStopV1Msg{}
	default:
		return nil
	}
}
