package protocol

// MsgType is the 16-bit type tag every control and UDP message carries
// (spec.md §4.1).
type MsgType uint16

// Control message types.
const (
	MsgProtoVer MsgType = iota + 1
	MsgAuthChallenge
	MsgAuthResponse
	MsgAuthOk
	MsgError
	MsgServerInfo
	MsgNodeList
	MsgNodeJoined
	MsgNodeLeft
	MsgSelectTG
	MsgTGMonitor
	MsgRequestQsy
	MsgTalkerStart
	MsgTalkerStop
	MsgTalkerStartV1
	MsgTalkerStopV1
)

// UDP message types. These share the MsgType tag space but are only ever
// sent on the UDP audio plane.
const (
	MsgUdpHeartbeat MsgType = iota + 1000
	MsgUdpAudio
	MsgUdpFlushSamples
	MsgUdpAllSamplesFlushed
)

func (t MsgType) String() string {
	switch t {
	case MsgProtoVer:
		return "ProtoVer"
	case MsgAuthChallenge:
		return "AuthChallenge"
	case MsgAuthResponse:
		return "AuthResponse"
	case MsgAuthOk:
		return "AuthOk"
	case MsgError:
		return "Error"
	case MsgServerInfo:
		return "ServerInfo"
	case MsgNodeList:
		return "NodeList"
	case MsgNodeJoined:
		return "NodeJoined"
	case MsgNodeLeft:
		return "NodeLeft"
	case MsgSelectTG:
		return "SelectTG"
	case MsgTGMonitor:
		return "TGMonitor"
	case MsgRequestQsy:
		return "RequestQsy"
	case MsgTalkerStart:
		return "TalkerStart"
	case MsgTalkerStop:
		return "TalkerStop"
	case MsgTalkerStartV1:
		return "TalkerStartV1"
	case MsgTalkerStopV1:
		return "TalkerStopV1"
	case MsgUdpHeartbeat:
		return "UdpHeartbeat"
	case MsgUdpAudio:
		return "UdpAudio"
	case MsgUdpFlushSamples:
		return "UdpFlushSamples"
	case MsgUdpAllSamplesFlushed:
		return "UdpAllSamplesFlushed"
	default:
		return "Unknown"
	}
}
