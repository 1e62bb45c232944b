// Package status implements the read-only HTTP status endpoint (spec.md
// §4.6): GET/HEAD /status returns a JSON snapshot of every connected node.
// All other methods are 501, all other paths 404. Reads never block the
// core loop (spec.md §5) — the handler round-trips through
// reflector.Core.RequestStatus, which is the only cross-goroutine read path
// into the core's client table.
package status

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sm0svx/svxreflector-go/internal/log"
	"github.com/sm0svx/svxreflector-go/internal/reflector"
)

// statusCore is the subset of *reflector.Core the handler needs, kept
// narrow so this package can be tested against a fake.
type statusCore interface {
	RequestStatus() reflector.Snapshot
}

// protoVerJSON / nodeJSON / documentJSON mirror spec.md §4.6's JSON shape
// exactly: {"nodes": {"<CALL>": {"addr":..., "protoVer": {...}, ...}}}.
type protoVerJSON struct {
	MajorVer uint8 `json:"majorVer"`
	MinorVer uint8 `json:"minorVer"`
}

type nodeJSON struct {
	Addr         string       `json:"addr"`
	ProtoVer     protoVerJSON `json:"protoVer"`
	TG           string       `json:"tg"`
	MonitoredTGs []uint32     `json:"monitoredTGs"`
	IsTalker     bool         `json:"isTalker"`
}

type documentJSON struct {
	Nodes map[string]nodeJSON `json:"nodes"`
}

// Handler serves /status. Mount it at "/status" on an http.ServeMux.
func Handler(core statusCore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.WriteHeader(http.StatusNotImplemented)
			return
		}

		snap := core.RequestStatus()
		doc := documentJSON{Nodes: make(map[string]nodeJSON, len(snap.Nodes))}
		for call, n := range snap.Nodes {
			monitored := n.MonitoredTGs
			if monitored == nil {
				monitored = []uint32{}
			}
			doc.Nodes[call] = nodeJSON{
				Addr:         n.Addr,
				ProtoVer:     protoVerJSON{MajorVer: n.MajorVer, MinorVer: n.MinorVer},
				TG:           strconv.FormatUint(uint64(n.TG), 10),
				MonitoredTGs: monitored,
				IsTalker:     n.IsTalker,
			}
		}

		body, err := json.Marshal(doc)
		if err != nil {
			log.Default().Error().Err(err).Msg("marshaling status document failed")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Write(body)
	})
}
