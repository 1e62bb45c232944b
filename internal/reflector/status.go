package reflector

import "sort"

// Snapshot is a read-only view of every connected node, matching spec.md
// §4.6's status JSON shape. It is produced by snapshot(), which only ever
// runs on the core loop, and handed to callers (the status HTTP handler)
// across a channel — the "reads are snapshots taken without blocking
// session processing" rule from spec.md §4.6/§5.
type Snapshot struct {
	Nodes map[string]NodeStatus
}

// NodeStatus is one connected client's externally visible state.
type NodeStatus struct {
	Addr         string
	MajorVer     uint8
	MinorVer     uint8
	TG           uint32
	MonitoredTGs []uint32
	IsTalker     bool
}

func (c *Core) snapshot() Snapshot {
	nodes := make(map[string]NodeStatus, len(c.byCallsign))
	for call, client := range c.byCallsign {
		tg := client.currentTG
		isTalker := false
		if tg != 0 {
			if talker, ok := c.registry.Talker(tg); ok && talker == client {
				isTalker = true
			}
		}

		addr := ""
		if client.tcpRemote != nil {
			addr = client.tcpRemote.IP.String()
		}

		monitored := make([]uint32, 0, len(client.monitoredTGs))
		for t := range client.monitoredTGs {
			monitored = append(monitored, t)
		}
		sort.Slice(monitored, func(i, j int) bool { return monitored[i] < monitored[j] })

		nodes[call] = NodeStatus{
			Addr:         addr,
			MajorVer:     client.protoVer.Major,
			MinorVer:     client.protoVer.Minor,
			TG:           tg,
			MonitoredTGs: monitored,
			IsTalker:     isTalker,
		}
	}
	return Snapshot{Nodes: nodes}
}
