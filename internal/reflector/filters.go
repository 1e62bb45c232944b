package reflector

import "github.com/sm0svx/svxreflector-go/internal/protocol"

// Filter is a composable broadcast predicate (spec.md §4.5).
type Filter func(*Client) bool

// VersionIn matches clients whose negotiated protocol version falls within
// the inclusive range.
func VersionIn(r protocol.VerRange) Filter {
	return func(c *Client) bool { return r.Contains(c.protoVer) }
}

// TGIs matches clients whose current TG equals tg.
func TGIs(tg uint32) Filter {
	return func(c *Client) bool { return c.currentTG == tg }
}

// MonitorsTG matches clients monitoring tg.
func MonitorsTG(tg uint32) Filter {
	return func(c *Client) bool { return c.Monitors(tg) }
}

// Except excludes one specific client.
func Except(excl *Client) Filter {
	return func(c *Client) bool { return c != excl }
}

// And is true only if every filter is true.
func And(filters ...Filter) Filter {
	return func(c *Client) bool {
		for _, f := range filters {
			if !f(c) {
				return false
			}
		}
		return true
	}
}

// Or is true if any filter is true. Or() with no arguments is always false.
func Or(filters ...Filter) Filter {
	return func(c *Client) bool {
		for _, f := range filters {
			if f(c) {
				return true
			}
		}
		return false
	}
}

// Not negates a filter.
func Not(f Filter) Filter {
	return func(c *Client) bool { return !f(c) }
}

// All matches every CONNECTED client unconditionally.
func All() Filter { return func(*Client) bool { return true } }

// isV1 / isV2Plus filters, used to gate broadcast duplication between the
// legacy and modern message variants (spec.md §4.3/§4.5 cross-version
// duplication rule).
func isV1() Filter     { return func(c *Client) bool { return c.IsV1() } }
func isV2Plus() Filter { return func(c *Client) bool { return c.IsV2Plus() } }
