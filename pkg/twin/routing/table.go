// Package routing implements the switch's flat routing table: longest
// prefix match over destination IPs with provenance-based precedence.
package routing

import (
	"net"
	"sort"
)

// Provenance identifies the source of a routing entry. Precedence for
// tie-breaking equal-length prefixes is Connected > Static > OSPF.
type Provenance int

const (
	Connected Provenance = iota
	Static
	OSPF
)

func (p Provenance) String() string {
	switch p {
	case Connected:
		return "connected"
	case Static:
		return "static"
	case OSPF:
		return "ospf"
	default:
		return "unknown"
	}
}

// rank returns a smaller number for higher precedence, used to break ties
// between equal-length prefixes.
func (p Provenance) rank() int {
	switch p {
	case Connected:
		return 0
	case Static:
		return 1
	default: // OSPF
		return 2
	}
}

// Route is one entry in the routing table.
type Route struct {
	Network    string // canonical CIDR, e.g. "10.1.1.0/24"
	NextHop    string // local interface IP (connected) or gateway IP (static/ospf)
	Provenance Provenance
}

// Table is a flat map network-CIDR -> Route, looked up by longest-prefix
// match over the destination IP.
type Table struct {
	routes map[string]Route
}

// New returns an empty routing table.
func New() *Table {
	return &Table{routes: map[string]Route{}}
}

// Install adds the route, replacing any existing entry for the same
// network whatever its provenance (re-applying the same config is
// idempotent). OSPF redistribution uses InstallIfAbsent instead, which
// never overwrites an existing entry.
func (t *Table) Install(network, nextHop string, provenance Provenance) {
	t.routes[network] = Route{Network: network, NextHop: nextHop, Provenance: provenance}
}

// InstallIfAbsent installs the route only if no entry exists for network.
// Used for OSPF redistribution, which must never overwrite connected or
// static routes (or an earlier OSPF route for the same subnet).
func (t *Table) InstallIfAbsent(network, nextHop string, provenance Provenance) bool {
	if _, ok := t.routes[network]; ok {
		return false
	}
	t.routes[network] = Route{Network: network, NextHop: nextHop, Provenance: provenance}
	return true
}

// RemoveProvenance deletes every route installed with the given
// provenance. Used before an OSPF recompute so stale entries from a
// topology change don't linger (spec.md scenario 6, link flap).
func (t *Table) RemoveProvenance(provenance Provenance) {
	for network, route := range t.routes {
		if route.Provenance == provenance {
			delete(t.routes, network)
		}
	}
}

// Remove deletes the route for network. Returns false if absent.
func (t *Table) Remove(network string) bool {
	if _, ok := t.routes[network]; !ok {
		return false
	}
	delete(t.routes, network)
	return true
}

// Exists reports whether a route for network is installed.
func (t *Table) Exists(network string) bool {
	_, ok := t.routes[network]
	return ok
}

// Get returns the route installed for the exact network key.
func (t *Table) Get(network string) (Route, bool) {
	r, ok := t.routes[network]
	return r, ok
}

// Lookup performs longest-prefix match for dstIP. Among all routes whose
// network contains dstIP, the longest prefix wins; ties are broken by
// provenance precedence (connected > static > ospf).
func (t *Table) Lookup(dstIP string) (Route, bool) {
	ip := net.ParseIP(dstIP)
	if ip == nil {
		return Route{}, false
	}

	var best Route
	bestLen := -1
	found := false

	for cidr, route := range t.routes {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil || !network.Contains(ip) {
			continue
		}
		ones, _ := network.Mask.Size()
		if !found || ones > bestLen || (ones == bestLen && route.Provenance.rank() < best.Provenance.rank()) {
			best = route
			bestLen = ones
			found = true
		}
	}

	return best, found
}

// All returns every installed route, sorted by network for stable
// `show ip route` output.
func (t *Table) All() []Route {
	routes := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Network < routes[j].Network })
	return routes
}

// Len returns the number of installed routes.
func (t *Table) Len() int {
	return len(t.routes)
}
