package fabric

import (
	"github.com/newtron-network/swtwin/pkg/twin/routing"
	"github.com/newtron-network/swtwin/pkg/twin/util"
)

// RunOSPF walks this switch's live adjacencies, rebuilds its LSDB entry
// and connected-subnet set, recomputes routes, and floods its LSA to
// every up-linked neighbor (spec.md §4.5).
func (s *Switch) RunOSPF() {
	s.do(func() {
		s.runOSPFLocked()
	})
}

func (s *Switch) runOSPFLocked() {
	neighbors := map[string]int{}
	for portID := 1; portID <= NumPorts; portID++ {
		port := s.ports[portID]
		if port != nil && port.IsUp() && port.IsLinked() {
			neighbors[port.LinkedPeer] = s.ospf.Cost(port.SpeedMbps)
		}
	}
	s.ospf.SetConnectedSubnets(s.connectedSubnetsLocked())
	s.ospf.UpdateSelf(neighbors)
	s.recomputeRoutesLocked()

	lsa := s.ospf.LSDB()[s.Name]
	for neighborName := range neighbors {
		peer, ok := s.registry.Lookup(neighborName)
		if !ok {
			continue
		}
		peer.deliverLSA(s.Name, lsa)
	}
}

// receiveLSALocked installs an LSA learned from fromNode; if it changed
// the LSDB, recomputes routes and re-floods to every up-linked neighbor
// except fromNode (split horizon, spec.md §4.5).
func (s *Switch) receiveLSALocked(fromNode string, lsa map[string]int) {
	if !s.ospf.ReceiveLSA(fromNode, lsa) {
		return
	}
	s.recomputeRoutesLocked()

	for portID := 1; portID <= NumPorts; portID++ {
		port := s.ports[portID]
		if port == nil || !port.IsUp() || !port.IsLinked() || port.LinkedPeer == fromNode {
			continue
		}
		peer, ok := s.registry.Lookup(port.LinkedPeer)
		if !ok {
			continue
		}
		peer.deliverLSA(fromNode, lsa)
	}
}

// connectedSubnetsLocked rebuilds the set of subnets this switch
// originates from its current L3 interfaces.
func (s *Switch) connectedSubnetsLocked() []string {
	seen := map[string]bool{}
	var subnets []string
	for _, name := range s.l3Order {
		iface := s.l3[name]
		cidr, err := util.NetworkCIDR(iface.CIDR)
		if err != nil {
			continue
		}
		if !seen[cidr] {
			seen[cidr] = true
			subnets = append(subnets, cidr)
		}
	}
	return subnets
}

// recomputeRoutesLocked drops this switch's previously-installed OSPF
// routes, reruns Dijkstra over the current LSDB, and redistributes the
// result into the routing table, never overwriting a connected or static
// entry (spec.md §4.5 step "Redistribution").
//
// Must be called with s.mu held (write), same as every other *Locked
// method — but resolving a next-hop or a peer's connected subnets means
// reading another switch's state through its own lock, and spec.md §5/§9
// forbid a switch ever holding its own lock while waiting on a peer's: two
// adjacent switches recomputing at once (exactly what happens during LSA
// flood convergence) would each hold their own write lock and block on the
// other's read lock, deadlocking both actors. So this function only
// touches its own state (s.ospf.ShortestPaths) while locked, then drops
// s.mu entirely for the peer-querying part, and reacquires it — leaving
// the lock held, matching what every caller's own lock/unlock pairing
// expects — before writing the result back.
func (s *Switch) recomputeRoutesLocked() {
	paths := s.ospf.ShortestPaths()

	type candidate struct {
		nextHopIP string
		cost      int
	}
	s.mu.Unlock()
	candidates := map[string]candidate{}
	for dst, p := range paths {
		if len(p.Nodes) < 2 {
			continue
		}
		nextHopIP, ok := s.resolveNextHop(p.Nodes[1])
		if !ok {
			continue
		}
		for _, subnet := range s.subnetsOf(dst) {
			if _, exists := candidates[subnet]; !exists {
				candidates[subnet] = candidate{nextHopIP: nextHopIP, cost: p.Cost}
			}
		}
	}
	s.mu.Lock()

	s.ospf.ClearRoutes()
	for subnet, c := range candidates {
		s.ospf.InstallRouteIfAbsent(subnet, c.nextHopIP, c.cost)
	}
	s.routes.RemoveProvenance(routing.OSPF)
	for subnet, route := range s.ospf.Routes() {
		s.routes.InstallIfAbsent(subnet, route.NextHopIP, routing.OSPF)
	}
}

// resolveNextHop implements spec.md §4.6: the next-hop IP toward neighbor
// router N is the IP of N's L3 interface on the link back to self,
// discovered either via a port-scoped interface pair or a shared VLAN.
//
// Unlike the other OSPF helpers in this file, this one deliberately does
// NOT assume s.mu is held: it takes its own brief read lock only long
// enough to inspect local interfaces, then releases it before calling into
// the peer (whose l3IPOnPortLinkingTo/l3IPOnVLAN take the peer's own
// lock) — so it never holds a lock on this switch while waiting on the
// peer's.
func (s *Switch) resolveNextHop(neighborName string) (string, bool) {
	peer, ok := s.registry.Lookup(neighborName)
	if !ok {
		return "", false
	}

	hasPortLink := false
	var vlanCandidates []int

	s.mu.RLock()
	for _, name := range s.l3Order {
		iface := s.l3[name]
		if iface.PortID != 0 {
			if port := s.ports[iface.PortID]; port != nil && port.LinkedPeer == neighborName {
				hasPortLink = true
			}
			continue
		}
		if iface.VLANID == 0 {
			continue
		}
		vlan, ok := s.vlans.Get(iface.VLANID)
		if !ok {
			continue
		}
		for _, portID := range vlan.SortedPorts() {
			if port := s.ports[portID]; port != nil && port.LinkedPeer == neighborName {
				vlanCandidates = append(vlanCandidates, iface.VLANID)
				break
			}
		}
	}
	s.mu.RUnlock()

	if hasPortLink {
		if ip, ok := peer.l3IPOnPortLinkingTo(s.Name); ok {
			return ip, true
		}
	}
	for _, vlanID := range vlanCandidates {
		if ip, ok := peer.l3IPOnVLAN(vlanID); ok {
			return ip, true
		}
	}

	return "", false
}

// subnetsOf looks up router R's connected subnets through the registry.
// This twin keeps a single process-wide address space, so reading another
// switch's originated subnets is a snapshot read guarded by its own
// RWMutex — not a wire exchange — matching spec.md's "Twin" fidelity bar
// (§GLOSSARY). It never touches s.mu, so — like resolveNextHop — it is
// safe to call only while this switch's own lock is NOT held.
func (s *Switch) subnetsOf(router string) []string {
	peer, ok := s.registry.Lookup(router)
	if !ok {
		return nil
	}
	return peer.connectedSubnetsSnapshot()
}

// l3IPOnPortLinkingTo returns the IP of this switch's port-scoped L3
// interface whose port links back to peerName.
func (s *Switch) l3IPOnPortLinkingTo(peerName string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, name := range s.l3Order {
		iface := s.l3[name]
		if iface.PortID == 0 {
			continue
		}
		port := s.ports[iface.PortID]
		if port != nil && port.LinkedPeer == peerName {
			return hostOf(iface.CIDR), true
		}
	}
	return "", false
}

// l3IPOnVLAN returns the IP of this switch's L3 interface bound to vlanID.
func (s *Switch) l3IPOnVLAN(vlanID int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, name := range s.l3Order {
		iface := s.l3[name]
		if iface.VLANID == vlanID {
			return hostOf(iface.CIDR), true
		}
	}
	return "", false
}

// connectedSubnetsSnapshot returns this switch's currently originated
// subnets, as last computed by RunOSPF.
func (s *Switch) connectedSubnetsSnapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ospf.ConnectedSubnets()
}
