package fabric

import "github.com/newtron-network/swtwin/pkg/twin/model"

// RunMVRP advertises this switch's known VLANs across every up, linked
// trunk port with MVRP enabled; the neighbor auto-admits them into its
// allowed-VLAN set. Supplemented from original_source/ale-omniswitch
// (enable_mvrp_on_port / mvrp_advertise / run_mvrp), which spec.md's
// Non-goals don't mention. Explicit-trigger, like run_ospf — this twin
// has no background scheduler.
func (s *Switch) RunMVRP() {
	s.do(func() {
		vlanIDs := s.vlans.SortedIDs()
		for portID := 1; portID <= NumPorts; portID++ {
			port := s.ports[portID]
			if port == nil || port.Mode != model.ModeTrunk || !port.MVRPEnabled {
				continue
			}
			if !port.IsUp() || !port.IsLinked() {
				continue
			}
			peer, ok := s.registry.Lookup(port.LinkedPeer)
			if !ok {
				continue
			}
			peer.deliverMVRP(port.LinkedPort, vlanIDs)
		}
	})
}

// admitMVRPVLANsLocked is the receiving side of an MVRP advertisement,
// run on the actor goroutine from the mvrpInbox case in run(): if onPort
// is itself a trunk with MVRP enabled, every advertised VLAN is created
// (if unknown) and allowed on that port.
func (s *Switch) admitMVRPVLANsLocked(onPort int, vlanIDs []int) {
	port := s.ports[onPort]
	if port == nil || port.Mode != model.ModeTrunk || !port.MVRPEnabled {
		return
	}
	for _, id := range vlanIDs {
		s.vlans.Create(id, "")
		port.AllowVLAN(id)
	}
}
