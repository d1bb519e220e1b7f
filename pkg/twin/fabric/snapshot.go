package fabric

import (
	"sort"

	"github.com/newtron-network/swtwin/pkg/twin/mactable"
	"github.com/newtron-network/swtwin/pkg/twin/model"
	"github.com/newtron-network/swtwin/pkg/twin/ospf"
	"github.com/newtron-network/swtwin/pkg/twin/routing"
)

// PortSnapshot is a read-only copy of one port's externally observable
// state, safe to hand to a Telnet `show` handler running on its own
// goroutine.
type PortSnapshot struct {
	ID           int
	LinkedPeer   string
	LinkedPort   int
	Status       string
	Mode         string
	AccessVLAN   int
	NativeVLAN   int
	AllowedVLANs []int
	SpeedMbps    int
	MVRPEnabled  bool
}

// VLANSnapshot is a read-only copy of one VLAN.
type VLANSnapshot struct {
	ID    int
	Name  string
	Ports []int
}

// SwitchSnapshot is a read-only copy of a switch's system-level state and
// all ports, for `show system` and `show interfaces`.
type SwitchSnapshot struct {
	Name       string
	SystemName string
	Timezone   string
	Contact    string
	Ports      []PortSnapshot
}

// Snapshot returns this switch's system state and all ports. Guarded by
// the switch's RWMutex: the actor goroutine is the sole writer, and any
// number of Telnet sessions may call this concurrently.
func (s *Switch) Snapshot() SwitchSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ports := make([]PortSnapshot, NumPorts)
	for i := 1; i <= NumPorts; i++ {
		ports[i-1] = snapshotPort(s.ports[i])
	}
	return SwitchSnapshot{
		Name:       s.Name,
		SystemName: s.systemName,
		Timezone:   s.timezone,
		Contact:    s.contact,
		Ports:      ports,
	}
}

func snapshotPort(p *model.Port) PortSnapshot {
	if p == nil {
		return PortSnapshot{}
	}
	allowed := make([]int, 0, len(p.AllowedVLANs))
	for v := range p.AllowedVLANs {
		allowed = append(allowed, v)
	}
	sort.Ints(allowed)
	return PortSnapshot{
		ID:           p.ID,
		LinkedPeer:   p.LinkedPeer,
		LinkedPort:   p.LinkedPort,
		Status:       p.Status,
		Mode:         p.Mode,
		AccessVLAN:   p.AccessVLAN,
		NativeVLAN:   p.NativeVLAN,
		AllowedVLANs: allowed,
		SpeedMbps:    p.SpeedMbps,
		MVRPEnabled:  p.MVRPEnabled,
	}
}

// SnapshotPort returns a single port's state, for `interface <port>`.
func (s *Switch) SnapshotPort(portID int) (PortSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if portID < 1 || portID > NumPorts || s.ports[portID] == nil {
		return PortSnapshot{}, false
	}
	return snapshotPort(s.ports[portID]), true
}

// SnapshotVLANs returns every VLAN in ascending id order, for `show vlan`.
func (s *Switch) SnapshotVLANs() []VLANSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.vlans.SortedIDs()
	out := make([]VLANSnapshot, 0, len(ids))
	for _, id := range ids {
		v, _ := s.vlans.Get(id)
		out = append(out, VLANSnapshot{ID: v.ID, Name: v.Name, Ports: v.SortedPorts()})
	}
	return out
}

// SnapshotL3Interfaces returns all L3 interfaces in creation order, for
// `show l3 interfaces`.
func (s *Switch) SnapshotL3Interfaces() []model.L3Interface {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.L3Interface, 0, len(s.l3Order))
	for _, name := range s.l3Order {
		out = append(out, *s.l3[name])
	}
	return out
}

// SnapshotRoutes returns all routing table entries, for `show ip route`.
func (s *Switch) SnapshotRoutes() []routing.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routes.All()
}

// SnapshotMACTable returns the mac->port table, for `show mac-address-table`.
func (s *Switch) SnapshotMACTable() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.macArp.AllMAC()
}

// SnapshotARPTable returns the ip->(mac,port) table, for `show arp`.
func (s *Switch) SnapshotARPTable() map[string]mactable.ArpEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.macArp.AllARP()
}

// SnapshotOSPFLSDB returns the link-state database, for `show ospf database`.
func (s *Switch) SnapshotOSPFLSDB() map[string]map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ospf.LSDB()
}

// SnapshotOSPFRoutes returns the OSPF-derived route table, for `show ospf
// routes`.
func (s *Switch) SnapshotOSPFRoutes() map[string]ospf.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ospf.Routes()
}
