package model

import (
	"sort"
	"strconv"
)

// VLAN is a broadcast domain local to one switch.
type VLAN struct {
	ID      int
	Name    string
	Members map[int]bool // port ids
}

// NewVLAN creates a VLAN, defaulting its name to "VLAN<id>".
func NewVLAN(id int, name string) *VLAN {
	if name == "" {
		name = defaultVLANName(id)
	}
	return &VLAN{ID: id, Name: name, Members: map[int]bool{}}
}

func defaultVLANName(id int) string {
	return "VLAN" + strconv.Itoa(id)
}

// SortedPorts returns the VLAN's member ports in ascending order.
func (v *VLAN) SortedPorts() []int {
	ports := make([]int, 0, len(v.Members))
	for p := range v.Members {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}

// VLANManager owns the VLAN table for one switch.
type VLANManager struct {
	vlans map[int]*VLAN
}

// NewVLANManager returns an empty VLAN manager.
func NewVLANManager() *VLANManager {
	return &VLANManager{vlans: map[int]*VLAN{}}
}

// Create adds a VLAN if it does not already exist; a no-op otherwise.
func (m *VLANManager) Create(id int, name string) *VLAN {
	if v, ok := m.vlans[id]; ok {
		return v
	}
	v := NewVLAN(id, name)
	m.vlans[id] = v
	return v
}

// Rename changes a VLAN's name, if it exists.
func (m *VLANManager) Rename(id int, name string) bool {
	v, ok := m.vlans[id]
	if !ok {
		return false
	}
	v.Name = name
	return true
}

// Delete removes a VLAN. Per spec.md §4.2, any L3Interface that referenced
// it is left in place — the interface becomes unreachable, but forwarding
// fails naturally rather than cascading the delete.
func (m *VLANManager) Delete(id int) bool {
	if _, ok := m.vlans[id]; !ok {
		return false
	}
	delete(m.vlans, id)
	return true
}

// Get returns a VLAN by id.
func (m *VLANManager) Get(id int) (*VLAN, bool) {
	v, ok := m.vlans[id]
	return v, ok
}

// AssignPort adds port to vlan, creating the membership if the VLAN exists.
func (m *VLANManager) AssignPort(id, portID int) bool {
	v, ok := m.vlans[id]
	if !ok {
		return false
	}
	if v.Members == nil {
		v.Members = map[int]bool{}
	}
	v.Members[portID] = true
	return true
}

// RemovePort removes port's membership from vlan.
func (m *VLANManager) RemovePort(id, portID int) bool {
	v, ok := m.vlans[id]
	if !ok {
		return false
	}
	delete(v.Members, portID)
	return true
}

// SortedIDs returns all VLAN ids in ascending order (used by `show vlan`).
func (m *VLANManager) SortedIDs() []int {
	ids := make([]int, 0, len(m.vlans))
	for id := range m.vlans {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// All returns the underlying VLAN map; callers must not mutate it directly.
func (m *VLANManager) All() map[int]*VLAN {
	return m.vlans
}
