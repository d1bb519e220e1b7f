// Package model defines the switch twin's data types: ports, VLANs, L3
// interfaces, and packets.
package model

// Port modes.
const (
	ModeAccess = "access"
	ModeTrunk  = "trunk"
)

// Port status.
const (
	StatusUp   = "up"
	StatusDown = "down"
)

// Port represents one physical port on a Switch. A port's externally
// observable fields are Status, LinkedPeer, Mode, and SpeedMbps.
type Port struct {
	ID           int
	LinkedPeer   string // peer switch name, empty if unlinked
	LinkedPort   int    // peer port id, 0 if unlinked
	Status       string
	Mode         string
	AccessVLAN   int
	NativeVLAN   int
	AllowedVLANs map[int]bool
	SpeedMbps    int
	MVRPEnabled  bool
}

// NewPort returns a port with the defaults from spec.md §4.1: access mode,
// VLAN 1, 100 Mbps, down.
func NewPort(id int) *Port {
	return &Port{
		ID:           id,
		Status:       StatusDown,
		Mode:         ModeAccess,
		AccessVLAN:   1,
		NativeVLAN:   1,
		AllowedVLANs: map[int]bool{1: true},
		SpeedMbps:    100,
	}
}

// IsLinked reports whether the port has a peer.
func (p *Port) IsLinked() bool {
	return p.LinkedPeer != ""
}

// IsUp reports whether the port is administratively/operationally up.
func (p *Port) IsUp() bool {
	return p.Status == StatusUp
}

// Link marks the port as linked to (peerName, peerPort) and brings it up.
func (p *Port) Link(peerName string, peerPort int) {
	p.LinkedPeer = peerName
	p.LinkedPort = peerPort
	p.Status = StatusUp
}

// Unlink clears the peer and brings the port down.
func (p *Port) Unlink() {
	p.LinkedPeer = ""
	p.LinkedPort = 0
	p.Status = StatusDown
}

// AllowsVLAN reports whether vlan is permitted on a trunk port.
func (p *Port) AllowsVLAN(vlan int) bool {
	return p.AllowedVLANs != nil && p.AllowedVLANs[vlan]
}

// AllowVLAN admits vlan onto a trunk port.
func (p *Port) AllowVLAN(vlan int) {
	if p.AllowedVLANs == nil {
		p.AllowedVLANs = map[int]bool{}
	}
	p.AllowedVLANs[vlan] = true
}
