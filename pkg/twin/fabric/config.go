package fabric

import (
	"fmt"

	"github.com/newtron-network/swtwin/pkg/twin/mactable"
	"github.com/newtron-network/swtwin/pkg/twin/model"
	"github.com/newtron-network/swtwin/pkg/twin/routing"
	"github.com/newtron-network/swtwin/pkg/twin/util"
)

// SetSystemName sets the switch's display name (spec.md §6 `set system name`).
func (s *Switch) SetSystemName(name string) {
	s.do(func() { s.systemName = name })
}

// SetTimezone sets the switch's configured timezone.
func (s *Switch) SetTimezone(tz string) {
	s.do(func() { s.timezone = tz })
}

// SetContact sets the switch's operator contact string.
func (s *Switch) SetContact(contact string) {
	s.do(func() { s.contact = contact })
}

// CreateVLAN creates (or renames, if it already exists and name != "")
// a VLAN (spec.md §4.2, `vlan <spec> [name <n>]`).
func (s *Switch) CreateVLAN(id int, name string) error {
	if err := util.ValidateVLANID(id); err != nil {
		return util.NewConfigError("vlan", fmt.Sprintf("%d", id), err.Error())
	}
	s.do(func() {
		s.vlans.Create(id, name)
		if name != "" {
			s.vlans.Rename(id, name)
		}
	})
	return nil
}

// DeleteVLAN removes a VLAN. Per spec.md §4.2 and the explicit Open
// Question decision, any L3Interface that referenced it is left in
// place — it becomes unreachable rather than cascading the delete.
func (s *Switch) DeleteVLAN(id int) error {
	var ok bool
	s.do(func() { ok = s.vlans.Delete(id) })
	if !ok {
		return util.NewConfigError("no vlan", fmt.Sprintf("%d", id), "VLAN does not exist")
	}
	return nil
}

// AssignPortToVLAN adds port to the given VLAN's membership, and if the
// port is in access mode, makes it the port's access VLAN.
func (s *Switch) AssignPortToVLAN(vlanID, portID int) error {
	var err error
	s.do(func() {
		if _, ok := s.vlans.Get(vlanID); !ok {
			err = util.NewConfigError("vlan", fmt.Sprintf("%d", vlanID), "VLAN does not exist")
			return
		}
		port := s.portLocked(portID)
		if port == nil {
			err = util.NewConfigError("interface", fmt.Sprintf("%d", portID), "no such port")
			return
		}
		s.vlans.AssignPort(vlanID, portID)
		if port.Mode == model.ModeAccess {
			port.AccessVLAN = vlanID
		} else {
			port.AllowVLAN(vlanID)
		}
	})
	return err
}

// CreateVLANInterface creates an SVI on vlanID with the given CIDR and
// MAC, installing the implicit connected route (spec.md §4.3). The VLAN
// must already exist.
func (s *Switch) CreateVLANInterface(vlanID int, cidr, mac string) error {
	var err error
	s.do(func() {
		if _, ok := s.vlans.Get(vlanID); !ok {
			err = util.NewConfigError("interface vlan", fmt.Sprintf("%d", vlanID), "VLAN not yet created")
			return
		}
		iface := model.NewVLANInterface(vlanID, cidr, mac)
		err = s.installL3InterfaceLocked(iface)
	})
	return err
}

// AssignL3InterfaceToPort creates a routed-port L3 interface.
func (s *Switch) AssignL3InterfaceToPort(portID int, cidr, mac string) error {
	var err error
	s.do(func() {
		if s.portLocked(portID) == nil {
			err = util.NewConfigError("interface port", fmt.Sprintf("%d", portID), "no such port")
			return
		}
		iface := model.NewPortInterface(portID, cidr, mac)
		err = s.installL3InterfaceLocked(iface)
	})
	return err
}

func (s *Switch) installL3InterfaceLocked(iface *model.L3Interface) error {
	if _, exists := s.l3[iface.Name]; exists {
		return util.NewConfigError("interface", iface.Name, "already exists")
	}
	network, err := util.NetworkCIDR(iface.CIDR)
	if err != nil {
		return util.NewConfigError("interface", iface.Name, "malformed CIDR")
	}
	ip := hostOf(iface.CIDR)
	s.l3[iface.Name] = iface
	s.l3Order = append(s.l3Order, iface.Name)
	s.routes.Install(network, ip, routing.Connected)
	s.macArp.Learn(ip, iface.MAC, mactable.LocalPort)
	return nil
}

// AddStaticRoute installs a static route (spec.md §6 `ip static-route`).
func (s *Switch) AddStaticRoute(cidr, gatewayIP string) error {
	network, err := util.NetworkCIDR(cidr)
	if err != nil {
		return util.NewConfigError("ip static-route", cidr, "malformed CIDR")
	}
	s.do(func() {
		s.routes.Install(network, gatewayIP, routing.Static)
	})
	return nil
}

// RemoveStaticRoute removes a previously installed static route.
func (s *Switch) RemoveStaticRoute(cidr string) error {
	network, err := util.NetworkCIDR(cidr)
	if err != nil {
		return util.NewConfigError("no ip static-route", cidr, "malformed CIDR")
	}
	var ok bool
	s.do(func() {
		route, exists := s.routes.Get(network)
		if exists && route.Provenance == routing.Static {
			ok = s.routes.Remove(network)
		}
	})
	if !ok {
		return util.NewConfigError("no ip static-route", cidr, "no static route for that network")
	}
	return nil
}

// SetPortMode sets a port's access/trunk mode.
func (s *Switch) SetPortMode(portID int, mode string) error {
	var err error
	s.do(func() {
		port := s.portLocked(portID)
		if port == nil {
			err = util.NewConfigError("interface", fmt.Sprintf("%d", portID), "no such port")
			return
		}
		port.Mode = mode
		if mode == model.ModeTrunk {
			port.AllowVLAN(port.NativeVLAN)
		}
	})
	return err
}

// SetPortSpeed sets a port's link speed in Mbps, which feeds the OSPF
// cost metric (spec.md §4.5).
func (s *Switch) SetPortSpeed(portID, speedMbps int) error {
	var err error
	s.do(func() {
		port := s.portLocked(portID)
		if port == nil {
			err = util.NewConfigError("interface", fmt.Sprintf("%d", portID), "no such port")
			return
		}
		port.SpeedMbps = speedMbps
	})
	return err
}

// SetPortMVRP enables or disables MVRP on a trunk port.
func (s *Switch) SetPortMVRP(portID int, enabled bool) error {
	var err error
	s.do(func() {
		port := s.portLocked(portID)
		if port == nil {
			err = util.NewConfigError("interface", fmt.Sprintf("%d", portID), "no such port")
			return
		}
		port.MVRPEnabled = enabled
	})
	return err
}

func (s *Switch) portLocked(portID int) *model.Port {
	if portID < 1 || portID > NumPorts {
		return nil
	}
	return s.ports[portID]
}

// Link brings up the (swA,portA)<->(swB,portB) adjacency. No link is
// valid if either port is already linked (spec.md §4.1).
func Link(registry *Registry, swA string, portA int, swB string, portB int) error {
	a, ok := registry.Lookup(swA)
	if !ok {
		return util.NewConfigError("link", swA, "no such switch")
	}
	b, ok := registry.Lookup(swB)
	if !ok {
		return util.NewConfigError("link", swB, "no such switch")
	}

	if err := a.tryLink(portA, swB, portB); err != nil {
		return err
	}
	if err := b.tryLink(portB, swA, portA); err != nil {
		a.unlink(portA)
		return err
	}
	return nil
}

// Unlink tears down the adjacency anchored at (swName, portID).
func Unlink(registry *Registry, swName string, portID int) error {
	sw, ok := registry.Lookup(swName)
	if !ok {
		return util.NewConfigError("no link", swName, "no such switch")
	}
	port, ok := sw.SnapshotPort(portID)
	if !ok {
		return util.NewConfigError("no link", fmt.Sprintf("%d", portID), "no such port")
	}
	if port.LinkedPeer != "" {
		if peer, ok := registry.Lookup(port.LinkedPeer); ok {
			peer.unlink(port.LinkedPort)
		}
	}
	sw.unlink(portID)
	return nil
}

func (s *Switch) tryLink(portID int, peerName string, peerPort int) error {
	var err error
	s.do(func() {
		port := s.portLocked(portID)
		if port == nil {
			err = util.NewConfigError("link", fmt.Sprintf("%d", portID), "no such port")
			return
		}
		if port.IsLinked() {
			err = util.ErrPortLinked
			return
		}
		port.Link(peerName, peerPort)
	})
	return err
}

func (s *Switch) unlink(portID int) {
	s.do(func() {
		port := s.portLocked(portID)
		if port != nil {
			port.Unlink()
		}
	})
}
