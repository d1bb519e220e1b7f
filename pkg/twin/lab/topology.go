package lab

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/swtwin/pkg/twin/model"
	"github.com/newtron-network/swtwin/pkg/twin/util"
)

// TopologyFile is the on-disk shape of lab.yaml: enough to bootstrap a
// full fabric (nodes, links, VLANs, L3 interfaces, static routes, port
// config) without typing it in at the REPL every run. Grounded in the
// teacher's pkg/spec TopologySpecFile/DeviceProfile split, collapsed to
// one file since this twin has no site/region/platform hierarchy to
// separate out.
type TopologyFile struct {
	Nodes []NodeSpec `yaml:"nodes"`
	Links []LinkSpec `yaml:"links"`
}

// NodeSpec describes one switch to create and configure.
type NodeSpec struct {
	Name         string          `yaml:"name"`
	VLANs        []VLANSpec      `yaml:"vlans,omitempty"`
	L3Interfaces []L3Spec        `yaml:"l3_interfaces,omitempty"`
	StaticRoutes []StaticRouteSpec `yaml:"static_routes,omitempty"`
	Ports        []PortSpec      `yaml:"ports,omitempty"`
}

// VLANSpec creates a VLAN and optionally assigns ports to it.
type VLANSpec struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name,omitempty"`
	Ports []int  `yaml:"ports,omitempty"`
}

// L3Spec creates an SVI (vlan set) or routed-port (port set) interface.
type L3Spec struct {
	VLAN int    `yaml:"vlan,omitempty"`
	Port int    `yaml:"port,omitempty"`
	CIDR string `yaml:"cidr"`
	MAC  string `yaml:"mac"`
}

// StaticRouteSpec installs one static route.
type StaticRouteSpec struct {
	CIDR    string `yaml:"cidr"`
	Gateway string `yaml:"gateway"`
}

// PortSpec configures a physical port's mode/speed/MVRP before linking.
type PortSpec struct {
	ID        int    `yaml:"id"`
	Mode      string `yaml:"mode,omitempty"`
	SpeedMbps int    `yaml:"speed_mbps,omitempty"`
	MVRP      bool   `yaml:"mvrp,omitempty"`
}

// LinkSpec wires two switch ports together.
type LinkSpec struct {
	SwitchA string `yaml:"switch_a"`
	PortA   int    `yaml:"port_a"`
	SwitchB string `yaml:"switch_b"`
	PortB   int    `yaml:"port_b"`
}

// LoadTopologyFile reads path, builds every node and link it describes,
// and starts each node's Telnet CLI (spec.md §2: "a full lab.yaml boots
// straight to operator access").
func (sv *Supervisor) LoadTopologyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("lab: read %s: %w", path, err)
	}
	var tf TopologyFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("lab: parse %s: %w", path, err)
	}
	return sv.applyTopology(&tf)
}

func (sv *Supervisor) applyTopology(tf *TopologyFile) error {
	for _, n := range tf.Nodes {
		sw, err := sv.AddNode(n.Name)
		if err != nil {
			return fmt.Errorf("lab: node %s: %w", n.Name, err)
		}
		if err := configureNode(sw, n); err != nil {
			return fmt.Errorf("lab: node %s: %w", n.Name, err)
		}
	}
	for _, l := range tf.Links {
		if err := sv.Link(l.SwitchA, l.PortA, l.SwitchB, l.PortB); err != nil {
			return fmt.Errorf("lab: link %s/%d-%s/%d: %w", l.SwitchA, l.PortA, l.SwitchB, l.PortB, err)
		}
	}
	return sv.StartAllTelnet()
}

func configureNode(sw interface {
	SetPortMode(int, string) error
	SetPortSpeed(int, int) error
	SetPortMVRP(int, bool) error
	CreateVLAN(int, string) error
	AssignPortToVLAN(int, int) error
	CreateVLANInterface(int, string, string) error
	AssignL3InterfaceToPort(int, string, string) error
	AddStaticRoute(string, string) error
}, n NodeSpec) error {
	for _, p := range n.Ports {
		if p.Mode != "" {
			if err := sw.SetPortMode(p.ID, p.Mode); err != nil {
				return err
			}
		}
		if p.SpeedMbps != 0 {
			if err := sw.SetPortSpeed(p.ID, p.SpeedMbps); err != nil {
				return err
			}
		}
		if p.MVRP {
			if err := sw.SetPortMVRP(p.ID, true); err != nil {
				return err
			}
		}
	}
	for _, v := range n.VLANs {
		if err := sw.CreateVLAN(v.ID, v.Name); err != nil {
			return err
		}
		for _, portID := range v.Ports {
			if err := sw.AssignPortToVLAN(v.ID, portID); err != nil {
				return err
			}
		}
	}
	for _, l3 := range n.L3Interfaces {
		var err error
		switch {
		case l3.VLAN != 0:
			err = sw.CreateVLANInterface(l3.VLAN, l3.CIDR, l3.MAC)
		case l3.Port != 0:
			err = sw.AssignL3InterfaceToPort(l3.Port, l3.CIDR, l3.MAC)
		default:
			err = util.NewConfigError("interface", n.Name, "l3 interface needs vlan or port")
		}
		if err != nil {
			return err
		}
	}
	for _, r := range n.StaticRoutes {
		if err := sw.AddStaticRoute(r.CIDR, r.Gateway); err != nil {
			return err
		}
	}
	return nil
}

// SaveTopologyFile serializes the current node/link set to path. VLANs,
// L3 interfaces, and routes are not round-tripped — it records enough to
// rebuild the physical fabric (nodes, links, port config), matching
// spec.md §7's "save-topology" as a wiring snapshot, not a full
// config backup (there's no `show running-config` / config replay
// operation in spec.md to round-trip the rest through).
func (sv *Supervisor) SaveTopologyFile(path string) error {
	tf := TopologyFile{}
	for _, name := range sv.order {
		sw, ok := sv.Registry.Lookup(name)
		if !ok {
			continue
		}
		snap := sw.Snapshot()
		node := NodeSpec{Name: name}
		for _, p := range snap.Ports {
			if p.Mode == model.ModeAccess && p.SpeedMbps == 100 && !p.MVRPEnabled {
				continue
			}
			node.Ports = append(node.Ports, PortSpec{
				ID:        p.ID,
				Mode:      p.Mode,
				SpeedMbps: p.SpeedMbps,
				MVRP:      p.MVRPEnabled,
			})
		}
		tf.Nodes = append(tf.Nodes, node)
	}
	for _, l := range sv.links {
		tf.Links = append(tf.Links, LinkSpec{
			SwitchA: l.SwitchA, PortA: l.PortA,
			SwitchB: l.SwitchB, PortB: l.PortB,
		})
	}

	data, err := yaml.Marshal(&tf)
	if err != nil {
		return fmt.Errorf("lab: marshal topology: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("lab: write %s: %w", path, err)
	}
	return nil
}
