package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/newtron-network/swtwin/pkg/twin/fabric"
	"github.com/newtron-network/swtwin/pkg/twin/util"
)

// Session holds the state a single Telnet (or local) CLI session needs:
// which switch it is attached to and the fabric's registry. `show
// topology` renders from the switch's own port snapshot and does not
// consult the registry.
type Session struct {
	Switch   *fabric.Switch
	Registry *fabric.Registry
}

// Execute parses and runs one line of input against the switch CLI
// grammar (spec.md §6), writing rendered output to w with "\r\n" line
// endings. Returns true if the session should close (exit/quit/logout).
func (sess *Session) Execute(line string, w io.Writer) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "exit", "quit", "logout":
		fmt.Fprint(w, "Goodbye.\r\n")
		return true
	case "help":
		sess.help(w)
	case "set":
		sess.cmdSet(fields[1:], w)
	case "vlan":
		sess.cmdVLAN(fields[1:], w)
	case "no":
		sess.cmdNo(fields[1:], w)
	case "ip":
		sess.cmdIP(fields[1:], w)
	case "interface":
		sess.cmdInterface(fields[1:], w)
	case "show":
		sess.cmdShow(fields[1:], w)
	case "ping":
		sess.cmdPing(fields[1:], w)
	case "ospf":
		sess.cmdOSPF(fields[1:], w)
	case "mvrp":
		sess.cmdMVRP(fields[1:], w)
	default:
		fmt.Fprintf(w, "Unknown command: %s\r\n", line)
	}
	return false
}

func (sess *Session) help(w io.Writer) {
	fmt.Fprint(w, "Commands:\r\n")
	lines := []string{
		"set system name <name> | set timezone <tz> | set contact <s>",
		"vlan <spec> [name <n>]   no vlan <id>",
		"ip static-route <cidr> gateway <ip>   no ip static-route <cidr>",
		"interface <port>",
		"show vlan | show mac-address-table | show arp | show ip route",
		"show interfaces | show system | show l3 interfaces | show topology",
		"show ospf routes | show ospf database | show mvrp",
		"ping <ip> [count <n>] [timeout <seconds>]",
		"ospf run   mvrp run",
		"help   exit|quit|logout",
	}
	for _, l := range lines {
		fmt.Fprintf(w, "  %s\r\n", l)
	}
}

func (sess *Session) cmdSet(args []string, w io.Writer) {
	if len(args) < 2 {
		fmt.Fprint(w, "usage: set system name <name> | set timezone <tz> | set contact <s>\r\n")
		return
	}
	switch args[0] {
	case "system":
		if len(args) < 3 || args[1] != "name" {
			fmt.Fprint(w, "usage: set system name <name>\r\n")
			return
		}
		sess.Switch.SetSystemName(strings.Join(args[2:], " "))
		fmt.Fprint(w, "OK\r\n")
	case "timezone":
		sess.Switch.SetTimezone(strings.Join(args[1:], " "))
		fmt.Fprint(w, "OK\r\n")
	case "contact":
		sess.Switch.SetContact(strings.Join(args[1:], " "))
		fmt.Fprint(w, "OK\r\n")
	default:
		fmt.Fprint(w, "usage: set system name <name> | set timezone <tz> | set contact <s>\r\n")
	}
}

func (sess *Session) cmdVLAN(args []string, w io.Writer) {
	if len(args) < 1 {
		fmt.Fprint(w, "usage: vlan <spec> [name <n>]\r\n")
		return
	}
	ids, err := util.ExpandVLANRange(args[0])
	if err != nil {
		fmt.Fprintf(w, "%s\r\n", err)
		return
	}
	name := ""
	if len(args) >= 3 && args[1] == "name" {
		name = strings.Join(args[2:], " ")
	}
	for _, id := range ids {
		if err := sess.Switch.CreateVLAN(id, name); err != nil {
			fmt.Fprintf(w, "%s\r\n", err)
			return
		}
	}
	fmt.Fprint(w, "OK\r\n")
}

func (sess *Session) cmdNo(args []string, w io.Writer) {
	if len(args) == 0 {
		fmt.Fprint(w, "usage: no vlan <id> | no ip static-route <cidr>\r\n")
		return
	}
	switch args[0] {
	case "vlan":
		if len(args) < 2 {
			fmt.Fprint(w, "usage: no vlan <id>\r\n")
			return
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(w, "invalid VLAN id: %s\r\n", args[1])
			return
		}
		if err := sess.Switch.DeleteVLAN(id); err != nil {
			fmt.Fprintf(w, "%s\r\n", err)
			return
		}
		fmt.Fprint(w, "OK\r\n")
	case "ip":
		if len(args) < 3 || args[1] != "static-route" {
			fmt.Fprint(w, "usage: no ip static-route <cidr>\r\n")
			return
		}
		if err := sess.Switch.RemoveStaticRoute(args[2]); err != nil {
			fmt.Fprintf(w, "%s\r\n", err)
			return
		}
		fmt.Fprint(w, "OK\r\n")
	default:
		fmt.Fprint(w, "usage: no vlan <id> | no ip static-route <cidr>\r\n")
	}
}

func (sess *Session) cmdIP(args []string, w io.Writer) {
	if len(args) < 4 || args[0] != "static-route" || args[2] != "gateway" {
		fmt.Fprint(w, "usage: ip static-route <cidr> gateway <ip>\r\n")
		return
	}
	if err := sess.Switch.AddStaticRoute(args[1], args[3]); err != nil {
		fmt.Fprintf(w, "%s\r\n", err)
		return
	}
	fmt.Fprint(w, "OK\r\n")
}

func (sess *Session) cmdInterface(args []string, w io.Writer) {
	if len(args) < 1 {
		fmt.Fprint(w, "usage: interface <port>\r\n")
		return
	}
	portID, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(w, "invalid port: %s\r\n", args[0])
		return
	}
	port, ok := sess.Switch.SnapshotPort(portID)
	if !ok {
		fmt.Fprintf(w, "no such port: %d\r\n", portID)
		return
	}
	t := NewTable("Field", "Value")
	t.Row("id", strconv.Itoa(port.ID))
	t.Row("status", port.Status)
	t.Row("mode", port.Mode)
	t.Row("linked peer", port.LinkedPeer)
	t.Row("access vlan", strconv.Itoa(port.AccessVLAN))
	t.Row("native vlan", strconv.Itoa(port.NativeVLAN))
	t.Row("speed mbps", strconv.Itoa(port.SpeedMbps))
	t.Row("mvrp", strconv.FormatBool(port.MVRPEnabled))
	t.FlushTo(w)
}

func (sess *Session) cmdPing(args []string, w io.Writer) {
	if len(args) < 1 {
		fmt.Fprint(w, "usage: ping <ip> [count <n>] [timeout <seconds>]\r\n")
		return
	}
	dstIP := args[0]
	count := 4
	timeout := 2 * time.Second
	for i := 1; i+1 < len(args); i += 2 {
		switch args[i] {
		case "count":
			if n, err := strconv.Atoi(args[i+1]); err == nil {
				count = n
			}
		case "timeout":
			if n, err := strconv.Atoi(args[i+1]); err == nil {
				timeout = time.Duration(n) * time.Second
			}
		}
	}

	result, err := sess.Switch.Ping(dstIP, count, timeout)
	if err != nil {
		fmt.Fprintf(w, "%s\r\n", err)
		return
	}
	for _, a := range result.Attempts {
		if a.TimedOut {
			fmt.Fprint(w, "Request timed out\r\n")
		} else {
			fmt.Fprintf(w, "Reply from %s: seq=%d time=%s\r\n", dstIP, a.Seq, a.RTT)
		}
	}
	fmt.Fprintf(w, "%s\r\n", result)
}

func (sess *Session) cmdShow(args []string, w io.Writer) {
	if len(args) == 0 {
		fmt.Fprint(w, "usage: show <vlan|mac-address-table|arp|ip route|interfaces|system|l3 interfaces|topology|ospf routes|ospf database|mvrp>\r\n")
		return
	}
	switch args[0] {
	case "vlan":
		sess.showVLAN(w)
	case "mac-address-table":
		sess.showMAC(w)
	case "arp":
		sess.showARP(w)
	case "interfaces":
		sess.showInterfaces(w)
	case "system":
		sess.showSystem(w)
	case "topology":
		sess.showTopology(w)
	case "mvrp":
		sess.showMVRP(w)
	case "ip":
		if len(args) >= 2 && args[1] == "route" {
			sess.showRoutes(w)
			return
		}
		fmt.Fprint(w, "usage: show ip route\r\n")
	case "l3":
		if len(args) >= 2 && args[1] == "interfaces" {
			sess.showL3Interfaces(w)
			return
		}
		fmt.Fprint(w, "usage: show l3 interfaces\r\n")
	case "ospf":
		if len(args) >= 2 && args[1] == "routes" {
			sess.showOSPFRoutes(w)
			return
		}
		if len(args) >= 2 && args[1] == "database" {
			sess.showOSPFDatabase(w)
			return
		}
		fmt.Fprint(w, "usage: show ospf routes | show ospf database\r\n")
	default:
		fmt.Fprintf(w, "Unknown command: show %s\r\n", strings.Join(args, " "))
	}
}

func (sess *Session) showVLAN(w io.Writer) {
	t := NewTable("VLAN", "Name", "Ports")
	for _, v := range sess.Switch.SnapshotVLANs() {
		ports := make([]string, len(v.Ports))
		for i, p := range v.Ports {
			ports[i] = strconv.Itoa(p)
		}
		t.Row(strconv.Itoa(v.ID), v.Name, strings.Join(ports, ","))
	}
	t.FlushTo(w)
}

func (sess *Session) showMAC(w io.Writer) {
	t := NewTable("MAC", "Port")
	for mac, port := range sess.Switch.SnapshotMACTable() {
		t.Row(mac, strconv.Itoa(port))
	}
	t.FlushTo(w)
}

func (sess *Session) showARP(w io.Writer) {
	t := NewTable("IP", "MAC", "Port")
	for ip, entry := range sess.Switch.SnapshotARPTable() {
		port := strconv.Itoa(entry.PortID)
		if entry.PortID < 0 {
			port = "local"
		}
		t.Row(ip, entry.MAC, port)
	}
	t.FlushTo(w)
}

func (sess *Session) showRoutes(w io.Writer) {
	t := NewTable("Network", "Next-Hop", "Provenance")
	for _, r := range sess.Switch.SnapshotRoutes() {
		t.Row(r.Network, r.NextHop, r.Provenance.String())
	}
	t.FlushTo(w)
}

func (sess *Session) showInterfaces(w io.Writer) {
	t := NewTable("Port", "Status", "Mode", "Peer", "Speed")
	for _, p := range sess.Switch.Snapshot().Ports {
		t.Row(strconv.Itoa(p.ID), p.Status, p.Mode, p.LinkedPeer, strconv.Itoa(p.SpeedMbps))
	}
	t.FlushTo(w)
}

func (sess *Session) showSystem(w io.Writer) {
	snap := sess.Switch.Snapshot()
	t := NewTable("Field", "Value")
	t.Row("name", snap.SystemName)
	t.Row("timezone", snap.Timezone)
	t.Row("contact", snap.Contact)
	t.FlushTo(w)
}

func (sess *Session) showL3Interfaces(w io.Writer) {
	t := NewTable("Name", "CIDR", "MAC")
	for _, iface := range sess.Switch.SnapshotL3Interfaces() {
		t.Row(iface.Name, iface.CIDR, iface.MAC)
	}
	t.FlushTo(w)
}

func (sess *Session) showTopology(w io.Writer) {
	t := NewTable("Port", "Peer", "Peer Port", "Status")
	for _, p := range sess.Switch.Snapshot().Ports {
		if p.LinkedPeer == "" {
			continue
		}
		t.Row(strconv.Itoa(p.ID), p.LinkedPeer, strconv.Itoa(p.LinkedPort), p.Status)
	}
	t.FlushTo(w)
}

func (sess *Session) showOSPFRoutes(w io.Writer) {
	t := NewTable("Subnet", "Next-Hop", "Cost")
	for subnet, r := range sess.Switch.SnapshotOSPFRoutes() {
		t.Row(subnet, r.NextHopIP, strconv.Itoa(r.Cost))
	}
	t.FlushTo(w)
}

func (sess *Session) showOSPFDatabase(w io.Writer) {
	t := NewTable("Router", "Neighbor", "Cost")
	for router, links := range sess.Switch.SnapshotOSPFLSDB() {
		for neighbor, cost := range links {
			t.Row(router, neighbor, strconv.Itoa(cost))
		}
	}
	t.FlushTo(w)
}

func (sess *Session) showMVRP(w io.Writer) {
	t := NewTable("Port", "MVRP", "Allowed VLANs")
	for _, p := range sess.Switch.Snapshot().Ports {
		if !p.MVRPEnabled {
			continue
		}
		vlans := make([]string, len(p.AllowedVLANs))
		for i, v := range p.AllowedVLANs {
			vlans[i] = strconv.Itoa(v)
		}
		t.Row(strconv.Itoa(p.ID), "enabled", strings.Join(vlans, ","))
	}
	t.FlushTo(w)
}

func (sess *Session) cmdOSPF(args []string, w io.Writer) {
	if len(args) == 1 && args[0] == "run" {
		sess.Switch.RunOSPF()
		fmt.Fprint(w, "OK\r\n")
		return
	}
	fmt.Fprint(w, "usage: ospf run\r\n")
}

func (sess *Session) cmdMVRP(args []string, w io.Writer) {
	if len(args) == 1 && args[0] == "run" {
		sess.Switch.RunMVRP()
		fmt.Fprint(w, "OK\r\n")
		return
	}
	fmt.Fprint(w, "usage: mvrp run\r\n")
}
