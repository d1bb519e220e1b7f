package cli

import (
	"strings"
	"testing"

	"github.com/newtron-network/swtwin/pkg/twin/fabric"
)

func newSession(t *testing.T) (*Session, *fabric.Registry) {
	t.Helper()
	reg := fabric.NewRegistry()
	sw, err := reg.Add("sw1")
	if err != nil {
		t.Fatalf("add sw1: %v", err)
	}
	return &Session{Switch: sw, Registry: reg}, reg
}

func run(sess *Session, line string) string {
	var b strings.Builder
	sess.Execute(line, &b)
	return b.String()
}

func TestExecuteExitVariants(t *testing.T) {
	sess, _ := newSession(t)
	for _, cmd := range []string{"exit", "quit", "logout"} {
		var b strings.Builder
		closed := sess.Execute(cmd, &b)
		if !closed {
			t.Errorf("Execute(%q) returned false, want the session to close", cmd)
		}
		if !strings.Contains(b.String(), "Goodbye") {
			t.Errorf("Execute(%q) output = %q, want a goodbye message", cmd, b.String())
		}
	}
}

func TestExecuteBlankLineIsNoop(t *testing.T) {
	sess, _ := newSession(t)
	var b strings.Builder
	closed := sess.Execute("   ", &b)
	if closed {
		t.Error("blank line closed the session")
	}
	if b.String() != "" {
		t.Errorf("blank line produced output: %q", b.String())
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	sess, _ := newSession(t)
	out := run(sess, "frobnicate")
	if !strings.Contains(out, "Unknown command") {
		t.Errorf("output = %q, want an unknown command message", out)
	}
}

func TestSetSystemName(t *testing.T) {
	sess, _ := newSession(t)
	out := run(sess, "set system name core-sw1")
	if !strings.Contains(out, "OK") {
		t.Fatalf("set system name output = %q", out)
	}
	snapOut := run(sess, "show system")
	if !strings.Contains(snapOut, "core-sw1") {
		t.Errorf("show system = %q, want the configured name", snapOut)
	}
}

func TestVLANCreateAndDelete(t *testing.T) {
	sess, _ := newSession(t)
	if out := run(sess, "vlan 10 name Engineering"); !strings.Contains(out, "OK") {
		t.Fatalf("vlan create output = %q", out)
	}
	show := run(sess, "show vlan")
	if !strings.Contains(show, "10") || !strings.Contains(show, "Engineering") {
		t.Fatalf("show vlan = %q, want VLAN 10/Engineering", show)
	}

	if out := run(sess, "no vlan 10"); !strings.Contains(out, "OK") {
		t.Fatalf("no vlan output = %q", out)
	}
	show = run(sess, "show vlan")
	if strings.Contains(show, "Engineering") {
		t.Fatalf("show vlan = %q, want VLAN 10 removed", show)
	}
}

func TestVLANRangeExpansion(t *testing.T) {
	sess, _ := newSession(t)
	out := run(sess, "vlan 10-12")
	if !strings.Contains(out, "OK") {
		t.Fatalf("vlan range output = %q", out)
	}
	show := run(sess, "show vlan")
	for _, id := range []string{"10", "11", "12"} {
		if !strings.Contains(show, id) {
			t.Errorf("show vlan = %q, missing VLAN %s", show, id)
		}
	}
}

func TestNoVLANInvalidID(t *testing.T) {
	sess, _ := newSession(t)
	out := run(sess, "no vlan abc")
	if !strings.Contains(out, "invalid VLAN id") {
		t.Errorf("output = %q, want an invalid id error", out)
	}
}

func TestStaticRouteAddAndRemove(t *testing.T) {
	sess, _ := newSession(t)
	if err := sess.Switch.AssignL3InterfaceToPort(1, "10.0.0.1/30", "aa:bb:cc:00:00:01"); err != nil {
		t.Fatal(err)
	}
	out := run(sess, "ip static-route 192.168.1.0/24 gateway 10.0.0.2")
	if !strings.Contains(out, "OK") {
		t.Fatalf("ip static-route output = %q", out)
	}
	show := run(sess, "show ip route")
	if !strings.Contains(show, "192.168.1.0/24") {
		t.Fatalf("show ip route = %q, want the static route", show)
	}

	out = run(sess, "no ip static-route 192.168.1.0/24")
	if !strings.Contains(out, "OK") {
		t.Fatalf("no ip static-route output = %q", out)
	}
	show = run(sess, "show ip route")
	if strings.Contains(show, "192.168.1.0/24") {
		t.Fatalf("show ip route = %q, want the static route removed", show)
	}
}

func TestInterfaceShowsPortFields(t *testing.T) {
	sess, _ := newSession(t)
	out := run(sess, "interface 1")
	if !strings.Contains(out, "status") || !strings.Contains(out, "mode") {
		t.Errorf("interface output = %q, want port fields", out)
	}
}

func TestInterfaceUnknownPort(t *testing.T) {
	sess, _ := newSession(t)
	out := run(sess, "interface 999")
	if !strings.Contains(out, "no such port") {
		t.Errorf("output = %q, want a no-such-port error", out)
	}
}

func TestInterfaceInvalidPortID(t *testing.T) {
	sess, _ := newSession(t)
	out := run(sess, "interface abc")
	if !strings.Contains(out, "invalid port") {
		t.Errorf("output = %q, want an invalid port error", out)
	}
}

func TestOSPFAndMVRPRunSubcommands(t *testing.T) {
	sess, _ := newSession(t)
	if out := run(sess, "ospf run"); !strings.Contains(out, "OK") {
		t.Errorf("ospf run output = %q", out)
	}
	if out := run(sess, "mvrp run"); !strings.Contains(out, "OK") {
		t.Errorf("mvrp run output = %q", out)
	}
	if out := run(sess, "ospf bogus"); !strings.Contains(out, "usage") {
		t.Errorf("ospf bogus output = %q, want a usage message", out)
	}
}

func TestShowUnknownSubcommand(t *testing.T) {
	sess, _ := newSession(t)
	out := run(sess, "show nonsense")
	if !strings.Contains(out, "Unknown command") {
		t.Errorf("output = %q, want an unknown command message", out)
	}
}

func TestShowTopologyOnlyListsLinkedPorts(t *testing.T) {
	reg := fabric.NewRegistry()
	sw1, _ := reg.Add("sw1")
	reg.Add("sw2")
	if err := fabric.Link(reg, "sw1", 1, "sw2", 1); err != nil {
		t.Fatal(err)
	}
	sess := &Session{Switch: sw1, Registry: reg}
	out := run(sess, "show topology")
	if !strings.Contains(out, "sw2") {
		t.Fatalf("show topology = %q, want the linked peer sw2", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	if len(lines) != 3 {
		t.Fatalf("show topology = %q, want header, divider and one row for the single linked port", out)
	}
}

func TestHelpListsCommands(t *testing.T) {
	sess, _ := newSession(t)
	out := run(sess, "help")
	if !strings.Contains(out, "Commands:") {
		t.Errorf("help output = %q, want a commands header", out)
	}
}
