package lab

import (
	"strings"
	"testing"
)

func TestNewSupervisorDefaultsTelnetBase(t *testing.T) {
	sv := NewSupervisor(0)
	if sv.TelnetBase != DefaultTelnetBase {
		t.Errorf("TelnetBase = %d, want %d", sv.TelnetBase, DefaultTelnetBase)
	}
	sv2 := NewSupervisor(5000)
	if sv2.TelnetBase != 5000 {
		t.Errorf("TelnetBase = %d, want 5000", sv2.TelnetBase)
	}
}

func TestAddNodeRejectsDuplicateName(t *testing.T) {
	sv := NewSupervisor(0)
	if _, err := sv.AddNode("sw1"); err != nil {
		t.Fatal(err)
	}
	if _, err := sv.AddNode("sw1"); err == nil {
		t.Fatal("AddNode allowed a duplicate name")
	}
}

func TestNamesReflectsAddOrder(t *testing.T) {
	sv := NewSupervisor(0)
	sv.AddNode("sw2")
	sv.AddNode("sw1")
	names := sv.Names()
	if len(names) != 2 || names[0] != "sw2" || names[1] != "sw1" {
		t.Fatalf("Names() = %v, want add order [sw2 sw1]", names)
	}
}

func TestLinkRecordsTopologyForSave(t *testing.T) {
	sv := NewSupervisor(0)
	sv.AddNode("sw1")
	sv.AddNode("sw2")
	if err := sv.Link("sw1", 1, "sw2", 1); err != nil {
		t.Fatal(err)
	}
	if len(sv.links) != 1 {
		t.Fatalf("links = %v, want one recorded link", sv.links)
	}
}

func TestStartTelnetAllocatesIndexedPort(t *testing.T) {
	sv := NewSupervisor(19100)
	sv.AddNode("sw1")
	sv.AddNode("sw2")

	port, err := sv.StartTelnet("sw2")
	if err != nil {
		t.Fatalf("StartTelnet: %v", err)
	}
	if want := 19100 + 1; port != want {
		t.Errorf("port = %d, want %d (base + add-order index)", port, want)
	}
	defer sv.servers["sw2"].Stop()

	if _, err := sv.StartTelnet("sw2"); err == nil {
		t.Fatal("StartTelnet succeeded on an already-started node")
	}
	if _, err := sv.StartTelnet("sw-missing"); err == nil {
		t.Fatal("StartTelnet succeeded for an unregistered node")
	}
}

func TestDispatchAddListShowTopology(t *testing.T) {
	sv := NewSupervisor(0)
	var b strings.Builder

	if done := sv.dispatch("add node sw1", &b); done {
		t.Fatal("add node ended the session")
	}
	if !strings.Contains(b.String(), "added sw1") {
		t.Fatalf("dispatch add output = %q", b.String())
	}

	b.Reset()
	sv.dispatch("list", &b)
	if !strings.Contains(b.String(), "sw1") {
		t.Fatalf("dispatch list output = %q", b.String())
	}

	sv.AddNode("sw2")
	if err := sv.Link("sw1", 1, "sw2", 1); err != nil {
		t.Fatal(err)
	}
	b.Reset()
	sv.dispatch("show topology", &b)
	if !strings.Contains(b.String(), "sw1") || !strings.Contains(b.String(), "sw2") {
		t.Fatalf("dispatch show topology output = %q", b.String())
	}
}

func TestDispatchExitAndQuitEndSession(t *testing.T) {
	sv := NewSupervisor(0)
	var b strings.Builder
	if done := sv.dispatch("exit", &b); !done {
		t.Error("exit did not end the session")
	}
	if done := sv.dispatch("quit", &b); !done {
		t.Error("quit did not end the session")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	sv := NewSupervisor(0)
	var b strings.Builder
	sv.dispatch("frobnicate", &b)
	if !strings.Contains(b.String(), "unknown command") {
		t.Errorf("output = %q, want an unknown command message", b.String())
	}
}

func TestCmdLinkRejectsNonIntegerPorts(t *testing.T) {
	sv := NewSupervisor(0)
	sv.AddNode("sw1")
	sv.AddNode("sw2")
	var b strings.Builder
	sv.dispatch("link sw1 a sw2 1", &b)
	if !strings.Contains(b.String(), "must be integers") {
		t.Errorf("output = %q, want an integer-port error", b.String())
	}
}

func TestRunStopsOnExit(t *testing.T) {
	sv := NewSupervisor(0)
	in := strings.NewReader("add node sw1\nexit\n")
	var out strings.Builder
	sv.Run(in, &out)
	if !strings.Contains(out.String(), "added sw1") {
		t.Errorf("Run output = %q, want the add-node confirmation", out.String())
	}
}

func TestRunStopsOnEOF(t *testing.T) {
	sv := NewSupervisor(0)
	in := strings.NewReader("add node sw1\n")
	var out strings.Builder
	sv.Run(in, &out)
	if len(sv.Names()) != 1 {
		t.Errorf("Names() = %v, want sw1 added before EOF", sv.Names())
	}
}
