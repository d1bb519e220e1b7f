package fabric

import "testing"

func TestRegistryAddDuplicateFails(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Add("sw1"); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if _, err := reg.Add("sw1"); err == nil {
		t.Fatal("second Add with the same name succeeded, want an error")
	}
}

func TestRegistryLookupAndNames(t *testing.T) {
	reg := NewRegistry()
	reg.Add("sw1")
	reg.Add("sw2")

	if _, ok := reg.Lookup("sw3"); ok {
		t.Error("Lookup found a switch that was never added")
	}
	if _, ok := reg.Lookup("sw1"); !ok {
		t.Error("Lookup failed to find a registered switch")
	}

	names := reg.Names()
	if len(names) != 2 {
		t.Fatalf("Names() = %v, want 2 entries", names)
	}
}

func TestRegistryRemove(t *testing.T) {
	reg := NewRegistry()
	reg.Add("sw1")
	if ok := reg.Remove("sw1"); !ok {
		t.Fatal("Remove reported failure for a registered switch")
	}
	if _, ok := reg.Lookup("sw1"); ok {
		t.Error("removed switch still resolves via Lookup")
	}
	if ok := reg.Remove("sw1"); ok {
		t.Fatal("Remove reported success for an already-removed switch")
	}
}

func TestLinkRejectsUnknownSwitch(t *testing.T) {
	reg := NewRegistry()
	reg.Add("sw1")
	if err := Link(reg, "sw1", 1, "sw-missing", 1); err == nil {
		t.Fatal("Link succeeded against an unregistered peer")
	}
}

func TestLinkRejectsAlreadyLinkedPort(t *testing.T) {
	reg := NewRegistry()
	reg.Add("sw1")
	reg.Add("sw2")
	reg.Add("sw3")
	if err := Link(reg, "sw1", 1, "sw2", 1); err != nil {
		t.Fatal(err)
	}
	if err := Link(reg, "sw1", 1, "sw3", 1); err == nil {
		t.Fatal("Link succeeded on an already-linked port")
	}
}

func TestUnlinkClearsBothSides(t *testing.T) {
	reg := NewRegistry()
	sw1, _ := reg.Add("sw1")
	sw2, _ := reg.Add("sw2")
	if err := Link(reg, "sw1", 1, "sw2", 1); err != nil {
		t.Fatal(err)
	}
	if err := Unlink(reg, "sw1", 1); err != nil {
		t.Fatal(err)
	}
	p1, _ := sw1.SnapshotPort(1)
	p2, _ := sw2.SnapshotPort(1)
	if p1.LinkedPeer != "" || p2.LinkedPeer != "" {
		t.Fatalf("Unlink left a residual peer: sw1=%+v sw2=%+v", p1, p2)
	}
}
