package routing

import "testing"

func TestInstallIfAbsentNeverOverwrites(t *testing.T) {
	tbl := New()
	tbl.Install("10.0.0.0/24", "10.0.0.1", Connected)

	ok := tbl.InstallIfAbsent("10.0.0.0/24", "10.0.0.9", OSPF)
	if ok {
		t.Fatal("InstallIfAbsent reported success over an existing connected route")
	}
	route, _ := tbl.Get("10.0.0.0/24")
	if route.Provenance != Connected {
		t.Errorf("route provenance = %v, want Connected (unchanged)", route.Provenance)
	}

	ok = tbl.InstallIfAbsent("10.0.1.0/24", "10.0.0.9", OSPF)
	if !ok {
		t.Fatal("InstallIfAbsent failed to install into an empty slot")
	}
}

func TestLookupLongestPrefixWins(t *testing.T) {
	tbl := New()
	tbl.Install("10.0.0.0/8", "gw-wide", OSPF)
	tbl.Install("10.0.1.0/24", "gw-narrow", OSPF)

	route, ok := tbl.Lookup("10.0.1.5")
	if !ok {
		t.Fatal("Lookup: not found")
	}
	if route.NextHop != "gw-narrow" {
		t.Errorf("NextHop = %q, want %q (longest prefix should win)", route.NextHop, "gw-narrow")
	}
}

func TestLookupProvenanceBreaksTie(t *testing.T) {
	// Two equal-length prefixes for the same network can't coexist in the
	// map (same key), but a static and an OSPF route for overlapping
	// same-length networks exercise the same tie-break path through
	// differently-keyed CIDRs is not representable here; instead verify
	// precedence ranking directly.
	if Connected.rank() >= Static.rank() || Static.rank() >= OSPF.rank() {
		t.Fatalf("provenance ranks not strictly increasing: connected=%d static=%d ospf=%d",
			Connected.rank(), Static.rank(), OSPF.rank())
	}
}

func TestLookupNoMatch(t *testing.T) {
	tbl := New()
	tbl.Install("10.0.0.0/24", "gw", Connected)
	if _, ok := tbl.Lookup("192.168.1.1"); ok {
		t.Error("Lookup matched an unrelated network")
	}
}

func TestRemoveProvenanceClearsOnlyMatching(t *testing.T) {
	tbl := New()
	tbl.Install("10.0.0.0/24", "gw-connected", Connected)
	tbl.Install("10.0.1.0/24", "gw-static", Static)
	tbl.Install("10.0.2.0/24", "gw-ospf-1", OSPF)
	tbl.Install("10.0.3.0/24", "gw-ospf-2", OSPF)

	tbl.RemoveProvenance(OSPF)

	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 after clearing OSPF routes", tbl.Len())
	}
	if !tbl.Exists("10.0.0.0/24") || !tbl.Exists("10.0.1.0/24") {
		t.Error("RemoveProvenance(OSPF) removed a non-OSPF route")
	}
	if tbl.Exists("10.0.2.0/24") || tbl.Exists("10.0.3.0/24") {
		t.Error("RemoveProvenance(OSPF) left an OSPF route behind")
	}
}

func TestRemoveProvenanceThenReinstallAllowsNewNextHop(t *testing.T) {
	// Mirrors the link-flap reconvergence scenario: a stale OSPF route must
	// not block installing the fresh one after RemoveProvenance.
	tbl := New()
	tbl.InstallIfAbsent("10.0.9.0/24", "old-nexthop", OSPF)
	tbl.RemoveProvenance(OSPF)
	ok := tbl.InstallIfAbsent("10.0.9.0/24", "new-nexthop", OSPF)
	if !ok {
		t.Fatal("InstallIfAbsent failed after RemoveProvenance cleared the stale route")
	}
	route, _ := tbl.Get("10.0.9.0/24")
	if route.NextHop != "new-nexthop" {
		t.Errorf("NextHop = %q, want %q", route.NextHop, "new-nexthop")
	}
}

func TestRemove(t *testing.T) {
	tbl := New()
	tbl.Install("10.0.0.0/24", "gw", Static)
	if !tbl.Remove("10.0.0.0/24") {
		t.Fatal("Remove reported failure on an existing route")
	}
	if tbl.Remove("10.0.0.0/24") {
		t.Fatal("Remove reported success on an already-removed route")
	}
}
