package lab

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleTopology = `
nodes:
  - name: sw1
    ports:
      - id: 1
        mode: access
        speed_mbps: 1000
    l3_interfaces:
      - port: 1
        cidr: 10.0.0.1/30
        mac: "aa:bb:cc:00:00:01"
    static_routes:
      - cidr: 192.168.1.0/24
        gateway: 10.0.0.2
  - name: sw2
    l3_interfaces:
      - port: 1
        cidr: 10.0.0.2/30
        mac: "aa:bb:cc:00:00:02"
links:
  - switch_a: sw1
    port_a: 1
    switch_b: sw2
    port_b: 1
`

func TestLoadTopologyFileBuildsFabric(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lab.yaml")
	if err := writeFile(path, sampleTopology); err != nil {
		t.Fatal(err)
	}

	sv := NewSupervisor(19300)
	if err := sv.LoadTopologyFile(path); err != nil {
		t.Fatalf("LoadTopologyFile: %v", err)
	}
	defer func() {
		for _, name := range sv.Names() {
			if srv, ok := sv.servers[name]; ok {
				srv.Stop()
			}
		}
	}()

	if len(sv.Names()) != 2 {
		t.Fatalf("Names() = %v, want sw1 and sw2", sv.Names())
	}
	sw1, ok := sv.Registry.Lookup("sw1")
	if !ok {
		t.Fatal("sw1 not registered after load")
	}
	port, ok := sw1.SnapshotPort(1)
	if !ok || port.SpeedMbps != 1000 {
		t.Fatalf("sw1 port 1 = %+v, want speed 1000 from the topology file", port)
	}
	routes := sw1.SnapshotRoutes()
	found := false
	for _, r := range routes {
		if r.Network == "192.168.1.0/24" {
			found = true
		}
	}
	if !found {
		t.Fatalf("sw1 routes = %v, want the static route from the topology file", routes)
	}
	if len(sv.links) != 1 {
		t.Fatalf("links = %v, want the sw1-sw2 link recorded", sv.links)
	}
}

func TestLoadTopologyFileMissingFileFails(t *testing.T) {
	sv := NewSupervisor(0)
	if err := sv.LoadTopologyFile("/nonexistent/lab.yaml"); err == nil {
		t.Fatal("LoadTopologyFile succeeded for a missing file")
	}
}

func TestLoadTopologyFileInvalidYAMLFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := writeFile(path, "nodes: [this is not a valid node list"); err != nil {
		t.Fatal(err)
	}
	sv := NewSupervisor(0)
	if err := sv.LoadTopologyFile(path); err == nil {
		t.Fatal("LoadTopologyFile succeeded against malformed YAML")
	}
}

func TestSaveTopologyFileRoundTripsNodesAndLinks(t *testing.T) {
	sv := NewSupervisor(19400)
	sv.AddNode("sw1")
	sv.AddNode("sw2")
	if err := sv.Link("sw1", 1, "sw2", 1); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	if err := sv.SaveTopologyFile(path); err != nil {
		t.Fatalf("SaveTopologyFile: %v", err)
	}

	sv2 := NewSupervisor(19500)
	if err := sv2.LoadTopologyFile(path); err != nil {
		t.Fatalf("LoadTopologyFile(saved): %v", err)
	}
	defer func() {
		for _, name := range sv2.Names() {
			if srv, ok := sv2.servers[name]; ok {
				srv.Stop()
			}
		}
	}()
	if len(sv2.Names()) != 2 {
		t.Fatalf("reloaded Names() = %v, want 2 nodes", sv2.Names())
	}
	if len(sv2.links) != 1 {
		t.Fatalf("reloaded links = %v, want the sw1-sw2 link", sv2.links)
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
