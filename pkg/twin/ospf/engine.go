// Package ospf implements the simplified link-state control plane: a
// per-switch link-state database, Dijkstra shortest-path computation, and
// the resulting OSPF-derived route table (subnet -> next-hop IP and cost).
//
// Flooding and next-hop IP resolution need data that lives on the Switch
// (ports, L3 interfaces, the process-wide switch registry) — this package
// only owns the LSDB and the graph math; pkg/twin/fabric orchestrates
// flooding and calls back into this engine to recompute routes.
package ospf

import (
	"container/heap"
)

// ReferenceBW is the default OSPF reference bandwidth, in Mbps, used to
// compute link cost.
const ReferenceBW = 100_000

// MaxCost is the cost assigned to a link whose speed is unknown (0 Mbps).
const MaxCost = 65535

// Route is one OSPF-derived routing-table entry: a destination subnet
// reachable via nextHopIP at the given path cost.
type Route struct {
	NextHopIP string
	Cost      int
}

// Engine is the per-switch OSPF control plane.
type Engine struct {
	SelfName         string
	ReferenceBW      int
	lsdb             map[string]map[string]int // router -> neighbor -> cost
	connectedSubnets map[string]bool
	routes           map[string]Route // subnet -> route
}

// New returns an OSPF engine for switch selfName.
func New(selfName string) *Engine {
	return &Engine{
		SelfName:         selfName,
		ReferenceBW:      ReferenceBW,
		lsdb:             map[string]map[string]int{},
		connectedSubnets: map[string]bool{},
		routes:           map[string]Route{},
	}
}

// Cost computes the OSPF link cost for a port of the given speed, per
// spec.md §4.5: max(1, reference_bw/speed), or MaxCost if speed is 0.
func (e *Engine) Cost(speedMbps int) int {
	if speedMbps <= 0 {
		return MaxCost
	}
	c := e.ReferenceBW / speedMbps
	if c < 1 {
		c = 1
	}
	return c
}

// SetConnectedSubnets replaces the set of subnets this switch originates.
func (e *Engine) SetConnectedSubnets(subnets []string) {
	m := make(map[string]bool, len(subnets))
	for _, s := range subnets {
		m[s] = true
	}
	e.connectedSubnets = m
}

// ConnectedSubnets returns the subnets this switch originates.
func (e *Engine) ConnectedSubnets() []string {
	out := make([]string, 0, len(e.connectedSubnets))
	for s := range e.connectedSubnets {
		out = append(out, s)
	}
	return out
}

// UpdateSelf rewrites lsdb[self] to reflect the switch's current live
// adjacencies (spec.md §4.5 step 3 — lsdb[self] always reflects current
// live adjacencies).
func (e *Engine) UpdateSelf(neighbors map[string]int) {
	cp := make(map[string]int, len(neighbors))
	for k, v := range neighbors {
		cp[k] = v
	}
	e.lsdb[e.SelfName] = cp
}

// ReceiveLSA installs an LSA learned from fromNode if it is new or
// changed. Returns true if the LSDB was mutated, in which case the caller
// must re-flood to every up-linked neighbor except fromNode (split
// horizon) and recompute routes.
func (e *Engine) ReceiveLSA(fromNode string, lsa map[string]int) bool {
	existing, ok := e.lsdb[fromNode]
	if ok && mapsEqual(existing, lsa) {
		return false
	}
	cp := make(map[string]int, len(lsa))
	for k, v := range lsa {
		cp[k] = v
	}
	e.lsdb[fromNode] = cp
	return true
}

func mapsEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// LSDB returns a copy of the full link-state database, keyed by router
// name, for `show ospf database`.
func (e *Engine) LSDB() map[string]map[string]int {
	out := make(map[string]map[string]int, len(e.lsdb))
	for router, links := range e.lsdb {
		cp := make(map[string]int, len(links))
		for n, c := range links {
			cp[n] = c
		}
		out[router] = cp
	}
	return out
}

// ClearRoutes empties the derived route table before a recompute.
func (e *Engine) ClearRoutes() {
	e.routes = map[string]Route{}
}

// InstallRouteIfAbsent records subnet -> (nextHopIP, cost) unless a route
// for that subnet is already installed (spec.md §4.5 step 4: "unless
// already present").
func (e *Engine) InstallRouteIfAbsent(subnet, nextHopIP string, cost int) bool {
	if _, ok := e.routes[subnet]; ok {
		return false
	}
	e.routes[subnet] = Route{NextHopIP: nextHopIP, Cost: cost}
	return true
}

// Routes returns the current OSPF-derived route table.
func (e *Engine) Routes() map[string]Route {
	out := make(map[string]Route, len(e.routes))
	for k, v := range e.routes {
		out[k] = v
	}
	return out
}

// path is the result of a shortest-path computation to one destination:
// the total cost and the path of router names from self (inclusive) to
// the destination (inclusive).
type path struct {
	cost  int
	nodes []string
}

// Path is the result of a shortest-path computation to one destination: the
// total cost and the path of router names from self (inclusive) to the
// destination (inclusive).
type Path struct {
	Cost  int
	Nodes []string
}

// ShortestPaths runs Dijkstra from self over the current LSDB and returns,
// for every reachable router other than self, the shortest path to it. This
// only touches the engine's own LSDB — no peer calls — so it is safe to
// call while holding the owning switch's lock; callers that still need a
// peer's local interface/subnet data (resolveNextHop/subnetsOf) must do that
// part of the work *after* dropping their own lock, never while holding it
// (spec.md §5, §9: a switch must never hold its own lock across a call into
// a peer's).
func (e *Engine) ShortestPaths() map[string]Path {
	internal := e.shortestPaths()
	out := make(map[string]Path, len(internal))
	for dst, p := range internal {
		nodes := make([]string, len(p.nodes))
		copy(nodes, p.nodes)
		out[dst] = Path{Cost: p.cost, Nodes: nodes}
	}
	return out
}

// RecomputeRoutes runs Dijkstra from self over the LSDB and rebuilds the
// OSPF route table. For every reachable router R, resolveNextHop is
// called with the first-hop router name to obtain the next-hop IP to use
// (in the fabric, the first-hop neighbor's interface IP on its link to
// this switch); subnetsOf is called with R's name to obtain R's connected
// subnets (spec.md §4.5 step 4 — installed as subnet CIDRs, never as
// router-name keys). The route table is cleared first; when several
// routers list the same subnet, the one visited first keeps it, and
// routers are visited in map order, not in order of cost.
func (e *Engine) RecomputeRoutes(resolveNextHop func(firstHop string) (string, bool), subnetsOf func(router string) []string) {
	e.ClearRoutes()
	paths := e.shortestPaths()
	for dst, p := range paths {
		if len(p.nodes) < 2 {
			continue
		}
		nextHopIP, ok := resolveNextHop(p.nodes[1])
		if !ok {
			continue
		}
		for _, subnet := range subnetsOf(dst) {
			e.InstallRouteIfAbsent(subnet, nextHopIP, p.cost)
		}
	}
}

// shortestPaths runs Dijkstra from self over the current LSDB, treating
// it as an undirected weighted graph (an edge (u,v,w) exists whenever
// either u->v or v->u appears in the LSDB, matching spec.md §4.5's
// "build an undirected weighted graph from the LSDB"). Returns, for every
// reachable router other than self, the full path including self as the
// first element and the destination as the last.
func (e *Engine) shortestPaths() map[string]path {
	graph := e.undirectedGraph()
	if _, ok := graph[e.SelfName]; !ok {
		return nil
	}

	dist := map[string]int{e.SelfName: 0}
	prev := map[string]string{}
	visited := map[string]bool{}

	pq := &priorityQueue{{node: e.SelfName, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true

		for neighbor, cost := range graph[cur.node] {
			if visited[neighbor] {
				continue
			}
			nd := dist[cur.node] + cost
			if old, ok := dist[neighbor]; !ok || nd < old {
				dist[neighbor] = nd
				prev[neighbor] = cur.node
				heap.Push(pq, pqItem{node: neighbor, dist: nd})
			}
		}
	}

	result := map[string]path{}
	for dst, cost := range dist {
		if dst == e.SelfName {
			continue
		}
		nodes := []string{dst}
		for n := dst; n != e.SelfName; {
			p, ok := prev[n]
			if !ok {
				break
			}
			nodes = append(nodes, p)
			n = p
		}
		// nodes is currently [dst, ..., self] — reverse it.
		for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
			nodes[i], nodes[j] = nodes[j], nodes[i]
		}
		result[dst] = path{cost: cost, nodes: nodes}
	}
	return result
}

func (e *Engine) undirectedGraph() map[string]map[string]int {
	g := map[string]map[string]int{}
	add := func(a, b string, cost int) {
		if g[a] == nil {
			g[a] = map[string]int{}
		}
		if existing, ok := g[a][b]; !ok || cost < existing {
			g[a][b] = cost
		}
	}
	for router, links := range e.lsdb {
		for neighbor, cost := range links {
			add(router, neighbor, cost)
			add(neighbor, router, cost)
		}
	}
	return g
}

type pqItem struct {
	node string
	dist int
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
