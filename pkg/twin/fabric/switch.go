package fabric

import (
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/newtron-network/swtwin/pkg/twin/mactable"
	"github.com/newtron-network/swtwin/pkg/twin/model"
	"github.com/newtron-network/swtwin/pkg/twin/ospf"
	"github.com/newtron-network/swtwin/pkg/twin/routing"
	"github.com/newtron-network/swtwin/pkg/twin/util"
)

// NumPorts is the number of physical ports every switch carries, per
// spec.md §3 (ports[1..24]).
const NumPorts = 24

// DefaultTTL is the hop budget for originated non-ping traffic (ARP
// requests/replies, opaque frames); spec.md §5 allows up to 10 hops.
const DefaultTTL = 10

// PingTTL is the hop budget for ICMP echo traffic (spec.md §4.9).
const PingTTL = 118

// pingKey identifies one outstanding ping attempt awaiting its reply.
type pingKey struct {
	dstIP string
	seq   int
}

type frameMsg struct {
	packet *model.Packet
	ttl    int
	inPort int
}

type lsaMsg struct {
	from string
	lsa  map[string]int
}

type mvrpMsg struct {
	onPort  int
	vlanIDs []int
}

type cmdMsg struct {
	fn   func()
	done chan struct{}
}

// Switch is one emulated L2/L3 switch: an actor whose goroutine owns all
// table mutations. External callers (the CLI, other switches, tests) only
// ever enqueue onto its inboxes or read through its RWMutex-guarded
// snapshot getters; nothing reaches into its fields directly from another
// goroutine.
type Switch struct {
	Name     string
	registry *Registry
	log      *logrus.Entry

	mu sync.RWMutex

	ports  [NumPorts + 1]*model.Port // 1-indexed
	vlans  *model.VLANManager
	l3     map[string]*model.L3Interface
	l3Order []string
	macArp *mactable.MacArpTable
	routes *routing.Table
	ospf   *ospf.Engine

	systemName    string
	timezone      string
	contact       string

	pending         map[string][]pendingEntry
	arpRequestTimes map[string]time.Time

	pingWaiters map[pingKey]chan struct{}

	frameInbox chan frameMsg
	lsaInbox   chan lsaMsg
	mvrpInbox  chan mvrpMsg
	cmdInbox   chan cmdMsg
	closeCh    chan struct{}
}

// pendingEntry is one packet queued awaiting ARP resolution (spec.md §4.8).
type pendingEntry struct {
	packet     *model.Packet
	ttl        int
	excludePort int
	enqueuedAt time.Time
}

func newSwitch(name string, registry *Registry) *Switch {
	s := &Switch{
		Name:            name,
		registry:        registry,
		log:             newSwitchLog(name),
		vlans:           model.NewVLANManager(),
		l3:              map[string]*model.L3Interface{},
		macArp:          mactable.New(),
		routes:          routing.New(),
		ospf:            ospf.New(name),
		systemName:      name,
		timezone:        "UTC",
		pending:         map[string][]pendingEntry{},
		arpRequestTimes: map[string]time.Time{},
		pingWaiters:     map[pingKey]chan struct{}{},
		frameInbox:      make(chan frameMsg, 256),
		lsaInbox:        make(chan lsaMsg, 256),
		mvrpInbox:       make(chan mvrpMsg, 256),
		cmdInbox:        make(chan cmdMsg),
		closeCh:         make(chan struct{}),
	}
	s.vlans.Create(1, "")
	for i := 1; i <= NumPorts; i++ {
		s.ports[i] = model.NewPort(i)
		s.vlans.AssignPort(1, i)
	}
	return s
}

// run is the actor loop: the sole goroutine that ever mutates this
// switch's tables. Every inbound message — a command, a frame, or an
// LSA — is handled to completion, under the write lock, before the next
// is dequeued, matching spec.md §5's "every table operation is
// effectively single-threaded per switch".
func (s *Switch) run() {
	sweep := time.NewTicker(pendingSweepInterval)
	defer sweep.Stop()
	for {
		select {
		case <-s.closeCh:
			return
		case cmd := <-s.cmdInbox:
			s.mu.Lock()
			cmd.fn()
			s.mu.Unlock()
			close(cmd.done)
		case fm := <-s.frameInbox:
			s.mu.Lock()
			s.receiveLocked(fm.packet, fm.ttl, fm.inPort)
			s.mu.Unlock()
		case lm := <-s.lsaInbox:
			s.mu.Lock()
			s.receiveLSALocked(lm.from, lm.lsa)
			s.mu.Unlock()
		case mm := <-s.mvrpInbox:
			s.mu.Lock()
			s.admitMVRPVLANsLocked(mm.onPort, mm.vlanIDs)
			s.mu.Unlock()
		case <-sweep.C:
			s.mu.Lock()
			s.purgeExpiredPendingLocked()
			s.mu.Unlock()
		}
	}
}

// do runs fn on the actor goroutine, under the write lock, and blocks the
// caller until it completes. Used by every CLI-facing mutation (VLAN,
// L3 interface, static route, link, RunOSPF, RunMVRP, ping) so that they
// serialize with forwarding and LSA handling exactly like the spec
// demands, without the caller needing to know about the channel.
func (s *Switch) do(fn func()) {
	done := make(chan struct{})
	s.cmdInbox <- cmdMsg{fn: fn, done: done}
	<-done
}

// deliverFrame enqueues a frame onto this switch's inbox — the only way
// another switch ever hands it a packet. Never a direct method call into
// receive; always an asynchronous send (spec.md §5).
func (s *Switch) deliverFrame(pkt *model.Packet, ttl, inPort int) {
	s.frameInbox <- frameMsg{packet: pkt, ttl: ttl, inPort: inPort}
}

// deliverLSA enqueues an LSA onto this switch's control-plane inbox.
func (s *Switch) deliverLSA(from string, lsa map[string]int) {
	cp := make(map[string]int, len(lsa))
	for k, v := range lsa {
		cp[k] = v
	}
	s.lsaInbox <- lsaMsg{from: from, lsa: cp}
}

// deliverMVRP enqueues an MVRP advertisement onto this switch's inbox —
// async, like deliverFrame/deliverLSA, so a bidirectional trunk running
// RunMVRP on both ends concurrently can never deadlock the two actors
// waiting on each other.
func (s *Switch) deliverMVRP(onPort int, vlanIDs []int) {
	cp := make([]int, len(vlanIDs))
	copy(cp, vlanIDs)
	s.mvrpInbox <- mvrpMsg{onPort: onPort, vlanIDs: cp}
}

// hasLocalIPLocked reports whether ip matches one of this switch's L3
// interface addresses.
func (s *Switch) hasLocalIPLocked(ip string) bool {
	_, ok := s.macForLocalIPLocked(ip)
	return ok
}

// macForLocalIPLocked returns the MAC address owning local interface ip.
func (s *Switch) macForLocalIPLocked(ip string) (string, bool) {
	for _, name := range s.l3Order {
		iface := s.l3[name]
		if hostOf(iface.CIDR) == ip {
			return iface.MAC, true
		}
	}
	return "", false
}

// firstL3InterfaceLocked returns the switch's first-created L3 interface,
// used as the originating identity for `ping` (spec.md §4.9).
func (s *Switch) firstL3InterfaceLocked() (*model.L3Interface, bool) {
	if len(s.l3Order) == 0 {
		return nil, false
	}
	return s.l3[s.l3Order[0]], true
}

// hostOf extracts the bare IP from a "ip/prefix" CIDR string.
func hostOf(cidr string) string {
	ip, _, err := net.ParseCIDR(cidr)
	if err != nil {
		return ""
	}
	return ip.String()
}

func newSwitchLog(name string) *logrus.Entry {
	return util.WithSwitch(name)
}
