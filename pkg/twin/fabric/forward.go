package fabric

import (
	"time"

	"github.com/newtron-network/swtwin/pkg/twin/mactable"
	"github.com/newtron-network/swtwin/pkg/twin/model"
	"github.com/newtron-network/swtwin/pkg/twin/routing"
)

// pendingExpiry is the ARP watchdog: a queued packet older than this is
// dropped instead of delivered (spec.md §4.8).
const pendingExpiry = 5 * time.Second

// arpRateLimit bounds outstanding ARP requests to at most one per target
// IP per window (spec.md §4.8).
const arpRateLimit = 1 * time.Second

// pendingSweepInterval is how often the actor loop purges stale
// ARP-pending entries on its own, independent of any reply ever arriving
// (spec.md §5's "pending-packet expiry" watchdog, §8 scenario 3's "no
// memory growth in pending queues after 10 s (stale entries expire)").
const pendingSweepInterval = 1 * time.Second

// sendLocked originates or forwards a packet outward. Must be called with
// s.mu held by the actor goroutine. Returns whether the packet was handed
// off to a peer (or answered locally); false on any drop.
func (s *Switch) sendLocked(pkt *model.Packet, ttl int, excludePort int) bool {
	if ttl <= 0 {
		s.log.WithField("dst", pkt.DstIP).Debug("send: ttl expired")
		return false
	}

	route, ok := s.routes.Lookup(pkt.DstIP)
	if !ok {
		s.log.WithField("dst", pkt.DstIP).Debug("send: no route")
		return false
	}

	resolveIP := route.NextHop
	if route.Provenance == routing.Connected {
		resolveIP = pkt.DstIP
	}

	entry, ok := s.macArp.LookupARP(resolveIP)
	if !ok {
		s.queueForARP(resolveIP, pkt, ttl, excludePort)
		return false
	}

	pkt.DstMAC = entry.MAC

	if entry.PortID == mactable.LocalPort {
		// Destined to one of our own interfaces; nothing to transmit.
		s.log.WithField("dst", pkt.DstIP).Debug("send: destination is local")
		return true
	}

	port := s.ports[entry.PortID]
	if port == nil || !port.IsUp() || !port.IsLinked() {
		s.log.WithField("port", entry.PortID).Debug("send: egress port down")
		return false
	}
	peer, ok := s.registry.Lookup(port.LinkedPeer)
	if !ok {
		return false
	}
	peer.deliverFrame(clonePacket(pkt), ttl, port.LinkedPort)
	return true
}

// queueForARP enqueues pkt awaiting resolution of resolveIP and issues an
// ARP request unless one is already outstanding within the rate-limit
// window (spec.md §4.8).
func (s *Switch) queueForARP(resolveIP string, pkt *model.Packet, ttl int, excludePort int) {
	hadPending := len(s.pending[resolveIP]) > 0
	s.pending[resolveIP] = append(s.pending[resolveIP], pendingEntry{
		packet:      pkt,
		ttl:         ttl,
		excludePort: excludePort,
		enqueuedAt:  time.Now(),
	})

	last, seen := s.arpRequestTimes[resolveIP]
	if hadPending && seen && time.Since(last) < arpRateLimit {
		return
	}
	s.arpRequestTimes[resolveIP] = time.Now()
	s.broadcastARPRequest(resolveIP, excludePort)
}

// broadcastARPRequest originates a fresh arp-request for targetIP from
// the switch's first L3 interface and floods it.
func (s *Switch) broadcastARPRequest(targetIP string, excludePort int) {
	iface, ok := s.firstL3InterfaceLocked()
	if !ok {
		s.log.Warn("cannot issue arp-request: switch has no L3 interface")
		return
	}
	pkt := &model.Packet{
		SrcIP:   hostOf(iface.CIDR),
		DstIP:   targetIP,
		SrcMAC:  iface.MAC,
		DstMAC:  model.BroadcastMAC,
		Payload: model.ArpRequest{TargetIP: targetIP},
	}
	s.floodLocked(pkt, DefaultTTL, excludePort)
}

// floodLocked delivers pkt out every up, linked port except excludePort.
// Per spec.md §9, this must iterate *every* eligible port, never stop
// after the first neighbor.
func (s *Switch) floodLocked(pkt *model.Packet, ttl int, excludePort int) {
	for portID := 1; portID <= NumPorts; portID++ {
		if portID == excludePort {
			continue
		}
		port := s.ports[portID]
		if port == nil || !port.IsUp() || !port.IsLinked() {
			continue
		}
		peer, ok := s.registry.Lookup(port.LinkedPeer)
		if !ok {
			continue
		}
		peer.deliverFrame(clonePacket(pkt), ttl, port.LinkedPort)
	}
}

// receiveLocked is the ingress entry point from a peer: TTL accounting,
// ARP learning, then payload dispatch (spec.md §4.7).
func (s *Switch) receiveLocked(pkt *model.Packet, ttl int, inPort int) {
	ttl--
	if ttl <= 0 {
		s.log.WithField("src", pkt.SrcIP).Debug("receive: ttl expired")
		return
	}

	switch pkt.Payload.(type) {
	case model.ArpRequest, model.ArpReply:
		s.macArp.Learn(pkt.SrcIP, pkt.SrcMAC, inPort)
	}

	switch p := pkt.Payload.(type) {
	case model.ArpRequest:
		s.handleArpRequestLocked(pkt, p, ttl, inPort)
	case model.ArpReply:
		s.handleArpReplyLocked(pkt, ttl, inPort)
	case model.Ping:
		s.handlePingLocked(pkt, p, ttl, inPort)
	case model.PingReply:
		s.handlePingReplyLocked(pkt, p, ttl, inPort)
	default:
		if !s.hasLocalIPLocked(pkt.DstIP) {
			s.sendLocked(pkt, ttl, inPort)
		}
	}
}

func (s *Switch) handleArpRequestLocked(pkt *model.Packet, p model.ArpRequest, ttl, inPort int) {
	mac, ok := s.macForLocalIPLocked(p.TargetIP)
	if !ok {
		s.floodLocked(pkt, ttl, inPort)
		return
	}
	reply := &model.Packet{
		SrcIP:   p.TargetIP,
		DstIP:   pkt.SrcIP,
		SrcMAC:  mac,
		DstMAC:  pkt.SrcMAC,
		VLANTag: pkt.VLANTag,
		Payload: model.ArpReply{MAC: mac},
	}
	s.sendLocked(reply, DefaultTTL, 0)
}

func (s *Switch) handleArpReplyLocked(pkt *model.Packet, ttl, inPort int) {
	if s.hasLocalIPLocked(pkt.DstIP) {
		s.drainPendingLocked(pkt.SrcIP)
		return
	}
	s.sendLocked(pkt, ttl, inPort)
}

func (s *Switch) handlePingLocked(pkt *model.Packet, p model.Ping, ttl, inPort int) {
	if !s.hasLocalIPLocked(pkt.DstIP) {
		s.sendLocked(pkt, ttl, inPort)
		return
	}
	reply := &model.Packet{
		SrcIP:   pkt.DstIP,
		DstIP:   pkt.SrcIP,
		SrcMAC:  pkt.DstMAC,
		DstMAC:  pkt.SrcMAC,
		VLANTag: pkt.VLANTag,
		Payload: model.PingReply{Seq: p.Seq},
	}
	s.sendLocked(reply, PingTTL, inPort)
}

func (s *Switch) handlePingReplyLocked(pkt *model.Packet, p model.PingReply, ttl, inPort int) {
	if !s.hasLocalIPLocked(pkt.DstIP) {
		s.sendLocked(pkt, ttl, inPort)
		return
	}
	s.completePingLocked(pkt.SrcIP, p.Seq)
}

// drainPendingLocked replays queued packets now that resolvedIP has an
// ARP entry, discarding any that have exceeded the 5s watchdog.
func (s *Switch) drainPendingLocked(resolvedIP string) {
	queue := s.pending[resolvedIP]
	delete(s.pending, resolvedIP)
	now := time.Now()
	for _, entry := range queue {
		if now.Sub(entry.enqueuedAt) > pendingExpiry {
			s.log.WithField("ip", resolvedIP).Debug("pending packet expired")
			continue
		}
		s.sendLocked(entry.packet, entry.ttl, entry.excludePort)
	}
}

// purgeExpiredPendingLocked drops every queued ARP-pending packet older
// than pendingExpiry, run periodically by the actor loop (switch.go's
// run()) so stale entries are reclaimed even when no arp-reply ever
// arrives to trigger drainPendingLocked — a dangling route whose next hop
// never answers ARP must not leak memory for the life of the process.
func (s *Switch) purgeExpiredPendingLocked() {
	now := time.Now()
	for ip, queue := range s.pending {
		kept := queue[:0]
		for _, entry := range queue {
			if now.Sub(entry.enqueuedAt) <= pendingExpiry {
				kept = append(kept, entry)
			} else {
				s.log.WithField("ip", ip).Debug("pending packet expired")
			}
		}
		if len(kept) == 0 {
			delete(s.pending, ip)
		} else {
			s.pending[ip] = kept
		}
	}
}

// clonePacket makes an independent copy of pkt before handing it to
// another switch's inbox, since DstMAC (and other fields) are mutated
// per-hop and the two switches run on different goroutines.
func clonePacket(pkt *model.Packet) *model.Packet {
	cp := *pkt
	return &cp
}
