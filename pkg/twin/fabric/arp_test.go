package fabric

import (
	"testing"
	"time"

	"github.com/newtron-network/swtwin/pkg/twin/model"
)

func TestARPRequestsAreRateLimited(t *testing.T) {
	a, _, _ := newLinkedPair(t,
		"sw1", "10.0.0.1/30", "aa:bb:cc:00:00:01",
		"sw2", "10.0.0.2/30", "aa:bb:cc:00:00:02",
	)

	var firstSeen, secondSeen int
	var queueLen int
	var firstStamp, secondStamp time.Time
	a.do(func() {
		a.queueForARP("10.0.0.2", &model.Packet{SrcIP: "10.0.0.1", DstIP: "10.0.0.2"}, DefaultTTL, 0)
		firstSeen = len(a.pending["10.0.0.2"])
		firstStamp = a.arpRequestTimes["10.0.0.2"]
	})
	a.do(func() {
		// A second lookup for the same unresolved IP within the rate-limit
		// window must queue the packet but not issue a second ARP request.
		a.queueForARP("10.0.0.2", &model.Packet{SrcIP: "10.0.0.1", DstIP: "10.0.0.2"}, DefaultTTL, 0)
		secondSeen = len(a.pending["10.0.0.2"])
		queueLen = len(a.arpRequestTimes)
		secondStamp = a.arpRequestTimes["10.0.0.2"]
	})

	if firstSeen != 1 {
		t.Fatalf("pending queue length after first lookup = %d, want 1", firstSeen)
	}
	if secondSeen != 2 {
		t.Fatalf("pending queue length after second lookup = %d, want 2 (both queued)", secondSeen)
	}
	if queueLen != 1 {
		t.Fatalf("arpRequestTimes has %d entries, want 1 (rate-limited, no second broadcast timestamp)", queueLen)
	}
	if !secondStamp.Equal(firstStamp) {
		t.Fatalf("ARP request timestamp moved from %v to %v, want no second broadcast", firstStamp, secondStamp)
	}
}

func TestARPReplyDrainsPendingQueue(t *testing.T) {
	a, b, _ := newLinkedPair(t,
		"sw1", "10.0.0.1/30", "aa:bb:cc:00:00:01",
		"sw2", "10.0.0.2/30", "aa:bb:cc:00:00:02",
	)

	var delivered bool
	a.do(func() {
		pkt := &model.Packet{SrcIP: "10.0.0.1", DstIP: "10.0.0.2", Payload: model.Opaque{Bytes: []byte("hi")}}
		delivered = a.sendLocked(pkt, DefaultTTL, 0)
	})
	if delivered {
		t.Fatal("sendLocked reported delivery before ARP resolved")
	}

	// sw1's ARP broadcast reaches sw2, which answers; the reply flows back
	// and should drain sw1's pending queue, completing the original send.
	for i := 0; i < 20; i++ {
		a.do(func() {})
		b.do(func() {})
	}

	if _, ok := a.SnapshotARPTable()["10.0.0.2"]; !ok {
		t.Fatal("sw1 never learned sw2's ARP entry after the reply")
	}
	var remaining int
	a.do(func() { remaining = len(a.pending["10.0.0.2"]) })
	if remaining != 0 {
		t.Fatalf("pending queue for 10.0.0.2 has %d packets after the reply, want 0 (drained)", remaining)
	}
}

// TestPendingQueueExpiresWithoutReply covers spec.md §8 scenario 3: a
// dangling route whose next hop never answers ARP must not leak queued
// packets forever. No arp-reply is ever delivered here, so
// drainPendingLocked's lazy expiry never runs — only the actor loop's
// periodic purgeExpiredPendingLocked sweep can reclaim the entry.
func TestPendingQueueExpiresWithoutReply(t *testing.T) {
	a, _, _ := newLinkedPair(t,
		"sw1", "10.0.0.1/30", "aa:bb:cc:00:00:01",
		"sw2", "10.0.0.2/30", "aa:bb:cc:00:00:02",
	)

	a.do(func() {
		a.pending["10.0.0.2"] = []pendingEntry{
			{
				packet:     &model.Packet{SrcIP: "10.0.0.1", DstIP: "10.0.0.2"},
				ttl:        DefaultTTL,
				enqueuedAt: time.Now().Add(-2 * pendingExpiry),
			},
		}
	})

	a.do(func() {
		a.purgeExpiredPendingLocked()
	})

	var remaining int
	a.do(func() {
		remaining = len(a.pending["10.0.0.2"])
	})
	if remaining != 0 {
		t.Fatalf("pending queue for 10.0.0.2 has %d entries after purge, want 0", remaining)
	}
	if _, exists := a.pending["10.0.0.2"]; exists {
		t.Fatal("purgeExpiredPendingLocked left an empty slice key instead of deleting it")
	}
}
