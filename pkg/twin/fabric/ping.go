package fabric

import (
	"fmt"
	"time"

	"github.com/newtron-network/swtwin/pkg/twin/model"
	"github.com/newtron-network/swtwin/pkg/twin/util"
)

// PingAttempt is the outcome of one echo request.
type PingAttempt struct {
	Seq     int
	RTT     time.Duration
	TimedOut bool
}

// PingResult summarizes a ping run (spec.md §4.9).
type PingResult struct {
	DstIP     string
	Sent      int
	Received  int
	Attempts  []PingAttempt
	Min       time.Duration
	Max       time.Duration
	Avg       time.Duration
}

// LossPercent returns the fraction of attempts that timed out, 0-100.
func (r PingResult) LossPercent() float64 {
	if r.Sent == 0 {
		return 0
	}
	lost := r.Sent - r.Received
	return float64(lost) * 100 / float64(r.Sent)
}

// Ping originates count echo requests to dstIP from the switch's first
// L3 interface, awaiting each reply (or timeout) via a per-sequence
// completion channel rather than polling a shared flag (spec.md §9,
// "Blocking ping in an async world").
func (s *Switch) Ping(dstIP string, count int, timeout time.Duration) (PingResult, error) {
	result := PingResult{DstIP: dstIP}

	var haveSource bool
	s.do(func() {
		_, haveSource = s.firstL3InterfaceLocked()
	})
	if !haveSource {
		return result, util.NewConfigError("ping", s.Name, "switch has no L3 interface to originate from")
	}

	var totalRTT time.Duration
	for seq := 1; seq <= count; seq++ {
		result.Sent++
		ch := make(chan struct{})
		start := time.Now()

		s.do(func() {
			s.pingWaiters[pingKey{dstIP: dstIP, seq: seq}] = ch
			iface, ok := s.firstL3InterfaceLocked()
			if !ok {
				return
			}
			pkt := &model.Packet{
				SrcIP:   hostOf(iface.CIDR),
				DstIP:   dstIP,
				SrcMAC:  iface.MAC,
				Payload: model.Ping{Seq: seq},
			}
			s.sendLocked(pkt, PingTTL, 0)
		})

		select {
		case <-ch:
			rtt := time.Since(start)
			totalRTT += rtt
			result.Received++
			if result.Min == 0 || rtt < result.Min {
				result.Min = rtt
			}
			if rtt > result.Max {
				result.Max = rtt
			}
			result.Attempts = append(result.Attempts, PingAttempt{Seq: seq, RTT: rtt})
		case <-time.After(timeout):
			s.do(func() {
				delete(s.pingWaiters, pingKey{dstIP: dstIP, seq: seq})
			})
			result.Attempts = append(result.Attempts, PingAttempt{Seq: seq, TimedOut: true})
		}
	}

	if result.Received > 0 {
		result.Avg = totalRTT / time.Duration(result.Received)
	}
	return result, nil
}

// completePingLocked wakes whichever Ping() call is waiting on
// (dstIP, seq), if any.
func (s *Switch) completePingLocked(dstIP string, seq int) {
	key := pingKey{dstIP: dstIP, seq: seq}
	if ch, ok := s.pingWaiters[key]; ok {
		close(ch)
		delete(s.pingWaiters, key)
	}
}

// String renders a ping summary line, matching spec.md §7's
// "Sent/Received/Lost (loss%)" format.
func (r PingResult) String() string {
	return fmt.Sprintf("Sent=%d, Received=%d, Lost=%d (%.0f%% loss)",
		r.Sent, r.Received, r.Sent-r.Received, r.LossPercent())
}
