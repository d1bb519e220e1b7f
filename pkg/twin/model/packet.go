package model

// BroadcastMAC is the simulated Ethernet broadcast address used for ARP
// requests and (per spec.md §4.7) flooded traffic.
const BroadcastMAC = "ff:ff:ff:ff:ff:ff"

// Payload is a discriminated union over the kinds of traffic this twin
// simulates. The source (original_source/ale-omniswitch) used a
// dynamically-typed dict with a "type" key; spec.md §9 mandates a proper
// discriminated union instead.
type Payload interface {
	payload()
}

// Ping is an ICMP echo request.
type Ping struct {
	Seq int
}

// PingReply is an ICMP echo reply.
type PingReply struct {
	Seq int
}

// ArpRequest asks "who has TargetIP".
type ArpRequest struct {
	TargetIP string
}

// ArpReply answers an ArpRequest with the responder's MAC.
type ArpReply struct {
	MAC string
}

// Opaque carries payload this twin doesn't interpret; accepted if it
// reaches its destination, forwarded otherwise.
type Opaque struct {
	Bytes []byte
}

func (Ping) payload()       {}
func (PingReply) payload()  {}
func (ArpRequest) payload() {}
func (ArpReply) payload()   {}
func (Opaque) payload()     {}

// Packet is one simulated frame carried hop-by-hop through the fabric.
type Packet struct {
	SrcIP   string
	DstIP   string
	SrcMAC  string
	DstMAC  string
	VLANTag int
	Payload Payload
}
