package util

import (
	"fmt"
	"net"
	"strings"
)

// ParseIPWithMask parses an IP address with CIDR notation, returning the
// host IP, the prefix length, and the containing network.
func ParseIPWithMask(cidr string) (net.IP, int, *net.IPNet, error) {
	ip, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("invalid CIDR notation: %s", cidr)
	}
	ones, _ := ipNet.Mask.Size()
	return ip, ones, ipNet, nil
}

// IsValidIPv4 reports whether s parses as an IPv4 address.
func IsValidIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil
}

// IsValidIPv4CIDR reports whether s parses as IPv4 CIDR notation.
func IsValidIPv4CIDR(cidr string) bool {
	_, _, err := net.ParseCIDR(cidr)
	if err != nil {
		return false
	}
	parts := strings.Split(cidr, "/")
	ip := net.ParseIP(parts[0])
	return ip != nil && ip.To4() != nil
}

// NetworkCIDR returns the canonical network address ("1.2.3.0/24") for an
// IP-with-mask string ("1.2.3.4/24").
func NetworkCIDR(ipWithMask string) (string, error) {
	ip, _, ipNet, err := ParseIPWithMask(ipWithMask)
	if err != nil {
		return "", err
	}
	_ = ip
	return ipNet.String(), nil
}

// ValidateVLANID checks that a VLAN ID is within the legal range 1-4094.
func ValidateVLANID(vlanID int) error {
	if vlanID < 1 || vlanID > 4094 {
		return fmt.Errorf("VLAN ID must be between 1 and 4094, got %d", vlanID)
	}
	return nil
}
