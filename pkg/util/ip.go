package util

import (
	"encoding/binary"
	"fmt"
	"net"
)

// IPToUint32 converts a dotted-quad IPv4 address to its big-endian uint32
// representation. Returns an error for anything that isn't a valid IPv4
// address (including IPv6).
func IPToUint32(ip string) (uint32, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return 0, fmt.Errorf("invalid IP address: %q", ip)
	}
	v4 := parsed.To4()
	if v4 == nil {
		return 0, fmt.Errorf("not an IPv4 address: %q", ip)
	}
	return binary.BigEndian.Uint32(v4), nil
}

// Uint32ToIP renders a big-endian uint32 back to dotted-quad form.
func Uint32ToIP(addr uint32) string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, addr)
	return net.IP(b).String()
}

// CIDRToRange decomposes a "network/mask" pair (mask given as a dotted-quad,
// as structured syslog LAN segment lists carry it) into an inclusive
// [begin, end] uint32 range.
func CIDRToRange(network, mask string) (begin, end uint32, err error) {
	netAddr, err := IPToUint32(network)
	if err != nil {
		return 0, 0, err
	}
	maskAddr, err := IPToUint32(mask)
	if err != nil {
		return 0, 0, err
	}
	begin = netAddr & maskAddr
	end = begin | ^maskAddr
	return begin, end, nil
}

// IsValidIPv4 checks if a string is a valid IPv4 address.
func IsValidIPv4(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	return ip != nil && ip.To4() != nil
}

// IsValidIPv4CIDR checks if a string is a valid IPv4 CIDR notation.
func IsValidIPv4CIDR(cidr string) bool {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return false
	}
	return ipNet.IP.To4() != nil
}
