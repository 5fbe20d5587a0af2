package discovery

import (
	"net"
	"sync/atomic"
)

// Capability flags gate each discovery stage. They are evaluated once at
// process start by DetectCapabilities; a stage whose flag is off is skipped
// and treated as having produced no result, never as a failure.
var (
	mdnsAvailable atomic.Bool
	ippAvailable  atomic.Bool
	snmpAvailable atomic.Bool
)

// DetectCapabilities probes the local network stack once and records which
// discovery stages can run. Call it early in main; tests and config may
// override individual flags afterwards.
func DetectCapabilities() {
	mdnsAvailable.Store(canJoinMDNSGroup())
	snmpAvailable.Store(canOpenUDP())
	// IPP rides plain HTTP; the flag exists so config and tests can disable it.
	ippAvailable.Store(true)

	if !mdnsAvailable.Load() {
		Warn("mDNS unavailable; passive discovery will be skipped")
	}
	if !snmpAvailable.Load() {
		Warn("UDP sockets unavailable; SNMP identification will be skipped")
	}
}

// SetMDNSAvailable enables or disables the passive mDNS listener.
func SetMDNSAvailable(enabled bool) {
	mdnsAvailable.Store(enabled)
}

// MDNSAvailable reports whether the passive listener may run.
func MDNSAvailable() bool {
	return mdnsAvailable.Load()
}

// SetIPPAvailable enables or disables the IPP identifier.
func SetIPPAvailable(enabled bool) {
	ippAvailable.Store(enabled)
}

// IPPAvailable reports whether the IPP identifier may run.
func IPPAvailable() bool {
	return ippAvailable.Load()
}

// SetSNMPAvailable enables or disables the SNMP identifier.
func SetSNMPAvailable(enabled bool) {
	snmpAvailable.Store(enabled)
}

// SNMPAvailable reports whether the SNMP identifier may run.
func SNMPAvailable() bool {
	return snmpAvailable.Load()
}

// canJoinMDNSGroup checks that the host can join the mDNS multicast group,
// which is what the zeroconf resolver needs to browse announcements.
func canJoinMDNSGroup() bool {
	addr, err := net.ResolveUDPAddr("udp4", "224.0.0.251:5353")
	if err != nil {
		return false
	}
	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// canOpenUDP checks that an unprivileged UDP socket can be created, the
// transport the SNMP probe rides on.
func canOpenUDP() bool {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
