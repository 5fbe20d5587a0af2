// Package discovery locates network-attached printers and resolves enough
// information to install them on a print spooler: a connection URI and a
// human-readable model name. It combines passive mDNS listening, active TCP
// port probing, and a concurrent IPP/SNMP/PJL model-identification race.
package discovery

import (
	"time"
)

// Protocol identifies one of the model-identification probes.
type Protocol int

const (
	ProtoIPP Protocol = iota
	ProtoSNMP
	ProtoPJL
	protocolCount
)

func (p Protocol) String() string {
	switch p {
	case ProtoIPP:
		return "IPP"
	case ProtoSNMP:
		return "SNMP"
	case ProtoPJL:
		return "PJL"
	}
	return "unknown"
}

// UnknownModel marks a discovered URI whose model no protocol could name.
// Callers use it as a signal to prompt for a manual driver name or PPD file.
const UnknownModel = "Unknown"

// Candidate is one printer seen via a passive service announcement.
// Candidates are deduplicated by URI within a single listening window.
type Candidate struct {
	Model string `json:"model"`
	URI   string `json:"uri"`
	IP    string `json:"ip"`
}

// PortScan holds the outcome of probing the fixed printer port set on a host.
// URI is derived from OpenPorts by fixed priority and is empty when no known
// printer port accepted a connection.
type PortScan struct {
	URI       string
	OpenPorts []int
}

// Open reports whether the scan saw the given port accept a connection.
func (s PortScan) Open(port int) bool {
	for _, p := range s.OpenPorts {
		if p == port {
			return true
		}
	}
	return false
}

// Outcome is one identifier's terminal result. Model is empty on any
// failure: network error, timeout, empty response, or protocol error.
type Outcome struct {
	Protocol Protocol
	Model    string
}

// Result is the final product of a single-host discovery run. An empty URI
// means no printer was found at the address; Model is UnknownModel when the
// URI was found but no protocol yielded a name. A Result with no URI never
// carries a model.
type Result struct {
	URI   string `json:"uri,omitempty"`
	Model string `json:"model,omitempty"`
}

// Found reports whether discovery produced a usable connection URI.
func (r Result) Found() bool {
	return r.URI != ""
}

// Options holds per-run tunables for the discovery engine.
type Options struct {
	// ProbeTimeout is the per-port TCP connect timeout for the port scan.
	ProbeTimeout time.Duration
	// PJLTimeout bounds the PJL socket exchange (dial, send, read).
	PJLTimeout time.Duration
	// IPPTimeout bounds the IPP Get-Printer-Attributes request.
	IPPTimeout time.Duration
	// PassiveWindow is how long the passive listener aggregates announcements.
	PassiveWindow time.Duration
	// SNMP configures the sysDescr GET probe.
	SNMP SNMPConfig
}

// DefaultOptions returns the timeouts used when the caller supplies none.
func DefaultOptions() Options {
	return Options{
		ProbeTimeout:  1 * time.Second,
		PJLTimeout:    2 * time.Second,
		IPPTimeout:    3 * time.Second,
		PassiveWindow: 3 * time.Second,
		SNMP:          DefaultSNMPConfig(),
	}
}
