package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// printerPorts is the fixed probe set, most specific first: IPP, raw
// JetDirect socket, LPD.
var printerPorts = []int{631, 9100, 515}

// ProbePorts tries a single TCP connect to each candidate printer port on
// the host with the given per-port timeout and derives a connection URI
// from whatever accepted. A refused, timed-out, or unreachable port is a
// negative signal, not an error. The dials block, so the orchestrator runs
// this on its own goroutine.
func ProbePorts(ip string, timeout time.Duration) PortScan {
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	open := probeTCP(ip, printerPorts, timeout)
	return PortScan{URI: DeriveURI(ip, open), OpenPorts: open}
}

// probeTCP tries to connect to the provided ports on the IP with the given
// timeout. Returns the slice of ports that accepted a TCP connection.
func probeTCP(ip string, ports []int, timeout time.Duration) []int {
	open := []int{}
	for _, p := range ports {
		addr := net.JoinHostPort(ip, strconv.Itoa(p))
		conn, err := net.DialTimeout("tcp", addr, timeout)
		if err != nil {
			// closed or filtered
			continue
		}
		conn.Close()
		open = append(open, p)
		Debug("port open: " + addr)
	}
	return open
}

// DeriveURI maps an open port set to a connection URI by fixed priority:
// 631 (IPP) over 9100 (raw socket) over 515 (LPD). Returns "" when no known
// printer port is open. Pure function.
func DeriveURI(ip string, openPorts []int) string {
	has := func(port int) bool {
		for _, p := range openPorts {
			if p == port {
				return true
			}
		}
		return false
	}
	switch {
	case has(631):
		return fmt.Sprintf("ipp://%s:631/ipp/print", ip)
	case has(9100):
		return fmt.Sprintf("socket://%s:9100", ip)
	case has(515):
		return fmt.Sprintf("lpd://%s/lp", ip)
	}
	return ""
}
