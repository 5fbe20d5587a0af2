package discovery

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// pjlCommand asks for device identification, wrapped in Universal Exit
// Language escapes so the printer does not treat the bytes as job data.
var pjlCommand = []byte("\x1b%-12345X@PJL INFO ID\r\n\x1b%-12345X\r\n")

// pjlMaxResponse bounds how much of the reply we read.
const pjlMaxResponse = 1024

// queryPJLModel connects to the raw print port, sends a PJL INFO ID request
// and extracts the model from the reply. Blocking socket I/O; the
// orchestrator runs it on its own goroutine. Returns "" on any socket
// error, timeout, or unparseable response.
func queryPJLModel(ip string, port int, timeout time.Duration) string {
	if port <= 0 {
		port = 9100
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	addr := net.JoinHostPort(ip, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		Debug("pjl: dial " + addr + " failed: " + err.Error())
		return ""
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := conn.Write(pjlCommand); err != nil {
		Debug("pjl: send failed: " + err.Error())
		return ""
	}
	buf := make([]byte, pjlMaxResponse)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		Debug("pjl: no response from " + addr)
		return ""
	}
	return parsePJLResponse(string(buf[:n]))
}

// parsePJLResponse extracts a model name from a PJL INFO ID reply. The
// value follows the last ':' or '=' on a line carrying an ID or MODEL
// marker, or sits alone (usually quoted) on the line after a bare marker
// line such as "@PJL INFO ID". Pure function.
func parsePJLResponse(resp string) string {
	if !strings.Contains(resp, "@PJL") {
		return ""
	}
	if !strings.Contains(resp, "ID") && !strings.Contains(resp, "MODEL") {
		return ""
	}
	lines := strings.Split(resp, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if !strings.Contains(line, "ID") && !strings.Contains(line, "MODEL") {
			continue
		}
		value, delimited := afterDelimiter(line)
		if !delimited {
			// bare marker line; the value is on the next line, possibly
			// in key=value form itself
			if i+1 >= len(lines) {
				continue
			}
			value, _ = afterDelimiter(strings.TrimRight(lines[i+1], "\r"))
		}
		value = cleanPJLValue(value)
		if value != "" {
			return value
		}
	}
	return ""
}

// afterDelimiter returns the text after the last ':' or '=' on the line
// and whether a delimiter was present.
func afterDelimiter(line string) (string, bool) {
	value := line
	delimited := false
	if idx := strings.LastIndex(value, ":"); idx >= 0 {
		value = value[idx+1:]
		delimited = true
	}
	if idx := strings.LastIndex(value, "="); idx >= 0 {
		value = value[idx+1:]
		delimited = true
	}
	return value, delimited
}

// cleanPJLValue strips escapes, whitespace and surrounding quotes from a
// PJL value fragment.
func cleanPJLValue(v string) string {
	// drop a trailing UEL sequence when the reply arrived in one read
	if idx := strings.IndexByte(v, 0x1b); idx >= 0 {
		v = v[:idx]
	}
	v = strings.TrimSpace(v)
	v = strings.Trim(v, "\"")
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "@PJL") {
		return ""
	}
	return v
}
