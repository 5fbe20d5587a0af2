package discovery

import (
	"fmt"
	"strings"
	"time"

	"printwizard/util"

	"github.com/gosnmp/gosnmp"
)

// sysDescrOID is the standard system description object
// (SNMPv2-MIB::sysDescr.0). On printers it usually carries the make and
// model.
const sysDescrOID = "1.3.6.1.2.1.1.1.0"

// SNMPConfig holds settings for the SNMP model probe.
type SNMPConfig struct {
	Community string
	// Version is the SNMP protocol version (v1 or v2c).
	Version gosnmp.SnmpVersion
	Timeout time.Duration
}

// DefaultSNMPConfig returns the settings the probe uses when the caller
// supplies none: community "public", SNMPv1 for maximum device
// compatibility.
func DefaultSNMPConfig() SNMPConfig {
	return SNMPConfig{
		Community: "public",
		Version:   gosnmp.Version1,
		Timeout:   2 * time.Second,
	}
}

// SNMPClient abstracts gosnmp for easier testing/mocking.
type SNMPClient interface {
	Get(oids []string) (*gosnmp.SnmpPacket, error)
	Close() error
}

// NewSNMPClient is a factory used by production code; tests can replace
// this variable to inject mock clients.
var NewSNMPClient = func(cfg SNMPConfig, target string) (SNMPClient, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	community := cfg.Community
	if community == "" {
		community = "public"
	}
	snmp := &gosnmp.GoSNMP{
		Target:    target,
		Port:      161,
		Version:   cfg.Version,
		Community: community,
		Timeout:   timeout,
		// single attempt; a lost datagram is a soft failure here
		Retries: 0,
	}
	if err := snmp.Connect(); err != nil {
		return nil, err
	}
	return &gosnmpWrapper{snmp: snmp}, nil
}

// gosnmpWrapper implements SNMPClient by delegating to gosnmp.GoSNMP.
type gosnmpWrapper struct {
	snmp *gosnmp.GoSNMP
}

func (w *gosnmpWrapper) Get(oids []string) (*gosnmp.SnmpPacket, error) {
	return w.snmp.Get(oids)
}

func (w *gosnmpWrapper) Close() error {
	if w.snmp != nil && w.snmp.Conn != nil {
		_ = w.snmp.Conn.Close()
	}
	return nil
}

// querySNMPModel issues a single GET for sysDescr against UDP/161.
// Transport errors and protocol error-status are both soft failures;
// the result is "" unless the device returned a non-empty description.
func querySNMPModel(cfg SNMPConfig, ip string) string {
	client, err := NewSNMPClient(cfg, ip)
	if err != nil {
		Debug("snmp: connect to " + ip + " failed: " + err.Error())
		return ""
	}
	defer client.Close()

	packet, err := client.Get([]string{sysDescrOID})
	if err != nil {
		Debug("snmp: get failed for " + ip + ": " + err.Error())
		return ""
	}
	if packet == nil {
		return ""
	}
	if packet.Error != gosnmp.NoError {
		Debug(fmt.Sprintf("snmp: error status %v from %s", packet.Error, ip))
		return ""
	}
	for _, pdu := range packet.Variables {
		if strings.TrimPrefix(pdu.Name, ".") != sysDescrOID {
			continue
		}
		switch v := pdu.Value.(type) {
		case []byte:
			return util.DecodeOctetString(v)
		case string:
			return util.SanitizeString(v)
		}
	}
	return ""
}
