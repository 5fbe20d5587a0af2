package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"printwizard/discovery"

	"github.com/BurntSushi/toml"
	"github.com/gosnmp/gosnmp"
)

const configFileName = "wizard.toml"

// WizardConfig represents the wizard configuration loaded from wizard.toml.
type WizardConfig struct {
	Debug     bool            `toml:"debug"`
	Discovery DiscoverySection `toml:"discovery"`
	SNMP      SNMPSection      `toml:"snmp"`
	Install   InstallSection   `toml:"install"`
}

// DiscoverySection holds discovery engine tunables.
type DiscoverySection struct {
	ProbeTimeoutMs       int `toml:"probe_timeout_ms"`
	PJLTimeoutMs         int `toml:"pjl_timeout_ms"`
	IPPTimeoutMs         int `toml:"ipp_timeout_ms"`
	PassiveWindowSeconds int `toml:"passive_window_seconds"`
}

// SNMPSection holds SNMP client settings.
type SNMPSection struct {
	Community string `toml:"community"`
	Version   string `toml:"version"`
	TimeoutMs int    `toml:"timeout_ms"`
}

// InstallSection holds spooler installation defaults.
type InstallSection struct {
	DefaultName string `toml:"default_name"`
	SetDefault  bool   `toml:"set_default"`
}

// DefaultWizardConfig returns the configuration used when no file is found.
func DefaultWizardConfig() *WizardConfig {
	return &WizardConfig{
		Discovery: DiscoverySection{
			ProbeTimeoutMs:       1000,
			PJLTimeoutMs:         2000,
			IPPTimeoutMs:         3000,
			PassiveWindowSeconds: 5,
		},
		SNMP: SNMPSection{
			Community: "public",
			Version:   "1",
			TimeoutMs: 2000,
		},
		Install: InstallSection{
			DefaultName: "MyPrinter",
		},
	}
}

// configSearchPaths returns the ordered locations probed for wizard.toml.
func configSearchPaths(filename string) []string {
	var paths []string
	switch runtime.GOOS {
	case "windows":
		paths = append(paths, filepath.Join(os.Getenv("ProgramData"), "PrintWizard", filename))
	case "darwin":
		paths = append(paths, filepath.Join("/Library/Application Support", "PrintWizard", filename))
	default:
		paths = append(paths, filepath.Join("/etc/printwizard", filename))
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "printwizard", filename))
	}
	if exePath, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exePath), filename))
	}
	paths = append(paths, filepath.Join(".", filename))
	return paths
}

// LoadWizardConfig loads configuration from the given path, or from the
// standard search paths when path is empty. A missing file yields the
// defaults; a malformed file is an error.
func LoadWizardConfig(path string) (*WizardConfig, string, error) {
	cfg := DefaultWizardConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, "", fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		return cfg, path, nil
	}
	for _, p := range configSearchPaths(configFileName) {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, "", fmt.Errorf("failed to parse config %s: %w", p, err)
		}
		return cfg, p, nil
	}
	return cfg, "", nil
}

// discoveryOptions maps the file configuration onto engine options.
func (c *WizardConfig) discoveryOptions() discovery.Options {
	opts := discovery.DefaultOptions()
	if c.Discovery.ProbeTimeoutMs > 0 {
		opts.ProbeTimeout = time.Duration(c.Discovery.ProbeTimeoutMs) * time.Millisecond
	}
	if c.Discovery.PJLTimeoutMs > 0 {
		opts.PJLTimeout = time.Duration(c.Discovery.PJLTimeoutMs) * time.Millisecond
	}
	if c.Discovery.IPPTimeoutMs > 0 {
		opts.IPPTimeout = time.Duration(c.Discovery.IPPTimeoutMs) * time.Millisecond
	}
	if c.Discovery.PassiveWindowSeconds > 0 {
		opts.PassiveWindow = time.Duration(c.Discovery.PassiveWindowSeconds) * time.Second
	}
	if c.SNMP.Community != "" {
		opts.SNMP.Community = c.SNMP.Community
	}
	if c.SNMP.TimeoutMs > 0 {
		opts.SNMP.Timeout = time.Duration(c.SNMP.TimeoutMs) * time.Millisecond
	}
	opts.SNMP.Version = parseSNMPVersion(c.SNMP.Version)
	return opts
}

// parseSNMPVersion maps a config string to a gosnmp version, defaulting to
// v1 for maximum device compatibility.
func parseSNMPVersion(v string) gosnmp.SnmpVersion {
	switch strings.ToLower(v) {
	case "", "1", "v1":
		return gosnmp.Version1
	case "2", "2c", "v2", "v2c":
		return gosnmp.Version2c
	default:
		return gosnmp.Version1
	}
}
