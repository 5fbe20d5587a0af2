package discovery

import (
	"context"
	"sync"
	"time"
)

// modelPriority is the fixed resolution order. Identifier completion order
// never affects the outcome; even when SNMP settles first, a non-empty IPP
// result wins.
var modelPriority = [...]Protocol{ProtoIPP, ProtoSNMP, ProtoPJL}

// Discoverer runs the staged discovery flow against single hosts. Create
// one with NewDiscoverer; the zero value has no probe functions bound.
type Discoverer struct {
	opts Options

	// probe/identifier functions are replaceable so tests can inject
	// deterministic fakes.
	probePorts func(ip string, timeout time.Duration) PortScan
	queryIPP   func(ctx context.Context, ip string, timeout time.Duration) string
	querySNMP  func(cfg SNMPConfig, ip string) string
	queryPJL   func(ip string, port int, timeout time.Duration) string
}

// NewDiscoverer returns a Discoverer bound to the production probes.
// Zero fields of opts fall back to DefaultOptions values.
func NewDiscoverer(opts Options) *Discoverer {
	def := DefaultOptions()
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = def.ProbeTimeout
	}
	if opts.PJLTimeout <= 0 {
		opts.PJLTimeout = def.PJLTimeout
	}
	if opts.IPPTimeout <= 0 {
		opts.IPPTimeout = def.IPPTimeout
	}
	if opts.PassiveWindow <= 0 {
		opts.PassiveWindow = def.PassiveWindow
	}
	if opts.SNMP.Community == "" {
		opts.SNMP.Community = def.SNMP.Community
	}
	if opts.SNMP.Timeout <= 0 {
		opts.SNMP.Timeout = def.SNMP.Timeout
	}
	return &Discoverer{
		opts:       opts,
		probePorts: ProbePorts,
		queryIPP:   queryIPPModel,
		querySNMP:  querySNMPModel,
		queryPJL:   queryPJLModel,
	}
}

// Options returns the effective options the Discoverer runs with.
func (d *Discoverer) Options() Options {
	return d.opts
}

// DiscoverByIP runs the full single-host flow: port scan, then a gated
// launch-all/join-all identification race, then priority resolution.
// It always returns a well-formed Result; every probe failure degrades the
// result instead of surfacing as an error.
func (d *Discoverer) DiscoverByIP(ctx context.Context, ip string) Result {
	// Stage 1: port scan. Runs on its own goroutine because the dials
	// block; the select keeps this call responsive to cancellation.
	Info("scanning printer ports on " + ip)
	scanCh := make(chan PortScan, 1)
	go func() {
		scanCh <- d.probePorts(ip, d.opts.ProbeTimeout)
	}()
	var scan PortScan
	select {
	case <-ctx.Done():
		return Result{}
	case scan = <-scanCh:
	}
	if scan.URI == "" {
		Info("no known printer ports open on " + ip)
		return Result{}
	}
	Info("uri selected: " + scan.URI)

	// Stage 2: launch every identifier whose gate holds, then join on all
	// of them. Results land in per-protocol slots, so resolution is
	// independent of completion order and nothing mutable is shared
	// between probes. Both IPP and PJL run when 631 and 9100 are both
	// open; partial success still fans out.
	var models [protocolCount]string
	var wg sync.WaitGroup
	launch := func(p Protocol, fn func() string) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			models[p] = fn()
		}()
	}
	if scan.Open(631) && IPPAvailable() {
		launch(ProtoIPP, func() string {
			return d.queryIPP(ctx, ip, d.opts.IPPTimeout)
		})
	}
	if SNMPAvailable() {
		launch(ProtoSNMP, func() string {
			return d.querySNMP(d.opts.SNMP, ip)
		})
	}
	if scan.Open(9100) {
		launch(ProtoPJL, func() string {
			return d.queryPJL(ip, 9100, d.opts.PJLTimeout)
		})
	}
	wg.Wait()

	// Stage 3: priority resolution.
	outs := make([]Outcome, 0, int(protocolCount))
	for p := Protocol(0); p < protocolCount; p++ {
		out := Outcome{Protocol: p, Model: models[p]}
		outs = append(outs, out)
		if out.Model != "" {
			Debug(p.String() + " answered: " + out.Model)
		}
	}
	model := ResolveModel(outs)
	if model == UnknownModel {
		Warn("all model identification methods failed for " + ip)
	} else {
		Info("model identified: " + model)
	}
	return Result{URI: scan.URI, Model: model}
}

// ResolveModel picks the final model from identifier outcomes by the fixed
// priority IPP > SNMP > PJL, ignoring completion order. When every outcome
// is empty it returns the UnknownModel sentinel. Pure function.
func ResolveModel(outs []Outcome) string {
	for _, p := range modelPriority {
		for _, o := range outs {
			if o.Protocol == p && o.Model != "" {
				return o.Model
			}
		}
	}
	return UnknownModel
}
