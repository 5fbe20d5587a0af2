package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

// passiveServiceTypes are the DNS-SD service types printers announce on.
var passiveServiceTypes = []string{"_ipp._tcp", "_printer._tcp"}

// DiscoverPassive browses mDNS printer announcements for the given window
// and returns the de-duplicated candidates. The subscription is torn down
// when the window elapses or ctx is canceled, on every exit path. When the
// mDNS capability is unavailable the stage is skipped and an empty list is
// returned; that is a documented degradation, not a failure.
func DiscoverPassive(ctx context.Context, window time.Duration) []Candidate {
	if !MDNSAvailable() {
		Info("passive discovery skipped: mDNS unavailable")
		return nil
	}
	if window <= 0 {
		window = 3 * time.Second
	}
	Info(fmt.Sprintf("passive discovery listening for %s", window))

	browseCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	found := make(chan Candidate, 16)
	var wg sync.WaitGroup
	for _, st := range passiveServiceTypes {
		st := st
		wg.Add(1)
		go func() {
			defer wg.Done()
			browseServiceType(browseCtx, st, found)
		}()
	}
	go func() {
		wg.Wait()
		close(found)
	}()

	out := collectUnique(found)
	Info(fmt.Sprintf("passive discovery complete: %d printer(s)", len(out)))
	return out
}

// collectUnique drains the candidate channel, keeping only the first
// announcement for each URI.
func collectUnique(found <-chan Candidate) []Candidate {
	seen := make(map[string]bool)
	var out []Candidate
	for c := range found {
		if seen[c.URI] {
			continue
		}
		seen[c.URI] = true
		out = append(out, c)
		Info("passive: found " + c.Model + " at " + c.URI)
	}
	return out
}

// newResolver and browseFunc wrap zeroconf; replaceable in tests.
var (
	newResolver = func() (*zeroconf.Resolver, error) {
		return zeroconf.NewResolver(nil)
	}
	browseFunc = func(ctx context.Context, r *zeroconf.Resolver, serviceType string, entries chan *zeroconf.ServiceEntry) error {
		return r.Browse(ctx, serviceType, "local.", entries)
	}
)

// browseServiceType runs one zeroconf browse until ctx is done and feeds
// parsed candidates into found. The library owns the entries channel: its
// mainloop starts before the initial query and closes the channel when the
// browse context ends, on the error path too, which ends the consumer.
func browseServiceType(ctx context.Context, serviceType string, found chan<- Candidate) {
	resolver, err := newResolver()
	if err != nil {
		Warn("mDNS resolver error: " + err.Error())
		return
	}
	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			c, ok := candidateFromEntry(e)
			if !ok {
				continue
			}
			select {
			case found <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	Debug("mDNS browse start: " + serviceType)
	if err := browseFunc(ctx, resolver, serviceType, entries); err != nil {
		Warn("mDNS browse error: " + err.Error())
	}
	<-done
}

// candidateFromEntry resolves a service announcement into a Candidate.
// The model label comes from the "product" TXT property (parentheses
// stripped), then "ty", then the instance name with separators replaced by
// spaces. The URI is the synthetic IPP endpoint for the resolved address.
func candidateFromEntry(e *zeroconf.ServiceEntry) (Candidate, bool) {
	if e == nil || len(e.AddrIPv4) == 0 {
		return Candidate{}, false
	}
	ip := e.AddrIPv4[0].String()
	model := strings.Trim(txtProperty(e.Text, "product"), "()")
	if model == "" {
		model = txtProperty(e.Text, "ty")
	}
	if model == "" {
		model = strings.NewReplacer("-", " ", "_", " ").Replace(e.Instance)
	}
	return Candidate{
		Model: model,
		URI:   fmt.Sprintf("ipp://%s:%d/ipp/print", ip, e.Port),
		IP:    ip,
	}, true
}

// txtProperty finds a key=value TXT record entry and returns its value.
func txtProperty(txt []string, key string) string {
	for _, kv := range txt {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
