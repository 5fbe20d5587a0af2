package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func printerEntry(instance string, txt []string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, "_ipp._tcp", "local.")
	e.Port = 631
	e.Text = txt
	e.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.50")}
	return e
}

func TestCandidateFromEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		entry     *zeroconf.ServiceEntry
		wantModel string
		wantURI   string
		wantOK    bool
	}{
		{
			name:      "product property with parentheses",
			entry:     printerEntry("Office Printer", []string{"txtvers=1", "product=(HP LaserJet 600 M601)"}),
			wantModel: "HP LaserJet 600 M601",
			wantURI:   "ipp://192.168.1.50:631/ipp/print",
			wantOK:    true,
		},
		{
			name:      "ty fallback when product is absent",
			entry:     printerEntry("Office Printer", []string{"ty=Brother HL-2270DW"}),
			wantModel: "Brother HL-2270DW",
			wantURI:   "ipp://192.168.1.50:631/ipp/print",
			wantOK:    true,
		},
		{
			name:      "instance name fallback with separators normalized",
			entry:     printerEntry("Canon_MG3000-series", nil),
			wantModel: "Canon MG3000 series",
			wantURI:   "ipp://192.168.1.50:631/ipp/print",
			wantOK:    true,
		},
		{
			name: "no resolved address",
			entry: func() *zeroconf.ServiceEntry {
				e := printerEntry("Office Printer", nil)
				e.AddrIPv4 = nil
				return e
			}(),
			wantOK: false,
		},
		{
			name:   "nil entry",
			entry:  nil,
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := candidateFromEntry(tt.entry)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if c.Model != tt.wantModel {
				t.Fatalf("Model = %q, want %q", c.Model, tt.wantModel)
			}
			if c.URI != tt.wantURI {
				t.Fatalf("URI = %q, want %q", c.URI, tt.wantURI)
			}
			if c.IP != "192.168.1.50" {
				t.Fatalf("IP = %q", c.IP)
			}
		})
	}
}

func TestTxtProperty(t *testing.T) {
	t.Parallel()

	txt := []string{"txtvers=1", "ty= Canon MG3000 ", "note=upstairs", "flag"}
	if got := txtProperty(txt, "ty"); got != "Canon MG3000" {
		t.Fatalf("txtProperty(ty) = %q", got)
	}
	if got := txtProperty(txt, "note"); got != "upstairs" {
		t.Fatalf("txtProperty(note) = %q", got)
	}
	if got := txtProperty(txt, "missing"); got != "" {
		t.Fatalf("txtProperty(missing) = %q", got)
	}
	if got := txtProperty(txt, "flag"); got != "" {
		t.Fatalf("txtProperty(flag) = %q, want empty for bare key", got)
	}
}

func TestCollectUnique(t *testing.T) {
	t.Parallel()

	found := make(chan Candidate, 8)
	found <- Candidate{Model: "A", URI: "ipp://192.168.1.50:631/ipp/print", IP: "192.168.1.50"}
	found <- Candidate{Model: "B", URI: "ipp://192.168.1.51:631/ipp/print", IP: "192.168.1.51"}
	// same printer announced on both service types
	found <- Candidate{Model: "A again", URI: "ipp://192.168.1.50:631/ipp/print", IP: "192.168.1.50"}
	close(found)

	out := collectUnique(found)
	if len(out) != 2 {
		t.Fatalf("expected 2 unique candidates, got %d: %+v", len(out), out)
	}
	if out[0].Model != "A" || out[1].Model != "B" {
		t.Fatalf("first announcement must win: %+v", out)
	}
}

func TestBrowseServiceType_BrowseError(t *testing.T) {
	origResolver, origBrowse := newResolver, browseFunc
	newResolver = func() (*zeroconf.Resolver, error) {
		return &zeroconf.Resolver{}, nil
	}
	browseFunc = func(ctx context.Context, r *zeroconf.Resolver, serviceType string, entries chan *zeroconf.ServiceEntry) error {
		// mirror the library contract: it delivers entries and closes the
		// channel itself when the browse context ends, even after a failed
		// query
		entries <- printerEntry("Office Printer", []string{"ty=Canon MG3000"})
		close(entries)
		return errors.New("failed to browse")
	}
	t.Cleanup(func() {
		newResolver, browseFunc = origResolver, origBrowse
	})

	found := make(chan Candidate, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		browseServiceType(context.Background(), "_ipp._tcp", found)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("browseServiceType did not return after a failed browse")
	}
	select {
	case c := <-found:
		if c.Model != "Canon MG3000" {
			t.Fatalf("Model = %q", c.Model)
		}
	default:
		t.Fatal("entry delivered before the failure was dropped")
	}
}

func TestDiscoverPassive_SkippedWhenUnavailable(t *testing.T) {
	saveCaps(t)
	SetMDNSAvailable(false)

	if got := DiscoverPassive(context.Background(), 0); got != nil {
		t.Fatalf("expected nil when mDNS is unavailable, got %+v", got)
	}
}
