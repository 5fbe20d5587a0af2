package spooler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestIsPPDPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"/usr/share/ppd/hp.ppd", true},
		{"/etc/cups/anything", true},
		{"laser.PPD", true},
		{"laser.ppd.gz", true},
		{"everywhere", false},
		{"gutenprint.5.3://brother-hl-2250dn/expert", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsPPDPath(tt.in); got != tt.want {
			t.Errorf("IsPPDPath(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	req := InstallRequest{Name: "Office_Laser", URI: "ipp://10.0.0.9:631/ipp/print", Model: "everywhere"}
	got := buildArgs(req, false)
	want := []string{"-p", "Office_Laser", "-v", "ipp://10.0.0.9:631/ipp/print", "-m", "everywhere", "-E"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("buildArgs = %v, want %v", got, want)
	}

	req.Model = "/tmp/laser.ppd"
	req.SetDefault = true
	got = buildArgs(req, true)
	want = []string{"-p", "Office_Laser", "-v", "ipp://10.0.0.9:631/ipp/print", "-P", "/tmp/laser.ppd", "-E", "-d", "Office_Laser"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("buildArgs = %v, want %v", got, want)
	}
}

func TestInstall_IncompleteRequest(t *testing.T) {
	t.Parallel()

	reqs := []InstallRequest{
		{},
		{Name: "p", URI: "socket://10.0.0.9:9100"},
		{Name: "p", Model: "everywhere"},
		{URI: "socket://10.0.0.9:9100", Model: "everywhere"},
	}
	for _, req := range reqs {
		if err := Install(context.Background(), req, nil); err == nil {
			t.Errorf("expected error for incomplete request %+v", req)
		}
	}
}

func TestInstall_MissingPPD(t *testing.T) {
	t.Parallel()

	req := InstallRequest{
		Name:  "p",
		URI:   "socket://10.0.0.9:9100",
		Model: filepath.Join(t.TempDir(), "does-not-exist.ppd"),
	}
	err := Install(context.Background(), req, nil)
	if err == nil || !strings.Contains(err.Error(), "PPD file does not exist") {
		t.Fatalf("expected missing-PPD error, got %v", err)
	}
}

func TestInstall_DirectoryAsPPD(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "sub.ppd")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	req := InstallRequest{Name: "p", URI: "socket://10.0.0.9:9100", Model: dir}
	if err := Install(context.Background(), req, nil); err == nil {
		t.Fatal("expected error when PPD path is a directory")
	}
}

func TestClassifyInstallError(t *testing.T) {
	t.Parallel()

	execErr := errors.New("exit status 1")

	got := classifyInstallError(execErr, "lpadmin: Forbidden\n")
	if !strings.Contains(got, "Forbidden") || !strings.Contains(got, "sudo") {
		t.Fatalf("expected privilege hint, got %q", got)
	}

	got = classifyInstallError(execErr, "lpadmin: Permission denied")
	if !strings.Contains(got, "sudo") {
		t.Fatalf("expected privilege hint, got %q", got)
	}

	got = classifyInstallError(execErr, "lpadmin: Bad device-uri")
	if strings.Contains(got, "sudo") {
		t.Fatalf("unexpected privilege hint in %q", got)
	}

	// no stderr at all falls back to the exec error
	if got = classifyInstallError(execErr, "  \n"); got != "exit status 1" {
		t.Fatalf("classifyInstallError = %q", got)
	}
}
