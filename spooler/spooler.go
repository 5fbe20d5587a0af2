// Package spooler installs discovered printers on the local CUPS spooler.
// It shells out to lpadmin, choosing -m for driver model names and -P for
// local PPD files. Installation usually requires root privileges.
package spooler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Logger is the minimal logging surface this package needs. A nil logger
// is replaced with a no-op implementation.
type Logger interface {
	Info(msg string, context ...interface{})
	Warn(msg string, context ...interface{})
	Debug(msg string, context ...interface{})
}

type nullLogger struct{}

func (nullLogger) Info(string, ...interface{})  {}
func (nullLogger) Warn(string, ...interface{})  {}
func (nullLogger) Debug(string, ...interface{}) {}

// InstallRequest describes one printer to add to the spooler.
type InstallRequest struct {
	// Name is the queue name, e.g. "Office_Laser".
	Name string
	// URI is the connection URI from discovery.
	URI string
	// Model is a CUPS driver model name, or a path to a local PPD file.
	Model string
	// SetDefault also marks the new queue as the system default.
	SetDefault bool
}

// IsSupported reports whether CUPS administration is available by looking
// for lpadmin on PATH.
func IsSupported() bool {
	_, err := exec.LookPath("lpadmin")
	return err == nil
}

// IsPPDPath reports whether the model info names a PPD file rather than a
// driver model.
func IsPPDPath(modelInfo string) bool {
	lower := strings.ToLower(modelInfo)
	return strings.HasPrefix(modelInfo, "/") ||
		strings.HasSuffix(lower, ".ppd") ||
		strings.HasSuffix(lower, ".ppd.gz")
}

// buildArgs assembles the lpadmin argument list for a request.
func buildArgs(req InstallRequest, usePPD bool) []string {
	args := []string{"-p", req.Name, "-v", req.URI}
	if usePPD {
		args = append(args, "-P", req.Model)
	} else {
		args = append(args, "-m", req.Model)
	}
	// enable and accept jobs
	args = append(args, "-E")
	if req.SetDefault {
		args = append(args, "-d", req.Name)
	}
	return args
}

// Install adds the printer to CUPS. Errors carry the lpadmin stderr text;
// permission failures get a sudo hint appended.
func Install(ctx context.Context, req InstallRequest, logger Logger) error {
	if logger == nil {
		logger = nullLogger{}
	}
	if req.Name == "" || req.URI == "" || req.Model == "" {
		return fmt.Errorf("install request needs a name, uri and model")
	}

	usePPD := IsPPDPath(req.Model)
	if usePPD {
		st, err := os.Stat(req.Model)
		if err != nil || st.IsDir() {
			return fmt.Errorf("PPD file does not exist: %s", req.Model)
		}
		logger.Info("Using PPD file", "path", req.Model)
	} else {
		logger.Info("Using driver model name", "model", req.Model)
	}

	lpadmin, err := exec.LookPath("lpadmin")
	if err != nil {
		return fmt.Errorf("lpadmin not found in PATH; is CUPS installed?")
	}

	args := buildArgs(req, usePPD)
	logger.Debug("Running lpadmin", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, lpadmin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("lpadmin failed: %s", classifyInstallError(err, stderr.String()))
	}

	logger.Info("Printer installed", "name", req.Name, "uri", req.URI)
	return nil
}

// SetDefault marks an installed queue as the system default printer.
func SetDefault(ctx context.Context, name string) error {
	lpadmin, err := exec.LookPath("lpadmin")
	if err != nil {
		return fmt.Errorf("lpadmin not found in PATH; is CUPS installed?")
	}
	cmd := exec.CommandContext(ctx, lpadmin, "-d", name)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to set default printer: %s", classifyInstallError(err, stderr.String()))
	}
	return nil
}

// classifyInstallError turns an exec failure plus captured stderr into a
// single message, appending a privilege hint when CUPS denied the request.
func classifyInstallError(err error, stderr string) string {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = err.Error()
	}
	if strings.Contains(msg, "Forbidden") || strings.Contains(strings.ToLower(msg), "permission denied") {
		msg += " (try running the wizard with sudo)"
	}
	return msg
}
