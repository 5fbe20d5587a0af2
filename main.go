// Universal printer setup wizard.
// Discovers network printers via passive mDNS listening, active port
// probing and a concurrent IPP/SNMP/PJL model-identification race, then
// installs the chosen printer on the local CUPS spooler.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"printwizard/discovery"
	"printwizard/spooler"

	"github.com/chzyer/readline"
)

// Version information (set at build time via -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var errCancelled = errors.New("cancelled by user")

func main() {
	var (
		configPath  = flag.String("config", "", "path to wizard.toml (default: standard search paths)")
		ipFlag      = flag.String("ip", "", "non-interactive: discover this host and print the result")
		nameFlag    = flag.String("name", "", "non-interactive: install under this queue name")
		modelFlag   = flag.String("model", "", "non-interactive: driver model name or PPD path override")
		passiveFlag = flag.Bool("passive", false, "non-interactive: passive discovery only, print candidates")
		defaultFlag = flag.Bool("default", false, "non-interactive: set the installed queue as system default")
		debugFlag   = flag.Bool("debug", false, "enable debug logging")
		versionFlag = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("printwizard %s (built %s)\n", Version, BuildTime)
		return
	}

	cfg, cfgPath, err := LoadWizardConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	discovery.SetDebugEnabled(cfg.Debug || *debugFlag)
	if cfgPath != "" {
		discovery.Debug("config loaded from " + cfgPath)
	}
	discovery.DetectCapabilities()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	d := discovery.NewDiscoverer(cfg.discoveryOptions())

	switch {
	case *passiveFlag:
		runPassiveOnly(ctx, d)
	case *ipFlag != "":
		if err := runHeadless(ctx, d, *ipFlag, *nameFlag, *modelFlag, *defaultFlag); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	default:
		w, err := newWizard(cfg, d, cfg.Debug || *debugFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer w.Close()
		if err := w.run(ctx); err != nil {
			if errors.Is(err, errCancelled) {
				fmt.Fprintln(os.Stderr, "Cancelled. Exiting.")
				os.Exit(130)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	}
}

// runPassiveOnly prints the raw candidate list for scripting use.
func runPassiveOnly(ctx context.Context, d *discovery.Discoverer) {
	candidates := discovery.DiscoverPassive(ctx, d.Options().PassiveWindow)
	printCandidates(os.Stdout, candidates)
}

// runHeadless discovers one host and optionally installs it without prompts.
func runHeadless(ctx context.Context, d *discovery.Discoverer, ip, name, modelOverride string, setDefault bool) error {
	res := d.DiscoverByIP(ctx, ip)
	if !res.Found() {
		return fmt.Errorf("no printer found at this address: %s", ip)
	}
	fmt.Printf("URI:   %s\nModel: %s\n", res.URI, res.Model)

	if name == "" {
		// discovery only; nothing to install
		return nil
	}
	model := res.Model
	if modelOverride != "" {
		model = modelOverride
	}
	if model == discovery.UnknownModel {
		return fmt.Errorf("model is %s; pass -model with a driver name or PPD path", discovery.UnknownModel)
	}
	req := spooler.InstallRequest{Name: name, URI: res.URI, Model: model, SetDefault: setDefault}
	if err := spooler.Install(ctx, req, nil); err != nil {
		return err
	}
	fmt.Printf("Printer %q installed.\n", name)
	return nil
}

// printCandidates renders the passive discovery results as a table.
func printCandidates(out io.Writer, candidates []discovery.Candidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(out, "No printers found via passive discovery.")
		return
	}
	tw := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NO\tMODEL\tURI")
	for i, c := range candidates {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, c.Model, c.URI)
	}
	tw.Flush()
}

// wizard drives the interactive flow.
type wizard struct {
	rl    *readline.Instance
	cfg   *WizardConfig
	d     *discovery.Discoverer
	log   *wizardLogger
	debug bool
}

func newWizard(cfg *WizardConfig, d *discovery.Discoverer, debug bool) (*wizard, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	log := &wizardLogger{out: rl.Stdout(), debug: debug}
	discovery.SetLogger(log)
	return &wizard{rl: rl, cfg: cfg, d: d, log: log, debug: debug}, nil
}

func (w *wizard) Close() {
	w.rl.Close()
}

func (w *wizard) out() io.Writer {
	return w.rl.Stdout()
}

// run walks the user through discovery, confirmation and installation.
func (w *wizard) run(ctx context.Context) error {
	fmt.Fprintln(w.out(), "=== Printer Setup Wizard ===")

	uri, model, err := w.chooseTarget(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w.out(), "\nDiscovered URI:   %s\nDiscovered model: %s\n\n", uri, model)

	name, err := w.ask("Name for this printer", w.cfg.Install.DefaultName)
	if err != nil {
		return err
	}

	needManual := model == discovery.UnknownModel
	if needManual {
		fmt.Fprintln(w.out(), "The model could not be auto-detected; a driver name or PPD file is required.")
	}
	manual := needManual
	if !manual {
		manual, err = w.askYesNo("Manually specify the driver model/PPD?", false)
		if err != nil {
			return err
		}
	}
	if manual {
		model, err = w.askDriver(name)
		if err != nil {
			return err
		}
	}

	ok, err := w.askYesNo(fmt.Sprintf("Install printer %s using driver/PPD %s?", name, model), true)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(w.out(), "Installation cancelled.")
		return nil
	}

	req := spooler.InstallRequest{Name: name, URI: uri, Model: model}
	if err := spooler.Install(ctx, req, w.log); err != nil {
		return err
	}
	fmt.Fprintf(w.out(), "Printer %q installed.\n", name)

	makeDefault := w.cfg.Install.SetDefault
	if !makeDefault {
		makeDefault, err = w.askYesNo("Set this printer as the system default?", false)
		if err != nil {
			return err
		}
	}
	if makeDefault {
		if err := spooler.SetDefault(ctx, name); err != nil {
			w.log.Warn("Failed to set default printer", "error", err)
		} else {
			fmt.Fprintf(w.out(), "%q is now the default printer.\n", name)
		}
	}
	return nil
}

// chooseTarget resolves a URI and model, either from a passive candidate
// the user selects or by probing a manually entered address.
func (w *wizard) chooseTarget(ctx context.Context) (uri, model string, err error) {
	doPassive, err := w.askYesNo("Search the network for printers? (recommended)", true)
	if err != nil {
		return "", "", err
	}
	if doPassive {
		candidates := discovery.DiscoverPassive(ctx, w.d.Options().PassiveWindow)
		if len(candidates) > 0 {
			printCandidates(w.out(), candidates)
			uri, model, err = w.selectCandidate(candidates)
			if err != nil {
				return "", "", err
			}
		}
	}
	if uri != "" {
		return uri, model, nil
	}

	fmt.Fprintln(w.out(), "Enter the printer's IP address. A router or gateway address is common for USB-attached printers.")
	ip, err := w.ask("Printer IP address", "192.168.1.1")
	if err != nil {
		return "", "", err
	}
	res := w.d.DiscoverByIP(ctx, ip)
	if !res.Found() {
		return "", "", fmt.Errorf("no printer found at this address: %s", ip)
	}
	return res.URI, res.Model, nil
}

// selectCandidate lets the user pick a row from the table, or 'm' to fall
// through to manual IP entry. Invalid indexes re-prompt.
func (w *wizard) selectCandidate(candidates []discovery.Candidate) (uri, model string, err error) {
	for {
		choice, err := w.ask("Number to install (or 'm' for manual IP)", "1")
		if err != nil {
			return "", "", err
		}
		if strings.EqualFold(choice, "m") {
			return "", "", nil
		}
		idx, convErr := strconv.Atoi(choice)
		if convErr != nil || idx < 1 || idx > len(candidates) {
			fmt.Fprintln(w.out(), "Invalid selection, try again.")
			continue
		}
		c := candidates[idx-1]
		return c.URI, c.Model, nil
	}
}

// askDriver collects either a validated PPD file path or a CUPS driver
// model name.
func (w *wizard) askDriver(printerName string) (string, error) {
	usePPD, err := w.askYesNo("Do you have a local PPD file for this printer?", false)
	if err != nil {
		return "", err
	}
	if usePPD {
		for {
			path, err := w.ask("PPD file path", "")
			if err != nil {
				return "", err
			}
			lower := strings.ToLower(path)
			st, statErr := os.Stat(path)
			if statErr == nil && !st.IsDir() &&
				(strings.HasSuffix(lower, ".ppd") || strings.HasSuffix(lower, ".ppd.gz")) {
				return path, nil
			}
			fmt.Fprintln(w.out(), "File not found or not a .ppd/.ppd.gz file, try again.")
		}
	}

	hint := printerName
	if i := strings.IndexAny(hint, "_-"); i > 0 {
		hint = hint[:i]
	}
	fmt.Fprintf(w.out(), "Run: lpinfo -m | grep -i '%s'\nand paste the exact driver name below.\n", hint)
	for {
		model, err := w.ask("Driver model name", "")
		if err != nil {
			return "", err
		}
		if model != "" {
			return model, nil
		}
	}
}

// ask prompts for a line of input, returning def on an empty answer.
func (w *wizard) ask(prompt, def string) (string, error) {
	if def != "" {
		w.rl.SetPrompt(fmt.Sprintf("%s [%s]: ", prompt, def))
	} else {
		w.rl.SetPrompt(prompt + ": ")
	}
	line, err := w.rl.Readline()
	if err != nil {
		// EOF or interrupt
		return "", errCancelled
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// askYesNo prompts for a boolean answer.
func (w *wizard) askYesNo(prompt string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		line, err := w.ask(fmt.Sprintf("%s (%s)", prompt, hint), "")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(w.out(), "Please answer y or n.")
	}
}

// wizardLogger routes discovery and spooler logs through the readline
// output writer so they do not clobber the prompt.
type wizardLogger struct {
	out   io.Writer
	debug bool
}

func (l *wizardLogger) write(level, msg string, context ...interface{}) {
	if len(context) > 0 {
		msg = fmt.Sprintf("%s %v", msg, context)
	}
	fmt.Fprintf(l.out, "  [%s] %s\n", level, msg)
}

func (l *wizardLogger) Error(msg string, context ...interface{}) { l.write("ERROR", msg, context...) }
func (l *wizardLogger) Warn(msg string, context ...interface{})  { l.write("WARN", msg, context...) }
func (l *wizardLogger) Info(msg string, context ...interface{})  { l.write("INFO", msg, context...) }
func (l *wizardLogger) Debug(msg string, context ...interface{}) {
	if !l.debug {
		return
	}
	l.write("DEBUG", msg, context...)
}
