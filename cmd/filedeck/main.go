package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"filedeck/internal/config"
	"filedeck/internal/console"
	"filedeck/internal/disk"
	"filedeck/internal/exitcodes"
	"filedeck/internal/journal"
	"filedeck/internal/limiter"
	"filedeck/internal/logging"
	"filedeck/internal/metrics"
	"filedeck/internal/registry"
	"filedeck/internal/safety"
)

const probeTimeout = 2 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type flags struct {
	configPath  string
	root        string
	recursive   bool
	filter      string
	selection   string
	del         bool
	rename      string
	jsonOutput  bool
	interactive bool

	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{set: make(map[string]bool)}

	fs := flag.NewFlagSet("filedeck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "Path to configuration file (optional)")
	fs.StringVar(&f.root, "root", "", "Directory to list (overrides config root)")
	fs.BoolVar(&f.recursive, "recursive", false, "List subdirectories recursively")
	fs.StringVar(&f.filter, "filter", "", "Show only names containing this text (case-sensitive)")
	fs.StringVar(&f.selection, "select", "", `Entries to select: "all", "none" or indices such as 0,2,5-7`)
	fs.BoolVar(&f.del, "delete", false, "Delete the selected entries")
	fs.StringVar(&f.rename, "rename", "", "Rename the selected entries, inserting this suffix before the extension")
	fs.BoolVar(&f.jsonOutput, "json", false, "Print the listing and results as JSON")
	fs.BoolVar(&f.interactive, "i", false, "Start the interactive console")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	if f.del && f.set["rename"] {
		return nil, errors.New("-delete and -rename are mutually exclusive")
	}
	if f.interactive && (f.del || f.set["rename"] || f.set["select"] || f.jsonOutput) {
		return nil, errors.New("-i cannot be combined with -select, -delete, -rename or -json")
	}
	return f, nil
}

// loadConfig applies flag overrides on top of the config file or defaults.
func loadConfig(f *flags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}

	if f.set["root"] {
		abs, err := filepath.Abs(f.root)
		if err != nil {
			return nil, fmt.Errorf("root: %w", err)
		}
		cfg.Root = abs
	}
	if f.set["recursive"] {
		cfg.Recursive = f.recursive
	}
	if f.set["filter"] {
		cfg.Filter = f.filter
	}
	return cfg, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitcodes.Success
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitcodes.InvalidConfig
	}

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: Failed to load config: %v\n", err)
		return exitcodes.InvalidConfig
	}

	logger := logging.New(cfg, stderr)

	regOpts := []registry.Option{
		registry.WithLogger(logger.With().Str("component", "registry").Logger()),
	}

	metrics.Init()
	regOpts = append(regOpts, registry.WithRecorder(metrics.Recorder{}))

	var j *journal.Journal
	if cfg.DatabasePath != "" {
		logger.Debug().Str("path", cfg.DatabasePath).Msg("Opening operation journal")
		j, err = journal.Open(cfg.DatabasePath)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to open journal")
			return exitcodes.RuntimeError
		}
		defer func() {
			if err := j.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close journal")
			}
		}()
		regOpts = append(regOpts, registry.WithRecorder(j))
	}

	if addr := cfg.PrometheusAddress(); addr != "" {
		metrics.StartServer(addr, logger)
		if j != nil {
			hc := metrics.NewHealthChecker(30 * time.Second)
			hc.Register("journal", j.Ping, probeTimeout)
			hc.Start(context.Background())
			metrics.SetHealthChecker(hc)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metrics.Shutdown(ctx, logger)
		}()
	}

	if cfg.Guard.Enabled {
		regOpts = append(regOpts, registry.WithGuard(safety.NewGuard(cfg.Guard.ProtectedPaths)))
	} else {
		logger.Warn().Msg("Safety guard disabled: delete and rename targets are not checked")
	}

	if lim := limiter.NewCPULimiter(cfg.Limits.MaxCPUPercent); lim.Enabled() {
		regOpts = append(regOpts, registry.WithThrottle(lim))
	}

	reg := registry.New(nil, regOpts...)

	if f.interactive {
		return runConsole(reg, cfg, logger, stdin, stdout)
	}
	return runOnce(reg, cfg, f, logger, stdout, stderr)
}

func probeRoot(path string) error {
	return disk.Probe(path, probeTimeout)
}

// diskUsage also refreshes the filesystem gauges for path.
func diskUsage(path string) (disk.Usage, error) {
	u, err := disk.GetDiskUsage(path)
	if err == nil {
		metrics.UpdateDiskMetrics(path, u.FreeBytes, u.TotalBytes)
	}
	return u, err
}

func runConsole(reg *registry.Registry, cfg *config.Config, logger zerolog.Logger, stdin io.Reader, stdout io.Writer) int {
	con := console.New(reg, stdout,
		console.WithLogger(logger.With().Str("component", "console").Logger()),
		console.WithFilter(cfg.Filter),
		console.WithRecursive(cfg.Recursive),
		console.WithProbe(probeRoot),
		console.WithDiskUsage(diskUsage),
	)
	if cfg.Root != "" {
		con.Scan(cfg.Root)
	}
	if err := con.Run(stdin); err != nil {
		logger.Error().Err(err).Msg("Console input failed")
		return exitcodes.RuntimeError
	}
	return exitcodes.Success
}
