package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// appConfig holds the fully resolved CLI configuration: flags first, then
// TRADEC_* environment overrides for anything the user didn't pass
// explicitly (spec §6.4/§6.5).
type appConfig struct {
	useTCP   bool
	useUDP   bool
	useBin   bool
	useCSV   bool
	quiet    bool
	host     string
	port     int
	scenario string

	logFormat   string
	logLevel    string
	metricsAddr string
	logFile     string
	batchSize   int
}

func parseFlags() (*appConfig, bool) {
	useTCP := flag.Bool("tcp", false, "Force TCP transport")
	useUDP := flag.Bool("udp", false, "Force UDP transport")
	useBin := flag.Bool("binary", false, "Force binary wire protocol")
	useCSV := flag.Bool("csv", false, "Force CSV wire protocol")
	quiet := flag.Bool("quiet", false, "Suppress per-message interactive output")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	logFile := flag.String("log-file", "", "Optional session run-log path; a .zst suffix streams it through zstd")
	batchSize := flag.Int("batch-size", 0, "Batch size for batched-matching-stress scenarios (0 = default)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	cfg := &appConfig{
		useTCP: *useTCP, useUDP: *useUDP, useBin: *useBin, useCSV: *useCSV, quiet: *quiet,
		logFormat: *logFormat, logLevel: *logLevel, metricsAddr: *metricsAddr, logFile: *logFile,
		batchSize: *batchSize,
	}

	setFlags := map[string]struct{}{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })
	if err := applyEnvOverrides(cfg, setFlags); err != nil {
		fmt.Printf("environment override error: %v\n", err)
		return nil, *showVersion
	}

	args := flag.Args()
	switch len(args) {
	case 0:
		// host/port/scenario left unset: discovery + default scenario "i".
		cfg.scenario = "i"
	case 3:
		cfg.host = args[0]
		port, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Printf("configuration error: invalid port %q\n", args[1])
			return nil, *showVersion
		}
		cfg.port = port
		cfg.scenario = args[2]
	default:
		fmt.Println("usage: tradec [--tcp|--udp] [--binary|--csv] [--quiet] [<host> <port> <scenario>]")
		return nil, *showVersion
	}

	if err := cfg.validate(); err != nil {
		fmt.Printf("configuration error: %v\n", err)
		return nil, *showVersion
	}
	return cfg, *showVersion
}

func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if c.useTCP && c.useUDP {
		return errors.New("--tcp and --udp are mutually exclusive")
	}
	if c.useBin && c.useCSV {
		return errors.New("--binary and --csv are mutually exclusive")
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.batchSize < 0 {
		return errors.New("batch-size must be >= 0")
	}
	return nil
}

// applyEnvOverrides maps TRADEC_* environment variables onto cfg unless the
// matching flag was explicitly set, following the teacher's flag.Visit
// precedence pattern (flag wins over env, env wins over default).
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }
	var firstErr error

	if _, ok := set["log-format"]; !ok {
		if v, ok := get("TRADEC_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("TRADEC_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("TRADEC_METRICS_ADDR"); ok {
			c.metricsAddr = v
		}
	}
	if _, ok := set["log-file"]; !ok {
		if v, ok := get("TRADEC_LOG_FILE"); ok {
			c.logFile = v
		}
	}
	if _, ok := set["quiet"]; !ok {
		if v, ok := get("TRADEC_QUIET"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.quiet = true
			case "0", "false", "no", "off":
				c.quiet = false
			}
		}
	}
	if _, ok := set["batch-size"]; !ok {
		if v, ok := get("TRADEC_BATCH_SIZE"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				c.batchSize = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid TRADEC_BATCH_SIZE: %w", err)
			}
		}
	}
	return firstErr
}
