// Command tradec is the client-side CLI and interactive REPL for the
// matching-engine wire protocol: it resolves a transport and wire protocol
// (or auto-discovers both), then dispatches a scenario id to the engine
// client and scenario-stress packages (spec §6.4).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kstaniek/tradec/internal/client"
	"github.com/kstaniek/tradec/internal/metrics"
	"github.com/kstaniek/tradec/internal/scenario"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, showVersion := parseFlags()
	if showVersion {
		fmt.Printf("tradec %s (commit %s, built %s)\n", version, commit, date)
		return 0
	}
	if cfg == nil {
		return 2 // configuration error, already printed
	}
	l := setupLogger(cfg.logFormat, cfg.logLevel)

	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		srv := metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	rl, err := scenario.OpenRunLog(cfg.logFile)
	if err != nil {
		l.Error("runlog_open_error", "error", err)
		return 1
	}
	defer func() {
		if err := rl.Close(); err != nil {
			l.Error("runlog_close_error", "error", err)
		}
		if rl.Dropped() > 0 {
			l.Warn("runlog_dropped_lines", "count", rl.Dropped())
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := client.New(ctx, client.Config{
		Host:      cfg.host,
		Port:      cfg.port,
		Transport: resolveTransport(cfg),
		Protocol:  resolveProtocol(cfg),
	})
	if err != nil {
		l.Error("connect_error", "error", err)
		return 1
	}
	defer c.Close()

	metrics.SetReadinessFunc(func() bool { return ctx.Err() == nil })

	l.Info("scenario_start", "scenario", cfg.scenario, "transport", map[bool]string{true: "tcp", false: "udp"}[c.IsTCP()], "protocol", c.Protocol())
	outcome, err := runScenario(c, cfg.scenario, cfg.batchSize, rl, cfg.quiet)
	if err != nil {
		l.Error("scenario_error", "scenario", cfg.scenario, "error", err)
		return 1
	}

	fmt.Println(outcome.summary)
	if !outcome.passed {
		l.Warn("scenario_validation_failed", "scenario", cfg.scenario, "summary", outcome.summary)
		return 1
	}
	return 0
}

func resolveTransport(cfg *appConfig) client.Transport {
	switch {
	case cfg.useTCP:
		return client.TCP
	case cfg.useUDP:
		return client.UDP
	default:
		return client.AutoTransport
	}
}

func resolveProtocol(cfg *appConfig) client.Protocol {
	switch {
	case cfg.useBin:
		return client.Binary
	case cfg.useCSV:
		return client.CSV
	default:
		return client.AutoProtocol
	}
}
