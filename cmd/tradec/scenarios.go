package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kstaniek/tradec/internal/client"
	"github.com/kstaniek/tradec/internal/scenario"
	"github.com/kstaniek/tradec/internal/wire"
)

// scenarioOutcome is what every scenario run boils down to for main's exit
// code decision (spec §6.4: "exit code 0 on success, non-zero on validation
// failure or connection error").
type scenarioOutcome struct {
	summary string
	passed  bool
}

// runScenario dispatches id to one of the stable scenario ids from spec §6.4.
// Sizes for the numbered stress flows are fixed by id; batchSize only
// affects the batched-matching-stress family and is ignored elsewhere.
func runScenario(c *client.Client, id string, batchSize int, rl *scenario.RunLog, quiet bool) (scenarioOutcome, error) {
	switch id {
	case "i":
		return runInteractive(c, rl, quiet)
	case "1":
		return runBasicSingleOrder(c)
	case "2":
		return runBasicOrderAndCancel(c)
	case "3":
		return runBasicFlush(c)

	case "10":
		return runUnmatched(c, 1_000)
	case "11":
		return runUnmatched(c, 10_000)
	case "12":
		return runUnmatched(c, 100_000)

	case "20":
		return runAdaptive(c, 1_000)
	case "21":
		return runAdaptive(c, 10_000)
	case "22":
		return runAdaptive(c, 100_000)
	case "23":
		return runBatched(c, 250_000, batchSize)
	case "24":
		return runBatched(c, 500_000, batchSize)
	case "25":
		return runBatched(c, 250_000_000, batchSize)

	case "30":
		return runDual(c, 500_000)
	case "31":
		return runDual(c, 1_000_000)
	case "32":
		return runDual(c, 100_000_000)

	case "40":
		return runThreaded(c, 1_000)
	case "41":
		return runThreaded(c, 10_000)
	case "42":
		return runThreaded(c, 100_000)
	case "43":
		return runThreaded(c, 250_000)
	case "44":
		return runThreaded(c, 500_000)
	case "45":
		return runThreaded(c, 1_000_000)

	default:
		return scenarioOutcome{}, fmt.Errorf("%w: %q", client.ErrInvalidConfig, id)
	}
}

func runUnmatched(c *client.Client, n int) (scenarioOutcome, error) {
	r, err := scenario.UnmatchedStress(c, n)
	if err != nil {
		return scenarioOutcome{}, err
	}
	return scenarioOutcome{
		summary: fmt.Sprintf("unmatched stress: sent=%d elapsed=%s acks=%d/%d missing=%d",
			r.Sent, r.Elapsed, r.Validate.ObservedAcks, r.Validate.ExpectedAcks, r.Validate.MissingAcks),
		passed: r.Validate.Pass,
	}, nil
}

func runAdaptive(c *client.Client, trades int) (scenarioOutcome, error) {
	r, err := scenario.AdaptiveMatchingStress(c, trades)
	if err != nil {
		return scenarioOutcome{}, err
	}
	return scenarioOutcome{
		summary: fmt.Sprintf("adaptive matching stress: pairs=%d elapsed=%s acks=%d/%d trades=%d/%d",
			r.PairsSent, r.Elapsed, r.Validate.ObservedAcks, r.Validate.ExpectedAcks, r.Validate.ObservedTrade, r.Validate.ExpectedTrade),
		passed: r.Validate.Pass,
	}, nil
}

func runBatched(c *client.Client, trades, batchSize int) (scenarioOutcome, error) {
	r, err := scenario.BatchedMatchingStress(c, trades, batchSize)
	if err != nil {
		return scenarioOutcome{}, err
	}
	return scenarioOutcome{
		summary: fmt.Sprintf("batched matching stress: pairs=%d elapsed=%s acks=%d/%d trades=%d/%d",
			r.PairsSent, r.Elapsed, r.Validate.ObservedAcks, r.Validate.ExpectedAcks, r.Validate.ObservedTrade, r.Validate.ExpectedTrade),
		passed: r.Validate.Pass,
	}, nil
}

func runDual(c *client.Client, pairsPerSymbol int) (scenarioOutcome, error) {
	r, err := scenario.DualProcessorMatchingStress(c, pairsPerSymbol)
	if err != nil {
		return scenarioOutcome{}, err
	}
	return scenarioOutcome{
		summary: fmt.Sprintf("dual-processor matching stress: pairs/symbol=%d elapsed=%s trades=%d/%d",
			r.PairsSent, r.Elapsed, r.Validate.ObservedTrade, r.Validate.ExpectedTrade),
		passed: r.Validate.Pass,
	}, nil
}

func runThreaded(c *client.Client, targetTrades int) (scenarioOutcome, error) {
	r, err := scenario.ThreadedMatchingStress(c, targetTrades)
	if err != nil {
		return scenarioOutcome{}, err
	}
	return scenarioOutcome{
		summary: fmt.Sprintf("threaded matching stress: pairs=%d elapsed=%s send_errors=%d trades=%d/%d",
			r.PairsSent, r.Elapsed, r.SendErrors, r.Validate.ObservedTrade, r.Validate.ExpectedTrade),
		passed: r.Validate.Pass,
	}, nil
}

func runBasicSingleOrder(c *client.Client) (scenarioOutcome, error) {
	if err := c.SendNewOrder(1, "IBM", 100, 10, wire.Buy, 1); err != nil {
		return scenarioOutcome{}, err
	}
	stats := scenario.PatientDrain(c, 1, 5000)
	return scenarioOutcome{
		summary: fmt.Sprintf("basic single order: acks=%d", stats.Acks.Load()),
		passed:  stats.Acks.Load() >= 1,
	}, nil
}

func runBasicOrderAndCancel(c *client.Client) (scenarioOutcome, error) {
	if err := c.SendNewOrder(1, "IBM", 100, 10, wire.Buy, 1); err != nil {
		return scenarioOutcome{}, err
	}
	if err := c.SendCancel(1, "IBM", 1); err != nil {
		return scenarioOutcome{}, err
	}
	stats := scenario.PatientDrain(c, 2, 5000)
	return scenarioOutcome{
		summary: fmt.Sprintf("basic order+cancel: acks=%d cancel_acks=%d", stats.Acks.Load(), stats.CancelAcks.Load()),
		passed:  stats.Acks.Load() >= 1,
	}, nil
}

func runBasicFlush(c *client.Client) (scenarioOutcome, error) {
	if err := c.SendFlush(); err != nil {
		return scenarioOutcome{}, err
	}
	if err := c.SendNewOrder(1, "IBM", 100, 10, wire.Buy, 1); err != nil {
		return scenarioOutcome{}, err
	}
	stats := scenario.PatientDrain(c, 1, 5000)
	return scenarioOutcome{
		summary: fmt.Sprintf("basic flush: acks=%d", stats.Acks.Load()),
		passed:  stats.Acks.Load() >= 1,
	}, nil
}

// runInteractive is the minimal REPL: read a command per line, send it, and
// print every sent and received message (spec §7 "Interactive scenarios
// print each sent and each received message in a stable human-readable
// form"). This glue is intentionally thin; the command parser and REPL are
// an external collaborator to the engine-client API it calls into.
func runInteractive(c *client.Client, rl *scenario.RunLog, quiet bool) (scenarioOutcome, error) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("tradec interactive: new <user> <symbol> <price> <qty> B|S <order_id> | cancel <user> <order_id> | flush | quit")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "quit", "exit":
			return scenarioOutcome{summary: "interactive session ended", passed: true}, nil
		case "new":
			if len(fields) != 7 {
				fmt.Println("usage: new <user> <symbol> <price> <qty> B|S <order_id>")
				continue
			}
			if err := sendInteractiveNewOrder(c, fields[1:]); err != nil {
				fmt.Println("error:", err)
				continue
			}
		case "cancel":
			if len(fields) != 3 {
				fmt.Println("usage: cancel <user> <order_id>")
				continue
			}
			user, uErr := strconv.Atoi(fields[1])
			orderID, oErr := strconv.Atoi(fields[2])
			if uErr != nil || oErr != nil {
				fmt.Println("error: user and order_id must be numeric")
				continue
			}
			if err := c.SendCancel(uint32(user), "", uint32(orderID)); err != nil {
				fmt.Println("error:", err)
				continue
			}
			rl.Write(fmt.Sprintf("sent cancel user=%d order_id=%d", user, orderID))
		case "flush":
			if err := c.SendFlush(); err != nil {
				fmt.Println("error:", err)
				continue
			}
			rl.Write("sent flush")
		default:
			fmt.Println("unknown command:", fields[0])
			continue
		}
		drainInteractive(c, rl, quiet)
	}
	return scenarioOutcome{summary: "interactive session ended", passed: true}, nil
}

func sendInteractiveNewOrder(c *client.Client, fields []string) error {
	user, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}
	symbol := fields[1]
	price, err := strconv.Atoi(fields[2])
	if err != nil {
		return fmt.Errorf("invalid price: %w", err)
	}
	qty, err := strconv.Atoi(fields[3])
	if err != nil {
		return fmt.Errorf("invalid quantity: %w", err)
	}
	side, err := wire.ParseSide(fields[4][0])
	if err != nil {
		return err
	}
	orderID, err := strconv.Atoi(fields[5])
	if err != nil {
		return fmt.Errorf("invalid order_id: %w", err)
	}
	return c.SendNewOrder(uint32(user), symbol, uint32(price), uint32(qty), side, uint32(orderID))
}

func drainInteractive(c *client.Client, rl *scenario.RunLog, quiet bool) {
	for _, msg := range scenario.QuickDrainMessages(c) {
		line := fmt.Sprintf("recv %T %+v", msg, msg)
		rl.Write(line)
		if !quiet {
			fmt.Println(line)
		}
	}
}
