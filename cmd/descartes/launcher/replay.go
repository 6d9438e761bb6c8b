package launcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Fantom-foundation/lachesis-base/kvdb/memorydb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/mclock"
	"github.com/ethereum/go-ethereum/crypto"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/descartes-rollups/descartes"
	"github.com/rony4d/descartes-rollups/integration"
	"github.com/rony4d/descartes-rollups/inter"
)

var replayCommand = cli.Command{
	Action:    replay,
	Name:      "replay",
	Usage:     "Run a scenario of timed operations against a fresh engine",
	ArgsUsage: "<scenario.json>",
	Description: `
The replay command assembles an engine from the configured preset, runs the
scenario's steps on a simulated clock and prints every step, every
notification and the final state.

A step is one of:
  {"op": "advance", "by": "24h1s"}
  {"op": "claim", "validator": 0, "hash": "0x..." | "any text"}
  {"op": "finalize"}
  {"op": "notify"}
  {"op": "resolve", "a": 0, "b": 2, "hash": "..."}
  {"op": "input", "validator": 0, "payload": "..."}
A step with "expect" must fail with that reason.`,
}

// Scenario is a replay file.
type Scenario struct {
	Steps []Step `json:"steps"`
}

// Step is one timed operation. Validators are referred to by index.
type Step struct {
	Op        string `json:"op"`
	By        string `json:"by,omitempty"`
	Validator int    `json:"validator,omitempty"`
	A         int    `json:"a,omitempty"`
	B         int    `json:"b,omitempty"`
	Hash      string `json:"hash,omitempty"`
	Payload   string `json:"payload,omitempty"`
	Expect    string `json:"expect,omitempty"`
}

// ErrScenario reports a step whose result differs from its expectation.
var ErrScenario = errors.New("scenario failed")

func replay(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("replay takes exactly one scenario file")
	}
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	var sc Scenario
	if err := json.Unmarshal(raw, &sc); err != nil {
		return fmt.Errorf("failed to parse scenario: %w", err)
	}
	return runScenario(ctx.App.Writer, cfg, sc)
}

func runScenario(w io.Writer, cfg Config, sc Scenario) error {
	gen, preset, err := makeDeployment(cfg)
	if err != nil {
		return err
	}
	log, err := setupLogging(io.Discard, cfg.Logging, SentryConfig{}, cfg.Node.Name)
	if err != nil {
		return err
	}

	clock := &mclock.Simulated{}
	engine, err := integration.MakeEngine(gen, preset, memorydb.New(), log, descartes.WithClock(clock))
	if err != nil {
		return err
	}
	defer engine.Close()
	d := engine.Descartes

	watch := newWatcher(d)
	defer watch.close()
	show := func(ev interface{}) {
		fmt.Fprintf(w, "  %s\n", describe(ev))
	}

	validator := func(i int) (common.Address, error) {
		if i < 0 || i >= len(gen.Validators) {
			return common.Address{}, fmt.Errorf("validator %d out of range", i)
		}
		return gen.Validators[i], nil
	}

	for n, step := range sc.Steps {
		var err error
		switch step.Op {
		case "advance":
			var by time.Duration
			if by, err = time.ParseDuration(step.By); err != nil {
				return fmt.Errorf("step %d: %w", n, err)
			}
			clock.Run(by)
		case "claim":
			var v common.Address
			if v, err = validator(step.Validator); err != nil {
				return fmt.Errorf("step %d: %w", n, err)
			}
			err = d.Claim(v, parseHash(step.Hash))
		case "finalize":
			err = d.FinalizeEpoch()
		case "notify":
			_, err = d.NotifyInput(gen.Input)
		case "resolve":
			var a, b common.Address
			if a, err = validator(step.A); err != nil {
				return fmt.Errorf("step %d: %w", n, err)
			}
			if b, err = validator(step.B); err != nil {
				return fmt.Errorf("step %d: %w", n, err)
			}
			err = d.ResolveDispute(gen.Dispute, a, b, parseHash(step.Hash))
		case "input":
			var v common.Address
			if v, err = validator(step.Validator); err != nil {
				return fmt.Errorf("step %d: %w", n, err)
			}
			_, err = engine.Input.AddInput(v, []byte(step.Payload))
		default:
			return fmt.Errorf("step %d: unknown op %q", n, step.Op)
		}

		result := "ok"
		if err != nil {
			result = "error: " + err.Error()
		}
		fmt.Fprintf(w, "step %d %s: %s\n", n, step.Op, result)
		watch.drain(show)

		if err := checkExpectation(step, err); err != nil {
			return fmt.Errorf("step %d: %w", n, err)
		}
	}

	fmt.Fprintf(w, "phase=%s epoch=%d validators=%d state=%s\n",
		d.CurrentPhase(), d.CurrentEpoch(), len(d.Validators()), d.StateHash().Hex())
	return nil
}

func checkExpectation(step Step, err error) error {
	switch {
	case step.Expect == "" && err != nil:
		var perr *inter.Error
		if errors.As(err, &perr) {
			return nil
		}
		return err
	case step.Expect != "" && err == nil:
		return fmt.Errorf("%w: expected %q, got success", ErrScenario, step.Expect)
	case step.Expect != "" && !strings.Contains(err.Error(), step.Expect):
		return fmt.Errorf("%w: expected %q, got %q", ErrScenario, step.Expect, err.Error())
	}
	return nil
}

// parseHash takes a hex hash as is and hashes anything else.
func parseHash(s string) common.Hash {
	if s == "" {
		return inter.EmptyClaim
	}
	if strings.HasPrefix(s, "0x") && len(s) == 66 {
		return common.HexToHash(s)
	}
	return crypto.Keccak256Hash([]byte(s))
}

func describe(ev interface{}) string {
	switch e := ev.(type) {
	case descartes.ClaimEvent:
		return fmt.Sprintf("Claim(%d, %s, %s)", e.Epoch, e.Claimant.Hex(), e.Hash.Hex())
	case descartes.PhaseChangeEvent:
		return fmt.Sprintf("PhaseChange(%s)", e.Phase)
	case descartes.FinalizeEpochEvent:
		return fmt.Sprintf("FinalizeEpoch(%d, %s)", e.Epoch, e.Hash.Hex())
	case descartes.ResolveDisputeEvent:
		return fmt.Sprintf("ResolveDispute(%s, %s, %s)", e.ClaimantA.Hex(), e.ClaimantB.Hex(), e.Winning.Hex())
	default:
		return fmt.Sprintf("%v", ev)
	}
}
