package descartes

import (
	"errors"
	"testing"
	"time"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/mclock"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/descartes-rollups/dispute"
	"github.com/rony4d/descartes-rollups/input"
	"github.com/rony4d/descartes-rollups/inter"
	"github.com/rony4d/descartes-rollups/inter/ier"
	"github.com/rony4d/descartes-rollups/output"
	"github.com/rony4d/descartes-rollups/rollup"
	"github.com/rony4d/descartes-rollups/rollup/genesis"
)

const (
	inputDuration   = 24 * time.Hour
	challengePeriod = 7 * 24 * time.Hour
)

var (
	v0 = genesis.FakeValidator(0)
	v1 = genesis.FakeValidator(1)
	v2 = genesis.FakeValidator(2)

	hashH  = crypto.Keccak256Hash([]byte("hello"))
	hashH2 = crypto.Keccak256Hash([]byte("goodbye"))
)

type countingInput struct {
	accumulations int
	epochs        int
}

func (c *countingInput) OnNewInputAccumulation() { c.accumulations++ }
func (c *countingInput) OnNewEpoch()             { c.epochs++ }

type failingOutput struct {
	*output.Store
	fail bool
}

func (f *failingOutput) OnNewEpoch(rec ier.FinalizedEpoch) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Store.OnNewEpoch(rec)
}

type testEnv struct {
	d     *Descartes
	gen   genesis.Genesis
	clock *mclock.Simulated
	out   *output.Store
	in    *countingInput
	rec   *recorder
}

func newTestEnv(t *testing.T, rules rollup.Rules, opts ...Option) *testEnv {
	logger, _ := test.NewNullLogger()
	env := &testEnv{
		gen:   genesis.FakeGenesis(3, rules),
		clock: &mclock.Simulated{},
		out:   output.NewMem(),
		in:    &countingInput{},
	}
	opts = append([]Option{
		WithClock(env.clock),
		WithLogger(logger),
		WithOutput(env.out),
		WithInput(env.in),
	}, opts...)
	d, err := New(env.gen, opts...)
	require.NoError(t, err)
	env.d = d
	env.rec = newRecorder(d)
	t.Cleanup(d.Close)
	return env
}

// closeInput moves the clock just past the input window.
func (env *testEnv) closeInput() {
	env.clock.Run(inputDuration + time.Second)
}

type recorder struct {
	claims   chan ClaimEvent
	phases   chan PhaseChangeEvent
	finals   chan FinalizeEpochEvent
	resolves chan ResolveDisputeEvent
}

func newRecorder(d *Descartes) *recorder {
	r := &recorder{
		claims:   make(chan ClaimEvent, 64),
		phases:   make(chan PhaseChangeEvent, 64),
		finals:   make(chan FinalizeEpochEvent, 64),
		resolves: make(chan ResolveDisputeEvent, 64),
	}
	d.SubscribeClaim(r.claims)
	d.SubscribePhaseChange(r.phases)
	d.SubscribeFinalizeEpoch(r.finals)
	d.SubscribeResolveDispute(r.resolves)
	return r
}

func drain[T any](ch chan T) []T {
	var out []T
	for {
		select {
		case v := <-ch:
			out = append(out, v)
		default:
			return out
		}
	}
}

func phases(events []PhaseChangeEvent) []inter.Phase {
	var out []inter.Phase
	for _, e := range events {
		out = append(out, e.Phase)
	}
	return out
}

func TestNew(t *testing.T) {
	env := newTestEnv(t, rollup.MainNetRules())
	d := env.d

	require.Equal(t, CreatedEvent{
		Input:            env.gen.Input,
		Output:           env.gen.Output,
		ValidatorManager: env.gen.ValidatorManager,
		Dispute:          env.gen.Dispute,
		InputDuration:    inter.Timestamp(inputDuration),
		ChallengePeriod:  inter.Timestamp(challengePeriod),
	}, d.Created())
	require.Equal(t, inter.InputAccumulation, d.CurrentPhase())
	require.Equal(t, idx.Epoch(0), d.CurrentEpoch())
	require.Equal(t, []common.Address{v0, v1, v2}, d.Validators())
	require.IsType(t, dispute.FirstClaimWins{}, d.Arbiter())

	_, err := New(genesis.FakeGenesis(0, rollup.MainNetRules()))
	require.Error(t, err)
}

func TestCurrentPhaseIsComputed(t *testing.T) {
	env := newTestEnv(t, rollup.TestNetRules())
	d := env.d
	start := d.InputAccumulationStart()

	env.clock.Run(inputDuration)
	require.Equal(t, inter.InputAccumulation, d.CurrentPhase())
	require.Equal(t, idx.Epoch(0), d.CurrentEpoch())

	env.clock.Run(time.Nanosecond)
	require.Equal(t, inter.AwaitingConsensus, d.CurrentPhase())
	require.Equal(t, idx.Epoch(1), d.CurrentEpoch())

	// Reads do not commit the transition.
	require.Equal(t, inter.InputAccumulation, d.state.Phase)
	require.Equal(t, start, d.InputAccumulationStart())
	require.Empty(t, drain(env.rec.phases))
	require.Zero(t, env.in.accumulations)
}

func TestClaimRejectedDuringInputAccumulation(t *testing.T) {
	env := newTestEnv(t, rollup.TestNetRules())
	before := env.d.StateHash()

	err := env.d.Claim(v0, hashH)
	require.ErrorIs(t, err, inter.ErrClaimPhase)
	require.True(t, err.(*inter.Error).Retryable())
	require.Equal(t, before, env.d.StateHash())
	require.Empty(t, drain(env.rec.claims))
}

func TestClaimValidation(t *testing.T) {
	env := newTestEnv(t, rollup.TestNetRules())
	d := env.d

	for _, closed := range []bool{false, true} {
		if closed {
			env.closeInput()
		}
		before := d.StateHash()

		require.ErrorIs(t, d.Claim(v0, inter.EmptyClaim), inter.ErrEmptyClaim)
		require.ErrorIs(t, d.Claim(common.HexToAddress("0xdead"), hashH), inter.ErrNotValidator)

		require.Equal(t, before, d.StateHash())
		require.Empty(t, drain(env.rec.phases))
		require.Zero(t, env.in.accumulations)
	}
}

// 3 validators agree on H in one round.
func TestUnanimousClaims(t *testing.T) {
	env := newTestEnv(t, rollup.TestNetRules())
	d := env.d
	env.closeInput()

	require.NoError(t, d.Claim(v0, hashH))
	require.Equal(t, inter.AwaitingConsensus, d.CurrentPhase())
	require.NoError(t, d.Claim(v1, hashH))
	require.NoError(t, d.Claim(v2, hashH))

	require.Equal(t, inter.InputAccumulation, d.CurrentPhase())
	require.Equal(t, idx.Epoch(1), d.CurrentEpoch())
	require.Equal(t, []FinalizeEpochEvent{{Epoch: 0, Hash: hashH}}, drain(env.rec.finals))
	require.Equal(t, []inter.Phase{inter.AwaitingConsensus, inter.InputAccumulation}, phases(drain(env.rec.phases)))
	require.Equal(t, []ClaimEvent{
		{Epoch: 0, Claimant: v0, Hash: hashH},
		{Epoch: 0, Claimant: v1, Hash: hashH},
		{Epoch: 0, Claimant: v2, Hash: hashH},
	}, drain(env.rec.claims))

	rec, err := env.out.FinalizedEpoch(0)
	require.NoError(t, err)
	require.Equal(t, hashH, rec.Hash)
	require.Equal(t, []common.Address{v0, v1, v2}, rec.Claimants)
	require.Equal(t, 1, env.in.accumulations)
	require.Equal(t, 1, env.in.epochs)
	require.Equal(t, inter.FromAbsTime(env.clock.Now()), d.InputAccumulationStart())
	require.Equal(t, float64(1), testutil.ToFloat64(d.metrics.finalized))
	require.Equal(t, float64(2), testutil.ToFloat64(d.metrics.claims.WithLabelValues("NoConflict")))
	require.Equal(t, float64(1), testutil.ToFloat64(d.metrics.claims.WithLabelValues("Consensus")))
}

// Validators 0 and 1 claim H, validator 2 claims H2; claim A wins inline.
func TestConflictResolvedInline(t *testing.T) {
	env := newTestEnv(t, rollup.TestNetRules())
	d := env.d
	env.closeInput()

	require.NoError(t, d.Claim(v0, hashH))
	require.NoError(t, d.Claim(v1, hashH))
	require.NoError(t, d.Claim(v2, hashH2))

	require.Equal(t, []ResolveDisputeEvent{{ClaimantA: v0, ClaimantB: v2, Winning: hashH}}, drain(env.rec.resolves))
	require.Equal(t, []common.Address{v0, v1}, d.Validators())
	require.Equal(t, inter.InputAccumulation, d.CurrentPhase())
	require.Equal(t, []FinalizeEpochEvent{{Epoch: 0, Hash: hashH}}, drain(env.rec.finals))
	require.Equal(t, float64(1), testutil.ToFloat64(d.metrics.disputes))

	// The survivors carry over.
	env.closeInput()
	require.ErrorIs(t, d.Claim(v2, hashH), inter.ErrNotValidator)
	require.NoError(t, d.Claim(v0, hashH2))
	require.NoError(t, d.Claim(v1, hashH2))
	require.Equal(t, idx.Epoch(2), d.CurrentEpoch())
	require.Equal(t, []FinalizeEpochEvent{{Epoch: 1, Hash: hashH2}}, drain(env.rec.finals))
}

func TestConflictBeforeAllClaimed(t *testing.T) {
	env := newTestEnv(t, rollup.TestNetRules())
	d := env.d
	env.closeInput()

	require.NoError(t, d.Claim(v0, hashH))
	require.NoError(t, d.Claim(v1, hashH2))

	require.Len(t, drain(env.rec.resolves), 1)
	require.Equal(t, []common.Address{v0, v2}, d.Validators())
	require.Equal(t, inter.AwaitingConsensus, d.CurrentPhase())
	require.Equal(t, hashH, d.CurrentClaim())
	require.Empty(t, drain(env.rec.finals))

	require.NoError(t, d.Claim(v2, hashH))
	require.Equal(t, inter.InputAccumulation, d.CurrentPhase())
}

// Only one of three validators claims; it cannot claim twice.
func TestClaimTwiceInRound(t *testing.T) {
	env := newTestEnv(t, rollup.TestNetRules())
	d := env.d
	env.closeInput()

	require.NoError(t, d.Claim(v0, hashH))
	env.closeInput()

	before := d.StateHash()
	require.ErrorIs(t, d.Claim(v0, hashH), inter.ErrAlreadyClaimed)
	require.ErrorIs(t, d.Claim(v0, hashH2), inter.ErrAlreadyClaimed)
	require.Equal(t, before, d.StateHash())
	require.Equal(t, inter.AwaitingConsensus, d.CurrentPhase())
	require.Equal(t, idx.Epoch(1), d.CurrentEpoch())
}

func TestFinalizeEpoch(t *testing.T) {
	env := newTestEnv(t, rollup.TestNetRules())
	d := env.d

	require.ErrorIs(t, d.FinalizeEpoch(), inter.ErrFinalizePhase)

	env.closeInput()
	require.ErrorIs(t, d.FinalizeEpoch(), inter.ErrNoClaim)
	require.Equal(t, inter.InputAccumulation, d.state.Phase)

	require.NoError(t, d.Claim(v0, hashH))
	require.ErrorIs(t, d.FinalizeEpoch(), inter.ErrChallengePeriod)

	env.clock.Run(challengePeriod)
	require.ErrorIs(t, d.FinalizeEpoch(), inter.ErrChallengePeriod)

	env.clock.Run(time.Nanosecond)
	require.NoError(t, d.FinalizeEpoch())
	require.Equal(t, inter.InputAccumulation, d.CurrentPhase())
	require.Equal(t, idx.Epoch(1), d.CurrentEpoch())
	require.Equal(t, []FinalizeEpochEvent{{Epoch: 0, Hash: hashH}}, drain(env.rec.finals))
	require.Equal(t, 1, env.in.epochs)

	rec, err := env.out.FinalizedEpoch(0)
	require.NoError(t, err)
	require.Equal(t, []common.Address{v0}, rec.Claimants)

	// A fresh round needs a fresh input window.
	require.ErrorIs(t, d.FinalizeEpoch(), inter.ErrFinalizePhase)
	require.ErrorIs(t, d.Claim(v1, hashH), inter.ErrClaimPhase)
}

func TestFinalizationPathsAgree(t *testing.T) {
	inline := newTestEnv(t, rollup.TestNetRules())
	inline.clock.Run(inputDuration + challengePeriod + 2*time.Second)
	require.NoError(t, inline.d.Claim(v0, hashH))
	require.NoError(t, inline.d.Claim(v1, hashH))
	require.NoError(t, inline.d.Claim(v2, hashH))

	delayed := newTestEnv(t, rollup.TestNetRules())
	delayed.closeInput()
	require.NoError(t, delayed.d.Claim(v0, hashH))
	require.NoError(t, delayed.d.Claim(v1, hashH))
	delayed.clock.Run(challengePeriod + time.Second)
	require.NoError(t, delayed.d.FinalizeEpoch())

	require.Equal(t, inline.clock.Now(), delayed.clock.Now())
	require.Equal(t, inline.d.StateHash(), delayed.d.StateHash())
	require.Equal(t, inline.d.CurrentEpoch(), delayed.d.CurrentEpoch())
}

func TestNotifyInput(t *testing.T) {
	env := newTestEnv(t, rollup.TestNetRules())
	d := env.d
	anyone := common.HexToAddress("0xabc")

	changed, err := d.NotifyInput(anyone)
	require.NoError(t, err)
	require.False(t, changed)

	env.closeInput()
	changed, err = d.NotifyInput(anyone)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, 1, env.in.accumulations)

	changed, err = d.NotifyInput(anyone)
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, []inter.Phase{inter.AwaitingConsensus}, phases(drain(env.rec.phases)))
}

func TestPermissionedEntryPoints(t *testing.T) {
	env := newTestEnv(t, rollup.MainNetRules(), WithArbiter(dispute.NewDeferred()))
	d := env.d
	env.closeInput()

	_, err := d.NotifyInput(v0)
	require.ErrorIs(t, err, inter.ErrNotInput)
	require.False(t, err.(*inter.Error).Retryable())
	require.Equal(t, inter.InputAccumulation, d.state.Phase)

	changed, err := d.NotifyInput(env.gen.Input)
	require.NoError(t, err)
	require.True(t, changed)

	require.NoError(t, d.Claim(v0, hashH))
	require.NoError(t, d.Claim(v1, hashH2))
	require.Equal(t, inter.AwaitingDispute, d.CurrentPhase())

	require.ErrorIs(t, d.ResolveDispute(v0, v0, v1, hashH), inter.ErrNotDisputeManager)
	require.NoError(t, d.ResolveDispute(env.gen.Dispute, v0, v1, hashH))
	require.Equal(t, inter.AwaitingConsensus, d.CurrentPhase())
}

func TestDeferredDispute(t *testing.T) {
	env := newTestEnv(t, rollup.FakeNetRules())
	d := env.d
	arbiter := d.Arbiter().(*dispute.Deferred)
	env.clock.Run(time.Minute + time.Second)

	require.ErrorIs(t, d.ResolveDispute(v0, v0, v1, hashH), inter.ErrResolvePhase)

	require.NoError(t, d.Claim(v0, hashH))
	env.clock.Run(time.Minute)
	require.NoError(t, d.Claim(v1, hashH2))

	require.Equal(t, inter.AwaitingDispute, d.CurrentPhase())
	open, ok := d.OpenDispute()
	require.True(t, ok)
	require.Equal(t, [2]inter.Claim{
		{Epoch: 0, Claimant: v0, Hash: hashH},
		{Epoch: 0, Claimant: v1, Hash: hashH2},
	}, open.Pair)
	require.Equal(t, []inter.Dispute{open}, arbiter.Pending())
	require.Equal(t, idx.Epoch(1), d.CurrentEpoch())

	require.ErrorIs(t, d.Claim(v2, hashH), inter.ErrClaimPhase)
	require.ErrorIs(t, d.FinalizeEpoch(), inter.ErrFinalizePhase)
	changed, err := d.NotifyInput(v0)
	require.NoError(t, err)
	require.False(t, changed)

	require.ErrorIs(t, d.ResolveDispute(v0, v0, v2, hashH), inter.ErrUnknownDispute)
	require.ErrorIs(t, d.ResolveDispute(v0, v0, v1, common.Hash{7}), inter.ErrUnknownDispute)
	require.Equal(t, inter.AwaitingDispute, d.CurrentPhase())

	env.clock.Run(time.Minute)
	require.NoError(t, d.ResolveDispute(v0, v1, v0, hashH2))
	require.Equal(t, inter.AwaitingConsensus, d.CurrentPhase())
	_, ok = d.OpenDispute()
	require.False(t, ok)
	require.Empty(t, arbiter.Pending())
	require.Equal(t, []common.Address{v1, v2}, d.Validators())
	require.Equal(t, hashH2, d.CurrentClaim())
	require.Equal(t, inter.FromAbsTime(env.clock.Now()), d.state.ClaimStart)
	require.Equal(t, []ResolveDisputeEvent{{ClaimantA: v0, ClaimantB: v1, Winning: hashH2}}, drain(env.rec.resolves))
	require.Equal(t, []inter.Phase{
		inter.AwaitingConsensus,
		inter.AwaitingDispute,
		inter.AwaitingConsensus,
	}, phases(drain(env.rec.phases)))

	require.NoError(t, d.Claim(v2, hashH2))
	require.Equal(t, inter.InputAccumulation, d.CurrentPhase())
	require.Equal(t, []FinalizeEpochEvent{{Epoch: 0, Hash: hashH2}}, drain(env.rec.finals))
}

func TestDeferredDisputeLeadingToConsensus(t *testing.T) {
	env := newTestEnv(t, rollup.FakeNetRules())
	d := env.d
	env.clock.Run(time.Minute + time.Second)

	require.NoError(t, d.Claim(v0, hashH))
	require.NoError(t, d.Claim(v2, hashH))
	require.NoError(t, d.Claim(v1, hashH2))
	require.Equal(t, inter.AwaitingDispute, d.CurrentPhase())

	require.NoError(t, d.ResolveDispute(v0, v0, v1, hashH))
	require.Equal(t, inter.InputAccumulation, d.CurrentPhase())
	require.Equal(t, []FinalizeEpochEvent{{Epoch: 0, Hash: hashH}}, drain(env.rec.finals))
	require.Equal(t, []common.Address{v0, v2}, d.Validators())
}

func TestOutputFailureAbortsOperation(t *testing.T) {
	out := &failingOutput{Store: output.NewMem(), fail: true}
	env := newTestEnv(t, rollup.TestNetRules(), WithOutput(out))
	d := env.d
	env.closeInput()

	require.NoError(t, d.Claim(v0, hashH))
	require.NoError(t, d.Claim(v1, hashH))
	drain(env.rec.claims)
	drain(env.rec.phases)
	before := d.StateHash()

	err := d.Claim(v2, hashH)
	require.Error(t, err)
	require.Equal(t, before, d.StateHash())
	require.Empty(t, drain(env.rec.claims))
	require.Empty(t, drain(env.rec.finals))
	require.Zero(t, env.in.epochs)
	require.Equal(t, float64(1), testutil.ToFloat64(d.metrics.rejected.WithLabelValues("claim", "internal")))

	out.fail = false
	require.NoError(t, d.Claim(v2, hashH))
	require.Equal(t, idx.Epoch(1), out.NumberOfFinalizedEpochs())
}

func TestInputBoxDrivesTransition(t *testing.T) {
	env := newTestEnv(t, rollup.MainNetRules())
	box := input.New(env.gen.Input, 0, nil)
	d, err := New(env.gen, WithClock(env.clock), WithInput(box), WithLogger(logrus.New()))
	require.NoError(t, err)
	box.SetNotifier(d)

	_, err = box.AddInput(v0, []byte("tx-1"))
	require.NoError(t, err)
	require.Equal(t, 0, box.CurrentBox())

	env.closeInput()
	_, err = box.AddInput(v0, []byte("tx-2"))
	require.NoError(t, err)
	require.Equal(t, 1, box.CurrentBox())
	require.Len(t, box.Inputs(0), 1)
	require.Equal(t, inter.AwaitingConsensus, d.state.Phase)

	require.NoError(t, d.Claim(v0, hashH))
	require.NoError(t, d.Claim(v1, hashH))
	require.NoError(t, d.Claim(v2, hashH))
	require.Empty(t, box.Inputs(0))
	require.Len(t, box.Inputs(1), 1)
}

func TestCloseEndsSubscriptions(t *testing.T) {
	env := newTestEnv(t, rollup.TestNetRules())
	sub := env.d.SubscribeClaim(make(chan ClaimEvent))
	env.d.Close()

	select {
	case _, ok := <-sub.Err():
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}
