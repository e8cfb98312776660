// Package engine runs bilateral negotiations between two dialogue agents.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/alienxp03/parley/internal/catalog"
	"github.com/alienxp03/parley/internal/config"
	"github.com/alienxp03/parley/internal/core"
	"github.com/alienxp03/parley/internal/dialogue"
	"github.com/alienxp03/parley/internal/mailbox"
	"github.com/alienxp03/parley/internal/metrics"
	"github.com/alienxp03/parley/internal/preference"
	"github.com/alienxp03/parley/internal/profile"
	"github.com/alienxp03/parley/internal/storage"
)

// Defaults used when neither the caller nor an option sets a value.
const (
	DefaultMaxRounds  = 50
	DefaultCorpusSize = 10
)

// Outcome reasons.
const (
	ReasonAgreement  = "agreement"
	ReasonStalemate  = "stalemate"
	ReasonRoundLimit = "round limit reached"
	ReasonCancelled  = "cancelled"
)

// Engine creates and runs negotiation sessions.
type Engine struct {
	storage    storage.Storage
	profiles   profile.Store
	metrics    *metrics.Recorder
	maxRounds  int
	corpusSize int
	catalog    []core.Alternative
	profileA   string
	profileB   string
}

// Option configures an Engine.
type Option func(*Engine)

// WithProfiles makes custom profiles from store available to new parties.
func WithProfiles(store profile.Store) Option {
	return func(e *Engine) { e.profiles = store }
}

// WithMetrics records run activity on rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = rec }
}

// WithMaxRounds sets the round cap used when a negotiation does not set one.
func WithMaxRounds(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRounds = n
		}
	}
}

// WithCorpusSize sets the size of the generated catalog used when a
// negotiation does not bring its own.
func WithCorpusSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.corpusSize = n
		}
	}
}

// WithCatalog sets the catalog used when a negotiation does not bring its
// own, instead of a generated corpus.
func WithCatalog(alternatives []core.Alternative) Option {
	return func(e *Engine) { e.catalog = alternatives }
}

// WithDefaultProfiles sets the profiles of parties that do not name one.
func WithDefaultProfiles(a, b string) Option {
	return func(e *Engine) {
		if a != "" {
			e.profileA = a
		}
		if b != "" {
			e.profileB = b
		}
	}
}

// OptionsFromConfig translates the configuration defaults into engine
// options, loading the default catalog file when one is configured.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	opts := []Option{
		WithProfiles(cfg),
		WithMaxRounds(cfg.Defaults.MaxRounds),
		WithCorpusSize(cfg.Defaults.CorpusSize),
		WithDefaultProfiles(cfg.Defaults.ProfileA, cfg.Defaults.ProfileB),
	}
	if cfg.Defaults.Catalog != "" {
		alternatives, err := catalog.LoadFile(cfg.Defaults.Catalog)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCatalog(alternatives))
	}
	return opts, nil
}

// New creates a new negotiation engine.
func New(store storage.Storage, opts ...Option) *Engine {
	e := &Engine{
		storage:    store,
		maxRounds:  DefaultMaxRounds,
		corpusSize: DefaultCorpusSize,
		profileA:   profile.Random,
		profileB:   profile.Random,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.New()
	}
	return e
}

// Metrics returns the recorder the engine reports to.
func (e *Engine) Metrics() *metrics.Recorder {
	return e.metrics
}

// CreateNegotiation sets up a negotiation: it resolves both parties'
// profiles, builds or validates the catalog, draws each party's preference
// parameters from the seed and stores the result as pending.
func (e *Engine) CreateNegotiation(ctx context.Context, cfg core.NewNegotiationConfig) (*core.Negotiation, error) {
	specA := cfg.PartyA.WithDefaults(core.DefaultPartyA, e.profileA)
	specB := cfg.PartyB.WithDefaults(core.DefaultPartyB, e.profileB)
	slog.Debug("Creating new negotiation", "party_a", specA, "party_b", specB, "catalog_size", len(cfg.Catalog))

	if specA.Name == specB.Name {
		return nil, fmt.Errorf("parties need distinct names, both are %q", specA.Name)
	}

	profA := profile.GetWithStore(specA.Profile, e.profiles)
	if profA == nil {
		return nil, fmt.Errorf("invalid profile for party A: %s", specA.Profile)
	}
	profB := profile.GetWithStore(specB.Profile, e.profiles)
	if profB == nil {
		return nil, fmt.Errorf("invalid profile for party B: %s", specB.Profile)
	}

	alternatives := cfg.Catalog
	if len(alternatives) == 0 {
		alternatives = e.catalog
	}
	if len(alternatives) == 0 {
		generated, err := catalog.Generate(e.corpusSize)
		if err != nil {
			return nil, fmt.Errorf("failed to generate catalog: %w", err)
		}
		alternatives = generated
	}
	if err := catalog.Validate(alternatives); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = core.TimeSeed()
	}
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = e.maxRounds
	}

	rng := rand.New(rand.NewSource(seed))
	modelA, err := profA.Model(alternatives, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to build preferences for party A: %w", err)
	}
	modelB, err := profB.Model(alternatives, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to build preferences for party B: %w", err)
	}

	title := cfg.Title
	if title == "" {
		title = fmt.Sprintf("%s vs %s over %d alternatives", specA.Name, specB.Name, len(alternatives))
	}

	now := time.Now()
	n := &core.Negotiation{
		ID:        core.GenerateID(),
		Title:     title,
		PartyA:    newParty(specA, modelA),
		PartyB:    newParty(specB, modelB),
		Catalog:   alternatives,
		Seed:      seed,
		MaxRounds: maxRounds,
		Status:    core.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.storage.CreateNegotiation(n); err != nil {
		return nil, fmt.Errorf("failed to create negotiation: %w", err)
	}
	return n, nil
}

func newParty(spec core.PartySpec, model *preference.Model) core.Party {
	return core.Party{
		ID:         core.GenerateID(),
		Name:       spec.Name,
		Profile:    spec.Profile,
		Ranking:    model.Ranking(),
		Thresholds: model.Thresholds(),
	}
}

// GetNegotiation retrieves a negotiation by ID.
func (e *Engine) GetNegotiation(id string) (*core.Negotiation, error) {
	return e.storage.GetNegotiation(id)
}

// GetNegotiationWithTurns retrieves a negotiation with its transcript.
func (e *Engine) GetNegotiationWithTurns(id string) (*core.Negotiation, []*core.Turn, error) {
	n, err := e.storage.GetNegotiation(id)
	if err != nil {
		return nil, nil, err
	}

	turns, err := e.storage.GetTurns(id)
	if err != nil {
		return nil, nil, err
	}

	return n, turns, nil
}

// ListNegotiations returns a page of negotiation summaries.
func (e *Engine) ListNegotiations(limit, offset int) ([]*core.NegotiationSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	return e.storage.ListNegotiations(limit, offset)
}

// DeleteNegotiation deletes a negotiation.
func (e *Engine) DeleteNegotiation(id string) error {
	return e.storage.DeleteNegotiation(id)
}

// TurnCallback is called after each message an agent sends.
type TurnCallback func(turn *core.Turn, n *core.Negotiation)

// session is the in-memory state of one run.
type session struct {
	n      *core.Negotiation
	agents [2]*dialogue.Agent
	mb     *mailbox.Service
	number int
}

// RunNegotiation plays a pending negotiation to the end. Each round the
// queued messages are delivered, then both agents act once in an order
// shuffled by the negotiation seed. The run stops when both agents have
// committed to the same alternative, when a round passes with no traffic,
// or at the round cap.
func (e *Engine) RunNegotiation(ctx context.Context, id string, callback TurnCallback) (*core.Outcome, error) {
	n, s, err := e.claim(id)
	if err != nil {
		return nil, err
	}
	return e.play(ctx, n, s, callback)
}

// StartNegotiation claims a pending negotiation and plays it in the
// background, giving up after timeout. Only the claim is synchronous, so a
// negotiation that is already running is reported to the caller.
func (e *Engine) StartNegotiation(id string, timeout time.Duration) error {
	n, s, err := e.claim(id)
	if err != nil {
		return err
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := e.play(ctx, n, s, nil); err != nil {
			slog.Error("Background negotiation failed", "id", n.ID, "error", err)
		}
	}()
	return nil
}

// claim moves a pending negotiation to in progress. The transition is
// conditional in storage, so of two concurrent claims only one succeeds.
func (e *Engine) claim(id string) (*core.Negotiation, *session, error) {
	n, err := e.storage.GetNegotiation(id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get negotiation: %w", err)
	}
	if n.Status != core.StatusPending {
		return nil, nil, fmt.Errorf("%w: %s is %s", storage.ErrNotPending, id, n.Status)
	}
	if err := e.storage.StartNegotiation(id); err != nil {
		return nil, nil, fmt.Errorf("failed to start negotiation: %w", err)
	}
	n.Status = core.StatusInProgress

	e.metrics.Started()
	s, err := newSession(n)
	if err != nil {
		return nil, nil, e.fail(n, 0, err)
	}
	return n, s, nil
}

func (e *Engine) play(ctx context.Context, n *core.Negotiation, s *session, callback TurnCallback) (*core.Outcome, error) {
	slog.Info("Negotiation started", "id", n.ID, "party_a", n.PartyA.Name, "party_b", n.PartyB.Name, "max_rounds", n.MaxRounds)

	rng := rand.New(rand.NewSource(n.Seed))
	order := []*dialogue.Agent{s.agents[0], s.agents[1]}

	round := 0
	reason := ReasonRoundLimit
	for round < n.MaxRounds {
		select {
		case <-ctx.Done():
			n.Outcome = &core.Outcome{Rounds: round, Reason: ReasonCancelled, RankA: -1, RankB: -1}
			err := e.fail(n, round, ctx.Err())
			return n.Outcome, err
		default:
		}
		round++

		delivered, err := s.mb.Dispatch()
		if err != nil {
			return nil, e.fail(n, round, fmt.Errorf("failed to deliver round %d: %w", round, err))
		}

		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		sent := 0
		for _, agent := range order {
			turn, err := e.act(s, agent, round)
			if err != nil {
				return nil, e.fail(n, round, err)
			}
			if turn == nil {
				continue
			}
			sent++
			if callback != nil {
				callback(turn, n)
			}
		}

		if _, ok := s.agreement(); ok {
			reason = ReasonAgreement
			break
		}
		if sent == 0 && delivered == 0 && s.mb.Pending() == 0 {
			reason = ReasonStalemate
			break
		}
	}

	outcome := s.outcome(round, reason)
	now := time.Now()
	n.Outcome = outcome
	n.CompletedAt = &now
	n.Status = core.StatusNoAgreement
	if outcome.Agreed {
		n.Status = core.StatusAgreed
	}
	err := e.storage.UpdateNegotiation(n)
	e.metrics.Finished(n.Status, round)
	if err != nil {
		return nil, fmt.Errorf("failed to update negotiation: %w", err)
	}
	slog.Info("Negotiation finished", "id", n.ID, "status", n.Status, "rounds", round, "alternative", outcome.Alternative, "score", outcome.Score)

	return outcome, nil
}

func newSession(n *core.Negotiation) (*session, error) {
	modelA, err := preference.New(n.Catalog, n.PartyA.Ranking, n.PartyA.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("failed to restore preferences for %s: %w", n.PartyA.Name, err)
	}
	modelB, err := preference.New(n.Catalog, n.PartyB.Ranking, n.PartyB.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("failed to restore preferences for %s: %w", n.PartyB.Name, err)
	}

	return &session{
		n: n,
		agents: [2]*dialogue.Agent{
			dialogue.NewAgent(n.PartyA.Name, n.PartyB.Name, modelA),
			dialogue.NewAgent(n.PartyB.Name, n.PartyA.Name, modelB),
		},
		mb: mailbox.New(),
	}, nil
}

// act lets one agent react to its inbox. A failed reaction is logged and
// skipped; only storage and transport failures abort the run.
func (e *Engine) act(s *session, agent *dialogue.Agent, round int) (*core.Turn, error) {
	in := s.mb.Receive(agent.Name())

	out, err := agent.Step(in)
	if err != nil {
		slog.Error("Agent failed to react", "negotiation_id", s.n.ID, "agent", agent.Name(), "round", round, "error", err)
		e.metrics.ReactionFailed(in)
		return nil, nil
	}
	if out == nil {
		return nil, nil
	}
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if err := s.mb.Send(*out); err != nil {
		slog.Error("Agent sent an undeliverable message", "negotiation_id", s.n.ID, "agent", agent.Name(), "error", err)
		e.metrics.ReactionFailed(in)
		return nil, nil
	}

	s.number++
	turn := &core.Turn{
		ID:            out.ID,
		NegotiationID: s.n.ID,
		Round:         round,
		Number:        s.number,
		Sender:        out.Sender,
		Receiver:      out.Receiver,
		Performative:  out.Performative,
		Content:       out.Content,
		CreatedAt:     time.Now(),
	}
	if err := e.storage.AddTurn(turn); err != nil {
		return nil, fmt.Errorf("failed to save turn %d: %w", turn.Number, err)
	}
	e.metrics.MessageSent(out.Performative)
	slog.Debug("Turn recorded", "negotiation_id", s.n.ID, "round", round, "turn", turn.Number, "message", out.String())

	return turn, nil
}

// agreement reports the alternative both agents committed to.
func (s *session) agreement() (string, bool) {
	a, okA := s.agents[0].Agreement()
	b, okB := s.agents[1].Agreement()
	if !okA || !okB || a != b {
		return "", false
	}
	return a, true
}

func (s *session) outcome(rounds int, reason string) *core.Outcome {
	o := &core.Outcome{Rounds: rounds, Reason: reason, RankA: -1, RankB: -1}

	id, ok := s.agreement()
	if !ok {
		return o
	}
	o.Agreed = true
	o.Alternative = id
	o.RankA, _ = s.agents[0].Model().RankOf(id)
	o.RankB, _ = s.agents[1].Model().RankOf(id)
	o.Score = Score(o.RankA, o.RankB)
	return o
}

// Score rates an agreement by where it sits in both parties' rankings:
// 1/(rankA+1) + 1/(rankB+1), so 2 means both got their favourite.
// Negative ranks mean no agreement and score 0.
func Score(rankA, rankB int) float64 {
	if rankA < 0 || rankB < 0 {
		return 0
	}
	return 1/float64(rankA+1) + 1/float64(rankB+1)
}

// fail marks the negotiation as failed and returns cause.
func (e *Engine) fail(n *core.Negotiation, rounds int, cause error) error {
	now := time.Now()
	n.Status = core.StatusFailed
	n.CompletedAt = &now
	if n.Outcome == nil {
		n.Outcome = &core.Outcome{Rounds: rounds, Reason: cause.Error(), RankA: -1, RankB: -1}
	}
	err := e.storage.UpdateNegotiation(n)
	e.metrics.Finished(core.StatusFailed, rounds)
	if err != nil {
		slog.Error("Failed to mark negotiation as failed", "id", n.ID, "error", err)
		return errors.Join(cause, err)
	}
	return cause
}
