// Package dialogue implements the per-agent negotiation protocol: proposal,
// inquiry, argumentation, acceptance and commitment.
package dialogue

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alienxp03/parley/internal/argument"
	"github.com/alienxp03/parley/internal/core"
	"github.com/alienxp03/parley/internal/preference"
)

// State is the position of an agent in the protocol.
type State int

const (
	Idle State = iota
	Proposing
	AwaitingResponse
	Arguing
	Accepted
	Committed
	StandBy
	Done
)

var stateNames = [...]string{"idle", "proposing", "awaiting_response", "arguing", "accepted", "committed", "stand_by", "done"}

func (s State) String() string {
	if s < Idle || s > Done {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

type argumentKey struct {
	target   string
	polarity argument.Polarity
}

// Agent is one party of a bilateral negotiation. It is driven by Step, one
// inbound message at a time, and is not safe for concurrent use.
type Agent struct {
	name         string
	interlocutor string
	model        *preference.Model
	state        State

	proposed       bool // sent its own best alternative
	proposalSeen   bool // received a proposal from the interlocutor
	committed      bool
	commitReceived bool
	accepted       string
	agreement      string

	arguments    map[argumentKey]*argument.Argument
	opponentLast *core.Criterion
	sent         map[string]bool // argument contents already sent
}

// NewAgent creates an idle agent that talks to interlocutor.
func NewAgent(name, interlocutor string, model *preference.Model) *Agent {
	return &Agent{
		name:         name,
		interlocutor: interlocutor,
		model:        model,
		arguments:    make(map[argumentKey]*argument.Argument),
		sent:         make(map[string]bool),
	}
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// State returns the current protocol state.
func (a *Agent) State() State { return a.state }

// Model returns the agent's preference model.
func (a *Agent) Model() *preference.Model { return a.model }

// Agreement returns the alternative the agent committed to.
func (a *Agent) Agreement() (string, bool) {
	return a.agreement, a.committed && a.agreement != ""
}

// Step consumes at most one inbound message (nil when the mailbox is empty)
// and returns at most one outbound message. An error aborts this reaction
// only; the agent stays usable.
func (a *Agent) Step(in *core.Message) (*core.Message, error) {
	if a.state == Done {
		return nil, nil
	}
	if in == nil {
		return a.idle()
	}
	if in.Receiver != a.name {
		return nil, fmt.Errorf("message for %q delivered to %q", in.Receiver, a.name)
	}
	if a.state == Committed && in.Performative != core.Commit {
		if in.Performative == core.Propose {
			return a.acceptWhileCommitted(in.Content)
		}
		return nil, nil
	}

	switch in.Performative {
	case core.Propose:
		return a.onPropose(in.Content)
	case core.AskWhy:
		return a.onAskWhy(in.Content)
	case core.Argue:
		return a.onArgue(in.Content)
	case core.Accept:
		return a.onAccept(in.Content)
	case core.Commit:
		return a.onCommit(in.Content)
	case core.StandBy:
		return a.onStandBy()
	default:
		return nil, fmt.Errorf("unknown performative %q", in.Performative)
	}
}

func (a *Agent) idle() (*core.Message, error) {
	if !a.proposed && !a.proposalSeen {
		return a.proposeBest()
	}
	if a.committed && a.commitReceived {
		a.state = Done
	}
	return nil, nil
}

func (a *Agent) onPropose(id string) (*core.Message, error) {
	top, err := a.model.IsTopDecile(id)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate proposal: %w", err)
	}
	a.proposalSeen = true
	if top {
		return a.accept(id)
	}
	a.state = AwaitingResponse
	return a.send(core.AskWhy, id), nil
}

// acceptWhileCommitted answers a top-decile proposal with ACCEPT without
// touching the commitment already made.
func (a *Agent) acceptWhileCommitted(id string) (*core.Message, error) {
	top, err := a.model.IsTopDecile(id)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate proposal: %w", err)
	}
	if !top {
		return nil, nil
	}
	return a.send(core.Accept, id), nil
}

func (a *Agent) onAskWhy(id string) (*core.Message, error) {
	arg := argument.NewArgument(id, argument.Support)
	if err := arg.CommitAsOwn(a.model); err != nil {
		return nil, err
	}
	a.arguments[argumentKey{target: id, polarity: argument.Support}] = arg

	cmp, cv := argument.SelectBestPremise(arg, nil)
	if cv == nil {
		return a.standBy(id), nil
	}
	arg.MarkUsed(*cv)
	return a.argue(argument.Claim{Polarity: argument.Support, Alternative: id, Value: *cv, Comparison: cmp}), nil
}

func (a *Agent) onArgue(content string) (*core.Message, error) {
	claim, err := argument.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read argument from %s: %w", a.interlocutor, err)
	}
	criterion := claim.Value.Criterion
	a.opponentLast = &criterion

	counter, err := argument.Counter(claim, a.model)
	if err != nil {
		return nil, fmt.Errorf("failed to counter argument: %w", err)
	}
	if counter != nil && !a.sent[counter.Encode()] {
		return a.argue(*counter), nil
	}

	if claim.Polarity == argument.Attack {
		if msg := a.defend(claim.Alternative); msg != nil {
			return msg, nil
		}
	}

	// A claim that can still be rebutted is never conceded, even when the
	// rebuttal was already sent.
	switch {
	case claim.Polarity == argument.Support && counter == nil:
		return a.accept(claim.Alternative)
	case !a.proposed:
		return a.proposeBest()
	default:
		return a.standBy(claim.Alternative), nil
	}
}

// defend sends the next unused premise of the agent's own supporting
// argument for target, if it has one.
func (a *Agent) defend(target string) *core.Message {
	arg := a.arguments[argumentKey{target: target, polarity: argument.Support}]
	if arg == nil {
		return nil
	}
	for {
		cmp, cv := argument.SelectBestPremise(arg, a.opponentLast)
		if cv == nil {
			return nil
		}
		arg.MarkUsed(*cv)
		claim := argument.Claim{Polarity: argument.Support, Alternative: target, Value: *cv, Comparison: cmp}
		if !a.sent[claim.Encode()] {
			return a.argue(claim)
		}
	}
}

func (a *Agent) onAccept(id string) (*core.Message, error) {
	if _, err := a.model.Alternative(id); err != nil {
		return nil, fmt.Errorf("failed to accept: %w", err)
	}
	// Both sides accepted each other's proposal in the same round: settle on
	// the smaller id so both commit to the same alternative.
	if a.accepted != "" && a.accepted < id {
		id = a.accepted
	}
	return a.commit(id), nil
}

func (a *Agent) onCommit(id string) (*core.Message, error) {
	a.commitReceived = true
	if a.committed {
		a.state = Done
		slog.Debug("Agent done", "agent", a.name, "agreement", a.agreement)
		return nil, nil
	}
	if _, err := a.model.Alternative(id); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	msg := a.commit(id)
	a.state = Done
	return msg, nil
}

func (a *Agent) onStandBy() (*core.Message, error) {
	if !a.proposed {
		return a.proposeBest()
	}
	a.state = StandBy
	return nil, nil
}

func (a *Agent) proposeBest() (*core.Message, error) {
	best, err := a.model.MostPreferred()
	if err != nil {
		return nil, fmt.Errorf("failed to pick a proposal: %w", err)
	}
	a.proposed = true
	a.state = Proposing
	return a.send(core.Propose, best.ID), nil
}

func (a *Agent) accept(id string) (*core.Message, error) {
	a.accepted = id
	a.state = Accepted
	return a.send(core.Accept, id), nil
}

func (a *Agent) commit(id string) *core.Message {
	a.committed = true
	a.agreement = id
	a.state = Committed
	return a.send(core.Commit, id)
}

func (a *Agent) argue(claim argument.Claim) *core.Message {
	content := claim.Encode()
	a.sent[content] = true
	a.state = Arguing
	return a.send(core.Argue, content)
}

func (a *Agent) standBy(id string) *core.Message {
	a.state = StandBy
	return a.send(core.StandBy, id)
}

func (a *Agent) send(p core.Performative, content string) *core.Message {
	slog.Debug("Agent sends", "agent", a.name, "to", a.interlocutor, "performative", p, "content", content)
	return &core.Message{
		ID:           uuid.NewString(),
		Sender:       a.name,
		Receiver:     a.interlocutor,
		Performative: p,
		Content:      content,
	}
}
