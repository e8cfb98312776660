// Package mailbox is the round-based transport between negotiating agents.
//
// Messages sent during a round are held in an outbox and only become visible
// to their receiver after the next Dispatch, so two agents acting in the same
// round never see each other's messages. Each agent has a single-slot inbox:
// delivering a second message before the first was received is an error.
//
//	mb := mailbox.New()
//	mb.Send(msg)          // round N
//	mb.Dispatch()         // start of round N+1
//	in := mb.Receive("b") // msg, or nil
package mailbox

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/alienxp03/parley/internal/core"
)

// ErrMailboxFull is returned by Dispatch when a receiver would hold more than
// one undelivered message.
var ErrMailboxFull = errors.New("mailbox full")

// Option configures a Service.
type Option func(*Service)

// WithDeliveryHook registers fn to be called for every message moved into an
// inbox by Dispatch.
func WithDeliveryHook(fn func(core.Message)) Option {
	return func(s *Service) {
		s.onDeliver = fn
	}
}

// Service holds the outbox of the current round and one inbox slot per agent.
// It is safe for concurrent use.
type Service struct {
	mu        sync.Mutex
	outbox    []core.Message
	inbox     map[string]*core.Message
	onDeliver func(core.Message)
}

// New creates an empty transport.
func New(opts ...Option) *Service {
	s := &Service{inbox: make(map[string]*core.Message)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send queues msg for delivery at the next Dispatch. It fills in the ID when
// empty.
func (s *Service) Send(msg core.Message) error {
	if msg.Sender == "" || msg.Receiver == "" {
		return fmt.Errorf("message needs a sender and a receiver: %s", msg)
	}
	if !msg.Performative.Valid() {
		return fmt.Errorf("unknown performative %q", msg.Performative)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, msg)
	return nil
}

// Dispatch moves the queued messages into their receivers' inboxes and
// returns how many were delivered. Nothing is delivered when any receiver
// would end up with two messages.
func (s *Service) Dispatch() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make(map[string]bool, len(s.outbox))
	for _, msg := range s.outbox {
		if targets[msg.Receiver] || s.inbox[msg.Receiver] != nil {
			return 0, fmt.Errorf("%w: %s already has an undelivered message", ErrMailboxFull, msg.Receiver)
		}
		targets[msg.Receiver] = true
	}

	for i := range s.outbox {
		msg := s.outbox[i]
		s.inbox[msg.Receiver] = &msg
		if s.onDeliver != nil {
			s.onDeliver(msg)
		}
	}
	n := len(s.outbox)
	s.outbox = nil
	return n, nil
}

// Receive takes the message waiting for agent, or returns nil.
func (s *Service) Receive(agent string) *core.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.inbox[agent]
	delete(s.inbox, agent)
	return msg
}

// Pending counts queued plus delivered-but-unread messages.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.outbox)
	for _, msg := range s.inbox {
		if msg != nil {
			n++
		}
	}
	return n
}
