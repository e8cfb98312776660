// Package storage provides persistence for negotiation sessions.
package storage

import (
	"errors"

	"github.com/alienxp03/parley/internal/core"
)

var (
	// ErrNotFound is returned when a negotiation does not exist.
	ErrNotFound = errors.New("negotiation not found")

	// ErrNotPending is returned when a negotiation was already started.
	ErrNotPending = errors.New("negotiation is not pending")
)

// Storage defines the interface for negotiation persistence.
type Storage interface {
	// Initialize sets up the storage (creates tables, etc.)
	Initialize() error

	// Close closes the storage connection.
	Close() error

	// Negotiation operations
	CreateNegotiation(n *core.Negotiation) error
	GetNegotiation(id string) (*core.Negotiation, error)
	UpdateNegotiation(n *core.Negotiation) error
	// StartNegotiation moves a pending negotiation to in_progress in one
	// conditional write. Exactly one of several concurrent callers succeeds.
	StartNegotiation(id string) error
	DeleteNegotiation(id string) error
	ListNegotiations(limit, offset int) ([]*core.NegotiationSummary, error)

	// Turn operations
	AddTurn(turn *core.Turn) error
	GetTurns(negotiationID string) ([]*core.Turn, error)
	GetLatestTurn(negotiationID string) (*core.Turn, error)
}
