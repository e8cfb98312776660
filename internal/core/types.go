// Package core contains the core domain types for parley.
package core

import (
	"time"
)

// NegotiationStatus represents the current status of a negotiation.
type NegotiationStatus string

const (
	StatusPending     NegotiationStatus = "pending"
	StatusInProgress  NegotiationStatus = "in_progress"
	StatusAgreed      NegotiationStatus = "agreed"
	StatusNoAgreement NegotiationStatus = "no_agreement"
	StatusFailed      NegotiationStatus = "failed"
)

// Finished reports whether the negotiation has reached a terminal status.
func (s NegotiationStatus) Finished() bool {
	return s == StatusAgreed || s == StatusNoAgreement || s == StatusFailed
}

// Negotiation is a bilateral negotiation session over a shared catalog.
type Negotiation struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	PartyA      Party             `json:"party_a"`
	PartyB      Party             `json:"party_b"`
	Catalog     []Alternative     `json:"catalog"`
	Seed        int64             `json:"seed"`
	MaxRounds   int               `json:"max_rounds"`
	Status      NegotiationStatus `json:"status"`
	Outcome     *Outcome          `json:"outcome,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// Party is one side of a negotiation together with the private preference
// parameters generated for it.
type Party struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Profile    string               `json:"profile"`
	Ranking    []Criterion          `json:"ranking"`
	Thresholds []CriterionThreshold `json:"thresholds"`
}

// Turn is one message exchanged during a negotiation.
type Turn struct {
	ID            string       `json:"id"`
	NegotiationID string       `json:"negotiation_id"`
	Round         int          `json:"round"`
	Number        int          `json:"number"` // Sequential across the negotiation
	Sender        string       `json:"sender"`
	Receiver      string       `json:"receiver"`
	Performative  Performative `json:"performative"`
	Content       string       `json:"content"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Outcome summarises how a negotiation ended.
type Outcome struct {
	Agreed      bool    `json:"agreed"`
	Alternative string  `json:"alternative,omitempty"`
	Rounds      int     `json:"rounds"`
	Reason      string  `json:"reason"`
	RankA       int     `json:"rank_a"` // 0-based rank of Alternative for party A, -1 if none
	RankB       int     `json:"rank_b"`
	Score       float64 `json:"score"`
}

// NegotiationSummary is a lightweight representation for listing negotiations.
type NegotiationSummary struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Status      NegotiationStatus `json:"status"`
	PartyA      string            `json:"party_a"` // "name:profile"
	PartyB      string            `json:"party_b"`
	CatalogSize int               `json:"catalog_size"`
	TurnCount   int               `json:"turn_count"`
	Agreement   string            `json:"agreement,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewNegotiationConfig holds the configuration for creating a new negotiation.
type NewNegotiationConfig struct {
	Title     string        `json:"title"`
	PartyA    PartySpec     `json:"party_a"`
	PartyB    PartySpec     `json:"party_b"`
	Catalog   []Alternative `json:"catalog,omitempty"`
	Seed      int64         `json:"seed"` // 0 picks a time-based seed
	MaxRounds int           `json:"max_rounds"`
}

// PartySpec names a party and the profile its ranking comes from.
type PartySpec struct {
	Name    string `json:"name"`
	Profile string `json:"profile"`
}
