// Package profile defines the criterion rankings parties negotiate with.
package profile

import (
	"fmt"
	"math/rand"

	"github.com/alienxp03/parley/internal/core"
	"github.com/alienxp03/parley/internal/preference"
)

// Random is the profile that draws a fresh ranking for every party.
const Random = "random"

// Profile is a named criterion ranking. A nil Ranking means the ranking is
// drawn at random when the party is set up.
type Profile struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description" yaml:"description"`
	Ranking     []core.Criterion `json:"ranking,omitempty" yaml:"ranking,omitempty"`
}

// DefaultProfiles returns the built-in profiles.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			ID:          Random,
			Name:        "Random",
			Description: "Uniformly random criterion ranking",
		},
		{
			ID:          "economist",
			Name:        "Economist",
			Description: "Purchase price first, then running costs",
			Ranking: []core.Criterion{
				core.ProductionCost, core.CostPerKm, core.Consumption,
				core.Durability, core.Noise, core.EnvironmentImpact,
			},
		},
		{
			ID:          "ecologist",
			Name:        "Ecologist",
			Description: "Environmental impact and consumption above everything else",
			Ranking: []core.Criterion{
				core.EnvironmentImpact, core.Consumption, core.Noise,
				core.Durability, core.CostPerKm, core.ProductionCost,
			},
		},
		{
			ID:          "engineer",
			Name:        "Engineer",
			Description: "Durable and efficient engines",
			Ranking: []core.Criterion{
				core.Durability, core.Consumption, core.CostPerKm,
				core.ProductionCost, core.EnvironmentImpact, core.Noise,
			},
		},
		{
			ID:          "commuter",
			Name:        "Commuter",
			Description: "Quiet rides and cheap kilometres",
			Ranking: []core.Criterion{
				core.Noise, core.CostPerKm, core.Consumption,
				core.Durability, core.ProductionCost, core.EnvironmentImpact,
			},
		},
	}
}

// Get returns a profile by ID (builtins only).
func Get(id string) *Profile {
	for _, p := range DefaultProfiles() {
		if p.ID == id {
			return &p
		}
	}
	return nil
}

// List returns all available profile IDs (builtins only).
func List() []string {
	profiles := DefaultProfiles()
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	return ids
}

// Valid checks if a profile ID is valid (builtins only).
// For custom profiles, use ValidWithStore.
func Valid(id string) bool {
	return Get(id) != nil
}

// Store looks up custom profiles, typically from the config file.
type Store interface {
	GetProfile(id string) (*Profile, error)
}

// GetWithStore returns a profile by ID, checking the store for custom ones.
func GetWithStore(id string, store Store) *Profile {
	if p := Get(id); p != nil {
		return p
	}
	if store != nil {
		p, err := store.GetProfile(id)
		if err == nil && p != nil {
			return p
		}
	}
	return nil
}

// ValidWithStore checks if a profile ID is valid, including custom profiles.
func ValidWithStore(id string, store Store) bool {
	return GetWithStore(id, store) != nil
}

// Validate checks that a fixed ranking is a permutation of the criteria.
func (p Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	if p.Ranking == nil {
		return nil
	}
	if err := preference.ValidateRanking(p.Ranking); err != nil {
		return fmt.Errorf("profile %s: %w", p.ID, err)
	}
	return nil
}

// Model builds a preference model for one party. Thresholds are always drawn
// from rng; the ranking is drawn too when the profile does not fix it.
func (p Profile) Model(alternatives []core.Alternative, rng *rand.Rand) (*preference.Model, error) {
	if p.Ranking == nil {
		return preference.NewRandom(alternatives, rng)
	}
	return preference.NewWithRanking(alternatives, p.Ranking, rng)
}
