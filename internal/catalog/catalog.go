// Package catalog provides the alternatives a negotiation is about: a
// generated engine corpus or a catalog read from a YAML file.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alienxp03/parley/internal/core"
)

// File is the on-disk catalog layout.
type File struct {
	Name         string             `yaml:"name,omitempty"`
	Alternatives []core.Alternative `yaml:"alternatives"`
}

// Generate builds an engine corpus of electric and diesel engines. Sizes of
// ten or more are rounded down to a multiple of ten so the top decile is a
// whole number of engines; half the corpus is electric, half diesel, with
// quality factors spread evenly over [0, 1].
func Generate(size int) ([]core.Alternative, error) {
	if size >= 10 {
		size = size / 10 * 10
	}
	pairs := size / 2
	if pairs < 1 {
		return nil, fmt.Errorf("corpus size must be at least 2, got %d", size)
	}

	electrics := make([]core.Alternative, 0, pairs)
	diesels := make([]core.Alternative, 0, pairs)
	for i := 0; i < pairs; i++ {
		q := 0.0
		if pairs > 1 {
			q = float64(i) / float64(pairs-1)
		}
		electrics = append(electrics, Electric(fmt.Sprintf("Electric Engine %d", i+1), q))
		diesels = append(diesels, Diesel(fmt.Sprintf("Diesel Engine %d", i+1), q))
	}
	return append(electrics, diesels...), nil
}

// lerp moves from lo to hi as the quality factor goes from 0 to 1.
func lerp(lo, hi, q float64) float64 {
	return lo + (hi-lo)*q
}

// Electric returns an electric engine of quality q in [0, 1]. Electric
// engines burn no fuel.
func Electric(id string, q float64) core.Alternative {
	return core.Alternative{
		ID:                id,
		Description:       fmt.Sprintf("Electric engine with quality factor %.2f", q),
		ProductionCost:    lerp(14000, 20000, q),
		Consumption:       0,
		Durability:        lerp(1, 3, q),
		EnvironmentImpact: lerp(3, 1, q),
		Noise:             lerp(60, 40, q),
		CostPerKm:         lerp(0.05, 0.02, q),
	}
}

// Diesel returns a diesel engine of quality q in [0, 1].
func Diesel(id string, q float64) core.Alternative {
	return core.Alternative{
		ID:                id,
		Description:       fmt.Sprintf("Diesel engine with quality factor %.2f", q),
		ProductionCost:    lerp(10000, 16000, q),
		Consumption:       lerp(8, 4, q),
		Durability:        lerp(2, 4, q),
		EnvironmentImpact: lerp(4, 2, q),
		Noise:             lerp(80, 55, q),
		CostPerKm:         lerp(0.12, 0.08, q),
	}
}

// LoadFile reads and validates a YAML catalog.
func LoadFile(path string) ([]core.Alternative, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML catalog content.
func Parse(data []byte) ([]core.Alternative, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := Validate(f.Alternatives); err != nil {
		return nil, err
	}
	return f.Alternatives, nil
}

// Marshal renders alternatives in the catalog file layout.
func Marshal(name string, alternatives []core.Alternative) ([]byte, error) {
	data, err := yaml.Marshal(File{Name: name, Alternatives: alternatives})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return data, nil
}

// Validate checks that a catalog can be negotiated over: at least two
// alternatives, unique non-empty ids, and ids that survive the argument wire
// format.
func Validate(alternatives []core.Alternative) error {
	if len(alternatives) < 2 {
		return fmt.Errorf("catalog needs at least 2 alternatives, got %d", len(alternatives))
	}
	seen := make(map[string]bool, len(alternatives))
	for i, alt := range alternatives {
		id := alt.ID
		switch {
		case strings.TrimSpace(id) == "":
			return fmt.Errorf("alternative %d has no id", i)
		case id != strings.TrimSpace(id):
			return fmt.Errorf("alternative id %q has surrounding spaces", id)
		case strings.Contains(id, ", "), strings.Contains(id, " and "), strings.HasPrefix(id, "NOT "):
			return fmt.Errorf("alternative id %q clashes with the argument format", id)
		case seen[id]:
			return fmt.Errorf("duplicate alternative id %q", id)
		}
		seen[id] = true
	}
	return nil
}
