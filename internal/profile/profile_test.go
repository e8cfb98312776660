package profile

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/alienxp03/parley/internal/core"
)

func TestDefaultProfiles(t *testing.T) {
	profiles := DefaultProfiles()

	if len(profiles) != 5 {
		t.Errorf("wrong count: got %d, want 5", len(profiles))
	}

	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			t.Errorf("builtin profile %s is invalid: %v", p.ID, err)
		}
	}
}

func TestGet(t *testing.T) {
	t.Run("ExistingProfile", func(t *testing.T) {
		p := Get("ecologist")
		if p == nil {
			t.Fatal("profile not found")
		}
		if p.Ranking[0] != core.EnvironmentImpact {
			t.Errorf("wrong top criterion: got %s", p.Ranking[0])
		}
	})

	t.Run("NonexistentProfile", func(t *testing.T) {
		if p := Get("nonexistent"); p != nil {
			t.Error("expected nil for nonexistent profile")
		}
	})
}

func TestList(t *testing.T) {
	ids := List()
	if len(ids) != 5 || ids[0] != Random {
		t.Errorf("unexpected list: %v", ids)
	}
}

type mapStore map[string]Profile

func (m mapStore) GetProfile(id string) (*Profile, error) {
	p, ok := m[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &p, nil
}

func TestGetWithStore(t *testing.T) {
	store := mapStore{
		"quiet": {ID: "quiet", Ranking: []core.Criterion{
			core.Noise, core.Durability, core.CostPerKm,
			core.Consumption, core.ProductionCost, core.EnvironmentImpact,
		}},
	}

	if p := GetWithStore("economist", store); p == nil || p.ID != "economist" {
		t.Errorf("builtin lookup failed: %+v", p)
	}
	if p := GetWithStore("quiet", store); p == nil || p.Ranking[0] != core.Noise {
		t.Errorf("custom lookup failed: %+v", p)
	}
	if ValidWithStore("loud", store) {
		t.Error("loud should not be valid")
	}
	if ValidWithStore("quiet", nil) {
		t.Error("custom profile should need a store")
	}
}

func TestValidate(t *testing.T) {
	bad := Profile{ID: "short", Ranking: []core.Criterion{core.Noise}}
	if err := bad.Validate(); !errors.Is(err, core.ErrInvalidRanking) {
		t.Errorf("expected ErrInvalidRanking, got %v", err)
	}
	if err := (Profile{}).Validate(); err == nil {
		t.Error("expected error for missing id")
	}
}

func TestModel(t *testing.T) {
	alts := []core.Alternative{{ID: "a"}, {ID: "b", Durability: 3}}

	fixed := Get("engineer")
	m, err := fixed.Model(alts, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	if got := m.Ranking(); got[0] != core.Durability {
		t.Errorf("ranking not kept: %v", got)
	}

	m1, _ := Get(Random).Model(alts, rand.New(rand.NewSource(9)))
	m2, _ := Get(Random).Model(alts, rand.New(rand.NewSource(9)))
	for i, c := range m1.Ranking() {
		if m2.Ranking()[i] != c {
			t.Fatalf("same seed gave different rankings: %v vs %v", m1.Ranking(), m2.Ranking())
		}
	}
}
