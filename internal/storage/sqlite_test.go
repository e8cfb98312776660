package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alienxp03/parley/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Initialize(); err != nil {
		t.Fatalf("failed to initialize: %v", err)
	}
	return store
}

func testNegotiation(id string, created time.Time) *core.Negotiation {
	return &core.Negotiation{
		ID:    id,
		Title: "Engine choice",
		PartyA: core.Party{
			ID:      "party-a-1",
			Name:    "alice",
			Profile: "economist",
			Ranking: []core.Criterion{core.ProductionCost, core.CostPerKm, core.Consumption, core.Durability, core.Noise, core.EnvironmentImpact},
			Thresholds: []core.CriterionThreshold{
				{Criterion: core.ProductionCost, Cuts: [3]float64{18000, 15000, 12000}},
			},
		},
		PartyB: core.Party{
			ID:      "party-b-1",
			Name:    "bob",
			Profile: "ecologist",
		},
		Catalog: []core.Alternative{
			{ID: "Electric Engine 1", ProductionCost: 14000, Noise: 60},
			{ID: "Diesel Engine 1", ProductionCost: 10000, Noise: 80},
		},
		Seed:      42,
		MaxRounds: 50,
		Status:    core.StatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestSQLiteStorage(t *testing.T) {
	store := newTestStore(t)

	t.Run("CreateAndGetNegotiation", func(t *testing.T) {
		n := testNegotiation("test-negotiation-1", time.Now())

		if err := store.CreateNegotiation(n); err != nil {
			t.Fatalf("failed to create negotiation: %v", err)
		}

		got, err := store.GetNegotiation(n.ID)
		if err != nil {
			t.Fatalf("failed to get negotiation: %v", err)
		}

		if got.Title != n.Title {
			t.Errorf("Title mismatch: got %s, want %s", got.Title, n.Title)
		}
		if got.Seed != 42 || got.MaxRounds != 50 {
			t.Errorf("run parameters mismatch: seed %d, max rounds %d", got.Seed, got.MaxRounds)
		}
		if len(got.PartyA.Ranking) != core.NumCriteria || got.PartyA.Ranking[1] != core.CostPerKm {
			t.Errorf("PartyA ranking not persisted: %v", got.PartyA.Ranking)
		}
		if len(got.PartyA.Thresholds) != 1 || got.PartyA.Thresholds[0].Cuts[1] != 15000 {
			t.Errorf("PartyA thresholds not persisted: %v", got.PartyA.Thresholds)
		}
		if len(got.Catalog) != 2 || got.Catalog[1] != n.Catalog[1] {
			t.Errorf("catalog not persisted: %v", got.Catalog)
		}
		if got.Outcome != nil || got.CompletedAt != nil {
			t.Error("pending negotiation should have no outcome")
		}
	})

	t.Run("UpdateNegotiation", func(t *testing.T) {
		n, err := store.GetNegotiation("test-negotiation-1")
		if err != nil {
			t.Fatalf("failed to get negotiation: %v", err)
		}
		done := time.Now()
		n.Status = core.StatusAgreed
		n.CompletedAt = &done
		n.Outcome = &core.Outcome{Agreed: true, Alternative: "Diesel Engine 1", Rounds: 4, RankA: 0, RankB: 1, Score: 1.5}

		if err := store.UpdateNegotiation(n); err != nil {
			t.Fatalf("failed to update negotiation: %v", err)
		}

		got, _ := store.GetNegotiation(n.ID)
		if got.Status != core.StatusAgreed {
			t.Errorf("Status not updated: got %s, want %s", got.Status, core.StatusAgreed)
		}
		if got.Outcome == nil || got.Outcome.Alternative != "Diesel Engine 1" || got.Outcome.Score != 1.5 {
			t.Errorf("Outcome not updated: %+v", got.Outcome)
		}
		if got.CompletedAt == nil {
			t.Error("CompletedAt not updated")
		}
	})

	t.Run("AddAndGetTurns", func(t *testing.T) {
		turns := []*core.Turn{
			{ID: "turn-1", NegotiationID: "test-negotiation-1", Round: 1, Number: 1, Sender: "alice", Receiver: "bob", Performative: core.Propose, Content: "Diesel Engine 1", CreatedAt: time.Now()},
			{ID: "turn-2", NegotiationID: "test-negotiation-1", Round: 1, Number: 2, Sender: "bob", Receiver: "alice", Performative: core.Accept, Content: "Diesel Engine 1", CreatedAt: time.Now()},
		}
		for _, turn := range turns {
			if err := store.AddTurn(turn); err != nil {
				t.Fatalf("failed to add %s: %v", turn.ID, err)
			}
		}

		got, err := store.GetTurns("test-negotiation-1")
		if err != nil {
			t.Fatalf("failed to get turns: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("wrong number of turns: got %d, want 2", len(got))
		}
		if got[0].Number != 1 || got[1].Number != 2 {
			t.Error("turns not in correct order")
		}
		if got[1].Performative != core.Accept || got[1].Receiver != "alice" {
			t.Errorf("turn fields not persisted: %+v", got[1])
		}
	})

	t.Run("GetLatestTurn", func(t *testing.T) {
		turn, err := store.GetLatestTurn("test-negotiation-1")
		if err != nil {
			t.Fatalf("failed to get latest turn: %v", err)
		}
		if turn == nil || turn.Number != 2 {
			t.Errorf("wrong latest turn: %+v", turn)
		}

		none, err := store.GetLatestTurn("no-turns")
		if err != nil || none != nil {
			t.Errorf("expected nil turn, got %+v, %v", none, err)
		}
	})

	t.Run("ListNegotiations", func(t *testing.T) {
		older := testNegotiation("test-negotiation-0", time.Now().Add(-time.Hour))
		if err := store.CreateNegotiation(older); err != nil {
			t.Fatalf("failed to create negotiation: %v", err)
		}

		summaries, err := store.ListNegotiations(10, 0)
		if err != nil {
			t.Fatalf("failed to list negotiations: %v", err)
		}
		if len(summaries) != 2 {
			t.Fatalf("wrong number of negotiations: got %d, want 2", len(summaries))
		}

		newest := summaries[0]
		if newest.ID != "test-negotiation-1" {
			t.Errorf("expected newest first, got %s", newest.ID)
		}
		if newest.TurnCount != 2 {
			t.Errorf("wrong turn count: got %d, want 2", newest.TurnCount)
		}
		if newest.CatalogSize != 2 {
			t.Errorf("wrong catalog size: got %d, want 2", newest.CatalogSize)
		}
		if newest.PartyA != "alice:economist" {
			t.Errorf("wrong party label: %s", newest.PartyA)
		}
		if newest.Agreement != "Diesel Engine 1" {
			t.Errorf("wrong agreement: %q", newest.Agreement)
		}
		if summaries[1].Agreement != "" {
			t.Errorf("pending negotiation should have no agreement")
		}

		page, err := store.ListNegotiations(1, 1)
		if err != nil {
			t.Fatalf("failed to page negotiations: %v", err)
		}
		if len(page) != 1 || page[0].ID != "test-negotiation-0" {
			t.Errorf("unexpected page: %+v", page)
		}
	})

	t.Run("DeleteNegotiation", func(t *testing.T) {
		if err := store.DeleteNegotiation("test-negotiation-1"); err != nil {
			t.Fatalf("failed to delete negotiation: %v", err)
		}

		if _, err := store.GetNegotiation("test-negotiation-1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after deletion, got %v", err)
		}

		// Turns should also be deleted (cascade)
		turns, _ := store.GetTurns("test-negotiation-1")
		if len(turns) != 0 {
			t.Error("turns still exist after negotiation deletion")
		}

		if err := store.DeleteNegotiation("test-negotiation-1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("GetNonexistentNegotiation", func(t *testing.T) {
		got, err := store.GetNegotiation("nonexistent")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if got != nil {
			t.Error("expected nil for nonexistent negotiation")
		}
	})

	t.Run("UpdateNonexistentNegotiation", func(t *testing.T) {
		n := testNegotiation("ghost", time.Now())
		if err := store.UpdateNegotiation(n); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAddTurnRequiresNegotiation(t *testing.T) {
	store := newTestStore(t)

	turn := &core.Turn{ID: "orphan", NegotiationID: "missing", Number: 1, Sender: "a", Receiver: "b", Performative: core.Propose, CreatedAt: time.Now()}
	if err := store.AddTurn(turn); err == nil {
		t.Error("expected foreign key error for orphan turn")
	}
}

func TestStartNegotiation(t *testing.T) {
	store := newTestStore(t)

	n := testNegotiation("start-1", time.Now())
	if err := store.CreateNegotiation(n); err != nil {
		t.Fatalf("failed to create negotiation: %v", err)
	}

	// Both callers saw the negotiation as pending; only the first may start it.
	if err := store.StartNegotiation(n.ID); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if err := store.StartNegotiation(n.ID); !errors.Is(err, ErrNotPending) {
		t.Errorf("expected ErrNotPending on second start, got %v", err)
	}

	got, err := store.GetNegotiation(n.ID)
	if err != nil {
		t.Fatalf("failed to get negotiation: %v", err)
	}
	if got.Status != core.StatusInProgress {
		t.Errorf("expected in_progress, got %s", got.Status)
	}

	if err := store.StartNegotiation("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
