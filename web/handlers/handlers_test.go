package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alienxp03/parley/internal/config"
	"github.com/alienxp03/parley/internal/core"
	"github.com/alienxp03/parley/internal/engine"
	"github.com/alienxp03/parley/internal/profile"
	"github.com/alienxp03/parley/internal/storage"
)

// setupTestServer creates a server backed by a temporary SQLite database.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Initialize(); err != nil {
		t.Fatalf("Failed to initialize storage: %v", err)
	}

	cfg := config.Default()
	cfg.Profiles = []profile.Profile{{
		ID:   "quiet",
		Name: "Quiet",
		Ranking: []core.Criterion{
			core.Noise, core.EnvironmentImpact, core.Consumption, core.Durability, core.CostPerKm, core.ProductionCost,
		},
	}}

	eng := engine.New(store, engine.WithProfiles(cfg))
	srv := httptest.NewServer(New(eng, cfg).Routes())
	t.Cleanup(srv.Close)
	return srv
}

// agreeableRequest creates a negotiation over a catalog where one
// alternative dominates, so the run always ends in agreement.
func agreeableRequest(wait bool) CreateRequest {
	return CreateRequest{
		NewNegotiationConfig: core.NewNegotiationConfig{
			Title:  "Test Negotiation",
			PartyA: core.PartySpec{Name: "alice", Profile: "quiet"},
			PartyB: core.PartySpec{Name: "bob", Profile: "economist"},
			Catalog: []core.Alternative{
				{ID: "Worst", ProductionCost: 50000, Consumption: 20, Durability: 0, EnvironmentImpact: 10, Noise: 100, CostPerKm: 1},
				{ID: "Best", ProductionCost: 5000, Consumption: 0, Durability: 10, EnvironmentImpact: 0, Noise: 10, CostPerKm: 0.001},
			},
			Seed: 17,
		},
		Wait: wait,
	}
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func createNegotiation(t *testing.T, srv *httptest.Server, wait bool) *core.Negotiation {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/negotiations", agreeableRequest(wait))
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d: %s", resp.StatusCode, body)
	}
	var n core.Negotiation
	decode(t, resp, &n)
	return &n
}

func TestHealth(t *testing.T) {
	srv := setupTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	decode(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("Unexpected body: %v", body)
	}
}

func TestCreateAndGetNegotiation(t *testing.T) {
	srv := setupTestServer(t)

	n := createNegotiation(t, srv, true)
	if n.Status != core.StatusAgreed {
		t.Fatalf("Expected agreed negotiation, got %s", n.Status)
	}
	if n.Outcome == nil || n.Outcome.Alternative != "Best" {
		t.Fatalf("Unexpected outcome: %+v", n.Outcome)
	}
	if n.PartyA.Ranking[0] != core.Noise {
		t.Errorf("Custom profile not applied: %v", n.PartyA.Ranking)
	}

	resp, err := http.Get(srv.URL + "/api/negotiations/" + n.ID)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var result struct {
		Negotiation *core.Negotiation `json:"negotiation"`
		Turns       []*core.Turn      `json:"turns"`
	}
	decode(t, resp, &result)
	if result.Negotiation.ID != n.ID {
		t.Errorf("Expected negotiation %s, got %s", n.ID, result.Negotiation.ID)
	}
	if len(result.Turns) != 6 {
		t.Errorf("Expected 6 turns, got %d", len(result.Turns))
	}
}

func TestCreateNegotiationInvalid(t *testing.T) {
	srv := setupTestServer(t)

	t.Run("BadJSON", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/negotiations", "application/json", strings.NewReader("{"))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}
	})

	t.Run("UnknownProfile", func(t *testing.T) {
		req := agreeableRequest(false)
		req.PartyB.Profile = "gambler"
		resp := postJSON(t, srv.URL+"/api/negotiations", req)
		var body map[string]string
		decode(t, resp, &body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}
		if !strings.Contains(body["error"], "gambler") {
			t.Errorf("Error should name the profile: %v", body)
		}
	})

	t.Run("TinyCatalog", func(t *testing.T) {
		req := agreeableRequest(false)
		req.Catalog = req.Catalog[:1]
		resp := postJSON(t, srv.URL+"/api/negotiations", req)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}
	})
}

func TestRunNegotiationEndpoint(t *testing.T) {
	srv := setupTestServer(t)

	n := createNegotiation(t, srv, false)
	if n.Status != core.StatusPending {
		t.Fatalf("Expected pending negotiation, got %s", n.Status)
	}

	resp, err := http.Post(srv.URL+"/api/negotiations/"+n.ID+"/run?wait=true", "application/json", nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var outcome core.Outcome
	decode(t, resp, &outcome)
	if !outcome.Agreed || outcome.Score != 2 {
		t.Errorf("Unexpected outcome: %+v", outcome)
	}

	resp, err = http.Post(srv.URL+"/api/negotiations/"+n.ID+"/run", "application/json", nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected status 409 for a finished negotiation, got %d", resp.StatusCode)
	}
}

func TestRunNegotiationStartsOnce(t *testing.T) {
	srv := setupTestServer(t)
	n := createNegotiation(t, srv, false)
	runURL := srv.URL + "/api/negotiations/" + n.ID + "/run"

	resp, err := http.Post(runURL, "application/json", nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", resp.StatusCode)
	}

	// The first request already claimed the negotiation.
	resp, err = http.Post(runURL, "application/json", nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected status 409 for a second start, got %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/negotiations/missing/run", "application/json", nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(srv.URL + "/api/negotiations/" + n.ID)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		var result struct {
			Negotiation *core.Negotiation `json:"negotiation"`
		}
		decode(t, resp, &result)
		status := result.Negotiation.Status
		if status.Finished() {
			if status != core.StatusAgreed {
				t.Errorf("Expected agreed, got %s", status)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Negotiation still %s after 5s", status)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestListAndDeleteNegotiations(t *testing.T) {
	srv := setupTestServer(t)

	n := createNegotiation(t, srv, true)
	createNegotiation(t, srv, false)

	resp, err := http.Get(srv.URL + "/api/negotiations?limit=10")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var summaries []core.NegotiationSummary
	decode(t, resp, &summaries)
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 negotiations, got %d", len(summaries))
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/negotiations/"+n.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/negotiations/" + n.ID)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", resp.StatusCode)
	}

	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", resp.StatusCode)
	}
}

func TestExportNegotiation(t *testing.T) {
	srv := setupTestServer(t)
	n := createNegotiation(t, srv, true)

	tests := []struct {
		format      string
		status      int
		contentType string
		contains    string
	}{
		{"markdown", http.StatusOK, "text/markdown", "# Test Negotiation"},
		{"json", http.StatusOK, "application/json", `"negotiation"`},
		{"pdf", http.StatusOK, "application/pdf", "%PDF-"},
		{"docx", http.StatusBadRequest, "application/json", "unsupported"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/negotiations/" + n.ID + "/export/" + tt.format)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Fatalf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Expected content type %s, got %s", tt.contentType, ct)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("Body does not contain %q", tt.contains)
			}
		})
	}

	resp, err := http.Get(srv.URL + "/api/negotiations/missing/export/json")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}

func TestListProfiles(t *testing.T) {
	srv := setupTestServer(t)

	resp, err := http.Get(srv.URL + "/api/profiles")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var profiles []profile.Profile
	decode(t, resp, &profiles)

	ids := make(map[string]bool)
	for _, p := range profiles {
		ids[p.ID] = true
	}
	for _, want := range []string{profile.Random, "economist", "quiet"} {
		if !ids[want] {
			t.Errorf("Profile %s missing from %v", want, ids)
		}
	}
}

func TestCatalog(t *testing.T) {
	srv := setupTestServer(t)

	tests := []struct {
		query  string
		status int
		size   int
	}{
		{"", http.StatusOK, 10},
		{"?size=4", http.StatusOK, 4},
		{"?size=abc", http.StatusBadRequest, 0},
		{"?size=1", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		resp, err := http.Get(srv.URL + "/api/catalog" + tt.query)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.StatusCode != tt.status {
			resp.Body.Close()
			t.Errorf("%q: expected status %d, got %d", tt.query, tt.status, resp.StatusCode)
			continue
		}
		if tt.status != http.StatusOK {
			resp.Body.Close()
			continue
		}
		var alternatives []core.Alternative
		decode(t, resp, &alternatives)
		if len(alternatives) != tt.size {
			t.Errorf("%q: expected %d alternatives, got %d", tt.query, tt.size, len(alternatives))
		}
	}
}

func TestStreamFinishedNegotiation(t *testing.T) {
	srv := setupTestServer(t)
	n := createNegotiation(t, srv, true)

	resp, err := http.Get(srv.URL + "/api/negotiations/" + n.ID + "/stream")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected event stream, got %s", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	if got := strings.Count(text, "event: turn\n"); got != 6 {
		t.Errorf("Expected 6 turn events, got %d", got)
	}
	if !strings.Contains(text, "event: negotiation_complete") {
		t.Error("Expected completion event")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := setupTestServer(t)
	createNegotiation(t, srv, true)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	if !strings.Contains(text, `parley_negotiations_total{status="agreed"} 1`) {
		t.Errorf("Expected agreed negotiation in metrics, got:\n%s", text)
	}
	if !strings.Contains(text, `parley_messages_total{performative="COMMIT"} 2`) {
		t.Error("Expected commit messages in metrics")
	}
}
