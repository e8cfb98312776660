package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alienxp03/parley/internal/core"
)

func testNegotiation() (*core.Negotiation, []*core.Turn) {
	created := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	done := created.Add(2 * time.Second)
	ranking := []core.Criterion{core.ProductionCost, core.CostPerKm, core.Consumption, core.Durability, core.Noise, core.EnvironmentImpact}

	n := &core.Negotiation{
		ID:          "abc123XYZ0",
		Title:       "alice vs bob: engines",
		PartyA:      core.Party{Name: "alice", Profile: "economist", Ranking: ranking},
		PartyB:      core.Party{Name: "bob", Profile: "random", Ranking: ranking},
		Catalog:     []core.Alternative{{ID: "A", ProductionCost: 12000, Noise: 55}, {ID: "B", ProductionCost: 18000, Noise: 41}},
		Seed:        42,
		MaxRounds:   50,
		Status:      core.StatusAgreed,
		Outcome:     &core.Outcome{Agreed: true, Alternative: "A", Rounds: 4, Reason: "agreement", RankA: 0, RankB: 1, Score: 1.5},
		CreatedAt:   created,
		UpdatedAt:   done,
		CompletedAt: &done,
	}
	turns := []*core.Turn{
		{Number: 1, Round: 1, Sender: "alice", Receiver: "bob", Performative: core.Propose, Content: "A"},
		{Number: 2, Round: 2, Sender: "bob", Receiver: "alice", Performative: core.AskWhy, Content: "A"},
		{Number: 3, Round: 3, Sender: "alice", Receiver: "bob", Performative: core.Argue, Content: "A, PRODUCTION_COST = VERY_GOOD and PRODUCTION_COST > COST_PER_KM"},
	}
	return n, turns
}

func TestGetExporter(t *testing.T) {
	tests := []struct {
		format Format
		ext    string
	}{
		{FormatMarkdown, "md"},
		{"md", "md"},
		{"JSON", "json"},
		{FormatPDF, "pdf"},
	}

	for _, tt := range tests {
		exp, err := GetExporter(tt.format)
		if err != nil {
			t.Fatalf("GetExporter(%s): %v", tt.format, err)
		}
		if exp.FileExtension() != tt.ext {
			t.Errorf("GetExporter(%s) extension = %s, want %s", tt.format, exp.FileExtension(), tt.ext)
		}
	}

	if _, err := GetExporter("docx"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestMarkdownExporter(t *testing.T) {
	n, turns := testNegotiation()

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(n, turns, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# alice vs bob: engines",
		"- **Seed:** 42",
		"PRODUCTION_COST > COST_PER_KM > CONSUMPTION",
		"| A | 12000 |",
		"### Round 3",
		"3. **alice → bob** `ARGUE` A, PRODUCTION_COST = VERY_GOOD",
		"Agreed on A after 4 rounds",
		"- **Score:** 1.500",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownExporterWithoutAgreement(t *testing.T) {
	n, _ := testNegotiation()
	n.Status = core.StatusNoAgreement
	n.Outcome = &core.Outcome{Rounds: 9, Reason: "stalemate", RankA: -1, RankB: -1}

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(n, nil, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "No messages recorded") {
		t.Error("expected empty transcript note")
	}
	if !strings.Contains(out, "No agreement after 9 rounds (stalemate)") {
		t.Error("expected no-agreement outcome")
	}
}

func TestJSONExporter(t *testing.T) {
	n, turns := testNegotiation()

	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(n, turns, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if data.Negotiation.ID != n.ID || len(data.Turns) != 3 {
		t.Errorf("unexpected export: %+v", data)
	}
	if data.Negotiation.PartyA.Ranking[0] != core.ProductionCost {
		t.Errorf("ranking should be exported by name: %v", data.Negotiation.PartyA.Ranking)
	}
	if !strings.Contains(buf.String(), `"PRODUCTION_COST"`) {
		t.Error("criteria should be encoded by their canonical name")
	}
}

func TestPDFExporter(t *testing.T) {
	n, turns := testNegotiation()

	var buf bytes.Buffer
	if err := (&PDFExporter{}).Export(n, turns, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}

func TestGenerateFilename(t *testing.T) {
	n, _ := testNegotiation()

	got := GenerateFilename(n, "md")
	want := "negotiation_20260314_alice_vs_bob-_engines.md"
	if got != want {
		t.Errorf("GenerateFilename = %q, want %q", got, want)
	}

	t.Run("LongMultibyteTitle", func(t *testing.T) {
		long := *n
		long.Title = strings.Repeat("é", 49) + "ünter Motoren"
		got := GenerateFilename(&long, "md")
		if !utf8.ValidString(got) {
			t.Fatalf("filename is not valid UTF-8: %q", got)
		}
		want := "negotiation_20260314_" + strings.Repeat("é", 49) + "ü.md"
		if got != want {
			t.Errorf("GenerateFilename = %q, want %q", got, want)
		}
	})
}
