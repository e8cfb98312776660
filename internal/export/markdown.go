package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/alienxp03/parley/internal/core"
)

const timeLayout = "January 2, 2006 at 3:04 PM"

// MarkdownExporter exports negotiations to Markdown format.
type MarkdownExporter struct{}

// Export writes the negotiation as Markdown.
func (e *MarkdownExporter) Export(n *core.Negotiation, turns []*core.Turn, w io.Writer) error {
	var sb strings.Builder

	// Title
	sb.WriteString(fmt.Sprintf("# %s\n\n", n.Title))

	// Metadata
	sb.WriteString("## Negotiation Information\n\n")
	sb.WriteString(fmt.Sprintf("- **ID:** `%s`\n", n.ID))
	sb.WriteString(fmt.Sprintf("- **Status:** %s\n", n.Status))
	sb.WriteString(fmt.Sprintf("- **Seed:** %d\n", n.Seed))
	sb.WriteString(fmt.Sprintf("- **Round limit:** %d\n", n.MaxRounds))
	sb.WriteString(fmt.Sprintf("- **Created:** %s\n", n.CreatedAt.Format(timeLayout)))
	if n.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("- **Completed:** %s\n", n.CompletedAt.Format(timeLayout)))
		sb.WriteString(fmt.Sprintf("- **Duration:** %s\n", formatDuration(n.CreatedAt, *n.CompletedAt)))
	}
	sb.WriteString("\n")

	// Parties
	sb.WriteString("## Parties\n\n")
	for _, p := range []core.Party{n.PartyA, n.PartyB} {
		sb.WriteString(fmt.Sprintf("### %s\n", p.Name))
		sb.WriteString(fmt.Sprintf("- **Profile:** %s\n", p.Profile))
		sb.WriteString(fmt.Sprintf("- **Ranking:** %s\n", formatRanking(p.Ranking)))
		sb.WriteString("\n")
	}

	// Catalog
	sb.WriteString(fmt.Sprintf("## Catalog (%d alternatives)\n\n", len(n.Catalog)))
	sb.WriteString("| ID |")
	for _, c := range core.Criteria() {
		sb.WriteString(fmt.Sprintf(" %s |", c))
	}
	sb.WriteString("\n|---|")
	sb.WriteString(strings.Repeat("---|", core.NumCriteria))
	sb.WriteString("\n")
	for _, alt := range n.Catalog {
		sb.WriteString(fmt.Sprintf("| %s |", alt.ID))
		for _, c := range core.Criteria() {
			v, _ := alt.Value(c)
			sb.WriteString(fmt.Sprintf(" %g |", v))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	// Transcript
	sb.WriteString("## Transcript\n\n")

	if len(turns) == 0 {
		sb.WriteString("*No messages recorded.*\n\n")
	} else {
		round := 0
		for _, turn := range turns {
			if turn.Round != round {
				round = turn.Round
				sb.WriteString(fmt.Sprintf("### Round %d\n\n", round))
			}
			sb.WriteString(fmt.Sprintf("%d. **%s → %s** `%s` %s\n", turn.Number, turn.Sender, turn.Receiver, turn.Performative, turn.Content))
		}
		sb.WriteString("\n")
	}

	// Outcome
	sb.WriteString("## Outcome\n\n")
	if o := n.Outcome; o != nil && o.Agreed {
		sb.WriteString(fmt.Sprintf("**✅ %s**\n\n", formatOutcome(o)))
		sb.WriteString(fmt.Sprintf("- **Rank for %s:** %d\n", n.PartyA.Name, o.RankA+1))
		sb.WriteString(fmt.Sprintf("- **Rank for %s:** %d\n", n.PartyB.Name, o.RankB+1))
		sb.WriteString(fmt.Sprintf("- **Score:** %.3f\n\n", o.Score))
	} else {
		sb.WriteString(fmt.Sprintf("**❌ %s**\n\n", formatOutcome(o)))
	}

	// Footer
	sb.WriteString("---\n\n")
	sb.WriteString("*Exported from parley*\n")

	_, err := w.Write([]byte(sb.String()))
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}

// ContentType returns the MIME type for Markdown.
func (e *MarkdownExporter) ContentType() string {
	return "text/markdown; charset=utf-8"
}
