package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/alienxp03/parley/internal/core"
)

// PDFExporter exports negotiations to PDF format.
type PDFExporter struct{}

// Export writes the negotiation as PDF.
func (e *PDFExporter) Export(n *core.Negotiation, turns []*core.Turn, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, e.sanitizeText(n.Title), "", "C", false)
	pdf.Ln(5)

	// Metadata section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Negotiation Information")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	e.addMetadataRow(pdf, "ID:", n.ID)
	e.addMetadataRow(pdf, "Status:", string(n.Status))
	e.addMetadataRow(pdf, "Seed:", fmt.Sprintf("%d", n.Seed))
	e.addMetadataRow(pdf, "Round limit:", fmt.Sprintf("%d", n.MaxRounds))
	e.addMetadataRow(pdf, "Created:", n.CreatedAt.Format(timeLayout))
	if n.CompletedAt != nil {
		e.addMetadataRow(pdf, "Completed:", n.CompletedAt.Format(timeLayout))
		e.addMetadataRow(pdf, "Duration:", formatDuration(n.CreatedAt, *n.CompletedAt))
	}
	pdf.Ln(5)

	// Parties section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Parties")
	pdf.Ln(8)

	e.addPartyBox(pdf, n.PartyA, 200, 230, 255) // Light blue
	pdf.Ln(3)
	e.addPartyBox(pdf, n.PartyB, 200, 255, 200) // Light green
	pdf.Ln(8)

	// Transcript
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Transcript")
	pdf.Ln(8)

	if len(turns) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No messages recorded.")
		pdf.Ln(6)
	} else {
		round := 0
		for _, turn := range turns {
			if pdf.GetY() > 250 {
				pdf.AddPage()
			}

			if turn.Round != round {
				round = turn.Round
				pdf.SetFont("Arial", "B", 10)
				pdf.Cell(0, 7, fmt.Sprintf("Round %d", round))
				pdf.Ln(7)
			}

			if turn.Sender == n.PartyA.Name {
				pdf.SetFillColor(200, 230, 255)
			} else {
				pdf.SetFillColor(200, 255, 200)
			}

			pdf.SetFont("Arial", "B", 9)
			header := fmt.Sprintf("%d. %s -> %s  %s", turn.Number, turn.Sender, turn.Receiver, turn.Performative)
			pdf.CellFormat(0, 6, e.sanitizeText(header), "", 1, "", true, 0, "")

			pdf.SetFont("Arial", "", 9)
			pdf.SetFillColor(255, 255, 255)
			pdf.MultiCell(0, 5, e.sanitizeText(turn.Content), "", "", false)
			pdf.Ln(2)
		}
	}

	// Outcome
	if pdf.GetY() > 230 {
		pdf.AddPage()
	}
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Outcome")
	pdf.Ln(8)

	if o := n.Outcome; o != nil && o.Agreed {
		pdf.SetFillColor(200, 255, 200) // Light green
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, e.sanitizeText(formatOutcome(o)), "", 1, "", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		e.addMetadataRow(pdf, "Ranks:", fmt.Sprintf("%d for %s, %d for %s", o.RankA+1, n.PartyA.Name, o.RankB+1, n.PartyB.Name))
		e.addMetadataRow(pdf, "Score:", fmt.Sprintf("%.3f", o.Score))
	} else {
		pdf.SetFillColor(255, 200, 200) // Light red
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, e.sanitizeText(formatOutcome(o)), "", 1, "", true, 0, "")
	}

	// Footer
	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 10, "Exported from parley", "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}

// ContentType returns the MIME type for PDF.
func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}

func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 5, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, e.sanitizeText(value))
	pdf.Ln(5)
}

func (e *PDFExporter) addPartyBox(pdf *gofpdf.Fpdf, party core.Party, r, g, b int) {
	pdf.SetFillColor(r, g, b)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, e.sanitizeText(party.Name), "", 1, "", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(255, 255, 255)
	pdf.Cell(25, 5, "Profile:")
	pdf.Cell(0, 5, e.sanitizeText(party.Profile))
	pdf.Ln(5)
	pdf.Cell(25, 5, "Ranking:")
	pdf.MultiCell(0, 5, formatRanking(party.Ranking), "", "", false)
}

// sanitizeText maps characters outside the core PDF fonts' Windows-1252
// encoding to ASCII.
func (e *PDFExporter) sanitizeText(text string) string {
	replacer := strings.NewReplacer(
		"\u2018", "'",
		"\u2019", "'",
		"\u201C", "\"",
		"\u201D", "\"",
		"\u2013", "-",
		"\u2014", "--",
		"\u2026", "...",
		"\u2192", "->",
		"\u00A0", " ",
	)
	return replacer.Replace(text)
}
