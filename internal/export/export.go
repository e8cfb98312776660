// Package export handles exporting negotiation transcripts to various formats.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alienxp03/parley/internal/core"
)

// Format represents an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

// Formats lists the supported export formats.
func Formats() []Format {
	return []Format{FormatMarkdown, FormatJSON, FormatPDF}
}

// Exporter defines the interface for exporting negotiations.
type Exporter interface {
	Export(n *core.Negotiation, turns []*core.Turn, w io.Writer) error
	FileExtension() string
	ContentType() string
}

// GetExporter returns an exporter for the given format. "md" is accepted as
// an alias for markdown.
func GetExporter(format Format) (Exporter, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatMarkdown, "md":
		return &MarkdownExporter{}, nil
	case FormatPDF:
		return &PDFExporter{}, nil
	case FormatJSON:
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// GenerateFilename creates a filename for the export.
func GenerateFilename(n *core.Negotiation, ext string) string {
	title := n.Title
	if r := []rune(title); len(r) > 50 {
		title = string(r[:50])
	}

	// Replace unsafe characters
	replacer := strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		":", "-",
		",", "",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	title = replacer.Replace(title)

	timestamp := n.CreatedAt.Format("20060102")
	return fmt.Sprintf("negotiation_%s_%s.%s", timestamp, title, ext)
}

func formatParty(p core.Party) string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Profile)
}

func formatRanking(ranking []core.Criterion) string {
	names := make([]string, len(ranking))
	for i, c := range ranking {
		names[i] = c.String()
	}
	return strings.Join(names, " > ")
}

// formatOutcome renders the result line shared by the text exporters.
func formatOutcome(o *core.Outcome) string {
	if o == nil {
		return "Not finished"
	}
	if !o.Agreed {
		return fmt.Sprintf("No agreement after %d rounds (%s)", o.Rounds, o.Reason)
	}
	return fmt.Sprintf("Agreed on %s after %d rounds", o.Alternative, o.Rounds)
}

func formatDuration(start, end time.Time) string {
	d := end.Sub(start)
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
	return fmt.Sprintf("%.1f hours", d.Hours())
}
