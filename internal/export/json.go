package export

import (
	"encoding/json"
	"io"

	"github.com/alienxp03/parley/internal/core"
)

// JSONExporter exports negotiations to JSON format.
type JSONExporter struct{}

// ExportData represents the full export structure.
type ExportData struct {
	Negotiation *core.Negotiation `json:"negotiation"`
	Turns       []*core.Turn      `json:"turns"`
}

// Export writes the negotiation as JSON.
func (e *JSONExporter) Export(n *core.Negotiation, turns []*core.Turn, w io.Writer) error {
	if turns == nil {
		turns = []*core.Turn{}
	}
	data := ExportData{
		Negotiation: n,
		Turns:       turns,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return "json"
}

// ContentType returns the MIME type for JSON.
func (e *JSONExporter) ContentType() string {
	return "application/json"
}
