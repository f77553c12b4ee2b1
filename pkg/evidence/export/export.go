package export

import (
	"fmt"

	"mercator-hq/courier/pkg/evidence"
)

// Formats lists the supported export formats.
var Formats = []string{"json", "csv"}

// NewExporter returns the exporter for format.
func NewExporter(format string, pretty bool) (evidence.Exporter, error) {
	switch format {
	case "json":
		return NewJSONExporter(pretty), nil
	case "csv":
		return NewCSVExporter(true), nil
	default:
		return nil, evidence.NewExportError(format, 0, fmt.Errorf("unknown format %q (want json or csv)", format))
	}
}
