// Package export writes evidence records as JSON or CSV.
//
// JSON keeps every field, including stored bodies. CSV flattens a record
// to one row and leaves the bodies out so that spreadsheets stay usable.
//
//	exporter, err := export.NewExporter("csv", false)
//	if err != nil {
//	    return err
//	}
//	err = exporter.Export(ctx, records, os.Stdout)
package export
