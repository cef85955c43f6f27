// Package export writes verification reports in portable formats.
//
// # Export Formats
//
//   - JSON: single report or array, with optional pretty-printing
//   - CSV: flattened schema with a header row; list fields joined with ";"
//
// # Usage
//
//	exporter := export.NewCSVExporter(true)
//
//	f, _ := os.Create("reports.csv")
//	defer f.Close()
//
//	if err := exporter.Export(ctx, reports, f); err != nil {
//	    log.Fatal(err)
//	}
//
// # Streaming
//
// ExportStream consumes a channel such as the one returned by
// ReportStore.ListStream, so large exports never hold every report in memory.
//
// # Error Handling
//
// Exporters return evidence.ExportError when encoding or writing fails.
package export
