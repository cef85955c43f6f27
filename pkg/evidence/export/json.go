package export

import (
	"context"
	"encoding/json"
	"io"

	"mercator-hq/vesta/pkg/evidence"
)

var _ evidence.Exporter = (*JSONExporter)(nil)

// JSONExporter writes verification reports as JSON.
type JSONExporter struct {
	// Pretty indents the output with two spaces.
	Pretty bool
}

// NewJSONExporter returns a JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes reports to w. A lone report is written as an object so that
// `vesta report export <id>` yields the report itself; anything else is an
// array.
func (e *JSONExporter) Export(ctx context.Context, reports []*evidence.VerificationReport, w io.Writer) error {
	if len(reports) == 1 {
		data, err := e.encode(reports[0], "")
		if err != nil {
			return evidence.NewExportError("json", 0, err)
		}
		if _, err := w.Write(data); err != nil {
			return evidence.NewExportError("json", 0, err)
		}
		return nil
	}

	aw := &arrayWriter{w: w, pretty: e.Pretty}
	if err := aw.open(); err != nil {
		return evidence.NewExportError("json", 0, err)
	}
	for i, report := range reports {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := aw.add(e, report); err != nil {
			return evidence.NewExportError("json", i, err)
		}
	}
	if err := aw.close(); err != nil {
		return evidence.NewExportError("json", len(reports), err)
	}
	return nil
}

// ExportStream writes reports from reportsCh as one JSON array, encoding
// each as it arrives. It returns when the channel closes or ctx ends.
func (e *JSONExporter) ExportStream(ctx context.Context, reportsCh <-chan *evidence.VerificationReport, w io.Writer) error {
	aw := &arrayWriter{w: w, pretty: e.Pretty}
	if err := aw.open(); err != nil {
		return evidence.NewExportError("json", 0, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case report, ok := <-reportsCh:
			if !ok {
				if err := aw.close(); err != nil {
					return evidence.NewExportError("json", aw.n, err)
				}
				return nil
			}
			if err := aw.add(e, report); err != nil {
				return evidence.NewExportError("json", aw.n, err)
			}
		}
	}
}

func (e *JSONExporter) encode(report *evidence.VerificationReport, prefix string) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(report, prefix, "  ")
	}
	return json.Marshal(report)
}

// arrayWriter emits a JSON array element by element.
type arrayWriter struct {
	w      io.Writer
	pretty bool
	n      int
}

func (a *arrayWriter) open() error {
	_, err := io.WriteString(a.w, "[")
	return err
}

func (a *arrayWriter) add(e *JSONExporter, report *evidence.VerificationReport) error {
	sep := ""
	switch {
	case a.n > 0 && a.pretty:
		sep = ",\n  "
	case a.n > 0:
		sep = ","
	case a.pretty:
		sep = "\n  "
	}
	data, err := e.encode(report, "  ")
	if err != nil {
		return err
	}
	if _, err := io.WriteString(a.w, sep); err != nil {
		return err
	}
	if _, err := a.w.Write(data); err != nil {
		return err
	}
	a.n++
	return nil
}

func (a *arrayWriter) close() error {
	end := "]"
	if a.pretty && a.n > 0 {
		end = "\n]"
	}
	_, err := io.WriteString(a.w, end)
	return err
}
