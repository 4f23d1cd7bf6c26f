package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"rollcall/internal/apperr"
	"rollcall/internal/metrics"
)

// Format is an export file format.
type Format string

const (
	FormatPDF         Format = "pdf"
	FormatSpreadsheet Format = "xlsx"
)

const sheetName = "Attendance Report"

var header = []string{"Names", "Matricule", "Date"}

// File is a produced export.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Path        string `json:"path"`
	Location    string `json:"location"`
	Data        []byte `json:"-"`
}

// timeLabel drops the first ":00" of the window label.
func timeLabel(t string) string { return strings.Replace(t, ":00", "", 1) }

// PDFName is {code}_att_{time}_{date}.pdf.
func PDFName(r Report) string {
	return fmt.Sprintf("%s_att_%s_%s.pdf", r.CourseCode, timeLabel(r.Time), r.Date)
}

// SpreadsheetName is {code}_att_{date}_{time}.xlsx. The date and time order
// differs from PDFName.
func SpreadsheetName(r Report) string {
	return fmt.Sprintf("%s_att_%s_%s.xlsx", r.CourseCode, r.Date, timeLabel(r.Time))
}

var unsafeName = strings.NewReplacer("/", "-", "\\", "-", "..", "_")

// DiskName is name with path separators and parent references replaced, so it
// always stays a single file inside the target directory.
func DiskName(name string) string {
	safe := unsafeName.Replace(name)
	if safe == "" || safe == "." {
		return "_"
	}
	return safe
}

// Title is the heading line of a rendered report.
func Title(r Report) string {
	return fmt.Sprintf("Attendance Report for %s on %s at period %s", r.CourseCode, r.Date, r.Time)
}

// Present is the row-count line.
func Present(r Report) string { return fmt.Sprintf("%d student(s) present", len(r.Rows)) }

// Exporter renders reports to files under Dir and hands them to a Sink.
type Exporter struct {
	dir     string
	sink    Sink
	logger  *zap.Logger
	metrics metrics.Recorder
}

// NewExporter builds an exporter. A nil sink keeps files in dir only.
func NewExporter(dir string, sink Sink, logger *zap.Logger, rec metrics.Recorder) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	if sink == nil {
		sink = DirSink{}
	}
	return &Exporter{dir: dir, sink: sink, logger: logger, metrics: rec}
}

// Export dispatches on format.
func (e *Exporter) Export(ctx context.Context, r Report, f Format) (File, error) {
	switch f {
	case FormatPDF:
		return e.ToPDF(ctx, r)
	case FormatSpreadsheet:
		return e.ToSpreadsheet(ctx, r)
	default:
		return File{}, apperr.Validation(fmt.Sprintf("unknown export format %q", f))
	}
}

// ToPDF renders the report table as a PDF.
func (e *Exporter) ToPDF(ctx context.Context, r Report) (File, error) {
	if r.Empty() {
		return File{}, apperr.Export("No report data to export.", nil)
	}
	data, err := renderPDF(r)
	if err == nil {
		return e.deliver(ctx, FormatPDF, File{Name: PDFName(r), ContentType: "application/pdf", Data: data})
	}
	e.metrics.RecordExport(string(FormatPDF), err)
	return File{}, apperr.Export("An error occurred while creating the PDF.", err)
}

// ToSpreadsheet builds a single-sheet workbook.
func (e *Exporter) ToSpreadsheet(ctx context.Context, r Report) (File, error) {
	if r.Empty() {
		return File{}, apperr.Export("No report data to export.", nil)
	}
	data, err := renderSpreadsheet(r)
	if err == nil {
		return e.deliver(ctx, FormatSpreadsheet, File{
			Name:        SpreadsheetName(r),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		})
	}
	e.metrics.RecordExport(string(FormatSpreadsheet), err)
	return File{}, apperr.Export("An error occurred while saving the Excel file.", err)
}

func (e *Exporter) deliver(ctx context.Context, f Format, file File) (File, error) {
	file, err := e.deliverFile(ctx, file)
	e.metrics.RecordExport(string(f), err)
	if err != nil {
		e.logger.Error("export failed", zap.String("file", file.Name), zap.Error(err))
		return File{}, err
	}
	e.logger.Info("report exported", zap.String("file", file.Name), zap.String("location", file.Location))
	return file, nil
}

func (e *Exporter) deliverFile(ctx context.Context, file File) (File, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return file, apperr.Export("An error occurred while saving the report.", err)
	}
	file.Path = filepath.Join(e.dir, DiskName(file.Name))
	if err := os.WriteFile(file.Path, file.Data, 0o644); err != nil {
		return file, apperr.Export("An error occurred while saving the report.", err)
	}
	loc, err := e.sink.Share(ctx, file)
	if err != nil {
		return file, apperr.Export("An error occurred while sharing the report.", err)
	}
	file.Location = loc
	return file, nil
}

var htmlReport = template.Must(template.New("report").Parse(`<html>
<head>
<style>
table { width: 100%; border-collapse: collapse; }
th, td { padding: 8px 12px; border: 1px solid #ddd; text-align: left; }
th { background-color: #f1f1f1; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Present}}</p>
<table>
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
{{- range .Rows}}
<tr><td>{{.StudentName}}</td><td>{{.Matricule}}</td><td>{{.Date}}</td></tr>
{{- end}}
</table>
</body>
</html>
`))

// HTML renders the report table as an HTML document.
func HTML(r Report) (string, error) {
	var buf bytes.Buffer
	err := htmlReport.Execute(&buf, struct {
		Title, Present string
		Header         []string
		Rows           []Row
	}{Title(r), Present(r), header, r.Rows})
	return buf.String(), err
}

func renderPDF(r Report) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(Title(r), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(Title(r)), "", "L", false)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, Present(r), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	widths := []float64{70, 50, 60}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(241, 241, 241)
	for i, h := range header {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, row := range r.Rows {
		for i, cell := range []string{row.StudentName, row.Matricule, row.Date} {
			pdf.CellFormat(widths[i], 8, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderSpreadsheet(r Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, err
	}
	for i, row := range r.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &[]string{row.StudentName, row.Matricule, row.Date}); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
