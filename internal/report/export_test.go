package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rollcall/internal/apperr"
)

func sample() Report {
	return Report{
		Query:      Query{CourseCode: "CS101", Date: "5-3-2024", Time: window},
		CourseName: "Intro to Computing",
		Rows: []Row{
			{StudentName: "Alice", Matricule: "M1", Date: "5-3-2024 9:05"},
			{StudentName: "Zoë", Matricule: "M2", Date: "5-3-2024 9:12"},
		},
	}
}

func TestFileNames(t *testing.T) {
	r := sample()
	assert.Equal(t, "CS101_att_9 am - 11:00 am_5-3-2024.pdf", PDFName(r))
	assert.Equal(t, "CS101_att_5-3-2024_9 am - 11:00 am.xlsx", SpreadsheetName(r))

	r.Time = "8:30 am - 10:30 am"
	assert.Equal(t, "CS101_att_8:30 am - 10:30 am_5-3-2024.pdf", PDFName(r))
}

func TestTitleLines(t *testing.T) {
	r := sample()
	assert.Equal(t, "Attendance Report for CS101 on 5-3-2024 at period 9:00 am - 11:00 am", Title(r))
	assert.Equal(t, "2 student(s) present", Present(r))
}

func TestHTML(t *testing.T) {
	r := sample()
	r.Rows = append(r.Rows, Row{StudentName: "<script>", Matricule: "M3", Date: "5-3-2024 9:20"})
	out, err := HTML(r)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Attendance Report for CS101 on 5-3-2024 at period 9:00 am - 11:00 am</h1>")
	assert.Contains(t, out, "<p>3 student(s) present</p>")
	assert.Contains(t, out, "<th>Names</th><th>Matricule</th><th>Date</th>")
	assert.Contains(t, out, "<td>Alice</td><td>M1</td><td>5-3-2024 9:05</td>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<td><script>")
}

func TestToPDF(t *testing.T) {
	dir := t.TempDir()
	f, err := NewExporter(dir, nil, nil, nil).ToPDF(context.Background(), sample())
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", f.ContentType)
	assert.True(t, bytes.HasPrefix(f.Data, []byte("%PDF-")))
	assert.Equal(t, filepath.Join(dir, "CS101_att_9 am - 11:00 am_5-3-2024.pdf"), f.Path)
	assert.Equal(t, f.Path, f.Location)

	onDisk, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, f.Data, onDisk)
}

func TestToSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	f, err := NewExporter(dir, nil, nil, nil).ToSpreadsheet(context.Background(), sample())
	require.NoError(t, err)
	assert.Equal(t, "CS101_att_5-3-2024_9 am - 11:00 am.xlsx", f.Name)

	wb, err := excelize.OpenReader(bytes.NewReader(f.Data))
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Attendance Report"}, wb.GetSheetList())
	rows, err := wb.GetRows("Attendance Report")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Names", "Matricule", "Date"},
		{"Alice", "M1", "5-3-2024 9:05"},
		{"Zoë", "M2", "5-3-2024 9:12"},
	}, rows)
}

func TestExportDispatch(t *testing.T) {
	e := NewExporter(t.TempDir(), nil, nil, nil)
	f, err := e.Export(context.Background(), sample(), FormatSpreadsheet)
	require.NoError(t, err)
	assert.Equal(t, SpreadsheetName(sample()), f.Name)

	_, err = e.Export(context.Background(), sample(), "csv")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDirSinkCopies(t *testing.T) {
	share := t.TempDir()
	f, err := NewExporter(t.TempDir(), DirSink{Dir: share}, nil, nil).ToPDF(context.Background(), sample())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(share, PDFName(sample())), f.Location)
	_, err = os.Stat(f.Location)
	assert.NoError(t, err)
}

type brokenSink struct{}

func (brokenSink) Share(context.Context, File) (string, error) {
	return "", errors.New("share cancelled")
}

func TestSinkFailureIsExportError(t *testing.T) {
	_, err := NewExporter(t.TempDir(), brokenSink{}, nil, nil).ToSpreadsheet(context.Background(), sample())
	assert.ErrorIs(t, err, apperr.ErrExport)
	assert.Equal(t, "An error occurred while sharing the report.", apperr.UserMessage(err))
}

func TestDiskName(t *testing.T) {
	cases := map[string]string{
		"CS101_att_9 am - 11:00 am_5-3-2024.pdf":  "CS101_att_9 am - 11:00 am_5-3-2024.pdf",
		"CS101_att_8 am / 10:00 am_5-3-2024.pdf":  "CS101_att_8 am - 10:00 am_5-3-2024.pdf",
		`CS101_att_8 am \ 10:00 am_5-3-2024.xlsx`: "CS101_att_8 am - 10:00 am_5-3-2024.xlsx",
		"../../x_att_9 am_5-3-2024.pdf":           "_-_-x_att_9 am_5-3-2024.pdf",
		"..":                                      "_",
		"":                                        "_",
	}
	for in, want := range cases {
		got := DiskName(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, filepath.Base(got), in)
	}
}

func TestExportSlashInTimeLabel(t *testing.T) {
	dir := t.TempDir()
	r := sample()
	r.Time = "8:00 am / 10:00 am"

	f, err := NewExporter(dir, nil, nil, nil).ToPDF(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "CS101_att_8 am / 10:00 am_5-3-2024.pdf", f.Name)
	assert.Equal(t, dir, filepath.Dir(f.Path))
	_, err = os.Stat(f.Path)
	assert.NoError(t, err)
}

func TestExportCourseCodeStaysInDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "reports")
	share := filepath.Join(root, "share")
	r := sample()
	r.CourseCode = "../../x"

	f, err := NewExporter(dir, DirSink{Dir: share}, nil, nil).ToSpreadsheet(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(f.Path))
	assert.Equal(t, share, filepath.Dir(f.Location))
}
