package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"rollcall/internal/model"
	"rollcall/internal/queue"
	"rollcall/internal/report"
)

// outputResult writes result in the requested format. Unknown formats use the table.
func outputResult(out io.Writer, result interface{}, format string) error {
	if format == "json" {
		return outputJSON(out, result)
	}
	return outputTable(out, result)
}

func outputJSON(out io.Writer, result interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputTable(out io.Writer, result interface{}) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch r := result.(type) {
	case []model.Session:
		fmt.Fprintln(w, "ID\tCODE\tNAME\tDAY\tTIME")
		for _, s := range r {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.CourseCode, s.CourseName, s.Day, s.Time)
		}
	case report.Report:
		if r.Empty() {
			fmt.Fprintln(w, report.NoRecordsMessage)
			return nil
		}
		fmt.Fprintln(w, report.Title(r))
		fmt.Fprintln(w, report.Present(r))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "NAME\tMATRICULE\tDATE")
		for _, row := range r.Rows {
			fmt.Fprintf(w, "%s\t%s\t%s\n", row.StudentName, row.Matricule, row.Date)
		}
	case report.File:
		fmt.Fprintf(w, "FILE\t%s\n", r.Name)
		fmt.Fprintf(w, "PATH\t%s\n", r.Path)
		fmt.Fprintf(w, "LOCATION\t%s\n", r.Location)
	case queue.ExportJob:
		fmt.Fprintf(w, "JOB\t%s\n", r.ID)
		fmt.Fprintf(w, "FORMAT\t%s\n", r.Format)
	default:
		return outputJSON(out, result)
	}
	return nil
}
