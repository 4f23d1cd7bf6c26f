package main

import (
	"strings"

	"github.com/spf13/cobra"

	"rollcall/internal/apperr"
	"rollcall/internal/queue"
	"rollcall/internal/report"
)

func sessionsCmd() *cobra.Command {
	var q string
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions, optionally filtered by course code or name",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.Catalog.Search(cmd.Context(), q)
			if err != nil {
				return userError(err)
			}
			return outputResult(cmd.OutOrStdout(), sessions, outputFmt)
		},
	}
	cmd.Flags().StringVarP(&q, "query", "q", "", "Substring of course code or name")
	return cmd
}

// queryFlags binds the report selector flags.
func queryFlags(cmd *cobra.Command, q *report.Query) {
	cmd.Flags().StringVar(&q.CourseCode, "course", "", "Course code")
	cmd.Flags().StringVar(&q.Date, "date", "", "Day as D-M-YYYY")
	cmd.Flags().StringVar(&q.Time, "time", "", "Session time label, matched exactly")
}

func reportCmd() *cobra.Command {
	var q report.Query
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show who attended one session window",
		Long: `Show the attendance records of a course on one day and time window.

Examples:
  attendctl report --course CS101 --date 5-3-2024 --time "9:00 am - 11:00 am"
  attendctl report --course CS101 --date 5-3-2024 --time "9:00 am - 11:00 am" -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.Reports.Generate(cmd.Context(), q)
			if err != nil {
				return userError(err)
			}
			return outputResult(cmd.OutOrStdout(), rep, outputFmt)
		},
	}
	queryFlags(cmd, &q)
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		q      report.Query
		format string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a report as PDF or spreadsheet and share it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.Reports.Generate(cmd.Context(), q)
			if err != nil {
				return userError(err)
			}
			file, err := a.Exporter.Export(cmd.Context(), rep, report.Format(strings.ToLower(format)))
			if err != nil {
				return userError(err)
			}
			return outputResult(cmd.OutOrStdout(), file, outputFmt)
		},
	}
	queryFlags(cmd, &q)
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "pdf or xlsx")
	return cmd
}

func enqueueCmd() *cobra.Command {
	var (
		q      report.Query
		format string
	)
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue an export for the worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			job, err := queue.PublishExport(cmd.Context(), a.Jobs, queue.ExportJob{
				CourseCode:  q.CourseCode,
				Date:        q.Date,
				Time:        q.Time,
				Format:      strings.ToLower(format),
				RequestedBy: "attendctl",
			})
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), job, outputFmt)
		},
	}
	queryFlags(cmd, &q)
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "pdf or xlsx")
	return cmd
}

// userError keeps the message a person should see.
func userError(err error) error {
	if apperr.KindOf(err) == "" {
		return err
	}
	return &cliError{msg: apperr.UserMessage(err), err: err}
}

type cliError struct {
	msg string
	err error
}

func (e *cliError) Error() string { return e.msg }
func (e *cliError) Unwrap() error { return e.err }
