// Package worker drains queued report exports.
package worker

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"rollcall/internal/queue"
	"rollcall/internal/report"
)

// Exports generates and exports reports for queued jobs.
type Exports struct {
	Jobs     queue.Queue
	Reports  *report.Aggregator
	Exporter *report.Exporter
	Logger   *zap.Logger
}

// Run consumes until ctx ends. A failed job is logged and dropped.
func (w *Exports) Run(ctx context.Context) error {
	messages, err := w.Jobs.Consume(ctx)
	if err != nil {
		return err
	}
	w.Logger.Info("export worker started")
	for msg := range messages {
		if msg.Type != queue.TypeExport {
			w.Logger.Warn("skipping unknown message", zap.String("type", msg.Type))
			continue
		}
		job, err := queue.DecodeExport(msg)
		if err != nil {
			w.Logger.Error("bad export job", zap.Error(err))
			continue
		}
		if _, err := w.Handle(ctx, job); err != nil {
			w.Logger.Error("export job failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	w.Logger.Info("export worker stopped")
	return nil
}

// Handle runs one job. An empty report yields the exporter's no-data error.
func (w *Exports) Handle(ctx context.Context, job queue.ExportJob) (report.File, error) {
	rep, err := w.Reports.Generate(ctx, report.Query{CourseCode: job.CourseCode, Date: job.Date, Time: job.Time})
	if err != nil {
		return report.File{}, err
	}
	file, err := w.Exporter.Export(ctx, rep, report.Format(strings.ToLower(job.Format)))
	if err != nil {
		return report.File{}, err
	}
	w.Logger.Info("export job done",
		zap.String("job_id", job.ID),
		zap.String("requested_by", job.RequestedBy),
		zap.String("file", file.Name),
		zap.String("location", file.Location))
	return file, nil
}
