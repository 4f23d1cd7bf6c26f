package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TypeExport marks a report export job.
const TypeExport = "report.export"

// ExportJob asks the worker to produce one report file.
type ExportJob struct {
	ID          string    `json:"id"`
	CourseCode  string    `json:"courseCode"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Format      string    `json:"format"`
	RequestedBy string    `json:"requestedBy"`
	RequestedAt time.Time `json:"requestedAt"`
}

// PublishExport assigns an id when missing and enqueues the job.
func PublishExport(ctx context.Context, q Queue, job ExportJob) (ExportJob, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.RequestedAt.IsZero() {
		job.RequestedAt = time.Now().UTC()
	}
	body, err := json.Marshal(job)
	if err != nil {
		return ExportJob{}, err
	}
	if err := q.Publish(ctx, Message{Type: TypeExport, Body: body}); err != nil {
		return ExportJob{}, fmt.Errorf("publish export job: %w", err)
	}
	return job, nil
}

// DecodeExport reads an export job from msg.
func DecodeExport(msg Message) (ExportJob, error) {
	if msg.Type != TypeExport {
		return ExportJob{}, fmt.Errorf("unexpected message type %q", msg.Type)
	}
	var job ExportJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		return ExportJob{}, fmt.Errorf("decode export job: %w", err)
	}
	return job, nil
}
