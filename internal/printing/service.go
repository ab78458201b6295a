package printing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/contesthub/gateway/internal/contest"
	"github.com/contesthub/gateway/internal/notifications"
	"github.com/contesthub/gateway/internal/storage"
	"github.com/google/uuid"
)

// Intake outcomes. Everything but ErrPrintingDisabled also pushes exactly
// one user-visible notification through the sink.
var (
	ErrPrintingDisabled = errors.New("printing is not enabled")
	ErrQuotaExceeded    = errors.New("print job quota exceeded")
	ErrInvalidFormat    = errors.New("invalid upload format")
	ErrTooLarge         = errors.New("upload exceeds size limit")
	ErrStorageFailed    = errors.New("print job storage failed")
)

// JobStore is what the intake needs from persistence.
type JobStore interface {
	PrintJobsFor(participationID int64) ([]contest.PrintJob, error)
	CountPrintJobs(participationID int64) (int, error)
	CreatePrintJob(job *contest.PrintJob) error
}

// Upload is one file from the multipart form.
type Upload struct {
	Filename string
	Data     []byte
}

type Intake struct {
	Store   JobStore
	Content storage.ContentStore
	Queue   Queue
	Sink    notifications.Sink

	MaxJobsPerUser int
	MaxPrintLength int64
}

// RemainingQuota never goes negative even if the soft quota was overrun.
func (in *Intake) RemainingQuota(participationID int64) (int, error) {
	count, err := in.Store.CountPrintJobs(participationID)
	if err != nil {
		return 0, err
	}
	if remaining := in.MaxJobsPerUser - count; remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

func (in *Intake) ListJobs(participationID int64) ([]contest.PrintJob, error) {
	return in.Store.PrintJobsFor(participationID)
}

// Submit runs the intake checks in order, short-circuiting on the first
// failure. The quota check and the insert are not one transaction; two
// submissions racing near the limit may both pass, which is accepted
// soft-quota behavior.
func (in *Intake) Submit(ctx context.Context, c *contest.Contest, p *contest.Participation, username string, files map[string][]Upload, now time.Time) (*contest.PrintJob, error) {
	if !c.PrintingEnabled {
		return nil, ErrPrintingDisabled
	}

	count, err := in.Store.CountPrintJobs(p.ID)
	if err != nil {
		return nil, fmt.Errorf("job count: %w", err)
	}
	if count >= in.MaxJobsPerUser {
		in.Sink.Push(ctx, username, now,
			"Too many print jobs!",
			fmt.Sprintf("You have reached the maximum limit of at most %d print jobs.", in.MaxJobsPerUser),
			notifications.LevelError)
		return nil, ErrQuotaExceeded
	}

	uploads, ok := files["file"]
	if !ok || len(files) != 1 || len(uploads) != 1 {
		in.Sink.Push(ctx, username, now,
			"Invalid format!",
			"Please select the correct files.",
			notifications.LevelError)
		return nil, ErrInvalidFormat
	}
	upload := uploads[0]

	if int64(len(upload.Data)) > in.MaxPrintLength {
		in.Sink.Push(ctx, username, now,
			"File too big!",
			fmt.Sprintf("Each file must be at most %d bytes long.", in.MaxPrintLength),
			notifications.LevelError)
		return nil, ErrTooLarge
	}

	label := fmt.Sprintf("Print job sent by %s at %d.", username, now.Unix())
	digest, err := in.Content.Put(ctx, upload.Data, label)
	if err != nil {
		// The one transient system failure of the pipeline.
		log.Printf("[printing] storage failed: %v", err)
		in.Sink.Push(ctx, username, now,
			"Print job storage failed!",
			"Please try again.",
			notifications.LevelError)
		return nil, ErrStorageFailed
	}

	log.Printf("[printing] file stored for print job sent by %s", username)

	job := &contest.PrintJob{
		ID:              uuid.NewString(),
		ParticipationID: p.ID,
		Timestamp:       now,
		Filename:        upload.Filename,
		Digest:          digest,
	}
	if err := in.Store.CreatePrintJob(job); err != nil {
		return nil, fmt.Errorf("job insert: %w", err)
	}

	// Fire-and-forget hand-off; the job row already exists.
	if err := in.Queue.Enqueue(ctx, job.ID); err != nil {
		log.Printf("[printing] enqueue failed for job %s: %v", job.ID, err)
	}

	in.Sink.Push(ctx, username, now,
		"Print job received",
		"Your print job has been received.",
		notifications.LevelSuccess)
	return job, nil
}
