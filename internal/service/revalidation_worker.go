package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/specreg-bridge/pkg/jobs"
)

// RevalidationPayload is the job payload for queued revalidations.
type RevalidationPayload struct {
	StudentID int64
	Force     bool
}

// RevalidationJobHandler adapts ValidationService.Revalidate to the job
// queue. Failed jobs are retried by the queue itself.
func RevalidationJobHandler(validations *ValidationService, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(RevalidationPayload)
		if !ok {
			return fmt.Errorf("unexpected payload for job %s", job.ID)
		}
		changed, err := validations.Revalidate(ctx, payload.StudentID, payload.Force)
		if err != nil {
			return err
		}
		logger.Info("revalidation finished",
			zap.String("job_id", job.ID),
			zap.Int64("student_id", payload.StudentID),
			zap.Bool("changed", changed))
		return nil
	}
}
