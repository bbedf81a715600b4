package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Job statuses.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusDead       = "dead"
)

// Job is one row of the background job queue.
type Job struct {
	ID          string
	JobType     string
	Payload     []byte
	Status      string
	Attempts    int
	MaxAttempts int
	RunAt       time.Time
	LastError   string
}

// EnqueueJobParams describes a job to enqueue.
type EnqueueJobParams struct {
	JobType     string
	Payload     []byte
	MaxAttempts int
	RunAt       time.Time
}

// EnqueueJob inserts a pending job and returns its id.
func (r *Repository) EnqueueJob(ctx context.Context, params EnqueueJobParams) (string, error) {
	if params.MaxAttempts <= 0 {
		params.MaxAttempts = 5
	}
	if params.RunAt.IsZero() {
		params.RunAt = time.Now()
	}
	if len(params.Payload) == 0 {
		params.Payload = []byte("{}")
	}

	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO jobs (job_type, payload, max_attempts, run_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text
	`, params.JobType, params.Payload, params.MaxAttempts, params.RunAt).Scan(&id)
	if err != nil {
		return "", domain.Internal(err, "repository.enqueue_job", "failed to enqueue job")
	}
	return id, nil
}

// ClaimNextJob atomically claims the next due pending job for a worker.
// Returns ErrNoJob when the queue is empty.
func (r *Repository) ClaimNextJob(ctx context.Context, workerID string) (*Job, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE jobs
		SET status = 'processing',
		    attempts = attempts + 1,
		    locked_by = $1,
		    locked_at = now(),
		    updated_at = now()
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = 'pending' AND run_at <= now()
			ORDER BY run_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id::text, job_type, payload, status, attempts, max_attempts, run_at, last_error
	`, workerID)

	var j Job
	err := row.Scan(&j.ID, &j.JobType, &j.Payload, &j.Status, &j.Attempts, &j.MaxAttempts, &j.RunAt, &j.LastError)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoJob
		}
		return nil, domain.Internal(err, "repository.claim_job", "failed to claim job")
	}
	return &j, nil
}

// ErrNoJob signals an empty queue; not an error condition for the worker.
var ErrNoJob = errors.New("no job available")

// CompleteJob marks a job as completed.
func (r *Repository) CompleteJob(ctx context.Context, jobID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'completed', locked_by = NULL, locked_at = NULL, updated_at = now()
		WHERE id::text = $1
	`, jobID)
	if err != nil {
		return domain.Internal(err, "repository.complete_job", "failed to complete job")
	}
	return nil
}

// FailJob records a failure. Jobs under the attempt limit are rescheduled
// with the given delay; exhausted jobs are dead-lettered.
func (r *Repository) FailJob(ctx context.Context, jobID, errMsg string, retryDelay time.Duration) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = CASE WHEN attempts >= max_attempts THEN 'dead' ELSE 'pending' END,
		    run_at = now() + make_interval(secs => $3),
		    last_error = $2,
		    locked_by = NULL,
		    locked_at = NULL,
		    updated_at = now()
		WHERE id::text = $1
	`, jobID, errMsg, retryDelay.Seconds())
	if err != nil {
		return domain.Internal(err, "repository.fail_job", "failed to fail job")
	}
	return nil
}
