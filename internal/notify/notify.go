// Package notify delivers booking confirmations (email + push) off the
// request path. Jobs are consumed by a worker pool with at-least-once
// semantics: a crash between send and ack can replay a job, so recipients
// may see a duplicate, never a rollback of payment state.
package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrQueueFull = errors.New("notification queue is full")

type Job struct {
	BookingID uuid.UUID
	PaymentID uuid.UUID
	UserID    uuid.UUID
}

// Queue is the minimal enqueue/dequeue contract the workers run against, so
// the in-process implementation can be swapped for a durable broker without
// touching the orchestrator.
type Queue interface {
	Enqueue(Job) error
	Jobs() <-chan Job
}

type channelQueue struct {
	jobs chan Job
}

func NewQueue(buffer int) Queue {
	return &channelQueue{jobs: make(chan Job, buffer)}
}

func (q *channelQueue) Enqueue(job Job) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *channelQueue) Jobs() <-chan Job {
	return q.jobs
}

// Drain consumes queued jobs until the context is canceled. Used by workers.
func Drain(ctx context.Context, q Queue, handle func(context.Context, Job)) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.Jobs():
			handle(ctx, job)
		}
	}
}
