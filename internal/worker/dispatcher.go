package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// QueueReconcile carries manual-reconciliation alerts: a confirmed roll
	// with no recorded location, or a dispatched roll whose storage update
	// was lost.
	QueueReconcile = "jobs:reconcile"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ReconcileAlert identifies the roll that needs hand reconciliation. It must
// carry enough identity (lot, FG roll number) to fix the record without
// touching the terminal that raised it.
type ReconcileAlert struct {
	Kind       string `json:"kind"` // "stranded_capture" | "orphaned_dispatched_roll"
	LotNo      string `json:"lot_no"`
	FGRollNo   string `json:"fg_roll_no"`
	Detail     string `json:"detail"`
	OccurredAt string `json:"occurred_at"` // ISO 8601
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReconcile pushes a manual-reconciliation alert. Best-effort: the
// caller already holds the authoritative inventory state and must not fail
// because the queue is down.
func (d *Dispatcher) EnqueueReconcile(ctx context.Context, alert ReconcileAlert) error {
	if alert.OccurredAt == "" {
		alert.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	return d.enqueue(ctx, QueueReconcile, "reconcile", alert)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}
