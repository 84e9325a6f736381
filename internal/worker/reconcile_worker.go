package worker

// reconcile_worker.go
// Processes manual-reconciliation alerts from QueueReconcile: a confirmed
// roll left without a recorded location, or a dispatched roll whose storage
// update was lost. The worker mails the supervisor inbox; after max sends
// fail the alert moves to the DLQ so it is never silently dropped.

import (
	"context"
	"encoding/json"
	"fmt"

	"knitmes/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MaxAlertAttempts bounds mail retries before an alert lands in the DLQ.
const MaxAlertAttempts = 3

// ReconcileWorker mails reconciliation alerts to the supervisor inbox.
type ReconcileWorker struct {
	mailer    *infra.Mailer
	recipient string
	attempts  map[string]int // alert fingerprint → send attempts
}

func NewReconcileWorker(mailer *infra.Mailer, recipient string) *ReconcileWorker {
	return &ReconcileWorker{mailer: mailer, recipient: recipient, attempts: make(map[string]int)}
}

// Process sends one alert mail. On failure the job is re-enqueued until
// MaxAlertAttempts, then moved to the DLQ.
func (w *ReconcileWorker) Process(ctx context.Context, rdb *redis.Client, raw json.RawMessage) {
	var alert ReconcileAlert
	if err := json.Unmarshal(raw, &alert); err != nil {
		log.Error().Err(err).Msg("reconcile_worker: invalid payload")
		return
	}
	if w.recipient == "" {
		log.Warn().
			Str("lot_no", alert.LotNo).
			Str("fg_roll_no", alert.FGRollNo).
			Msg("reconcile_worker: no alert recipient configured; alert logged only")
		return
	}

	subject := fmt.Sprintf("[knitmes] manual reconciliation needed: %s lot %s roll %s",
		alert.Kind, alert.LotNo, alert.FGRollNo)
	body := fmt.Sprintf(
		"Kind:      %s\nLot:       %s\nFG roll:   %s\nDetail:    %s\nOccurred:  %s\n",
		alert.Kind, alert.LotNo, alert.FGRollNo, alert.Detail, alert.OccurredAt)

	if err := w.mailer.SendAlert(w.recipient, subject, body); err != nil {
		key := alert.Kind + "|" + alert.LotNo + "|" + alert.FGRollNo
		w.attempts[key]++
		if w.attempts[key] >= MaxAlertAttempts {
			delete(w.attempts, key)
			SendToDLQ(ctx, rdb, QueueReconcile, "reconcile", raw,
				fmt.Sprintf("alert mail failed %d times: %v", MaxAlertAttempts, err),
				MaxAlertAttempts)
			return
		}
		log.Error().Err(err).
			Str("lot_no", alert.LotNo).
			Str("fg_roll_no", alert.FGRollNo).
			Int("attempt", w.attempts[key]).
			Msg("reconcile_worker: alert mail failed, re-enqueueing")
		// Push back for a later worker pass.
		job := Job{Type: "reconcile", Payload: raw}
		if encoded, mErr := json.Marshal(job); mErr == nil {
			_ = rdb.LPush(ctx, QueueReconcile, encoded).Err()
		}
		return
	}

	log.Info().
		Str("kind", alert.Kind).
		Str("lot_no", alert.LotNo).
		Str("fg_roll_no", alert.FGRollNo).
		Msg("reconcile_worker: alert mailed")
}
