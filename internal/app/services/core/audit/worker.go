package audit

import (
	"context"
	"fmt"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/app/services/shared/auditqueue"
	"schoolpay-service/internal/pkg/constvars"
	"time"

	"go.uber.org/zap"
)

// Worker drains queued audit entries into the mongo sink with
// at-least-once semantics. Entries that keep failing park on the DLQ so
// one poison message cannot stall the queue.
type Worker struct {
	log        *zap.Logger
	queue      *auditqueue.Service
	repository contracts.AuditTrailRepository
	batchSize  int
	stop       chan struct{}
}

func NewWorker(log *zap.Logger, queue *auditqueue.Service, repository contracts.AuditTrailRepository, batchSize int) *Worker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Worker{
		log:        log,
		queue:      queue,
		repository: repository,
		batchSize:  batchSize,
		stop:       make(chan struct{}),
	}
}

// Start begins the ticker loop. It returns a stop function to halt execution.
func (w *Worker) Start(ctx context.Context) (stop func()) {
	ticker := time.NewTicker(10 * time.Second)
	stopped := make(chan struct{})

	fmt.Println("Audit worker started")

	go func() {
		defer close(stopped)
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-w.stop:
				ticker.Stop()
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()

	return func() {
		close(w.stop)
		<-stopped
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	items, err := w.queue.FetchN(ctx, w.batchSize)
	if err != nil {
		w.log.Error("audit.worker.runOnce fetch failed",
			zap.Error(err))
		return
	}

	for _, item := range items {
		entry := item.Entry
		if err := w.repository.InsertEntry(ctx, &entry); err != nil {
			w.log.Error("audit.worker.runOnce insert failed",
				zap.String(constvars.LoggingAuditEntryIDKey, entry.ID),
				zap.String(constvars.LoggingReferenceKey, entry.Reference),
				zap.Error(err),
			)
			if dlqErr := w.queue.AppendToDeadQueue(ctx, &entry); dlqErr != nil {
				// Keep it on the main queue for the next tick.
				_ = w.queue.Nack(item.DeliveryTag)
				continue
			}
		}
		if err := w.queue.Ack(item.DeliveryTag); err != nil {
			w.log.Error("audit.worker.runOnce ack failed",
				zap.String(constvars.LoggingAuditEntryIDKey, entry.ID),
				zap.Error(err),
			)
		}
	}
}
