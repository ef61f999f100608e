package reconciler

import (
	"context"
	"time"

	"walletcore/internal/bank"
	"walletcore/internal/logger"
	"walletcore/internal/models"
)

const (
	defaultCountWorkers = 4                // Number of workers resolving pending transactions
	defaultScanInterval = 30 * time.Second // Interval between pending scans
	defaultMinAge       = 2 * time.Minute  // Leave fresh pendings alone, the online path may still finish them
	defaultBatchSize    = 100
)

type transactionService interface {
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error)
	FinalizePending(ctx context.Context, tr models.Transaction, approved bool) error
}

// Reconciler resolves transactions stuck in pending: rows whose settlement
// answer was lost because the process died or the final commit failed. It
// asks the bank what actually happened and finishes the transaction the same
// way the online path would have.
type Reconciler struct {
	consumer *Consumer
	producer *Producer
}

func New(checker bank.StatusChecker, logger logger.Logger, transactions transactionService) *Reconciler {
	return &Reconciler{
		consumer: &Consumer{
			countWorkers: defaultCountWorkers,
			checker:      checker,
			transactions: transactions,
			logger:       logger,
		},
		producer: &Producer{
			interval:     defaultScanInterval,
			minAge:       defaultMinAge,
			batchSize:    defaultBatchSize,
			transactions: transactions,
			logger:       logger,
		},
	}
}

func (r *Reconciler) Process(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	pendingChan := make(chan models.Transaction)

	// Start producer to scan for stale pending transactions
	producerStopped := r.producer.Produce(ctx, pendingChan)

	// Start consumer to resolve them
	consumerStopped := r.consumer.Consume(ctx, pendingChan)

	go func() {
		defer close(idleStopped)
		defer close(pendingChan)
		<-producerStopped
		<-consumerStopped
		r.consumer.logger.Debug("Reconciler stopped")
	}()

	return idleStopped
}
