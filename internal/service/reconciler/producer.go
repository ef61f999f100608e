package reconciler

import (
	"context"
	"time"

	"walletcore/internal/logger"
	"walletcore/internal/models"
)

type Producer struct {
	interval     time.Duration
	minAge       time.Duration
	batchSize    int
	transactions transactionService
	logger       logger.Logger
}

func (p *Producer) Produce(ctx context.Context, out chan<- models.Transaction) <-chan struct{} {
	idleStopped := make(chan struct{})
	p.logger.Debug("Starting reconciler producer", "interval", p.interval, "min_age", p.minAge, "batch_size", p.batchSize)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Debug("Reconciler producer stopped by context")
				return

			case <-ticker.C:
				cutoff := time.Now().Add(-p.minAge)
				pending, err := p.transactions.ListPendingBefore(ctx, cutoff, p.batchSize)
				if err != nil {
					p.logger.Error("Failed to list pending transactions", "error", err)
					continue
				}

				for _, tr := range pending {
					select {
					case <-ctx.Done():
						p.logger.Debug("Reconciler producer stopped by context while sending")
						return
					case out <- tr:
						p.logger.Debug("Pending transaction sent to channel", "transaction_id", tr.ID)
					}
				}
			}
		}
	}()

	return idleStopped
}
