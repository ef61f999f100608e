package reconciler

import (
	"context"
	"sync"

	"walletcore/internal/bank"
	"walletcore/internal/logger"
	"walletcore/internal/models"
)

type Consumer struct {
	countWorkers int

	checker      bank.StatusChecker
	transactions transactionService
	logger       logger.Logger
}

func (c *Consumer) Consume(ctx context.Context, in <-chan models.Transaction) <-chan struct{} {
	idleStopped := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < c.countWorkers; i++ {
		wg.Add(1)
		go func() {
			c.worker(ctx, in)
			wg.Done()
		}()
	}

	go func() {
		defer close(idleStopped)
		wg.Wait()
		c.logger.Debug("Reconciler consumer stopped")
	}()

	return idleStopped
}

func (c *Consumer) worker(ctx context.Context, in <-chan models.Transaction) {
	for {
		select {
		case <-ctx.Done():
			return

		case tr, ok := <-in:
			if !ok {
				c.logger.Debug("Reconciler worker stopped, input channel closed")
				return
			}

			status, err := c.checker.CheckSettlement(ctx, tr.ReferenceCode)
			if err != nil {
				c.logger.Error("Failed to check settlement status", "error", err, "reference_code", tr.ReferenceCode)
				continue
			}

			if status == bank.SettlementPending {
				// Bank is still deciding, the next scan will pick it up again
				c.logger.Debug("Settlement still pending at the bank", "reference_code", tr.ReferenceCode)
				continue
			}

			approved := status == bank.SettlementApproved
			if err := c.transactions.FinalizePending(ctx, tr, approved); err != nil {
				c.logger.Error("Failed to finalize pending transaction", "error", err, "transaction_id", tr.ID)
			}
		}
	}
}
