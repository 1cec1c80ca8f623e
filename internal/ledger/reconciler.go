package ledger

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const sweepTimeout = 30 * time.Second

// RunSweep periodically walks every balance row and reconciles it against
// history. This is the recovery path for balance writes that failed after
// their history entry was logged.
func RunSweep(ctx context.Context, engine *Engine, batchSize int, interval time.Duration, log *logrus.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runSweep(ctx, engine, batchSize, log)

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping reconciliation sweep")
			return
		case <-ticker.C:
			runSweep(ctx, engine, batchSize, log)
		}
	}
}

func runSweep(ctx context.Context, engine *Engine, batchSize int, log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	total, err := engine.balances.Count(ctx)
	if err != nil {
		log.WithError(err).Error("failed to count balances for reconciliation")
		return
	}

	if total == 0 {
		log.Debug("no balances to reconcile")
		return
	}

	var checked, repaired int
	offset := 0

	for {
		balances, err := engine.balances.ListAll(ctx, batchSize, offset)
		if err != nil {
			log.WithError(err).Error("failed to fetch balances batch")
			break
		}

		if len(balances) == 0 {
			break
		}

		for _, b := range balances {
			_, fixed, err := engine.Reconcile(ctx, b.ChatID, b.Name)
			if err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"chat_id": b.ChatID,
					"name":    b.Name,
				}).Warn("reconciliation check failed")
				continue
			}
			checked++
			if fixed {
				repaired++
			}
		}

		offset += len(balances)
		if len(balances) < batchSize {
			break
		}

		select {
		case <-ctx.Done():
			log.Info("reconciliation sweep cancelled")
			return
		default:
		}
	}

	log.WithFields(logrus.Fields{
		"checked":  checked,
		"repaired": repaired,
		"total":    total,
	}).Info("reconciliation sweep completed")
}
