package jobs

import (
	"context"
	"time"

	affiliateapp "github.com/fortyseven/affiliate_ledger/src/internal/application/affiliate"
	"go.uber.org/zap"
)

type Reconciler interface {
	ReconcileAll(ctx context.Context, batchSize int) (*affiliateapp.ReconcileReport, error)
}

// ReconcileJob periodically recomputes every account's counters from its
// transaction log. Any drift it corrects means a write path skipped the
// ledger, so each correction is logged at error level.
type ReconcileJob struct {
	reconciler Reconciler
	interval   time.Duration
	batchSize  int
	timeout    time.Duration
	log        *zap.Logger
}

func NewReconcileJob(reconciler Reconciler, interval time.Duration, batchSize int, log *zap.Logger) *ReconcileJob {
	return &ReconcileJob{
		reconciler: reconciler,
		interval:   interval,
		batchSize:  batchSize,
		timeout:    30 * time.Minute,
		log:        log,
	}
}

func (j *ReconcileJob) Name() string { return "affiliate-ledger-reconcile" }

func (j *ReconcileJob) Interval() time.Duration { return j.interval }

func (j *ReconcileJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	report, err := j.reconciler.ReconcileAll(ctx, j.batchSize)
	if report != nil {
		for _, c := range report.Corrected {
			j.log.Error("ledger drift corrected",
				zap.String("account_id", c.AccountID),
				zap.Any("before", c.Before),
				zap.Any("after", c.After),
			)
		}
	}
	if err != nil {
		j.log.Error("reconcile run failed", zap.Error(err))
	}
	if report == nil {
		return
	}
	j.log.Info("reconcile run finished",
		zap.Int("checked", report.Checked),
		zap.Int("corrected", len(report.Corrected)),
		zap.Int("failed", report.Failed),
		zap.Duration("took", time.Since(start)),
	)
}
