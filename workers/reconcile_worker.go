// workers/reconcile_worker.go
package workers

import (
	"context"
	"time"

	"wellness-rewards-system/services"
	"wellness-rewards-system/utils"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// ReconcileWorker runs the ledger reconciler on a fixed interval.
type ReconcileWorker struct {
	reconciler *services.LedgerReconciler
	interval   time.Duration
	log        *zap.SugaredLogger
	sched      gocron.Scheduler
}

func NewReconcileWorker(r *services.LedgerReconciler, interval time.Duration, log *zap.SugaredLogger) *ReconcileWorker {
	return &ReconcileWorker{reconciler: r, interval: interval, log: log}
}

// Start schedules the job, with a first run immediately. Overlapping runs
// are skipped rather than queued.
func (w *ReconcileWorker) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler(gocron.WithLogger(utils.GocronLogger{S: w.log}))
	if err != nil {
		return err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() { w.RunOnce(ctx) }),
		gocron.WithName("ledger-reconcile"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return err
	}

	w.sched = sched
	sched.Start()
	w.log.Infof("🔁 Ledger reconcile worker started (every %s)", w.interval)
	return nil
}

// RunOnce performs a single pass and logs the outcome.
func (w *ReconcileWorker) RunOnce(ctx context.Context) *services.ReconcileReport {
	if ctx.Err() != nil {
		return nil
	}
	report, err := w.reconciler.Reconcile(ctx)
	if err != nil {
		w.log.Errorf("[Reconcile] pass finished with errors: %v", err)
	}
	return report
}

func (w *ReconcileWorker) Stop() {
	if w.sched == nil {
		return
	}
	if err := w.sched.Shutdown(); err != nil {
		w.log.Warnf("[Reconcile] scheduler shutdown: %v", err)
	}
	w.sched = nil
}
