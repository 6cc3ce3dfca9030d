package services

import (
	"context"
	"errors"

	"wellness-rewards-system/store"

	"go.uber.org/zap"
)

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Owners   int      `json:"owners"`
	Repaired []string `json:"repaired"`
	Failed   int      `json:"failed"`
}

// LedgerReconciler rewrites cached totals that drifted from the ledger sum.
// The ledger is the source of truth.
type LedgerReconciler struct {
	Store store.Gateway
	Log   *zap.SugaredLogger
}

func NewLedgerReconciler(gw store.Gateway, log *zap.SugaredLogger) *LedgerReconciler {
	return &LedgerReconciler{Store: gw, Log: log}
}

// ReconcileOwner fixes one owner's total and level. It reports whether a
// repair was needed.
func (r *LedgerReconciler) ReconcileOwner(ctx context.Context, ownerID string) (bool, error) {
	const op = "reconcile owner"
	repaired := false
	err := r.Store.WithinTx(ctx, func(tx store.Gateway) error {
		// awards increment the locked row, so the sum below cannot miss one
		cached, err := tx.LockOwnerTotals(ctx, ownerID)
		if err != nil {
			return err
		}
		sum, err := tx.SumLedger(ctx, ownerID)
		if err != nil {
			return err
		}
		level := LevelOf(sum)
		if cached.TotalPoints == sum && cached.Level == level {
			return nil
		}
		if err := tx.UpdateOwnerTotals(ctx, ownerID, sum, level); err != nil {
			return err
		}
		r.Log.Warnf("🧮 Totals drift for %s: cached=%d/L%d ledger=%d/L%d", ownerID, cached.TotalPoints, cached.Level, sum, level)
		repaired = true
		return nil
	})
	if err != nil {
		return false, fromStore(op, err)
	}
	return repaired, nil
}

// Reconcile checks every owner with ledger entries. One owner failing does
// not stop the pass; the joined error lists every failure.
func (r *LedgerReconciler) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	owners, err := r.Store.ListLedgerOwners(ctx)
	if err != nil {
		return nil, fromStore("list ledger owners", err)
	}

	report := &ReconcileReport{Owners: len(owners), Repaired: []string{}}
	var errs []error
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		repaired, err := r.ReconcileOwner(ctx, owner)
		if err != nil {
			report.Failed++
			errs = append(errs, err)
			continue
		}
		if repaired {
			report.Repaired = append(report.Repaired, owner)
		}
	}
	r.Log.Infof("🧾 Ledger reconcile: %d owners, %d repaired, %d failed", report.Owners, len(report.Repaired), report.Failed)
	return report, errors.Join(errs...)
}
