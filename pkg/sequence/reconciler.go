package sequence

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gamepub/chain-middleware/pkg/walletstore"
)

// Reconciler periodically repairs service signer sequence records that have
// drifted ahead of the chain. A local counter races ahead permanently when an
// allocated transaction is dropped by the network; once the ledger shows no
// in-flight transactions for the signer, the stored value can safely be reset
// to the chain's reported sequence.
type Reconciler struct {
	store    walletstore.Store
	chain    ChainReader
	signers  []string
	interval time.Duration
	logger   *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewReconciler creates a reconciler for the given service signer addresses
func NewReconciler(store walletstore.Store, chainClient ChainReader, signers []string, interval time.Duration, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		chain:    chainClient,
		signers:  signers,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic reconciliation loop
func (r *Reconciler) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopCh:
				return
			case <-ticker.C:
				if err := r.ReconcileAll(ctx); err != nil {
					r.logger.Error("Sequence reconciliation failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop stops the reconciliation loop and waits for it to finish
func (r *Reconciler) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}

// ReconcileAll runs one reconciliation pass over all configured signers
func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	var firstErr error
	for _, signer := range r.signers {
		if err := r.reconcileSigner(ctx, signer); err != nil {
			r.logger.Warn("Failed to reconcile signer sequence",
				zap.String("signer", signer),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// allocationGrace is how long a freshly advanced counter is left alone. An
// allocation commits its sequence before the orchestrator writes the ledger
// row, so a counter updated moments ago may back a transaction the ledger
// cannot show yet.
const allocationGrace = time.Minute

func (r *Reconciler) reconcileSigner(ctx context.Context, signer string) error {
	return r.store.WithTx(ctx, func(tx walletstore.Store) error {
		rec, err := tx.GetSequenceForUpdate(ctx, signer)
		if errors.Is(err, walletstore.ErrSequenceNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if time.Since(rec.UpdatedAt) < allocationGrace {
			return nil
		}

		// The row lock is held, so no allocation can slip in between this
		// check and the reset below.
		pending, err := tx.ListPendingBySigner(ctx, signer)
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			// In-flight transactions may still land and consume the local
			// counter; resetting now would hand out duplicates.
			r.logger.Debug("Skipping signer with in-flight transactions",
				zap.String("signer", signer),
				zap.Int("pending", len(pending)))
			return nil
		}

		account, err := r.chain.GetAccount(ctx, signer)
		if err != nil {
			return err
		}
		if rec.SequenceNumber <= account.Sequence {
			return nil
		}

		r.logger.Info("Resetting over-counted signer sequence",
			zap.String("signer", signer),
			zap.Uint64("local", rec.SequenceNumber),
			zap.Uint64("chain", account.Sequence))
		return tx.SetSequence(ctx, signer, account.Sequence)
	})
}
