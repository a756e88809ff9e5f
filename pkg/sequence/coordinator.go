// Package sequence allocates collision-free transaction sequence numbers
// per chain account, reconciling the locally persisted counter against the
// chain's reported value.
package sequence

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gamepub/chain-middleware/internal/metrics"
	"github.com/gamepub/chain-middleware/pkg/chain"
	"github.com/gamepub/chain-middleware/pkg/walletstore"
)

// ChainReader is the narrow chain surface the coordinator needs.
type ChainReader interface {
	GetAccount(ctx context.Context, address string) (*chain.Account, error)
}

// Coordinator hands out the next sequence number for an account. All
// allocations for the same account serialize on the account's row lock;
// allocations for different accounts do not contend.
type Coordinator struct {
	store  walletstore.Store
	chain  ChainReader
	logger *zap.Logger
}

// NewCoordinator creates a new sequence coordinator
func NewCoordinator(store walletstore.Store, chainClient ChainReader, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		chain:  chainClient,
		logger: logger,
	}
}

// Allocate returns the next usable sequence number for the account.
//
// The allocation runs inside one serializable transaction holding a write
// lock on the account's sequence row: the chain's reported sequence is
// compared with the local counter, the larger wins (a local counter ahead of
// the chain means earlier allocations are still in flight), and the stored
// value is advanced past the returned one. On any failure the transaction
// rolls back and no sequence is considered allocated.
func (c *Coordinator) Allocate(ctx context.Context, accAddress string) (uint64, error) {
	var allocated uint64

	err := c.store.WithTx(ctx, func(tx walletstore.Store) error {
		account, err := c.chain.GetAccount(ctx, accAddress)
		if err != nil {
			return fmt.Errorf("query chain account: %w", err)
		}

		candidate, err := c.reserveNext(ctx, tx, accAddress, account.Sequence)
		if err != nil {
			return err
		}
		allocated = candidate
		return nil
	})
	if err != nil {
		metrics.SequenceAllocations.WithLabelValues("error").Inc()
		return 0, err
	}

	metrics.SequenceAllocations.WithLabelValues("ok").Inc()
	c.logger.Debug("Allocated sequence",
		zap.String("account", accAddress),
		zap.Uint64("sequence", allocated))
	return allocated, nil
}

// AllocateLocal allocates the next sequence for a service-administered
// account using the stored counter only, inside the caller's transaction.
// The chain is consulted just once, to seed an account that has no record
// yet. Used by custodial flows that commit allocation, broadcast result and
// ledger write as one unit of work.
func (c *Coordinator) AllocateLocal(ctx context.Context, tx walletstore.Store, accAddress string) (uint64, error) {
	rec, err := tx.GetSequenceForUpdate(ctx, accAddress)
	if err != nil && !errors.Is(err, walletstore.ErrSequenceNotFound) {
		return 0, err
	}

	var candidate uint64
	if errors.Is(err, walletstore.ErrSequenceNotFound) {
		account, aerr := c.chain.GetAccount(ctx, accAddress)
		if aerr != nil {
			return 0, fmt.Errorf("seed sequence for %s: %w", accAddress, aerr)
		}
		candidate = account.Sequence
	} else {
		candidate = rec.SequenceNumber
	}

	if err := tx.SetSequence(ctx, accAddress, candidate+1); err != nil {
		return 0, err
	}
	return candidate, nil
}

// reserveNext applies the reconcile-and-increment step against the locked
// sequence row. chainSeq is the chain's reported value; a local counter
// behind the chain is moved up to it.
func (c *Coordinator) reserveNext(ctx context.Context, tx walletstore.Store, accAddress string, chainSeq uint64) (uint64, error) {
	rec, err := tx.GetSequenceForUpdate(ctx, accAddress)
	if err != nil && !errors.Is(err, walletstore.ErrSequenceNotFound) {
		return 0, err
	}

	var candidate uint64
	switch {
	case errors.Is(err, walletstore.ErrSequenceNotFound):
		candidate = chainSeq
	case rec.SequenceNumber < chainSeq:
		// The chain advanced past our bookkeeping, e.g. a transaction
		// landed outside this coordinator.
		c.logger.Info("Resynchronizing sequence to chain value",
			zap.String("account", accAddress),
			zap.Uint64("local", rec.SequenceNumber),
			zap.Uint64("chain", chainSeq))
		metrics.SequenceResyncs.Inc()
		candidate = chainSeq
	default:
		// Local counter at or ahead of the chain: earlier allocations
		// are still pending confirmation.
		candidate = rec.SequenceNumber
	}

	if err := tx.SetSequence(ctx, accAddress, candidate+1); err != nil {
		return 0, err
	}
	return candidate, nil
}
