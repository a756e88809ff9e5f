package walletstore

import (
	"context"
	"errors"
	"time"

	"github.com/gamepub/chain-middleware/pkg/wallet"
)

// ErrSequenceNotFound is returned when an account has no sequence record yet.
var ErrSequenceNotFound = errors.New("sequence record not found")

// ErrTransactionNotFound is returned when a ledger lookup finds no matching record.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrDuplicateRequest is returned when a transaction with the same request id
// already exists. The existing row is left untouched.
var ErrDuplicateRequest = errors.New("request id already exists")

// ErrMintLogNotFound is returned when a mint confirmation is absent or older
// than the freshness window.
var ErrMintLogNotFound = errors.New("mint confirmation not found or expired")

// ErrInvalidTransition is returned when a status update would move a ledger
// record against the lifecycle: AWAITING_SIGNATURE -> SUBMITTED ->
// CONFIRMED | FAILED, with FAILED also reachable before submission.
var ErrInvalidTransition = errors.New("invalid transaction status transition")

// statusPredecessors maps each reachable status to the statuses a record may
// hold immediately before it. AWAITING_SIGNATURE has no predecessors: it is
// set at creation and never returned to.
var statusPredecessors = map[wallet.Status][]wallet.Status{
	wallet.StatusSubmitted: {wallet.StatusAwaitingSignature},
	wallet.StatusConfirmed: {wallet.StatusSubmitted},
	wallet.StatusFailed:    {wallet.StatusAwaitingSignature, wallet.StatusSubmitted},
}

// TransitionAllowed reports whether a record in status from may move to to.
func TransitionAllowed(from, to wallet.Status) bool {
	for _, p := range statusPredecessors[to] {
		if p == from {
			return true
		}
	}
	return false
}

// Store defines the wallet data persistence interface. Implementations back
// the sequence coordinator, the transaction ledger and the mint flow.
type Store interface {
	// WithTx runs fn inside one serializable database transaction. The
	// Store passed to fn is scoped to that transaction; any error rolls
	// the whole unit of work back. Calling WithTx on a transaction-scoped
	// store runs fn in the ongoing transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// GetSequenceForUpdate reads an account's sequence record under a row
	// write lock. Returns ErrSequenceNotFound when the account is unknown.
	GetSequenceForUpdate(ctx context.Context, accAddress string) (*wallet.SequenceRecord, error)
	// SetSequence upserts the stored next-sequence value for an account.
	SetSequence(ctx context.Context, accAddress string, next uint64) error

	// CreateTransaction persists a new ledger record. Returns
	// ErrDuplicateRequest when the request id is already taken.
	CreateTransaction(ctx context.Context, tx *wallet.Transaction) error
	// GetTransaction returns the ledger record for a request id.
	GetTransaction(ctx context.Context, requestID string) (*wallet.Transaction, error)
	// UpdateTransactionStatus is a point update of one ledger record.
	// encodedTx and txHash are only written when non-empty. Returns
	// ErrInvalidTransition when the record's current status does not
	// precede the target status.
	UpdateTransactionStatus(ctx context.Context, requestID string, status wallet.Status, encodedTx []byte, txHash string) error
	// ListPendingBySigner returns ledger records co-signed by the given
	// service account that have not reached a terminal status.
	ListPendingBySigner(ctx context.Context, signerAddress string) ([]*wallet.Transaction, error)

	// CreateMintLog persists a mint confirmation.
	CreateMintLog(ctx context.Context, ml *wallet.MintLog) error
	// GetFreshMintLog returns the mint confirmation for a request id if it
	// is younger than window, ErrMintLogNotFound otherwise.
	GetFreshMintLog(ctx context.Context, requestID string, window time.Duration) (*wallet.MintLog, error)
}
