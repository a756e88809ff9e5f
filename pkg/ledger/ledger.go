// Package ledger implements the transaction ledger: an audit record of every
// constructed transaction, keyed by the client-supplied request id.
package ledger

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "github.com/gamepub/chain-middleware/pkg/app/errors"
	"github.com/gamepub/chain-middleware/pkg/wallet"
	"github.com/gamepub/chain-middleware/pkg/walletstore"
)

// Service provides ledger operations over the wallet store
type Service struct {
	store  walletstore.Store
	logger *zap.Logger
}

// NewService creates a new ledger service
func NewService(store walletstore.Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create persists a freshly assembled transaction. The request id acts as an
// idempotency key: a second create for the same id fails without touching
// the existing record.
func (s *Service) Create(ctx context.Context, tx *wallet.Transaction) error {
	if tx.RequestID == "" {
		return apperrors.BadRequestError(nil, "request id is required")
	}
	if tx.Status == "" {
		tx.Status = wallet.StatusAwaitingSignature
	}

	err := s.store.CreateTransaction(ctx, tx)
	if errors.Is(err, walletstore.ErrDuplicateRequest) {
		return apperrors.ConflictError(err, "request id already exists")
	}
	if err != nil {
		return err
	}

	s.logger.Info("Transaction recorded",
		zap.String("request_id", tx.RequestID),
		zap.String("tx_type", string(tx.TxType)),
		zap.String("status", string(tx.Status)))
	return nil
}

// Get returns the ledger record for a request id.
func (s *Service) Get(ctx context.Context, requestID string) (*wallet.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, requestID)
	if errors.Is(err, walletstore.ErrTransactionNotFound) {
		return nil, apperrors.ResourceNotFoundError(err, "transaction not found")
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// UpdateStatus advances a record through the status machine. encodedTx and
// txHash are written when non-empty; a hash is only accepted once the record
// has moved past AWAITING_SIGNATURE. Transition legality is enforced by the
// store, so updates going through other writers hit the same guard.
func (s *Service) UpdateStatus(ctx context.Context, requestID string, status wallet.Status, encodedTx []byte, txHash string) error {
	if txHash != "" && status == wallet.StatusAwaitingSignature {
		return apperrors.BadRequestError(nil, "tx hash not allowed before submission")
	}

	err := s.store.UpdateTransactionStatus(ctx, requestID, status, encodedTx, txHash)
	if errors.Is(err, walletstore.ErrTransactionNotFound) {
		return apperrors.ResourceNotFoundError(err, "transaction not found")
	}
	if errors.Is(err, walletstore.ErrInvalidTransition) {
		return apperrors.ConflictError(err, "invalid status transition")
	}
	return err
}
