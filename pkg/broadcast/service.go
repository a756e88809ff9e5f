// Package broadcast submits fully signed transactions to the chain and
// settles their ledger status from the result code.
package broadcast

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gamepub/chain-middleware/internal/metrics"
	apperrors "github.com/gamepub/chain-middleware/pkg/app/errors"
	"github.com/gamepub/chain-middleware/pkg/chain"
	"github.com/gamepub/chain-middleware/pkg/wallet"
	"github.com/gamepub/chain-middleware/pkg/walletstore"
)

// ErrNotBroadcastable is returned when a record is not awaiting a signature.
var ErrNotBroadcastable = errors.New("transaction is not awaiting a signature")

// Store is the narrow data-access interface for the broadcast service.
type Store interface {
	GetTransaction(ctx context.Context, requestID string) (*wallet.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, requestID string, status wallet.Status, encodedTx []byte, txHash string) error
}

// Request submits the user-completed transaction for a recorded request id.
type Request struct {
	RequestID string `json:"requestId" validate:"required"`
	SignedTx  []byte `json:"signedTx" validate:"required"`
}

// Response reports the chain's acceptance.
type Response struct {
	RequestID string `json:"requestId"`
	TxHash    string `json:"txHash"`
}

// Service broadcasts signed transactions recorded in the ledger
type Service struct {
	store  Store
	chain  chain.Client
	logger *zap.Logger
}

// NewService creates a new broadcast service
func NewService(store Store, chainClient chain.Client, logger *zap.Logger) *Service {
	return &Service{store: store, chain: chainClient, logger: logger}
}

// Broadcast submits the signed transaction for a ledger record. The record
// is marked SUBMITTED before the chain call so a crash mid-broadcast shows
// an in-flight transaction rather than a silently lost one; the final
// CONFIRMED or FAILED status comes from the chain's result code.
func (s *Service) Broadcast(ctx context.Context, req *Request) (*Response, error) {
	record, err := s.store.GetTransaction(ctx, req.RequestID)
	if errors.Is(err, walletstore.ErrTransactionNotFound) {
		return nil, apperrors.ResourceNotFoundError(err, "transaction not found")
	}
	if err != nil {
		return nil, err
	}
	if record.Status != wallet.StatusAwaitingSignature {
		return nil, apperrors.ConflictError(ErrNotBroadcastable,
			fmt.Sprintf("transaction status is %s", record.Status))
	}

	// optimistic pre-commit: persist the signed bytes and the in-flight
	// status before touching the chain
	if err := s.store.UpdateTransactionStatus(ctx, req.RequestID, wallet.StatusSubmitted, req.SignedTx, ""); err != nil {
		return nil, fmt.Errorf("failed to mark transaction submitted: %w", err)
	}

	result, err := s.chain.Broadcast(ctx, req.SignedTx)
	if err != nil {
		// Transport error: no result code came back, so the transaction
		// may still have reached the chain. Leave the record SUBMITTED
		// instead of guessing FAILED.
		s.logger.Warn("Broadcast fate unknown",
			zap.String("request_id", req.RequestID),
			zap.Error(err))
		return nil, apperrors.DependencyError(err, "broadcast result unknown")
	}
	if !result.Success() {
		s.settle(ctx, req.RequestID, wallet.StatusFailed, result.TxHash)
		return nil, apperrors.DependencyError(
			fmt.Errorf("broadcast code %d: %s", result.Code, result.RawLog),
			"transaction rejected by chain")
	}
	s.settle(ctx, req.RequestID, wallet.StatusConfirmed, result.TxHash)

	s.logger.Info("Transaction broadcast",
		zap.String("request_id", req.RequestID),
		zap.String("tx_hash", result.TxHash))

	return &Response{RequestID: req.RequestID, TxHash: result.TxHash}, nil
}

func (s *Service) settle(ctx context.Context, requestID string, status wallet.Status, txHash string) {
	metrics.TransactionsBroadcast.WithLabelValues(string(status)).Inc()
	if err := s.store.UpdateTransactionStatus(ctx, requestID, status, nil, txHash); err != nil {
		s.logger.Error("Failed to settle broadcast status",
			zap.String("request_id", requestID),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}
