package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gamepub/chain-middleware/internal/metrics"
	apperrors "github.com/gamepub/chain-middleware/pkg/app/errors"
	"github.com/gamepub/chain-middleware/pkg/chain"
	"github.com/gamepub/chain-middleware/pkg/config"
	"github.com/gamepub/chain-middleware/pkg/wallet"
	"github.com/gamepub/chain-middleware/pkg/walletstore"
)

// ErrPoolUnderfunded is returned when the service pool cannot cover a
// currency-to-token conversion.
var ErrPoolUnderfunded = errors.New("service pool balance too low")

// Store is the narrow data-access interface for the convert service.
type Store interface {
	CreateTransaction(ctx context.Context, tx *wallet.Transaction) error
	UpdateTransactionStatus(ctx context.Context, requestID string, status wallet.Status, encodedTx []byte, txHash string) error
}

// Allocator reserves the next sequence number for the pool signer.
type Allocator interface {
	Allocate(ctx context.Context, accAddress string) (uint64, error)
}

// ToCurrencyRequest converts a player's tokens into game currency. The
// resulting transaction moves tokens to the service pool and is signed by
// the player client-side.
type ToCurrencyRequest struct {
	RequestID  string `json:"requestId" validate:"required"`
	AppID      string `json:"appId" validate:"required"`
	PlayerID   string `json:"playerId" validate:"required"`
	AccAddress string `json:"accAddress" validate:"required"`
	Amount     string `json:"amount" validate:"required"`
}

// ToCurrencyResponse carries the unsigned pool-bound transfer.
type ToCurrencyResponse struct {
	RequestID      string `json:"requestId"`
	UnsignedTx     []byte `json:"unsignedTx"`
	CurrencyAmount string `json:"currencyAmount"`
}

// ToTokenRequest converts game currency into tokens paid out of the service
// pool. The pool signs and the transaction is broadcast immediately.
type ToTokenRequest struct {
	RequestID  string `json:"requestId" validate:"required"`
	AppID      string `json:"appId" validate:"required"`
	PlayerID   string `json:"playerId" validate:"required"`
	AccAddress string `json:"accAddress" validate:"required"`
	Amount     string `json:"amount" validate:"required"`
}

// ToTokenResponse reports the broadcast payout.
type ToTokenResponse struct {
	RequestID   string `json:"requestId"`
	TxHash      string `json:"txHash"`
	TokenAmount string `json:"tokenAmount"`
}

// Service defines the convert business logic
type Service interface {
	ToCurrency(ctx context.Context, req *ToCurrencyRequest) (*ToCurrencyResponse, error)
	ToToken(ctx context.Context, req *ToTokenRequest) (*ToTokenResponse, error)
}

type convertService struct {
	store     Store
	chain     chain.Client
	exchange  *Exchange
	allocator Allocator
	chainCfg  *config.ChainConfig
	pool      config.SignerAccount
	logger    *zap.Logger
}

// NewService creates a new convert service
func NewService(
	store Store,
	chainClient chain.Client,
	exchange *Exchange,
	allocator Allocator,
	chainCfg *config.ChainConfig,
	pool config.SignerAccount,
	logger *zap.Logger,
) Service {
	return &convertService{
		store:     store,
		chain:     chainClient,
		exchange:  exchange,
		allocator: allocator,
		chainCfg:  chainCfg,
		pool:      pool,
		logger:    logger,
	}
}

// ToCurrency builds the user-signed token transfer to the pool and records
// it as awaiting signature. The currency grant happens after broadcast
// confirmation, not here.
func (s *convertService) ToCurrency(ctx context.Context, req *ToCurrencyRequest) (*ToCurrencyResponse, error) {
	micro, currency, err := s.exchange.ToCurrency(req.Amount)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "invalid amount")
	}

	msg, err := s.tokenTransferMsg(req.AccAddress, s.pool.Address, micro)
	if err != nil {
		return nil, err
	}
	msgs := []chain.Msg{msg}

	fee, err := s.chain.EstimateFee(ctx, []string{req.AccAddress}, msgs)
	if err != nil {
		return nil, err
	}
	encoded, err := chain.NewTx(msgs, *fee, "").Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode convert tx: %w", err)
	}

	params, _ := json.Marshal(req)
	record := &wallet.Transaction{
		RequestID:       req.RequestID,
		EncodedTx:       encoded,
		Status:          wallet.StatusAwaitingSignature,
		TxType:          wallet.TxTypeConvertToCurrency,
		AppID:           req.AppID,
		PlayerID:        req.PlayerID,
		AccAddress:      req.AccAddress,
		ContractAddress: s.chainCfg.TokenContract,
		Params:          string(params),
	}
	if err := s.store.CreateTransaction(ctx, record); err != nil {
		if errors.Is(err, walletstore.ErrDuplicateRequest) {
			return nil, apperrors.ConflictError(err, "request id already exists")
		}
		return nil, fmt.Errorf("failed to record convert tx: %w", err)
	}

	s.logger.Info("Convert to currency prepared",
		zap.String("request_id", req.RequestID),
		zap.String("acc_address", req.AccAddress),
		zap.String("token_amount", micro),
		zap.String("currency_amount", currency))

	return &ToCurrencyResponse{
		RequestID:      req.RequestID,
		UnsignedTx:     encoded,
		CurrencyAmount: currency,
	}, nil
}

// ToToken pays tokens out of the pool. The pool account signs with a freshly
// allocated sequence and the transaction is broadcast before returning. The
// ledger record is created as SUBMITTED ahead of the broadcast and settled
// from the result code.
func (s *convertService) ToToken(ctx context.Context, req *ToTokenRequest) (*ToTokenResponse, error) {
	micro, err := s.exchange.ToToken(req.Amount)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "invalid amount")
	}

	if err := s.checkPoolBalance(ctx, micro); err != nil {
		return nil, err
	}

	msg, err := s.tokenTransferMsg(s.pool.Address, req.AccAddress, micro)
	if err != nil {
		return nil, err
	}
	msgs := []chain.Msg{msg}

	fee, err := s.chain.EstimateFee(ctx, []string{s.pool.Address}, msgs)
	if err != nil {
		return nil, err
	}
	tx := chain.NewTx(msgs, *fee, "")

	seq, err := s.allocator.Allocate(ctx, s.pool.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate pool sequence: %w", err)
	}
	account, err := s.chain.GetAccount(ctx, s.pool.Address)
	if err != nil {
		return nil, err
	}
	signed, err := s.chain.Sign(ctx, s.pool.Wallet, tx, account.AccountNumber, seq)
	if err != nil {
		return nil, fmt.Errorf("pool signing failed: %w", err)
	}
	encoded, err := signed.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode payout tx: %w", err)
	}

	params, _ := json.Marshal(req)
	record := &wallet.Transaction{
		RequestID:       req.RequestID,
		EncodedTx:       encoded,
		Status:          wallet.StatusSubmitted,
		TxType:          wallet.TxTypeConvertToToken,
		AppID:           req.AppID,
		PlayerID:        req.PlayerID,
		AccAddress:      req.AccAddress,
		ContractAddress: s.chainCfg.TokenContract,
		SignerAddress:   s.pool.Address,
		Params:          string(params),
	}
	if err := s.store.CreateTransaction(ctx, record); err != nil {
		if errors.Is(err, walletstore.ErrDuplicateRequest) {
			return nil, apperrors.ConflictError(err, "request id already exists")
		}
		return nil, fmt.Errorf("failed to record payout tx: %w", err)
	}

	result, err := s.chain.Broadcast(ctx, encoded)
	if err != nil {
		// Transport error: no result code, the payout may still land.
		// Leave the record SUBMITTED rather than guessing FAILED.
		s.logger.Warn("Payout broadcast fate unknown",
			zap.String("request_id", req.RequestID),
			zap.Error(err))
		return nil, apperrors.DependencyError(err, "payout result unknown")
	}
	if !result.Success() {
		s.settle(ctx, req.RequestID, wallet.StatusFailed, result.TxHash)
		return nil, apperrors.DependencyError(
			fmt.Errorf("broadcast code %d: %s", result.Code, result.RawLog),
			"payout rejected by chain")
	}
	s.settle(ctx, req.RequestID, wallet.StatusConfirmed, result.TxHash)

	s.logger.Info("Convert to token paid out",
		zap.String("request_id", req.RequestID),
		zap.String("acc_address", req.AccAddress),
		zap.String("token_amount", micro),
		zap.String("tx_hash", result.TxHash))

	return &ToTokenResponse{
		RequestID:   req.RequestID,
		TxHash:      result.TxHash,
		TokenAmount: micro,
	}, nil
}

func (s *convertService) settle(ctx context.Context, requestID string, status wallet.Status, txHash string) {
	metrics.TransactionsBroadcast.WithLabelValues(string(status)).Inc()
	if err := s.store.UpdateTransactionStatus(ctx, requestID, status, nil, txHash); err != nil {
		s.logger.Error("Failed to settle payout status",
			zap.String("request_id", requestID),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

func (s *convertService) checkPoolBalance(ctx context.Context, micro string) error {
	var resp chain.CW20BalanceResponse
	err := s.chain.QueryContract(ctx, s.chainCfg.TokenContract, chain.NewCW20BalanceQuery(s.pool.Address), &resp)
	if err != nil {
		return err
	}
	// string compare is unsafe for numbers, parse through decimal
	if cmp, err := compareMicro(resp.Balance, micro); err != nil {
		return err
	} else if cmp < 0 {
		return apperrors.PreconditionError(ErrPoolUnderfunded, "service pool cannot cover payout")
	}
	return nil
}

func (s *convertService) tokenTransferMsg(from, to, micro string) (chain.Msg, error) {
	var exec struct {
		Transfer struct {
			Recipient string `json:"recipient"`
			Amount    string `json:"amount"`
		} `json:"transfer"`
	}
	exec.Transfer.Recipient = to
	exec.Transfer.Amount = micro

	msg, err := chain.NewMsgExecuteContract(from, s.chainCfg.TokenContract, exec, nil)
	if err != nil {
		return chain.Msg{}, fmt.Errorf("failed to build transfer msg: %w", err)
	}
	return msg, nil
}
