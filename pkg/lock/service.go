// Package lock moves NFTs in and out of the lock contract. Locking is
// user-signed; unlocking is service-signed and runs inside one database
// transaction so a refused or failed release leaves no trace.
package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/gamepub/chain-middleware/pkg/app/errors"
	"github.com/gamepub/chain-middleware/pkg/chain"
	"github.com/gamepub/chain-middleware/pkg/config"
	"github.com/gamepub/chain-middleware/pkg/gameserver"
	"github.com/gamepub/chain-middleware/pkg/wallet"
	"github.com/gamepub/chain-middleware/pkg/walletstore"
)

var (
	ErrTokenNotOwned  = errors.New("token not owned by this account")
	ErrUnlockRejected = errors.New("game server rejected the unlock")
)

// LocalAllocator reserves the lock owner's next sequence inside the caller's
// database transaction. The chain is not consulted for resync; the lock
// owner is a custodial account whose transactions all pass through here.
type LocalAllocator interface {
	AllocateLocal(ctx context.Context, tx walletstore.Store, accAddress string) (uint64, error)
}

// LockRequest builds a user-signed transfer of an NFT into the lock contract.
type LockRequest struct {
	RequestID  string `json:"requestId"`
	AppID      string `json:"appId" validate:"required"`
	PlayerID   string `json:"playerId" validate:"required"`
	AccAddress string `json:"accAddress" validate:"required"`
	TokenID    string `json:"tokenId" validate:"required"`
}

// LockResponse carries the unsigned lock transaction.
type LockResponse struct {
	RequestID   string `json:"requestId"`
	TokenID     string `json:"tokenId"`
	NFTContract string `json:"nftContract"`
	UnsignedTx  []byte `json:"unsignedTx"`
}

// UnlockRequest releases a locked NFT back to the player.
type UnlockRequest struct {
	RequestID  string `json:"requestId"`
	AppID      string `json:"appId" validate:"required"`
	PlayerID   string `json:"playerId" validate:"required"`
	AccAddress string `json:"accAddress" validate:"required"`
	TokenID    string `json:"tokenId" validate:"required"`
}

// UnlockResponse reports the broadcast release.
type UnlockResponse struct {
	RequestID   string `json:"requestId"`
	TokenID     string `json:"tokenId"`
	NFTContract string `json:"nftContract"`
	TxHash      string `json:"txHash"`
}

// Service defines the lock business logic
type Service interface {
	Lock(ctx context.Context, req *LockRequest) (*LockResponse, error)
	Unlock(ctx context.Context, req *UnlockRequest) (*UnlockResponse, error)
}

type lockService struct {
	store     walletstore.Store
	chain     chain.Client
	apps      *gameserver.Registry
	allocator LocalAllocator
	chainCfg  *config.ChainConfig
	lockOwner config.SignerAccount
	logger    *zap.Logger
}

// NewService creates a new lock service
func NewService(
	store walletstore.Store,
	chainClient chain.Client,
	apps *gameserver.Registry,
	allocator LocalAllocator,
	chainCfg *config.ChainConfig,
	lockOwner config.SignerAccount,
	logger *zap.Logger,
) Service {
	return &lockService{
		store:     store,
		chain:     chainClient,
		apps:      apps,
		allocator: allocator,
		chainCfg:  chainCfg,
		lockOwner: lockOwner,
		logger:    logger,
	}
}

// lockHook is the payload the lock contract decodes from send_nft.
type lockHook struct {
	Lock struct {
		PlayerID  string `json:"player_id"`
		RequestID string `json:"request_id"`
	} `json:"lock"`
}

// Lock verifies current ownership against the NFT contract, then builds the
// send_nft transfer into the lock contract and records it as awaiting the
// user's signature.
func (s *lockService) Lock(ctx context.Context, req *LockRequest) (*LockResponse, error) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if _, err := s.apps.Get(req.AppID); err != nil {
		return nil, apperrors.BadRequestError(err, "unknown app id")
	}

	var owned chain.CW721TokensResponse
	err := s.chain.QueryContract(ctx, s.chainCfg.NFTContract, chain.NewCW721TokensQuery(req.AccAddress), &owned)
	if err != nil {
		return nil, err
	}
	if !contains(owned.Tokens, req.TokenID) {
		return nil, apperrors.PreconditionError(ErrTokenNotOwned, fmt.Sprintf("token %s not owned by account", req.TokenID))
	}

	var hook lockHook
	hook.Lock.PlayerID = req.PlayerID
	hook.Lock.RequestID = requestID
	sendNft, err := chain.NewCW721SendNftMsg(s.chainCfg.LockContract, req.TokenID, hook)
	if err != nil {
		return nil, fmt.Errorf("failed to build lock payload: %w", err)
	}
	msg, err := chain.NewMsgExecuteContract(req.AccAddress, s.chainCfg.NFTContract, sendNft, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build lock msg: %w", err)
	}
	msgs := []chain.Msg{msg}

	fee, err := s.chain.EstimateFee(ctx, []string{req.AccAddress}, msgs)
	if err != nil {
		return nil, err
	}
	encoded, err := chain.NewTx(msgs, *fee, "").Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode lock tx: %w", err)
	}

	params, _ := json.Marshal(req)
	record := &wallet.Transaction{
		RequestID:       requestID,
		EncodedTx:       encoded,
		Status:          wallet.StatusAwaitingSignature,
		TxType:          wallet.TxTypeLock,
		AppID:           req.AppID,
		PlayerID:        req.PlayerID,
		AccAddress:      req.AccAddress,
		ContractAddress: s.chainCfg.LockContract,
		Params:          string(params),
	}
	if err := s.store.CreateTransaction(ctx, record); err != nil {
		if errors.Is(err, walletstore.ErrDuplicateRequest) {
			return nil, apperrors.ConflictError(err, "request id already exists")
		}
		return nil, fmt.Errorf("failed to record lock tx: %w", err)
	}

	return &LockResponse{
		RequestID:   requestID,
		TokenID:     req.TokenID,
		NFTContract: s.chainCfg.NFTContract,
		UnsignedTx:  encoded,
	}, nil
}

// unlockExec is the lock contract's release instruction.
type unlockExec struct {
	Unlock struct {
		TokenID   string `json:"token_id"`
		Recipient string `json:"recipient"`
	} `json:"unlock"`
}

// Unlock releases a locked NFT back to the player. Sequence allocation, the
// game server release, signing, broadcast and the ledger write all happen
// inside one database transaction: a refusal or a failed broadcast rolls
// everything back, leaving the sequence unadvanced and no ledger record.
func (s *lockService) Unlock(ctx context.Context, req *UnlockRequest) (*UnlockResponse, error) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	app, err := s.apps.Get(req.AppID)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "unknown app id")
	}

	var txHash string
	err = s.store.WithTx(ctx, func(tx walletstore.Store) error {
		seq, err := s.allocator.AllocateLocal(ctx, tx, s.lockOwner.Address)
		if err != nil {
			return fmt.Errorf("failed to allocate lock owner sequence: %w", err)
		}

		release, err := app.API.UnlockItem(ctx, &gameserver.UnlockItemRequest{
			RequestID: requestID,
			PlayerID:  req.PlayerID,
			TokenID:   req.TokenID,
		})
		if err != nil {
			return err
		}
		if release.Code != 0 {
			return apperrors.PreconditionError(ErrUnlockRejected,
				fmt.Sprintf("game server unlock code %d", release.Code))
		}

		signed, err := s.buildSignedUnlock(ctx, req, seq)
		if err != nil {
			return err
		}
		encoded, err := signed.Encode()
		if err != nil {
			return fmt.Errorf("failed to encode unlock tx: %w", err)
		}

		result, err := s.chain.Broadcast(ctx, encoded)
		if err != nil {
			return err
		}
		if !result.Success() {
			return apperrors.DependencyError(
				fmt.Errorf("broadcast code %d: %s", result.Code, result.RawLog),
				"unlock rejected by chain")
		}
		txHash = result.TxHash

		params, _ := json.Marshal(req)
		return tx.CreateTransaction(ctx, &wallet.Transaction{
			RequestID:       requestID,
			TxHash:          txHash,
			EncodedTx:       encoded,
			Status:          wallet.StatusConfirmed,
			TxType:          wallet.TxTypeUnlock,
			AppID:           req.AppID,
			PlayerID:        req.PlayerID,
			AccAddress:      req.AccAddress,
			ContractAddress: s.chainCfg.LockContract,
			SignerAddress:   s.lockOwner.Address,
			Params:          string(params),
		})
	})
	if err != nil {
		if errors.Is(err, walletstore.ErrDuplicateRequest) {
			return nil, apperrors.ConflictError(err, "request id already exists")
		}
		return nil, err
	}

	s.logger.Info("Unlock completed",
		zap.String("request_id", requestID),
		zap.String("token_id", req.TokenID),
		zap.String("tx_hash", txHash))

	return &UnlockResponse{
		RequestID:   requestID,
		TokenID:     req.TokenID,
		NFTContract: s.chainCfg.NFTContract,
		TxHash:      txHash,
	}, nil
}

func (s *lockService) buildSignedUnlock(ctx context.Context, req *UnlockRequest, seq uint64) (*chain.Tx, error) {
	var exec unlockExec
	exec.Unlock.TokenID = req.TokenID
	exec.Unlock.Recipient = req.AccAddress

	msg, err := chain.NewMsgExecuteContract(s.lockOwner.Address, s.chainCfg.LockContract, exec, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build unlock msg: %w", err)
	}
	msgs := []chain.Msg{msg}

	fee, err := s.chain.EstimateFee(ctx, []string{s.lockOwner.Address}, msgs)
	if err != nil {
		return nil, err
	}
	account, err := s.chain.GetAccount(ctx, s.lockOwner.Address)
	if err != nil {
		return nil, err
	}

	signed, err := s.chain.Sign(ctx, s.lockOwner.Wallet, chain.NewTx(msgs, *fee, ""), account.AccountNumber, seq)
	if err != nil {
		return nil, fmt.Errorf("lock owner signing failed: %w", err)
	}
	return signed, nil
}

func contains(tokens []string, id string) bool {
	for _, t := range tokens {
		if t == id {
			return true
		}
	}
	return false
}
