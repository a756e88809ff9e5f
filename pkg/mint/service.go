// Package mint implements the two-phase mint flow: confirm reserves an item
// and quotes fees, execute builds the pre-signed mint transaction. Burn is
// the single-message counterpart.
package mint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/gamepub/chain-middleware/pkg/app/errors"
	"github.com/gamepub/chain-middleware/pkg/assets"
	"github.com/gamepub/chain-middleware/pkg/chain"
	"github.com/gamepub/chain-middleware/pkg/config"
	"github.com/gamepub/chain-middleware/pkg/fees"
	"github.com/gamepub/chain-middleware/pkg/gameserver"
	"github.com/gamepub/chain-middleware/pkg/wallet"
	"github.com/gamepub/chain-middleware/pkg/walletstore"
)

var (
	ErrNftExists           = errors.New("nft already minted for this account")
	ErrInsufficientBalance = errors.New("balance does not cover the quoted fees")
	ErrConfirmRequired     = errors.New("mint confirmation absent or expired")
	ErrConfirmMismatch     = errors.New("request does not match the stored confirmation")
	ErrTokenNotOwned       = errors.New("token not owned by this account")
)

// Store is the narrow data-access interface for the mint service.
// Defined here to keep the service decoupled from walletstore implementation
// details.
type Store interface {
	CreateMintLog(ctx context.Context, ml *wallet.MintLog) error
	GetFreshMintLog(ctx context.Context, requestID string, window time.Duration) (*wallet.MintLog, error)
	CreateTransaction(ctx context.Context, tx *wallet.Transaction) error
}

// Allocator reserves the next sequence number for a service signer.
type Allocator interface {
	Allocate(ctx context.Context, accAddress string) (uint64, error)
}

// ConfirmRequest starts the confirm phase for a player's items.
type ConfirmRequest struct {
	RequestID  string   `json:"requestId" validate:"required"`
	AppID      string   `json:"appId" validate:"required"`
	PlayerID   string   `json:"playerId" validate:"required"`
	Server     string   `json:"server" validate:"required"`
	AccAddress string   `json:"accAddress" validate:"required"`
	MintType   string   `json:"mintType" validate:"required"`
	Items      []string `json:"items" validate:"required,min=1"`
}

// ConfirmResponse quotes the fees and the reserved item id. The caller must
// echo these values unchanged in the execute phase.
type ConfirmResponse struct {
	RequestID  string `json:"requestId"`
	ItemID     string `json:"id"`
	ServiceFee string `json:"serviceFee"`
	GameFee    string `json:"gameFee"`
	Metadata   string `json:"metadata,omitempty"`
}

// ExecuteRequest runs the execute phase for a confirmed mint.
type ExecuteRequest struct {
	RequestID  string `json:"requestId" validate:"required"`
	AppID      string `json:"appId" validate:"required"`
	PlayerID   string `json:"playerId" validate:"required"`
	AccAddress string `json:"accAddress" validate:"required"`
	MintType   string `json:"mintType" validate:"required"`
	ItemID     string `json:"id" validate:"required"`
	ServiceFee string `json:"serviceFee" validate:"required"`
	GameFee    string `json:"gameFee" validate:"required"`
}

// ExecuteResponse carries the partially signed mint transaction. The minter
// has signed; the user completes signing client-side.
type ExecuteResponse struct {
	TokenID      string `json:"tokenId"`
	UnsignedTx   []byte `json:"unsignedTx"`
	PayerAddress string `json:"payerAddress"`
	TokenURI     string `json:"tokenUri"`
}

// BurnRequest builds a burn transaction for a token the caller owns.
type BurnRequest struct {
	RequestID  string `json:"requestId"`
	AppID      string `json:"appId" validate:"required"`
	PlayerID   string `json:"playerId" validate:"required"`
	AccAddress string `json:"accAddress" validate:"required"`
	TokenID    string `json:"tokenId" validate:"required"`
}

// BurnResponse carries the unsigned burn transaction.
type BurnResponse struct {
	RequestID  string `json:"requestId"`
	UnsignedTx []byte `json:"unsignedTx"`
}

// Service defines the mint business logic
type Service interface {
	ConfirmItems(ctx context.Context, req *ConfirmRequest) (*ConfirmResponse, error)
	MintNft(ctx context.Context, req *ExecuteRequest) (*ExecuteResponse, error)
	BurnNft(ctx context.Context, req *BurnRequest) (*BurnResponse, error)
}

type mintService struct {
	store     Store
	chain     chain.Client
	apps      *gameserver.Registry
	uploader  assets.Uploader
	allocator Allocator
	fees      *fees.Assembler
	chainCfg  *config.ChainConfig
	minter    config.SignerAccount
	logger    *zap.Logger
}

// NewService creates a new mint service
func NewService(
	store Store,
	chainClient chain.Client,
	apps *gameserver.Registry,
	uploader assets.Uploader,
	allocator Allocator,
	assembler *fees.Assembler,
	chainCfg *config.ChainConfig,
	minter config.SignerAccount,
	logger *zap.Logger,
) Service {
	return &mintService{
		store:     store,
		chain:     chainClient,
		apps:      apps,
		uploader:  uploader,
		allocator: allocator,
		fees:      assembler,
		chainCfg:  chainCfg,
		minter:    minter,
		logger:    logger,
	}
}

// ConfirmItems runs the confirm phase:
//  1. Resolves the app's game server and fee schedule
//  2. Rejects items already minted for the account
//  3. Checks the account's native and token balances against the fees
//  4. Reserves the item with the game server
//  5. Persists the confirmation, valid for the freshness window
func (s *mintService) ConfirmItems(ctx context.Context, req *ConfirmRequest) (*ConfirmResponse, error) {
	app, err := s.apps.Get(req.AppID)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "unknown app id")
	}

	owned, err := s.ownedTokens(ctx, req.AccAddress)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if _, ok := owned[item]; ok {
			return nil, apperrors.ConflictError(ErrNftExists, fmt.Sprintf("token %s already minted", item))
		}
	}

	if err := s.checkBalances(ctx, req.AccAddress, app.ServiceFee, app.GameFee); err != nil {
		return nil, err
	}

	reserved, err := app.API.ConfirmMint(ctx, &gameserver.ConfirmMintRequest{
		RequestID: req.RequestID,
		PlayerID:  req.PlayerID,
		Server:    req.Server,
		MintType:  req.MintType,
		Items:     req.Items,
	})
	if err != nil {
		return nil, err
	}

	ml := &wallet.MintLog{
		RequestID:  req.RequestID,
		MintType:   req.MintType,
		PlayerID:   req.PlayerID,
		Server:     req.Server,
		AccAddress: req.AccAddress,
		AppID:      req.AppID,
		ItemID:     reserved.UniqueID,
		Metadata:   string(reserved.Extension),
		ServiceFee: app.ServiceFee,
		GameFee:    app.GameFee,
		Status:     "CONFIRMED",
	}
	if err := s.store.CreateMintLog(ctx, ml); err != nil {
		if errors.Is(err, walletstore.ErrDuplicateRequest) {
			return nil, apperrors.ConflictError(err, "request id already confirmed")
		}
		return nil, fmt.Errorf("failed to persist mint confirmation: %w", err)
	}

	return &ConfirmResponse{
		RequestID:  req.RequestID,
		ItemID:     reserved.UniqueID,
		ServiceFee: app.ServiceFee,
		GameFee:    app.GameFee,
		Metadata:   ml.Metadata,
	}, nil
}

// MintNft runs the execute phase. The stored confirmation is the source of
// truth: the caller's echoed fields must match it exactly, and nothing
// external is called before that check passes.
func (s *mintService) MintNft(ctx context.Context, req *ExecuteRequest) (*ExecuteResponse, error) {
	ml, err := s.store.GetFreshMintLog(ctx, req.RequestID, wallet.FreshnessWindow)
	if errors.Is(err, walletstore.ErrMintLogNotFound) {
		return nil, apperrors.PreconditionError(ErrConfirmRequired, "confirm required before mint")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load mint confirmation: %w", err)
	}

	if mismatch := confirmationMismatch(ml, req); mismatch != "" {
		return nil, apperrors.BadRequestError(ErrConfirmMismatch, mismatch)
	}

	app, err := s.apps.Get(req.AppID)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "unknown app id")
	}
	if err := app.API.CommitMint(ctx, &gameserver.CommitMintRequest{
		RequestID: req.RequestID,
		PlayerID:  req.PlayerID,
		Server:    ml.Server,
		MintType:  req.MintType,
		ItemID:    req.ItemID,
	}); err != nil {
		return nil, err
	}

	tokenID := ml.ItemID
	tokenURI, err := s.uploader.UploadMetadata(ctx, tokenID, &assets.Metadata{
		Name:       fmt.Sprintf("%s #%s", ml.AppID, tokenID),
		Attributes: metadataAttributes(ml.Metadata),
	})
	if err != nil {
		return nil, err
	}

	msgs, err := s.buildMintMsgs(req.AccAddress, tokenID, tokenURI, ml.ServiceFee, ml.GameFee)
	if err != nil {
		return nil, err
	}

	signed, err := s.signAsMinter(ctx, []string{req.AccAddress, s.minter.Address}, msgs)
	if err != nil {
		return nil, err
	}
	encoded, err := signed.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode mint tx: %w", err)
	}

	params, _ := json.Marshal(req)
	record := &wallet.Transaction{
		RequestID:       req.RequestID,
		EncodedTx:       encoded,
		Status:          wallet.StatusAwaitingSignature,
		TxType:          wallet.TxTypeMint,
		AppID:           req.AppID,
		PlayerID:        req.PlayerID,
		AccAddress:      req.AccAddress,
		ContractAddress: s.chainCfg.NFTContract,
		SignerAddress:   s.minter.Address,
		Params:          string(params),
	}
	if err := s.store.CreateTransaction(ctx, record); err != nil {
		if errors.Is(err, walletstore.ErrDuplicateRequest) {
			return nil, apperrors.ConflictError(err, "request id already executed")
		}
		return nil, fmt.Errorf("failed to record mint tx: %w", err)
	}

	return &ExecuteResponse{
		TokenID:      tokenID,
		UnsignedTx:   encoded,
		PayerAddress: s.minter.Address,
		TokenURI:     tokenURI,
	}, nil
}

// BurnNft builds an unsigned burn transaction for a token the caller owns.
func (s *mintService) BurnNft(ctx context.Context, req *BurnRequest) (*BurnResponse, error) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = newRequestID()
	}

	app, err := s.apps.Get(req.AppID)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "unknown app id")
	}

	owned, err := s.ownedTokens(ctx, req.AccAddress)
	if err != nil {
		return nil, err
	}
	if _, ok := owned[req.TokenID]; !ok {
		return nil, apperrors.PreconditionError(ErrTokenNotOwned, fmt.Sprintf("token %s not owned by account", req.TokenID))
	}

	if err := app.API.CommitMint(ctx, &gameserver.CommitMintRequest{
		RequestID: requestID,
		PlayerID:  req.PlayerID,
		MintType:  "burn",
		ItemID:    req.TokenID,
	}); err != nil {
		return nil, err
	}

	burnMsg, err := chain.NewMsgExecuteContract(req.AccAddress, s.chainCfg.NFTContract,
		chain.NewCW721BurnMsg(req.TokenID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build burn msg: %w", err)
	}
	msgs := []chain.Msg{burnMsg}

	fee, err := s.chain.EstimateFee(ctx, []string{req.AccAddress}, msgs)
	if err != nil {
		return nil, err
	}
	encoded, err := chain.NewTx(msgs, *fee, "").Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode burn tx: %w", err)
	}

	params, _ := json.Marshal(req)
	record := &wallet.Transaction{
		RequestID:       requestID,
		EncodedTx:       encoded,
		Status:          wallet.StatusAwaitingSignature,
		TxType:          wallet.TxTypeBurn,
		AppID:           req.AppID,
		PlayerID:        req.PlayerID,
		AccAddress:      req.AccAddress,
		ContractAddress: s.chainCfg.NFTContract,
		Params:          string(params),
	}
	if err := s.store.CreateTransaction(ctx, record); err != nil {
		if errors.Is(err, walletstore.ErrDuplicateRequest) {
			return nil, apperrors.ConflictError(err, "request id already exists")
		}
		return nil, fmt.Errorf("failed to record burn tx: %w", err)
	}

	return &BurnResponse{RequestID: requestID, UnsignedTx: encoded}, nil
}

// buildMintMsgs assembles the full message list: the native fee splits paid
// by the user, the token fee splits paid by the user, then the mint executed
// by the minter.
func (s *mintService) buildMintMsgs(accAddress, tokenID, tokenURI, serviceFee, gameFee string) ([]chain.Msg, error) {
	nativeMsgs, err := s.fees.NativeFeeMsgs(accAddress, serviceFee)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "invalid service fee")
	}
	tokenMsgs, err := s.fees.TokenFeeMsgs(accAddress, gameFee)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "invalid game fee")
	}

	mintMsg, err := chain.NewMsgExecuteContract(s.minter.Address, s.chainCfg.NFTContract,
		chain.NewCW721MintMsg(tokenID, accAddress, tokenURI), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build mint msg: %w", err)
	}

	msgs := make([]chain.Msg, 0, len(nativeMsgs)+len(tokenMsgs)+1)
	msgs = append(msgs, nativeMsgs...)
	msgs = append(msgs, tokenMsgs...)
	msgs = append(msgs, mintMsg)
	return msgs, nil
}

// signAsMinter estimates the fee, allocates the minter's next sequence and
// appends the minter's signature. The user's signature slot stays open.
func (s *mintService) signAsMinter(ctx context.Context, signers []string, msgs []chain.Msg) (*chain.Tx, error) {
	fee, err := s.chain.EstimateFee(ctx, signers, msgs)
	if err != nil {
		return nil, err
	}
	tx := chain.NewTx(msgs, *fee, "")

	seq, err := s.allocator.Allocate(ctx, s.minter.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate minter sequence: %w", err)
	}
	account, err := s.chain.GetAccount(ctx, s.minter.Address)
	if err != nil {
		return nil, err
	}

	signed, err := s.chain.Sign(ctx, s.minter.Wallet, tx, account.AccountNumber, seq)
	if err != nil {
		return nil, fmt.Errorf("minter signing failed: %w", err)
	}
	return signed, nil
}

// ownedTokens returns the set of NFT token ids currently owned by an account.
func (s *mintService) ownedTokens(ctx context.Context, accAddress string) (map[string]struct{}, error) {
	var resp chain.CW721TokensResponse
	err := s.chain.QueryContract(ctx, s.chainCfg.NFTContract, chain.NewCW721TokensQuery(accAddress), &resp)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]struct{}, len(resp.Tokens))
	for _, id := range resp.Tokens {
		owned[id] = struct{}{}
	}
	return owned, nil
}

// checkBalances verifies the account can pay both quoted fees before
// anything is reserved.
func (s *mintService) checkBalances(ctx context.Context, accAddress, serviceFee, gameFee string) error {
	svc, err := decimal.NewFromString(serviceFee)
	if err != nil {
		return apperrors.BadRequestError(err, "invalid service fee")
	}
	game, err := decimal.NewFromString(gameFee)
	if err != nil {
		return apperrors.BadRequestError(err, "invalid game fee")
	}

	nativeBalance, err := s.chain.GetBalance(ctx, accAddress, s.chainCfg.NativeDenom)
	if err != nil {
		return err
	}
	native, err := decimal.NewFromString(nativeBalance)
	if err != nil {
		return fmt.Errorf("unparseable native balance %q: %w", nativeBalance, err)
	}
	if native.LessThan(svc.Shift(s.chainCfg.NativeDecimals)) {
		return apperrors.PreconditionError(ErrInsufficientBalance, "not enough native coin for service fee")
	}

	var balResp chain.CW20BalanceResponse
	err = s.chain.QueryContract(ctx, s.chainCfg.TokenContract, chain.NewCW20BalanceQuery(accAddress), &balResp)
	if err != nil {
		return err
	}
	token, err := decimal.NewFromString(balResp.Balance)
	if err != nil {
		return fmt.Errorf("unparseable token balance %q: %w", balResp.Balance, err)
	}
	if token.LessThan(game.Shift(s.chainCfg.TokenDecimals)) {
		return apperrors.PreconditionError(ErrInsufficientBalance, "not enough token for game fee")
	}
	return nil
}

// confirmationMismatch compares every caller-echoed field against the stored
// confirmation and names the first field that differs.
func confirmationMismatch(ml *wallet.MintLog, req *ExecuteRequest) string {
	switch {
	case ml.AppID != req.AppID:
		return "appId does not match confirmation"
	case ml.PlayerID != req.PlayerID:
		return "playerId does not match confirmation"
	case ml.AccAddress != req.AccAddress:
		return "accAddress does not match confirmation"
	case ml.MintType != req.MintType:
		return "mintType does not match confirmation"
	case ml.ItemID != req.ItemID:
		return "id does not match confirmation"
	case ml.ServiceFee != req.ServiceFee:
		return "serviceFee does not match confirmation"
	case ml.GameFee != req.GameFee:
		return "gameFee does not match confirmation"
	}
	return ""
}

// metadataAttributes passes the game server's extension blob through when it
// is valid JSON, otherwise drops it.
func metadataAttributes(raw string) json.RawMessage {
	if raw == "" || !json.Valid([]byte(raw)) {
		return nil
	}
	return json.RawMessage(raw)
}
