package mint

import (
	"context"
	"time"

	"github.com/gamepub/chain-middleware/pkg/assets"
	"github.com/gamepub/chain-middleware/pkg/chain"
	"github.com/gamepub/chain-middleware/pkg/gameserver"
	"github.com/gamepub/chain-middleware/pkg/wallet"
	"github.com/gamepub/chain-middleware/pkg/walletstore"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	CreateMintLogFunc     func(ctx context.Context, ml *wallet.MintLog) error
	GetFreshMintLogFunc   func(ctx context.Context, requestID string, window time.Duration) (*wallet.MintLog, error)
	CreateTransactionFunc func(ctx context.Context, tx *wallet.Transaction) error
}

func (m *MockStore) CreateMintLog(ctx context.Context, ml *wallet.MintLog) error {
	if m.CreateMintLogFunc != nil {
		return m.CreateMintLogFunc(ctx, ml)
	}
	return nil
}

func (m *MockStore) GetFreshMintLog(ctx context.Context, requestID string, window time.Duration) (*wallet.MintLog, error) {
	if m.GetFreshMintLogFunc != nil {
		return m.GetFreshMintLogFunc(ctx, requestID, window)
	}
	return nil, walletstore.ErrMintLogNotFound
}

func (m *MockStore) CreateTransaction(ctx context.Context, tx *wallet.Transaction) error {
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, tx)
	}
	return nil
}

// MockChain is a mock implementation of chain.Client
type MockChain struct {
	GetAccountFunc    func(ctx context.Context, address string) (*chain.Account, error)
	GetBalanceFunc    func(ctx context.Context, address, denom string) (string, error)
	EstimateFeeFunc   func(ctx context.Context, signers []string, msgs []chain.Msg) (*chain.Fee, error)
	SignFunc          func(ctx context.Context, wallet string, tx *chain.Tx, accountNumber, sequence uint64) (*chain.Tx, error)
	BroadcastFunc     func(ctx context.Context, txBytes []byte) (*chain.BroadcastResult, error)
	QueryContractFunc func(ctx context.Context, contract string, query any, out any) error
}

func (m *MockChain) GetAccount(ctx context.Context, address string) (*chain.Account, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, address)
	}
	return &chain.Account{Address: address}, nil
}

func (m *MockChain) GetBalance(ctx context.Context, address, denom string) (string, error) {
	if m.GetBalanceFunc != nil {
		return m.GetBalanceFunc(ctx, address, denom)
	}
	return "0", nil
}

func (m *MockChain) EstimateFee(ctx context.Context, signers []string, msgs []chain.Msg) (*chain.Fee, error) {
	if m.EstimateFeeFunc != nil {
		return m.EstimateFeeFunc(ctx, signers, msgs)
	}
	return &chain.Fee{Gas: "200000"}, nil
}

func (m *MockChain) Sign(ctx context.Context, wallet string, tx *chain.Tx, accountNumber, sequence uint64) (*chain.Tx, error) {
	if m.SignFunc != nil {
		return m.SignFunc(ctx, wallet, tx, accountNumber, sequence)
	}
	signed := *tx
	signed.Signatures = append(signed.Signatures, chain.Signature{
		PubKey:        "mock",
		Signature:     "mock",
		AccountNumber: accountNumber,
		Sequence:      sequence,
	})
	return &signed, nil
}

func (m *MockChain) Broadcast(ctx context.Context, txBytes []byte) (*chain.BroadcastResult, error) {
	if m.BroadcastFunc != nil {
		return m.BroadcastFunc(ctx, txBytes)
	}
	return &chain.BroadcastResult{TxHash: "MOCKHASH"}, nil
}

func (m *MockChain) QueryContract(ctx context.Context, contract string, query any, out any) error {
	if m.QueryContractFunc != nil {
		return m.QueryContractFunc(ctx, contract, query, out)
	}
	return nil
}

// MockUploader is a mock implementation of assets.Uploader
type MockUploader struct {
	UploadMetadataFunc func(ctx context.Context, tokenID string, meta *assets.Metadata) (string, error)
}

func (m *MockUploader) UploadMetadata(ctx context.Context, tokenID string, meta *assets.Metadata) (string, error) {
	if m.UploadMetadataFunc != nil {
		return m.UploadMetadataFunc(ctx, tokenID, meta)
	}
	return "ipfs://mock/" + tokenID, nil
}

// MockAllocator is a mock implementation of Allocator
type MockAllocator struct {
	AllocateFunc func(ctx context.Context, accAddress string) (uint64, error)
}

func (m *MockAllocator) Allocate(ctx context.Context, accAddress string) (uint64, error) {
	if m.AllocateFunc != nil {
		return m.AllocateFunc(ctx, accAddress)
	}
	return 0, nil
}

// MockGameServer is a mock implementation of gameserver.API
type MockGameServer struct {
	ConfirmMintFunc func(ctx context.Context, req *gameserver.ConfirmMintRequest) (*gameserver.ConfirmMintResponse, error)
	CommitMintFunc  func(ctx context.Context, req *gameserver.CommitMintRequest) error
	UnlockItemFunc  func(ctx context.Context, req *gameserver.UnlockItemRequest) (*gameserver.UnlockItemResponse, error)
}

func (m *MockGameServer) ConfirmMint(ctx context.Context, req *gameserver.ConfirmMintRequest) (*gameserver.ConfirmMintResponse, error) {
	if m.ConfirmMintFunc != nil {
		return m.ConfirmMintFunc(ctx, req)
	}
	return &gameserver.ConfirmMintResponse{UniqueID: "item-1"}, nil
}

func (m *MockGameServer) CommitMint(ctx context.Context, req *gameserver.CommitMintRequest) error {
	if m.CommitMintFunc != nil {
		return m.CommitMintFunc(ctx, req)
	}
	return nil
}

func (m *MockGameServer) UnlockItem(ctx context.Context, req *gameserver.UnlockItemRequest) (*gameserver.UnlockItemResponse, error) {
	if m.UnlockItemFunc != nil {
		return m.UnlockItemFunc(ctx, req)
	}
	return &gameserver.UnlockItemResponse{Code: 0}, nil
}
