package lock

import (
	"context"
	"time"

	"github.com/gamepub/chain-middleware/pkg/chain"
	"github.com/gamepub/chain-middleware/pkg/gameserver"
	"github.com/gamepub/chain-middleware/pkg/wallet"
	"github.com/gamepub/chain-middleware/pkg/walletstore"
)

// MockStore is a mock implementation of walletstore.Store. WithTx runs the
// unit of work against the mock itself.
type MockStore struct {
	WithTxFunc                  func(ctx context.Context, fn func(tx walletstore.Store) error) error
	GetSequenceForUpdateFunc    func(ctx context.Context, accAddress string) (*wallet.SequenceRecord, error)
	SetSequenceFunc             func(ctx context.Context, accAddress string, next uint64) error
	CreateTransactionFunc       func(ctx context.Context, tx *wallet.Transaction) error
	GetTransactionFunc          func(ctx context.Context, requestID string) (*wallet.Transaction, error)
	UpdateTransactionStatusFunc func(ctx context.Context, requestID string, status wallet.Status, encodedTx []byte, txHash string) error
	ListPendingBySignerFunc     func(ctx context.Context, signerAddress string) ([]*wallet.Transaction, error)
	CreateMintLogFunc           func(ctx context.Context, ml *wallet.MintLog) error
	GetFreshMintLogFunc         func(ctx context.Context, requestID string, window time.Duration) (*wallet.MintLog, error)
}

func (m *MockStore) WithTx(ctx context.Context, fn func(tx walletstore.Store) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	return fn(m)
}

func (m *MockStore) GetSequenceForUpdate(ctx context.Context, accAddress string) (*wallet.SequenceRecord, error) {
	if m.GetSequenceForUpdateFunc != nil {
		return m.GetSequenceForUpdateFunc(ctx, accAddress)
	}
	return nil, walletstore.ErrSequenceNotFound
}

func (m *MockStore) SetSequence(ctx context.Context, accAddress string, next uint64) error {
	if m.SetSequenceFunc != nil {
		return m.SetSequenceFunc(ctx, accAddress, next)
	}
	return nil
}

func (m *MockStore) CreateTransaction(ctx context.Context, tx *wallet.Transaction) error {
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, tx)
	}
	return nil
}

func (m *MockStore) GetTransaction(ctx context.Context, requestID string) (*wallet.Transaction, error) {
	if m.GetTransactionFunc != nil {
		return m.GetTransactionFunc(ctx, requestID)
	}
	return nil, walletstore.ErrTransactionNotFound
}

func (m *MockStore) UpdateTransactionStatus(ctx context.Context, requestID string, status wallet.Status, encodedTx []byte, txHash string) error {
	if m.UpdateTransactionStatusFunc != nil {
		return m.UpdateTransactionStatusFunc(ctx, requestID, status, encodedTx, txHash)
	}
	return nil
}

func (m *MockStore) ListPendingBySigner(ctx context.Context, signerAddress string) ([]*wallet.Transaction, error) {
	if m.ListPendingBySignerFunc != nil {
		return m.ListPendingBySignerFunc(ctx, signerAddress)
	}
	return nil, nil
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

// MockLocalAllocator is a mock implementation of LocalAllocator
type MockLocalAllocator struct {
	AllocateLocalFunc func(ctx context.Context, tx walletstore.Store, accAddress string) (uint64, error)
}

func (m *MockLocalAllocator) AllocateLocal(ctx context.Context, tx walletstore.Store, accAddress string) (uint64, error) {
	if m.AllocateLocalFunc != nil {
		return m.AllocateLocalFunc(ctx, tx, accAddress)
	}
	return 0, nil
}
