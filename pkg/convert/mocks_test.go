package convert

import (
	"context"

	"github.com/gamepub/chain-middleware/pkg/chain"
	"github.com/gamepub/chain-middleware/pkg/wallet"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	CreateTransactionFunc       func(ctx context.Context, tx *wallet.Transaction) error
	UpdateTransactionStatusFunc func(ctx context.Context, requestID string, status wallet.Status, encodedTx []byte, txHash string) error
}

func (m *MockStore) CreateTransaction(ctx context.Context, tx *wallet.Transaction) error {
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, tx)
	}
	return nil
}

func (m *MockStore) UpdateTransactionStatus(ctx context.Context, requestID string, status wallet.Status, encodedTx []byte, txHash string) error {
	if m.UpdateTransactionStatusFunc != nil {
		return m.UpdateTransactionStatusFunc(ctx, requestID, status, encodedTx, txHash)
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
	if resp, ok := out.(*chain.CW20BalanceResponse); ok {
		resp.Balance = "1000000000"
	}
	return nil
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
