package sequence

import (
	"context"
	"sync"
	"time"

	"github.com/gamepub/chain-middleware/pkg/chain"
	"github.com/gamepub/chain-middleware/pkg/wallet"
	"github.com/gamepub/chain-middleware/pkg/walletstore"
)

// MockStore is an in-memory walletstore.Store. Sequence records live in a
// map so multi-step allocation flows behave like the real store; WithTx runs
// the unit of work against the mock itself, serialized under txMu the way
// the row lock serializes real transactions.
type MockStore struct {
	txMu      sync.Mutex
	mu        sync.Mutex
	sequences map[string]uint64
	updatedAt map[string]time.Time

	WithTxFunc               func(ctx context.Context, fn func(tx walletstore.Store) error) error
	GetSequenceForUpdateFunc func(ctx context.Context, accAddress string) (*wallet.SequenceRecord, error)
	SetSequenceFunc          func(ctx context.Context, accAddress string, next uint64) error
	ListPendingBySignerFunc  func(ctx context.Context, signerAddress string) ([]*wallet.Transaction, error)
}

func NewMockStore() *MockStore {
	return &MockStore{
		sequences: make(map[string]uint64),
		updatedAt: make(map[string]time.Time),
	}
}

// Seed stores a sequence value directly, bypassing any SetSequenceFunc hook.
// The record's update time is left at its zero value, i.e. long stale.
func (m *MockStore) Seed(accAddress string, next uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[accAddress] = next
}

// Stored returns the stored next-sequence value for an account.
func (m *MockStore) Stored(accAddress string) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.sequences[accAddress]
	return v, ok
}

func (m *MockStore) WithTx(ctx context.Context, fn func(tx walletstore.Store) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *MockStore) GetSequenceForUpdate(ctx context.Context, accAddress string) (*wallet.SequenceRecord, error) {
	if m.GetSequenceForUpdateFunc != nil {
		return m.GetSequenceForUpdateFunc(ctx, accAddress)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.sequences[accAddress]
	if !ok {
		return nil, walletstore.ErrSequenceNotFound
	}
	return &wallet.SequenceRecord{
		AccAddress:     accAddress,
		SequenceNumber: v,
		UpdatedAt:      m.updatedAt[accAddress],
	}, nil
}

func (m *MockStore) SetSequence(ctx context.Context, accAddress string, next uint64) error {
	if m.SetSequenceFunc != nil {
		return m.SetSequenceFunc(ctx, accAddress, next)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[accAddress] = next
	m.updatedAt[accAddress] = time.Now()
	return nil
}

func (m *MockStore) CreateTransaction(ctx context.Context, tx *wallet.Transaction) error {
	return nil
}

func (m *MockStore) GetTransaction(ctx context.Context, requestID string) (*wallet.Transaction, error) {
	return nil, walletstore.ErrTransactionNotFound
}

func (m *MockStore) UpdateTransactionStatus(ctx context.Context, requestID string, status wallet.Status, encodedTx []byte, txHash string) error {
	return nil
}

func (m *MockStore) ListPendingBySigner(ctx context.Context, signerAddress string) ([]*wallet.Transaction, error) {
	if m.ListPendingBySignerFunc != nil {
		return m.ListPendingBySignerFunc(ctx, signerAddress)
	}
	return nil, nil
}

func (m *MockStore) CreateMintLog(ctx context.Context, ml *wallet.MintLog) error {
	return nil
}

func (m *MockStore) GetFreshMintLog(ctx context.Context, requestID string, window time.Duration) (*wallet.MintLog, error) {
	return nil, walletstore.ErrMintLogNotFound
}

// MockChainReader is a mock implementation of ChainReader
type MockChainReader struct {
	GetAccountFunc func(ctx context.Context, address string) (*chain.Account, error)
}

func (m *MockChainReader) GetAccount(ctx context.Context, address string) (*chain.Account, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, address)
	}
	return &chain.Account{Address: address}, nil
}
