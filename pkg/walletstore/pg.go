package walletstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/gamepub/chain-middleware/pkg/wallet"
)

type pgStore struct {
	db bun.IDB
	// root is non-nil only on the top-level store; transaction-scoped
	// stores leave it nil so nested WithTx joins the ongoing transaction.
	root *bun.DB
}

// NewStore creates a new postgres implementation of the wallet store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db, root: db}
}

func (s *pgStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.root == nil {
		return fn(s)
	}
	return s.root.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx bun.Tx) error {
		return fn(&pgStore{db: tx})
	})
}

func (s *pgStore) GetSequenceForUpdate(ctx context.Context, accAddress string) (*wallet.SequenceRecord, error) {
	dao := new(SequenceDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("acc_address = ?", accAddress).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSequenceNotFound
		}
		return nil, fmt.Errorf("failed to get sequence: %w", err)
	}
	return &wallet.SequenceRecord{
		AccAddress:     dao.AccAddress,
		SequenceNumber: uint64(dao.SequenceNumber),
		CreatedAt:      dao.CreatedAt,
		UpdatedAt:      dao.UpdatedAt,
	}, nil
}

func (s *pgStore) SetSequence(ctx context.Context, accAddress string, next uint64) error {
	dao := &SequenceDao{
		AccAddress:     accAddress,
		SequenceNumber: int64(next),
		UpdatedAt:      time.Now(),
	}
	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (acc_address) DO UPDATE").
		Set("sequence_number = EXCLUDED.sequence_number").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set sequence: %w", err)
	}
	return nil
}

func (s *pgStore) CreateTransaction(ctx context.Context, tx *wallet.Transaction) error {
	dao := toTransactionDao(tx)
	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRequest
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (s *pgStore) GetTransaction(ctx context.Context, requestID string) (*wallet.Transaction, error) {
	dao := new(TransactionDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("request_id = ?", requestID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return toTransaction(dao), nil
}

func (s *pgStore) UpdateTransactionStatus(ctx context.Context, requestID string, status wallet.Status, encodedTx []byte, txHash string) error {
	preds := statusPredecessors[status]
	if len(preds) == 0 {
		return ErrInvalidTransition
	}
	from := make([]string, len(preds))
	for i, p := range preds {
		from[i] = string(p)
	}

	q := s.db.NewUpdate().
		Model((*TransactionDao)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = NOW()").
		Where("request_id = ?", requestID).
		Where("status IN (?)", bun.In(from))

	if len(encodedTx) > 0 {
		q = q.Set("tx = ?", encodedTx)
	}
	if txHash != "" {
		q = q.Set("tx_hash = ?", txHash)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		exists, err := s.db.NewSelect().
			Model((*TransactionDao)(nil)).
			Where("request_id = ?", requestID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to update transaction status: %w", err)
		}
		if !exists {
			return ErrTransactionNotFound
		}
		return ErrInvalidTransition
	}
	return nil
}

func (s *pgStore) ListPendingBySigner(ctx context.Context, signerAddress string) ([]*wallet.Transaction, error) {
	var daos []TransactionDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("signer_address = ?", signerAddress).
		Where("status IN (?)", bun.In([]string{
			string(wallet.StatusAwaitingSignature),
			string(wallet.StatusSubmitted),
		})).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	txs := make([]*wallet.Transaction, len(daos))
	for i := range daos {
		txs[i] = toTransaction(&daos[i])
	}
	return txs, nil
}

func (s *pgStore) CreateMintLog(ctx context.Context, ml *wallet.MintLog) error {
	dao := toMintLogDao(ml)
	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRequest
		}
		return fmt.Errorf("failed to create mint log: %w", err)
	}
	return nil
}

func (s *pgStore) GetFreshMintLog(ctx context.Context, requestID string, window time.Duration) (*wallet.MintLog, error) {
	dao := new(MintLogDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("request_id = ?", requestID).
		Where("created_at > ?", time.Now().Add(-window)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMintLogNotFound
		}
		return nil, fmt.Errorf("failed to get mint log: %w", err)
	}
	return toMintLog(dao), nil
}

// isUniqueViolation reports whether err is a postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}
