package walletstore

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gamepub/chain-middleware/pkg/pgutil"
	mghelper "github.com/gamepub/chain-middleware/pkg/pgutil/migrations"
	"github.com/gamepub/chain-middleware/pkg/wallet"
)

func setupStore(t *testing.T) (context.Context, *pgStore) {
	t.Helper()
	requireDockerAccess(t)

	ctx := context.Background()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	if err := mghelper.CreateSchema(ctx, db, &SequenceDao{}, &TransactionDao{}, &MintLogDao{}); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return ctx, NewStore(db)
}

func requireDockerAccess(t *testing.T) {
	t.Helper()

	candidates := []string{
		"/var/run/docker.sock",
		filepath.Join(os.Getenv("HOME"), ".docker/run/docker.sock"),
	}

	for _, sock := range candidates {
		if sock == "" {
			continue
		}
		if _, err := os.Stat(sock); err != nil {
			continue
		}
		conn, err := (&net.Dialer{}).DialContext(context.Background(), "unix", sock)
		if err == nil {
			_ = conn.Close()
			return
		}
	}

	t.Skip("docker daemon socket is not accessible; skipping testcontainer-backed walletstore tests")
}

func newTestTransaction(requestID, signerAddress string, status wallet.Status) *wallet.Transaction {
	return &wallet.Transaction{
		RequestID:     requestID,
		Status:        status,
		TxType:        wallet.TxTypeMint,
		AppID:         "game-1",
		PlayerID:      "player-1",
		AccAddress:    "xpla1useraccountabc",
		SignerAddress: signerAddress,
		Params:        `{"requestId":"` + requestID + `"}`,
	}
}

func TestWalletPGStore_SequenceLifecycle(t *testing.T) {
	ctx, s := setupStore(t)

	const account = "xpla1minteraddr"

	_, err := s.GetSequenceForUpdate(ctx, account)
	if !errors.Is(err, ErrSequenceNotFound) {
		t.Fatalf("expected ErrSequenceNotFound for unseeded account, got: %v", err)
	}

	if err := s.SetSequence(ctx, account, 7); err != nil {
		t.Fatalf("SetSequence() failed: %v", err)
	}

	rec, err := s.GetSequenceForUpdate(ctx, account)
	if err != nil {
		t.Fatalf("GetSequenceForUpdate() failed: %v", err)
	}
	if rec.AccAddress != account {
		t.Fatalf("expected account %s, got %s", account, rec.AccAddress)
	}
	if rec.SequenceNumber != 7 {
		t.Fatalf("expected sequence 7, got %d", rec.SequenceNumber)
	}

	// Upsert path: same account, higher value.
	if err := s.SetSequence(ctx, account, 12); err != nil {
		t.Fatalf("SetSequence() upsert failed: %v", err)
	}
	rec, err = s.GetSequenceForUpdate(ctx, account)
	if err != nil {
		t.Fatalf("GetSequenceForUpdate() after upsert failed: %v", err)
	}
	if rec.SequenceNumber != 12 {
		t.Fatalf("expected sequence 12 after upsert, got %d", rec.SequenceNumber)
	}
}

func TestWalletPGStore_CreateTransactionDuplicateRequestID(t *testing.T) {
	ctx, s := setupStore(t)

	tx := newTestTransaction("req-1", "xpla1minteraddr", wallet.StatusAwaitingSignature)
	if err := s.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction() failed: %v", err)
	}

	dup := newTestTransaction("req-1", "", wallet.StatusSubmitted)
	err := s.CreateTransaction(ctx, dup)
	if !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got: %v", err)
	}

	// Original row is untouched.
	got, err := s.GetTransaction(ctx, "req-1")
	if err != nil {
		t.Fatalf("GetTransaction() failed: %v", err)
	}
	if got.Status != wallet.StatusAwaitingSignature {
		t.Fatalf("expected status %s, got %s", wallet.StatusAwaitingSignature, got.Status)
	}
	if got.SignerAddress != "xpla1minteraddr" {
		t.Fatalf("expected signer preserved, got %q", got.SignerAddress)
	}
}

func TestWalletPGStore_GetTransactionNotFound(t *testing.T) {
	ctx, s := setupStore(t)

	_, err := s.GetTransaction(ctx, "missing")
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got: %v", err)
	}
}

func TestWalletPGStore_UpdateTransactionStatus(t *testing.T) {
	ctx, s := setupStore(t)

	tx := newTestTransaction("req-2", "", wallet.StatusAwaitingSignature)
	if err := s.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction() failed: %v", err)
	}

	signed := []byte("signed-tx-bytes")
	if err := s.UpdateTransactionStatus(ctx, "req-2", wallet.StatusSubmitted, signed, ""); err != nil {
		t.Fatalf("UpdateTransactionStatus() to SUBMITTED failed: %v", err)
	}

	got, err := s.GetTransaction(ctx, "req-2")
	if err != nil {
		t.Fatalf("GetTransaction() failed: %v", err)
	}
	if got.Status != wallet.StatusSubmitted {
		t.Fatalf("expected status SUBMITTED, got %s", got.Status)
	}
	if string(got.EncodedTx) != "signed-tx-bytes" {
		t.Fatalf("expected encoded tx to be persisted, got %q", got.EncodedTx)
	}
	if got.TxHash != "" {
		t.Fatalf("expected empty tx hash before confirmation, got %q", got.TxHash)
	}

	if err := s.UpdateTransactionStatus(ctx, "req-2", wallet.StatusConfirmed, nil, "ABC123HASH"); err != nil {
		t.Fatalf("UpdateTransactionStatus() to CONFIRMED failed: %v", err)
	}

	got, err = s.GetTransaction(ctx, "req-2")
	if err != nil {
		t.Fatalf("GetTransaction() failed: %v", err)
	}
	if got.Status != wallet.StatusConfirmed {
		t.Fatalf("expected status CONFIRMED, got %s", got.Status)
	}
	if got.TxHash != "ABC123HASH" {
		t.Fatalf("expected tx hash persisted, got %q", got.TxHash)
	}
	// Empty encodedTx must not clobber the stored payload.
	if string(got.EncodedTx) != "signed-tx-bytes" {
		t.Fatalf("expected encoded tx preserved, got %q", got.EncodedTx)
	}

	err = s.UpdateTransactionStatus(ctx, "missing", wallet.StatusFailed, nil, "")
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound for missing row, got: %v", err)
	}
}

func TestWalletPGStore_UpdateTransactionStatusGuardsTransitions(t *testing.T) {
	ctx, s := setupStore(t)

	tx := newTestTransaction("req-3", "", wallet.StatusConfirmed)
	if err := s.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction() failed: %v", err)
	}

	// A settled record must not move again, whichever writer asks.
	err := s.UpdateTransactionStatus(ctx, "req-3", wallet.StatusFailed, nil, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for CONFIRMED -> FAILED, got: %v", err)
	}

	// Nothing is ever moved back to AWAITING_SIGNATURE.
	err = s.UpdateTransactionStatus(ctx, "req-3", wallet.StatusAwaitingSignature, nil, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for a move back to AWAITING_SIGNATURE, got: %v", err)
	}

	got, err := s.GetTransaction(ctx, "req-3")
	if err != nil {
		t.Fatalf("GetTransaction() failed: %v", err)
	}
	if got.Status != wallet.StatusConfirmed {
		t.Fatalf("expected row untouched at CONFIRMED, got %s", got.Status)
	}
}

func TestWalletPGStore_ListPendingBySigner(t *testing.T) {
	ctx, s := setupStore(t)

	const signer = "xpla1minteraddr"

	fixtures := []*wallet.Transaction{
		newTestTransaction("req-a", signer, wallet.StatusAwaitingSignature),
		newTestTransaction("req-b", signer, wallet.StatusSubmitted),
		newTestTransaction("req-c", signer, wallet.StatusConfirmed),
		newTestTransaction("req-d", signer, wallet.StatusFailed),
		newTestTransaction("req-e", "xpla1otheraddr", wallet.StatusSubmitted),
		newTestTransaction("req-f", "", wallet.StatusAwaitingSignature),
	}
	for _, tx := range fixtures {
		if err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction(%s) failed: %v", tx.RequestID, err)
		}
	}

	pending, err := s.ListPendingBySigner(ctx, signer)
	if err != nil {
		t.Fatalf("ListPendingBySigner() failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending transactions, got %d", len(pending))
	}
	seen := map[string]bool{}
	for _, tx := range pending {
		seen[tx.RequestID] = true
		if tx.SignerAddress != signer {
			t.Fatalf("unexpected signer %q on %s", tx.SignerAddress, tx.RequestID)
		}
	}
	if !seen["req-a"] || !seen["req-b"] {
		t.Fatalf("expected req-a and req-b, got %v", seen)
	}
}

func TestWalletPGStore_MintLogFreshness(t *testing.T) {
	ctx, s := setupStore(t)

	ml := &wallet.MintLog{
		RequestID:  "mint-1",
		MintType:   "item",
		PlayerID:   "player-1",
		Server:     "eu-1",
		AccAddress: "xpla1useraccountabc",
		AppID:      "game-1",
		ItemID:     "sword-9",
		Metadata:   `{"name":"sword"}`,
		ServiceFee: "1.5",
		GameFee:    "2",
		Status:     "CONFIRMED",
	}
	if err := s.CreateMintLog(ctx, ml); err != nil {
		t.Fatalf("CreateMintLog() failed: %v", err)
	}

	got, err := s.GetFreshMintLog(ctx, "mint-1", wallet.FreshnessWindow)
	if err != nil {
		t.Fatalf("GetFreshMintLog() failed: %v", err)
	}
	if got.ItemID != "sword-9" {
		t.Fatalf("expected item sword-9, got %s", got.ItemID)
	}
	if got.AppID != "game-1" {
		t.Fatalf("expected app game-1, got %s", got.AppID)
	}

	// A row just written is never fresh under a zero-length window.
	time.Sleep(10 * time.Millisecond)
	_, err = s.GetFreshMintLog(ctx, "mint-1", 0)
	if !errors.Is(err, ErrMintLogNotFound) {
		t.Fatalf("expected ErrMintLogNotFound for expired confirmation, got: %v", err)
	}

	_, err = s.GetFreshMintLog(ctx, "mint-unknown", wallet.FreshnessWindow)
	if !errors.Is(err, ErrMintLogNotFound) {
		t.Fatalf("expected ErrMintLogNotFound for unknown request, got: %v", err)
	}

	dup := *ml
	err = s.CreateMintLog(ctx, &dup)
	if !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest for repeated confirmation, got: %v", err)
	}
}

func TestWalletPGStore_WithTxRollsBackOnError(t *testing.T) {
	ctx, s := setupStore(t)

	errBoom := errors.New("boom")

	err := s.WithTx(ctx, func(tx Store) error {
		if err := tx.CreateTransaction(ctx, newTestTransaction("req-tx", "", wallet.StatusConfirmed)); err != nil {
			return err
		}
		if err := tx.SetSequence(ctx, "xpla1lockowneraddr", 42); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected fn error to propagate, got: %v", err)
	}

	_, err = s.GetTransaction(ctx, "req-tx")
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected transaction rolled back, got: %v", err)
	}
	_, err = s.GetSequenceForUpdate(ctx, "xpla1lockowneraddr")
	if !errors.Is(err, ErrSequenceNotFound) {
		t.Fatalf("expected sequence rolled back, got: %v", err)
	}
}

func TestWalletPGStore_WithTxCommits(t *testing.T) {
	ctx, s := setupStore(t)

	err := s.WithTx(ctx, func(tx Store) error {
		// Nested WithTx joins the ongoing transaction.
		return tx.WithTx(ctx, func(inner Store) error {
			return inner.CreateTransaction(ctx, newTestTransaction("req-nested", "", wallet.StatusConfirmed))
		})
	})
	if err != nil {
		t.Fatalf("WithTx() failed: %v", err)
	}

	got, err := s.GetTransaction(ctx, "req-nested")
	if err != nil {
		t.Fatalf("GetTransaction() failed: %v", err)
	}
	if got.Status != wallet.StatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", got.Status)
	}
}
