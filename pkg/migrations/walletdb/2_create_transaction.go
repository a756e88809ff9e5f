package walletdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/gamepub/chain-middleware/pkg/pgutil/migrations"
	"github.com/gamepub/chain-middleware/pkg/walletstore"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating transaction table...")
		if err := mghelper.CreateSchema(ctx, db, &walletstore.TransactionDao{}); err != nil {
			return err
		}
		// Pending-by-signer lookups drive the reconciliation sweep
		return mghelper.CreateModelIndexes(ctx, db, &walletstore.TransactionDao{}, "signer_address", "status", "acc_address")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping transaction table...")
		return mghelper.DropTables(ctx, db, &walletstore.TransactionDao{})
	})
}
