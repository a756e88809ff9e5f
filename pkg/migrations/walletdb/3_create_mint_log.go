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
		log.Println("creating mint_log table...")
		if err := mghelper.CreateSchema(ctx, db, &walletstore.MintLogDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &walletstore.MintLogDao{}, "acc_address", "created_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping mint_log table...")
		return mghelper.DropTables(ctx, db, &walletstore.MintLogDao{})
	})
}
