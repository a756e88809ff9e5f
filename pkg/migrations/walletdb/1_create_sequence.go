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
		log.Println("creating sequence table...")
		return mghelper.CreateSchema(ctx, db, &walletstore.SequenceDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping sequence table...")
		return mghelper.DropTables(ctx, db, &walletstore.SequenceDao{})
	})
}
