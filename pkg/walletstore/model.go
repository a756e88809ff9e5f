package walletstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/gamepub/chain-middleware/pkg/wallet"
)

// SequenceDao is a data access object that maps directly to the 'sequence' table in PostgreSQL.
type SequenceDao struct {
	bun.BaseModel  `bun:"table:sequence,alias:s"`
	AccAddress     string    `bun:"acc_address,pk,type:varchar(64)"`
	SequenceNumber int64     `bun:"sequence_number,notnull"`
	CreatedAt      time.Time `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

// TransactionDao is a data access object that maps directly to the 'transaction' table in PostgreSQL.
type TransactionDao struct {
	bun.BaseModel   `bun:"table:transaction,alias:t"`
	RequestID       string    `bun:"request_id,pk,type:varchar(128)"`
	TxHash          *string   `bun:"tx_hash,type:varchar(64)"`
	Tx              []byte    `bun:"tx,type:bytea"`
	Status          string    `bun:"status,notnull,type:varchar(32)"`
	TxType          string    `bun:"tx_type,notnull,type:varchar(32)"`
	AppID           string    `bun:"app_id,notnull,type:varchar(64)"`
	PlayerID        string    `bun:"player_id,notnull,type:varchar(64)"`
	AccAddress      string    `bun:"acc_address,notnull,type:varchar(64)"`
	ContractAddress *string   `bun:"contract_address,type:varchar(64)"`
	SignerAddress   *string   `bun:"signer_address,type:varchar(64)"`
	Params          string    `bun:"params,type:text"`
	CreatedAt       time.Time `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

// MintLogDao is a data access object that maps directly to the 'mint_log' table in PostgreSQL.
type MintLogDao struct {
	bun.BaseModel `bun:"table:mint_log,alias:m"`
	RequestID     string    `bun:"request_id,pk,type:varchar(128)"`
	MintType      string    `bun:"mint_type,notnull,type:varchar(32)"`
	PlayerID      string    `bun:"player_id,notnull,type:varchar(64)"`
	Server        string    `bun:"server,type:varchar(64)"`
	AccAddress    string    `bun:"acc_address,notnull,type:varchar(64)"`
	AppID         string    `bun:"app_id,notnull,type:varchar(64)"`
	ItemID        string    `bun:"item_id,notnull,type:varchar(128)"`
	Metadata      string    `bun:"metadata,type:text"`
	ServiceFee    string    `bun:"service_fee,notnull,type:numeric(38,18)"`
	GameFee       string    `bun:"game_fee,notnull,type:numeric(38,18)"`
	Status        string    `bun:"status,notnull,type:varchar(32)"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func toTransactionDao(tx *wallet.Transaction) *TransactionDao {
	dao := &TransactionDao{
		RequestID:  tx.RequestID,
		Tx:         tx.EncodedTx,
		Status:     string(tx.Status),
		TxType:     string(tx.TxType),
		AppID:      tx.AppID,
		PlayerID:   tx.PlayerID,
		AccAddress: tx.AccAddress,
		Params:     tx.Params,
	}
	if tx.TxHash != "" {
		dao.TxHash = &tx.TxHash
	}
	if tx.ContractAddress != "" {
		dao.ContractAddress = &tx.ContractAddress
	}
	if tx.SignerAddress != "" {
		dao.SignerAddress = &tx.SignerAddress
	}
	return dao
}

func toTransaction(dao *TransactionDao) *wallet.Transaction {
	tx := &wallet.Transaction{
		RequestID:  dao.RequestID,
		EncodedTx:  dao.Tx,
		Status:     wallet.Status(dao.Status),
		TxType:     wallet.TxType(dao.TxType),
		AppID:      dao.AppID,
		PlayerID:   dao.PlayerID,
		AccAddress: dao.AccAddress,
		Params:     dao.Params,
		CreatedAt:  dao.CreatedAt,
		UpdatedAt:  dao.UpdatedAt,
	}
	if dao.TxHash != nil {
		tx.TxHash = *dao.TxHash
	}
	if dao.ContractAddress != nil {
		tx.ContractAddress = *dao.ContractAddress
	}
	if dao.SignerAddress != nil {
		tx.SignerAddress = *dao.SignerAddress
	}
	return tx
}

func toMintLogDao(ml *wallet.MintLog) *MintLogDao {
	return &MintLogDao{
		RequestID:  ml.RequestID,
		MintType:   ml.MintType,
		PlayerID:   ml.PlayerID,
		Server:     ml.Server,
		AccAddress: ml.AccAddress,
		AppID:      ml.AppID,
		ItemID:     ml.ItemID,
		Metadata:   ml.Metadata,
		ServiceFee: ml.ServiceFee,
		GameFee:    ml.GameFee,
		Status:     ml.Status,
	}
}

func toMintLog(dao *MintLogDao) *wallet.MintLog {
	return &wallet.MintLog{
		RequestID:  dao.RequestID,
		MintType:   dao.MintType,
		PlayerID:   dao.PlayerID,
		Server:     dao.Server,
		AccAddress: dao.AccAddress,
		AppID:      dao.AppID,
		ItemID:     dao.ItemID,
		Metadata:   dao.Metadata,
		ServiceFee: dao.ServiceFee,
		GameFee:    dao.GameFee,
		Status:     dao.Status,
		CreatedAt:  dao.CreatedAt,
	}
}
