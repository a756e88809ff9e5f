// Package wallet holds the domain model for transaction bookkeeping:
// per-account sequence records, the transaction ledger and mint
// confirmation logs.
package wallet

import "time"

// Status represents the lifecycle state of a recorded transaction
type Status string

const (
	// StatusAwaitingSignature is set when an orchestrator persists a
	// freshly assembled (possibly service-pre-signed) transaction that
	// still needs the end user's signature.
	StatusAwaitingSignature Status = "AWAITING_SIGNATURE"
	// StatusSubmitted is set before the broadcast call completes, so a
	// crash mid-broadcast shows "in flight" rather than silently lost.
	StatusSubmitted Status = "SUBMITTED"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
)

// TxType classifies the logical operation behind a transaction
type TxType string

const (
	TxTypeMint              TxType = "mint"
	TxTypeBurn              TxType = "burn"
	TxTypeLock              TxType = "lock"
	TxTypeUnlock            TxType = "unlock"
	TxTypeConvertToCurrency TxType = "convert_to_currency"
	TxTypeConvertToToken    TxType = "convert_to_token"
)

// SequenceRecord tracks the next sequence number to hand out for one
// chain account. The stored value is monotonically non-decreasing and
// never reused.
type SequenceRecord struct {
	AccAddress     string
	SequenceNumber uint64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Transaction is the ledger record for one constructed transaction,
// keyed by the client-supplied request id (the idempotency key).
type Transaction struct {
	RequestID       string
	TxHash          string
	EncodedTx       []byte
	Status          Status
	TxType          TxType
	AppID           string
	PlayerID        string
	AccAddress      string
	ContractAddress string
	// SignerAddress is the service-owned co-signer (minter, lock owner,
	// pool) when one participates, empty for purely user-signed flows.
	SignerAddress string
	// Params is a serialized snapshot of the originating request, kept
	// for later consistency checks.
	Params    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MintLog records the confirm phase of the two-phase mint flow. It is
// only honored within the freshness window from CreatedAt.
type MintLog struct {
	RequestID  string
	MintType   string
	PlayerID   string
	Server     string
	AccAddress string
	AppID      string
	ItemID     string
	Metadata   string
	ServiceFee string
	GameFee    string
	Status     string
	CreatedAt  time.Time
}

// FreshnessWindow is how long a mint confirmation stays valid.
const FreshnessWindow = 5 * time.Minute
