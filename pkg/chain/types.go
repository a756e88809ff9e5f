package chain

import "encoding/json"

// Account is the chain's view of an account at query time.
type Account struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
	PubKey        string
}

// Coin is an amount of a native denomination, in the smallest unit.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Fee is the transaction fee paid in native coins plus a gas limit.
type Fee struct {
	Amount []Coin `json:"amount"`
	Gas    string `json:"gas"`
}

// Msg is a single transaction message in wire shape.
type Msg struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

const (
	MsgTypeSend            = "bank/MsgSend"
	MsgTypeExecuteContract = "wasm/MsgExecuteContract"
)

// MsgSendValue is the payload of a native coin transfer.
type MsgSendValue struct {
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Amount      []Coin `json:"amount"`
}

// MsgExecuteContractValue is the payload of a smart contract invocation.
type MsgExecuteContractValue struct {
	Sender   string          `json:"sender"`
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
	Funds    []Coin          `json:"funds,omitempty"`
}

// NewMsgSend builds a native coin transfer message.
func NewMsgSend(from, to string, amount []Coin) (Msg, error) {
	raw, err := json.Marshal(MsgSendValue{FromAddress: from, ToAddress: to, Amount: amount})
	if err != nil {
		return Msg{}, err
	}
	return Msg{Type: MsgTypeSend, Value: raw}, nil
}

// NewMsgExecuteContract builds a contract invocation message. execMsg is the
// contract-defined JSON payload.
func NewMsgExecuteContract(sender, contract string, execMsg any, funds []Coin) (Msg, error) {
	payload, err := json.Marshal(execMsg)
	if err != nil {
		return Msg{}, err
	}
	raw, err := json.Marshal(MsgExecuteContractValue{
		Sender:   sender,
		Contract: contract,
		Msg:      payload,
		Funds:    funds,
	})
	if err != nil {
		return Msg{}, err
	}
	return Msg{Type: MsgTypeExecuteContract, Value: raw}, nil
}

// Sender returns the signing account of a message.
func (m Msg) Sender() (string, error) {
	switch m.Type {
	case MsgTypeSend:
		var v MsgSendValue
		if err := json.Unmarshal(m.Value, &v); err != nil {
			return "", err
		}
		return v.FromAddress, nil
	case MsgTypeExecuteContract:
		var v MsgExecuteContractValue
		if err := json.Unmarshal(m.Value, &v); err != nil {
			return "", err
		}
		return v.Sender, nil
	}
	return "", nil
}

// Signature is one signer's signature over a transaction.
type Signature struct {
	PubKey        string `json:"pub_key"`
	Signature     string `json:"signature"`
	AccountNumber uint64 `json:"account_number"`
	Sequence      uint64 `json:"sequence"`
}

// Tx is an unsigned or partially signed transaction. Additional signatures
// are appended until every message sender has signed.
type Tx struct {
	Msgs       []Msg       `json:"msg"`
	Fee        Fee         `json:"fee"`
	Signatures []Signature `json:"signatures"`
	Memo       string      `json:"memo"`
}

// NewTx builds an unsigned transaction from messages and a fee.
func NewTx(msgs []Msg, fee Fee, memo string) *Tx {
	return &Tx{Msgs: msgs, Fee: fee, Signatures: []Signature{}, Memo: memo}
}

// Encode returns the wire bytes of the transaction.
func (t *Tx) Encode() ([]byte, error) {
	return json.Marshal(t)
}

// DecodeTx parses wire bytes back into a transaction.
func DecodeTx(raw []byte) (*Tx, error) {
	var tx Tx
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// BroadcastResult is the chain's synchronous answer to a broadcast.
// Code 0 means the transaction was accepted.
type BroadcastResult struct {
	TxHash string
	Code   uint32
	RawLog string
}

// Success reports whether the chain accepted the transaction.
func (r *BroadcastResult) Success() bool {
	return r.Code == 0
}
