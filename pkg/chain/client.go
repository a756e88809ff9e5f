package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/gamepub/chain-middleware/pkg/config"
)

// Client defines the chain RPC collaborator. The node's wire protocol and the
// signature scheme live behind this interface; orchestrators only see it.
type Client interface {
	// GetAccount returns the chain's current view of an account,
	// including its reported sequence number.
	GetAccount(ctx context.Context, address string) (*Account, error)
	// GetBalance returns the native coin balance of an address in the
	// smallest unit.
	GetBalance(ctx context.Context, address, denom string) (string, error)
	// EstimateFee simulates the messages and returns a fee covering them.
	EstimateFee(ctx context.Context, signers []string, msgs []Msg) (*Fee, error)
	// Sign has the named service wallet sign the transaction at the given
	// account number and sequence, returning the transaction with the
	// signature appended.
	Sign(ctx context.Context, wallet string, tx *Tx, accountNumber, sequence uint64) (*Tx, error)
	// Broadcast submits encoded transaction bytes and returns the
	// synchronous result.
	Broadcast(ctx context.Context, txBytes []byte) (*BroadcastResult, error)
	// QueryContract runs a smart query against a contract and decodes the
	// result into out.
	QueryContract(ctx context.Context, contract string, query any, out any) error
}

// lcdClient talks to a chain LCD node over HTTP and delegates signing to the
// signer daemon holding the service wallets.
type lcdClient struct {
	cfg    *config.ChainConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates an LCD-backed chain client.
func NewClient(cfg *config.ChainConfig, logger *zap.Logger) Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &lcdClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type accountResponse struct {
	Account struct {
		Address       string `json:"address"`
		AccountNumber string `json:"account_number"`
		Sequence      string `json:"sequence"`
		PubKey        struct {
			Key string `json:"key"`
		} `json:"pub_key"`
	} `json:"account"`
}

func (c *lcdClient) GetAccount(ctx context.Context, address string) (*Account, error) {
	var resp accountResponse
	path := fmt.Sprintf("/cosmos/auth/v1beta1/accounts/%s", url.PathEscape(address))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("query account %s: %w", address, err)
	}

	accNum, err := strconv.ParseUint(resp.Account.AccountNumber, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse account number: %w", err)
	}
	seq, err := strconv.ParseUint(resp.Account.Sequence, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse sequence: %w", err)
	}

	return &Account{
		Address:       resp.Account.Address,
		AccountNumber: accNum,
		Sequence:      seq,
		PubKey:        resp.Account.PubKey.Key,
	}, nil
}

type balanceResponse struct {
	Balance Coin `json:"balance"`
}

func (c *lcdClient) GetBalance(ctx context.Context, address, denom string) (string, error) {
	var resp balanceResponse
	path := fmt.Sprintf("/cosmos/bank/v1beta1/balances/%s/by_denom?denom=%s",
		url.PathEscape(address), url.QueryEscape(denom))
	if err := c.get(ctx, path, &resp); err != nil {
		return "", fmt.Errorf("query balance %s: %w", address, err)
	}
	if resp.Balance.Amount == "" {
		return "0", nil
	}
	return resp.Balance.Amount, nil
}

type estimateFeeRequest struct {
	Signers       []string `json:"signers"`
	Msgs          []Msg    `json:"msgs"`
	GasAdjustment string   `json:"gas_adjustment"`
}

type estimateFeeResponse struct {
	Fee Fee `json:"fee"`
}

func (c *lcdClient) EstimateFee(ctx context.Context, signers []string, msgs []Msg) (*Fee, error) {
	req := estimateFeeRequest{
		Signers:       signers,
		Msgs:          msgs,
		GasAdjustment: strconv.FormatFloat(c.cfg.GasAdjustment, 'f', -1, 64),
	}
	var resp estimateFeeResponse
	if err := c.post(ctx, c.cfg.LCDURL, "/txs/estimate_fee", req, &resp); err != nil {
		return nil, fmt.Errorf("estimate fee: %w", err)
	}
	return &resp.Fee, nil
}

type signRequest struct {
	Wallet        string `json:"wallet"`
	ChainID       string `json:"chain_id"`
	AccountNumber uint64 `json:"account_number"`
	Sequence      uint64 `json:"sequence"`
	Tx            *Tx    `json:"tx"`
}

type signResponse struct {
	Tx *Tx `json:"tx"`
}

func (c *lcdClient) Sign(ctx context.Context, wallet string, tx *Tx, accountNumber, sequence uint64) (*Tx, error) {
	req := signRequest{
		Wallet:        wallet,
		ChainID:       c.cfg.ChainID,
		AccountNumber: accountNumber,
		Sequence:      sequence,
		Tx:            tx,
	}
	var resp signResponse
	if err := c.post(ctx, c.cfg.SignerURL, "/sign", req, &resp); err != nil {
		return nil, fmt.Errorf("sign with wallet %s: %w", wallet, err)
	}
	if resp.Tx == nil {
		return nil, fmt.Errorf("sign with wallet %s: empty response", wallet)
	}
	return resp.Tx, nil
}

type broadcastRequest struct {
	TxBytes string `json:"tx_bytes"`
	Mode    string `json:"mode"`
}

type broadcastResponse struct {
	TxResponse struct {
		TxHash string `json:"txhash"`
		Code   uint32 `json:"code"`
		RawLog string `json:"raw_log"`
	} `json:"tx_response"`
}

func (c *lcdClient) Broadcast(ctx context.Context, txBytes []byte) (*BroadcastResult, error) {
	req := broadcastRequest{
		TxBytes: base64.StdEncoding.EncodeToString(txBytes),
		Mode:    "BROADCAST_MODE_SYNC",
	}
	var resp broadcastResponse
	if err := c.post(ctx, c.cfg.LCDURL, "/cosmos/tx/v1beta1/txs", req, &resp); err != nil {
		return nil, fmt.Errorf("broadcast: %w", err)
	}

	result := &BroadcastResult{
		TxHash: resp.TxResponse.TxHash,
		Code:   resp.TxResponse.Code,
		RawLog: resp.TxResponse.RawLog,
	}
	c.logger.Debug("Broadcast result",
		zap.String("tx_hash", result.TxHash),
		zap.Uint32("code", result.Code))
	return result, nil
}

type smartQueryResponse struct {
	Data json.RawMessage `json:"data"`
}

func (c *lcdClient) QueryContract(ctx context.Context, contract string, query any, out any) error {
	raw, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("marshal contract query: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	var resp smartQueryResponse
	path := fmt.Sprintf("/cosmwasm/wasm/v1/contract/%s/smart/%s",
		url.PathEscape(contract), url.PathEscape(encoded))
	if err := c.get(ctx, path, &resp); err != nil {
		return fmt.Errorf("query contract %s: %w", contract, err)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return fmt.Errorf("decode contract result: %w", err)
		}
	}
	return nil
}

func (c *lcdClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.LCDURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *lcdClient) post(ctx context.Context, base, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *lcdClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
