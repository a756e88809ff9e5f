package chain

import (
	"encoding/base64"
	"encoding/json"
)

// Typed payloads for the token (cw20-style) and NFT (cw721-style) contracts.
// Every contract interaction in the orchestrators goes through these shapes;
// no raw JSON maps are built at call sites.

// CW20BalanceQuery asks the token contract for an address balance.
type CW20BalanceQuery struct {
	Balance struct {
		Address string `json:"address"`
	} `json:"balance"`
}

// NewCW20BalanceQuery builds a token balance query for an address.
func NewCW20BalanceQuery(address string) CW20BalanceQuery {
	var q CW20BalanceQuery
	q.Balance.Address = address
	return q
}

// CW20BalanceResponse is the token contract's balance answer, in the token's
// smallest unit.
type CW20BalanceResponse struct {
	Balance string `json:"balance"`
}

// CW721TokensQuery asks the NFT contract for the token ids owned by an
// address.
type CW721TokensQuery struct {
	Tokens struct {
		Owner string `json:"owner"`
		Limit int    `json:"limit,omitempty"`
	} `json:"tokens"`
}

// NewCW721TokensQuery builds an owned-tokens query for an address.
func NewCW721TokensQuery(owner string) CW721TokensQuery {
	var q CW721TokensQuery
	q.Tokens.Owner = owner
	q.Tokens.Limit = 100
	return q
}

// CW721TokensResponse lists the token ids owned by the queried address.
type CW721TokensResponse struct {
	Tokens []string `json:"tokens"`
}

// CW721MintMsg mints a new NFT to an owner.
type CW721MintMsg struct {
	Mint struct {
		TokenID  string `json:"token_id"`
		Owner    string `json:"owner"`
		TokenURI string `json:"token_uri,omitempty"`
	} `json:"mint"`
}

// NewCW721MintMsg builds an NFT mint payload.
func NewCW721MintMsg(tokenID, owner, tokenURI string) CW721MintMsg {
	var m CW721MintMsg
	m.Mint.TokenID = tokenID
	m.Mint.Owner = owner
	m.Mint.TokenURI = tokenURI
	return m
}

// CW721BurnMsg burns an NFT. Only the current owner may execute it.
type CW721BurnMsg struct {
	Burn struct {
		TokenID string `json:"token_id"`
	} `json:"burn"`
}

// NewCW721BurnMsg builds an NFT burn payload.
func NewCW721BurnMsg(tokenID string) CW721BurnMsg {
	var m CW721BurnMsg
	m.Burn.TokenID = tokenID
	return m
}

// CW721SendNftMsg transfers an NFT to a receiving contract, carrying a
// base64-encoded payload the receiver decodes on its side.
type CW721SendNftMsg struct {
	SendNft struct {
		Contract string `json:"contract"`
		TokenID  string `json:"token_id"`
		Msg      string `json:"msg"`
	} `json:"send_nft"`
}

// NewCW721SendNftMsg builds a send_nft payload embedding hook as the
// receiver's message.
func NewCW721SendNftMsg(contract, tokenID string, hook any) (CW721SendNftMsg, error) {
	raw, err := json.Marshal(hook)
	if err != nil {
		return CW721SendNftMsg{}, err
	}
	var m CW721SendNftMsg
	m.SendNft.Contract = contract
	m.SendNft.TokenID = tokenID
	m.SendNft.Msg = base64.StdEncoding.EncodeToString(raw)
	return m, nil
}
