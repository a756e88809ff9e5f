// Package gameserver talks to the per-app game server HTTP APIs used to
// reserve, commit and release in-game items around on-chain operations.
package gameserver

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrUnknownApp is returned when no game server is configured for an app id.
var ErrUnknownApp = errors.New("unknown app id")

// API is the game server operation surface for one app.
type API interface {
	// ConfirmMint reserves an item ahead of a mint and returns its
	// provisional unique id plus app-defined metadata.
	ConfirmMint(ctx context.Context, req *ConfirmMintRequest) (*ConfirmMintResponse, error)
	// CommitMint commits the reserved item change after the mint
	// transaction is assembled.
	CommitMint(ctx context.Context, req *CommitMintRequest) error
	// UnlockItem notifies the game server that a locked item is being
	// released back to the player.
	UnlockItem(ctx context.Context, req *UnlockItemRequest) (*UnlockItemResponse, error)
}

// ConfirmMintRequest reserves items for a player
type ConfirmMintRequest struct {
	RequestID string   `json:"request_id"`
	PlayerID  string   `json:"player_id"`
	Server    string   `json:"server"`
	MintType  string   `json:"mint_type"`
	Items     []string `json:"items"`
}

// ConfirmMintResponse carries the reserved item's provisional identity
type ConfirmMintResponse struct {
	UniqueID  string          `json:"unique_id"`
	Extension json.RawMessage `json:"extension,omitempty"`
}

// CommitMintRequest commits a reserved item change
type CommitMintRequest struct {
	RequestID string `json:"request_id"`
	PlayerID  string `json:"player_id"`
	Server    string `json:"server"`
	MintType  string `json:"mint_type"`
	ItemID    string `json:"item_id"`
}

// UnlockItemRequest releases a locked item back to the player
type UnlockItemRequest struct {
	RequestID string `json:"request_id"`
	PlayerID  string `json:"player_id"`
	TokenID   string `json:"token_id"`
}

// UnlockItemResponse reports the game server's result code; 0 means success
type UnlockItemResponse struct {
	Code int `json:"code"`
}

// App bundles one app's game server client with its fee configuration.
type App struct {
	AppID      string
	ServiceFee string
	GameFee    string
	API        API
}

// Registry resolves the game server for an app id. Lookups are typed; there
// is no runtime key probing.
type Registry struct {
	apps map[string]*App
}

// NewRegistry builds a registry from configured apps
func NewRegistry(apps map[string]*App) *Registry {
	return &Registry{apps: apps}
}

// Get returns the app entry for an app id
func (r *Registry) Get(appID string) (*App, error) {
	app, ok := r.apps[appID]
	if !ok {
		return nil, ErrUnknownApp
	}
	return app, nil
}
